package assets

import "github.com/spaghettifunk/anima-spine/engine/renderer/metadata"

// Loader turns one indexed file into a resource. params is loader specific
// and may be nil.
type Loader interface {
	Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error)
	// Unload gives back whatever Load acquired for the resource.
	Unload(resource *metadata.Resource) error
}
