package loaders

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-spine/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-spine/engine/spine"
)

// AtlasResourceData holds every page of a parsed .spine_atlas file.
type AtlasResourceData struct {
	Pages []*spine.Atlas
}

type AtlasLoader struct{}

func (al *AtlasLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	if assetType != metadata.ResourceTypeSpineAtlas {
		return nil, errors.Errorf("atlas loader cannot load %s resources", assetType)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(spine.ErrAtlasNotFound, "'%s'", path)
		}
		return nil, errors.Wrapf(err, "failed to open atlas '%s'", path)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat atlas '%s'", path)
	}

	pages, err := spine.ParseAtlasPages(file)
	if err != nil {
		return nil, errors.WithMessagef(err, "atlas '%s'", path)
	}
	if len(pages) == 0 {
		return nil, errors.WithMessagef(&spine.AtlasError{Msg: "no page found"}, "atlas '%s'", path)
	}

	return &metadata.Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(info.Size()),
		Data:     &AtlasResourceData{Pages: pages},
	}, nil
}

func (al *AtlasLoader) Unload(resource *metadata.Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}
