package metadata

import "math"

const InvalidID uint32 = math.MaxUint32

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Not an asset this engine knows how to load. */
	ResourceTypeNone ResourceType = iota
	/** @brief Text resource type. */
	ResourceTypeText
	/** @brief Image resource type (atlas pages). */
	ResourceTypeImage
	/** @brief Spine atlas resource type (.spine_atlas). */
	ResourceTypeSpineAtlas
	/** @brief Spine skeleton resource type (.spine_json). Loading one imports the whole asset pair. */
	ResourceTypeSpine
	/** @brief Custom resource type. Used by loaders outside the core engine. */
	ResourceTypeCustom
)

func (rt ResourceType) String() string {
	switch rt {
	case ResourceTypeText:
		return "text"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeSpineAtlas:
		return "spine_atlas"
	case ResourceTypeSpine:
		return "spine"
	case ResourceTypeCustom:
		return "custom"
	}
	return "none"
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The identifier of the loader which handles this resource. */
	LoaderID uint32
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}
