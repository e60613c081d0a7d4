package metadata

import "strings"

type TextureReference struct {
	ReferenceCount uint64
	Handle         uint32
	AutoRelease    bool
}

/**
 * @brief Represents various types of textures.
 */
type TextureType int

const (
	/** @brief A standard two-dimensional texture. */
	TextureType2d TextureType = iota
)

/** @brief Represents supported texture filtering modes. */
type TextureFilter int

const (
	/** @brief Nearest-neighbor filtering. */
	TextureFilterModeNearest TextureFilter = 0x0
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterModeLinear TextureFilter = 0x1
)

type TextureRepeat int

const (
	TextureRepeatRepeat         TextureRepeat = 0x1
	TextureRepeatMirroredRepeat TextureRepeat = 0x2
	TextureRepeatClampToEdge    TextureRepeat = 0x3
	TextureRepeatClampToBorder  TextureRepeat = 0x4
)

/**
 * @brief Represents a texture page. Sprites reference it, the texture system owns it.
 */
type Texture struct {
	/** @brief The unique texture identifier. */
	ID uint32
	/** @brief The texture type. */
	TextureType TextureType
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The number of channels in the texture. */
	ChannelCount uint8
	/** @brief The texture Generation. Incremented every time the data is reloaded. */
	Generation uint32
	/** @brief The texture Name, the page name from the atlas. */
	Name string
	/** @brief Where the image was read from. */
	FullPath string
	/** @brief Texture filtering mode for minification. */
	FilterMinify TextureFilter
	/** @brief Texture filtering mode for magnification. */
	FilterMagnify TextureFilter
	/** @brief The repeat mode on the U axis */
	RepeatU TextureRepeat
	/** @brief The repeat mode on the V axis */
	RepeatV TextureRepeat
	/** @brief Renderer specific data, nil until a renderer uploads the texture. */
	InternalData interface{}
}

// ParseTextureFilter maps atlas filter names (Nearest, Linear, MipMapNearestLinear, ...).
// Mipmapped modes are reported by the filter used within a mip level.
func ParseTextureFilter(s string) TextureFilter {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "nearest" || strings.HasPrefix(lower, "mipmapnearest") {
		return TextureFilterModeNearest
	}
	return TextureFilterModeLinear
}

// ParseTextureRepeat maps the atlas repeat attribute (none, x, y, xy) onto both axes.
func ParseTextureRepeat(s string) (u, v TextureRepeat) {
	u, v = TextureRepeatClampToEdge, TextureRepeatClampToEdge
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		u = TextureRepeatRepeat
	case "y":
		v = TextureRepeatRepeat
	case "xy":
		u, v = TextureRepeatRepeat, TextureRepeatRepeat
	}
	return u, v
}
