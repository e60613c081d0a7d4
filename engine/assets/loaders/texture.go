package loaders

import (
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-spine/engine/renderer/metadata"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

type decodeConfigFunc func(io.Reader) (image.Config, error)

// Decoders are picked by extension. TGA has no magic number, so relying on
// image.DecodeConfig sniffing would misdetect files.
var configDecoders = map[string]struct {
	format string
	decode decodeConfigFunc
}{
	".png":  {"png", png.DecodeConfig},
	".jpg":  {"jpeg", jpeg.DecodeConfig},
	".jpeg": {"jpeg", jpeg.DecodeConfig},
	".gif":  {"gif", gif.DecodeConfig},
	".bmp":  {"bmp", bmp.DecodeConfig},
	".tif":  {"tiff", tiff.DecodeConfig},
	".tiff": {"tiff", tiff.DecodeConfig},
	".webp": {"webp", webp.DecodeConfig},
	".tga":  {"tga", tga.DecodeConfig},
}

// IsTextureFile reports whether path has an extension TextureLoader can read.
func IsTextureFile(path string) bool {
	_, ok := configDecoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// TextureLoader reads image headers. Only the dimensions and channel count are
// needed to place sprites; decoding pixels is up to the renderer.
type TextureLoader struct{}

func (tl *TextureLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	if assetType != metadata.ResourceTypeImage {
		return nil, errors.Errorf("texture loader cannot load %s resources", assetType)
	}
	dec, ok := configDecoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, errors.Errorf("unsupported texture format '%s'", filepath.Ext(path))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open texture '%s'", path)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat texture '%s'", path)
	}

	cfg, err := dec.decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s header of '%s'", dec.format, path)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Errorf("texture '%s' has no pixels (%dx%d)", path, cfg.Width, cfg.Height)
	}

	return &metadata.Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(info.Size()),
		Data: &metadata.ImageResourceData{
			ChannelCount: channelCount(cfg.ColorModel),
			Width:        uint32(cfg.Width),
			Height:       uint32(cfg.Height),
			Format:       dec.format,
		},
	}, nil
}

func (tl *TextureLoader) Unload(resource *metadata.Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

func channelCount(model color.Model) uint8 {
	switch model {
	case color.GrayModel, color.Gray16Model, color.AlphaModel, color.Alpha16Model:
		return 1
	case color.YCbCrModel:
		return 3
	}
	return 4
}
