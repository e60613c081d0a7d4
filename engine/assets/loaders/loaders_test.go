package loaders

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima-spine/engine/renderer/metadata"
	"golang.org/x/image/bmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	writeImage(t, path, image.NewNRGBA(image.Rect(0, 0, w, h)), func(f *os.File, img image.Image) error {
		return png.Encode(f, img)
	})
}

func writeImage(t *testing.T, path string, img image.Image, encode func(*os.File, image.Image) error) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestIsTextureFile(t *testing.T) {
	tests := map[string]bool{
		"hero.png":         true,
		"dir/HERO.PNG":     true,
		"a.tga":            true,
		"a.webp":           true,
		"a.tiff":           true,
		"hero.spine_atlas": false,
		"hero.spine_json":  false,
		"noext":            false,
	}
	for path, expected := range tests {
		if got := IsTextureFile(path); got != expected {
			t.Errorf("IsTextureFile(%q)=%v; expected %v", path, got, expected)
		}
	}
}

func TestTextureLoader(t *testing.T) {
	dir := t.TempDir()

	writePNG(t, filepath.Join(dir, "rgba.png"), 64, 32)
	writeImage(t, filepath.Join(dir, "gray.png"), image.NewGray(image.Rect(0, 0, 8, 4)), func(f *os.File, img image.Image) error {
		return png.Encode(f, img)
	})
	writeImage(t, filepath.Join(dir, "photo.jpg"), image.NewRGBA(image.Rect(0, 0, 10, 20)), func(f *os.File, img image.Image) error {
		return jpeg.Encode(f, img, nil)
	})
	writeImage(t, filepath.Join(dir, "page.bmp"), image.NewRGBA(image.Rect(0, 0, 5, 7)), func(f *os.File, img image.Image) error {
		return bmp.Encode(f, img)
	})

	tests := []struct {
		file     string
		w, h     uint32
		channels uint8
		format   string
	}{
		{"rgba.png", 64, 32, 4, "png"},
		{"gray.png", 8, 4, 1, "png"},
		{"photo.jpg", 10, 20, 3, "jpeg"},
		{"page.bmp", 5, 7, 4, "bmp"},
	}

	loader := &TextureLoader{}
	for _, test := range tests {
		res, err := loader.Load(filepath.Join(dir, test.file), metadata.ResourceTypeImage, nil)
		if err != nil {
			t.Errorf("%s: %v", test.file, err)
			continue
		}
		img := res.Data.(*metadata.ImageResourceData)
		if img.Width != test.w || img.Height != test.h || img.ChannelCount != test.channels || img.Format != test.format {
			t.Errorf("%s: got %+v", test.file, *img)
		}
		if err := loader.Unload(res); err != nil || res.Data != nil {
			t.Errorf("%s: Unload left data behind", test.file)
		}
	}

	if _, err := loader.Load(filepath.Join(dir, "missing.png"), metadata.ResourceTypeImage, nil); err == nil {
		t.Error("missing file must fail")
	}
	writeFile(t, filepath.Join(dir, "broken.png"), "not a png")
	if _, err := loader.Load(filepath.Join(dir, "broken.png"), metadata.ResourceTypeImage, nil); err == nil {
		t.Error("corrupt file must fail")
	}
	if _, err := loader.Load(filepath.Join(dir, "rgba.png"), metadata.ResourceTypeSpineAtlas, nil); err == nil {
		t.Error("wrong resource type must fail")
	}
}

func TestChannelCount(t *testing.T) {
	if channelCount(color.NRGBAModel) != 4 || channelCount(color.Gray16Model) != 1 || channelCount(color.YCbCrModel) != 3 {
		t.Error("channel count mismatch")
	}
}
