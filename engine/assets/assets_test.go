package assets

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-spine/engine/core"
	"github.com/spaghettifunk/anima-spine/engine/renderer/metadata"
)

type recordingLoader struct {
	loaded []string
}

func (rl *recordingLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	rl.loaded = append(rl.loaded, path)
	return &metadata.Resource{Name: filepath.Base(path), FullPath: path}, nil
}

func (rl *recordingLoader) Unload(*metadata.Resource) error {
	return nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAssetManagerIndex(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"hero.spine_json", "hero.spine_atlas", "hero.png", "npc/goblin.spine_json", "npc/goblin.tga", "readme.txt"} {
		touch(t, filepath.Join(dir, name))
	}

	am, err := NewAssetManager(AssetManagerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()
	if err := am.Initialize(dir, false); err != nil {
		t.Fatal(err)
	}

	skeletons := am.Assets(metadata.ResourceTypeSpine)
	expected := []string{filepath.Join(dir, "hero.spine_json"), filepath.Join(dir, "npc", "goblin.spine_json")}
	if !reflect.DeepEqual(skeletons, expected) {
		t.Errorf("skeletons=%v; expected %v", skeletons, expected)
	}
	if images := am.Assets(metadata.ResourceTypeImage); len(images) != 2 {
		t.Errorf("images=%v; expected 2", images)
	}
	if atlases := am.Assets(metadata.ResourceTypeSpineAtlas); len(atlases) != 1 {
		t.Errorf("atlases=%v; expected 1", atlases)
	}
	if am.AssetType("readme.txt") != metadata.ResourceTypeNone {
		t.Error("readme.txt should not be an asset")
	}

	loader := &recordingLoader{}
	am.RegisterLoader(metadata.ResourceTypeSpine, loader)
	if _, err := am.LoadAsset(skeletons[0], metadata.ResourceTypeSpine, nil); err != nil {
		t.Fatal(err)
	}
	if len(loader.loaded) != 1 || loader.loaded[0] != skeletons[0] {
		t.Errorf("loaded=%v", loader.loaded)
	}

	if _, err := am.LoadAsset(filepath.Join(dir, "nope.spine_json"), metadata.ResourceTypeSpine, nil); !errors.Is(err, core.ErrAssetNotFound) {
		t.Errorf("err=%v; expected ErrAssetNotFound", err)
	}
	if _, err := am.LoadAsset(filepath.Join(dir, "hero.png"), metadata.ResourceTypeImage, nil); !errors.Is(err, core.ErrNoLoader) {
		t.Errorf("err=%v; expected ErrNoLoader", err)
	}
	if _, err := am.LoadAsset(filepath.Join(dir, "hero.png"), metadata.ResourceTypeSpine, nil); err == nil {
		t.Error("loading an image as a skeleton must fail")
	}
}

func TestAssetManagerCustomExtensions(t *testing.T) {
	am, err := NewAssetManager(AssetManagerConfig{SkeletonExtension: ".json", AtlasExtension: ".atlas"})
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	tests := map[string]metadata.ResourceType{
		"hero.json":       metadata.ResourceTypeSpine,
		"hero.atlas":      metadata.ResourceTypeSpineAtlas,
		"hero.spine_json": metadata.ResourceTypeNone,
		"hero.webp":       metadata.ResourceTypeImage,
	}
	for path, expected := range tests {
		if got := am.AssetType(path); got != expected {
			t.Errorf("AssetType(%q)=%s; expected %s", path, got, expected)
		}
	}
}

func TestAssetManagerMissingDir(t *testing.T) {
	am, err := NewAssetManager(AssetManagerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()
	if err := am.Initialize(filepath.Join(t.TempDir(), "missing"), false); !errors.Is(err, core.ErrAssetNotFound) {
		t.Errorf("err=%v; expected ErrAssetNotFound", err)
	}
}

func TestAssetManagerWatch(t *testing.T) {
	dir := t.TempDir()
	am, err := NewAssetManager(AssetManagerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if err := am.Initialize(dir, true); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "hero.spine_json")
	touch(t, path)
	touch(t, filepath.Join(dir, "notes.txt"))

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-am.Events():
			if ev.Name != path {
				t.Fatalf("unexpected event for '%s'", ev.Name)
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if got := am.Assets(metadata.ResourceTypeSpine); len(got) != 1 || got[0] != path {
				t.Errorf("skeletons=%v", got)
			}
			if err := am.Shutdown(); err != nil {
				t.Fatal(err)
			}
			// Events is closed once the watcher stops.
			for range am.Events() {
			}
			return
		case <-timeout:
			t.Fatal("no event received")
		}
	}
}
