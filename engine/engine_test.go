package engine

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-spine/engine/core"
	"github.com/spaghettifunk/anima-spine/engine/spine"
)

const testSkeleton = `{"bones": [{"name": "root"}, {"name": "arm", "parent": "root", "x": 5, "rotation": 90}]}`

const testAtlas = `hero.png
size: 32, 32
head
  rotate: false
  xy: 0, 0
  size: 16, 16
  orig: 16, 16
`

func writeAsset(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writePage(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func newTestEngine(t *testing.T, dir string, watch bool) *Engine {
	t.Helper()
	config := DefaultApplicationConfig()
	config.AssetsDir = dir
	config.Workers = 2
	config.Watch = watch

	e, err := New(config)
	if err != nil {
		t.Fatal(err)
	}
	// Shutdown is safe to repeat; this only matters when a test stops early.
	t.Cleanup(func() { e.Shutdown() })
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestImportAll(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, filepath.Join(dir, "hero", "hero.spine_json"), testSkeleton)
	writeAsset(t, filepath.Join(dir, "hero", "hero.spine_atlas"), testAtlas)
	writePage(t, filepath.Join(dir, "hero", "hero.png"), 32, 32)
	// No companion atlas.
	writeAsset(t, filepath.Join(dir, "lonely.spine_json"), testSkeleton)

	e := newTestEngine(t, dir, false)

	var mu sync.Mutex
	imported := map[string]uint64{}
	failed := map[string]string{}
	core.EventRegister(core.EVENT_CODE_ASSET_IMPORTED, t, func(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
		mu.Lock()
		defer mu.Unlock()
		imported[data.Data.C[0]] = data.Data.U64[1]
		return false
	})
	core.EventRegister(core.EVENT_CODE_ASSET_IMPORT_FAILED, t, func(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
		mu.Lock()
		defer mu.Unlock()
		failed[data.Data.C[0]] = data.Data.C[1]
		return false
	})

	summary := e.ImportAll()

	hero := filepath.Join(dir, "hero", "hero.spine_json")
	lonely := filepath.Join(dir, "lonely.spine_json")
	if summary.Imported != 1 || len(summary.Failed) != 1 {
		t.Fatalf("summary=%+v", summary)
	}
	if !errors.Is(summary.Failed[lonely], spine.ErrAtlasNotFound) {
		t.Errorf("lonely: err=%v; expected ErrAtlasNotFound", summary.Failed[lonely])
	}

	mu.Lock()
	if imported[hero] != 2 {
		t.Errorf("imported events=%v; expected hero with 2 bones", imported)
	}
	if _, ok := failed[lonely]; !ok {
		t.Errorf("failed events=%v; expected lonely", failed)
	}
	mu.Unlock()

	data, ok := e.Skeleton(hero)
	if !ok {
		t.Fatal("hero not imported")
	}
	if _, ok := data.Sprites["head"]; !ok || data.Bones.Len() != 2 {
		t.Errorf("hero=%d bones, sprites=%v", data.Bones.Len(), data.Sprites)
	}
	if _, ok := e.Skeleton(lonely); ok {
		t.Error("lonely must not be stored")
	}

	page := filepath.Join(dir, "hero", "hero.png")
	if n := e.systemManager.TextureSystem.ReferenceCount(page); n != 1 {
		t.Errorf("page references=%d; expected 1", n)
	}

	// Importing again replaces the previous result without leaking references.
	e.ImportAll()
	if n := e.systemManager.TextureSystem.ReferenceCount(page); n != 1 {
		t.Errorf("page references after re-import=%d; expected 1", n)
	}

	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.systemManager.TextureSystem.Get(page); ok {
		t.Error("page texture should be released on shutdown")
	}
}

func TestRunWithoutWatch(t *testing.T) {
	e := newTestEngine(t, t.TempDir(), false)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run must return at once when not watching")
	}
}

func TestRunReimportsOnChange(t *testing.T) {
	dir := t.TempDir()
	skeleton := filepath.Join(dir, "hero.spine_json")
	writeAsset(t, skeleton, testSkeleton)
	writeAsset(t, filepath.Join(dir, "hero.spine_atlas"), testAtlas)
	writePage(t, filepath.Join(dir, "hero.png"), 32, 32)

	e := newTestEngine(t, dir, true)
	e.ImportAll()

	reimported := make(chan uint64, 8)
	core.EventRegister(core.EVENT_CODE_ASSET_IMPORTED, t, func(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
		reimported <- data.Data.U64[1]
		return false
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	writeAsset(t, skeleton, `{"bones": [{"name": "root"}, {"name": "a", "parent": "root"}, {"name": "b", "parent": "a"}]}`)

	deadline := time.After(5 * time.Second)
wait:
	for {
		select {
		case n := <-reimported:
			if n == 3 {
				break wait
			}
		case <-deadline:
			t.Fatal("skeleton was not re-imported")
		}
	}

	// Quitting through the event system stops Run like a cancelled context.
	core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, nil, core.EventContext{})
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
	cancel()

	data, _ := e.Skeleton(skeleton)
	if data == nil || data.Bones.Len() != 3 {
		t.Error("latest import not stored")
	}
	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}
}
