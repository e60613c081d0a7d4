package engine

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-spine/engine/assets"
	"github.com/spaghettifunk/anima-spine/engine/assets/loaders"
	"github.com/spaghettifunk/anima-spine/engine/containers"
	"github.com/spaghettifunk/anima-spine/engine/core"
	"github.com/spaghettifunk/anima-spine/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-spine/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// How long file changes are collected before re-importing.
const reimportDelay = 150 * time.Millisecond

// Upper bound of distinct skeletons waiting for a re-import.
const maxPendingImports = 256

// ImportSummary reports one ImportAll pass.
type ImportSummary struct {
	Imported int
	Failed   map[string]error
}

type Engine struct {
	currentStage  Stage
	config        *ApplicationConfig
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	spineLoader   *loaders.SpineLoader

	mutex    sync.RWMutex
	imported map[string]*metadata.Resource

	pending *containers.RingQueue[string]
	cancel  context.CancelFunc
}

func New(config *ApplicationConfig) (*Engine, error) {
	if config == nil {
		config = DefaultApplicationConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	core.SetLogLevel(config.logLevel())

	am, err := assets.NewAssetManager(assets.AssetManagerConfig{
		SkeletonExtension: config.SkeletonExtension,
		AtlasExtension:    config.AtlasExtension,
	})
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	textureLoader := &loaders.TextureLoader{}
	sm, err := systems.NewSystemManager(systems.SystemManagerConfig{
		Workers:         config.Workers,
		JobQueueSize:    config.Workers * 4,
		MaxTextureCount: config.MaxTextureCount,
	}, textureLoader)
	if err != nil {
		core.LogError(err.Error())
		_ = am.Shutdown()
		return nil, err
	}

	sl := loaders.NewSpineLoader(sm.TextureSystem, config.parentResolution())
	sl.AtlasExtension = config.AtlasExtension

	am.RegisterLoader(metadata.ResourceTypeImage, textureLoader)
	am.RegisterLoader(metadata.ResourceTypeSpineAtlas, sl.Atlases)
	am.RegisterLoader(metadata.ResourceTypeSpine, sl)

	return &Engine{
		currentStage:  EngineStageUninitialized,
		config:        config,
		assetManager:  am,
		systemManager: sm,
		spineLoader:   sl,
		imported:      make(map[string]*metadata.Resource),
		pending:       containers.NewRingQueue[string](maxPendingImports),
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	// initialize events
	if !core.EventSystemInitialize() {
		return errors.New("failed to initialize the event system")
	}
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)

	if err := e.assetManager.Initialize(e.config.AssetsDir, e.config.Watch); err != nil {
		return err
	}

	core.LogInfo("%s initialized on '%s' (%d workers, %s parent resolution)",
		e.config.Name, e.config.AssetsDir, e.config.Workers, e.config.parentResolution())
	e.currentStage = EngineStageInitialized
	return nil
}

// ImportAll imports every indexed skeleton on the worker pool and waits for
// all of them. Failures are collected per path; they do not stop other imports.
func (e *Engine) ImportAll() ImportSummary {
	paths := e.assetManager.Assets(metadata.ResourceTypeSpine)

	summary := ImportSummary{Failed: make(map[string]error)}
	var summaryMutex sync.Mutex
	var wg sync.WaitGroup

	for _, path := range paths {
		wg.Add(1)
		e.submitImport(path, func(err error) {
			summaryMutex.Lock()
			defer summaryMutex.Unlock()
			if err != nil {
				summary.Failed[path] = err
				return
			}
			summary.Imported++
		}, wg.Done)
	}
	wg.Wait()

	okCount, failCount := core.MetricsImports()
	core.LogInfo("imported %d of %d skeletons, average %.2fms (total ok=%d failed=%d)",
		summary.Imported, len(paths), core.MetricsImportTime(), okCount, failCount)
	return summary
}

type importResult struct {
	resource *metadata.Resource
	elapsed  time.Duration
}

func (e *Engine) submitImport(path string, onDone func(error), onFinish func()) {
	clock := core.NewClock()

	err := e.systemManager.JobSystem.Submit(metadata.JobTask{
		InputParams: path,
		OnStart: func(params interface{}, results chan<- interface{}) error {
			clock.Start()
			res, err := e.assetManager.LoadAsset(params.(string), metadata.ResourceTypeSpine, nil)
			clock.Update()
			if err != nil {
				return err
			}
			results <- &importResult{resource: res, elapsed: clock.Elapsed()}
			return nil
		},
		OnComplete: func(results <-chan interface{}) {
			r := (<-results).(*importResult)
			e.onImported(path, r)
			if onDone != nil {
				onDone(nil)
			}
		},
		OnFailure: func(err error) {
			clock.Update()
			e.onImportFailed(path, err, clock.Elapsed())
			if onDone != nil {
				onDone(err)
			}
		},
		OnCompletionCallback: onFinish,
	})
	if err != nil {
		core.LogWarn("import of '%s' not started: %s", path, err)
		if onDone != nil {
			onDone(err)
		}
		if onFinish != nil {
			onFinish()
		}
	}
}

func (e *Engine) onImported(path string, r *importResult) {
	data := r.resource.Data.(*loaders.SpineResourceData)

	e.mutex.Lock()
	previous := e.imported[path]
	e.imported[path] = r.resource
	e.mutex.Unlock()

	if previous != nil {
		if err := e.spineLoader.Unload(previous); err != nil {
			core.LogWarn("failed to unload previous import of '%s': %s", path, err)
		}
	}

	ms := float64(r.elapsed.Microseconds()) / 1000
	core.MetricsUpdate(ms, false)
	core.LogInfo("imported '%s': %d bones, %d sprites, %d pages in %.2fms",
		path, data.Bones.Len(), len(data.Sprites), len(data.Pages), ms)
	if e.config.Dump {
		core.LogInfo("%s", core.SDump(data.Info, data.Bones.Nodes, data.Sprites))
	}

	ctx := core.EventContext{}
	ctx.Data.C[0] = path
	ctx.Data.C[1] = data.ID.String()
	ctx.Data.U64[0] = uint64(len(data.Sprites))
	ctx.Data.U64[1] = uint64(data.Bones.Len())
	ctx.Data.F64[0] = ms
	core.EventFire(core.EVENT_CODE_ASSET_IMPORTED, e, ctx)
}

func (e *Engine) onImportFailed(path string, err error, elapsed time.Duration) {
	core.MetricsUpdate(float64(elapsed.Microseconds())/1000, true)

	ctx := core.EventContext{}
	ctx.Data.C[0] = path
	ctx.Data.C[1] = err.Error()
	core.EventFire(core.EVENT_CODE_ASSET_IMPORT_FAILED, e, ctx)
}

// Skeleton returns the latest successful import of path.
func (e *Engine) Skeleton(path string) (*loaders.SpineResourceData, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	res, ok := e.imported[path]
	if !ok {
		return nil, false
	}
	return res.Data.(*loaders.SpineResourceData), true
}

// Run blocks until ctx is cancelled or an application quit event is fired,
// re-importing skeletons whose files change. Without watching it returns at once.
func (e *Engine) Run(ctx context.Context) error {
	if !e.config.Watch {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.mutex.Lock()
	e.cancel = cancel
	e.mutex.Unlock()

	e.currentStage = EngineStageRunning
	core.LogInfo("watching '%s' for changes", e.config.AssetsDir)

	ticker := time.NewTicker(reimportDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-e.assetManager.Events():
			if !ok {
				return nil
			}
			e.onFileChanged(ev)

		case err, ok := <-e.assetManager.Errors():
			if ok {
				core.LogWarn("watcher: %s", err)
			}

		case <-ticker.C:
			e.flushPending()
		}
	}
}

func (e *Engine) onFileChanged(ev fsnotify.Event) {
	ctx := core.EventContext{}
	ctx.Data.C[0] = ev.Name
	ctx.Data.U32[0] = uint32(ev.Op)
	core.EventFire(core.EVENT_CODE_ASSET_CHANGED, e, ctx)

	removed := ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0

	switch e.assetManager.AssetType(ev.Name) {
	case metadata.ResourceTypeSpine:
		if removed {
			e.forget(ev.Name)
			return
		}
		e.enqueue(ev.Name)

	case metadata.ResourceTypeImage:
		if !removed {
			if _, ok := e.systemManager.TextureSystem.Get(ev.Name); ok {
				if _, err := e.systemManager.TextureSystem.Reload(ev.Name); err != nil {
					core.LogWarn("failed to reload texture '%s': %s", ev.Name, err)
				}
			}
		}
		e.enqueueDependents(ev.Name)

	case metadata.ResourceTypeSpineAtlas:
		e.enqueueDependents(ev.Name)
	}
}

func (e *Engine) enqueueDependents(path string) {
	e.mutex.RLock()
	dependents := []string{}
	for skeleton, res := range e.imported {
		if res.Data.(*loaders.SpineResourceData).DependsOn(path) {
			dependents = append(dependents, skeleton)
		}
	}
	e.mutex.RUnlock()

	// A skeleton whose import failed is not tracked; its companion atlas still
	// points at it.
	for _, skeleton := range e.assetManager.Assets(metadata.ResourceTypeSpine) {
		if e.spineLoader.CompanionAtlas(skeleton) == path {
			dependents = append(dependents, skeleton)
		}
	}
	for _, skeleton := range dependents {
		e.enqueue(skeleton)
	}
}

func (e *Engine) enqueue(path string) {
	if e.pending.Contains(path, func(a, b string) bool { return a == b }) {
		return
	}
	if err := e.pending.Enqueue(path); err != nil {
		core.LogWarn("dropping re-import of '%s': %s", path, err)
	}
}

func (e *Engine) flushPending() {
	for !e.pending.IsEmpty() {
		path, _ := e.pending.Dequeue()
		core.LogDebug("re-importing '%s'", path)
		e.submitImport(path, nil, nil)
	}
}

func (e *Engine) forget(path string) {
	e.mutex.Lock()
	res, ok := e.imported[path]
	delete(e.imported, path)
	e.mutex.Unlock()

	if ok {
		if err := e.spineLoader.Unload(res); err != nil {
			core.LogWarn("failed to unload '%s': %s", path, err)
		}
		core.LogInfo("'%s' removed, import dropped", path)
	}
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown

	core.EventUnregister(core.EVENT_CODE_APPLICATION_QUIT, e)
	if err := e.assetManager.Shutdown(); err != nil {
		core.LogWarn(err.Error())
	}
	// Drain in-flight imports before releasing what they hold.
	if err := e.systemManager.JobSystem.Shutdown(); err != nil {
		return err
	}

	e.mutex.Lock()
	for path, res := range e.imported {
		if err := e.spineLoader.Unload(res); err != nil {
			core.LogWarn("failed to unload '%s': %s", path, err)
		}
	}
	e.imported = make(map[string]*metadata.Resource)
	e.mutex.Unlock()

	if err := e.systemManager.Shutdown(); err != nil {
		return err
	}
	return core.EventSystemShutdown()
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.mutex.RLock()
		cancel := e.cancel
		e.mutex.RUnlock()
		if cancel != nil {
			cancel()
		}
		return true
	}
	return false
}
