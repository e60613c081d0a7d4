package assets

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-spine/engine/assets/loaders"
	"github.com/spaghettifunk/anima-spine/engine/core"
	"github.com/spaghettifunk/anima-spine/engine/renderer/metadata"
)

var ErrManagerClosed = errors.New("asset manager already closed")

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// AssetManagerConfig chooses which extensions the index recognises.
type AssetManagerConfig struct {
	SkeletonExtension string
	AtlasExtension    string
}

type AssetManager struct {
	config  AssetManagerConfig
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	watching bool
	events   chan fsnotify.Event
	errors   chan error
}

func NewAssetManager(config AssetManagerConfig) (*AssetManager, error) {
	if config.SkeletonExtension == "" {
		config.SkeletonExtension = loaders.SkeletonExtension
	}
	if config.AtlasExtension == "" {
		config.AtlasExtension = loaders.AtlasExtension
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		config:   config,
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		events:   make(chan fsnotify.Event, 64),
		errors:   make(chan error, 8),
		done:     make(chan struct{}),
	}, nil
}

// Initialize indexes every asset under assetsDir. With watch set the
// directory tree is also watched and changes are delivered on Events.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	info, err := os.Stat(assetsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(core.ErrAssetNotFound, "assets directory '%s'", assetsDir)
		}
		return errors.Wrapf(err, "failed to stat assets directory '%s'", assetsDir)
	}
	if !info.IsDir() {
		return errors.Errorf("'%s' is not a directory", assetsDir)
	}

	if watch {
		am.watching = true
		go am.start()
	}
	return am.addRecursive(assetsDir)
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return ErrManagerClosed
	}
	return am.watchRecursive(name)
}

// RegisterLoader sets the loader for one resource type, replacing any previous one.
func (am *AssetManager) RegisterLoader(assetType metadata.ResourceType, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[assetType] = loader
}

// Assets lists indexed paths of the given type, sorted.
func (am *AssetManager) Assets(assetType metadata.ResourceType) []string {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	paths := []string{}
	for p, a := range am.assets {
		if a.Type == assetType {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

func (am *AssetManager) AssetType(path string) metadata.ResourceType {
	return am.determineAssetType(path)
}

// LoadAsset loads an indexed asset using the loader registered for its type.
func (am *AssetManager) LoadAsset(path string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	path = filepath.Clean(path)

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if exists {
		asset.LastLoaded = time.Now()
		am.assets[path] = asset
	}
	loader, loaderExists := am.loaders[resourceType]
	am.mutex.Unlock()

	if !exists {
		return nil, errors.Wrapf(core.ErrAssetNotFound, "'%s'", path)
	}
	if asset.Type != resourceType {
		return nil, errors.Errorf("asset '%s' is %s, not %s", path, asset.Type, resourceType)
	}
	if !loaderExists {
		return nil, errors.Wrapf(core.ErrNoLoader, "%s", resourceType)
	}

	return loader.Load(path, resourceType, params)
}

func (am *AssetManager) UnloadAsset(resourceType metadata.ResourceType, asset *metadata.Resource) error {
	am.mutex.RLock()
	loader, ok := am.loaders[resourceType]
	am.mutex.RUnlock()
	if !ok {
		return errors.Wrapf(core.ErrNoLoader, "%s", resourceType)
	}
	return loader.Unload(asset)
}

// Events delivers file changes of indexed asset types while watching.
// The channel is closed by Shutdown.
func (am *AssetManager) Events() <-chan fsnotify.Event {
	return am.events
}

func (am *AssetManager) Errors() <-chan error {
	return am.errors
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	if am.watching {
		// start closes the watcher and the channels on its way out.
		close(am.done)
		return nil
	}
	close(am.events)
	close(am.errors)
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	fsEvents, fsErrors := am.fsnotify.Events, am.fsnotify.Errors
	for {
		select {

		case e, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("failed to watch '%s': %s", e.Name, err)
					}
				}
				continue
			}
			name := filepath.Clean(e.Name)
			if am.determineAssetType(name) == metadata.ResourceTypeNone {
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(name)
			}
			// Can't stat a deleted file, drop it from the index and the watch list.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(name)
				_ = am.fsnotify.Remove(name)
			}
			e.Name = name
			select {
			case am.events <- e:
			case <-am.done:
				am.close()
				return
			}

		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
				continue
			}
			core.LogError(err.Error())
			select {
			case am.errors <- err:
			default:
			}

		case <-am.done:
			am.close()
			return
		}
	}
}

func (am *AssetManager) close() {
	am.fsnotify.Close()
	close(am.events)
	close(am.errors)
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes every file it finds. A file created between the walk and the
// watch being added is missed until it is written again.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if !am.watching {
				return nil
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(filepath.Clean(walkPath))
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	assetType := am.determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()

	if _, ok := am.assets[path]; ok {
		return
	}
	am.assets[path] = AssetInfo{
		Path: path,
		Type: assetType,
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

func (am *AssetManager) determineAssetType(path string) metadata.ResourceType {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == am.config.SkeletonExtension:
		return metadata.ResourceTypeSpine
	case ext == am.config.AtlasExtension:
		return metadata.ResourceTypeSpineAtlas
	case loaders.IsTextureFile(path):
		return metadata.ResourceTypeImage
	default:
		return metadata.ResourceTypeNone
	}
}
