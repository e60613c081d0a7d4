package systems

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-spine/engine/core"
	"github.com/spaghettifunk/anima-spine/engine/renderer/metadata"
)

var ErrTextureSystemFull = errors.New("texture system cannot hold any more textures, adjust MaxTextureCount")

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
}

// TextureSource reads the header of an image file. loaders.TextureLoader satisfies it.
type TextureSource interface {
	Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error)
}

// TextureSystem owns every page texture. Sprites hold plain pointers into it;
// a texture lives until its last reference is released (auto release) or
// until Shutdown.
type TextureSystem struct {
	Config *TextureSystemConfig
	// Array of registered textures, indexed by handle.
	RegisteredTextures []*metadata.Texture
	// Hashtable for texture lookups.
	RegisteredTextureTable map[string]*metadata.TextureReference

	mutex  sync.Mutex
	source TextureSource
}

func NewTextureSystem(config *TextureSystemConfig, source TextureSource) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := errors.New("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	if source == nil {
		return nil, errors.New("func NewTextureSystem - a texture source is required")
	}

	ts := &TextureSystem{
		Config:                 config,
		RegisteredTextures:     make([]*metadata.Texture, config.MaxTextureCount),
		RegisteredTextureTable: make(map[string]*metadata.TextureReference),
		source:                 source,
	}

	// Invalidate all textures in the array.
	for i := uint32(0); i < config.MaxTextureCount; i++ {
		ts.RegisteredTextures[i] = &metadata.Texture{
			ID:         metadata.InvalidID,
			Generation: metadata.InvalidID,
		}
	}
	return ts, nil
}

// Acquire returns the texture registered under key, loading it from path the
// first time. Every call adds a reference that must be given back with Release.
func (ts *TextureSystem) Acquire(key, path string, autoRelease bool) (*metadata.Texture, error) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ref, ok := ts.RegisteredTextureTable[key]
	if ok && ref.Handle != metadata.InvalidID {
		ref.ReferenceCount++
		return ts.RegisteredTextures[ref.Handle], nil
	}

	handle := metadata.InvalidID
	for i := uint32(0); i < ts.Config.MaxTextureCount; i++ {
		if ts.RegisteredTextures[i].ID == metadata.InvalidID {
			handle = i
			break
		}
	}
	// An empty slot was not found, bleat about it and boot out.
	if handle == metadata.InvalidID {
		core.LogError("texture '%s' not loaded: %s", key, ErrTextureSystemFull)
		return nil, ErrTextureSystemFull
	}

	t := &metadata.Texture{}
	if err := ts.loadTexture(key, path, t); err != nil {
		return nil, err
	}
	t.ID = core.IdentifierAquireNewID(t)
	t.Generation = 0
	ts.RegisteredTextures[handle] = t

	ts.RegisteredTextureTable[key] = &metadata.TextureReference{
		ReferenceCount: 1,
		Handle:         handle,
		AutoRelease:    autoRelease,
	}
	core.LogDebug("texture '%s' loaded from '%s' (%dx%d)", key, path, t.Width, t.Height)
	return t, nil
}

func (ts *TextureSystem) Get(key string) (*metadata.Texture, bool) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ref, ok := ts.RegisteredTextureTable[key]
	if !ok || ref.Handle == metadata.InvalidID {
		return nil, false
	}
	return ts.RegisteredTextures[ref.Handle], true
}

func (ts *TextureSystem) ReferenceCount(key string) uint64 {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if ref, ok := ts.RegisteredTextureTable[key]; ok {
		return ref.ReferenceCount
	}
	return 0
}

// Release drops one reference. With auto release the texture is destroyed
// when the count reaches zero.
func (ts *TextureSystem) Release(key string) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ref, ok := ts.RegisteredTextureTable[key]
	if !ok || ref.ReferenceCount == 0 {
		core.LogWarn("tried to release texture '%s' which holds no references", key)
		return
	}
	ref.ReferenceCount--
	if ref.ReferenceCount == 0 && ref.AutoRelease {
		ts.destroyTexture(ref.Handle)
		delete(ts.RegisteredTextureTable, key)
		core.LogDebug("released texture '%s', unloaded because reference count=0 and AutoRelease=true", key)
	}
}

// Reload reads the image again and bumps the generation. Sprites keep their
// pointer and observe the new dimensions.
func (ts *TextureSystem) Reload(key string) (*metadata.Texture, error) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ref, ok := ts.RegisteredTextureTable[key]
	if !ok || ref.Handle == metadata.InvalidID {
		return nil, errors.Wrapf(core.ErrAssetNotFound, "texture '%s' is not registered", key)
	}
	t := ts.RegisteredTextures[ref.Handle]
	generation := t.Generation
	if err := ts.loadTexture(key, t.FullPath, t); err != nil {
		return nil, err
	}
	t.Generation = generation + 1
	return t, nil
}

// SetSampling records how the renderer should sample the texture.
func (ts *TextureSystem) SetSampling(key string, minify, magnify metadata.TextureFilter, u, v metadata.TextureRepeat) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ref, ok := ts.RegisteredTextureTable[key]
	if !ok || ref.Handle == metadata.InvalidID {
		return
	}
	t := ts.RegisteredTextures[ref.Handle]
	t.FilterMinify = minify
	t.FilterMagnify = magnify
	t.RepeatU = u
	t.RepeatV = v
}

func (ts *TextureSystem) Shutdown() error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	// Destroy all loaded textures.
	for handle, t := range ts.RegisteredTextures {
		if t.ID != metadata.InvalidID {
			ts.destroyTexture(uint32(handle))
		}
	}
	ts.RegisteredTextureTable = make(map[string]*metadata.TextureReference)
	return nil
}

func (ts *TextureSystem) loadTexture(name, path string, t *metadata.Texture) error {
	res, err := ts.source.Load(path, metadata.ResourceTypeImage, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to load texture '%s'", name)
	}
	img, ok := res.Data.(*metadata.ImageResourceData)
	if !ok {
		return errors.Errorf("texture source returned %T for '%s'", res.Data, name)
	}
	t.TextureType = metadata.TextureType2d
	t.Name = name
	t.FullPath = path
	t.Width = img.Width
	t.Height = img.Height
	t.ChannelCount = img.ChannelCount
	return nil
}

// destroyTexture frees the slot. Anything still pointing at the old texture
// sees it invalidated rather than reused for another page.
func (ts *TextureSystem) destroyTexture(handle uint32) {
	t := ts.RegisteredTextures[handle]
	if err := core.IdentifierReleaseID(t.ID); err != nil {
		core.LogWarn(err.Error())
	}
	t.ID = metadata.InvalidID
	t.Generation = metadata.InvalidID
	t.InternalData = nil
	ts.RegisteredTextures[handle] = &metadata.Texture{
		ID:         metadata.InvalidID,
		Generation: metadata.InvalidID,
	}
}
