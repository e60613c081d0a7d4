package loaders

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-spine/engine/bones"
	"github.com/spaghettifunk/anima-spine/engine/core"
	"github.com/spaghettifunk/anima-spine/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-spine/engine/spine"
	"github.com/spaghettifunk/anima-spine/engine/sprite"
	"golang.org/x/sync/errgroup"
)

const (
	SkeletonExtension = ".spine_json"
	AtlasExtension    = ".spine_atlas"
)

// TextureRegistry owns page textures on behalf of every import.
// systems.TextureSystem implements it.
type TextureRegistry interface {
	Acquire(key, path string, autoRelease bool) (*metadata.Texture, error)
	Release(key string)
	SetSampling(key string, minify, magnify metadata.TextureFilter, u, v metadata.TextureRepeat)
}

// SpineLoadParams overrides loader defaults for one import.
type SpineLoadParams struct {
	ParentResolution bones.ParentResolution
}

// SpineResourceData is the outcome of importing one skeleton and its atlas.
type SpineResourceData struct {
	ID   uuid.UUID
	Info spine.SkeletonInfo
	// Bones is the resolved rest pose.
	Bones *bones.Hierarchy
	// Sprites maps region names to sprites across every page.
	Sprites sprite.Table
	// Pages are borrowed from the texture registry, in atlas order.
	Pages []*metadata.Texture
	// Sources lists every file the import read: skeleton, atlas, page images.
	Sources []string

	pageKeys []string
}

// DependsOn reports whether path was read by this import.
func (d *SpineResourceData) DependsOn(path string) bool {
	path = filepath.Clean(path)
	for _, s := range d.Sources {
		if s == path {
			return true
		}
	}
	return false
}

// SpineLoader imports a .spine_json skeleton together with the .spine_atlas
// of the same name and the page images the atlas names.
type SpineLoader struct {
	Textures         TextureRegistry
	Atlases          *AtlasLoader
	AtlasExtension   string
	ParentResolution bones.ParentResolution
}

func NewSpineLoader(textures TextureRegistry, resolution bones.ParentResolution) *SpineLoader {
	return &SpineLoader{
		Textures:         textures,
		Atlases:          &AtlasLoader{},
		AtlasExtension:   AtlasExtension,
		ParentResolution: resolution,
	}
}

// CompanionAtlas returns the atlas path expected beside a skeleton.
func (sl *SpineLoader) CompanionAtlas(skeletonPath string) string {
	ext := sl.AtlasExtension
	if ext == "" {
		ext = AtlasExtension
	}
	return strings.TrimSuffix(skeletonPath, filepath.Ext(skeletonPath)) + ext
}

type atlasSide struct {
	sprites  sprite.Table
	pages    []*metadata.Texture
	pageKeys []string
	sources  []string
	size     uint64
}

type skeletonSide struct {
	info  spine.SkeletonInfo
	bones *bones.Hierarchy
	size  uint64
}

func (sl *SpineLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	if assetType != metadata.ResourceTypeSpine {
		return nil, errors.Errorf("spine loader cannot load %s resources", assetType)
	}
	if sl.Textures == nil {
		return nil, errors.New("spine loader has no texture registry")
	}

	resolution := sl.ParentResolution
	if p, ok := params.(*SpineLoadParams); ok && p != nil {
		resolution = p.ParentResolution
	}

	path = filepath.Clean(path)
	g, ctx := errgroup.WithContext(context.Background())

	skel := &skeletonSide{}
	g.Go(func() error {
		return sl.loadSkeleton(path, resolution, skel)
	})

	atlas := &atlasSide{sprites: make(sprite.Table)}
	g.Go(func() error {
		return sl.loadAtlas(ctx, sl.CompanionAtlas(path), atlas)
	})

	if err := g.Wait(); err != nil {
		for _, key := range atlas.pageKeys {
			sl.Textures.Release(key)
		}
		return nil, err
	}

	data := &SpineResourceData{
		ID:       uuid.New(),
		Info:     skel.info,
		Bones:    skel.bones,
		Sprites:  atlas.sprites,
		Pages:    atlas.pages,
		Sources:  append([]string{path}, atlas.sources...),
		pageKeys: atlas.pageKeys,
	}
	core.LogDebug("imported '%s' as %s: %d bones, %d sprites, %d pages", path, data.ID, data.Bones.Len(), len(data.Sprites), len(data.Pages))

	return &metadata.Resource{
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		FullPath: path,
		DataSize: skel.size + atlas.size,
		Data:     data,
	}, nil
}

func (sl *SpineLoader) loadSkeleton(path string, resolution bones.ParentResolution, out *skeletonSide) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(core.ErrAssetNotFound, "skeleton '%s'", path)
		}
		return errors.Wrapf(err, "failed to read skeleton '%s'", path)
	}

	skeleton, err := spine.ParseSkeleton(bytes.NewReader(raw))
	if err != nil {
		return errors.WithMessagef(err, "skeleton '%s'", path)
	}

	hierarchy, err := bones.Resolve(skeleton.Bones, bones.WithParentResolution(resolution))
	if err != nil {
		return errors.WithMessagef(err, "skeleton '%s'", path)
	}

	out.info = skeleton.Info
	out.bones = hierarchy
	out.size = uint64(len(raw))
	return nil
}

// loadAtlas fills out as it goes so the caller can release page textures
// even when a later page fails.
func (sl *SpineLoader) loadAtlas(ctx context.Context, atlasPath string, out *atlasSide) error {
	atlases := sl.Atlases
	if atlases == nil {
		atlases = &AtlasLoader{}
	}
	res, err := atlases.Load(atlasPath, metadata.ResourceTypeSpineAtlas, nil)
	if err != nil {
		// Loose images beside the skeleton are not supported as a fallback.
		return err
	}
	out.size = res.DataSize
	out.sources = append(out.sources, atlasPath)

	dir := filepath.Dir(atlasPath)
	for _, page := range res.Data.(*AtlasResourceData).Pages {
		if err := ctx.Err(); err != nil {
			return err
		}

		pagePath := filepath.Join(dir, page.Name)
		texture, err := sl.Textures.Acquire(pagePath, pagePath, true)
		if err != nil {
			return errors.WithMessagef(err, "atlas '%s' page '%s'", atlasPath, page.Name)
		}
		out.pageKeys = append(out.pageKeys, pagePath)
		out.pages = append(out.pages, texture)
		out.sources = append(out.sources, pagePath)

		minify, magnify := metadata.ParseTextureFilter(page.Filter.Min), metadata.ParseTextureFilter(page.Filter.Mag)
		u, v := metadata.ParseTextureRepeat(page.Repeat)
		sl.Textures.SetSampling(pagePath, minify, magnify, u, v)

		if int(texture.Width) != page.Size.X || int(texture.Height) != page.Size.Y {
			core.LogWarn("atlas '%s' page '%s' declares size %v but the image is %dx%d, using the atlas size",
				atlasPath, page.Name, page.Size, texture.Width, texture.Height)
		}

		table, err := sprite.ResolveAtlas(page, texture)
		if err != nil {
			return errors.WithMessagef(err, "atlas '%s'", atlasPath)
		}
		if err := out.sprites.Merge(table); err != nil {
			return errors.WithMessagef(err, "atlas '%s'", atlasPath)
		}
	}
	return nil
}

func (sl *SpineLoader) Unload(resource *metadata.Resource) error {
	if resource == nil || resource.Data == nil {
		return nil
	}
	data, ok := resource.Data.(*SpineResourceData)
	if !ok {
		return errors.Errorf("spine loader cannot unload %T", resource.Data)
	}
	for _, key := range data.pageKeys {
		sl.Textures.Release(key)
	}
	data.pageKeys = nil
	data.Pages = nil
	data.Sprites = nil
	resource.Data = nil
	resource.DataSize = 0
	return nil
}
