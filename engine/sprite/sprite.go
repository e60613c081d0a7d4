// Package sprite turns atlas regions into texture-space rectangles.
//
// Known limitation: the one-pixel border around each region is not inset,
// so tightly packed atlases can bleed texels of neighbouring regions when
// sampled with linear filtering. Pad regions when packing if that matters.
package sprite

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/anima-spine/engine/math"
	"github.com/spaghettifunk/anima-spine/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-spine/engine/spine"
)

type Rotation int

const (
	RotationNone Rotation = iota
	// RotationCCW means the region is stored rotated 90° counter-clockwise.
	RotationCCW
)

func (r Rotation) String() string {
	switch r {
	case RotationNone:
		return "none"
	case RotationCCW:
		return "ccw"
	}
	return fmt.Sprintf("Rotation(%d)", int(r))
}

// Sprite is a region resolved against its page.
//
// Min and Max are normalized texture coordinates. Their Y components are
// swapped relative to the pixel rectangle: the atlas counts rows downwards
// from XY while texture space counts upwards, so Min.Y holds the bottom row.
type Sprite struct {
	Name     string
	Min, Max mgl32.Vec2
	Rotation Rotation
	// Size is the packed pixel size as written in the atlas, never swapped.
	Size  mgl32.Vec2
	Pivot mgl32.Vec2
	// Texture is owned by the texture system; the sprite only borrows it.
	Texture *metadata.Texture
}

// Bounds returns the rectangle with the Y swap undone, so Min <= Max on both axes.
func (s Sprite) Bounds() math.Extents2D {
	min, max := s.Min, s.Max
	math.Swap(&min[1], &max[1])
	return math.Extents2D{Min: min, Max: max}
}

// Table maps region names to resolved sprites.
type Table map[string]Sprite

// Resolve computes the texture-space rectangle of region inside a page of pageSize pixels.
func Resolve(region *spine.Region, pageSize image.Point) (Sprite, error) {
	if pageSize.X <= 0 || pageSize.Y <= 0 {
		return Sprite{}, &spine.AtlasError{
			Region: region.Name,
			Field:  "size",
			Msg:    fmt.Sprintf("page size %v has a zero component", pageSize),
			Err:    spine.ErrDegenerateAtlasPage,
		}
	}
	if region.Size.X <= 0 || region.Size.Y <= 0 {
		return Sprite{}, &spine.AtlasError{
			Region: region.Name,
			Field:  "size",
			Msg:    fmt.Sprintf("region size %v cannot anchor a pivot", region.Size),
		}
	}

	size := vec2(region.Size)
	pivot := vec2(region.Orig)
	sizeUV := size

	if region.Rotate {
		sizeUV = mgl32.Vec2{sizeUV.Y(), sizeUV.X()}
		pivot = mgl32.Vec2{pivot.Y(), pivot.X()}
	}

	pageRecip := mgl32.Vec2{1 / float32(pageSize.X), 1 / float32(pageSize.Y)}

	pivot = mulElem(pivot, mgl32.Vec2{1 / sizeUV.X(), 1 / sizeUV.Y()})
	sizeUV = mulElem(sizeUV, pageRecip)

	min := mulElem(vec2(region.XY), pageRecip)
	max := min.Add(sizeUV)
	math.Swap(&min[1], &max[1])

	rotation := RotationNone
	if region.Rotate {
		rotation = RotationCCW
	}

	return Sprite{
		Name:     region.Name,
		Min:      min,
		Max:      max,
		Rotation: rotation,
		Size:     size,
		Pivot:    pivot,
	}, nil
}

// ResolveAtlas resolves every region of the page. The atlas's own size is used
// for normalization; texture is attached to each sprite and may be nil.
// Either every region resolves or an error is returned.
func ResolveAtlas(atlas *spine.Atlas, texture *metadata.Texture) (Table, error) {
	if atlas.Size.X <= 0 || atlas.Size.Y <= 0 {
		return nil, &spine.AtlasError{
			Page:  atlas.Name,
			Field: "size",
			Msg:   fmt.Sprintf("page size %v has a zero component", atlas.Size),
			Err:   spine.ErrDegenerateAtlasPage,
		}
	}

	table := make(Table, len(atlas.Regions))
	for i := range atlas.Regions {
		region := &atlas.Regions[i]
		s, err := Resolve(region, atlas.Size)
		if err != nil {
			if ae, ok := err.(*spine.AtlasError); ok {
				ae.Page = atlas.Name
			}
			return nil, err
		}
		s.Texture = texture
		table[region.Name] = s
	}
	return table, nil
}

// Merge copies every sprite of src into t. A name present in both is an error.
func (t Table) Merge(src Table) error {
	for name := range src {
		if _, ok := t[name]; ok {
			return &spine.AtlasError{Region: name, Msg: "duplicate region name across pages"}
		}
	}
	for name, s := range src {
		t[name] = s
	}
	return nil
}

func vec2(p image.Point) mgl32.Vec2 {
	return mgl32.Vec2{float32(p.X), float32(p.Y)}
}

func mulElem(a, b mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{a.X() * b.X(), a.Y() * b.Y()}
}
