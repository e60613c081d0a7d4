package spine

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Inherit controls which parts of the parent transform a bone inherits.
type Inherit int

const (
	InheritNormal Inherit = iota
	InheritOnlyTranslation
	InheritNoRotationOrReflection
	InheritNoScale
	InheritNoScaleOrReflection
)

var inheritNames = map[string]Inherit{
	"normal":                 InheritNormal,
	"onlyTranslation":        InheritOnlyTranslation,
	"noRotationOrReflection": InheritNoRotationOrReflection,
	"noScale":                InheritNoScale,
	"noScaleOrReflection":    InheritNoScaleOrReflection,
}

func (i Inherit) String() string {
	for name, v := range inheritNames {
		if v == i {
			return name
		}
	}
	return fmt.Sprintf("Inherit(%d)", int(i))
}

// DefaultBoneColor is the editor colour Spine assigns when a bone has none.
var DefaultBoneColor = color.NRGBA{R: 0x98, G: 0x98, B: 0x98, A: 0xff}

// Bone is a bone as declared in the skeleton file. Parent is a name and is
// not checked for existence here.
type Bone struct {
	Name   string
	Parent string
	X, Y   float32
	// Rotation is in degrees, counter-clockwise, as exported by Spine.
	Rotation       float32
	ScaleX, ScaleY float32
	ShearX, ShearY float32
	Length         float32
	Inherit        Inherit
	Color          color.NRGBA
}

func (b *Bone) HasParent() bool {
	return b.Parent != ""
}

// SkeletonInfo is the optional "skeleton" header of an export.
type SkeletonInfo struct {
	Hash   string  `json:"hash"`
	Spine  string  `json:"spine"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
	Images string  `json:"images"`
	Audio  string  `json:"audio"`
}

type Skeleton struct {
	Info  SkeletonInfo
	Bones []Bone
}

func (s *Skeleton) Bone(name string) (*Bone, bool) {
	for i := range s.Bones {
		if s.Bones[i].Name == name {
			return &s.Bones[i], true
		}
	}
	return nil, false
}

type skeletonFile struct {
	Skeleton *SkeletonInfo     `json:"skeleton"`
	Bones    []json.RawMessage `json:"bones"`
}

type boneJSON struct {
	Name      *string  `json:"name"`
	Parent    *string  `json:"parent"`
	X         *float32 `json:"x"`
	Y         *float32 `json:"y"`
	Rotation  *float32 `json:"rotation"`
	ScaleX    *float32 `json:"scaleX"`
	ScaleY    *float32 `json:"scaleY"`
	ShearX    *float32 `json:"shearX"`
	ShearY    *float32 `json:"shearY"`
	Length    *float32 `json:"length"`
	Transform *string  `json:"transform"`
	Inherit   *string  `json:"inherit"`
	Color     *string  `json:"color"`
}

// ParseSkeleton reads a Spine JSON export. Only the header and the bones are
// read; slots, skins and animations are skipped.
func ParseSkeleton(r io.Reader) (*Skeleton, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skeleton")
	}

	var file skeletonFile
	if err := json.Unmarshal(data, &file); err != nil {
		se := &SkeletonError{Index: -1, Err: err}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			se.Field = typeErr.Field
		}
		return nil, se
	}

	skeleton := &Skeleton{Bones: make([]Bone, 0, len(file.Bones))}
	if file.Skeleton != nil {
		skeleton.Info = *file.Skeleton
	}

	seen := make(map[string]int, len(file.Bones))
	for i, raw := range file.Bones {
		bone, err := parseBone(i, raw)
		if err != nil {
			return nil, err
		}
		if first, ok := seen[bone.Name]; ok {
			return nil, &SkeletonError{
				Bone:  bone.Name,
				Index: i,
				Field: "name",
				Msg:   fmt.Sprintf("already defined by bone #%d", first),
				Err:   ErrDuplicateBoneName,
			}
		}
		seen[bone.Name] = i
		skeleton.Bones = append(skeleton.Bones, bone)
	}
	return skeleton, nil
}

func parseBone(index int, raw json.RawMessage) (Bone, error) {
	var bj boneJSON
	if err := json.Unmarshal(raw, &bj); err != nil {
		se := &SkeletonError{Index: index, Err: err}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			se.Field = typeErr.Field
		}
		// Best effort to name the bone in the report.
		var named struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(raw, &named) == nil {
			se.Bone = named.Name
		}
		return Bone{}, se
	}

	if bj.Name == nil || *bj.Name == "" {
		return Bone{}, &SkeletonError{Index: index, Field: "name", Msg: "missing field"}
	}

	bone := Bone{
		Name:     *bj.Name,
		X:        valueOr(bj.X, 0),
		Y:        valueOr(bj.Y, 0),
		Rotation: valueOr(bj.Rotation, 0),
		ScaleX:   valueOr(bj.ScaleX, 1),
		ScaleY:   valueOr(bj.ScaleY, 1),
		ShearX:   valueOr(bj.ShearX, 0),
		ShearY:   valueOr(bj.ShearY, 0),
		Length:   valueOr(bj.Length, 0),
		Inherit:  InheritNormal,
		Color:    DefaultBoneColor,
	}
	if bj.Parent != nil {
		bone.Parent = *bj.Parent
	}

	mode, field := bj.Inherit, "inherit"
	if mode == nil {
		mode, field = bj.Transform, "transform"
	}
	if mode != nil {
		inherit, ok := inheritNames[*mode]
		if !ok {
			return Bone{}, &SkeletonError{Bone: bone.Name, Index: index, Field: field, Msg: fmt.Sprintf("unknown mode %q", *mode)}
		}
		bone.Inherit = inherit
	}

	if bj.Color != nil {
		c, err := parseColor(*bj.Color)
		if err != nil {
			return Bone{}, &SkeletonError{Bone: bone.Name, Index: index, Field: "color", Err: err}
		}
		bone.Color = c
	}
	return bone, nil
}

func valueOr[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}

// parseColor reads RRGGBB or RRGGBBAA.
func parseColor(s string) (color.NRGBA, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "#"))
	if err != nil {
		return color.NRGBA{}, errors.Wrapf(err, "invalid colour %q", s)
	}
	switch len(b) {
	case 3:
		return color.NRGBA{R: b[0], G: b[1], B: b[2], A: 0xff}, nil
	case 4:
		return color.NRGBA{R: b[0], G: b[1], B: b[2], A: b[3]}, nil
	}
	return color.NRGBA{}, errors.Errorf("invalid colour %q, expected RRGGBB or RRGGBBAA", s)
}
