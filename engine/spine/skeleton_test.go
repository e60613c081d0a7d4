package spine

import (
	"image/color"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestParseSkeleton(t *testing.T) {
	const src = `{
  "skeleton": {"hash": "abc", "spine": "4.1.24", "width": 120.5, "height": 200, "images": "./images/"},
  "bones": [
    {"name": "root"},
    {"name": "arm", "parent": "root", "x": 5, "rotation": 90, "scaleX": 2, "length": 30,
     "shearY": 10, "inherit": "noScale", "color": "ff000080"},
    {"name": "hand", "parent": "arm", "transform": "onlyTranslation", "color": "00ff00"}
  ],
  "slots": [{"name": "ignored", "bone": "root"}],
  "animations": {}
}`
	skeleton, err := ParseSkeleton(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if skeleton.Info.Spine != "4.1.24" || skeleton.Info.Width != 120.5 || skeleton.Info.Images != "./images/" {
		t.Errorf("Info=%+v", skeleton.Info)
	}
	if len(skeleton.Bones) != 3 {
		t.Fatalf("got %d bones; expected 3", len(skeleton.Bones))
	}

	root := skeleton.Bones[0]
	if root.HasParent() || root.ScaleX != 1 || root.ScaleY != 1 || root.Rotation != 0 {
		t.Errorf("root=%+v; expected defaults", root)
	}
	if root.Inherit != InheritNormal || root.Color != DefaultBoneColor {
		t.Errorf("root inherit=%s color=%v", root.Inherit, root.Color)
	}

	arm, ok := skeleton.Bone("arm")
	if !ok {
		t.Fatal("bone arm not found")
	}
	if arm.Parent != "root" || arm.X != 5 || arm.Y != 0 || arm.Rotation != 90 || arm.ScaleX != 2 || arm.ScaleY != 1 {
		t.Errorf("arm=%+v", *arm)
	}
	if arm.Length != 30 || arm.ShearY != 10 || arm.Inherit != InheritNoScale {
		t.Errorf("arm=%+v", *arm)
	}
	if arm.Color != (color.NRGBA{R: 0xff, A: 0x80}) {
		t.Errorf("arm color=%v", arm.Color)
	}

	hand, _ := skeleton.Bone("hand")
	if hand.Inherit != InheritOnlyTranslation || hand.Color != (color.NRGBA{G: 0xff, A: 0xff}) {
		t.Errorf("hand=%+v", *hand)
	}
}

func TestParseSkeletonWithoutHeader(t *testing.T) {
	skeleton, err := ParseSkeleton(strings.NewReader(`{"bones": [{"name": "root"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if skeleton.Info != (SkeletonInfo{}) || len(skeleton.Bones) != 1 {
		t.Errorf("skeleton=%+v", skeleton)
	}
}

var malformedSkeletonTests = []struct {
	name  string
	src   string
	index int
	field string
}{
	{"not json", `{"bones": [`, -1, ""},
	{"bones not an array", `{"bones": {}}`, -1, "bones"},
	{"missing name", `{"bones": [{"parent": "root"}]}`, 0, "name"},
	{"empty name", `{"bones": [{"name": "root"}, {"name": ""}]}`, 1, "name"},
	{"x is a string", `{"bones": [{"name": "root", "x": "5"}]}`, 0, "x"},
	{"unknown inherit", `{"bones": [{"name": "root", "inherit": "sideways"}]}`, 0, "inherit"},
	{"bad color", `{"bones": [{"name": "root", "color": "red"}]}`, 0, "color"},
}

func TestParseSkeletonMalformed(t *testing.T) {
	for _, test := range malformedSkeletonTests {
		_, err := ParseSkeleton(strings.NewReader(test.src))
		if !errors.Is(err, ErrMalformedSkeleton) {
			t.Errorf("%s: err=%v; expected ErrMalformedSkeleton", test.name, err)
			continue
		}
		var se *SkeletonError
		if !errors.As(err, &se) {
			t.Errorf("%s: %T is not a *SkeletonError", test.name, err)
			continue
		}
		if se.Index != test.index || se.Field != test.field {
			t.Errorf("%s: index=%d field=%q; expected %d %q", test.name, se.Index, se.Field, test.index, test.field)
		}
	}
}

func TestParseSkeletonDuplicateBone(t *testing.T) {
	_, err := ParseSkeleton(strings.NewReader(`{"bones": [{"name": "a"}, {"name": "b"}, {"name": "a"}]}`))
	if !errors.Is(err, ErrDuplicateBoneName) {
		t.Fatalf("err=%v; expected ErrDuplicateBoneName", err)
	}
	if !errors.Is(err, ErrMalformedSkeleton) {
		t.Errorf("err=%v; expected to also match ErrMalformedSkeleton", err)
	}
	var se *SkeletonError
	if errors.As(err, &se) && (se.Bone != "a" || se.Index != 2) {
		t.Errorf("bone=%q index=%d; expected a, 2", se.Bone, se.Index)
	}
}
