// Package bones resolves the flat bone list of a skeleton into an
// index-linked hierarchy hanging off a synthetic root.
package bones

import (
	"image/color"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/anima-spine/engine/core"
	"github.com/spaghettifunk/anima-spine/engine/math"
	"github.com/spaghettifunk/anima-spine/engine/spine"
)

// RootIndex is the parent index of bones attached to the synthetic root,
// and the index of the root itself.
const RootIndex = -1

// ParentResolution selects how parent names are linked.
type ParentResolution int

const (
	// SinglePass links a bone only to a parent declared before it. A parent
	// declared later falls back to the root. Existing content relies on this.
	SinglePass ParentResolution = iota
	// TwoPass links a bone to its parent wherever it is declared.
	TwoPass
)

func (p ParentResolution) String() string {
	if p == TwoPass {
		return "two-pass"
	}
	return "single-pass"
}

func ParseParentResolution(s string) (ParentResolution, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single-pass", "single", "singlepass":
		return SinglePass, true
	case "two-pass", "two", "twopass":
		return TwoPass, true
	}
	return SinglePass, false
}

// Node is a resolved bone. Parent is an index into Hierarchy.Nodes, or RootIndex.
type Node struct {
	Name   string
	Index  int
	Parent int
	// DeclaredParent is the parent name from the skeleton file, even when it
	// could not be linked.
	DeclaredParent string
	Local          math.Transform
	// Rotation is the local rotation around Z in radians.
	Rotation float32
	Shear    mgl32.Vec2
	Length   float32
	Inherit  spine.Inherit
	Color    color.NRGBA
}

func (n *Node) IsRoot() bool {
	return n.Index == RootIndex
}

// Hierarchy owns every node of one import. It is not modified after Resolve.
type Hierarchy struct {
	Root  Node
	Nodes []Node

	lookup   map[string]int
	children map[int][]int
}

type options struct {
	resolution ParentResolution
}

type Option func(*options)

func WithParentResolution(r ParentResolution) Option {
	return func(o *options) {
		o.resolution = r
	}
}

// Resolve links bones into a hierarchy. Duplicate names fail with
// spine.ErrDuplicateBoneName and parent chains that loop fail with
// spine.ErrCyclicBoneHierarchy, whichever resolution policy is used.
func Resolve(bones []spine.Bone, opts ...Option) (*Hierarchy, error) {
	o := &options{resolution: SinglePass}
	for _, opt := range opts {
		opt(o)
	}

	declared := make(map[string]int, len(bones))
	for i := range bones {
		if _, ok := declared[bones[i].Name]; ok {
			return nil, &spine.HierarchyError{Bone: bones[i].Name, Err: spine.ErrDuplicateBoneName}
		}
		declared[bones[i].Name] = i
	}

	if err := checkCycles(bones, declared); err != nil {
		return nil, err
	}

	h := &Hierarchy{
		Root: Node{
			Index:   RootIndex,
			Parent:  RootIndex,
			Local:   math.TransformCreate(),
			Inherit: spine.InheritNormal,
			Color:   spine.DefaultBoneColor,
		},
		Nodes:    make([]Node, 0, len(bones)),
		lookup:   make(map[string]int, len(bones)),
		children: make(map[int][]int),
	}

	for i := range bones {
		b := &bones[i]
		parent := RootIndex
		if b.HasParent() {
			var ok bool
			switch o.resolution {
			case TwoPass:
				parent, ok = declared[b.Parent]
			default:
				parent, ok = h.lookup[b.Parent]
			}
			if !ok {
				parent = RootIndex
				if _, defined := declared[b.Parent]; defined {
					core.LogWarn("bone '%s' names parent '%s' declared after it, attaching to root", b.Name, b.Parent)
				} else {
					core.LogWarn("bone '%s' names unknown parent '%s', attaching to root", b.Name, b.Parent)
				}
			}
		}

		rotation := math.DegToRad(b.Rotation)
		h.Nodes = append(h.Nodes, Node{
			Name:           b.Name,
			Index:          i,
			Parent:         parent,
			DeclaredParent: b.Parent,
			Local:          math.TransformFrom2D(b.X, b.Y, rotation, b.ScaleX, b.ScaleY),
			Rotation:       rotation,
			Shear:          mgl32.Vec2{b.ShearX, b.ShearY},
			Length:         b.Length,
			Inherit:        b.Inherit,
			Color:          b.Color,
		})
		h.lookup[b.Name] = i
		h.children[parent] = append(h.children[parent], i)
	}
	return h, nil
}

// checkCycles walks the declared ancestor chain of every bone. A chain longer
// than the bone count can only come from a loop.
func checkCycles(bones []spine.Bone, declared map[string]int) error {
	acyclic := make([]bool, len(bones))
	for i := range bones {
		var visited []int
		cur := i
		for steps := 0; ; steps++ {
			if steps > len(bones) {
				return &spine.HierarchyError{Bone: bones[i].Name, Parent: bones[i].Parent, Err: spine.ErrCyclicBoneHierarchy}
			}
			if acyclic[cur] {
				break
			}
			visited = append(visited, cur)
			next, ok := declared[bones[cur].Parent]
			if !bones[cur].HasParent() || !ok {
				break
			}
			cur = next
		}
		for _, v := range visited {
			acyclic[v] = true
		}
	}
	return nil
}

func (h *Hierarchy) Len() int {
	return len(h.Nodes)
}

func (h *Hierarchy) Lookup(name string) (*Node, bool) {
	i, ok := h.lookup[name]
	if !ok {
		return nil, false
	}
	return &h.Nodes[i], true
}

// Node returns the node at index, or the root for RootIndex.
func (h *Hierarchy) Node(index int) *Node {
	if index == RootIndex {
		return &h.Root
	}
	return &h.Nodes[index]
}

// Parent returns the parent of n; the root is its own parent.
func (h *Hierarchy) Parent(n *Node) *Node {
	return h.Node(n.Parent)
}

// Children lists the node indices directly under index, in declaration order.
func (h *Hierarchy) Children(index int) []int {
	return h.children[index]
}

// WorldMatrices returns the rest-pose world matrix of every node, indexed
// like Nodes. Bones that inherit only translation drop the parent's
// rotation and scale; other inherit modes compose the full parent matrix.
func (h *Hierarchy) WorldMatrices() []mgl32.Mat4 {
	worlds := make([]mgl32.Mat4, len(h.Nodes))
	done := make([]bool, len(h.Nodes))

	var compute func(i int) mgl32.Mat4
	compute = func(i int) mgl32.Mat4 {
		if i == RootIndex {
			return h.Root.Local.Local()
		}
		if done[i] {
			return worlds[i]
		}
		n := &h.Nodes[i]
		parent := compute(n.Parent)
		if n.Inherit == spine.InheritOnlyTranslation {
			t := parent.Col(3)
			parent = mgl32.Translate3D(t.X(), t.Y(), t.Z())
		}
		worlds[i] = n.Local.World(parent)
		done[i] = true
		return worlds[i]
	}

	for i := range h.Nodes {
		compute(i)
	}
	return worlds
}
