package spine

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrMalformedAtlas      = errors.New("malformed atlas")
	ErrMalformedSkeleton   = errors.New("malformed skeleton")
	ErrDegenerateAtlasPage = errors.New("degenerate atlas page")
	ErrCyclicBoneHierarchy = errors.New("cyclic bone hierarchy")
	ErrDuplicateBoneName   = errors.New("duplicate bone name")
	ErrAtlasNotFound       = errors.New("atlas not found")
)

// AtlasError describes where an atlas failed to parse or resolve.
// Line is 1-based and zero when the failure is not tied to a line.
type AtlasError struct {
	Line   int
	Page   string
	Region string
	Field  string
	Msg    string
	Err    error
}

func (e *AtlasError) Error() string {
	s := ErrMalformedAtlas.Error()
	if e.Err != nil && e.Err != ErrMalformedAtlas {
		s = e.Err.Error()
	}
	if e.Line > 0 {
		s = fmt.Sprintf("%s: line %d", s, e.Line)
	}
	if e.Page != "" {
		s = fmt.Sprintf("%s: page %q", s, e.Page)
	}
	if e.Region != "" {
		s = fmt.Sprintf("%s: region %q", s, e.Region)
	}
	if e.Field != "" {
		s = fmt.Sprintf("%s: field %q", s, e.Field)
	}
	if e.Msg != "" {
		s = fmt.Sprintf("%s: %s", s, e.Msg)
	}
	return s
}

// Unwrap returns the sentinel; ErrMalformedAtlas when none was set.
func (e *AtlasError) Unwrap() error {
	if e.Err == nil {
		return ErrMalformedAtlas
	}
	return e.Err
}

// SkeletonError describes a bone that could not be parsed.
type SkeletonError struct {
	Bone  string
	Index int
	Field string
	Msg   string
	Err   error
}

func (e *SkeletonError) Error() string {
	s := fmt.Sprintf("%s: bone #%d", ErrMalformedSkeleton, e.Index)
	if e.Index < 0 {
		s = ErrMalformedSkeleton.Error()
	}
	if e.Bone != "" {
		s = fmt.Sprintf("%s %q", s, e.Bone)
	}
	if e.Field != "" {
		s = fmt.Sprintf("%s: field %q", s, e.Field)
	}
	if e.Msg != "" {
		s = fmt.Sprintf("%s: %s", s, e.Msg)
	}
	if e.Err != nil {
		s = fmt.Sprintf("%s: %v", s, e.Err)
	}
	return s
}

// Is matches ErrMalformedSkeleton in addition to the wrapped cause, so a
// duplicate bone satisfies both ErrMalformedSkeleton and ErrDuplicateBoneName.
func (e *SkeletonError) Is(target error) bool {
	return target == ErrMalformedSkeleton
}

func (e *SkeletonError) Unwrap() error {
	return e.Err
}

// HierarchyError describes a bone the hierarchy resolver rejected.
type HierarchyError struct {
	Bone   string
	Parent string
	Err    error
}

func (e *HierarchyError) Error() string {
	if e.Parent != "" {
		return fmt.Sprintf("%s: bone %q (parent %q)", e.Err, e.Bone, e.Parent)
	}
	return fmt.Sprintf("%s: bone %q", e.Err, e.Bone)
}

func (e *HierarchyError) Unwrap() error {
	return e.Err
}
