package math

import (
	m "math"

	"github.com/go-gl/mathgl/mgl32"
)

func TransformCreate() Transform {
	return TransformFromPositionRotationScale(mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
}

func TransformFromPositionRotationScale(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) Transform {
	return Transform{
		Position: position,
		Rotation: rotation,
		Scale:    scale,
	}
}

// TransformFrom2D builds a transform in the XY plane. angle is in radians
// around +Z, counter-clockwise.
func TransformFrom2D(x, y, angle, scaleX, scaleY float32) Transform {
	return TransformFromPositionRotationScale(
		mgl32.Vec3{x, y, 0},
		mgl32.QuatRotate(angle, mgl32.Vec3{0, 0, 1}),
		mgl32.Vec3{scaleX, scaleY, 1},
	)
}

// RotationZ returns the angle in radians of the Z component of the rotation.
func (t Transform) RotationZ() float32 {
	q := t.Rotation.Normalize()
	return float32(m.Atan2(2*float64(q.W*q.V[2]+q.V[0]*q.V[1]), 1-2*float64(q.V[1]*q.V[1]+q.V[2]*q.V[2])))
}

// Local is translation * rotation * scale.
func (t Transform) Local() mgl32.Mat4 {
	tr := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	r := t.Rotation.Mat4()
	s := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return tr.Mul4(r).Mul4(s)
}

// World composes the local matrix under parent.
func (t Transform) World(parent mgl32.Mat4) mgl32.Mat4 {
	return parent.Mul4(t.Local())
}
