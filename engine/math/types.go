package math

import "github.com/go-gl/mathgl/mgl32"

/**
 * @brief Represents the extents of a 2d object.
 */
type Extents2D struct {
	/** @brief The minimum extents of the object. */
	Min mgl32.Vec2
	/** @brief The maximum extents of the object. */
	Max mgl32.Vec2
}

/**
 * @brief Represents the local transform of a node: a translation, an
 * orientation and a non-uniform scale. Transforms are values; hierarchies
 * link them by index, never by pointer.
 */
type Transform struct {
	/** @brief The position relative to the parent. */
	Position mgl32.Vec3
	/** @brief The rotation relative to the parent. */
	Rotation mgl32.Quat
	/** @brief The scale relative to the parent. */
	Scale mgl32.Vec3
}
