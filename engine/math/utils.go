package math

import (
	m "math"

	"golang.org/x/exp/constraints"
)

// DegToRad converts degrees to radians.
func DegToRad[T constraints.Float](deg T) T {
	return deg * T(m.Pi) / 180
}

// Swap exchanges the values behind a and b.
func Swap[T any](a, b *T) {
	*a, *b = *b, *a
}
