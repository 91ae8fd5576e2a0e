package outline

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// SurfaceDistance returns the Euclidean distance between the nearest surfaces of two
// axis aligned boxes. It is zero when the boxes overlap on all three axes.
func SurfaceDistance(a, b ms3.Box) float32 {
	gap := ms3.Vec{
		X: axisGap(a.Min.X, a.Max.X, b.Min.X, b.Max.X),
		Y: axisGap(a.Min.Y, a.Max.Y, b.Min.Y, b.Max.Y),
		Z: axisGap(a.Min.Z, a.Max.Z, b.Min.Z, b.Max.Z),
	}
	return ms3.Norm(gap)
}

func axisGap(amin, amax, bmin, bmax float32) float32 {
	return math32.Max(0, math32.Max(bmin-amax, amin-bmax))
}

// Contains reports whether inner lies entirely within outer, boundaries included.
func Contains(outer, inner ms3.Box) bool {
	return outer.Min.X <= inner.Min.X && outer.Min.Y <= inner.Min.Y && outer.Min.Z <= inner.Min.Z &&
		outer.Max.X >= inner.Max.X && outer.Max.Y >= inner.Max.Y && outer.Max.Z >= inner.Max.Z
}

// Risk estimates in [0,1] how likely the outlines of two objects with world boxes a and b
// visually merge when drawn in the same pass. Risk is symmetric in its arguments.
//
// Closeness relative to the smaller box dominates the score. Nested boxes always score at least 0.9.
// Size disparity contributes a weaker secondary term.
func Risk(a, b ms3.Box) float32 {
	dist := SurfaceDistance(a, b)
	diagA, diagB := a.Diagonal(), b.Diagonal()
	smaller := math32.Min(diagA, diagB)
	larger := math32.Max(diagA, diagB)

	critical := smaller * 0.5
	var distanceRisk float32
	if critical < epstol {
		// Degenerate (point-like) box: only touching boxes are at risk.
		if dist < epstol {
			distanceRisk = 1
		}
	} else {
		distanceRisk = math32.Max(0, 1-dist/critical)
	}
	if Contains(a, b) || Contains(b, a) {
		return math32.Max(0.9, distanceRisk)
	}
	var sizeRisk float32
	if larger > epstol {
		sizeRisk = (1 - smaller/larger) * 0.5
	}
	return distanceRisk*0.8 + sizeRisk*0.2
}
