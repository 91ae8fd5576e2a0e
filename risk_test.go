package outline_test

import (
	"math/rand"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/outline"
	"github.com/stretchr/testify/assert"
)

func box(minX, minY, minZ, maxX, maxY, maxZ float32) ms3.Box {
	return ms3.Box{
		Min: ms3.Vec{X: minX, Y: minY, Z: minZ},
		Max: ms3.Vec{X: maxX, Y: maxY, Z: maxZ},
	}
}

func unitBoxAt(x, y, z float32) ms3.Box {
	return box(x, y, z, x+1, y+1, z+1)
}

func randomBox(rng *rand.Rand) ms3.Box {
	p := ms3.Vec{X: rng.Float32()*20 - 10, Y: rng.Float32()*20 - 10, Z: rng.Float32()*20 - 10}
	sz := ms3.Vec{X: rng.Float32() * 5, Y: rng.Float32() * 5, Z: rng.Float32() * 5}
	return ms3.Box{Min: p, Max: ms3.Add(p, sz)}
}

func TestSurfaceDistance(t *testing.T) {
	a := unitBoxAt(0, 0, 0)
	assert.Zero(t, outline.SurfaceDistance(a, unitBoxAt(0.5, 0.5, 0.5)), "overlapping boxes")
	assert.InDelta(t, 2, outline.SurfaceDistance(a, unitBoxAt(3, 0, 0)), 1e-6)
	// Gaps of 3 and 4 on two axes.
	assert.InDelta(t, 5, outline.SurfaceDistance(a, unitBoxAt(4, 5, 0)), 1e-5)
	// Overlap on X only still measures the Y gap.
	assert.InDelta(t, 1, outline.SurfaceDistance(a, unitBoxAt(0.5, 2, 0)), 1e-6)
}

func TestRiskSymmetricAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		a, b := randomBox(rng), randomBox(rng)
		rab := outline.Risk(a, b)
		rba := outline.Risk(b, a)
		if rab != rba {
			t.Fatalf("asymmetric risk %v != %v for %v %v", rab, rba, a, b)
		}
		if rab < 0 || rab > 1 {
			t.Fatalf("risk %v out of range for %v %v", rab, a, b)
		}
	}
}

func TestRiskContainment(t *testing.T) {
	outer := box(-10, -10, -10, 10, 10, 10)
	inner := box(-1, -1, -1, 1, 1, 1)
	assert.GreaterOrEqual(t, outline.Risk(outer, inner), float32(0.9))
	assert.GreaterOrEqual(t, outline.Risk(inner, outer), float32(0.9))
	// Identical boxes contain each other.
	assert.InDelta(t, 1, outline.Risk(inner, inner), 1e-6)
}

func TestRiskFarApart(t *testing.T) {
	a := unitBoxAt(0, 0, 0)
	b := unitBoxAt(101, 0, 0)
	r := outline.Risk(a, b)
	assert.Less(t, r, float32(outline.RiskThreshold))
	assert.Zero(t, r, "equal sized far boxes carry no risk")
}

func TestRiskCloseBoxesConflict(t *testing.T) {
	a := unitBoxAt(0, 0, 0)
	b := unitBoxAt(0.5, 0, 0)
	assert.Greater(t, outline.Risk(a, b), float32(outline.RiskThreshold))
	// Touching boxes of equal size sit at full distance risk.
	assert.InDelta(t, 0.8, outline.Risk(a, unitBoxAt(1, 0, 0)), 1e-6)
}

func TestRiskDegenerateBoxes(t *testing.T) {
	point := box(1, 1, 1, 1, 1, 1)
	assert.InDelta(t, 1, outline.Risk(point, point), 1e-6)
	far := box(5, 5, 5, 5, 5, 5)
	assert.Zero(t, outline.Risk(point, far))
}
