package outline

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Sphere is a bounding sphere.
type Sphere struct {
	Center ms3.Vec
	Radius float32
}

// Geometry is a triangle mesh. If Indices is nil Positions is read as a flat triangle list.
type Geometry struct {
	Positions []ms3.Vec
	Indices   []uint32
	// Colors is a per-vertex attribute with 4 components per vertex.
	// Written by [SurfaceIDGenerator].
	Colors []float32

	bbox   *ms3.Box
	sphere *Sphere
}

// NewBoxGeometry returns an indexed axis aligned box mesh with 8 shared vertices and 12 triangles.
func NewBoxGeometry(bb ms3.Box) *Geometry {
	lo, hi := bb.Min, bb.Max
	pos := []ms3.Vec{
		{X: lo.X, Y: lo.Y, Z: lo.Z}, {X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z}, {X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z}, {X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z}, {X: lo.X, Y: hi.Y, Z: hi.Z},
	}
	idx := []uint32{
		0, 2, 1, 0, 3, 2, // -Z
		4, 5, 6, 4, 6, 7, // +Z
		0, 1, 5, 0, 5, 4, // -Y
		3, 6, 2, 3, 7, 6, // +Y
		0, 4, 7, 0, 7, 3, // -X
		1, 2, 6, 1, 6, 5, // +X
	}
	return &Geometry{Positions: pos, Indices: idx}
}

// Indexed reports whether the geometry has an index buffer.
func (g *Geometry) Indexed() bool { return g.Indices != nil }

// TriangleCount returns the number of triangles described by the geometry.
func (g *Geometry) TriangleCount() int {
	if g.Indexed() {
		return len(g.Indices) / 3
	}
	return len(g.Positions) / 3
}

// Triangle returns the vertex indices of the i'th triangle.
func (g *Geometry) Triangle(i int) [3]int {
	if g.Indexed() {
		return [3]int{int(g.Indices[3*i]), int(g.Indices[3*i+1]), int(g.Indices[3*i+2])}
	}
	return [3]int{3 * i, 3*i + 1, 3*i + 2}
}

// BoundingBox returns the model space bounding box, computing and caching it on first use.
// A geometry without positions has a zero box.
func (g *Geometry) BoundingBox() ms3.Box {
	if g.bbox != nil {
		return *g.bbox
	}
	var bb ms3.Box
	if len(g.Positions) > 0 {
		bb = ms3.Box{Min: g.Positions[0], Max: g.Positions[0]}
		for _, p := range g.Positions[1:] {
			bb.Min = ms3.MinElem(bb.Min, p)
			bb.Max = ms3.MaxElem(bb.Max, p)
		}
	}
	g.bbox = &bb
	return bb
}

// BoundingSphere returns the model space bounding sphere centered on the bounding box,
// computing and caching it on first use.
func (g *Geometry) BoundingSphere() Sphere {
	if g.sphere != nil {
		return *g.sphere
	}
	bb := g.BoundingBox()
	center := bb.Center()
	var r2 float32
	for _, p := range g.Positions {
		d := ms3.Sub(p, center)
		r2 = math32.Max(r2, ms3.Dot(d, d))
	}
	s := Sphere{Center: center, Radius: math32.Sqrt(r2)}
	g.sphere = &s
	return s
}

// HasBoundingSphere reports whether the bounding sphere has been computed.
func (g *Geometry) HasBoundingSphere() bool { return g.sphere != nil }

// InvalidateBounds drops cached bounds. Call after modifying Positions.
func (g *Geometry) InvalidateBounds() {
	g.bbox = nil
	g.sphere = nil
}
