package outline

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Plane is the set of points p satisfying Dot(Normal,p)+D == 0.
// Points with positive signed distance are on the side the normal points to.
type Plane struct {
	Normal ms3.Vec
	D      float32
}

// Distance returns the signed distance from the plane to p. Plane must be normalized.
func (p Plane) Distance(pt ms3.Vec) float32 {
	return ms3.Dot(p.Normal, pt) + p.D
}

func (p Plane) normalize() Plane {
	n := ms3.Norm(p.Normal)
	if n < epstol {
		return p
	}
	return Plane{Normal: ms3.Scale(1/n, p.Normal), D: p.D / n}
}

// Frustum is a view volume bounded by six inward facing planes
// ordered left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumOf returns the view frustum of the camera.
func FrustumOf(cam Camera) Frustum {
	return NewFrustum(cam.ViewProjection())
}

// NewFrustum extracts the frustum planes from a projection*view matrix (Gribb/Hartmann).
func NewFrustum(viewProj ms3.Mat4) Frustum {
	m := viewProj.Array() // Column major.
	row := func(i int) [4]float32 {
		return [4]float32{m[i], m[4+i], m[8+i], m[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	plane := func(a [4]float32, sign float32) Plane {
		return Plane{
			Normal: ms3.Vec{X: r3[0] + sign*a[0], Y: r3[1] + sign*a[1], Z: r3[2] + sign*a[2]},
			D:      r3[3] + sign*a[3],
		}.normalize()
	}
	return Frustum{Planes: [6]Plane{
		plane(r0, 1), plane(r0, -1),
		plane(r1, 1), plane(r1, -1),
		plane(r2, 1), plane(r2, -1),
	}}
}

// IntersectsSphere reports whether any part of the sphere is inside the frustum.
func (f Frustum) IntersectsSphere(s Sphere) bool {
	for _, p := range f.Planes {
		if p.Distance(s.Center) < -s.Radius {
			return false
		}
	}
	return true
}

// IntersectsBox reports whether any part of the box may be inside the frustum.
func (f Frustum) IntersectsBox(bb ms3.Box) bool {
	for _, p := range f.Planes {
		// Corner furthest along the plane normal.
		v := bb.Min
		if p.Normal.X >= 0 {
			v.X = bb.Max.X
		}
		if p.Normal.Y >= 0 {
			v.Y = bb.Max.Y
		}
		if p.Normal.Z >= 0 {
			v.Z = bb.Max.Z
		}
		if p.Distance(v) < 0 {
			return false
		}
	}
	return true
}

// IsVisible reports whether obj should be considered for outlining. Hidden objects are never visible.
// Objects without geometry are conservatively visible. Otherwise the geometry's bounding sphere,
// computed lazily if needed, is transformed to world space and tested against the frustum.
func IsVisible(obj Object, f Frustum) bool {
	if !obj.Visible() {
		return false
	}
	g := obj.Geometry()
	if g == nil || len(g.Positions) == 0 {
		return true
	}
	return f.IntersectsSphere(worldSphere(g.BoundingSphere(), obj.WorldMatrix()))
}

// WorldBox returns the object's bounding box in world space. ok is false if the object has no geometry.
func WorldBox(obj Object) (bb ms3.Box, ok bool) {
	g := obj.Geometry()
	if g == nil || len(g.Positions) == 0 {
		return ms3.Box{}, false
	}
	m := obj.WorldMatrix()
	return m.MulBox(g.BoundingBox()), true
}

func worldSphere(s Sphere, m ms3.Mat4) Sphere {
	origin := m.MulPosition(ms3.Vec{})
	var scale float32
	for _, axis := range [3]ms3.Vec{{X: 1}, {Y: 1}, {Z: 1}} {
		scale = math32.Max(scale, ms3.Norm(ms3.Sub(m.MulPosition(axis), origin)))
	}
	return Sphere{Center: m.MulPosition(s.Center), Radius: s.Radius * scale}
}
