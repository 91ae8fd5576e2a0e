// Package glrender is a CPU reference backend for the glpass outline pass. It rasterizes
// flat shaded triangles into image.RGBA targets and implements the full-screen quad
// programs on the CPU. It is slow but deterministic, which makes it suited for tests
// and for rendering still images without a GPU.
package glrender

import (
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/outline"
)

// ObjectTriangles reads the triangles of an object's geometry transformed to world space.
type ObjectTriangles struct {
	g    *outline.Geometry
	m    ms3.Mat4
	next int
}

// NewObjectTriangles returns a reader over obj's world space triangles.
func NewObjectTriangles(obj outline.Object) *ObjectTriangles {
	var ot ObjectTriangles
	ot.Reset(obj)
	return &ot
}

// Reset switches the reader to the start of obj's triangles.
func (ot *ObjectTriangles) Reset(obj outline.Object) {
	ot.g = obj.Geometry()
	ot.m = obj.WorldMatrix()
	ot.next = 0
}

// Offset returns the index of the next triangle to be read.
func (ot *ObjectTriangles) Offset() int { return ot.next }

// ReadTriangles reads up to len(dst) triangles. It returns io.EOF after the last triangle.
func (ot *ObjectTriangles) ReadTriangles(dst []ms3.Triangle) (n int, err error) {
	if ot.g == nil {
		return 0, io.EOF
	}
	total := ot.g.TriangleCount()
	pos := ot.g.Positions
	for n < len(dst) && ot.next < total {
		tri := ot.g.Triangle(ot.next)
		dst[n] = ms3.Triangle{
			ot.m.MulPosition(pos[tri[0]]),
			ot.m.MulPosition(pos[tri[1]]),
			ot.m.MulPosition(pos[tri[2]]),
		}
		n++
		ot.next++
	}
	if ot.next >= total {
		return n, io.EOF
	}
	return n, nil
}

var logger atomic.Pointer[slog.Logger]

// SetLogger sets the logger used for diagnostics in this package. A nil logger restores [slog.Default].
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func log() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}
