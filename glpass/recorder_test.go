package glpass_test

import (
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/outline"
	"github.com/soypat/outline/glpass"
)

type fakeTarget struct {
	name     string
	w, h     int
	disposed int
}

func (t *fakeTarget) Size() (int, int)   { return t.w, t.h }
func (t *fakeTarget) SetSize(w, h int)   { t.w, t.h = w, h }
func (t *fakeTarget) Dispose()           { t.disposed++ }
func (t *fakeTarget) String() string     { return t.name }
func newFakeTarget(w, h int) *fakeTarget { return &fakeTarget{name: "read", w: w, h: h} }

// recorder is a Renderer that records the calls the pass makes without drawing.
type recorder struct {
	target    glpass.Target
	clear     glpass.ClearColor
	autoClear bool
	blending  glpass.Blending
	stencil   bool
	ratio     float32

	created []*fakeTarget
	draws   int
	maxID   uint32
	// stencilDuringDraw is set if any Draw happened with stencil testing enabled.
	stencilDuringDraw bool
	quads             []glpass.QuadProgram
	quadBlend         []glpass.Blending
	quadDst           []glpass.Target
}

var _ glpass.Renderer = (*recorder)(nil)

func (r *recorder) SetRenderTarget(t glpass.Target)   { r.target = t }
func (r *recorder) RenderTarget() glpass.Target       { return r.target }
func (r *recorder) Clear(color, depth, stencil bool)  {}
func (r *recorder) SetClearColor(c glpass.ClearColor) { r.clear = c }
func (r *recorder) ClearColor() glpass.ClearColor     { return r.clear }
func (r *recorder) AutoClear() bool                   { return r.autoClear }
func (r *recorder) SetAutoClear(autoClear bool)       { r.autoClear = autoClear }
func (r *recorder) Blending() glpass.Blending         { return r.blending }
func (r *recorder) SetBlending(b glpass.Blending)     { r.blending = b }
func (r *recorder) StencilTest() bool                 { return r.stencil }
func (r *recorder) SetStencilTest(enabled bool)       { r.stencil = enabled }
func (r *recorder) PixelRatio() float32 {
	if r.ratio == 0 {
		return 1
	}
	return r.ratio
}

func (r *recorder) NewTarget(w, h int, cfg glpass.TargetConfig) glpass.Target {
	t := &fakeTarget{name: "internal", w: w, h: h}
	r.created = append(r.created, t)
	return t
}

func (r *recorder) Draw(objs []outline.Object, cam outline.Camera, p glpass.DrawParams) {
	r.draws++
	r.maxID = p.MaxID
	r.stencilDuringDraw = r.stencilDuringDraw || r.stencil
}

func (r *recorder) DrawQuad(prog glpass.QuadProgram, style glpass.Style, inputs ...glpass.Target) {
	r.quads = append(r.quads, prog)
	r.quadBlend = append(r.quadBlend, r.blending)
	r.quadDst = append(r.quadDst, r.target)
}

func (r *recorder) count(prog glpass.QuadProgram) (n int) {
	for _, q := range r.quads {
		if q == prog {
			n++
		}
	}
	return n
}

// boxNode returns a node with a box of the given size centered at (x,0,0).
func boxNode(x, size float32) outline.Object {
	h := size / 2
	bb := ms3.Box{Min: ms3.Vec{X: x - h, Y: -h, Z: -h}, Max: ms3.Vec{X: x + h, Y: h, Z: h}}
	return outline.NewNode("box", outline.NewBoxGeometry(bb))
}

// row returns n unit boxes spaced far apart along X.
func row(n int) []outline.Object {
	objs := make([]outline.Object, n)
	for i := range objs {
		objs[i] = boxNode(float32(i)*10, 1)
	}
	return objs
}

func camera() outline.Camera {
	return outline.NewOrthoCamera(ms3.Vec{Z: 50}, 2000, 2000, 100)
}
