package glrender_test

import (
	"image/color"
	"io"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/outline"
	"github.com/soypat/outline/glpass"
	"github.com/soypat/outline/glrender"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const size = 64

var (
	red   = color.NRGBA{R: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// camera maps the [-2,2]x[-2,2] world square onto the 64x64 image, 16 pixels per unit.
func camera() *outline.OrthoCamera {
	return outline.NewOrthoCamera(ms3.Vec{Z: 50}, 4, 4, 100)
}

func box(minX, maxX, minY, maxY float32) *outline.Node {
	bb := ms3.Box{Min: ms3.Vec{X: minX, Y: minY, Z: -0.5}, Max: ms3.Vec{X: maxX, Y: maxY, Z: 0.5}}
	return outline.NewNode("box", outline.NewBoxGeometry(bb))
}

func newRenderer(t *testing.T) *glrender.ImageRenderer {
	t.Helper()
	r, err := glrender.NewImageRenderer(size, size)
	require.NoError(t, err)
	return r
}

func at(tgt *glrender.ImageTarget, x, y int) color.RGBA {
	return tgt.Image().RGBAAt(x, y)
}

func readTriangles(t *testing.T, ot *glrender.ObjectTriangles) []ms3.Triangle {
	t.Helper()
	var tris []ms3.Triangle
	buf := make([]ms3.Triangle, 5)
	for {
		n, err := ot.ReadTriangles(buf)
		tris = append(tris, buf[:n]...)
		if err == io.EOF {
			return tris
		}
		require.NoError(t, err)
	}
}

func TestObjectTriangles(t *testing.T) {
	n := box(0, 1, 0, 1)
	n.Transform = outline.TranslatingMat4(ms3.Vec{X: 10})
	ot := glrender.NewObjectTriangles(n)
	tris := readTriangles(t, ot)
	require.Len(t, tris, 12)
	assert.Equal(t, 12, ot.Offset())
	for _, tri := range tris {
		for _, v := range tri {
			assert.GreaterOrEqual(t, v.X, float32(10))
			assert.LessOrEqual(t, v.X, float32(11))
		}
	}
	empty := outline.NewNode("empty", nil)
	assert.Empty(t, readTriangles(t, glrender.NewObjectTriangles(empty)))
}

func TestDrawFlat(t *testing.T) {
	r := newRenderer(t)
	screen := r.Screen()
	r.Draw([]outline.Object{box(-1, 1, -1, 1)}, camera(), glpass.DrawParams{Colors: []color.NRGBA{red}})
	assert.Equal(t, color.RGBA{R: 255, A: 255}, at(screen, 32, 32))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, at(screen, 16, 16))
	// Clear color is opaque black by default.
	assert.Equal(t, color.RGBA{A: 255}, at(screen, 15, 32))
	assert.Equal(t, color.RGBA{A: 255}, at(screen, 2, 2))
}

func TestDrawDepthOrder(t *testing.T) {
	r := newRenderer(t)
	near := box(-1, 1, -1, 1)
	near.Transform = outline.TranslatingMat4(ms3.Vec{Z: 5})
	far := box(-1, 1, -1, 1)
	// Far object listed last still loses against the nearer one.
	r.Draw([]outline.Object{near, far}, camera(), glpass.DrawParams{Colors: []color.NRGBA{red, white}})
	assert.Equal(t, color.RGBA{R: 255, A: 255}, at(r.Screen(), 32, 32))

	// Same result on a target without depth buffer.
	tgt := r.NewTarget(size, size, glpass.TargetConfig{})
	r.SetRenderTarget(tgt)
	r.Draw([]outline.Object{far, near}, camera(), glpass.DrawParams{Colors: []color.NRGBA{white, red}})
	assert.Equal(t, color.RGBA{R: 255, A: 255}, at(tgt.(*glrender.ImageTarget), 32, 32))
}

func TestBlending(t *testing.T) {
	r := newRenderer(t)
	r.SetAutoClear(false)
	r.SetClearColor(glpass.ClearColor{R: 0.5, A: 1})
	r.Clear(true, true, false)
	r.SetBlending(glpass.BlendAdditive)
	r.Draw([]outline.Object{box(-1, 1, -1, 1)}, camera(), glpass.DrawParams{Colors: []color.NRGBA{{R: 200, G: 10, A: 255}}})
	c := at(r.Screen(), 32, 32)
	assert.EqualValues(t, 255, c.R, "additive blending saturates")
	assert.EqualValues(t, 10, c.G)
	assert.EqualValues(t, 128, at(r.Screen(), 2, 2).R)
}

func TestMaskEdgeQuad(t *testing.T) {
	r := newRenderer(t)
	mask := r.NewTarget(size, size, glpass.TargetConfig{})
	r.SetRenderTarget(mask)
	r.SetClearColor(glpass.ClearColor{})
	r.Draw([]outline.Object{box(-1, 1, -1, 1)}, camera(), glpass.DrawParams{Colors: []color.NRGBA{white}})

	out := r.NewTarget(size, size, glpass.TargetConfig{}).(*glrender.ImageTarget)
	r.SetRenderTarget(out)
	r.Clear(true, false, false)
	r.DrawQuad(glpass.QuadMaskEdge, glpass.Style{Color: white, Thickness: 1}, mask)
	// Box covers pixels 16..47.
	assert.EqualValues(t, 255, at(out, 15, 32).R, "edge just outside silhouette")
	assert.EqualValues(t, 255, at(out, 48, 32).R)
	assert.Zero(t, at(out, 32, 32).A, "no edge inside silhouette")
	assert.Zero(t, at(out, 5, 32).A, "no edge far outside")
}

func newScenePass(t *testing.T, cfg glpass.Config, objs ...outline.Object) *glpass.Pass {
	t.Helper()
	p, err := glpass.NewPass(cfg)
	require.NoError(t, err)
	p.SetCamera(camera())
	p.SetSelection(objs)
	p.SetSize(size, size)
	return p
}

func TestBatchedOutlineKeepsOverlapEdge(t *testing.T) {
	// A covers pixels 16..39 and B covers 24..47 along X. B hides A's right edge
	// in a combined silhouette. Drawn in separate batches A's edge survives at pixel 40.
	a := box(-1, 0.5, -1, 1)
	b := box(-0.5, 1, -1, 1)
	r := newRenderer(t)
	read := r.NewTarget(size, size, glpass.TargetConfig{}).(*glrender.ImageTarget)
	r.SetRenderTarget(read)
	r.SetClearColor(glpass.ClearColor{})
	r.Clear(true, true, false)
	r.SetRenderTarget(nil)
	r.SetClearColor(glpass.ClearColor{A: 1})

	p := newScenePass(t, glpass.DefaultConfig(), a, b)
	p.Render(r, nil, read, 0, false)
	stats := p.Stats()
	assert.Equal(t, "batched", stats.Strategy)
	assert.Equal(t, 2, stats.Batches)
	assert.EqualValues(t, 255, at(read, 40, 32).R, "edge of A inside B")
	assert.EqualValues(t, 255, at(read, 15, 32).R, "outer edge of A")
	assert.EqualValues(t, 255, at(read, 48, 32).R, "outer edge of B")
	assert.Zero(t, at(read, 32, 32).R)

	// Renderer state was restored.
	assert.Nil(t, r.RenderTarget())
	assert.Equal(t, glpass.ClearColor{A: 1}, r.ClearColor())
	assert.True(t, r.AutoClear())
	assert.Equal(t, glpass.BlendNone, r.Blending())
}

func TestRenderToScreen(t *testing.T) {
	r := newRenderer(t)
	read := r.NewTarget(size, size, glpass.TargetConfig{}).(*glrender.ImageTarget)
	cfg := glpass.DefaultConfig()
	cfg.RenderToScreen = true
	p := newScenePass(t, cfg, box(-1, 1, -1, 1))
	r.SetAutoClear(false)
	r.Clear(true, true, false)
	p.Render(r, nil, read, 0, false)
	assert.Equal(t, "single", p.Stats().Strategy)
	assert.EqualValues(t, 255, at(r.Screen(), 15, 32).R)
}

func TestIDStrategyTouchingObjects(t *testing.T) {
	objs := []outline.Object{
		box(-2, -1, -1, 1), box(-1, 0, -1, 1), box(0, 1, -1, 1), box(1, 2, -1, 1),
	}
	r := newRenderer(t)
	read := r.NewTarget(size, size, glpass.TargetConfig{}).(*glrender.ImageTarget)
	cfg := glpass.DefaultConfig()
	cfg.IDRendering = true
	p := newScenePass(t, cfg, objs...)
	p.Render(r, nil, read, 0, false)
	assert.Equal(t, "id-texture", p.Stats().Strategy)
	// Boundary between the second and third box is at pixel 32.
	assert.EqualValues(t, 255, at(read, 32, 32).R)
	assert.Zero(t, at(read, 40, 32).R, "no edge inside a box")
}

func TestIDStrategySurfaceIDsAfterInvalidation(t *testing.T) {
	objs := []outline.Object{
		box(-2, -1, -1, 1), box(-1, 0, -1, 1), box(0, 1, -1, 1), box(1, 2, -1, 1),
	}
	r := newRenderer(t)
	read := r.NewTarget(size, size, glpass.TargetConfig{}).(*glrender.ImageTarget)
	cfg := glpass.DefaultConfig()
	cfg.IDRendering = true
	cfg.SurfaceIDs = true
	p := newScenePass(t, cfg, objs...)
	r.SetClearColor(glpass.ClearColor{})
	for range 200 {
		p.InvalidateCache()
		r.SetRenderTarget(read)
		r.Clear(true, true, false)
		r.SetRenderTarget(nil)
		p.Render(r, nil, read, 0, false)
	}
	assert.Equal(t, "id-texture", p.Stats().Strategy)
	assert.EqualValues(t, 255, at(read, 32, 32).R, "edge between touching boxes")
	assert.Zero(t, at(read, 40, 32).R, "no edge inside a box")
}

func TestTargetLifecycle(t *testing.T) {
	tgt := glrender.NewImageTarget(10, 20, glpass.TargetConfig{DepthBuffer: true})
	w, h := tgt.Size()
	assert.Equal(t, 10, w)
	assert.Equal(t, 20, h)
	tgt.SetSize(30, 5)
	w, h = tgt.Size()
	assert.Equal(t, 30, w)
	assert.Equal(t, 5, h)
	tgt.Dispose()
	tgt.Dispose()
	assert.True(t, tgt.Disposed())
	w, _ = tgt.Size()
	assert.Zero(t, w)
}
