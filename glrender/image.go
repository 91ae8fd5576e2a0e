package glrender

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/outline"
	"github.com/soypat/outline/glpass"
)

// ImageTarget is a render target backed by an [image.RGBA] with an optional depth buffer.
type ImageTarget struct {
	img   *image.RGBA
	depth []float32
	cfg   glpass.TargetConfig
}

// NewImageTarget allocates a width x height target.
func NewImageTarget(width, height int, cfg glpass.TargetConfig) *ImageTarget {
	t := &ImageTarget{cfg: cfg}
	t.SetSize(width, height)
	return t
}

// Image returns the target's pixels. The image is replaced on SetSize.
func (t *ImageTarget) Image() *image.RGBA { return t.img }

// Size implements [glpass.Target].
func (t *ImageTarget) Size() (width, height int) {
	if t.img == nil {
		return 0, 0
	}
	sz := t.img.Rect.Size()
	return sz.X, sz.Y
}

// SetSize implements [glpass.Target]. Contents are discarded.
func (t *ImageTarget) SetSize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if w, h := t.Size(); w == width && h == height {
		return
	}
	t.img = image.NewRGBA(image.Rect(0, 0, width, height))
	if t.cfg.DepthBuffer {
		t.depth = make([]float32, width*height)
		t.clearDepth()
	}
}

// Dispose implements [glpass.Target].
func (t *ImageTarget) Dispose() {
	t.img = nil
	t.depth = nil
}

// Disposed reports whether Dispose was called since the last SetSize.
func (t *ImageTarget) Disposed() bool { return t.img == nil }

func (t *ImageTarget) clearDepth() {
	for i := range t.depth {
		t.depth[i] = math.MaxFloat32
	}
}

// ImageRenderer implements [glpass.Renderer] on the CPU. A nil render target selects
// the screen target returned by [ImageRenderer.Screen].
type ImageRenderer struct {
	screen *ImageTarget
	// active is nil when the screen is selected.
	active     *ImageTarget
	clear      glpass.ClearColor
	autoClear  bool
	blending   glpass.Blending
	stencil    bool
	pixelRatio float32

	reader  ObjectTriangles
	buf     []ms3.Triangle
	sorted  []outline.Object
	colorOf map[uint64]int
	// sample holds inputs resampled to the active target size.
	sample *image.RGBA
}

// NewImageRenderer returns a renderer with a screen target of the given size.
func NewImageRenderer(width, height int) (*ImageRenderer, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid screen size")
	}
	return &ImageRenderer{
		screen:     NewImageTarget(width, height, glpass.TargetConfig{DepthBuffer: true}),
		autoClear:  true,
		pixelRatio: 1,
		clear:      glpass.ClearColor{A: 1},
	}, nil
}

// Screen returns the target selected by SetRenderTarget(nil).
func (ir *ImageRenderer) Screen() *ImageTarget { return ir.screen }

// SetPixelRatio sets the value returned by PixelRatio.
func (ir *ImageRenderer) SetPixelRatio(ratio float32) {
	if ratio > 0 {
		ir.pixelRatio = ratio
	}
}

func (ir *ImageRenderer) PixelRatio() float32 { return ir.pixelRatio }

// SetRenderTarget implements [glpass.Renderer]. Targets not created by an ImageRenderer
// are rejected with a warning and leave the active target unchanged.
func (ir *ImageRenderer) SetRenderTarget(t glpass.Target) {
	if t == nil {
		ir.active = nil
		return
	}
	it, ok := t.(*ImageTarget)
	if !ok || it == nil {
		log().Warn("glrender: foreign render target ignored")
		return
	}
	ir.active = it
}

// RenderTarget implements [glpass.Renderer].
func (ir *ImageRenderer) RenderTarget() glpass.Target {
	if ir.active == nil {
		return nil
	}
	return ir.active
}

func (ir *ImageRenderer) current() *ImageTarget {
	if ir.active == nil {
		return ir.screen
	}
	return ir.active
}

func (ir *ImageRenderer) SetClearColor(c glpass.ClearColor) { ir.clear = c }
func (ir *ImageRenderer) ClearColor() glpass.ClearColor     { return ir.clear }
func (ir *ImageRenderer) AutoClear() bool                   { return ir.autoClear }
func (ir *ImageRenderer) SetAutoClear(autoClear bool)       { ir.autoClear = autoClear }
func (ir *ImageRenderer) Blending() glpass.Blending         { return ir.blending }
func (ir *ImageRenderer) SetBlending(b glpass.Blending)     { ir.blending = b }

// StencilTest implements [glpass.Renderer]. The CPU backend has no stencil buffer and
// only tracks the flag.
func (ir *ImageRenderer) StencilTest() bool           { return ir.stencil }
func (ir *ImageRenderer) SetStencilTest(enabled bool) { ir.stencil = enabled }

// NewTarget implements [glpass.Renderer].
func (ir *ImageRenderer) NewTarget(width, height int, cfg glpass.TargetConfig) glpass.Target {
	return NewImageTarget(width, height, cfg)
}

// Clear implements [glpass.Renderer].
func (ir *ImageRenderer) Clear(color, depth, stencil bool) {
	t := ir.current()
	if t.img == nil {
		return
	}
	if color {
		c := clearRGBA(ir.clear)
		pix := t.img.Pix
		for i := 0; i < len(pix); i += 4 {
			pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	if depth {
		t.clearDepth()
	}
}

func clearRGBA(c glpass.ClearColor) color.RGBA {
	to8 := func(v float32) uint8 {
		return uint8(min(max(v, 0), 1)*255 + 0.5)
	}
	a := min(max(c.A, 0), 1)
	return color.RGBA{R: to8(c.R * a), G: to8(c.G * a), B: to8(c.B * a), A: to8(a)}
}

// premul converts a style color to a premultiplied color.
func premul(c color.NRGBA) color.RGBA {
	a := uint16(c.A)
	return color.RGBA{
		R: uint8(uint16(c.R) * a / 255),
		G: uint8(uint16(c.G) * a / 255),
		B: uint8(uint16(c.B) * a / 255),
		A: c.A,
	}
}

// blendPixel combines premultiplied src into pix[i:i+4] according to mode.
func blendPixel(pix []uint8, i int, src color.RGBA, mode glpass.Blending) {
	switch mode {
	case glpass.BlendAdditive:
		pix[i] = addSat(pix[i], src.R)
		pix[i+1] = addSat(pix[i+1], src.G)
		pix[i+2] = addSat(pix[i+2], src.B)
		pix[i+3] = addSat(pix[i+3], src.A)
	case glpass.BlendAlpha:
		inv := 255 - uint16(src.A)
		pix[i] = addSat(src.R, uint8(uint16(pix[i])*inv/255))
		pix[i+1] = addSat(src.G, uint8(uint16(pix[i+1])*inv/255))
		pix[i+2] = addSat(src.B, uint8(uint16(pix[i+2])*inv/255))
		pix[i+3] = addSat(src.A, uint8(uint16(pix[i+3])*inv/255))
	default:
		pix[i], pix[i+1], pix[i+2], pix[i+3] = src.R, src.G, src.B, src.A
	}
}

func addSat(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}
