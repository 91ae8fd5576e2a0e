package glrender

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/soypat/outline/glpass"
	"golang.org/x/image/draw"
)

// idEdgeThreshold is the Sobel gradient magnitude above which the id edge program
// draws an edge. Gradients are computed on channels normalized to [0,1].
const idEdgeThreshold = 0.1

// DrawQuad implements [glpass.Renderer]. The first input is resampled to the active
// target's size: bilinearly for copy and mask programs and nearest neighbor for ids.
func (ir *ImageRenderer) DrawQuad(prog glpass.QuadProgram, style glpass.Style, inputs ...glpass.Target) {
	dst := ir.current()
	if dst.img == nil || len(inputs) == 0 {
		return
	}
	in, ok := inputs[0].(*ImageTarget)
	if !ok || in == nil || in.img == nil {
		log().Warn("glrender: quad input is not a live image target", "program", prog.String())
		return
	}
	interp := draw.Interpolator(draw.ApproxBiLinear)
	if prog == glpass.QuadIDEdge {
		interp = draw.NearestNeighbor
	}
	src := ir.resampled(in, dst, interp)
	switch prog {
	case glpass.QuadCopy:
		ir.copyQuad(dst.img, src)
	case glpass.QuadMaskEdge:
		ir.maskEdgeQuad(dst.img, src, style)
	case glpass.QuadIDEdge:
		ir.idEdgeQuad(dst.img, src, style)
	default:
		log().Warn("glrender: unknown quad program", "program", prog.String())
	}
}

// resampled returns in's pixels at dst's size. The result may alias ir.sample.
func (ir *ImageRenderer) resampled(in, dst *ImageTarget, interp draw.Interpolator) *image.RGBA {
	rect := dst.img.Rect
	if in != dst && in.img.Rect.Eq(rect) {
		return in.img
	}
	if ir.sample == nil || !ir.sample.Rect.Eq(rect) {
		ir.sample = image.NewRGBA(rect)
	}
	if in.img.Rect.Eq(rect) {
		draw.Draw(ir.sample, rect, in.img, image.Point{}, draw.Src)
	} else {
		interp.Scale(ir.sample, rect, in.img, in.img.Rect, draw.Src, nil)
	}
	return ir.sample
}

func (ir *ImageRenderer) copyQuad(dst, src *image.RGBA) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := src.PixOffset(x, y)
			c := color.RGBA{R: src.Pix[si], G: src.Pix[si+1], B: src.Pix[si+2], A: src.Pix[si+3]}
			blendPixel(dst.Pix, dst.PixOffset(x, y), c, ir.blending)
		}
	}
}

// maskEdgeQuad draws style's color on uncovered pixels within Thickness pixels of a
// covered pixel of the mask src.
func (ir *ImageRenderer) maskEdgeQuad(dst, src *image.RGBA, style glpass.Style) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	r := max(style.Thickness, 1)
	covered := func(x, y int) bool {
		return src.Pix[src.PixOffset(x, y)+3] >= 128
	}
	edgeColor := premul(style.Color)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var c color.RGBA
			if !covered(x, y) && nearCovered(covered, x, y, r, w, h) {
				c = edgeColor
			}
			blendPixel(dst.Pix, dst.PixOffset(x, y), c, ir.blending)
		}
	}
}

func nearCovered(covered func(x, y int) bool, x, y, r, w, h int) bool {
	for yy := max(y-r, 0); yy <= min(y+r, h-1); yy++ {
		for xx := max(x-r, 0); xx <= min(x+r, w-1); xx++ {
			if covered(xx, yy) {
				return true
			}
		}
	}
	return false
}

// idEdgeQuad runs a 3x3 Sobel filter over every channel of src and draws
// style's color where the largest gradient exceeds idEdgeThreshold.
func (ir *ImageRenderer) idEdgeQuad(dst, src *image.RGBA, style glpass.Style) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	edgeColor := premul(style.Color)
	sample := func(x, y, ch int) float32 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return float32(src.Pix[src.PixOffset(x, y)+ch]) / 255
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var grad float32
			for ch := 0; ch < 4; ch++ {
				tl, t, tr := sample(x-1, y-1, ch), sample(x, y-1, ch), sample(x+1, y-1, ch)
				l, r := sample(x-1, y, ch), sample(x+1, y, ch)
				bl, b, br := sample(x-1, y+1, ch), sample(x, y+1, ch), sample(x+1, y+1, ch)
				gx := -tl - 2*l - bl + tr + 2*r + br
				gy := -tl - 2*t - tr + bl + 2*b + br
				grad = max(grad, math32.Hypot(gx, gy))
			}
			var c color.RGBA
			if grad > idEdgeThreshold {
				c = edgeColor
			}
			blendPixel(dst.Pix, dst.PixOffset(x, y), c, ir.blending)
		}
	}
}
