// Package glgpu implements the glpass outline backend on OpenGL 4.6 using framebuffer
// objects for render targets and the programs written by glbuild. It requires cgo and a
// current GL context on the calling OS thread.
package glgpu

import (
	"image"
	"image/color"
	"log/slog"
	"sync/atomic"

	"github.com/soypat/outline/glpass"
)

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

// mulMat4 returns a*b for column major 4x4 matrices.
func mulMat4(a, b *[16]float32) (out [16]float32) {
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+r] * b[c*4+k]
			}
			out[c*4+r] = sum
		}
	}
	return out
}

// premulF returns c as premultiplied normalized components.
func premulF(c color.NRGBA) (r, g, b, a float32) {
	a = float32(c.A) / 255
	return float32(c.R) / 255 * a, float32(c.G) / 255 * a, float32(c.B) / 255 * a, a
}

func objectColor(p glpass.DrawParams, i int) color.NRGBA {
	if i < len(p.Colors) {
		return p.Colors[i]
	}
	return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
}

// flipRows flips img vertically in place. GL reads pixels bottom row first.
func flipRows(img *image.RGBA) {
	h := img.Rect.Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bot := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bot)
		copy(bot, row)
	}
}

var _ glpass.Renderer = (*Renderer)(nil)
var _ glpass.Target = (*Target)(nil)
