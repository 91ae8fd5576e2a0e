package outlineaux

import (
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
	"github.com/soypat/outline"
	"github.com/soypat/outline/glpass"
)

// Hue interpolation in this file follows Esme Lamb's (@dedelala) color work
// presented at Gophercon AU 2024.
// https://github.com/dedelala/disco/tree/main/color

var (
	nearShade = color.NRGBA{R: 150, G: 160, B: 190, A: 255}
	farShade  = color.NRGBA{R: 40, G: 45, B: 70, A: 255}
)

// DepthShades returns one fill color per object. Objects with an explicit box color keep
// it, the rest are shaded from near to far by the distance of their world box center
// to the camera eye so overlapping boxes stay distinguishable.
func (s *Scene) DepthShades(objs []outline.Object) []color.NRGBA {
	eye := vec(s.Camera.Eye)
	dists := make([]float32, len(objs))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, obj := range objs {
		bb, ok := outline.WorldBox(obj)
		if !ok {
			continue
		}
		dists[i] = ms3.Norm(ms3.Sub(bb.Center(), eye))
		lo = min(lo, dists[i])
		hi = max(hi, dists[i])
	}
	if lo > hi {
		lo, hi = 0, 0 // No object has geometry.
	}
	conv := ColorConversionLinearGradient(max(hi-lo, 1e-3), nearShade, farShade)
	mid := (lo + hi) / 2
	colors := make([]color.NRGBA, len(objs))
	for i, obj := range objs {
		colors[i] = conv(dists[i] - mid)
		if c, ok := s.boxColor(obj); ok {
			colors[i] = c
		}
	}
	return colors
}

func (s *Scene) boxColor(obj outline.Object) (color.NRGBA, bool) {
	for i, n := range s.Nodes() {
		if outline.Object(n) == obj && s.Boxes[i].Color != "" {
			c, err := ParseHexColor(s.Boxes[i].Color)
			return c, err == nil
		}
	}
	return color.NRGBA{}, false
}

// ColorConversionLinearGradient creates a color conversion function that creates a gradient centered
// along d=0 that extends gradientLength. Hue is interpolated along the shortest arc.
func ColorConversionLinearGradient(gradientLength float32, c0, c1 color.NRGBA) func(d float32) color.NRGBA {
	h0, s0, v0 := colorToHSV(c0)
	h1, s1, v1 := colorToHSV(c1)
	return func(d float32) color.NRGBA {
		blend := d/gradientLength + 0.5
		if blend <= 0 {
			return c0
		} else if blend >= 1 {
			return c1
		}
		c := glpass.HSVColor(interpHSV(h0, s0, v0, h1, s1, v1, blend))
		c.A = uint8(ms1.Interp(float32(c0.A), float32(c1.A), blend))
		return c
	}
}

func interpHSV(h0, s0, v0, h1, s1, v1, t float32) (h, s, v float32) {
	switch {
	case h1-h0 > 0.5:
		h0 += 1.0
	case h1-h0 < -0.5:
		h1 += 1.0
	}
	h = ms1.Interp(h0, h1, t)
	if h > 1 {
		h -= 1
	}
	s = ms1.Interp(s0, s1, t)
	v = ms1.Interp(v0, v1, t)
	return h, s, v
}

func colorToHSV(c color.NRGBA) (h, s, v float32) {
	return rgbToHSV(float32(c.R)/math.MaxUint8, float32(c.G)/math.MaxUint8, float32(c.B)/math.MaxUint8)
}

// rgbToHSV converts red, green, and blue values on the range 0.0 to 1.0 to hue,
// saturation and brightness values on the range 0.0 to 1.0.
func rgbToHSV(r, g, b float32) (h, s, v float32) {
	xmax := max(r, g, b)
	c := xmax - min(r, g, b)
	v = xmax
	switch {
	case c == 0:
		h = 0
	case v == r:
		h = (g - b) / (c * 6)
	case v == g:
		h = 1.0/3 + (b-r)/(c*6)
	default:
		h = 2.0/3 + (r-g)/(c*6)
	}
	if h < 0 {
		h += 1
	}
	if xmax > 0 {
		s = c / xmax
	}
	return h, s, v
}
