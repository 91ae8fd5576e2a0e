package glpass

import (
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms1"
)

// BatchPalette returns n visually distinct fully saturated colors spread evenly in hue.
// Useful for telling batches apart when debugging.
func BatchPalette(n int) []color.NRGBA {
	colors := make([]color.NRGBA, n)
	for i := range colors {
		colors[i] = HSVColor(float32(i)/float32(max(n, 1)), 0.85, 1)
	}
	return colors
}

// HSVColor converts hue, saturation and brightness values on the range of 0.0 to 1.0
// to an opaque color. Inputs outside the range are clamped.
func HSVColor(h, s, v float32) color.NRGBA {
	c := rgbToC(hsvToRGB(ms1.Clamp(h, 0, 1), ms1.Clamp(s, 0, 1), ms1.Clamp(v, 0, 1)))
	return color.NRGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 255}
}

// IDColor encodes a 24 bit object id as an opaque color. Id 0 is black, the background.
func IDColor(id uint32) color.NRGBA {
	return color.NRGBA{R: uint8(id >> 16), G: uint8(id >> 8), B: uint8(id), A: 255}
}

// ColorID is the inverse of [IDColor].
func ColorID(c color.NRGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// rgbToC converts r, g, and b values on the range of 0.0 to 1.0 to a
// 24 bit RGB value stored in the least significant bits of a uint32.
func rgbToC(r, g, b float32) (c uint32) {
	return uint32(ms1.Clamp(r, 0, 1)*math.MaxUint8)<<16 |
		uint32(ms1.Clamp(g, 0, 1)*math.MaxUint8)<<8 |
		uint32(ms1.Clamp(b, 0, 1)*math.MaxUint8)
}

// hsvToRGB converts hue, saturation and brightness values on the range of 0.0
// to 1.0 to RGB values on the range of 0.0 to 1.0.
func hsvToRGB(h, s, v float32) (r, g, b float32) {
	c := s * v
	x := c * (1 - math.Abs(math.Mod(h*6, 2)-1))
	m := v - c
	switch int(h * 6) {
	case 0, 6:
		r, g, b = c, x, 0
	case 1:
		r, g, b = x, c, 0
	case 2:
		r, g, b = 0, c, x
	case 3:
		r, g, b = 0, x, c
	case 4:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}
