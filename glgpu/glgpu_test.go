package glgpu

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func translation(x, y, z float32) [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

func TestMulMat4(t *testing.T) {
	a := translation(1, 0, 0)
	b := translation(0, 2, -3)
	got := mulMat4(&a, &b)
	assert.Equal(t, translation(1, 2, -3), got)

	scale := [16]float32{2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 1}
	got = mulMat4(&scale, &b)
	// Scaling after translating scales the offset too.
	assert.Equal(t, [3]float32{0, 4, -6}, [3]float32{got[12], got[13], got[14]})
	assert.Equal(t, float32(2), got[0])
}

func TestPremulF(t *testing.T) {
	r, g, b, a := premulF(color.NRGBA{R: 255, G: 0, B: 255, A: 0})
	assert.Zero(t, r+g+b+a)
	r, g, b, a = premulF(color.NRGBA{R: 255, G: 51, A: 255})
	assert.Equal(t, float32(1), r)
	assert.InDelta(t, 0.2, g, 1e-6)
	assert.Zero(t, b)
	assert.Equal(t, float32(1), a)
}

func TestFlipRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	for y := 0; y < 3; y++ {
		img.SetRGBA(0, y, color.RGBA{R: uint8(y), A: 255})
	}
	flipRows(img)
	for y := 0; y < 3; y++ {
		assert.EqualValues(t, 2-y, img.RGBAAt(0, y).R)
	}
}
