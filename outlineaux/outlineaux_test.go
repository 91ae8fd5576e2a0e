package outlineaux

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// overlapScene has two selected overlapping boxes. The camera maps 8 pixels per unit
// with the origin at pixel (32, 24).
const overlapScene = `
width = 64
height = 48

[camera]
eye = [0, 0, 50]
width = 8
height = 6
depth = 100

[[boxes]]
name = "left"
min = [-2, -1, -1]
max = [0.5, 1, 1]
selected = true

[[boxes]]
name = "right"
min = [-0.5, -1, 0]
max = [2, 1, 2]
selected = true
`

func loadOverlap(t *testing.T) *Scene {
	t.Helper()
	s, err := LoadScene(strings.NewReader(overlapScene), FormatTOML)
	require.NoError(t, err)
	return s
}

func TestRenderImage(t *testing.T) {
	s := loadOverlap(t)
	img, stats, err := RenderImage(s)
	require.NoError(t, err)
	assert.Equal(t, "batched", stats.Strategy)
	assert.Equal(t, 2, stats.Batches)
	assert.Equal(t, 2, stats.Objects)

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	// Right box covers pixels 28..47 in X and is drawn in front. The left box edge at
	// x=0.5 lies inside it, at pixel 36, and is outlined in its own batch.
	assert.Equal(t, white, img.RGBAAt(36, 24), "left box edge inside right box")
	assert.Equal(t, white, img.RGBAAt(15, 24), "outer edge")
	assert.Equal(t, white, img.RGBAAt(48, 24), "outer edge")
	assert.NotEqual(t, white, img.RGBAAt(40, 24))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(2, 2), "background")
}

func TestRenderOutputs(t *testing.T) {
	s := loadOverlap(t)
	var pngBuf, webpBuf bytes.Buffer
	stats, err := Render(s, RenderConfig{PNGOutput: &pngBuf, WebPOutput: &webpBuf, Silent: true})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Batches)

	img, err := png.Decode(&pngBuf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())

	b := webpBuf.Bytes()
	require.Greater(t, len(b), 12)
	assert.Equal(t, "RIFF", string(b[:4]))
	assert.Equal(t, "WEBP", string(b[8:12]))

	_, err = Render(s, RenderConfig{})
	assert.Error(t, err, "no outputs")
}

func TestDrawStats(t *testing.T) {
	s := loadOverlap(t)
	img, stats, err := RenderImage(s)
	require.NoError(t, err)
	before := image.NewRGBA(img.Bounds())
	copy(before.Pix, img.Pix)
	DrawStats(img, stats)
	region := image.Rect(0, 0, 64, 16)
	changed := 0
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			if img.RGBAAt(x, y) != before.RGBAAt(x, y) {
				changed++
			}
		}
	}
	assert.Greater(t, changed, 10, "overlay text drawn in the top left corner")
	assert.Equal(t, before.RGBAAt(2, 40), img.RGBAAt(2, 40), "no text below the overlay")
}
