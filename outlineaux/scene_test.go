package outlineaux

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soypat/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tomlScene = `
width = 64
height = 48
edge_color = "#ff0000"

[camera]
eye = [0, 0, 50]
width = 8
height = 6
depth = 100

[pass]
max_batches = 2
debug_batches = true

[[boxes]]
name = "a"
min = [-1, -1, -1]
max = [1, 1, 1]
selected = true

[[boxes]]
name = "b"
min = [0, 0, 0]
max = [1, 1, 1]
offset = [2, 0, 0]
color = "#00ff0080"
hidden = true
`

const yamlScene = `
width: 64
height: 48
edge_color: "#ff0000"
camera:
  eye: [0, 0, 50]
  width: 8
  height: 6
  depth: 100
pass:
  max_batches: 2
  debug_batches: true
boxes:
  - name: a
    min: [-1, -1, -1]
    max: [1, 1, 1]
    selected: true
  - name: b
    min: [0, 0, 0]
    max: [1, 1, 1]
    offset: [2, 0, 0]
    color: "#00ff0080"
    hidden: true
`

func TestLoadScene(t *testing.T) {
	for _, test := range []struct {
		name   string
		format Format
		doc    string
	}{
		{"toml", FormatTOML, tomlScene},
		{"yaml", FormatYAML, yamlScene},
	} {
		t.Run(test.name, func(t *testing.T) {
			s, err := LoadScene(strings.NewReader(test.doc), test.format)
			require.NoError(t, err)
			assert.Equal(t, 64, s.Width)
			assert.Equal(t, 48, s.Height)
			assert.Equal(t, float32(8), s.Camera.Width)
			assert.Equal(t, 2, s.Pass.MaxBatches)
			assert.True(t, s.Pass.DebugBatches)
			// Unspecified pass fields keep their defaults.
			assert.Equal(t, 50, s.Pass.MaxObjects)
			assert.Equal(t, float32(0.15), s.Pass.RiskThreshold)
			assert.Equal(t, color.NRGBA{R: 255, A: 255}, s.Pass.EdgeColor)

			require.Len(t, s.Boxes, 2)
			assert.Equal(t, [3]float32{2, 0, 0}, s.Boxes[1].Offset)
			objs := s.Objects()
			require.Len(t, objs, 2)
			assert.True(t, objs[0].Visible())
			assert.False(t, objs[1].Visible())
			sel := s.Selection()
			require.Len(t, sel, 1)
			assert.Equal(t, objs[0].ID(), sel[0].ID())

			bb, ok := outline.WorldBox(objs[1])
			require.True(t, ok)
			assert.Equal(t, float32(2), bb.Min.X)
			assert.Equal(t, float32(3), bb.Max.X)
		})
	}
}

func TestLoadSceneErrors(t *testing.T) {
	_, err := LoadScene(strings.NewReader("widht = 3\n"), FormatTOML)
	assert.Error(t, err, "unknown field")
	_, err = LoadScene(strings.NewReader("widht: 3\n"), FormatYAML)
	assert.Error(t, err, "unknown field")

	_, err = LoadScene(strings.NewReader(`
width = -1
edge_color = "red"
[[boxes]]
min = [1, 1, 1]
max = [0, 0, 0]
`), FormatTOML)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "image size")
	assert.Contains(t, msg, `"red"`)
	assert.Contains(t, msg, "min must be less than max")

	_, err = LoadScene(strings.NewReader("[pass]\nmax_objects = 0\n"), FormatTOML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxObjects")

	s, err := LoadScene(strings.NewReader(""), FormatYAML)
	require.NoError(t, err, "empty document keeps defaults")
	assert.Equal(t, 800, s.Width)
}

func TestLoadSceneFile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "scene.yml")
	require.NoError(t, os.WriteFile(filename, []byte(yamlScene), 0o644))
	s, err := LoadSceneFile(filename)
	require.NoError(t, err)
	assert.Len(t, s.Boxes, 2)

	_, err = LoadSceneFile(filepath.Join(dir, "scene.json"))
	assert.Error(t, err)
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#10203040")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, c)
	c, err = ParseHexColor("#abcdef")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xab, G: 0xcd, B: 0xef, A: 0xff}, c)
	for _, bad := range []string{"", "abcdef", "#abc", "#gg0000"} {
		_, err = ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestPickAndToggle(t *testing.T) {
	s, err := LoadScene(strings.NewReader(tomlScene), FormatTOML)
	require.NoError(t, err)
	s.Boxes[1].Hidden = false
	s.nodes = nil
	cam := s.OrthoCamera()
	// 64x48 view of an 8x6 window: 8 pixels per unit, origin at pixel (32, 24).
	n := s.Pick(cam, 32, 24, s.Width, s.Height)
	require.NotNil(t, n)
	assert.Equal(t, "a", n.Name)
	n = s.Pick(cam, 32+8*2.5, 24-4, s.Width, s.Height)
	require.NotNil(t, n)
	assert.Equal(t, "b", n.Name)
	assert.Nil(t, s.Pick(cam, 1, 1, s.Width, s.Height))

	require.True(t, s.Toggle(n))
	assert.Len(t, s.Selection(), 2)
	assert.False(t, s.Toggle(outline.NewNode("stranger", nil)))
}

func TestDepthShades(t *testing.T) {
	s := NewScene()
	s.Boxes = []BoxDesc{
		{Name: "near", Min: [3]float32{-1, -1, 5}, Max: [3]float32{1, 1, 6}},
		{Name: "far", Min: [3]float32{-1, -1, -6}, Max: [3]float32{1, 1, -5}},
		{Name: "painted", Min: [3]float32{-1, -1, 0}, Max: [3]float32{1, 1, 1}, Color: "#123456"},
	}
	shades := s.DepthShades(s.Objects())
	require.Len(t, shades, 3)
	assert.Equal(t, nearShade, shades[0])
	assert.Equal(t, farShade, shades[1])
	assert.Equal(t, color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}, shades[2])
}

func TestLinearGradient(t *testing.T) {
	conv := ColorConversionLinearGradient(10, color.NRGBA{R: 255, A: 255}, color.NRGBA{B: 255, A: 255})
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, conv(-6))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, conv(6))
	mid := conv(0)
	// Red to blue through the short hue arc passes magenta.
	assert.Greater(t, mid.R, uint8(100))
	assert.Greater(t, mid.B, uint8(100))
	assert.Less(t, mid.G, uint8(20))
}
