package outlineaux

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/outline"
	"github.com/soypat/outline/glpass"
	"gopkg.in/yaml.v3"
)

// Format is a scene description encoding.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// CameraDesc describes an orthographic camera looking down -Z.
type CameraDesc struct {
	Eye    [3]float32 `toml:"eye" yaml:"eye"`
	Width  float32    `toml:"width" yaml:"width"`
	Height float32    `toml:"height" yaml:"height"`
	Depth  float32    `toml:"depth" yaml:"depth"`
}

// BoxDesc describes an axis aligned box object. Offset translates the box in world space.
type BoxDesc struct {
	Name     string     `toml:"name" yaml:"name"`
	Min      [3]float32 `toml:"min" yaml:"min"`
	Max      [3]float32 `toml:"max" yaml:"max"`
	Offset   [3]float32 `toml:"offset" yaml:"offset"`
	Color    string     `toml:"color" yaml:"color"`
	Hidden   bool       `toml:"hidden" yaml:"hidden"`
	Selected bool       `toml:"selected" yaml:"selected"`
}

// Scene is a small box scene with an outline pass configuration, loadable from
// TOML or YAML. Use [NewScene] for defaults.
type Scene struct {
	Width      int           `toml:"width" yaml:"width"`
	Height     int           `toml:"height" yaml:"height"`
	Background string        `toml:"background" yaml:"background"`
	EdgeColor  string        `toml:"edge_color" yaml:"edge_color"`
	Camera     CameraDesc    `toml:"camera" yaml:"camera"`
	Pass       glpass.Config `toml:"pass" yaml:"pass"`
	Boxes      []BoxDesc     `toml:"boxes" yaml:"boxes"`

	nodes []*outline.Node
}

// NewScene returns an empty scene with default image size, camera and pass configuration.
func NewScene() *Scene {
	return &Scene{
		Width:      800,
		Height:     600,
		Background: "#000000",
		EdgeColor:  "#ffffff",
		Camera:     CameraDesc{Eye: [3]float32{0, 0, 50}, Width: 20, Height: 15, Depth: 100},
		Pass:       glpass.DefaultConfig(),
	}
}

// LoadSceneFile loads a scene from a file. The format is chosen by extension:
// .toml, .yaml or .yml.
func LoadSceneFile(filename string) (*Scene, error) {
	var format Format
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		format = FormatTOML
	case ".yaml", ".yml":
		format = FormatYAML
	default:
		return nil, fmt.Errorf("unknown scene file extension %q", filepath.Ext(filename))
	}
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return LoadScene(fp, format)
}

// LoadScene decodes and validates a scene. Unknown fields are an error. Fields
// absent in the document keep their [NewScene] defaults.
func LoadScene(r io.Reader, format Format) (*Scene, error) {
	s := NewScene()
	var err error
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(s)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(s)
		if errors.Is(err, io.EOF) {
			err = nil // Empty document.
		}
	default:
		return nil, fmt.Errorf("unknown scene format %d", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding scene: %w", err)
	}
	if err = s.Validate(); err != nil {
		return nil, err
	}
	edge, _ := ParseHexColor(s.EdgeColor)
	s.Pass.EdgeColor = edge
	return s, nil
}

// Validate reports every invalid field of the scene.
func (s *Scene) Validate() error {
	var errs []error
	if s.Width <= 0 || s.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid image size %dx%d", s.Width, s.Height))
	}
	if s.Camera.Width <= 0 || s.Camera.Height <= 0 || s.Camera.Depth <= 0 {
		errs = append(errs, errors.New("camera width, height and depth must be positive"))
	}
	for _, c := range []string{s.Background, s.EdgeColor} {
		if _, err := ParseHexColor(c); err != nil {
			errs = append(errs, err)
		}
	}
	for i, b := range s.Boxes {
		if b.Min[0] >= b.Max[0] || b.Min[1] >= b.Max[1] || b.Min[2] >= b.Max[2] {
			errs = append(errs, fmt.Errorf("box %d %q: min must be less than max", i, b.Name))
		}
		if b.Color != "" {
			if _, err := ParseHexColor(b.Color); err != nil {
				errs = append(errs, fmt.Errorf("box %d %q: %w", i, b.Name, err))
			}
		}
	}
	if err := s.Pass.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pass: %w", err))
	}
	return errors.Join(errs...)
}

// Nodes returns the scene's box nodes, built on first call. Node identities are stable
// across calls so batch caching works on repeated renders.
func (s *Scene) Nodes() []*outline.Node {
	if s.nodes != nil {
		return s.nodes
	}
	s.nodes = make([]*outline.Node, len(s.Boxes))
	for i, b := range s.Boxes {
		bb := ms3.Box{Min: vec(b.Min), Max: vec(b.Max)}
		n := outline.NewNode(b.Name, outline.NewBoxGeometry(bb))
		n.Hidden = b.Hidden
		if b.Offset != [3]float32{} {
			n.Transform = outline.TranslatingMat4(vec(b.Offset))
		}
		s.nodes[i] = n
	}
	return s.nodes
}

// Objects returns every node of the scene.
func (s *Scene) Objects() []outline.Object {
	nodes := s.Nodes()
	objs := make([]outline.Object, len(nodes))
	for i, n := range nodes {
		objs[i] = n
	}
	return objs
}

// Selection returns the nodes of boxes marked as selected.
func (s *Scene) Selection() []outline.Object {
	var sel []outline.Object
	for i, n := range s.Nodes() {
		if s.Boxes[i].Selected {
			sel = append(sel, n)
		}
	}
	return sel
}

// Toggle flips the selected flag of node n. It reports false if n is not part of the scene.
func (s *Scene) Toggle(n *outline.Node) bool {
	for i, sn := range s.Nodes() {
		if sn == n {
			s.Boxes[i].Selected = !s.Boxes[i].Selected
			return true
		}
	}
	return false
}

// OrthoCamera returns the scene camera.
func (s *Scene) OrthoCamera() *outline.OrthoCamera {
	c := s.Camera
	return outline.NewOrthoCamera(vec(c.Eye), c.Width, c.Height, c.Depth)
}

func vec(v [3]float32) ms3.Vec { return ms3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// ParseHexColor parses colors of the form #rrggbb or #rrggbbaa.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return color.NRGBA{}, fmt.Errorf("invalid color %q, want #rrggbb or #rrggbbaa", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Pick returns the visible node nearest to the camera under pixel (px, py) of a
// width x height view of cam, or nil if there is none.
func (s *Scene) Pick(cam *outline.OrthoCamera, px, py float32, width, height int) *outline.Node {
	if width <= 0 || height <= 0 {
		return nil
	}
	x := cam.Eye.X + cam.Left + px/float32(width)*(cam.Right-cam.Left)
	y := cam.Eye.Y + cam.Top - py/float32(height)*(cam.Top-cam.Bottom)
	var best *outline.Node
	var bestZ float32
	for _, n := range s.Nodes() {
		if !n.Visible() {
			continue
		}
		bb, ok := outline.WorldBox(n)
		if !ok || x < bb.Min.X || x > bb.Max.X || y < bb.Min.Y || y > bb.Max.Y {
			continue
		}
		if best == nil || bb.Max.Z > bestZ {
			best, bestZ = n, bb.Max.Z
		}
	}
	return best
}
