//go:build tinygo || !cgo

package glgpu

import (
	"errors"
	"image"

	"github.com/soypat/outline"
	"github.com/soypat/outline/glpass"
)

var errNoCGO = errors.New("OpenGL rendering requires CGo and is not supported on TinyGo")

func Init1x1GLFW() (terminate func(), err error) {
	return nil, errNoCGO
}

// NewRenderer returns an error, OpenGL requires cgo.
func NewRenderer(width, height int) (*Renderer, error) {
	return nil, errNoCGO
}

type Target struct{}

func (t *Target) Size() (width, height int) { return 0, 0 }
func (t *Target) SetSize(width, height int) {}
func (t *Target) Dispose()                  {}

type Renderer struct{}

func (r *Renderer) SetScreenSize(width, height int)                                     {}
func (r *Renderer) SetPixelRatio(ratio float32)                                         {}
func (r *Renderer) PixelRatio() float32                                                 { return 1 }
func (r *Renderer) SetRenderTarget(t glpass.Target)                                     {}
func (r *Renderer) RenderTarget() glpass.Target                                         { return nil }
func (r *Renderer) Clear(color, depth, stencil bool)                                    {}
func (r *Renderer) SetClearColor(c glpass.ClearColor)                                   {}
func (r *Renderer) ClearColor() glpass.ClearColor                                       { return glpass.ClearColor{} }
func (r *Renderer) AutoClear() bool                                                     { return false }
func (r *Renderer) SetAutoClear(autoClear bool)                                         {}
func (r *Renderer) Blending() glpass.Blending                                           { return glpass.BlendNone }
func (r *Renderer) SetBlending(b glpass.Blending)                                       {}
func (r *Renderer) StencilTest() bool                                                   { return false }
func (r *Renderer) SetStencilTest(enabled bool)                                         {}
func (r *Renderer) NewTarget(w, h int, cfg glpass.TargetConfig) glpass.Target           { return &Target{} }
func (r *Renderer) Draw(objs []outline.Object, cam outline.Camera, p glpass.DrawParams) {}
func (r *Renderer) DrawQuad(prog glpass.QuadProgram, style glpass.Style, inputs ...glpass.Target) {
}
func (r *Renderer) ReadPixels(t glpass.Target) (*image.RGBA, error) { return nil, errNoCGO }
func (r *Renderer) Dispose()                                        {}
