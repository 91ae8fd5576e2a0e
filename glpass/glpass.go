// Package glpass implements a multi-object outline post-processing pass. Selected objects
// are split into batches with the outline package's partitioner, each batch is outlined into
// a scratch target and additively accumulated, and the result is composited over the frame.
//
// The pass drives a [Renderer] backend and never implements edge detection itself.
// Backends live in the glrender (CPU) and glgpu (OpenGL) packages.
package glpass

import (
	"image/color"
	"log/slog"
	"sync/atomic"

	"github.com/soypat/outline"
)

// Blending selects how drawn fragments combine with the active target.
type Blending uint8

const (
	// BlendNone overwrites destination pixels.
	BlendNone Blending = iota
	// BlendAdditive adds source to destination, saturating.
	BlendAdditive
	// BlendAlpha composites source over destination.
	BlendAlpha
)

// QuadProgram selects a full-screen fragment program.
type QuadProgram uint8

const (
	// QuadCopy samples the first input.
	QuadCopy QuadProgram = iota
	// QuadMaskEdge draws Style.Color where the first input's coverage mask changes
	// within Style.Thickness pixels.
	QuadMaskEdge
	// QuadIDEdge runs a Sobel filter over the first input's colors and draws
	// Style.Color where ids differ.
	QuadIDEdge
)

func (q QuadProgram) String() string {
	switch q {
	case QuadCopy:
		return "copy"
	case QuadMaskEdge:
		return "mask-edge"
	case QuadIDEdge:
		return "id-edge"
	}
	return "unknown"
}

// ClearColor is a linear RGBA clear value in [0,1].
type ClearColor struct {
	R, G, B, A float32
}

// TargetConfig configures optional attachments of a render target.
type TargetConfig struct {
	DepthBuffer   bool
	StencilBuffer bool
}

// Target is an off-screen color render target.
type Target interface {
	Size() (width, height int)
	SetSize(width, height int)
	// Dispose releases the target's resources. Calling Dispose more than once is allowed.
	Dispose()
}

// Style is the appearance of a drawn outline.
type Style struct {
	Color     color.NRGBA
	Thickness int
}

// DrawParams chooses how [Renderer.Draw] shades objects.
type DrawParams struct {
	// Colors holds one flat color per object.
	Colors []color.NRGBA
	// SurfaceIDs shades with each vertex's surface id from Geometry.Colors normalized
	// by MaxID into the red channel. Colors is ignored when set.
	SurfaceIDs bool
	MaxID      uint32
}

// Renderer is the capability set the pass needs from a rendering backend.
// Renderer state is shared with the host; the pass restores everything it changes.
type Renderer interface {
	// SetRenderTarget makes t the active target. nil selects the screen.
	SetRenderTarget(t Target)
	RenderTarget() Target
	Clear(color, depth, stencil bool)
	SetClearColor(c ClearColor)
	ClearColor() ClearColor
	// AutoClear reports whether Draw clears the active target before drawing.
	AutoClear() bool
	SetAutoClear(autoClear bool)
	Blending() Blending
	SetBlending(b Blending)
	StencilTest() bool
	SetStencilTest(enabled bool)
	PixelRatio() float32
	NewTarget(width, height int, cfg TargetConfig) Target
	// Draw rasterizes objs as seen by cam into the active target with flat shading.
	Draw(objs []outline.Object, cam outline.Camera, p DrawParams)
	// DrawQuad runs prog over the whole active target, sampling inputs scaled to fit.
	DrawQuad(prog QuadProgram, style Style, inputs ...Target)
}

// rendererState is the renderer state the pass mutates.
type rendererState struct {
	target    Target
	clear     ClearColor
	autoClear bool
	blending  Blending
	stencil   bool
}

func saveState(r Renderer) rendererState {
	return rendererState{
		target:    r.RenderTarget(),
		clear:     r.ClearColor(),
		autoClear: r.AutoClear(),
		blending:  r.Blending(),
		stencil:   r.StencilTest(),
	}
}

func (s rendererState) restore(r Renderer) {
	r.SetRenderTarget(s.target)
	r.SetClearColor(s.clear)
	r.SetAutoClear(s.autoClear)
	r.SetBlending(s.blending)
	r.SetStencilTest(s.stencil)
}

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

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
