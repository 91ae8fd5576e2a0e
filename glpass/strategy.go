package glpass

import (
	"github.com/soypat/outline"
)

// Frame is the per-frame input handed to a [Strategy].
type Frame struct {
	// Objects are the visible selected objects. There are always at least two.
	Objects []outline.Object
	Camera  outline.Camera
	// Read is the target holding the rendered scene. Outlines are composited onto it.
	Read Target
	// Width and Height are the output size. Scale is the internal render scale.
	Width, Height int
	Scale         float32
	Style         Style
}

// Strategy is a way of outlining many objects at once. Strategies own their
// resources and keep no state in common with each other.
type Strategy interface {
	// Name identifies the strategy in [Stats].
	Name() string
	// Render composites the outlines of f.Objects onto f.Read.
	Render(r Renderer, f *Frame)
	// SetSize resizes already allocated internal targets to the given output size.
	SetSize(width, height int, scale float32)
	// InvalidateCache drops any memoized per-selection work.
	InvalidateCache()
	// Batches returns the number of sub-passes used by the last Render.
	Batches() int
	// CacheAge returns the age in frames of the cached work used by the last Render.
	CacheAge() int
	Dispose()
}
