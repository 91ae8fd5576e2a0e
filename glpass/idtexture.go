package glpass

import (
	"image/color"

	"github.com/soypat/outline"
)

// IDStrategy draws every object once into an id target with a unique flat color and
// runs a single Sobel edge pass over it. Objects of a frame all share one sub-pass,
// so touching objects stay separated by their differing ids rather than by batching.
type IDStrategy struct {
	cfg    *Config
	target Target
	alloc  Renderer
	w, h   int
	colors []color.NRGBA

	gen outline.SurfaceIDGenerator
	// surfaced records geometries that already carry surface ids.
	surfaced map[*outline.Geometry]bool
}

// NewIDStrategy returns an id-texture strategy configured by cfg.
func NewIDStrategy(cfg *Config) *IDStrategy {
	return &IDStrategy{cfg: cfg}
}

func (is *IDStrategy) Name() string { return "id-texture" }

// Render implements [Strategy].
func (is *IDStrategy) Render(r Renderer, f *Frame) {
	w, h := scaled(f.Width, f.Height, f.Scale)
	is.ensure(r, w, h)

	r.SetRenderTarget(is.target)
	r.SetBlending(BlendNone)
	r.SetClearColor(ClearColor{})
	r.Clear(true, true, false)
	if is.cfg.SurfaceIDs {
		is.prepareSurfaces(f.Objects)
		r.Draw(f.Objects, f.Camera, DrawParams{SurfaceIDs: true, MaxID: is.gen.MaxID()})
	} else {
		is.colors = is.colors[:0]
		for i := range f.Objects {
			is.colors = append(is.colors, IDColor(spreadID(uint32(i+1))))
		}
		r.Draw(f.Objects, f.Camera, DrawParams{Colors: is.colors})
	}

	r.SetRenderTarget(f.Read)
	r.SetBlending(BlendAlpha)
	r.DrawQuad(QuadIDEdge, f.Style, is.target)
}

func (is *IDStrategy) prepareSurfaces(objs []outline.Object) {
	if is.surfaced == nil {
		is.surfaced = make(map[*outline.Geometry]bool)
	}
	mode := outline.SurfaceSingle
	if is.cfg.SplitSurfaces {
		mode = outline.SurfaceSplit
	}
	for _, obj := range objs {
		g := obj.Geometry()
		if g == nil || is.surfaced[g] {
			continue
		}
		if _, err := is.gen.Generate(g, mode); err != nil {
			log().Warn("glpass: surface id generation failed", "object", obj.ID(), "err", err)
			continue
		}
		is.surfaced[g] = true
	}
}

func (is *IDStrategy) ensure(r Renderer, w, h int) {
	if is.target != nil && is.alloc == r && absInt(w-is.w) <= 1 && absInt(h-is.h) <= 1 {
		return
	}
	if is.target != nil {
		is.target.Dispose()
	}
	is.target = r.NewTarget(w, h, TargetConfig{DepthBuffer: true})
	is.alloc = r
	is.w, is.h = w, h
}

// SetSize implements [Strategy].
func (is *IDStrategy) SetSize(width, height int, scale float32) {
	if is.alloc != nil {
		w, h := scaled(width, height, scale)
		is.ensure(is.alloc, w, h)
	}
}

// InvalidateCache implements [Strategy]. Geometries are given fresh surface ids on next use.
// The id counter restarts so ids stay compact in the normalized id channel.
func (is *IDStrategy) InvalidateCache() {
	clear(is.surfaced)
	is.gen.Reset()
}

// Batches implements [Strategy]. The id strategy always draws in a single pass.
func (is *IDStrategy) Batches() int { return 1 }

// CacheAge implements [Strategy]. The id strategy caches nothing per frame.
func (is *IDStrategy) CacheAge() int { return 0 }

// Dispose implements [Strategy]. It is safe to call more than once.
func (is *IDStrategy) Dispose() {
	if is.target != nil {
		is.target.Dispose()
		is.target = nil
	}
	is.alloc = nil
	is.surfaced = nil
	is.gen.Reset()
}

// spreadID maps consecutive ids to 24 bit values far apart in color space so edge
// detection sees large steps between neighbors. The mapping is a bijection on 24 bits.
func spreadID(id uint32) uint32 {
	return (id * 0x9e3779) & 0xffffff
}
