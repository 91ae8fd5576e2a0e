package glpass

import (
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/outline"
)

// BatchedStrategy outlines each conflict-free batch separately into a scratch target and
// accumulates the results additively before compositing onto the frame.
type BatchedStrategy struct {
	cfg      *Config
	part     outline.Partitioner
	cache    outline.BatchCache
	targets  targetPair
	outliner Outliner
	items    []outline.Item
	batches  int
}

// NewBatchedStrategy returns a batched strategy configured by cfg that renders single
// batches with outliner. A nil outliner uses a [MaskOutliner].
func NewBatchedStrategy(cfg *Config, outliner Outliner) *BatchedStrategy {
	if outliner == nil {
		outliner = &MaskOutliner{}
	}
	bs := &BatchedStrategy{cfg: cfg, outliner: outliner}
	bs.configure()
	return bs
}

func (bs *BatchedStrategy) configure() {
	bs.part.Threshold = bs.cfg.RiskThreshold
	bs.part.MaxBatches = bs.cfg.MaxBatches
	bs.cache.MaxAge = bs.cfg.CacheMaxAge
}

func (bs *BatchedStrategy) Name() string { return "batched" }

// Partition returns the batches for objs, reusing the cached partition when possible.
func (bs *BatchedStrategy) Partition(objs []outline.Object) []outline.Batch {
	return bs.cache.Batches(objs, func() []outline.Batch {
		bs.items = bs.items[:0]
		for _, obj := range objs {
			bb, ok := outline.WorldBox(obj)
			if !ok {
				// No geometry: a point at the object's origin.
				p := obj.WorldMatrix().MulPosition(ms3.Vec{})
				bb = ms3.Box{Min: p, Max: p}
			}
			bs.items = append(bs.items, outline.Item{Object: obj, Box: bb})
		}
		return bs.part.Partition(bs.items)
	})
}

// Render implements [Strategy].
func (bs *BatchedStrategy) Render(r Renderer, f *Frame) {
	batches := bs.Partition(f.Objects)
	bs.batches = len(batches)
	if len(batches) == 0 {
		return
	}
	w, h := scaled(f.Width, f.Height, f.Scale)
	bs.targets.ensure(r, w, h)
	var palette []Style
	if bs.cfg.DebugBatches {
		for _, c := range BatchPalette(len(batches)) {
			palette = append(palette, Style{Color: c, Thickness: f.Style.Thickness})
		}
	}

	r.SetClearColor(ClearColor{})
	r.SetRenderTarget(bs.targets.accum)
	r.Clear(true, false, false)
	for i, batch := range batches {
		style := f.Style
		if palette != nil {
			style = palette[i]
		}
		r.SetRenderTarget(bs.targets.scratch)
		r.Clear(true, true, false)
		r.SetBlending(BlendNone)
		bs.outliner.RenderOutline(r, bs.targets.scratch, batch.Objects, f.Camera, style)

		r.SetRenderTarget(bs.targets.accum)
		r.SetBlending(BlendAdditive)
		r.DrawQuad(QuadCopy, style, bs.targets.scratch)
	}
	r.SetRenderTarget(f.Read)
	r.SetBlending(BlendAdditive)
	r.DrawQuad(QuadCopy, f.Style, bs.targets.accum)
}

// SetSize implements [Strategy].
func (bs *BatchedStrategy) SetSize(width, height int, scale float32) {
	bs.targets.resize(scaled(width, height, scale))
}

// InvalidateCache implements [Strategy].
func (bs *BatchedStrategy) InvalidateCache() { bs.cache.Invalidate() }

// Batches implements [Strategy].
func (bs *BatchedStrategy) Batches() int { return bs.batches }

// CacheAge implements [Strategy].
func (bs *BatchedStrategy) CacheAge() int { return bs.cache.Age() }

// Allocations returns how many times the scratch/accumulation pair has been allocated.
func (bs *BatchedStrategy) Allocations() int { return bs.targets.allocations }

// Dispose implements [Strategy]. It is safe to call more than once.
func (bs *BatchedStrategy) Dispose() {
	bs.targets.dispose()
	bs.outliner.Dispose()
	bs.cache.Invalidate()
}

// CacheStats returns the partition cache hit and recompute counters.
func (bs *BatchedStrategy) CacheStats() (hits, recomputes uint64) {
	return bs.cache.CacheHits(), bs.cache.Recomputes()
}
