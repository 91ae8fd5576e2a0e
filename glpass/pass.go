package glpass

import (
	"errors"
	"log/slog"

	"github.com/soypat/outline"
)

// Pass is the multi-object outline post-processing pass. It is driven once per frame
// by the host through [Pass.Render] and is not safe for concurrent use.
type Pass struct {
	cfg     Config
	batched *BatchedStrategy
	ids     *IDStrategy
	// single outlines selections of one object without batching machinery.
	single MaskOutliner

	selection []outline.Object
	visible   []outline.Object
	cam       outline.Camera
	width     int
	height    int
	// ratio is the renderer pixel ratio seen on the last render.
	ratio    float32
	scale    float32
	skipping bool
	stats    Stats
}

// Stats are diagnostics of the last [Pass.Render] call.
type Stats struct {
	// Strategy is "single", "batched" or "id-texture". Empty if nothing was drawn.
	Strategy string
	// Batches is the number of sub-passes drawn.
	Batches int
	// Objects is the number of visible selected objects.
	Objects int
	// CacheAge is the age in frames of the partition used.
	CacheAge    int
	RenderScale float32
	// Skipped is set when the frame exceeded the object ceiling and no outline was drawn.
	Skipped bool
	// Reallocations counts scratch/accumulation target allocations over the pass lifetime.
	Reallocations int
	CacheHits     uint64
	Recomputes    uint64
}

// NewPass returns a pass configured with cfg.
func NewPass(cfg Config) (*Pass, error) {
	p := &Pass{scale: 1}
	p.batched = NewBatchedStrategy(&p.cfg, nil)
	p.ids = NewIDStrategy(&p.cfg)
	err := p.Configure(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Configure validates cfg and applies it. Cached partitions are invalidated.
func (p *Pass) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Join(errors.New("invalid outline pass config"), err)
	}
	p.cfg = cfg.clone()
	p.batched.configure()
	p.InvalidateCache()
	return nil
}

// Config returns a copy of the active configuration.
func (p *Pass) Config() Config { return p.cfg.clone() }

// SetSelection sets the objects to outline. The slice is copied.
func (p *Pass) SetSelection(objs []outline.Object) {
	p.selection = append(p.selection[:0], objs...)
}

// Selection returns the current selection. The returned slice must not be modified.
func (p *Pass) Selection() []outline.Object { return p.selection }

// SetCamera sets the camera outlines are rendered with.
func (p *Pass) SetCamera(cam outline.Camera) { p.cam = cam }

// SetSize propagates the output resolution to internal targets. width and height are
// in logical pixels and are multiplied by the renderer's pixel ratio.
func (p *Pass) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	p.width, p.height = width, height
	w, h := p.deviceSize()
	p.batched.SetSize(w, h, p.scale)
	p.ids.SetSize(w, h, p.scale)
}

func (p *Pass) deviceSize() (width, height int) {
	ratio := p.ratio
	if ratio <= 0 {
		ratio = 1
	}
	return int(float32(p.width)*ratio + 0.5), int(float32(p.height)*ratio + 0.5)
}

// InvalidateCache forces batch recomputation on the next render. Call it when selected
// objects move without the selection changing.
func (p *Pass) InvalidateCache() {
	p.batched.InvalidateCache()
	p.ids.InvalidateCache()
}

// SetMaxBatches sets the batch cap. Zero means unlimited, negative values are treated as zero.
func (p *Pass) SetMaxBatches(n int) {
	p.cfg.MaxBatches = max(n, 0)
	p.batched.configure()
	p.InvalidateCache()
}

// MaxBatches returns the batch cap.
func (p *Pass) MaxBatches() int { return p.cfg.MaxBatches }

// SetOverlapThreshold sets the conflict risk above which objects are drawn in
// separate batches. Values are clamped to [0,1).
func (p *Pass) SetOverlapThreshold(t float32) {
	if t < 0 {
		t = 0
	} else if t >= 1 {
		t = 1 - epsThreshold
	}
	p.cfg.RiskThreshold = t
	p.batched.configure()
	p.InvalidateCache()
}

const epsThreshold = 1e-6

// OverlapThreshold returns the conflict risk threshold.
func (p *Pass) OverlapThreshold() float32 { return p.cfg.RiskThreshold }

// Stats returns diagnostics of the last render.
func (p *Pass) Stats() Stats { return p.stats }

// Batches returns the batches the batched strategy would draw for the current
// selection, using and updating the partition cache. Hidden objects are excluded.
func (p *Pass) Batches() []outline.Batch {
	objs := p.filter()
	if len(objs) < 2 {
		if len(objs) == 1 {
			return []outline.Batch{{Objects: objs}}
		}
		return nil
	}
	return p.batched.Partition(objs)
}

// Render draws the outlines of the selection over read. write is the pass chain's
// write buffer and is unused since results are composited in place. When maskActive
// is set stencil testing is suspended for the pass. Renderer state is restored
// before Render returns.
func (p *Pass) Render(r Renderer, write, read Target, delta float32, maskActive bool) {
	_, _ = write, delta
	p.stats = Stats{Reallocations: p.batched.Allocations(), RenderScale: 1}
	p.stats.CacheHits, p.stats.Recomputes = p.batched.CacheStats()
	if len(p.selection) == 0 {
		return
	}
	if read == nil || p.cam == nil {
		log().Warn("glpass: render without read target or camera", slog.Bool("read", read != nil), slog.Bool("camera", p.cam != nil))
		return
	}
	state := saveState(r)
	defer state.restore(r)
	if maskActive {
		r.SetStencilTest(false)
	}
	r.SetAutoClear(false)

	objs := p.filter()
	n := len(objs)
	p.stats.Objects = n
	switch {
	case n == 0:
		return
	case n == 1:
		p.skipping = false
		r.SetRenderTarget(read)
		r.SetBlending(BlendAdditive)
		p.single.RenderOutline(r, read, objs, p.cam, p.cfg.style())
		p.stats.Strategy = "single"
		p.stats.Batches = 1
		p.toScreen(r, read)
		return
	case n > p.cfg.MaxObjects:
		if !p.skipping {
			log().Warn("glpass: too many objects to outline, skipping", slog.Int("objects", n), slog.Int("max", p.cfg.MaxObjects))
		}
		p.skipping = true
		p.stats.Skipped = true
		return
	}
	p.skipping = false

	p.ratio = r.PixelRatio()
	w, h := p.deviceSize()
	if w <= 0 || h <= 0 {
		w, h = read.Size()
	}
	p.scale = p.cfg.renderScale(n)
	strategy := p.strategy(n)
	strategy.Render(r, &Frame{
		Objects: objs,
		Camera:  p.cam,
		Read:    read,
		Width:   w,
		Height:  h,
		Scale:   p.scale,
		Style:   p.cfg.style(),
	})
	p.stats.Strategy = strategy.Name()
	p.stats.Batches = strategy.Batches()
	p.stats.CacheAge = strategy.CacheAge()
	p.stats.RenderScale = p.scale
	p.stats.Reallocations = p.batched.Allocations()
	p.stats.CacheHits, p.stats.Recomputes = p.batched.CacheStats()
	p.toScreen(r, read)
}

func (p *Pass) strategy(n int) Strategy {
	if p.cfg.IDRendering && n > p.cfg.IDThreshold {
		return p.ids
	}
	return p.batched
}

func (p *Pass) toScreen(r Renderer, read Target) {
	if !p.cfg.RenderToScreen {
		return
	}
	r.SetRenderTarget(nil)
	r.SetBlending(BlendNone)
	r.DrawQuad(QuadCopy, p.cfg.style(), read)
}

// filter returns visible selected objects. Frustum culling is only done for
// selections of at least CullThreshold objects.
func (p *Pass) filter() []outline.Object {
	p.visible = p.visible[:0]
	cull := p.cam != nil && len(p.selection) >= p.cfg.CullThreshold
	var f outline.Frustum
	if cull {
		f = outline.FrustumOf(p.cam)
	}
	for _, obj := range p.selection {
		if obj == nil || !obj.Visible() {
			continue
		}
		if cull && !outline.IsVisible(obj, f) {
			continue
		}
		p.visible = append(p.visible, obj)
	}
	return p.visible
}

// Dispose releases all targets held by the pass. It is safe to call more than once.
// The pass may be rendered again after Dispose, allocating new targets.
func (p *Pass) Dispose() {
	p.batched.Dispose()
	p.ids.Dispose()
	p.single.Dispose()
	p.skipping = false
}
