package glpass

import (
	"image/color"

	"github.com/soypat/outline"
)

// Outliner renders the outline of a set of objects into a target. It is the single-pass
// outline capability the multi-pass compositor drives once per batch.
type Outliner interface {
	// RenderOutline draws the outline of objs into dst using the renderer's current blending.
	// Renderer state other than the active target and blending is left unchanged.
	RenderOutline(r Renderer, dst Target, objs []outline.Object, cam outline.Camera, style Style)
	// Dispose releases resources held by the outliner.
	Dispose()
}

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// MaskOutliner outlines objects by drawing their silhouettes into a coverage mask and
// running the backend's mask edge program over it.
type MaskOutliner struct {
	mask   Target
	colors []color.NRGBA
}

// RenderOutline implements [Outliner].
func (mo *MaskOutliner) RenderOutline(r Renderer, dst Target, objs []outline.Object, cam outline.Camera, style Style) {
	if len(objs) == 0 {
		return
	}
	w, h := dst.Size()
	if mo.mask == nil {
		mo.mask = r.NewTarget(w, h, TargetConfig{DepthBuffer: true})
	} else if mw, mh := mo.mask.Size(); mw != w || mh != h {
		mo.mask.SetSize(w, h)
	}
	blend := r.Blending()
	clearColor := r.ClearColor()
	autoClear := r.AutoClear()

	r.SetRenderTarget(mo.mask)
	r.SetBlending(BlendNone)
	r.SetAutoClear(false)
	r.SetClearColor(ClearColor{})
	r.Clear(true, true, false)
	mo.colors = mo.colors[:0]
	for range objs {
		mo.colors = append(mo.colors, white)
	}
	r.Draw(objs, cam, DrawParams{Colors: mo.colors})

	r.SetRenderTarget(dst)
	r.SetBlending(blend)
	r.SetClearColor(clearColor)
	r.SetAutoClear(autoClear)
	r.DrawQuad(QuadMaskEdge, style, mo.mask)
}

// Dispose implements [Outliner].
func (mo *MaskOutliner) Dispose() {
	if mo.mask != nil {
		mo.mask.Dispose()
		mo.mask = nil
	}
}
