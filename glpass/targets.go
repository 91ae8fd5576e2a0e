package glpass

// targetPair owns the scratch and accumulation targets of the batched strategy.
type targetPair struct {
	scratch Target
	accum   Target
	w, h    int
	// alloc is the renderer the current targets were allocated with.
	alloc Renderer
	// allocations counts pair (re)allocations.
	allocations int
}

// ensure makes sure both targets exist and match w x h within one pixel.
// It reports whether the targets were (re)allocated.
func (tp *targetPair) ensure(r Renderer, w, h int) bool {
	w, h = max(w, 1), max(h, 1)
	if tp.scratch != nil && tp.alloc == r && absInt(w-tp.w) <= 1 && absInt(h-tp.h) <= 1 {
		return false
	}
	tp.dispose()
	tp.scratch = r.NewTarget(w, h, TargetConfig{})
	tp.accum = r.NewTarget(w, h, TargetConfig{})
	tp.w, tp.h = w, h
	tp.alloc = r
	tp.allocations++
	return true
}

// resize applies a new size to allocated targets, if any.
func (tp *targetPair) resize(w, h int) {
	if tp.alloc != nil {
		tp.ensure(tp.alloc, w, h)
	}
}

func (tp *targetPair) dispose() {
	if tp.scratch != nil {
		tp.scratch.Dispose()
	}
	if tp.accum != nil {
		tp.accum.Dispose()
	}
	tp.scratch, tp.accum = nil, nil
	tp.alloc = nil
	tp.w, tp.h = 0, 0
}

// scaled returns w x h scaled by s, never below 1 pixel.
func scaled(w, h int, s float32) (int, int) {
	if s <= 0 || s > 1 {
		s = 1
	}
	return max(1, int(float32(w)*s)), max(1, int(float32(h)*s))
}
