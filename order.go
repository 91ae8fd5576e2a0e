package outline

import (
	"cmp"
	"slices"

	"github.com/soypat/geometry/ms3"
)

// SortRenderOrder sorts objs in place into a deterministic draw order for a viewer at eye.
// Opaque objects come first, nearest first. Transparent objects follow, farthest first, so
// they blend over what is behind them. Equal distances are ordered by ID.
// A nil transparent function treats every object as opaque.
func SortRenderOrder(objs []Object, eye ms3.Vec, transparent func(Object) bool) {
	type key struct {
		obj   Object
		trans bool
		dist2 float32
	}
	keys := make([]key, len(objs))
	for i, obj := range objs {
		k := key{obj: obj, trans: transparent != nil && transparent(obj)}
		center := obj.WorldMatrix().MulPosition(ms3.Vec{})
		if bb, ok := WorldBox(obj); ok {
			center = bb.Center()
		}
		d := ms3.Sub(center, eye)
		k.dist2 = ms3.Dot(d, d)
		keys[i] = k
	}
	slices.SortStableFunc(keys, func(a, b key) int {
		if a.trans != b.trans {
			if a.trans {
				return 1
			}
			return -1
		}
		c := cmp.Compare(a.dist2, b.dist2)
		if a.trans {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.obj.ID(), b.obj.ID())
	})
	for i := range keys {
		objs[i] = keys[i].obj
	}
}
