package glrender

import (
	"image/color"
	"slices"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/outline"
	"github.com/soypat/outline/glpass"
)

const triangleChunk = 256

var opaqueWhite = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Draw implements [glpass.Renderer]. Objects are flat shaded and drawn in
// [outline.SortRenderOrder] order. On targets without a depth buffer opaque objects
// are painted farthest first instead.
func (ir *ImageRenderer) Draw(objs []outline.Object, cam outline.Camera, p glpass.DrawParams) {
	t := ir.current()
	if t.img == nil || cam == nil || len(objs) == 0 {
		return
	}
	if ir.autoClear {
		ir.Clear(true, true, true)
	}
	if ir.colorOf == nil {
		ir.colorOf = make(map[uint64]int)
	}
	clear(ir.colorOf)
	for i, obj := range objs {
		ir.colorOf[obj.ID()] = i
	}
	transparent := func(obj outline.Object) bool {
		return !p.SurfaceIDs && objectColor(p, ir.colorOf[obj.ID()]).A < 255
	}
	var eye ms3.Vec
	if pc, ok := cam.(interface{ Position() ms3.Vec }); ok {
		eye = pc.Position()
	}
	ir.sorted = append(ir.sorted[:0], objs...)
	outline.SortRenderOrder(ir.sorted, eye, transparent)
	if t.depth == nil {
		nOpaque := 0
		for nOpaque < len(ir.sorted) && !transparent(ir.sorted[nOpaque]) {
			nOpaque++
		}
		slices.Reverse(ir.sorted[:nOpaque])
	}

	vp := cam.ViewProjection().Array()
	if len(ir.buf) == 0 {
		ir.buf = make([]ms3.Triangle, triangleChunk)
	}
	for _, obj := range ir.sorted {
		ir.drawObject(t, obj, &vp, p, ir.colorOf[obj.ID()])
	}
}

func objectColor(p glpass.DrawParams, i int) color.NRGBA {
	if i < len(p.Colors) {
		return p.Colors[i]
	}
	return opaqueWhite
}

func (ir *ImageRenderer) drawObject(t *ImageTarget, obj outline.Object, vp *[16]float32, p glpass.DrawParams, idx int) {
	g := obj.Geometry()
	if g == nil {
		return
	}
	flat := premul(objectColor(p, idx))
	ir.reader.Reset(obj)
	for {
		base := ir.reader.Offset()
		n, err := ir.reader.ReadTriangles(ir.buf)
		for k := 0; k < n; k++ {
			c := flat
			if p.SurfaceIDs {
				c = surfaceColor(g, g.Triangle(base + k)[0], p.MaxID)
			}
			ir.rasterize(t, &ir.buf[k], vp, c)
		}
		if err != nil {
			break
		}
	}
}

// surfaceColor shades vertex v's surface id normalized by maxID into the red channel.
func surfaceColor(g *outline.Geometry, v int, maxID uint32) color.RGBA {
	if maxID == 0 || 4*v >= len(g.Colors) {
		return color.RGBA{A: 255}
	}
	id := g.Colors[4*v]
	r := uint8(math32.Round(255 * id / float32(maxID)))
	return color.RGBA{R: r, A: 255}
}

// project multiplies v by the column major matrix m and returns clip coordinates.
func project(m *[16]float32, v ms3.Vec) (x, y, z, w float32) {
	x = m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]
	y = m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]
	z = m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]
	w = m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]
	return x, y, z, w
}

// rasterize fills tri with c. Both windings are drawn. Triangles with a vertex
// behind the camera are dropped rather than clipped.
func (ir *ImageRenderer) rasterize(t *ImageTarget, tri *ms3.Triangle, vp *[16]float32, c color.RGBA) {
	w, h := t.Size()
	var sx, sy, sz [3]float32
	for i, v := range tri {
		x, y, z, cw := project(vp, v)
		if cw <= 0 {
			return
		}
		sx[i] = (x/cw*0.5 + 0.5) * float32(w)
		sy[i] = (0.5 - y/cw*0.5) * float32(h)
		sz[i] = z / cw
	}
	area := edgeFunc(sx[0], sy[0], sx[1], sy[1], sx[2], sy[2])
	if area == 0 {
		return
	}
	minX := clampPixel(min(sx[0], sx[1], sx[2]), w)
	maxX := clampPixel(max(sx[0], sx[1], sx[2]), w)
	minY := clampPixel(min(sy[0], sy[1], sy[2]), h)
	maxY := clampPixel(max(sy[0], sy[1], sy[2]), h)
	pix := t.img.Pix
	stride := t.img.Stride
	for py := minY; py <= maxY; py++ {
		fy := float32(py) + 0.5
		for px := minX; px <= maxX; px++ {
			fx := float32(px) + 0.5
			w0 := edgeFunc(sx[1], sy[1], sx[2], sy[2], fx, fy)
			w1 := edgeFunc(sx[2], sy[2], sx[0], sy[0], fx, fy)
			w2 := edgeFunc(sx[0], sy[0], sx[1], sy[1], fx, fy)
			if area < 0 {
				w0, w1, w2 = -w0, -w1, -w2
			}
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := (w0*sz[0] + w1*sz[1] + w2*sz[2]) / math32.Abs(area)
			if z < -1 || z > 1 {
				continue
			}
			if t.depth != nil {
				di := py*w + px
				if z >= t.depth[di] {
					continue
				}
				t.depth[di] = z
			}
			blendPixel(pix, py*stride+px*4, c, ir.blending)
		}
	}
}

func edgeFunc(ax, ay, bx, by, cx, cy float32) float32 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}

// clampPixel converts a screen coordinate to a pixel index in [0,size-1].
func clampPixel(v float32, size int) int {
	v = math32.Floor(v)
	if v < 0 {
		return 0
	} else if v > float32(size-1) {
		return size - 1
	}
	return int(v)
}
