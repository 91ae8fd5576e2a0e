package outline

import (
	"errors"
	"log/slog"
	"strconv"
)

// SurfaceMode selects how [SurfaceIDGenerator] groups vertices.
type SurfaceMode uint8

const (
	// SurfaceSingle assigns one id to all vertices of a mesh.
	SurfaceSingle SurfaceMode = iota
	// SurfaceSplit assigns one id per connected vertex island of an indexed mesh.
	SurfaceSplit
)

func (m SurfaceMode) String() string {
	switch m {
	case SurfaceSingle:
		return "single"
	case SurfaceSplit:
		return "split"
	}
	return "SurfaceMode(" + strconv.Itoa(int(m)) + ")"
}

var errNilGeometry = errors.New("nil geometry")

// SurfaceIDGenerator assigns surface ids to mesh vertices. Ids start at 1 and are
// drawn from one counter, so they are unique across all meshes processed by a generator.
// Id 0 is reserved for background.
type SurfaceIDGenerator struct {
	last  uint32
	stack []uint32
	seen  []bool
	adj   [][]uint32
}

// MaxID returns the largest id handed out so far.
func (gen *SurfaceIDGenerator) MaxID() uint32 { return gen.last }

// Reset restarts the id counter.
func (gen *SurfaceIDGenerator) Reset() { gen.last = 0 }

func (gen *SurfaceIDGenerator) nextID() uint32 {
	gen.last++
	return gen.last
}

// Generate computes surface ids for g's vertices and stores them in g.Colors
// as (id, 0, 0, 1) per vertex. The per-vertex ids are returned.
//
// In split mode a non-indexed geometry can not be traversed; all its vertices
// get id 0 and a warning is logged.
func (gen *SurfaceIDGenerator) Generate(g *Geometry, mode SurfaceMode) ([]uint32, error) {
	if g == nil {
		return nil, errNilGeometry
	}
	ids := make([]uint32, len(g.Positions))
	switch {
	case len(ids) == 0:
	case mode == SurfaceSingle:
		id := gen.nextID()
		for i := range ids {
			ids[i] = id
		}
	case !g.Indexed():
		log().Warn("outline: split surface ids need indexed geometry, using id 0", slog.Int("vertices", len(ids)))
	default:
		gen.split(g, ids)
	}
	g.Colors = surfaceAttribute(g.Colors[:0], ids)
	return ids, nil
}

// split flood fills connected components over the triangle edge graph.
func (gen *SurfaceIDGenerator) split(g *Geometry, ids []uint32) {
	n := len(ids)
	gen.resetAdjacency(n)
	bad := 0
	for i := 0; i+2 < len(g.Indices); i += 3 {
		a, b, c := g.Indices[i], g.Indices[i+1], g.Indices[i+2]
		if int(a) >= n || int(b) >= n || int(c) >= n {
			bad++
			continue
		}
		gen.adj[a] = append(gen.adj[a], b, c)
		gen.adj[b] = append(gen.adj[b], a, c)
		gen.adj[c] = append(gen.adj[c], a, b)
	}
	if bad > 0 {
		log().Warn("outline: skipped triangles with out of range indices", slog.Int("triangles", bad), slog.Int("vertices", n))
	}
	for start := 0; start < n; start++ {
		if gen.seen[start] || len(gen.adj[start]) == 0 {
			continue
		}
		id := gen.nextID()
		gen.stack = append(gen.stack[:0], uint32(start))
		gen.seen[start] = true
		for len(gen.stack) > 0 {
			v := gen.stack[len(gen.stack)-1]
			gen.stack = gen.stack[:len(gen.stack)-1]
			ids[v] = id
			for _, nb := range gen.adj[v] {
				if !gen.seen[nb] {
					gen.seen[nb] = true
					gen.stack = append(gen.stack, nb)
				}
			}
		}
	}
}

func (gen *SurfaceIDGenerator) resetAdjacency(n int) {
	if cap(gen.seen) < n {
		gen.seen = make([]bool, n)
	}
	gen.seen = gen.seen[:n]
	clear(gen.seen)
	if cap(gen.adj) < n {
		gen.adj = make([][]uint32, n)
	}
	gen.adj = gen.adj[:n]
	for i := range gen.adj {
		gen.adj[i] = gen.adj[i][:0]
	}
}

func surfaceAttribute(dst []float32, ids []uint32) []float32 {
	for _, id := range ids {
		dst = append(dst, float32(id), 0, 0, 1)
	}
	return dst
}

// SurfaceIDs reads back per-vertex ids from a geometry processed by [SurfaceIDGenerator].
func SurfaceIDs(g *Geometry) []uint32 {
	ids := make([]uint32, len(g.Colors)/4)
	for i := range ids {
		ids[i] = uint32(g.Colors[4*i])
	}
	return ids
}
