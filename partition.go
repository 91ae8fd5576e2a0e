package outline

import (
	"log/slog"

	"github.com/soypat/geometry/ms3"
)

// Item is a visible selected object paired with its world space bounding box.
type Item struct {
	Object Object
	Box    ms3.Box
}

// Batch is a group of objects whose outlines are rendered together in one sub-pass.
type Batch struct {
	Objects []Object
}

// Edge is a conflict between items I and J of a partitioned item list. I < J always.
type Edge struct {
	I, J int
	Risk float32
}

// Partitioner splits items into batches by coloring their conflict graph with a DSatur heuristic.
// The zero value has a zero threshold and no batch cap; use [NewPartitioner] for defaults.
type Partitioner struct {
	// Threshold is the risk above which two items conflict.
	Threshold float32
	// MaxBatches caps the number of batches. Zero means unlimited. When the cap
	// is hit, conflicting items are allowed to share the batch of least total risk.
	MaxBatches int

	// Reused between calls.
	adj    []map[int]float32
	colors []int
	satur  []int
	total  []float32
}

// NewPartitioner returns a Partitioner with [RiskThreshold] and [DefaultMaxBatches].
func NewPartitioner() *Partitioner {
	return &Partitioner{Threshold: RiskThreshold, MaxBatches: DefaultMaxBatches}
}

// Conflicts returns every pair of items whose [Risk] exceeds the threshold.
func (p *Partitioner) Conflicts(items []Item) []Edge {
	var edges []Edge
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			r := Risk(items[i].Box, items[j].Box)
			if r > p.Threshold {
				edges = append(edges, Edge{I: i, J: j, Risk: r})
			}
		}
	}
	return edges
}

// Partition returns batches covering every item exactly once. It never fails:
// when the conflict graph cannot be colored within MaxBatches the result has
// exactly MaxBatches batches with conflicts placed to minimize shared risk.
// Batches are ordered by ascending color.
func (p *Partitioner) Partition(items []Item) []Batch {
	switch len(items) {
	case 0:
		return nil
	case 1:
		return []Batch{{Objects: []Object{items[0].Object}}}
	}
	p.buildGraph(items)
	ncolors := p.color()

	batches := make([]Batch, ncolors)
	for i, c := range p.colors {
		batches[c].Objects = append(batches[c].Objects, items[i].Object)
	}
	// Drop colors that ended up unused so every batch is non-empty.
	nonEmpty := batches[:0]
	for _, b := range batches {
		if len(b.Objects) > 0 {
			nonEmpty = append(nonEmpty, b)
		}
	}
	return nonEmpty
}

func (p *Partitioner) buildGraph(items []Item) {
	n := len(items)
	p.adj = p.adj[:0]
	for i := 0; i < n; i++ {
		p.adj = append(p.adj, make(map[int]float32))
	}
	p.total = append(p.total[:0], make([]float32, n)...)
	for _, e := range p.Conflicts(items) {
		p.adj[e.I][e.J] = e.Risk
		p.adj[e.J][e.I] = e.Risk
		p.total[e.I] += e.Risk
		p.total[e.J] += e.Risk
	}
}

// color assigns p.colors for every node and returns the number of colors in use.
func (p *Partitioner) color() (ncolors int) {
	n := len(p.adj)
	p.colors = p.colors[:0]
	p.satur = p.satur[:0]
	for i := 0; i < n; i++ {
		p.colors = append(p.colors, -1)
		p.satur = append(p.satur, 0)
	}
	for colored := 0; colored < n; colored++ {
		node := p.nextNode()
		if node < 0 {
			log().Warn("outline: no uncolored node left while coloring", slog.Int("colored", colored), slog.Int("nodes", n))
			break
		}
		c := p.smallestFreeColor(node)
		if p.MaxBatches > 0 && c >= p.MaxBatches {
			c = p.leastRiskColor(node)
		}
		p.colors[node] = c
		ncolors = max(ncolors, c+1)
		for nb := range p.adj[node] {
			if p.colors[nb] < 0 {
				p.satur[nb] = p.distinctNeighborColors(nb)
			}
		}
	}
	// Anything left uncolored after a broken loop joins the first batch.
	for i, c := range p.colors {
		if c < 0 {
			p.colors[i] = 0
			ncolors = max(ncolors, 1)
		}
	}
	return ncolors
}

// nextNode returns the uncolored node with highest saturation, then degree, then
// total incident risk. Lower index wins exact ties. Returns -1 if all are colored.
func (p *Partitioner) nextNode() int {
	best := -1
	for i := range p.adj {
		if p.colors[i] >= 0 {
			continue
		}
		if best < 0 || p.moreConstrained(i, best) {
			best = i
		}
	}
	return best
}

func (p *Partitioner) moreConstrained(a, b int) bool {
	if p.satur[a] != p.satur[b] {
		return p.satur[a] > p.satur[b]
	}
	if len(p.adj[a]) != len(p.adj[b]) {
		return len(p.adj[a]) > len(p.adj[b])
	}
	return p.total[a] > p.total[b]
}

func (p *Partitioner) smallestFreeColor(node int) int {
	used := make(map[int]bool, len(p.adj[node]))
	for nb := range p.adj[node] {
		if c := p.colors[nb]; c >= 0 {
			used[c] = true
		}
	}
	c := 0
	for used[c] {
		c++
	}
	return c
}

// leastRiskColor picks among the first MaxBatches colors the one whose
// already colored neighbors of node share the least total risk with it.
func (p *Partitioner) leastRiskColor(node int) int {
	risk := make([]float32, p.MaxBatches)
	for nb, r := range p.adj[node] {
		if c := p.colors[nb]; c >= 0 && c < p.MaxBatches {
			risk[c] += r
		}
	}
	best := 0
	for c := 1; c < len(risk); c++ {
		if risk[c] < risk[best] {
			best = c
		}
	}
	return best
}

func (p *Partitioner) distinctNeighborColors(node int) int {
	seen := make(map[int]struct{}, len(p.adj[node]))
	for nb := range p.adj[node] {
		if c := p.colors[nb]; c >= 0 {
			seen[c] = struct{}{}
		}
	}
	return len(seen)
}
