package outline_test

import (
	"math/rand"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxItem(name string, bb ms3.Box) outline.Item {
	return outline.Item{Object: outline.NewNode(name, outline.NewBoxGeometry(bb)), Box: bb}
}

func batchOf(batches []outline.Batch, obj outline.Object) int {
	for i, b := range batches {
		for _, o := range b.Objects {
			if o.ID() == obj.ID() {
				return i
			}
		}
	}
	return -1
}

func requireCompletePartition(t *testing.T, items []outline.Item, batches []outline.Batch) {
	t.Helper()
	seen := make(map[uint64]int)
	for _, b := range batches {
		require.NotEmpty(t, b.Objects, "empty batch")
		for _, o := range b.Objects {
			seen[o.ID()]++
		}
	}
	require.Len(t, seen, len(items))
	for _, it := range items {
		require.Equal(t, 1, seen[it.Object.ID()], "object %d must appear exactly once", it.Object.ID())
	}
}

func TestPartitionDegenerate(t *testing.T) {
	p := outline.NewPartitioner()
	assert.Empty(t, p.Partition(nil))

	it := boxItem("solo", unitBoxAt(0, 0, 0))
	batches := p.Partition([]outline.Item{it})
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Objects, 1)
	assert.Equal(t, it.Object.ID(), batches[0].Objects[0].ID())
}

func TestPartitionSeparatesConflicts(t *testing.T) {
	a := boxItem("a", unitBoxAt(0, 0, 0))
	b := boxItem("b", unitBoxAt(0.3, 0, 0))
	c := boxItem("c", unitBoxAt(100, 0, 0))
	items := []outline.Item{a, b, c}
	p := outline.NewPartitioner()
	p.MaxBatches = 0

	edges := p.Conflicts(items)
	require.Len(t, edges, 1)
	assert.Equal(t, outline.Edge{I: 0, J: 1, Risk: edges[0].Risk}, edges[0])

	batches := p.Partition(items)
	requireCompletePartition(t, items, batches)
	require.Len(t, batches, 2)
	assert.NotEqual(t, batchOf(batches, a.Object), batchOf(batches, b.Object), "conflicting objects share a batch")
	ca := batchOf(batches, c.Object)
	assert.True(t, ca == batchOf(batches, a.Object) || ca == batchOf(batches, b.Object), "far object should not need its own batch")
}

func TestPartitionLegalWithoutBudgetPressure(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	p := outline.NewPartitioner()
	p.MaxBatches = 0
	for trial := 0; trial < 50; trial++ {
		n := 2 + rng.Intn(25)
		items := make([]outline.Item, n)
		for i := range items {
			items[i] = boxItem("r", randomBox(rng))
		}
		batches := p.Partition(items)
		requireCompletePartition(t, items, batches)
		for _, e := range p.Conflicts(items) {
			bi := batchOf(batches, items[e.I].Object)
			bj := batchOf(batches, items[e.J].Object)
			require.NotEqual(t, bi, bj, "trial %d: conflicting items %d,%d in batch %d", trial, e.I, e.J, bi)
		}
	}
}

func TestPartitionBudget(t *testing.T) {
	// Nested boxes all conflict with each other: a complete graph.
	var items []outline.Item
	for i := 0; i < 10; i++ {
		s := float32(i + 1)
		items = append(items, boxItem("nested", box(-s, -s, -s, s, s, s)))
	}
	for _, maxBatches := range []int{1, 3, 6} {
		p := outline.NewPartitioner()
		p.MaxBatches = maxBatches
		batches := p.Partition(items)
		requireCompletePartition(t, items, batches)
		assert.Len(t, batches, maxBatches, "complete graph must use the whole budget")
	}
	p := outline.NewPartitioner()
	p.MaxBatches = 0
	assert.Len(t, p.Partition(items), len(items), "unlimited budget colors a complete graph with n colors")
}

func TestPartitionBudgetRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	p := outline.NewPartitioner()
	for trial := 0; trial < 50; trial++ {
		p.MaxBatches = 1 + rng.Intn(6)
		n := 1 + rng.Intn(40)
		items := make([]outline.Item, n)
		for i := range items {
			items[i] = boxItem("r", randomBox(rng))
		}
		batches := p.Partition(items)
		requireCompletePartition(t, items, batches)
		assert.LessOrEqual(t, len(batches), p.MaxBatches)
	}
}

func TestPartitionBudgetMinimizesRisk(t *testing.T) {
	// All three conflict; c conflicts less with a than with b.
	a := boxItem("a", unitBoxAt(0, 0, 0))
	b := boxItem("b", unitBoxAt(0.1, 0, 0))
	c := boxItem("c", unitBoxAt(1.3, 0, 0))
	items := []outline.Item{a, b, c}
	p := outline.NewPartitioner()
	p.MaxBatches = 2
	batches := p.Partition(items)
	requireCompletePartition(t, items, batches)
	require.Len(t, batches, 2)
	assert.NotEqual(t, batchOf(batches, a.Object), batchOf(batches, b.Object))
	assert.Equal(t, batchOf(batches, a.Object), batchOf(batches, c.Object), "c should join the batch it shares least risk with")
}
