package ktree

import (
	"container/heap"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/ktree/vector"
)

// Nearest performs a bounded best-first descent from the root, gathering
// up to width leaf centroids closest to query. It is read-only
// introspection: like the rest of the tree's traversal helpers, it must
// only be called before the first insert or after the last insert has
// returned (spec's concurrency model does not support readers during
// inserts).
//
// The visited-set bitset mirrors the teacher's hnsw package, which uses
// bitset.BitSet to avoid revisiting graph nodes during best-first
// search; here it tracks which tree nodes have already been expanded
// during the widening descent.
func (t *Tree) Nearest(query vector.Vector, width int) ([]*Node, error) {
	if len(query) != t.config.Dim {
		return nil, &ErrDimensionMismatch{Expected: t.config.Dim, Actual: len(query)}
	}
	if width <= 0 {
		return nil, nil
	}

	root := t.root.Load()
	if root == nil {
		return nil, ErrEmptyTree
	}

	visited := bitset.New(uint(width) * 8)
	pq := &candidateQueue{}
	heap.Init(pq)
	heap.Push(pq, candidate{node: root, dist: query.DistanceSquared(root.centroid)})

	results := make([]*Node, 0, width)
	for pq.Len() > 0 && len(results) < width {
		c := heap.Pop(pq).(candidate)
		if visited.Test(uint(c.node.ID())) {
			continue
		}
		visited.Set(uint(c.node.ID()))

		if c.node.IsLeaf() {
			results = append(results, c.node)
			continue
		}

		count := c.node.ChildrenCount()
		for i := 0; i < count; i++ {
			child := c.node.Child(i)
			if child == nil || visited.Test(uint(child.ID())) {
				continue
			}
			heap.Push(pq, candidate{node: child, dist: query.DistanceSquared(child.centroid)})
		}
	}

	return results, nil
}

type candidate struct {
	node *Node
	dist float32
}

// candidateQueue is a min-heap over candidate.dist, visiting the closest
// unexpanded node first.
type candidateQueue []candidate

func (q candidateQueue) Len() int            { return len(q) }
func (q candidateQueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q candidateQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *candidateQueue) Push(x interface{}) { *q = append(*q, x.(candidate)) }
func (q *candidateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
