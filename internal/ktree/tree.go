package ktree

import (
	"sync/atomic"

	"github.com/hupe1980/ktree/vector"
)

// Tree owns the root and the tree-wide split counter.
type Tree struct {
	root    atomic.Pointer[Node]
	counter splitCounter
	alloc   Allocator
	config  Config
}

// New constructs an empty Tree with the given branching factor and
// dimensionality.
func New(alloc Allocator, cfg Config) (*Tree, error) {
	if cfg.MaxChildren < 2 {
		return nil, &ErrInvalidBranchingFactor{K: cfg.MaxChildren}
	}
	if cfg.Dim <= 0 {
		return nil, ErrDimensionZero
	}
	if cfg.SplitIterationCap <= 0 {
		cfg.SplitIterationCap = DefaultSplitIterationCap
	}

	return &Tree{alloc: alloc, config: cfg}, nil
}

// Root returns the current root, or nil if no insert has completed yet.
func (t *Tree) Root() *Node {
	return t.root.Load()
}

// Insert adds data to the tree, retry-looping internally until it
// succeeds. data must have the tree's configured dimensionality.
func (t *Tree) Insert(data vector.Vector) error {
	if len(data) != t.config.Dim {
		return &ErrDimensionMismatch{Expected: t.config.Dim, Actual: len(data)}
	}

	for {
		snap := t.counter.snapshot()
		if !snap.quiescent() {
			continue
		}

		root := t.root.Load()
		if root == nil {
			acquired, ok := t.counter.tryAcquire(snap)
			if !ok {
				continue
			}
			if t.root.Load() == nil {
				leaf, err := t.alloc.AllocNode()
				if err != nil {
					t.counter.release(acquired)
					return err
				}
				initLeaf(leaf, data, t.config.MaxChildren)

				newRoot, err := t.alloc.AllocNode()
				if err != nil {
					t.counter.release(acquired)
					return err
				}
				initInternal(newRoot, t.config.MaxChildren, t.config.Dim, true)
				newRoot.children[0].Store(leaf)
				newRoot.childrenCount.Store(1)
				newRoot.leavesBelow.Store(1)
				newRoot.centroid.Assign(data)

				t.root.Store(newRoot)
				t.counter.release(acquired)
				return nil
			}
			// Someone else installed the root first; release and retry
			// through the normal descent path below.
			t.counter.release(acquired)
			continue
		}

		result, err := root.insert(t.alloc, data, t, snap)
		if err != nil {
			return err
		}

		switch result.kind {
		case resultSuccess:
			return nil

		case resultRetry:
			continue

		case resultSplit:
			newRoot, err := t.alloc.AllocNode()
			if err != nil {
				t.counter.release(result.acquired)
				return err
			}
			initInternal(newRoot, t.config.MaxChildren, t.config.Dim, false)
			newRoot.children[0].Store(result.left)
			newRoot.children[1].Store(result.right)
			newRoot.childrenCount.Store(2)
			newRoot.leavesBelow.Store(result.left.leavesBelow.Load() + result.right.leavesBelow.Load())
			newRoot.centroid = weightedMean([]*Node{result.left, result.right}, []int{0, 1}, t.config.Dim)

			t.root.Store(newRoot)
			t.counter.release(result.acquired)
			return nil
		}
	}
}

// NormalizeCounts recomputes leavesBelow and the leaf-weighted centroid
// of every internal node bottom-up, correcting any drift from the
// incremental update inside insert. Single-threaded; call only when no
// insert may be in flight.
func (t *Tree) NormalizeCounts() {
	root := t.root.Load()
	if root == nil {
		return
	}
	normalizeNode(root)
}

func normalizeNode(n *Node) int64 {
	if n.IsLeaf() {
		n.leavesBelow.Store(1)
		return 1
	}

	count := n.ChildrenCount()
	var total int64
	mean := vector.New(n.dim)
	for i := 0; i < count; i++ {
		child := n.children[i].Load()
		if child == nil {
			continue
		}
		w := normalizeNode(child)
		total += w
		mean.FMA(child.centroid, float32(w))
	}
	if total > 0 {
		mean.DivInPlace(float32(total))
		n.centroid.Assign(mean)
	}
	n.leavesBelow.Store(total)
	return total
}

// LeafCount returns the number of leaves reachable from the root. Valid
// only before the first insert or after the last insert has returned.
func (t *Tree) LeafCount() int64 {
	root := t.root.Load()
	if root == nil {
		return 0
	}
	return root.leavesBelow.Load()
}

// Depth returns the number of edges from root to any leaf (all leaves
// share the same depth once the tree is quiescent).
func (t *Tree) Depth() int {
	n := t.root.Load()
	depth := 0
	for n != nil && !n.IsLeaf() {
		n = n.Child(0)
		depth++
	}
	return depth
}
