package ktree

import (
	"sync"
	"sync/atomic"

	"github.com/hupe1980/ktree/vector"
)

const (
	splitStateUnsplit int32 = iota
	splitStateSplitting
)

// globalNodeID hands out the small integer identity the optional
// Nearest search helper uses to index its visited-set bitset; it has no
// bearing on the engine's own algorithms.
var globalNodeID atomic.Uint64

type resultKind int

const (
	resultSuccess resultKind = iota
	resultRetry
	resultSplit
)

// insertResult is the three-way outcome of descending one level, per
// spec: Success, Retry (someone else is splitting, or a split invalidated
// our path), or Split(left, right) propagating a replacement pair
// upward.
type insertResult struct {
	kind        resultKind
	left, right *Node
	acquired    counterState // valid only when kind == resultSplit
}

// Node is either a leaf (centroid only, no children) or an internal
// node with a fixed-capacity children array of size maxChildren+1 (the
// extra slot absorbs one overflow entry before a split must occur).
type Node struct {
	// mu guards the non-atomic centroid/leavesBelow incremental update
	// in updateCentroid. The spec's C++ source leaves this update an
	// unsynchronized race, tolerated because it only drifts a float
	// accumulator (corrected later by NormalizeCounts). Go's memory
	// model does not allow an unsynchronized concurrent write to be
	// merely "imprecise" — it is undefined behavior on the slice header
	// and backing array, not just the float bits. A per-node mutex
	// keeps the same "benign drift, corrected by normalize" behavior
	// without risking actual corruption; it is never held across a
	// recursive call or the tree-wide split lock.
	mu sync.Mutex

	centroid    vector.Vector
	leavesBelow atomic.Int64

	childrenCount atomic.Int32
	children      []atomic.Pointer[Node] // nil for leaves, len == maxChildren+1 otherwise

	splitState atomic.Int32

	maxChildren int
	dim         int

	// childrenAreLeaves is fixed at construction time: true for a node
	// one level above the leaves (addToNode delegates straight to
	// addToLeaf on such a node), false otherwise. It never changes
	// across a split since a split only repartitions same-level
	// children.
	childrenAreLeaves bool

	// id is a small dense identity used only by the Nearest search
	// helper's visited-set bitset.
	id uint64
}

// ID returns n's dense identity, used by the visited-set bitset during
// best-first descent.
func (n *Node) ID() uint64 {
	return n.id
}

// IsLeaf reports whether n is a leaf (holds a data vector directly, no
// children array).
func (n *Node) IsLeaf() bool {
	return n.children == nil
}

// Centroid returns n's centroid vector. Callers must not mutate it.
func (n *Node) Centroid() vector.Vector {
	return n.centroid
}

// LeavesBelow returns the node's leaf count (exact only immediately
// after NormalizeCounts, or for a just-constructed node).
func (n *Node) LeavesBelow() int64 {
	return n.leavesBelow.Load()
}

// ChildrenCount returns the number of valid entries in the children
// array, clamped to maxChildren for a quiescent read.
func (n *Node) ChildrenCount() int {
	c := int(n.childrenCount.Load())
	if c > n.maxChildren {
		c = n.maxChildren
	}
	return c
}

// Child returns the i'th child, or nil if unpublished or out of range.
func (n *Node) Child(i int) *Node {
	if n.children == nil || i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i].Load()
}

func initLeaf(n *Node, data vector.Vector, maxChildren int) {
	n.centroid = vector.Clone(data)
	n.dim = len(data)
	n.maxChildren = maxChildren
	n.leavesBelow.Store(1)
	n.id = globalNodeID.Add(1)
}

func initInternal(n *Node, maxChildren, dim int, childrenAreLeaves bool) {
	n.centroid = vector.New(dim)
	n.dim = dim
	n.maxChildren = maxChildren
	n.children = make([]atomic.Pointer[Node], maxChildren+1)
	n.childrenAreLeaves = childrenAreLeaves
	n.id = globalNodeID.Add(1)
}

// closestChild scans child[0..clamped count), returning the index
// minimizing DistanceSquared(query, child.centroid). Ties break to the
// lowest index. Unpublished (nil) slots are skipped, not treated as an
// error: a concurrent writer may have reserved but not yet published
// its slot.
func (n *Node) closestChild(query vector.Vector) int {
	count := n.ChildrenCount()

	best := -1
	var bestDist float32
	for i := 0; i < count; i++ {
		child := n.children[i].Load()
		if child == nil {
			continue
		}
		d := query.DistanceSquared(child.centroid)
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// updateCentroid folds data into n's running mean via the incremental
// fused-subtract-divide update and bumps leavesBelow. Called after a
// recursive insert beneath n returns Success.
func (n *Node) updateCentroid(data vector.Vector) {
	n.mu.Lock()
	defer n.mu.Unlock()

	lb := n.leavesBelow.Load()
	n.centroid.FSD(data, float32(lb+1))
	n.leavesBelow.Store(lb + 1)
}

// insert descends one step from n. n must be an internal node (never
// called on a leaf directly).
func (n *Node) insert(alloc Allocator, data vector.Vector, tree *Tree, snap counterState) (insertResult, error) {
	if n.childrenAreLeaves {
		result, err := n.addToLeaf(alloc, data, tree, snap)
		if err == nil && result.kind == resultSuccess {
			n.updateCentroid(data)
		}
		return result, err
	}

	b := n.closestChild(data)
	if b < 0 {
		// No published child yet to descend into: a concurrent writer
		// is mid-publish. Ask the caller to retry.
		return insertResult{kind: resultRetry}, nil
	}

	child := n.children[b].Load()
	result, err := child.insert(alloc, data, tree, snap)
	if err != nil {
		return insertResult{}, err
	}

	switch result.kind {
	case resultSuccess:
		n.updateCentroid(data)
		return insertResult{kind: resultSuccess}, nil

	case resultRetry:
		return result, nil

	case resultSplit:
		n.children[b].Store(result.left)
		slot := n.childrenCount.Add(1) - 1
		n.children[slot].Store(result.right)

		if int(slot) >= n.maxChildren {
			left, right, err := splitNode(n, alloc, tree.config)
			if err != nil {
				return insertResult{}, err
			}
			if tree.config.OnSplit != nil {
				tree.config.OnSplit(left, right)
			}
			return insertResult{kind: resultSplit, left: left, right: right, acquired: result.acquired}, nil
		}

		tree.counter.release(result.acquired)
		n.updateCentroid(data)
		return insertResult{kind: resultSuccess}, nil

	default:
		return insertResult{}, nil
	}
}

// addToLeaf implements the leaf-append three-way outcome: reserve a
// slot with fetch-and-add, publish directly on success, ask for a retry
// if someone else is already splitting, or win the right to split on
// exact overflow.
func (n *Node) addToLeaf(alloc Allocator, data vector.Vector, tree *Tree, snap counterState) (insertResult, error) {
	slot := n.childrenCount.Add(1) - 1

	switch {
	case int(slot) < n.maxChildren:
		leaf, err := alloc.AllocNode()
		if err != nil {
			return insertResult{}, err
		}
		initLeaf(leaf, data, n.maxChildren)
		n.children[slot].Store(leaf)
		return insertResult{kind: resultSuccess}, nil

	case int(slot) > n.maxChildren:
		return insertResult{kind: resultRetry}, nil

	default: // slot == n.maxChildren: this insert wins the right to split n
		if !n.splitState.CompareAndSwap(splitStateUnsplit, splitStateSplitting) {
			return insertResult{kind: resultRetry}, nil
		}

		acquired, ok := tree.counter.tryAcquire(snap)
		if !ok {
			n.splitState.Store(splitStateUnsplit)
			return insertResult{kind: resultRetry}, nil
		}

		leaf, err := alloc.AllocNode()
		if err != nil {
			return insertResult{}, err
		}
		initLeaf(leaf, data, n.maxChildren)
		n.children[slot].Store(leaf)

		left, right, err := splitNode(n, alloc, tree.config)
		if err != nil {
			return insertResult{}, err
		}
		if tree.config.OnSplit != nil {
			tree.config.OnSplit(left, right)
		}
		return insertResult{kind: resultSplit, left: left, right: right, acquired: acquired}, nil
	}
}
