package ktree

import (
	"context"
	"io"
	"time"

	engine "github.com/hupe1980/ktree/internal/ktree"
	"github.com/hupe1980/ktree/vector"
)

// Tree is a height-balanced hierarchical vector quantizer. The zero
// value is not usable; construct with New or Deserialize.
type Tree struct {
	inner  *engine.Tree
	logger *Logger
}

// New constructs an empty Tree with branching factor k and
// dimensionality dim.
func New(k, dim int, optFns ...Option) (*Tree, error) {
	o := applyOptions(optFns)
	o.logger.LogCapabilities(context.Background(), DetectCapabilities())

	alloc := engine.NewAllocator(o.arenaChunkSlots)
	cfg := engine.Config{
		MaxChildren:          k,
		Dim:                  dim,
		SplitIterationCap:    o.splitIterationCap,
		InitialClusterChoice: o.initialClusterChoice,
		OnSplit:              splitLogger(o.logger),
	}

	inner, err := engine.New(alloc, cfg)
	if err != nil {
		return nil, translateError(err)
	}

	return &Tree{inner: inner, logger: o.logger}, nil
}

// splitLogger builds the engine.Config.OnSplit hook that reports each
// node split through logger.LogSplit.
func splitLogger(logger *Logger) func(left, right *engine.Node) {
	return func(left, right *engine.Node) {
		logger.LogSplit(context.Background(), left.LeavesBelow(), right.LeavesBelow())
	}
}

// Insert adds data to the tree, internally retrying until the
// concurrent insert/split protocol succeeds. data must match the
// tree's configured dimensionality.
func (t *Tree) Insert(data vector.Vector) error {
	err := t.inner.Insert(data)
	t.logger.LogInsert(context.Background(), len(data), err)
	return translateError(err)
}

// BulkInsert fans data out across runtime.NumCPU() goroutines, each
// calling Insert against the shared tree. It returns the first error
// encountered, or ctx.Err() if ctx is cancelled mid-batch.
func (t *Tree) BulkInsert(ctx context.Context, data []vector.Vector) error {
	err := t.inner.BulkInsert(ctx, data)
	t.logger.LogBulkInsert(ctx, len(data), err)
	return translateError(err)
}

// NormalizeCounts recomputes leavesBelow and the leaf-weighted centroid
// of every internal node bottom-up, correcting drift from the concurrent
// incremental update. Call only when no insert may be in flight.
func (t *Tree) NormalizeCounts() {
	start := time.Now()
	t.inner.NormalizeCounts()
	t.logger.LogNormalize(context.Background(), t.inner.LeafCount(), float64(time.Since(start).Microseconds())/1000)
}

// LeafCount returns the number of leaves reachable from the root.
func (t *Tree) LeafCount() int64 {
	return t.inner.LeafCount()
}

// Depth returns the number of edges from root to any leaf.
func (t *Tree) Depth() int {
	return t.inner.Depth()
}

// Root exposes the underlying root node for read-only inspection
// (walking children, reading centroids). Returns nil before the first
// insert has completed.
func (t *Tree) Root() *engine.Node {
	return t.inner.Root()
}

// Nearest returns up to width leaves closest to query via bounded
// best-first descent, for coarse-to-fine candidate gathering. This is
// not exact k-nearest-neighbour retrieval (no backtracking).
func (t *Tree) Nearest(query vector.Vector, width int) ([]*engine.Node, error) {
	nodes, err := t.inner.Nearest(query, width)
	return nodes, translateError(err)
}

// Serialize writes t in pre-order DFS, one line per node.
func (t *Tree) Serialize(w io.Writer) error {
	err := t.inner.Serialize(w)
	t.logger.LogSerialize(context.Background(), err)
	return translateError(err)
}

// Deserialize reconstructs a Tree from a stream written by Serialize.
func Deserialize(r io.Reader, k, dim int, optFns ...Option) (*Tree, error) {
	o := applyOptions(optFns)
	o.logger.LogCapabilities(context.Background(), DetectCapabilities())

	alloc := engine.NewAllocator(o.arenaChunkSlots)
	cfg := engine.Config{
		MaxChildren:          k,
		Dim:                  dim,
		SplitIterationCap:    o.splitIterationCap,
		InitialClusterChoice: o.initialClusterChoice,
		OnSplit:              splitLogger(o.logger),
	}

	inner, err := engine.Deserialize(r, alloc, cfg)
	tree := &Tree{inner: inner, logger: o.logger}
	if err != nil {
		tree.logger.LogDeserialize(context.Background(), 0, err)
		return nil, translateError(err)
	}

	tree.logger.LogDeserialize(context.Background(), inner.LeafCount(), nil)
	return tree, nil
}
