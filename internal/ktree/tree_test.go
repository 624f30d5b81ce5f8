package ktree

import (
	"context"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ktree/vector"
)

func newTestTree(t *testing.T, k, dim int) *Tree {
	t.Helper()
	alloc := NewAllocator(0)
	tree, err := New(alloc, Config{MaxChildren: k, Dim: dim})
	require.NoError(t, err)
	return tree
}

func vec(vals ...float32) vector.Vector {
	return vector.Vector(vals)
}

// collectLeaves walks the tree, returning the depth from the root of
// every leaf.
func collectLeaves(n *Node, depth int) []int {
	if n == nil {
		return nil
	}
	if n.IsLeaf() {
		return []int{depth}
	}
	var out []int
	count := n.ChildrenCount()
	for i := 0; i < count; i++ {
		out = append(out, collectLeaves(n.Child(i), depth+1)...)
	}
	return out
}

// verifyCentroidInvariant asserts invariant 3: after NormalizeCounts,
// every internal node's centroid equals the leaves-weighted mean of its
// children's centroids, within tolerance.
func verifyCentroidInvariant(t *testing.T, n *Node, eps float64) {
	t.Helper()
	if n == nil || n.IsLeaf() {
		return
	}

	count := n.ChildrenCount()
	dim := len(n.centroid)
	expected := vector.New(dim)
	var totalWeight float32
	for i := 0; i < count; i++ {
		child := n.Child(i)
		require.NotNil(t, child)
		w := float32(child.LeavesBelow())
		expected.FMA(child.centroid, w)
		totalWeight += w
		verifyCentroidInvariant(t, child, eps)
	}
	if totalWeight > 0 {
		expected.DivInPlace(totalWeight)
	}

	dist := math.Sqrt(float64(n.centroid.DistanceSquared(expected)))
	assert.LessOrEqual(t, dist, eps*float64(dim), "node centroid drifted beyond tolerance")
}

func TestScenario_S1_TwoClusters2D(t *testing.T) {
	tree := newTestTree(t, 4, 2)

	points := []vector.Vector{
		vec(0, 0), vec(0, 1), vec(1, 0), vec(1, 1),
		vec(9, 9), vec(9, 10), vec(10, 9), vec(10, 10),
	}
	for _, p := range points {
		require.NoError(t, tree.Insert(p))
	}
	tree.NormalizeCounts()

	root := tree.Root()
	require.NotNil(t, root)
	require.Equal(t, 2, root.ChildrenCount())

	var sawLow, sawHigh bool
	for i := 0; i < 2; i++ {
		c := root.Child(i)
		require.EqualValues(t, 4, c.LeavesBelow())
		cx, cy := c.Centroid()[0], c.Centroid()[1]
		if cx < 5 {
			assert.InDelta(t, 0.5, cx, 1e-5)
			assert.InDelta(t, 0.5, cy, 1e-5)
			sawLow = true
		} else {
			assert.InDelta(t, 9.5, cx, 1e-5)
			assert.InDelta(t, 9.5, cy, 1e-5)
			sawHigh = true
		}
	}
	assert.True(t, sawLow && sawHigh)

	depths := collectLeaves(root, 0)
	assert.Equal(t, int64(8), tree.LeafCount())
	for _, d := range depths {
		assert.Equal(t, depths[0], d, "all leaves must share the same depth")
	}
}

func TestScenario_S2_Duplicates1D(t *testing.T) {
	tree := newTestTree(t, 3, 1)

	for i := 0; i < 20; i++ {
		require.NoError(t, tree.Insert(vec(1.0)))
	}
	tree.NormalizeCounts()

	assert.EqualValues(t, 20, tree.LeafCount())

	var walk func(n *Node)
	walk = func(n *Node) {
		assert.InDelta(t, 1.0, n.Centroid()[0], 1e-4)
		if n.IsLeaf() {
			return
		}
		for i := 0; i < n.ChildrenCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.Root())

	expectedDepth := int(math.Ceil(math.Log(20) / math.Log(3)))
	assert.Equal(t, expectedDepth, tree.Depth())
}

func TestScenario_S3_DegenerateSplit(t *testing.T) {
	tree := newTestTree(t, 4, 2)

	for i := 0; i < 8; i++ {
		require.NoError(t, tree.Insert(vec(0, 0)))
	}
	tree.NormalizeCounts()

	assert.EqualValues(t, 8, tree.LeafCount())

	var walk func(n *Node)
	walk = func(n *Node) {
		assert.LessOrEqual(t, n.ChildrenCount(), 4)
		if n.IsLeaf() {
			return
		}
		assert.GreaterOrEqual(t, n.ChildrenCount(), 1)
		for i := 0; i < n.ChildrenCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.Root())
}

func TestScenario_S4_RoundTrip(t *testing.T) {
	tree := newTestTree(t, 4, 2)
	points := []vector.Vector{
		vec(0, 0), vec(0, 1), vec(1, 0), vec(1, 1),
		vec(9, 9), vec(9, 10), vec(10, 9), vec(10, 10),
	}
	for _, p := range points {
		require.NoError(t, tree.Insert(p))
	}
	tree.NormalizeCounts()

	var buf1 writerBuf
	require.NoError(t, tree.Serialize(&buf1))

	reloaded, err := Deserialize(&buf1, NewAllocator(0), Config{MaxChildren: 4, Dim: 2})
	require.NoError(t, err)

	var buf2 writerBuf
	require.NoError(t, reloaded.Serialize(&buf2))

	assert.Equal(t, buf1.String(), buf2.String())
}

func TestScenario_S5_ConcurrentInsert(t *testing.T) {
	tree := newTestTree(t, 8, 8)

	rng := rand.New(rand.NewSource(42))
	const n = 10000
	vs := make([]vector.Vector, n)
	for i := range vs {
		v := vector.New(8)
		for d := range v {
			v[d] = float32(rng.NormFloat64())
		}
		vs[i] = v
	}

	require.NoError(t, tree.BulkInsert(context.Background(), vs))
	tree.NormalizeCounts()

	assert.EqualValues(t, n, tree.LeafCount())

	depths := collectLeaves(tree.Root(), 0)
	for _, d := range depths {
		assert.Equal(t, depths[0], d)
	}

	verifyCentroidInvariant(t, tree.Root(), 1e-3)
}

func TestInsert_DimensionMismatch(t *testing.T) {
	tree := newTestTree(t, 4, 3)
	err := tree.Insert(vec(1, 2))
	require.Error(t, err)
	var dm *ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)
}

func TestNew_InvalidBranchingFactor(t *testing.T) {
	_, err := New(NewAllocator(0), Config{MaxChildren: 1, Dim: 4})
	require.Error(t, err)
	var bf *ErrInvalidBranchingFactor
	assert.ErrorAs(t, err, &bf)
}

func TestNew_DimensionZero(t *testing.T) {
	_, err := New(NewAllocator(0), Config{MaxChildren: 4, Dim: 0})
	require.ErrorIs(t, err, ErrDimensionZero)
}

// writerBuf is a minimal io.Writer/io.Reader string buffer so these
// tests don't need to import bytes for a handful of call sites.
type writerBuf struct {
	data []byte
	pos  int
}

func (w *writerBuf) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	return len(p), nil
}

func (w *writerBuf) Read(p []byte) (int, error) {
	if w.pos >= len(w.data) {
		return 0, io.EOF
	}
	n := copy(p, w.data[w.pos:])
	w.pos += n
	return n, nil
}

func (w *writerBuf) String() string {
	return string(w.data)
}
