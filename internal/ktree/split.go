package ktree

import (
	"math"

	"github.com/hupe1980/ktree/vector"
)

const splitConvergenceTolerance = 1e-6

// splitNode runs 2-means with Elkan triangle-inequality pruning over a
// full node's children (all maxChildren+1 slots published) and returns
// two replacement nodes of the same kind (leaf-parent or internal)
// holding a partition of the original children.
func splitNode(n *Node, alloc Allocator, cfg Config) (*Node, *Node, error) {
	m := n.maxChildren + 1
	children := make([]*Node, m)
	for i := 0; i < m; i++ {
		children[i] = n.children[i].Load()
	}

	assign, degenerate := elkanTwoMeans(children, n.dim, cfg)

	var leftIdx, rightIdx []int
	if degenerate {
		for i := range children {
			if i%2 == 0 {
				leftIdx = append(leftIdx, i)
			} else {
				rightIdx = append(rightIdx, i)
			}
		}
	} else {
		for i, a := range assign {
			if a == 0 {
				leftIdx = append(leftIdx, i)
			} else {
				rightIdx = append(rightIdx, i)
			}
		}
		if len(leftIdx) == 0 || len(rightIdx) == 0 {
			leftIdx, rightIdx = leftIdx[:0], rightIdx[:0]
			for i := range children {
				if i%2 == 0 {
					leftIdx = append(leftIdx, i)
				} else {
					rightIdx = append(rightIdx, i)
				}
			}
		}
	}

	left, err := assembleSplitNode(n, alloc, children, leftIdx)
	if err != nil {
		return nil, nil, err
	}
	right, err := assembleSplitNode(n, alloc, children, rightIdx)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func assembleSplitNode(src *Node, alloc Allocator, children []*Node, idx []int) (*Node, error) {
	node, err := alloc.AllocNode()
	if err != nil {
		return nil, err
	}
	initInternal(node, src.maxChildren, src.dim, src.childrenAreLeaves)

	var total int64
	for i, ci := range idx {
		node.children[i].Store(children[ci])
		total += children[ci].leavesBelow.Load()
	}
	node.childrenCount.Store(int32(len(idx)))
	node.leavesBelow.Store(total)
	node.centroid = weightedMean(children, idx, src.dim)

	return node, nil
}

// elkanTwoMeans partitions children into two clusters, returning the
// per-child assignment (0 or 1). degenerate is true when the naive
// convergence collapses to a single non-empty cluster; callers should
// then fall back to the alternating-index partition.
func elkanTwoMeans(children []*Node, dim int, cfg Config) (assign []int, degenerate bool) {
	m := len(children)
	assign = make([]int, m)

	seed0 := 0
	seed1 := pickSecondSeed(children, seed0, cfg.InitialClusterChoice)

	c := [2]vector.Vector{
		vector.Clone(children[seed0].centroid),
		vector.Clone(children[seed1].centroid),
	}

	upper := make([]float32, m)
	lower := make([]float32, m)
	for i := range upper {
		upper[i] = math.MaxFloat32
		lower[i] = 0
	}

	var delta [2]float32

	iterCap := cfg.SplitIterationCap
	if iterCap <= 0 {
		iterCap = DefaultSplitIterationCap
	}

	prevTotal := float32(-1)

	for iter := 0; iter < iterCap; iter++ {
		h := halfDistanceSquared(c[0], c[1])

		sums := [2]vector.Vector{vector.New(dim), vector.New(dim)}
		counts := [2]int{}

		var total float32

		for i, child := range children {
			a := assign[i]
			other := 1 - a

			upper[i] += delta[a]
			lower[i] -= delta[other]

			if upper[i] >= lower[i] && upper[i] >= h {
				exact := c[a].DistanceSquared(child.centroid)
				upper[i] = exact
				if exact > lower[i] || exact > h {
					otherExact := c[other].DistanceSquared(child.centroid)
					lower[i] = otherExact
					if exact > otherExact || (exact == otherExact && counts[a] > counts[other]) {
						a, other = other, a
						upper[i], lower[i] = lower[i], upper[i]
					}
				}
			}

			assign[i] = a
			sums[a].AddInPlace(child.centroid)
			counts[a]++
			total += upper[i]
		}

		if counts[0] == 0 || counts[1] == 0 {
			return assign, true
		}

		var newC [2]vector.Vector
		for k := 0; k < 2; k++ {
			newC[k] = sums[k]
			newC[k].DivInPlace(float32(counts[k]))
			delta[k] = newC[k].DistanceSquared(c[k])
			c[k] = newC[k]
		}

		if prevTotal >= 0 {
			denom := prevTotal
			if denom == 0 {
				denom = 1
			}
			rel := (prevTotal - total) / denom
			if rel < 0 {
				rel = -rel
			}
			if rel < splitConvergenceTolerance {
				prevTotal = total
				break
			}
		}
		prevTotal = total
	}

	return assign, false
}

func pickSecondSeed(children []*Node, seed0 int, choice InitialClusterChoice) int {
	best := -1
	var bestDist float32

	for i, child := range children {
		if i == seed0 {
			continue
		}
		d := children[seed0].centroid.DistanceSquared(child.centroid)
		switch choice {
		case Furthest:
			if best == -1 || d > bestDist {
				best, bestDist = i, d
			}
		default: // Nearest
			if best == -1 || d < bestDist {
				best, bestDist = i, d
			}
		}
	}
	if best == -1 {
		best = seed0
	}
	return best
}

func halfDistanceSquared(c0, c1 vector.Vector) float32 {
	d := c0.DistanceSquared(c1)
	half := float32(math.Sqrt(float64(d))) / 2
	return half * half
}

func weightedMean(children []*Node, idx []int, dim int) vector.Vector {
	out := vector.New(dim)
	var totalWeight float32
	for _, i := range idx {
		w := float32(children[i].leavesBelow.Load())
		out.FMA(children[i].centroid, w)
		totalWeight += w
	}
	if totalWeight > 0 {
		out.DivInPlace(totalWeight)
	}
	return out
}
