// Package distance provides the vector distance calculation used by the
// K-tree's descent, split, and normalization steps: squared Euclidean
// distance, the only metric the engine is fixed to (spec.md has no
// notion of a configurable metric).
//
// # Usage
//
//	dist := distance.SquaredL2(a, b)
package distance
