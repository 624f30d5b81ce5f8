// Package ktree implements a height-balanced, B-tree-shaped hierarchical
// vector quantizer (Geva's K-tree) with a concurrent insert/split engine.
//
// Every internal node stores the centroid of the leaves beneath it;
// every leaf stores one inserted vector. Insertion reserves a slot with
// an atomic fetch-and-add, splits a node with 2-means clustering
// accelerated by the Elkan triangle inequality, and propagates the
// resulting pair of nodes up the call stack, replacing the root when
// the split reaches the top.
//
// # Quick start
//
//	tree, err := ktree.New(32, 128, ktree.WithLogger(ktree.NewTextLogger(slog.LevelInfo)))
//	if err != nil {
//		// handle error
//	}
//	for _, v := range vectors {
//		if err := tree.Insert(v); err != nil {
//			// handle error
//		}
//	}
//	tree.NormalizeCounts()
//
// # Bulk insertion
//
//	err := tree.BulkInsert(ctx, vectors)
//
// # Serialization
//
//	var buf bytes.Buffer
//	tree.Serialize(&buf)
//	reloaded, err := ktree.Deserialize(&buf, 32, 128)
//
// # Non-goals
//
// Deletion, rebalancing after deletion, exact k-nearest-neighbour
// retrieval with backtracking, persistent on-disk indexes, and
// vectors of mixed dimensionality within one tree are all out of
// scope. SIMD dispatch for the distance kernel is likewise out of
// scope: every distance computation is a fixed scalar reduction so
// that repeated calls against the same inputs are bit-identical
// within a run, a property the split engine's convergence check
// depends on.
package ktree
