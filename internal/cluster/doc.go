// Package cluster implements k-means and k-medians over fixed-dimension
// vectors, plus the single-shot dominant color selector used per image cell.
//
// Both iterative methods share one loop: deduplicate and shuffle the inputs to
// seed k representatives, assign every vector to its nearest representative
// (lowest index on ties), recompute each representative, and stop once no
// representative moves more than the tolerance in L1. k-means representatives
// are arithmetic means; k-medians representatives are medoids, the member
// closest to the per-dimension median, so they are always input vectors.
//
// If the input has fewer distinct vectors than k, k is reduced to the
// distinct count. A cluster that loses all its members keeps its previous
// representative.
package cluster
