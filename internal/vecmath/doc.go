// Package vecmath provides fixed-dimension vector arithmetic and distance metrics.
//
// A Vector's dimension is its length. Operations that combine two vectors
// (Add, Diff) reject mismatched dimensions with ErrDimensionMismatch instead of
// truncating. Distance functions are hot-path helpers and assume the caller
// validated dimensions once up front (see CheckAllSameDim); mismatched input
// panics inside gonum rather than producing a silently wrong answer.
package vecmath
