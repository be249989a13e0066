// Package convolve implements 2D correlation of a Matrix with a kernel and the
// kernels the edge detector is built from.
//
// # Boundary Handling
//
// Two padding policies are supported:
//   - Valid: the output shrinks by kernelSize-1 per axis; the kernel never
//     leaves the input.
//   - Same: the output keeps the input dimensions; out-of-bounds taps read
//     the nearest valid row/column (edge replication).
//
// # Kernels
//
// SobelXKernel and SobelYKernel are the fixed 3x3 gradient kernels.
// GaussianKernel builds a normalized square Gaussian of any size and sigma.
//
// # Execution
//
// All functions are pure: inputs are never modified and every call returns a
// freshly allocated Matrix. Engine optionally splits output rows across
// goroutines; the result is identical to the sequential path.
package convolve
