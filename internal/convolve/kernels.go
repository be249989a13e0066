package convolve

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidKernelSize is returned for a Gaussian kernel size below 1.
	ErrInvalidKernelSize = errors.New("kernel size must be positive")

	// ErrInvalidSigma is returned for a non-positive or non-finite sigma.
	ErrInvalidSigma = errors.New("sigma must be positive and finite")
)

// SobelXKernel returns the horizontal Sobel kernel.
//
//	1  0 -1
//	2  0 -2
//	1  0 -1
func SobelXKernel() Matrix {
	return Matrix{
		{1, 0, -1},
		{2, 0, -2},
		{1, 0, -1},
	}
}

// SobelYKernel returns the vertical Sobel kernel, the transpose of
// SobelXKernel. Positive responses mean intensity falls going down.
//
//	 1  2  1
//	 0  0  0
//	-1 -2 -1
func SobelYKernel() Matrix {
	return Matrix{
		{1, 2, 1},
		{0, 0, 0},
		{-1, -2, -1},
	}
}

// GaussianKernel builds a size x size kernel whose entry at offset (dx, dy)
// from the center is exp(-(dx²+dy²)/(2σ²)) / (2πσ²), normalized to sum to 1.
// The center is floor(size/2), so even sizes are skewed toward the top-left.
func GaussianKernel(size int, sigma float64) (Matrix, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKernelSize, size)
	}
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSigma, sigma)
	}

	kernel := NewMatrix(size, size)
	mean := size / 2
	twoSigma2 := 2 * sigma * sigma
	var sum float64
	for y := 0; y < size; y++ {
		dy := float64(y - mean)
		for x := 0; x < size; x++ {
			dx := float64(x - mean)
			v := math.Exp(-(dx*dx+dy*dy)/twoSigma2) / (math.Pi * twoSigma2)
			kernel[y][x] = v
			sum += v
		}
	}
	for _, row := range kernel {
		for x := range row {
			row[x] /= sum
		}
	}
	return kernel, nil
}

// SobelX returns the horizontal gradient of input with Same padding.
func (e *Engine) SobelX(ctx context.Context, input Matrix) (Matrix, error) {
	return e.Convolve(ctx, input, SobelXKernel(), Same)
}

// SobelY returns the vertical gradient of input with Same padding.
func (e *Engine) SobelY(ctx context.Context, input Matrix) (Matrix, error) {
	return e.Convolve(ctx, input, SobelYKernel(), Same)
}

// GaussianFilter blurs input with a size x size Gaussian kernel, Same padding.
func (e *Engine) GaussianFilter(ctx context.Context, input Matrix, size int, sigma float64) (Matrix, error) {
	kernel, err := GaussianKernel(size, sigma)
	if err != nil {
		return nil, err
	}
	return e.Convolve(ctx, input, kernel, Same)
}

// SobelX returns the horizontal gradient of input with Same padding.
func SobelX(input Matrix) (Matrix, error) {
	return sequential.SobelX(context.Background(), input)
}

// SobelY returns the vertical gradient of input with Same padding.
func SobelY(input Matrix) (Matrix, error) {
	return sequential.SobelY(context.Background(), input)
}

// GaussianFilter blurs input with a size x size Gaussian kernel, Same padding.
func GaussianFilter(input Matrix, size int, sigma float64) (Matrix, error) {
	return sequential.GaussianFilter(context.Background(), input, size, sigma)
}
