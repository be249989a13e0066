package convolve

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyMatrix is returned for a matrix with no rows or no columns.
	ErrEmptyMatrix = errors.New("matrix is empty")

	// ErrRaggedMatrix is returned when rows differ in length.
	ErrRaggedMatrix = errors.New("matrix rows have different lengths")
)

// Matrix is a dense row-major grid of float64 values.
//
// It is used for grayscale intensity, gradient magnitude and direction, and
// kernels. A valid Matrix has at least one row, at least one column, and rows
// of identical length.
type Matrix [][]float64

// NewMatrix allocates a zeroed height x width matrix.
func NewMatrix(height, width int) Matrix {
	m := make(Matrix, height)
	cells := make([]float64, height*width)
	for y := range m {
		m[y] = cells[y*width : (y+1)*width : (y+1)*width]
	}
	return m
}

// Height returns the number of rows.
func (m Matrix) Height() int { return len(m) }

// Width returns the number of columns (the length of the first row).
func (m Matrix) Width() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Validate checks that m is non-empty and rectangular.
func (m Matrix) Validate() error {
	if len(m) == 0 || len(m[0]) == 0 {
		return ErrEmptyMatrix
	}
	w := len(m[0])
	for y, row := range m {
		if len(row) != w {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrRaggedMatrix, y, len(row), w)
		}
	}
	return nil
}

// Clone returns a deep copy of m.
func (m Matrix) Clone() Matrix {
	out := NewMatrix(m.Height(), m.Width())
	for y, row := range m {
		copy(out[y], row)
	}
	return out
}

// MaxAbs returns the largest absolute value in m, or 0 for an empty matrix.
func (m Matrix) MaxAbs() float64 {
	var maxVal float64
	for _, row := range m {
		for _, v := range row {
			maxVal = math.Max(maxVal, math.Abs(v))
		}
	}
	return maxVal
}

// Sum returns the sum of all cells.
func (m Matrix) Sum() float64 {
	var s float64
	for _, row := range m {
		for _, v := range row {
			s += v
		}
	}
	return s
}

// clamp constrains an integer value to the range [lo, hi].
// Used for edge-replicate boundary handling.
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
