package vecmath

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrDimensionMismatch is matched by every DimensionMismatchError via errors.Is.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// DimensionMismatchError reports two vectors of different length being combined.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is lets errors.Is(err, ErrDimensionMismatch) succeed.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// Vector is a fixed-length numeric tuple. Its dimension is len(v).
//
// Vectors are treated as values: every operation in this package returns a
// freshly allocated result and never modifies its arguments.
type Vector []float64

// Dim returns the number of components in v.
func (v Vector) Dim() int { return len(v) }

// Clone returns a copy of v.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// CheckSameDim returns a DimensionMismatchError if a and b differ in length.
func CheckSameDim(a, b Vector) error {
	if len(a) != len(b) {
		return &DimensionMismatchError{Expected: len(a), Actual: len(b)}
	}
	return nil
}

// CheckAllSameDim verifies that every vector has the dimension of vs[0].
func CheckAllSameDim(vs []Vector) error {
	if len(vs) == 0 {
		return nil
	}
	for i, v := range vs[1:] {
		if err := CheckSameDim(vs[0], v); err != nil {
			return fmt.Errorf("vector %d: %w", i+1, err)
		}
	}
	return nil
}

// Add returns a + b.
func Add(a, b Vector) (Vector, error) {
	if err := CheckSameDim(a, b); err != nil {
		return nil, err
	}
	return floats.AddTo(make(Vector, len(a)), a, b), nil
}

// Diff returns a - b.
func Diff(a, b Vector) (Vector, error) {
	if err := CheckSameDim(a, b); err != nil {
		return nil, err
	}
	return floats.SubTo(make(Vector, len(a)), a, b), nil
}

// Scale returns v multiplied by s.
func Scale(v Vector, s float64) Vector {
	return floats.ScaleTo(make(Vector, len(v)), s, v)
}

// L1Norm returns the sum of absolute components.
func L1Norm(v Vector) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, 1)
}

// L2Norm returns the Euclidean length of v.
func L2Norm(v Vector) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, 2)
}

// ZerosLike returns a zero vector with the dimension of v.
func ZerosLike(v Vector) Vector {
	return make(Vector, len(v))
}

// Equal reports structural equality. Vectors of different length are never equal.
func Equal(a, b Vector) bool {
	return len(a) == len(b) && floats.Equal(a, b)
}

// Key returns a string usable as a map key such that Key(a) == Key(b)
// exactly when Equal(a, b). Negative zero is folded into zero.
func Key(v Vector) string {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		if x == 0 {
			x = 0
		}
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(x))
	}
	return string(buf)
}
