package convolve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGaussianKernel_SumsToOne(t *testing.T) {
	for _, size := range []int{1, 2, 3, 5, 7, 11} {
		for _, sigma := range []float64{0.3, 1, 2, 5} {
			k, err := GaussianKernel(size, sigma)
			require.NoError(t, err)
			assert.Equal(t, size, k.Height())
			assert.Equal(t, size, k.Width())
			assert.InDelta(t, 1.0, k.Sum(), 1e-12, "size=%d sigma=%v", size, sigma)
		}
	}
}

func TestGaussianKernel_SymmetricAndPeaked(t *testing.T) {
	k, err := GaussianKernel(5, 2)
	require.NoError(t, err)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			assert.InDelta(t, k[y][x], k[x][y], 1e-15)
			assert.InDelta(t, k[y][x], k[4-y][4-x], 1e-15)
			assert.LessOrEqual(t, k[y][x], k[2][2])
		}
	}
}

func TestGaussianKernel_InvalidArgs(t *testing.T) {
	_, err := GaussianKernel(0, 1)
	assert.ErrorIs(t, err, ErrInvalidKernelSize)

	for _, sigma := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err = GaussianKernel(3, sigma)
		assert.ErrorIs(t, err, ErrInvalidSigma)
	}
}

func TestGaussianFilter_ConstantImageUnchanged(t *testing.T) {
	input := constantMatrix(9, 6, 137)
	out, err := GaussianFilter(input, 5, 2)
	require.NoError(t, err)
	for y := range out {
		for x := range out[y] {
			assert.InDelta(t, 137, out[y][x], 1e-9)
		}
	}
}

func TestSobel_ConstantImageIsZero(t *testing.T) {
	input := constantMatrix(6, 6, 200)
	gx, err := SobelX(input)
	require.NoError(t, err)
	gy, err := SobelY(input)
	require.NoError(t, err)
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			assert.Equal(t, 0.0, gx[y][x])
			assert.Equal(t, 0.0, gy[y][x])
		}
	}
}

func TestSobel_KernelsAreTransposes(t *testing.T) {
	kx, ky := SobelXKernel(), SobelYKernel()
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, kx[x][y], ky[y][x])
		}
	}
}

func TestSobel_VerticalStep(t *testing.T) {
	input := Matrix{
		{0, 0, 10, 10},
		{0, 0, 10, 10},
		{0, 0, 10, 10},
	}
	gx, err := SobelX(input)
	require.NoError(t, err)
	gy, err := SobelY(input)
	require.NoError(t, err)

	for y := 0; y < 3; y++ {
		// [1 0 -1] weights across columns, 4 summed over rows.
		assert.Equal(t, []float64{0, -40, -40, 0}, []float64(gx[y]))
		assert.Equal(t, []float64{0, 0, 0, 0}, []float64(gy[y]))
	}
}
