package convolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/ironsheep/pixel-tools-mcp/internal/parallel"
)

// ErrKernelTooLarge is returned in Valid mode when the kernel does not fit
// inside the input.
var ErrKernelTooLarge = errors.New("kernel larger than input")

// Padding selects how the output is sized and how border taps are resolved.
type Padding int

const (
	// Valid applies the kernel only where it lies fully inside the input.
	// Each output axis shrinks by kernelSize-1.
	Valid Padding = iota

	// Same keeps the input dimensions. Taps falling outside the input read
	// the nearest edge row/column (edge-replicate, not zero padding).
	Same
)

func (p Padding) String() string {
	switch p {
	case Valid:
		return "valid"
	case Same:
		return "same"
	default:
		return fmt.Sprintf("Padding(%d)", int(p))
	}
}

// Engine computes 2D correlations, optionally splitting output rows across a
// worker pool. The zero value runs sequentially.
type Engine struct {
	workers int
}

// NewEngine returns an Engine that uses up to workers goroutines.
// Values below 2 run on the calling goroutine.
func NewEngine(workers int) *Engine {
	return &Engine{workers: workers}
}

// Convolve correlates input with kernel (the kernel is not flipped).
//
// For every output cell (y, x):
//
//	out[y][x] = sum over (ky, kx) of input[cy][cx] * kernel[ky][kx]
//
// where cy = y+ky-offY and cx = x+kx-offX, clamped into the input. In Same
// mode offY = floor(kernelHeight/2) and offX = floor(kernelWidth/2); in Valid
// mode both are 0 and no clamping ever occurs. Even-sized kernels are
// accepted and their center rounds down.
func (e *Engine) Convolve(ctx context.Context, input, kernel Matrix, padding Padding) (Matrix, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if err := kernel.Validate(); err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}

	inH, inW := input.Height(), input.Width()
	kH, kW := kernel.Height(), kernel.Width()

	var outH, outW, offY, offX int
	switch padding {
	case Same:
		outH, outW = inH, inW
		offY, offX = kH/2, kW/2
	case Valid:
		if kH > inH || kW > inW {
			return nil, fmt.Errorf("%w: kernel %dx%d, input %dx%d", ErrKernelTooLarge, kH, kW, inH, inW)
		}
		outH, outW = inH-kH+1, inW-kW+1
	default:
		return nil, fmt.Errorf("unknown padding mode %v", padding)
	}

	out := NewMatrix(outH, outW)
	err := parallel.Rows(ctx, outH, e.workers, func(lo, hi int) {
		for y := lo; y < hi; y++ {
			row := out[y]
			for x := 0; x < outW; x++ {
				var sum float64
				for ky := 0; ky < kH; ky++ {
					src := input[clamp(y+ky-offY, 0, inH-1)]
					krow := kernel[ky]
					for kx := 0; kx < kW; kx++ {
						sum += src[clamp(x+kx-offX, 0, inW-1)] * krow[kx]
					}
				}
				row[x] = sum
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var sequential = &Engine{}

// Convolve runs a sequential correlation of input with kernel.
// See Engine.Convolve for the exact semantics.
func Convolve(input, kernel Matrix, padding Padding) (Matrix, error) {
	return sequential.Convolve(context.Background(), input, kernel, padding)
}
