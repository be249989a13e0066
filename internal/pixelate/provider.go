package pixelate

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"sync/atomic"

	"github.com/ironsheep/pixel-tools-mcp/internal/cluster"
	"github.com/ironsheep/pixel-tools-mcp/internal/convolve"
	"github.com/ironsheep/pixel-tools-mcp/internal/edge"
	"github.com/ironsheep/pixel-tools-mcp/internal/parallel"
	"github.com/ironsheep/pixel-tools-mcp/internal/raster"
	"github.com/ironsheep/pixel-tools-mcp/internal/vecmath"
)

var (
	// ErrProviderClosed is returned by every Provider method after Close.
	ErrProviderClosed = errors.New("pixelation provider is closed")

	// ErrInvalidTarget is returned when the output size is not within
	// 1..source size on both axes.
	ErrInvalidTarget = errors.New("invalid pixelation target size")

	// ErrEmptyPalette is returned when a palette has no opaque entries.
	ErrEmptyPalette = errors.New("palette has no opaque colors")

	// ErrInvalidSensitivity is returned for an edge sensitivity outside (0, 100].
	ErrInvalidSensitivity = errors.New("edge sensitivity must be in (0, 100]")
)

// Provider is the set of raster primitives the strategies are assembled
// from. A Provider must be released with Close; afterwards every method
// returns ErrProviderClosed.
type Provider interface {
	// MedianResize shrinks src to width x height. Each output pixel is the
	// per-channel upper median of its source cell.
	MedianResize(ctx context.Context, src *raster.Raster, width, height int) (*raster.Raster, error)

	// EdgeStrength returns, per source pixel, the larger of the normalized
	// horizontal and vertical Sobel responses summed over all four channels,
	// in [0, 1]. Border pixels read replicated edge rows and columns, so a
	// flat image scores 0 everywhere, including along its frame. A
	// zero-padded Sobel would instead report the frame itself as an edge.
	EdgeStrength(ctx context.Context, src *raster.Raster) (convolve.Matrix, error)

	// DetectEdges runs the Canny detector on src.
	DetectEdges(ctx context.Context, src *raster.Raster, low, high float64) (convolve.Matrix, error)

	// EmphasizeEdges darkens each pixel of img by the share of edge pixels in
	// its cell of the full-resolution edge map. It returns the darkened image
	// and the per-cell edgeness (0..255).
	EmphasizeEdges(ctx context.Context, img *raster.Raster, edges convolve.Matrix, sensitivity float64) (*raster.Raster, convolve.Matrix, error)

	// QuantizeToPalette replaces every color with the nearest opaque palette
	// entry, keeping the source alpha.
	QuantizeToPalette(ctx context.Context, img *raster.Raster, palette []color.NRGBA) (*raster.Raster, error)

	// TrainPalette clusters the RGB values of img into at most size colors.
	// The palette is opaque and sorted by R, then G, then B.
	TrainPalette(ctx context.Context, img *raster.Raster, size int) ([]color.NRGBA, error)

	// Dither quantizes img to palette with Floyd-Steinberg error diffusion.
	Dither(ctx context.Context, img *raster.Raster, palette []color.NRGBA) (*raster.Raster, error)

	Close() error
}

// ProviderOptions configures OpenProvider.
type ProviderOptions struct {
	// Workers bounds the goroutines used per operation.
	Workers int
	// MaxIterations caps palette training. Zero uses the cluster default.
	MaxIterations int
	// Seed makes palette training reproducible. Zero seeds from the runtime.
	Seed uint64
	// Edge configures the Canny detector.
	Edge   edge.Options
	Logger *slog.Logger
}

type localProvider struct {
	opts     ProviderOptions
	engine   *convolve.Engine
	detector *edge.Detector
	logger   *slog.Logger
	closed   atomic.Bool
}

// OpenProvider returns a Provider backed by the in-process convolution,
// edge and clustering engines.
func OpenProvider(ctx context.Context, opts ProviderOptions) (Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = cluster.DefaultMaxIterations
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	edgeOpts := opts.Edge
	if edgeOpts.Workers == 0 {
		edgeOpts.Workers = opts.Workers
	}
	p := &localProvider{
		opts:     opts,
		engine:   convolve.NewEngine(opts.Workers),
		detector: edge.NewDetector(edgeOpts, logger),
		logger:   logger,
	}
	logger.Debug("pixelation provider opened", "workers", opts.Workers)
	return p, nil
}

func (p *localProvider) Close() error {
	if p.closed.Swap(true) {
		return ErrProviderClosed
	}
	p.logger.Debug("pixelation provider closed")
	return nil
}

func (p *localProvider) check(ctx context.Context) error {
	if p.closed.Load() {
		return ErrProviderClosed
	}
	return ctx.Err()
}

// cellBounds returns the half-open source range covered by output index i
// when n source samples are split into m cells.
func cellBounds(i, n, m int) (lo, hi int) {
	return i * n / m, (i + 1) * n / m
}

func checkTarget(src *raster.Raster, width, height int) error {
	if width < 1 || height < 1 || width > src.Width || height > src.Height {
		return fmt.Errorf("%w: %dx%d from %dx%d", ErrInvalidTarget, width, height, src.Width, src.Height)
	}
	return nil
}

func (p *localProvider) MedianResize(ctx context.Context, src *raster.Raster, width, height int) (*raster.Raster, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := checkTarget(src, width, height); err != nil {
		return nil, err
	}

	dst, err := raster.New(width, height)
	if err != nil {
		return nil, err
	}
	err = parallel.Rows(ctx, height, p.opts.Workers, func(lo, hi int) {
		var values []uint8
		for y := lo; y < hi; y++ {
			y0, y1 := cellBounds(y, src.Height, height)
			for x := 0; x < width; x++ {
				x0, x1 := cellBounds(x, src.Width, width)
				out := dst.Offset(x, y)
				for c := 0; c < raster.Channels; c++ {
					values = values[:0]
					for cy := y0; cy < y1; cy++ {
						for cx := x0; cx < x1; cx++ {
							values = append(values, src.Pix[src.Offset(cx, cy)+c])
						}
					}
					slices.Sort(values)
					dst.Pix[out+c] = values[len(values)/2]
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

func (p *localProvider) EdgeStrength(ctx context.Context, src *raster.Raster) (convolve.Matrix, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	sumX := convolve.NewMatrix(src.Height, src.Width)
	sumY := convolve.NewMatrix(src.Height, src.Width)
	for c := 0; c < raster.Channels; c++ {
		channel := convolve.NewMatrix(src.Height, src.Width)
		for y := 0; y < src.Height; y++ {
			for x := 0; x < src.Width; x++ {
				channel[y][x] = float64(src.Pix[src.Offset(x, y)+c])
			}
		}
		gx, err := p.engine.SobelX(ctx, channel)
		if err != nil {
			return nil, err
		}
		gy, err := p.engine.SobelY(ctx, channel)
		if err != nil {
			return nil, err
		}
		for y := range gx {
			for x := range gx[y] {
				sumX[y][x] += math.Abs(gx[y][x])
				sumY[y][x] += math.Abs(gy[y][x])
			}
		}
	}

	maxX, maxY := sumX.MaxAbs(), sumY.MaxAbs()
	strength := convolve.NewMatrix(src.Height, src.Width)
	for y := range strength {
		for x := range strength[y] {
			var nx, ny float64
			if maxX > 0 {
				nx = sumX[y][x] / maxX
			}
			if maxY > 0 {
				ny = sumY[y][x] / maxY
			}
			strength[y][x] = math.Max(nx, ny)
		}
	}
	return strength, nil
}

func (p *localProvider) DetectEdges(ctx context.Context, src *raster.Raster, low, high float64) (convolve.Matrix, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	return p.detector.Detect(ctx, src, low, high)
}

func (p *localProvider) EmphasizeEdges(ctx context.Context, img *raster.Raster, edges convolve.Matrix, sensitivity float64) (*raster.Raster, convolve.Matrix, error) {
	if err := p.check(ctx); err != nil {
		return nil, nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, nil, err
	}
	if err := edges.Validate(); err != nil {
		return nil, nil, fmt.Errorf("edge map: %w", err)
	}
	if !(sensitivity > 0 && sensitivity <= 100) {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidSensitivity, sensitivity)
	}
	srcH, srcW := edges.Height(), edges.Width()
	if img.Width > srcW || img.Height > srcH {
		return nil, nil, fmt.Errorf("%w: %dx%d from %dx%d", ErrInvalidTarget, img.Width, img.Height, srcW, srcH)
	}

	dst := img.Clone()
	edgeness := convolve.NewMatrix(img.Height, img.Width)
	exponent := 100/sensitivity - 1
	err := parallel.Rows(ctx, img.Height, p.opts.Workers, func(lo, hi int) {
		for y := lo; y < hi; y++ {
			y0, y1 := cellBounds(y, srcH, img.Height)
			for x := 0; x < img.Width; x++ {
				x0, x1 := cellBounds(x, srcW, img.Width)
				count := 0
				for cy := y0; cy < y1; cy++ {
					for cx := x0; cx < x1; cx++ {
						if edges[cy][cx] != 0 {
							count++
						}
					}
				}
				e := 255 * count / ((y1 - y0) * (x1 - x0))
				edgeness[y][x] = float64(e)

				keep := 1 - math.Pow(float64(e)/255, exponent)
				i := dst.Offset(x, y)
				for c := 0; c < 3; c++ {
					dst.Pix[i+c] = uint8(keep * float64(dst.Pix[i+c]))
				}
			}
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return dst, edgeness, nil
}

// opaque returns the palette entries with non-zero alpha.
func opaque(palette []color.NRGBA) []color.NRGBA {
	out := make([]color.NRGBA, 0, len(palette))
	for _, c := range palette {
		if c.A != 0 {
			out = append(out, c)
		}
	}
	return out
}

func rgbVectors(palette []color.NRGBA) []vecmath.Vector {
	out := make([]vecmath.Vector, len(palette))
	for i, c := range palette {
		out[i] = vecmath.Vector{float64(c.R), float64(c.G), float64(c.B)}
	}
	return out
}

func (p *localProvider) QuantizeToPalette(ctx context.Context, img *raster.Raster, palette []color.NRGBA) (*raster.Raster, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	palette = opaque(palette)
	if len(palette) == 0 {
		return nil, ErrEmptyPalette
	}

	reps := rgbVectors(palette)
	dst := img.Clone()
	err := parallel.Rows(ctx, img.Height, p.opts.Workers, func(lo, hi int) {
		v := make(vecmath.Vector, 3)
		for y := lo; y < hi; y++ {
			for x := 0; x < img.Width; x++ {
				i := dst.Offset(x, y)
				v[0], v[1], v[2] = float64(dst.Pix[i]), float64(dst.Pix[i+1]), float64(dst.Pix[i+2])
				c := palette[cluster.NearestIndex(reps, v, vecmath.L2)]
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2] = c.R, c.G, c.B
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

func (p *localProvider) TrainPalette(ctx context.Context, img *raster.Raster, size int) ([]color.NRGBA, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	vectors := make([]vecmath.Vector, 0, img.Width*img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := img.Offset(x, y)
			vectors = append(vectors, vecmath.Vector{float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2])})
		}
	}

	opts := []cluster.Option{
		cluster.WithMaxIterations(p.opts.MaxIterations),
		cluster.WithWorkers(p.opts.Workers),
		cluster.WithLogger(p.logger),
	}
	if p.opts.Seed != 0 {
		opts = append(opts, cluster.WithRand(rand.New(rand.NewPCG(p.opts.Seed, p.opts.Seed))))
	}
	model, err := cluster.KMeansContext(ctx, size, vectors, vecmath.L2, opts...)
	if err != nil {
		return nil, fmt.Errorf("train palette: %w", err)
	}

	palette := make([]color.NRGBA, 0, model.K())
	for _, r := range model.Representatives() {
		palette = append(palette, color.NRGBA{R: round8(r[0]), G: round8(r[1]), B: round8(r[2]), A: 255})
	}
	slices.SortFunc(palette, comparePalette)
	// Rounding can merge neighbouring means.
	palette = slices.Compact(palette)

	p.logger.Debug("palette trained",
		"requested", size,
		"colors", len(palette),
		"iterations", model.Iterations(),
		"converged", model.Converged())
	return palette, nil
}

func comparePalette(a, b color.NRGBA) int {
	if c := cmp.Compare(a.R, b.R); c != 0 {
		return c
	}
	if c := cmp.Compare(a.G, b.G); c != 0 {
		return c
	}
	return cmp.Compare(a.B, b.B)
}

// Floyd-Steinberg neighbours: right, below-left, below, below-right.
var (
	ditherDY     = [4]int{0, 1, 1, 1}
	ditherDX     = [4]int{1, -1, 0, 1}
	ditherWeight = [4]float64{7, 3, 5, 1}
)

func (p *localProvider) Dither(ctx context.Context, img *raster.Raster, palette []color.NRGBA) (*raster.Raster, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	palette = opaque(palette)
	if len(palette) == 0 {
		return nil, ErrEmptyPalette
	}

	// Error diffusion is inherently sequential in scan order.
	w, h := img.Width, img.Height
	work := make([]float64, 3*w*h)
	for i := 0; i < w*h; i++ {
		for c := 0; c < 3; c++ {
			work[3*i+c] = float64(img.Pix[raster.Channels*i+c])
		}
	}

	reps := rgbVectors(palette)
	dst := img.Clone()
	for y := 0; y < h; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < w; x++ {
			idx := y*w + x
			old := vecmath.Vector(work[3*idx : 3*idx+3])
			c := palette[cluster.NearestIndex(reps, old, vecmath.L2)]
			quantErr := [3]float64{old[0] - float64(c.R), old[1] - float64(c.G), old[2] - float64(c.B)}

			o := raster.Channels * idx
			dst.Pix[o], dst.Pix[o+1], dst.Pix[o+2] = c.R, c.G, c.B

			for k := range ditherWeight {
				ny, nx := y+ditherDY[k], x+ditherDX[k]
				if ny >= h || nx < 0 || nx >= w {
					continue
				}
				n := 3 * (ny*w + nx)
				for ch := 0; ch < 3; ch++ {
					work[n+ch] += quantErr[ch] * ditherWeight[k] / 16
				}
			}
		}
	}
	return dst, nil
}

func round8(v float64) uint8 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}
