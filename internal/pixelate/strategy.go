package pixelate

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sort"

	"github.com/ironsheep/pixel-tools-mcp/internal/cluster"
	"github.com/ironsheep/pixel-tools-mcp/internal/convolve"
	"github.com/ironsheep/pixel-tools-mcp/internal/raster"
	"github.com/ironsheep/pixel-tools-mcp/internal/vecmath"
)

// ErrUnknownStrategy is returned by New for an unregistered name.
var ErrUnknownStrategy = errors.New("unknown pixelation strategy")

// Config describes one pixelation request.
type Config struct {
	// Width and Height are the output size in pixels. Both must be at least 1
	// and no larger than the source.
	Width  int
	Height int

	// Palette, when non-empty, maps the output onto these colors. Entries
	// with zero alpha are ignored.
	Palette []color.NRGBA
	// PaletteSize, when Palette is empty and PaletteSize > 0, trains a
	// palette of up to this many colors from the output.
	PaletteSize int
	// Dither applies Floyd-Steinberg error diffusion when mapping to a
	// palette.
	Dither bool

	// EdgeThreshold enables the dominant strategy's edge handling: a cell
	// whose strongest edge response exceeds it uses the alpha-weighted mean.
	// Values <= 0 disable it.
	EdgeThreshold float64
	// Rank picks the dominant sample, 0 for the most typical, 1 for the
	// least.
	Rank float64

	// EdgeLow and EdgeHigh are the Canny thresholds for the edge strategy.
	EdgeLow  float64
	EdgeHigh float64
	// Sensitivity in (0, 100] controls how strongly edge cells are darkened.
	Sensitivity float64
}

// DefaultConfig returns the defaults for a width x height output.
func DefaultConfig(width, height int) Config {
	return Config{
		Width:       width,
		Height:      height,
		EdgeLow:     0.1,
		EdgeHigh:    0.3,
		Sensitivity: 50,
	}
}

// Result is the output of a Strategy.
type Result struct {
	Output *raster.Raster
	// Palette is set when a palette was trained.
	Palette []color.NRGBA
	// Edges is the full-resolution Canny map (edge strategy only).
	Edges convolve.Matrix
	// Edgeness holds the per-cell edge share, 0..255 (edge strategy only).
	Edgeness convolve.Matrix
}

// Strategy turns a source raster into a smaller, stylized one.
type Strategy interface {
	Name() string
	Pixelate(ctx context.Context, src *raster.Raster, cfg Config) (*Result, error)
}

type factory func(p Provider) Strategy

var registry = map[string]factory{
	"median":   func(p Provider) Strategy { return &medianStrategy{p: p} },
	"dominant": func(p Provider) Strategy { return &dominantStrategy{p: p} },
	"edge":     func(p Provider) Strategy { return &edgeStrategy{p: p} },
}

// Names returns the registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the strategy registered under name, bound to p.
func New(name string, p Provider) (Strategy, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownStrategy, name, Names())
	}
	return f(p), nil
}

type medianStrategy struct{ p Provider }

func (s *medianStrategy) Name() string { return "median" }

func (s *medianStrategy) Pixelate(ctx context.Context, src *raster.Raster, cfg Config) (*Result, error) {
	out, err := s.p.MedianResize(ctx, src, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	return finish(ctx, s.p, &Result{Output: out}, cfg)
}

type edgeStrategy struct{ p Provider }

func (s *edgeStrategy) Name() string { return "edge" }

func (s *edgeStrategy) Pixelate(ctx context.Context, src *raster.Raster, cfg Config) (*Result, error) {
	resized, err := s.p.MedianResize(ctx, src, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	edges, err := s.p.DetectEdges(ctx, src, cfg.EdgeLow, cfg.EdgeHigh)
	if err != nil {
		return nil, err
	}
	out, edgeness, err := s.p.EmphasizeEdges(ctx, resized, edges, cfg.Sensitivity)
	if err != nil {
		return nil, err
	}
	return finish(ctx, s.p, &Result{Output: out, Edges: edges, Edgeness: edgeness}, cfg)
}

type dominantStrategy struct{ p Provider }

func (s *dominantStrategy) Name() string { return "dominant" }

func (s *dominantStrategy) Pixelate(ctx context.Context, src *raster.Raster, cfg Config) (*Result, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := checkTarget(src, cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	var strength convolve.Matrix
	if cfg.EdgeThreshold > 0 {
		var err error
		if strength, err = s.p.EdgeStrength(ctx, src); err != nil {
			return nil, err
		}
	}

	out, err := raster.New(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	var cell []vecmath.Vector
	for y := 0; y < cfg.Height; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		y0, y1 := cellBounds(y, src.Height, cfg.Height)
		for x := 0; x < cfg.Width; x++ {
			x0, x1 := cellBounds(x, src.Width, cfg.Width)

			cell = cell[:0]
			var peak float64
			for cy := y0; cy < y1; cy++ {
				for cx := x0; cx < x1; cx++ {
					cell = append(cell, src.VectorAt(cx, cy))
					if strength != nil {
						peak = max(peak, strength[cy][cx])
					}
				}
			}

			dominant, err := cluster.DominantColor(cell, vecmath.L1, cfg.Rank)
			if err != nil {
				return nil, err
			}
			c := color.NRGBA{R: uint8(dominant[0]), G: uint8(dominant[1]), B: uint8(dominant[2]), A: uint8(dominant[3])}
			if strength != nil && peak > cfg.EdgeThreshold {
				c = alphaWeightedMean(cell, c.A)
			}
			out.SetRGBA(x, y, c)
		}
	}
	return finish(ctx, s.p, &Result{Output: out}, cfg)
}

// alphaWeightedMean averages RGB weighted by alpha, floored. A fully
// transparent cell averages to black.
func alphaWeightedMean(cell []vecmath.Vector, alpha uint8) color.NRGBA {
	var r, g, b, a float64
	for _, v := range cell {
		r += v[0] * v[3]
		g += v[1] * v[3]
		b += v[2] * v[3]
		a += v[3]
	}
	if a == 0 {
		return color.NRGBA{A: alpha}
	}
	return color.NRGBA{R: uint8(r / a), G: uint8(g / a), B: uint8(b / a), A: alpha}
}

// finish applies the palette stage shared by every strategy.
func finish(ctx context.Context, p Provider, res *Result, cfg Config) (*Result, error) {
	palette := cfg.Palette
	switch {
	case len(palette) > 0:
	case cfg.PaletteSize > 0:
		trained, err := p.TrainPalette(ctx, res.Output, cfg.PaletteSize)
		if err != nil {
			return nil, err
		}
		res.Palette = trained
		palette = trained
	default:
		return res, nil
	}

	var (
		out *raster.Raster
		err error
	)
	if cfg.Dither {
		out, err = p.Dither(ctx, res.Output, palette)
	} else {
		out, err = p.QuantizeToPalette(ctx, res.Output, palette)
	}
	if err != nil {
		return nil, err
	}
	res.Output = out
	return res, nil
}

// Pixelate opens a provider, runs the named strategy and closes the
// provider again.
func Pixelate(ctx context.Context, name string, src *raster.Raster, cfg Config, opts ProviderOptions) (*Result, error) {
	p, err := OpenProvider(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	s, err := New(name, p)
	if err != nil {
		return nil, err
	}
	res, err := s.Pixelate(ctx, src, cfg)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("pixelated",
		"strategy", s.Name(),
		"source", fmt.Sprintf("%dx%d", src.Width, src.Height),
		"output", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"palette", len(res.Palette))
	return res, nil
}

// PaletteImage lays a palette out as a swatch raster, one pixel per color and
// at most 16 colors per row.
func PaletteImage(palette []color.NRGBA) (*raster.Raster, error) {
	if len(palette) == 0 {
		return nil, ErrEmptyPalette
	}
	width := min(len(palette), 16)
	height := (len(palette) + width - 1) / width
	img, err := raster.New(width, height)
	if err != nil {
		return nil, err
	}
	for i, c := range palette {
		img.SetRGBA(i%width, i/width, c)
	}
	return img, nil
}
