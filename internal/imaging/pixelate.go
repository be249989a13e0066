package imaging

import (
	"context"
	"fmt"

	"github.com/anthonynsimon/bild/transform"

	"github.com/ironsheep/pixel-tools-mcp/internal/pixelate"
	"github.com/ironsheep/pixel-tools-mcp/internal/raster"
)

// MaxPreviewScale bounds the nearest-neighbor preview upscale.
const MaxPreviewScale = 32

// PixelateOptions describes one pixelation request.
type PixelateOptions struct {
	Strategy string
	Width    int
	Height   int

	// Palette is an optional list of "#RRGGBB" colors to map onto.
	Palette []string
	// PaletteSize trains a palette of this many colors when Palette is empty.
	PaletteSize int
	Dither      bool

	EdgeThreshold float64
	Rank          float64
	// EdgeLow and EdgeHigh override the Canny thresholds one at a time; nil
	// keeps the default.
	EdgeLow     *float64
	EdgeHigh    *float64
	Sensitivity float64

	// PreviewScale, when > 1, adds a copy of the output enlarged by this
	// integer factor.
	PreviewScale int
}

// PixelateResult is the encoded output of a pixelation strategy.
type PixelateResult struct {
	Strategy string        `json:"strategy"`
	Image    *EncodedImage `json:"image"`
	Preview  *EncodedImage `json:"preview,omitempty"`

	// Palette lists the colors of a trained palette as "#RRGGBB".
	Palette []string `json:"palette,omitempty"`
	// PaletteSwatch shows Palette as pixels, up to 16 per row.
	PaletteSwatch *EncodedImage `json:"palette_swatch,omitempty"`
	// Edgeness is the per-cell edge share (edge strategy only).
	Edgeness *EncodedImage `json:"edgeness,omitempty"`
}

// Pixelate runs the named strategy over src and encodes the results.
func Pixelate(ctx context.Context, src *raster.Raster, opts PixelateOptions, provider pixelate.ProviderOptions) (*PixelateResult, error) {
	if opts.PreviewScale < 0 || opts.PreviewScale > MaxPreviewScale {
		return nil, fmt.Errorf("preview scale must be between 0 and %d", MaxPreviewScale)
	}

	cfg := pixelate.DefaultConfig(opts.Width, opts.Height)
	for _, hex := range opts.Palette {
		c, err := ParseHexColor(hex)
		if err != nil {
			return nil, err
		}
		cfg.Palette = append(cfg.Palette, c)
	}
	cfg.PaletteSize = opts.PaletteSize
	cfg.Dither = opts.Dither
	cfg.EdgeThreshold = opts.EdgeThreshold
	cfg.Rank = opts.Rank
	if opts.EdgeLow != nil {
		cfg.EdgeLow = *opts.EdgeLow
	}
	if opts.EdgeHigh != nil {
		cfg.EdgeHigh = *opts.EdgeHigh
	}
	if opts.Sensitivity != 0 {
		cfg.Sensitivity = opts.Sensitivity
	}

	res, err := pixelate.Pixelate(ctx, opts.Strategy, src, cfg, provider)
	if err != nil {
		return nil, err
	}

	out := res.Output.NRGBA()
	result := &PixelateResult{Strategy: opts.Strategy}
	if result.Image, err = encodePNG(out); err != nil {
		return nil, err
	}
	if opts.PreviewScale > 1 {
		b := out.Bounds()
		preview := transform.Resize(out, b.Dx()*opts.PreviewScale, b.Dy()*opts.PreviewScale, transform.NearestNeighbor)
		if result.Preview, err = encodePNG(preview); err != nil {
			return nil, err
		}
	}
	for _, c := range res.Palette {
		result.Palette = append(result.Palette, describe(c).Hex)
	}
	if len(res.Palette) > 0 {
		swatch, err := pixelate.PaletteImage(res.Palette)
		if err != nil {
			return nil, err
		}
		if result.PaletteSwatch, err = encodePNG(swatch.NRGBA()); err != nil {
			return nil, err
		}
	}
	if res.Edgeness != nil {
		if result.Edgeness, err = encodePNG(raster.Gray(res.Edgeness)); err != nil {
			return nil, err
		}
	}
	return result, nil
}
