package imaging

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/pixel-tools-mcp/internal/cluster"
	"github.com/ironsheep/pixel-tools-mcp/internal/raster"
	"github.com/ironsheep/pixel-tools-mcp/internal/vecmath"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RGBAColor represents an RGBA color with 8-bit, non-premultiplied components.
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"` // 0 = fully transparent, 255 = opaque
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-359 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex  string    `json:"hex"` // "#RRGGBB" (no alpha)
	RGB  RGBColor  `json:"rgb"`
	RGBA RGBAColor `json:"rgba"`
	HSL  HSLColor  `json:"hsl"`
}

// describe renders c in every representation. Hex and HSL ignore alpha.
func describe(c color.NRGBA) ColorResult {
	cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	h, s, l := cf.Hsl()
	return ColorResult{
		Hex:  strings.ToUpper(cf.Hex()),
		RGB:  RGBColor{R: c.R, G: c.G, B: c.B},
		RGBA: RGBAColor{R: c.R, G: c.G, B: c.B, A: c.A},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}
}

// ParseHexColor parses "#RRGGBB" (the leading '#' is optional) into an
// opaque color.
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	cf, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := cf.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Coordinates are 0-based with origin at the top-left of the image bounds.
// Colors are reported non-premultiplied, so a half-transparent red pixel
// reads as #FF0000 with alpha 128.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if !image.Pt(x, y).In(bounds) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	result := describe(c)
	return &result, nil
}

// LabeledPoint represents a pixel coordinate with an optional descriptive label.
type LabeledPoint struct {
	X     int
	Y     int
	Label string
}

// LabeledColorResult combines a color sample with its location and optional label.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`
}

// MultiColorResult contains color samples in input order.
type MultiColorResult struct {
	Samples []LabeledColorResult `json:"samples"`
}

// SampleColorsMulti extracts colors at multiple pixel coordinates in a single
// call. Any out-of-bounds point fails the whole call.
func SampleColorsMulti(img image.Image, points []LabeledPoint) (*MultiColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))

	for _, p := range points {
		c, err := SampleColor(img, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		results = append(results, LabeledColorResult{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Color: *c,
		})
	}

	return &MultiColorResult{Samples: results}, nil
}

// PaletteOptions controls palette extraction.
type PaletteOptions struct {
	// Count is the number of colors requested. Fewer are returned when the
	// image has fewer distinct colors.
	Count int
	// Method is "kmeans" (default) or "kmedians". K-medians reports colors
	// that actually occur in the image.
	Method string
	// Metric is "l1", "l2" (default) or "lab".
	Metric string
	// Region limits extraction to part of the image.
	Region *Region

	Workers       int
	MaxIterations int
	// Seed fixes the initial cluster choice; 0 picks a random one.
	Seed   uint64
	Logger *slog.Logger
}

// PaletteColor is one palette entry with the share of pixels it represents.
type PaletteColor struct {
	ColorResult
	Percentage float64 `json:"percentage"`
}

// PaletteResult lists the extracted colors, most common first.
type PaletteResult struct {
	Method     string         `json:"method"`
	Metric     string         `json:"metric"`
	Iterations int            `json:"iterations"`
	Converged  bool           `json:"converged"`
	Colors     []PaletteColor `json:"colors"`
}

// Palette clusters the opaque and translucent pixels of img (fully
// transparent pixels are skipped) and reports one color per cluster.
//
// Each pixel is an R, G, B, A vector. The reported color is the cluster
// representative rounded to 8 bits; Percentage is the share of clustered
// pixels assigned to it.
func Palette(ctx context.Context, img image.Image, opts PaletteOptions) (*PaletteResult, error) {
	if opts.Method == "" {
		opts.Method = "kmeans"
	}
	if opts.Metric == "" {
		opts.Metric = "l2"
	}
	metric, err := vecmath.ParseMetric(opts.Metric)
	if err != nil {
		return nil, err
	}
	dist, err := vecmath.Provider(metric)
	if err != nil {
		return nil, err
	}

	var fitFn func(context.Context, int, []vecmath.Vector, vecmath.DistanceFunc, ...cluster.Option) (*cluster.Model, error)
	switch opts.Method {
	case "kmeans":
		fitFn = cluster.KMeansContext
	case "kmedians":
		fitFn = cluster.KMediansContext
	default:
		return nil, fmt.Errorf("unknown palette method: %s", opts.Method)
	}

	src, err := cropTo(img, opts.Region)
	if err != nil {
		return nil, err
	}
	r, err := raster.FromImage(src)
	if err != nil {
		return nil, err
	}
	vectors := make([]vecmath.Vector, 0, r.Width*r.Height)
	for _, v := range r.Vectors() {
		if v[3] > 0 {
			vectors = append(vectors, v)
		}
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("image has no visible pixels")
	}

	clusterOpts := []cluster.Option{cluster.WithWorkers(opts.Workers), cluster.WithLogger(opts.Logger)}
	if opts.MaxIterations != 0 {
		clusterOpts = append(clusterOpts, cluster.WithMaxIterations(opts.MaxIterations))
	}
	if opts.Seed != 0 {
		clusterOpts = append(clusterOpts, cluster.WithRand(rand.New(rand.NewPCG(opts.Seed, opts.Seed))))
	}
	model, err := fitFn(ctx, opts.Count, vectors, dist, clusterOpts...)
	if err != nil {
		return nil, err
	}

	counts := make([]int, model.K())
	for _, v := range vectors {
		i, err := model.Assign(v)
		if err != nil {
			return nil, err
		}
		counts[i]++
	}
	colors := make([]PaletteColor, 0, model.K())
	for i, rep := range model.Representatives() {
		colors = append(colors, PaletteColor{
			ColorResult: describe(vectorColor(rep)),
			Percentage:  float64(counts[i]) / float64(len(vectors)) * 100,
		})
	}
	sort.SliceStable(colors, func(i, j int) bool {
		return colors[i].Percentage > colors[j].Percentage
	})

	return &PaletteResult{
		Method:     opts.Method,
		Metric:     metric.String(),
		Iterations: model.Iterations(),
		Converged:  model.Converged(),
		Colors:     colors,
	}, nil
}

// vectorColor rounds an R, G, B, A vector to the nearest 8-bit color.
func vectorColor(v vecmath.Vector) color.NRGBA {
	ch := func(i int) uint8 {
		if i >= len(v) {
			return 255
		}
		return uint8(math.Round(max(0, min(255, v[i]))))
	}
	return color.NRGBA{R: ch(0), G: ch(1), B: ch(2), A: ch(3)}
}
