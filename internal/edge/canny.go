package edge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/ironsheep/pixel-tools-mcp/internal/convolve"
	"github.com/ironsheep/pixel-tools-mcp/internal/raster"
)

// ErrInvalidThreshold is returned unless 0 <= low <= high <= 1.
var ErrInvalidThreshold = errors.New("edge thresholds must satisfy 0 <= low <= high <= 1")

// Label is the hysteresis classification of one pixel.
type Label uint8

const (
	None Label = iota
	Weak
	Strong
)

func (l Label) String() string {
	switch l {
	case None:
		return "none"
	case Weak:
		return "weak"
	case Strong:
		return "strong"
	default:
		return fmt.Sprintf("Label(%d)", uint8(l))
	}
}

// Options tunes the smoothing stage and the worker count.
type Options struct {
	// BlurSize is the side of the square Gaussian kernel.
	BlurSize int
	// BlurSigma is the Gaussian standard deviation.
	BlurSigma float64
	// Workers bounds the goroutines used by the convolutions. Values below 2
	// run sequentially.
	Workers int
}

// DefaultOptions returns a 5x5 blur with sigma 2, run sequentially.
func DefaultOptions() Options {
	return Options{BlurSize: 5, BlurSigma: 2, Workers: 1}
}

// Detector runs the Canny pipeline. It holds no per-image state and is safe
// for concurrent use.
type Detector struct {
	opts   Options
	engine *convolve.Engine
	logger *slog.Logger
}

// NewDetector returns a Detector. A nil logger discards output.
func NewDetector(opts Options, logger *slog.Logger) *Detector {
	def := DefaultOptions()
	if opts.BlurSize <= 0 {
		opts.BlurSize = def.BlurSize
	}
	if !(opts.BlurSigma > 0) {
		opts.BlurSigma = def.BlurSigma
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Detector{
		opts:   opts,
		engine: convolve.NewEngine(opts.Workers),
		logger: logger,
	}
}

// DetectEdges runs Detect with default options and no cancellation.
func DetectEdges(img *raster.Raster, low, high float64) (convolve.Matrix, error) {
	return NewDetector(DefaultOptions(), nil).Detect(context.Background(), img, low, high)
}

// Detect returns a binary edge map of img's dimensions: 255 on edges, 0
// elsewhere. low and high are fractions of the normalized magnitude range.
func (d *Detector) Detect(ctx context.Context, img *raster.Raster, low, high float64) (convolve.Matrix, error) {
	if err := ValidateThresholds(low, high); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	gray := Grayscale(img)
	blurred, err := d.engine.GaussianFilter(ctx, gray, d.opts.BlurSize, d.opts.BlurSigma)
	if err != nil {
		return nil, fmt.Errorf("blur: %w", err)
	}
	gx, gy, err := d.Gradients(ctx, blurred)
	if err != nil {
		return nil, err
	}

	magnitude := NormalizeMagnitude(gx, gy)
	suppressed := SuppressNonMaxima(magnitude, gx, gy)
	edges := Hysteresis(suppressed, low, high)

	d.logger.Debug("edge detection complete",
		"width", img.Width,
		"height", img.Height,
		"low", low,
		"high", high,
		"edge_pixels", Count(edges))
	return edges, nil
}

// Gradients returns the Sobel X and Y responses of a grayscale matrix.
func (d *Detector) Gradients(ctx context.Context, gray convolve.Matrix) (gx, gy convolve.Matrix, err error) {
	if gx, err = d.engine.SobelX(ctx, gray); err != nil {
		return nil, nil, fmt.Errorf("sobel x: %w", err)
	}
	if gy, err = d.engine.SobelY(ctx, gray); err != nil {
		return nil, nil, fmt.Errorf("sobel y: %w", err)
	}
	return gx, gy, nil
}

// ValidateThresholds checks 0 <= low <= high <= 1. NaN is rejected.
func ValidateThresholds(low, high float64) error {
	if !(low >= 0 && low <= high && high <= 1) {
		return fmt.Errorf("%w: low=%v high=%v", ErrInvalidThreshold, low, high)
	}
	return nil
}

// Grayscale converts img to alpha-weighted luma:
//
//	floor((0.3R + 0.59G + 0.11B) * A / 255)
//
// A fully transparent pixel is 0 whatever its color.
func Grayscale(img *raster.Raster) convolve.Matrix {
	out := convolve.NewMatrix(img.Height, img.Width)
	for y := 0; y < img.Height; y++ {
		row := out[y]
		for x := 0; x < img.Width; x++ {
			i := img.Offset(x, y)
			r, g, b, a := float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2]), float64(img.Pix[i+3])
			row[x] = math.Floor((0.3*r + 0.59*g + 0.11*b) * a / 255)
		}
	}
	return out
}

// NormalizeMagnitude returns sqrt(gx²+gy²) scaled so the largest value is
// 255. A zero maximum yields an all-zero matrix.
func NormalizeMagnitude(gx, gy convolve.Matrix) convolve.Matrix {
	mag := convolve.NewMatrix(gx.Height(), gx.Width())
	for y, row := range gx {
		for x, vx := range row {
			vy := gy[y][x]
			mag[y][x] = math.Sqrt(vx*vx + vy*vy)
		}
	}
	maxVal := mag.MaxAbs()
	if maxVal == 0 {
		return mag
	}
	for _, row := range mag {
		for x := range row {
			row[x] = row[x] / maxVal * 255
		}
	}
	return mag
}

// Compass offsets indexed by sector: (row delta, column delta).
var (
	sectorDI = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
	sectorDJ = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
)

// Sector quantizes the gradient direction atan2(gy, gx) into one of eight
// 45° sectors: round((degrees+180)/45) mod 8.
func Sector(gx, gy float64) int {
	deg := math.Atan2(gy, gx) * 180 / math.Pi
	return int(math.Round((deg+180)/45)) % 8
}

// SectorOffset returns the (row, column) step for a sector.
func SectorOffset(sector int) (di, dj int) {
	return sectorDI[sector], sectorDJ[sector]
}

// SuppressNonMaxima keeps a pixel's magnitude only when it is a local maximum
// along its gradient direction; everything else becomes 0. Neighbor reads are
// clamped to the image.
//
// The offset comes from SectorOffset. Rows grow downward and sectors 0..7
// step east, south-east, south, south-west, west, north-west, north and
// north-east. "Ahead" is the neighbor at +offset and "behind" the one at
// -offset. The pixel must be strictly greater than behind and at least equal
// to ahead, so on a two-pixel plateau (a step edge sampled between pixels)
// only the pixel behind the plateau survives. For gx < 0 (brightness rising
// to the right) that is the left pixel of the pair.
func SuppressNonMaxima(magnitude, gx, gy convolve.Matrix) convolve.Matrix {
	h, w := magnitude.Height(), magnitude.Width()
	out := convolve.NewMatrix(h, w)
	at := func(i, j int) float64 {
		return magnitude[clamp(i, 0, h-1)][clamp(j, 0, w-1)]
	}
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			g := magnitude[i][j]
			if g == 0 {
				continue
			}
			di, dj := SectorOffset(Sector(gx[i][j], gy[i][j]))
			ahead := at(i+di, j+dj)
			behind := at(i-di, j-dj)
			if g > behind && g >= ahead {
				out[i][j] = g
			}
		}
	}
	return out
}

// Classify labels each pixel Strong when >= high*255, Weak when >= low*255,
// and None otherwise. Suppressed (zero) pixels are always None, so a zero low
// threshold does not turn the background into Weak candidates.
func Classify(suppressed convolve.Matrix, low, high float64) [][]Label {
	h, w := suppressed.Height(), suppressed.Width()
	hi, lo := high*255, low*255
	labels := make([][]Label, h)
	cells := make([]Label, h*w)
	for y := range labels {
		labels[y] = cells[y*w : (y+1)*w]
		for x, v := range suppressed[y] {
			switch {
			case v <= 0:
			case v >= hi:
				labels[y][x] = Strong
			case v >= lo:
				labels[y][x] = Weak
			}
		}
	}
	return labels
}

type point struct{ y, x int }

// Hysteresis classifies suppressed magnitudes and promotes every Weak pixel
// 8-connected to a Strong one. The result holds 255 for Strong and 0
// otherwise.
//
// The flood fill uses an explicit stack, so long edge chains do not grow the
// goroutine stack.
func Hysteresis(suppressed convolve.Matrix, low, high float64) convolve.Matrix {
	h, w := suppressed.Height(), suppressed.Width()
	labels := Classify(suppressed, low, high)

	var stack []point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if labels[y][x] == Strong {
				stack = append(stack, point{y, x})
			}
		}
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				ny, nx := p.y+dy, p.x+dx
				if ny < 0 || ny >= h || nx < 0 || nx >= w {
					continue
				}
				if labels[ny][nx] == Weak {
					labels[ny][nx] = Strong
					stack = append(stack, point{ny, nx})
				}
			}
		}
	}

	out := convolve.NewMatrix(h, w)
	for y, row := range labels {
		for x, l := range row {
			if l == Strong {
				out[y][x] = 255
			}
		}
	}
	return out
}

// Count returns the number of non-zero cells in an edge map.
func Count(edges convolve.Matrix) int {
	n := 0
	for _, row := range edges {
		for _, v := range row {
			if v != 0 {
				n++
			}
		}
	}
	return n
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
