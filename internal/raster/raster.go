// Package raster defines the 4-channel 8-bit pixel buffer shared by the edge
// detector and the pixelation strategies.
//
// A Raster stores straight (non-premultiplied) RGBA samples row-major and
// channel-interleaved, the layout of image.NRGBA with a tight stride.
// Components treat a Raster as read-only input and allocate new buffers for
// their output.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/pixel-tools-mcp/internal/convolve"
	"github.com/ironsheep/pixel-tools-mcp/internal/vecmath"
)

// Channels is the number of interleaved samples per pixel.
const Channels = 4

var (
	// ErrInvalidDimensions is returned for a non-positive width or height.
	ErrInvalidDimensions = errors.New("raster dimensions must be positive")

	// ErrBufferSize is returned when Pix does not hold exactly Width*Height pixels.
	ErrBufferSize = errors.New("raster buffer size does not match dimensions")
)

// Raster is a Height x Width grid of R, G, B, A samples.
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a transparent black raster.
func New(width, height int) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Raster{Width: width, Height: height, Pix: make([]uint8, Channels*width*height)}, nil
}

// FromPix wraps an existing buffer after checking its size. The buffer is
// not copied.
func FromPix(width, height int, pix []uint8) (*Raster, error) {
	r := &Raster{Width: width, Height: height, Pix: pix}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// FromImage copies any image.Image into a Raster, converting to straight
// alpha. The origin of the result is the image's Bounds().Min.
func FromImage(img image.Image) (*Raster, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, b.Dx(), b.Dy())
	}
	nrgba := imaging.Clone(img)
	return &Raster{Width: b.Dx(), Height: b.Dy(), Pix: nrgba.Pix}, nil
}

// Validate checks dimensions and buffer length.
func (r *Raster) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, r.Width, r.Height)
	}
	if want := Channels * r.Width * r.Height; len(r.Pix) != want {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrBufferSize, len(r.Pix), want)
	}
	return nil
}

// Offset returns the index of the red sample of pixel (x, y).
func (r *Raster) Offset(x, y int) int {
	return Channels * (y*r.Width + x)
}

// RGBAAt returns the four samples of pixel (x, y).
func (r *Raster) RGBAAt(x, y int) color.NRGBA {
	i := r.Offset(x, y)
	return color.NRGBA{R: r.Pix[i], G: r.Pix[i+1], B: r.Pix[i+2], A: r.Pix[i+3]}
}

// SetRGBA stores c at pixel (x, y).
func (r *Raster) SetRGBA(x, y int, c color.NRGBA) {
	i := r.Offset(x, y)
	r.Pix[i], r.Pix[i+1], r.Pix[i+2], r.Pix[i+3] = c.R, c.G, c.B, c.A
}

// VectorAt returns pixel (x, y) as a 4-dimensional vector.
func (r *Raster) VectorAt(x, y int) vecmath.Vector {
	i := r.Offset(x, y)
	return vecmath.Vector{float64(r.Pix[i]), float64(r.Pix[i+1]), float64(r.Pix[i+2]), float64(r.Pix[i+3])}
}

// Clone returns a deep copy of r.
func (r *Raster) Clone() *Raster {
	pix := make([]uint8, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Pix: pix}
}

// NRGBA returns an image.NRGBA view that shares r's buffer.
func (r *Raster) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    r.Pix,
		Stride: Channels * r.Width,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// Vectors returns every pixel as a 4-dimensional vector, row-major.
func (r *Raster) Vectors() []vecmath.Vector {
	out := make([]vecmath.Vector, 0, r.Width*r.Height)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			out = append(out, r.VectorAt(x, y))
		}
	}
	return out
}

// Gray converts a matrix of intensities into an 8-bit grayscale image,
// clamping values into [0, 255].
func Gray(m convolve.Matrix) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width(), m.Height()))
	for y, row := range m {
		for x, v := range row {
			img.Pix[y*img.Stride+x] = clampUint8(v)
		}
	}
	return img
}

func clampUint8(v float64) uint8 {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
