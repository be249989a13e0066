package pixelate

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/pixel-tools-mcp/internal/convolve"
	"github.com/ironsheep/pixel-tools-mcp/internal/edge"
	"github.com/ironsheep/pixel-tools-mcp/internal/raster"
	"github.com/ironsheep/pixel-tools-mcp/internal/vecmath"
)

var (
	black = color.NRGBA{A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.NRGBA{R: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
)

func newRaster(t *testing.T, w, h int, fill func(x, y int) color.NRGBA) *raster.Raster {
	t.Helper()
	r, err := raster.New(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r.SetRGBA(x, y, fill(x, y))
		}
	}
	return r
}

func openProvider(t *testing.T) Provider {
	t.Helper()
	p, err := OpenProvider(context.Background(), ProviderOptions{Seed: 42})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func halves(w, h int, left, right color.NRGBA) func(x, y int) color.NRGBA {
	return func(x, _ int) color.NRGBA {
		if x < w/2 {
			return left
		}
		return right
	}
}

func TestMedianResize(t *testing.T) {
	p := openProvider(t)
	values := [][]uint8{
		{10, 20, 100, 100},
		{30, 40, 100, 90},
		{0, 0, 7, 7},
		{0, 9, 7, 7},
	}
	src := newRaster(t, 4, 4, func(x, y int) color.NRGBA {
		v := values[y][x]
		return color.NRGBA{R: v, G: 255 - v, B: v, A: 255}
	})

	out, err := p.MedianResize(context.Background(), src, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Width)
	assert.Equal(t, 2, out.Height)
	// Upper median of {10, 20, 30, 40} is 30; of {100, 100, 100, 90} is 100.
	assert.Equal(t, color.NRGBA{R: 30, G: 235, B: 30, A: 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 100, G: 155, B: 100, A: 255}, out.RGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{R: 0, G: 255, B: 0, A: 255}, out.RGBAAt(0, 1))
	assert.Equal(t, color.NRGBA{R: 7, G: 248, B: 7, A: 255}, out.RGBAAt(1, 1))
}

func TestMedianResize_IdentityAndUnevenCells(t *testing.T) {
	p := openProvider(t)
	src := newRaster(t, 5, 3, func(x, y int) color.NRGBA {
		return color.NRGBA{R: uint8(x * 40), G: uint8(y * 80), A: 255}
	})

	same, err := p.MedianResize(context.Background(), src, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, same.Pix)

	// Cells split 5 columns as [0,2) and [2,5).
	out, err := p.MedianResize(context.Background(), src, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, uint8(40), out.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(120), out.RGBAAt(1, 0).R)
}

func TestMedianResize_InvalidTarget(t *testing.T) {
	p := openProvider(t)
	src := newRaster(t, 4, 4, func(int, int) color.NRGBA { return black })
	for _, size := range [][2]int{{0, 2}, {2, 0}, {5, 2}, {2, 5}} {
		_, err := p.MedianResize(context.Background(), src, size[0], size[1])
		assert.ErrorIs(t, err, ErrInvalidTarget, "size %v", size)
	}
}

func TestProvider_Closed(t *testing.T) {
	p, err := OpenProvider(context.Background(), ProviderOptions{})
	require.NoError(t, err)
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Close(), ErrProviderClosed)

	ctx := context.Background()
	src := newRaster(t, 2, 2, func(int, int) color.NRGBA { return black })
	_, err = p.MedianResize(ctx, src, 1, 1)
	assert.ErrorIs(t, err, ErrProviderClosed)
	_, err = p.EdgeStrength(ctx, src)
	assert.ErrorIs(t, err, ErrProviderClosed)
	_, err = p.DetectEdges(ctx, src, 0.1, 0.3)
	assert.ErrorIs(t, err, ErrProviderClosed)
	_, _, err = p.EmphasizeEdges(ctx, src, convolve.NewMatrix(2, 2), 50)
	assert.ErrorIs(t, err, ErrProviderClosed)
	_, err = p.QuantizeToPalette(ctx, src, []color.NRGBA{white})
	assert.ErrorIs(t, err, ErrProviderClosed)
	_, err = p.TrainPalette(ctx, src, 2)
	assert.ErrorIs(t, err, ErrProviderClosed)
	_, err = p.Dither(ctx, src, []color.NRGBA{white})
	assert.ErrorIs(t, err, ErrProviderClosed)
}

func TestOpenProvider_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := OpenProvider(ctx, ProviderOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmphasizeEdges(t *testing.T) {
	p := openProvider(t)
	img := newRaster(t, 2, 1, func(int, int) color.NRGBA {
		return color.NRGBA{R: 200, G: 100, B: 50, A: 90}
	})
	edges := convolve.Matrix{
		{255, 0, 0, 0},
		{255, 0, 0, 0},
	}

	out, edgeness, err := p.EmphasizeEdges(context.Background(), img, edges, 50)
	require.NoError(t, err)
	// Two of four pixels: 255*2/4 = 127 with integer division.
	assert.Equal(t, convolve.Matrix{{127, 0}}, edgeness)

	left := out.RGBAAt(0, 0)
	assert.InDelta(t, 100, int(left.R), 1)
	assert.InDelta(t, 50, int(left.G), 1)
	assert.InDelta(t, 25, int(left.B), 1)
	assert.Equal(t, uint8(90), left.A)
	assert.Equal(t, img.RGBAAt(1, 0), out.RGBAAt(1, 0))

	// The input is left untouched.
	assert.Equal(t, uint8(200), img.RGBAAt(0, 0).R)
}

func TestEmphasizeEdges_Invalid(t *testing.T) {
	p := openProvider(t)
	img := newRaster(t, 2, 1, func(int, int) color.NRGBA { return white })
	for _, s := range []float64{0, -3, 101} {
		_, _, err := p.EmphasizeEdges(context.Background(), img, convolve.NewMatrix(2, 2), s)
		assert.ErrorIs(t, err, ErrInvalidSensitivity)
	}
	_, _, err := p.EmphasizeEdges(context.Background(), img, convolve.NewMatrix(1, 1), 50)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestQuantizeToPalette(t *testing.T) {
	p := openProvider(t)
	img := newRaster(t, 2, 1, func(x, _ int) color.NRGBA {
		if x == 0 {
			return color.NRGBA{R: 250, G: 10, B: 10, A: 77}
		}
		return color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	})
	palette := []color.NRGBA{black, white, {R: 255}}

	out, err := p.QuantizeToPalette(context.Background(), img, palette)
	require.NoError(t, err)
	// The transparent red entry is ignored.
	assert.Equal(t, color.NRGBA{A: 77}, out.RGBAAt(0, 0))
	assert.Equal(t, white, out.RGBAAt(1, 0))

	_, err = p.QuantizeToPalette(context.Background(), img, []color.NRGBA{{R: 1}})
	assert.ErrorIs(t, err, ErrEmptyPalette)
}

func TestTrainPalette(t *testing.T) {
	p := openProvider(t)
	img := newRaster(t, 4, 4, halves(4, 4, red, blue))

	palette, err := p.TrainPalette(context.Background(), img, 4)
	require.NoError(t, err)
	assert.Equal(t, []color.NRGBA{blue, red}, palette)
}

func TestTrainPalette_Seeded(t *testing.T) {
	img := newRaster(t, 9, 7, func(x, y int) color.NRGBA {
		return color.NRGBA{R: uint8(x * 28), G: uint8(y * 36), B: uint8((x * y) % 256), A: 255}
	})
	train := func() []color.NRGBA {
		p := openProvider(t)
		palette, err := p.TrainPalette(context.Background(), img, 5)
		require.NoError(t, err)
		return palette
	}
	first := train()
	assert.Len(t, first, 5)
	assert.Equal(t, first, train())
}

func TestDither(t *testing.T) {
	p := openProvider(t)
	gray := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	img := newRaster(t, 8, 8, func(int, int) color.NRGBA { return gray })

	out, err := p.Dither(context.Background(), img, []color.NRGBA{black, white})
	require.NoError(t, err)

	var nBlack, nWhite int
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			switch out.RGBAAt(x, y) {
			case black:
				nBlack++
			case white:
				nWhite++
			default:
				t.Fatalf("pixel (%d,%d) not in palette: %v", x, y, out.RGBAAt(x, y))
			}
		}
	}
	assert.Greater(t, nBlack, 16)
	assert.Greater(t, nWhite, 16)
}

func TestDither_ExactColorsUnchanged(t *testing.T) {
	p := openProvider(t)
	img := newRaster(t, 4, 4, halves(4, 4, red, blue))
	out, err := p.Dither(context.Background(), img, []color.NRGBA{blue, red, white})
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestEdgeStrength(t *testing.T) {
	p := openProvider(t)
	flat := newRaster(t, 4, 4, func(int, int) color.NRGBA { return red })
	s, err := p.EdgeStrength(context.Background(), flat)
	require.NoError(t, err)
	assert.Equal(t, convolve.NewMatrix(4, 4), s)

	img := newRaster(t, 6, 4, halves(6, 4, black, white))
	s, err = p.EdgeStrength(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.MaxAbs())
	assert.Equal(t, 0.0, s[0][0])
	assert.Equal(t, 0.0, s[3][5])

	// A vertical edge scores the same on the top and bottom rows as inside:
	// border taps replicate the edge row rather than reading zeros.
	for x := 0; x < 6; x++ {
		assert.Equal(t, s[1][x], s[0][x], "column %d", x)
		assert.Equal(t, s[2][x], s[3][x], "column %d", x)
	}
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"dominant", "edge", "median"}, Names())

	p := openProvider(t)
	for _, name := range Names() {
		s, err := New(name, p)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}
	_, err := New("superpixel", p)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestMedianStrategy_TrainedPalette(t *testing.T) {
	src := newRaster(t, 8, 8, halves(8, 8, red, blue))
	cfg := DefaultConfig(4, 4)
	cfg.PaletteSize = 8

	res, err := Pixelate(context.Background(), "median", src, cfg, ProviderOptions{Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, []color.NRGBA{blue, red}, res.Palette)
	assert.Equal(t, red, res.Output.RGBAAt(0, 0))
	assert.Equal(t, blue, res.Output.RGBAAt(3, 3))
	assert.Nil(t, res.Edges)
}

func TestDominantStrategy(t *testing.T) {
	src := newRaster(t, 4, 4, func(x, y int) color.NRGBA {
		if x == 0 && y == 0 {
			return white
		}
		return black
	})

	res, err := Pixelate(context.Background(), "dominant", src, DefaultConfig(2, 2), ProviderOptions{})
	require.NoError(t, err)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, black, res.Output.RGBAAt(x, y))
		}
	}

	cfg := DefaultConfig(2, 2)
	cfg.EdgeThreshold = 0.5
	res, err = Pixelate(context.Background(), "dominant", src, cfg, ProviderOptions{})
	require.NoError(t, err)
	// 255*255 / (4*255) = 63.75
	assert.Equal(t, color.NRGBA{R: 63, G: 63, B: 63, A: 255}, res.Output.RGBAAt(0, 0))
	assert.Equal(t, black, res.Output.RGBAAt(1, 1))
}

func TestAlphaWeightedMean(t *testing.T) {
	cell := []vecmath.Vector{{255, 0, 0, 255}, {0, 0, 255, 85}}
	assert.Equal(t, color.NRGBA{R: 191, G: 0, B: 63, A: 200}, alphaWeightedMean(cell, 200))

	transparent := []vecmath.Vector{{9, 9, 9, 0}}
	assert.Equal(t, color.NRGBA{A: 7}, alphaWeightedMean(transparent, 7))
}

func TestEdgeStrategy(t *testing.T) {
	src := newRaster(t, 8, 8, halves(8, 8, black, white))

	res, err := Pixelate(context.Background(), "edge", src, DefaultConfig(2, 2), ProviderOptions{})
	require.NoError(t, err)
	require.NotNil(t, res.Edges)
	assert.Equal(t, 8, edge.Count(res.Edges))

	for y := 0; y < 2; y++ {
		// One edge column of four in a 4x4 cell: 255*4/16 = 63.
		assert.Equal(t, 63.0, res.Edgeness[y][0]+res.Edgeness[y][1])
		assert.Equal(t, black, res.Output.RGBAAt(0, y))
		right := res.Output.RGBAAt(1, y)
		if res.Edgeness[y][1] > 0 {
			assert.InDelta(t, 192, int(right.R), 1)
		} else {
			assert.Equal(t, white, right)
		}
	}
}

func TestPixelate_PaletteInWithDither(t *testing.T) {
	gray := color.NRGBA{R: 120, G: 120, B: 120, A: 255}
	src := newRaster(t, 16, 16, func(int, int) color.NRGBA { return gray })
	cfg := DefaultConfig(8, 8)
	cfg.Palette = []color.NRGBA{black, white}
	cfg.Dither = true

	res, err := Pixelate(context.Background(), "median", src, cfg, ProviderOptions{})
	require.NoError(t, err)
	assert.Nil(t, res.Palette)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := res.Output.RGBAAt(x, y)
			assert.True(t, c == black || c == white, "pixel (%d,%d) = %v", x, y, c)
		}
	}
}

func TestPixelate_UnknownStrategy(t *testing.T) {
	src := newRaster(t, 2, 2, func(int, int) color.NRGBA { return black })
	_, err := Pixelate(context.Background(), "nope", src, DefaultConfig(1, 1), ProviderOptions{})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestPaletteImage(t *testing.T) {
	palette := make([]color.NRGBA, 20)
	for i := range palette {
		palette[i] = color.NRGBA{R: uint8(i), A: 255}
	}
	img, err := PaletteImage(palette)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, palette[17], img.RGBAAt(1, 1))
	assert.Equal(t, color.NRGBA{}, img.RGBAAt(15, 1))

	_, err = PaletteImage(nil)
	assert.ErrorIs(t, err, ErrEmptyPalette)
}
