package imaging

import (
	"context"
	"image"
	"image/color"
	"testing"
)

// createPatternImage creates an image with different colors in each quadrant
func createPatternImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			if x < width/2 && y < height/2 {
				c = color.NRGBA{255, 0, 0, 255} // Red top-left
			} else if x >= width/2 && y < height/2 {
				c = color.NRGBA{0, 255, 0, 255} // Green top-right
			} else if x < width/2 && y >= height/2 {
				c = color.NRGBA{0, 0, 255, 255} // Blue bottom-left
			} else {
				c = color.NRGBA{255, 255, 255, 255} // White bottom-right
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestSampleColor(t *testing.T) {
	img := solidImage(100, 100, color.NRGBA{255, 128, 64, 255})

	result, err := SampleColor(img, 50, 50)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}

	if result.Hex != "#FF8040" {
		t.Errorf("Hex: got %s, want #FF8040", result.Hex)
	}
	if result.RGB != (RGBColor{255, 128, 64}) {
		t.Errorf("RGB: got %+v", result.RGB)
	}
	if result.RGBA != (RGBAColor{255, 128, 64, 255}) {
		t.Errorf("RGBA: got %+v", result.RGBA)
	}
	if result.HSL != (HSLColor{20, 100, 63}) {
		t.Errorf("HSL: got %+v, want {20 100 63}", result.HSL)
	}
}

func TestSampleColor_Translucent(t *testing.T) {
	// Premultiplied storage must still read back as the straight color.
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.NRGBA{255, 0, 0, 128})

	result, err := SampleColor(img, 1, 1)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}
	if result.Hex != "#FF0000" || result.RGBA.A != 128 {
		t.Errorf("got %s alpha %d, want #FF0000 alpha 128", result.Hex, result.RGBA.A)
	}
}

func TestSampleColor_OffsetBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 20, 20))
	img.Set(10, 10, color.NRGBA{1, 2, 3, 255})

	result, err := SampleColor(img, 10, 10)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}
	if result.Hex != "#010203" {
		t.Errorf("Hex: got %s", result.Hex)
	}
	if _, err := SampleColor(img, 0, 0); err == nil {
		t.Error("(0,0) lies outside an image starting at (10,10)")
	}
}

func TestSampleColor_OutOfBounds(t *testing.T) {
	img := solidImage(100, 100, color.NRGBA{255, 0, 0, 255})

	tests := []struct {
		name string
		x, y int
		ok   bool
	}{
		{"negative x", -1, 50, false},
		{"negative y", 50, -1, false},
		{"x too large", 100, 50, false},
		{"y too large", 50, 100, false},
		{"top-left", 0, 0, true},
		{"bottom-right", 99, 99, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SampleColor(img, tt.x, tt.y)
			if (err == nil) != tt.ok {
				t.Errorf("SampleColor(%d,%d): err=%v, want ok=%v", tt.x, tt.y, err, tt.ok)
			}
		})
	}
}

func TestSampleColorsMulti(t *testing.T) {
	img := createPatternImage(100, 100)

	points := []LabeledPoint{
		{X: 25, Y: 25, Label: "red"},
		{X: 75, Y: 25, Label: "green"},
		{X: 25, Y: 75, Label: "blue"},
		{X: 75, Y: 75, Label: "white"},
	}

	result, err := SampleColorsMulti(img, points)
	if err != nil {
		t.Fatalf("SampleColorsMulti failed: %v", err)
	}
	if len(result.Samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(result.Samples))
	}

	expectedHex := []string{"#FF0000", "#00FF00", "#0000FF", "#FFFFFF"}
	for i, sample := range result.Samples {
		if sample.Label != points[i].Label {
			t.Errorf("sample %d label: got %s, want %s", i, sample.Label, points[i].Label)
		}
		if sample.Color.Hex != expectedHex[i] {
			t.Errorf("sample %d (%s) hex: got %s, want %s",
				i, sample.Label, sample.Color.Hex, expectedHex[i])
		}
	}

	if _, err := SampleColorsMulti(img, append(points, LabeledPoint{X: 200, Y: 50})); err == nil {
		t.Error("SampleColorsMulti should fail when any point is out of bounds")
	}
}

func TestDescribe_HSL(t *testing.T) {
	tests := []struct {
		name    string
		c       color.NRGBA
		wantHSL HSLColor
	}{
		{"red", color.NRGBA{255, 0, 0, 255}, HSLColor{0, 100, 50}},
		{"green", color.NRGBA{0, 255, 0, 255}, HSLColor{120, 100, 50}},
		{"blue", color.NRGBA{0, 0, 255, 255}, HSLColor{240, 100, 50}},
		{"white", color.NRGBA{255, 255, 255, 255}, HSLColor{0, 0, 100}},
		{"black", color.NRGBA{0, 0, 0, 255}, HSLColor{0, 0, 0}},
		{"gray", color.NRGBA{128, 128, 128, 255}, HSLColor{0, 0, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describe(tt.c).HSL; got != tt.wantHSL {
				t.Errorf("HSL: got %+v, want %+v", got, tt.wantHSL)
			}
		})
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF8040", color.NRGBA{255, 128, 64, 255}, false},
		{"00ff00", color.NRGBA{0, 255, 0, 255}, false},
		{"  #000000 ", color.NRGBA{0, 0, 0, 255}, false},
		{"#GG0000", color.NRGBA{}, true},
		{"", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPalette(t *testing.T) {
	img := createPatternImage(20, 20)

	for _, method := range []string{"kmeans", "kmedians"} {
		for _, metric := range []string{"l1", "l2", "lab"} {
			t.Run(method+"/"+metric, func(t *testing.T) {
				result, err := Palette(context.Background(), img, PaletteOptions{
					Count:  4,
					Method: method,
					Metric: metric,
					Seed:   42,
				})
				if err != nil {
					t.Fatalf("Palette failed: %v", err)
				}
				if !result.Converged {
					t.Error("four distinct colors should converge")
				}
				if result.Metric != metric {
					t.Errorf("Metric: got %s", result.Metric)
				}

				got := map[string]float64{}
				for _, c := range result.Colors {
					got[c.Hex] = c.Percentage
				}
				for _, hex := range []string{"#FF0000", "#00FF00", "#0000FF", "#FFFFFF"} {
					if got[hex] != 25 {
						t.Errorf("%s: got %.2f%%, want 25%%", hex, got[hex])
					}
				}
			})
		}
	}
}

func TestPalette_SortedByShareAndRegion(t *testing.T) {
	// Three quarters red, one quarter blue.
	img := solidImage(8, 8, color.NRGBA{255, 0, 0, 255})
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.NRGBA{0, 0, 255, 255})
		}
	}

	result, err := Palette(context.Background(), img, PaletteOptions{Count: 2, Seed: 1})
	if err != nil {
		t.Fatalf("Palette failed: %v", err)
	}
	if len(result.Colors) != 2 {
		t.Fatalf("expected 2 colors, got %d", len(result.Colors))
	}
	if result.Colors[0].Hex != "#FF0000" || result.Colors[0].Percentage != 75 {
		t.Errorf("first color: got %s %.2f%%", result.Colors[0].Hex, result.Colors[0].Percentage)
	}
	if result.Method != "kmeans" || result.Metric != "l2" {
		t.Errorf("defaults: got %s/%s", result.Method, result.Metric)
	}

	// The top-left quarter is pure blue; asking for more colors than exist
	// reduces the count.
	result, err = Palette(context.Background(), img, PaletteOptions{
		Count:  3,
		Region: &Region{X1: 0, Y1: 0, X2: 4, Y2: 4},
	})
	if err != nil {
		t.Fatalf("Palette with region failed: %v", err)
	}
	if len(result.Colors) != 1 || result.Colors[0].Hex != "#0000FF" || result.Colors[0].Percentage != 100 {
		t.Errorf("region palette: got %+v", result.Colors)
	}
}

func TestPalette_SkipsTransparentPixels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.NRGBA{0, 255, 0, 255})

	result, err := Palette(context.Background(), img, PaletteOptions{Count: 2})
	if err != nil {
		t.Fatalf("Palette failed: %v", err)
	}
	if len(result.Colors) != 1 || result.Colors[0].Hex != "#00FF00" {
		t.Errorf("got %+v", result.Colors)
	}

	if _, err := Palette(context.Background(), image.NewNRGBA(image.Rect(0, 0, 2, 2)), PaletteOptions{Count: 2}); err == nil {
		t.Error("a fully transparent image has no palette")
	}
}

func TestPalette_Errors(t *testing.T) {
	img := createPatternImage(10, 10)
	ctx := context.Background()

	tests := []struct {
		name string
		opts PaletteOptions
	}{
		{"bad method", PaletteOptions{Count: 2, Method: "median-cut"}},
		{"bad metric", PaletteOptions{Count: 2, Metric: "cosine"}},
		{"zero count", PaletteOptions{Count: 0}},
		{"region outside", PaletteOptions{Count: 2, Region: &Region{X1: 5, Y1: 5, X2: 50, Y2: 50}}},
		{"empty region", PaletteOptions{Count: 2, Region: &Region{X1: 5, Y1: 5, X2: 5, Y2: 8}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Palette(ctx, img, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}
