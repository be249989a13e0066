package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/pixel-tools-mcp/internal/raster"
)

// Region represents a rectangular region within an image.
//
// (X1, Y1) is the top-left corner (inclusive) and (X2, Y2) the bottom-right
// corner (exclusive).
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Check reports whether the region is non-empty and lies inside bounds.
func (r Region) Check(bounds image.Rectangle) error {
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
	}
	if !r.Rect().In(bounds) {
		return fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.X1, r.Y1, r.X2, r.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	return nil
}

// cropTo returns img unchanged for a nil region, otherwise the validated
// sub-image as a fresh NRGBA.
func cropTo(img image.Image, region *Region) (image.Image, error) {
	if region == nil {
		return img, nil
	}
	if err := region.Check(img.Bounds()); err != nil {
		return nil, err
	}
	return imaging.Crop(img, region.Rect()), nil
}

// RegionRaster converts img, or the given region of it, to a raster.
func RegionRaster(img image.Image, region *Region) (*raster.Raster, error) {
	sub, err := cropTo(img, region)
	if err != nil {
		return nil, err
	}
	return raster.FromImage(sub)
}

// EncodedImage is a PNG image carried inline as base64.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func encodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Crop extracts a region from an image, optionally scaled by an integer
// factor. Scaling uses nearest-neighbor sampling.
func Crop(img image.Image, region Region, scale int) (*EncodedImage, error) {
	cropped, err := cropTo(img, &region)
	if err != nil {
		return nil, err
	}
	if scale > 1 {
		b := cropped.Bounds()
		cropped = imaging.Resize(cropped, b.Dx()*scale, b.Dy()*scale, imaging.NearestNeighbor)
	}
	return encodePNG(cropped)
}
