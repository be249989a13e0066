package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/pixel-tools-mcp/internal/raster"
)

// ImageCache provides thread-safe caching of loaded images to avoid redundant
// disk reads and repeated raster conversion.
//
// Decoded images are keyed by their file path. The first call to Raster for a
// path also caches the 8-bit RGBA raster the pixel pipelines work on, so
// repeated edge detection, palette and pixelation calls on the same file skip
// both decoding and conversion.
//
// ImageCache is safe for concurrent use by multiple goroutines. Cached rasters
// are shared and must be treated as read-only.
//
// # Memory Management
//
// Cached entries remain in memory until explicitly removed via Evict() or
// Clear(). A cached raster roughly doubles the footprint of an image.
type ImageCache struct {
	mu      sync.RWMutex
	images  map[string]image.Image
	rasters map[string]*raster.Raster
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images:  make(map[string]image.Image),
		rasters: make(map[string]*raster.Raster),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. JPEG and TIFF
// files carrying an EXIF orientation tag are rotated upright on load, so
// coordinates always refer to the image as it is displayed.
//
// The image is cached using the exact path string provided. Different paths to
// the same file (e.g., relative vs absolute) result in separate cache entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Raster returns the cached RGBA raster for path, loading and converting the
// image on first use.
func (c *ImageCache) Raster(path string) (*raster.Raster, error) {
	c.mu.RLock()
	if r, ok := c.rasters[path]; ok {
		c.mu.RUnlock()
		return r, nil
	}
	c.mu.RUnlock()

	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	r, err := raster.FromImage(img)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.rasters[path] = r
	c.mu.Unlock()

	return r, nil
}

// Clear removes all images and rasters from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.rasters = make(map[string]*raster.Raster)
	c.mu.Unlock()
}

// Evict removes a specific image, and its raster, from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	delete(c.rasters, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels, after EXIF orientation is applied.
	Width int `json:"width"`

	// Height is the image height in pixels, after EXIF orientation is applied.
	Height int `json:"height"`

	// Format is the format name reported by the registered decoder, e.g.
	// "png", "jpeg", "gif", "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// ColorModel describes how the file stores its pixels: "rgb", "rgba",
	// "rgb48", "rgba64", "gray", "gray16", "paletted", "ycbcr", "cmyk" or
	// "other".
	ColorModel string `json:"color_model"`

	// HasAlpha indicates whether the color model can carry transparency.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image into the cache and returns metadata about it.
//
// The format and color model are read from the file header rather than the
// extension, so a mislabeled file reports what it actually contains.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	model, hasAlpha := describeModel(cfg.ColorModel)
	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		ColorModel:    model,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

func describeModel(m color.Model) (string, bool) {
	switch m {
	case color.RGBAModel:
		return "rgb", false
	case color.NRGBAModel:
		return "rgba", true
	case color.RGBA64Model:
		return "rgb48", false
	case color.NRGBA64Model:
		return "rgba64", true
	case color.GrayModel:
		return "gray", false
	case color.Gray16Model:
		return "gray16", false
	case color.YCbCrModel:
		return "ycbcr", false
	case color.NYCbCrAModel:
		return "ycbcr", true
	case color.CMYKModel:
		return "cmyk", false
	}
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return "paletted", true
			}
		}
		return "paletted", false
	}
	return "other", false
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image without additional metadata.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
