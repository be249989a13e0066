// Package imaging adapts loaded image files to the pixel pipelines and turns
// their results into values the MCP server can return.
//
// It covers loading and caching (with EXIF orientation and WebP, BMP and
// TIFF decoding), color sampling, palette extraction by k-means or
// k-medians, Canny edge maps, pixelation, and region cropping. Images are
// returned inline as base64 PNG.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Color Representation
//
// Colors are reported non-premultiplied, in several formats:
//   - Hex: "#RRGGBB" (alpha excluded)
//   - RGB / RGBA: 8-bit components (0-255)
//   - HSL: Hue (0-359), Saturation (0-100), Lightness (0-100)
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Cached images and rasters are shared
// between callers and must not be modified. The remaining functions are
// stateless.
package imaging
