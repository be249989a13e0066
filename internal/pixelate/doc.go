// Package pixelate turns a raster into low-resolution pixel art.
//
// A Strategy decides how each output cell is colored from its block of
// source pixels:
//
//   - median: the per-channel median of the cell.
//   - dominant: the cell sample nearest its median, or the alpha-weighted
//     mean when the cell straddles a strong edge.
//   - edge: the median, darkened in proportion to the share of Canny edge
//     pixels in the cell.
//
// Strategies are built from a Provider, which owns the convolution, edge and
// clustering engines. After the strategy runs, the output is optionally
// mapped onto a caller palette or a palette trained with k-means, with or
// without Floyd-Steinberg dithering.
//
// Output cell (x, y) covers source columns x*W/w up to (x+1)*W/w and rows
// y*H/h up to (y+1)*H/h, so the output can never be larger than the source.
package pixelate
