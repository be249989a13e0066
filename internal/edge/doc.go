// Package edge implements a Canny edge detector over raster images.
//
// The pipeline runs in five stages, each exposed for testing and reuse:
//
//  1. Grayscale: alpha-weighted luma, floor((0.3R+0.59G+0.11B)*A/255).
//  2. Smoothing: Gaussian blur (5x5, sigma 2 by default), edge-replicate
//     padding.
//  3. Gradients: Sobel X and Y; the magnitude is normalized so the strongest
//     response is 255. A flat image has no gradient and produces no edges.
//  4. Non-maximum suppression: the direction is quantized into eight 45°
//     sectors and each pixel is compared with its two neighbors along it.
//  5. Hysteresis: pixels at or above high*255 are Strong, those at or above
//     low*255 are Weak. Weak pixels 8-connected to a Strong pixel are
//     promoted; the rest are dropped.
//
// The output is a matrix of the input's dimensions holding 255 on edges and
// 0 elsewhere.
package edge
