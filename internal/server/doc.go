// Package server implements the MCP (Model Context Protocol) server for the
// pixel tools.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line:
//   - Input: JSON-RPC requests on stdin
//   - Output: JSON-RPC responses on stdout
//
// Logs go to the *slog.Logger passed to New and must never be written to
// stdout.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_crop: Extract a region, optionally enlarged
//
// Color Operations:
//   - image_sample_color: Get color at pixel
//   - image_sample_colors_multi: Sample multiple points
//   - image_palette: Cluster the image into a color palette
//
// Pixel Pipelines:
//   - image_edge_detect: Canny edge map
//   - image_pixelate: Downscale to pixel art with a palette and dithering
//
// # Image Caching
//
// Images, and the rasters derived from them, are cached by path for the
// lifetime of the server process.
//
// # Error Handling
//
// Malformed tools/call params return code -32602. Tool failures return code
// -32000 with the Go error string in data. Unknown methods return -32601.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	srv := server.New(cfg, cfg.Logger(os.Stderr))
//	return srv.Run(ctx)
package server
