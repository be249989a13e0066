package server

import "github.com/ironsheep/pixel-tools-mcp/internal/pixelate"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

var regionProperty = map[string]interface{}{
	"type":        "object",
	"description": "Optional region to restrict the operation to. (x1,y1) inclusive, (x2,y2) exclusive.",
	"properties": map[string]interface{}{
		"x1": map[string]interface{}{"type": "integer"},
		"y1": map[string]interface{}{"type": "integer"},
		"x2": map[string]interface{}{"type": "integer"},
		"y2": map[string]interface{}{"type": "integer"},
	},
	"required": []string{"x1", "y1", "x2", "y2"},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file (PNG, JPEG, GIF, BMP, TIFF, WebP) and return its dimensions, format and color model.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image and return it as base64-encoded PNG, optionally enlarged with nearest-neighbor scaling.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
					"scale": map[string]interface{}{
						"type":        "integer",
						"description": "Optional integer scale factor. Default 1",
						"default":     1,
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},

		// Color Operations
		{
			Name:        "image_sample_color",
			Description: "Get the exact color value at a specific pixel coordinate.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "image_sample_colors_multi",
			Description: "Get color values at multiple pixel coordinates in a single call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string", "description": "Optional label for this point"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Array of points to sample",
					},
				},
				"required": []string{"path", "points"},
			},
		},
		{
			Name:        "image_palette",
			Description: "Extract a color palette by clustering the image's visible pixels. Returns each color with hex, RGB, HSL and its share of pixels, most common first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to extract. Default 5",
						"default":     5,
					},
					"method": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"kmeans", "kmedians"},
						"description": "kmeans averages each cluster; kmedians reports colors that occur in the image. Default kmeans",
						"default":     "kmeans",
					},
					"metric": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"l1", "l2", "lab"},
						"description": "Color distance: l1 (Manhattan), l2 (Euclidean) or lab (CIE76, perceptual). Default l2",
						"default":     "l2",
					},
					"region": regionProperty,
				},
				"required": []string{"path"},
			},
		},

		// Pixel Pipelines
		{
			Name:        "image_edge_detect",
			Description: "Detect edges with the Canny algorithm. Returns a black and white PNG edge map and the number of edge pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"low_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Weak edge threshold as a fraction of the strongest gradient (0-1). Default 0.1",
						"default":     0.1,
					},
					"high_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Strong edge threshold (0-1, >= low_threshold). Default 0.3",
						"default":     0.3,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_pixelate",
			Description: "Downscale an image into pixel art. Each output pixel summarizes one cell of the source using the chosen strategy; the result can be mapped to a fixed or trained palette and dithered.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Output width in pixels (1 to source width)",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Output height in pixels (1 to source height)",
					},
					"strategy": map[string]interface{}{
						"type":        "string",
						"enum":        pixelate.Names(),
						"description": "median: per-channel median of each cell. dominant: the most typical pixel of each cell. edge: median, darkened where Canny edges cross the cell. Default median",
						"default":     "median",
					},
					"palette": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Optional fixed palette as #RRGGBB colors",
					},
					"palette_size": map[string]interface{}{
						"type":        "integer",
						"description": "Train a palette of this many colors when no palette is given. Default 0 (keep all colors)",
					},
					"dither": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply Floyd-Steinberg dithering when mapping to a palette. Default false",
					},
					"edge_threshold": map[string]interface{}{
						"type":        "number",
						"description": "dominant strategy: cells whose Sobel edge strength (0-1) exceeds this use the alpha-weighted mean instead. Default 0 (off)",
					},
					"rank": map[string]interface{}{
						"type":        "number",
						"description": "dominant strategy: 0 picks the most typical pixel, 1 the least. Default 0",
					},
					"low_threshold": map[string]interface{}{
						"type":        "number",
						"description": "edge strategy: Canny low threshold (0-1). Default 0.1",
					},
					"high_threshold": map[string]interface{}{
						"type":        "number",
						"description": "edge strategy: Canny high threshold (0-1). Default 0.3",
					},
					"sensitivity": map[string]interface{}{
						"type":        "number",
						"description": "edge strategy: how strongly edge cells are darkened (0-100]. Default 50",
					},
					"preview_scale": map[string]interface{}{
						"type":        "integer",
						"description": "Also return the output enlarged by this factor (2-32) for viewing",
					},
					"region": regionProperty,
				},
				"required": []string{"path", "width", "height"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
