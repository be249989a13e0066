package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ironsheep/pixel-tools-mcp/internal/imaging"
	"github.com/ironsheep/pixel-tools-mcp/internal/raster"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_pixelate").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.logger.Debug("tool complete", "tool", params.Name, "elapsed", time.Since(start))

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_crop":
		return s.handleImageCrop(args)

	// Color Operations
	case "image_sample_color":
		return s.handleImageSampleColor(args)
	case "image_sample_colors_multi":
		return s.handleImageSampleColorsMulti(args)
	case "image_palette":
		return s.handleImagePalette(ctx, args)

	// Pixel Pipelines
	case "image_edge_detect":
		return s.handleImageEdgeDetect(ctx, args)
	case "image_pixelate":
		return s.handleImagePixelate(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// loadRaster returns the raster for path, restricted to region when one is given.
// Whole-image rasters come from the cache.
func (s *Server) loadRaster(path string, region *imaging.Region) (*raster.Raster, error) {
	if region == nil {
		return s.cache.Raster(path)
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	return imaging.RegionRaster(img, region)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageCropArgs struct {
	Path  string `json:"path"`
	X1    int    `json:"x1"`
	Y1    int    `json:"y1"`
	X2    int    `json:"x2"`
	Y2    int    `json:"y2"`
	Scale int    `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1
	}
	if a.Scale < 1 || a.Scale > imaging.MaxPreviewScale {
		return nil, fmt.Errorf("scale must be between 1 and %d", imaging.MaxPreviewScale)
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, imaging.Region{X1: a.X1, Y1: a.Y1, X2: a.X2, Y2: a.Y2}, a.Scale)
}

// === Color Operation Handlers ===

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

type imageSampleColorsMultiArgs struct {
	Path   string `json:"path"`
	Points []struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Label string `json:"label,omitempty"`
	} `json:"points"`
}

func (s *Server) handleImageSampleColorsMulti(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorsMultiArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{X: p.X, Y: p.Y, Label: p.Label}
	}
	return imaging.SampleColorsMulti(img, points)
}

type imagePaletteArgs struct {
	Path   string          `json:"path"`
	Count  int             `json:"count"`
	Method string          `json:"method"`
	Metric string          `json:"metric"`
	Region *imaging.Region `json:"region,omitempty"`
}

func (s *Server) handleImagePalette(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imagePaletteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 5
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Palette(ctx, img, imaging.PaletteOptions{
		Count:         a.Count,
		Method:        a.Method,
		Metric:        a.Metric,
		Region:        a.Region,
		Workers:       s.cfg.Workers,
		MaxIterations: s.cfg.MaxIterations,
		Seed:          s.cfg.Seed,
		Logger:        s.logger,
	})
}

// === Pixel Pipeline Handlers ===

type imageEdgeDetectArgs struct {
	Path          string   `json:"path"`
	LowThreshold  *float64 `json:"low_threshold"`
	HighThreshold *float64 `json:"high_threshold"`
}

func (s *Server) handleImageEdgeDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageEdgeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	low, high := 0.1, 0.3
	if a.LowThreshold != nil {
		low = *a.LowThreshold
	}
	if a.HighThreshold != nil {
		high = *a.HighThreshold
	}
	src, err := s.cache.Raster(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(ctx, s.detector, src, low, high)
}

type imagePixelateArgs struct {
	Path          string          `json:"path"`
	Width         int             `json:"width"`
	Height        int             `json:"height"`
	Strategy      string          `json:"strategy"`
	Palette       []string        `json:"palette"`
	PaletteSize   int             `json:"palette_size"`
	Dither        bool            `json:"dither"`
	EdgeThreshold float64         `json:"edge_threshold"`
	Rank          float64         `json:"rank"`
	LowThreshold  *float64        `json:"low_threshold"`
	HighThreshold *float64        `json:"high_threshold"`
	Sensitivity   float64         `json:"sensitivity"`
	PreviewScale  int             `json:"preview_scale"`
	Region        *imaging.Region `json:"region,omitempty"`
}

func (s *Server) handleImagePixelate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imagePixelateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Strategy == "" {
		a.Strategy = "median"
	}
	src, err := s.loadRaster(a.Path, a.Region)
	if err != nil {
		return nil, err
	}
	return imaging.Pixelate(ctx, src, imaging.PixelateOptions{
		Strategy:      a.Strategy,
		Width:         a.Width,
		Height:        a.Height,
		Palette:       a.Palette,
		PaletteSize:   a.PaletteSize,
		Dither:        a.Dither,
		EdgeThreshold: a.EdgeThreshold,
		Rank:          a.Rank,
		EdgeLow:       a.LowThreshold,
		EdgeHigh:      a.HighThreshold,
		Sensitivity:   a.Sensitivity,
		PreviewScale:  a.PreviewScale,
	}, s.providerOptions())
}
