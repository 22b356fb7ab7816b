package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/image-describe/internal/describe"
	"github.com/ironsheep/image-describe/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_describe").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// toolErrorData is attached to tool execution errors.
type toolErrorData struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Op      string `json:"op,omitempty"`
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

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.WithError(err).WithField("tool", params.Name).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", errorData(err))
	}

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

func errorData(err error) toolErrorData {
	data := toolErrorData{Message: err.Error()}
	var de *describe.Error
	if errors.As(err, &de) {
		data.Kind = string(de.Kind)
		data.Op = de.Op
	}
	return data
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_describe":
		return s.handleImageDescribe(ctx, args)
	case "image_source_info":
		return s.handleImageSourceInfo(args)
	case "color_classify":
		return s.handleColorClassify(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type imageDescribeArgs struct {
	Path    string `json:"path"`
	Refresh bool   `json:"refresh"`
}

// imageDescribeResult adds the combined line to the description parts.
type imageDescribeResult struct {
	Result string `json:"result"`
	*describe.Description
}

func (s *Server) handleImageDescribe(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageDescribeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	if a.Refresh {
		s.cache.Evict(a.Path)
	}

	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, describe.NewError(describe.KindIO, "read image", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	d, err := describe.DescribeSource(ctx, s.annotator, src, s.log)
	if err != nil {
		return nil, err
	}
	return imageDescribeResult{Result: d.String(), Description: d}, nil
}

type imageSourceInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageSourceInfo(args json.RawMessage) (interface{}, error) {
	var a imageSourceInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.cache.Load(a.Path)
}

type colorClassifyArgs struct {
	R *int `json:"r"`
	G *int `json:"g"`
	B *int `json:"b"`
}

type colorClassifyResult struct {
	Name imaging.ColorName `json:"name"`
	Hex  string            `json:"hex"`
	RGB  imaging.RGBColor  `json:"rgb"`
}

func (s *Server) handleColorClassify(args json.RawMessage) (interface{}, error) {
	var a colorClassifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.R == nil || a.G == nil || a.B == nil {
		return nil, errors.New("r, g and b are required")
	}

	c := imaging.RGBColor{R: *a.R, G: *a.G, B: *a.B}
	return colorClassifyResult{Name: c.Name(), Hex: c.Hex(), RGB: c}, nil
}
