package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_describe",
			Description: "Describe an image file as \"<text> - <color> - <label>\": the first line of detected text, the basic name of the dominant color, and the most topical label. Uses Google Cloud Vision.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the image file",
					},
					"refresh": map[string]interface{}{
						"type":        "boolean",
						"description": "Re-read the file instead of using the cached copy (default: false)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_source_info",
			Description: "Report the detected format and size of an image file without contacting the vision service.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "color_classify",
			Description: "Classify an RGB color into one of: White, Black, Gray, Red, Orange, Yellow, Green, Cyan, Magenta, Blue, Mixed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"r": map[string]interface{}{
						"type":        "integer",
						"description": "Red component (normally 0-255)",
					},
					"g": map[string]interface{}{
						"type":        "integer",
						"description": "Green component (normally 0-255)",
					},
					"b": map[string]interface{}{
						"type":        "integer",
						"description": "Blue component (normally 0-255)",
					},
				},
				"required": []string{"r", "g", "b"},
			},
		},
	}
}
