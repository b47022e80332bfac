package server

import (
	"github.com/ironsheep/pngopt-mcp/internal/options"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func boolProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "boolean", "description": description}
}

func chunkListProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": description,
	}
}

// optionsSchema describes the optimization options object.
func optionsSchema() map[string]interface{} {
	filters := make([]string, len(options.AllFilters))
	for i, f := range options.AllFilters {
		filters[i] = string(f)
	}

	return map[string]interface{}{
		"type":        "object",
		"description": "Optimization options. Every field is optional; omitted fields use the preset's value.",
		"properties": map[string]interface{}{
			"force": boolProp("Write the result even if it is larger than the input"),
			"optimizationLevel": map[string]interface{}{
				"type":        "integer",
				"minimum":     0,
				"maximum":     6,
				"description": "Preset level 0-6. Default 2",
			},
			"optimizationMax":    boolProp("Use the maximum preset; overrides optimizationLevel"),
			"keepChunks":         chunkListProp("Keep only these ancillary chunks. The keyword \"display\" adds cICP, iCCP, sRGB, pHYs, acTL, fcTL, fdAT"),
			"stripChunks":        chunkListProp("Strip these ancillary chunks. IHDR, IDAT, tRNS, PLTE and IEND cannot be stripped"),
			"stripAll":           boolProp("Strip all ancillary chunks"),
			"stripSafe":          boolProp("Strip all chunks that do not affect display"),
			"optimizeAlpha":      boolProp("Clear color data under fully transparent pixels"),
			"bitDepthReduction":  boolProp("Allow lossless bit depth reduction"),
			"colorTypeReduction": boolProp("Allow lossless color type reduction"),
			"paletteReduction":   boolProp("Allow palette reduction"),
			"grayscaleReduction": boolProp("Allow conversion to grayscale"),
			"idatRecoding":       boolProp("Recompress image data"),
			"scale16":            boolProp("Scale 16-bit images to 8 bits (lossy)"),
			"interlace": map[string]interface{}{
				"type":        "string",
				"enum":        []string{string(options.InterlaceRemove), string(options.InterlaceApply), string(options.InterlaceKeep)},
				"description": "remove: progressive output; apply: Adam7; keep: leave as is",
			},
			"filter": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string", "enum": filters},
				"description": "Row filter strategies to try. Replaces the preset's set",
			},
			"fastEvaluation": boolProp("Rank filter candidates with a fast compressor"),
			"useZopfli":      boolProp("Use the iterative zopfli-style compressor"),
			"zopfliIterations": map[string]interface{}{
				"type":        "integer",
				"minimum":     1,
				"maximum":     255,
				"description": "Iterations for useZopfli. Default 15",
			},
			"compressionLevel": map[string]interface{}{
				"type":        "integer",
				"minimum":     0,
				"maximum":     12,
				"description": "Deflate level 0-12. Overrides useZopfli when both are given",
			},
		},
	}
}

func sourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the PNG file",
		},
		"image_base64": map[string]interface{}{
			"type":        "string",
			"description": "PNG file contents as base64, instead of path",
		},
	}
}

func optimizeSchema() map[string]interface{} {
	props := sourceProperties()
	props["options"] = optionsSchema()
	props["output_path"] = map[string]interface{}{
		"type":        "string",
		"description": "Write the result here instead of returning it as base64",
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "png_optimize",
			Description: "Losslessly optimize a PNG and wait for the result. Returns sizes and either the output path or the optimized image as base64.",
			InputSchema: optimizeSchema(),
		},
		{
			Name:        "png_optimize_async",
			Description: "Validate options and schedule a PNG optimization in the background. Returns a task_id for png_optimize_result.",
			InputSchema: optimizeSchema(),
		},
		{
			Name:        "png_optimize_result",
			Description: "Get the result of a scheduled optimization, waiting up to wait_ms. A finished result is returned once and then forgotten.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"task_id": map[string]interface{}{
						"type":        "string",
						"description": "Task id returned by png_optimize_async",
					},
					"wait_ms": map[string]interface{}{
						"type":        "integer",
						"description": "How long to wait for completion. Default 0",
						"default":     0,
					},
				},
				"required": []string{"task_id"},
			},
		},
		{
			Name:        "png_inspect",
			Description: "List the chunks of a PNG file with their sizes and classification, and decode its header.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": sourceProperties(),
			},
		},
		{
			Name:        "png_resolve_options",
			Description: "Validate optimization options and show the configuration they resolve to, without optimizing anything.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"options": optionsSchema(),
				},
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
