package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// matchProperties are shared by the match_* tools.
func matchProperties() map[string]interface{} {
	return map[string]interface{}{
		"target_path":    prop("string", "Path of the target (scene) image"),
		"model":          prop("string", "Name of a stored model whose ROI is the reference object"),
		"reference_path": prop("string", "Path of a reference image, used when no model is given"),
		"threshold": map[string]interface{}{
			"type":        "number",
			"description": "Minimum similarity as a fraction (0.8 = 80%). Overrides the model setting",
			"minimum":     0,
			"maximum":     1,
		},
		"overlap_threshold": map[string]interface{}{
			"type":        "number",
			"description": "Overlap ratio above which a detection is suppressed. Default 0.3",
			"minimum":     0,
			"maximum":     1,
		},
		"detection_order": map[string]interface{}{
			"type":        "string",
			"description": "Sort order of the detections",
			"enum":        []string{"asc_x", "desc_x", "asc_y", "desc_y", "max_score"},
		},
		"detection_count": prop("integer", "Report at most this many detections (0 = all)"),
		"box_size":        prop("integer", "Side of the square placement boxes in pixels. Default 50"),
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	pathOnly := objectSchema(map[string]interface{}{
		"path": prop("string", "Path to the image file (relative paths use the configured image directory)"),
	}, "path")

	renderProps := matchProperties()
	renderProps["box_color"] = prop("string", "Detection box color as hex. Default #00FF00")
	renderProps["anchor_color"] = prop("string", "Placement box color as hex. Default #FF0000")
	renderProps["center_color"] = prop("string", "Centroid marker color as hex. Default #0000FF")
	renderProps["label_color"] = prop("string", "Label text color as hex. Default #FFFFFF")
	renderProps["hide_labels"] = prop("boolean", "Draw boxes only")

	labelProps := matchProperties()
	labelProps["language"] = prop("string", "Tesseract language code. Default from configuration (eng)")

	return []Tool{
		// Image diagnostics
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format.",
			InputSchema: pathOnly,
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: pathOnly,
		},
		{
			Name:        "image_binarize",
			Description: "Apply the binarization pre-pass used before matching and return the result as base64 PNG.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":  prop("string", "Path to the image file"),
				"level": prop("integer", "Threshold level 1-255; pixels above become white. Default 128"),
			}, "path"),
		},
		{
			Name:        "image_edge_detect",
			Description: "Run Canny edge detection and return the edge map as base64 PNG.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":           prop("string", "Path to the image file"),
				"threshold_low":  prop("integer", "Low hysteresis threshold. Default 50"),
				"threshold_high": prop("integer", "High hysteresis threshold. Default 150"),
			}, "path"),
		},
		{
			Name:        "image_segment",
			Description: "Segment an image into object regions and return their bounds, centroids and areas.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":           prop("string", "Path to the image file"),
				"binarize_level": prop("integer", "Binarization level 1-255. Default 128"),
			}, "path"),
		},

		// Matching
		{
			Name:        "match_find",
			Description: "Find every occurrence of a reference object in a target image and plan a pair of placement boxes around each one.",
			InputSchema: objectSchema(matchProperties(), "target_path"),
		},
		{
			Name:        "match_render",
			Description: "Run match_find and return the target image annotated with detections and placement boxes as base64 PNG.",
			InputSchema: objectSchema(renderProps, "target_path"),
		},
		{
			Name:        "match_read_labels",
			Description: "Run match_find and read the printed label inside each detection with OCR.",
			InputSchema: objectSchema(labelProps, "target_path"),
		},

		// Models
		{
			Name:        "model_list",
			Description: "List the stored object models.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "model_get",
			Description: "Get one stored object model by name.",
			InputSchema: objectSchema(map[string]interface{}{
				"name": prop("string", "Model name"),
			}, "name"),
		},
		{
			Name:        "model_create",
			Description: "Create an object model from a reference image and an optional ROI.",
			InputSchema: objectSchema(map[string]interface{}{
				"name":       prop("string", "Unique model name"),
				"image_path": prop("string", "Reference image path"),
				"shape": map[string]interface{}{
					"type":        "string",
					"description": "ROI shape. Omit to use the whole image",
					"enum":        []string{"rectangle", "circle", "ring"},
				},
				"center_x":        prop("integer", "ROI centre X"),
				"center_y":        prop("integer", "ROI centre Y"),
				"width":           prop("integer", "Rectangle ROI width"),
				"height":          prop("integer", "Rectangle ROI height"),
				"radius":          prop("integer", "Circle radius, or outer radius of a ring"),
				"inner_radius":    prop("integer", "Inner radius of a ring"),
				"rotation_angle":  prop("number", "Rectangle rotation in degrees"),
				"matching":        prop("number", "Similarity threshold as a percentage (0-100)"),
				"detection_order": prop("string", "Default detection order for this model"),
				"detection_count": prop("integer", "Default detection count for this model (0 = all)"),
				"box_size":        prop("integer", "Default placement box size for this model"),
				"measure":         prop("boolean", "Fill the ROI from the largest object in the reference image"),
			}, "name", "image_path"),
		},
		{
			Name:        "model_update",
			Description: "Update fields of a stored model. Only the keys present in fields change; a name key renames the model.",
			InputSchema: objectSchema(map[string]interface{}{
				"name":   prop("string", "Current model name"),
				"fields": prop("object", "Model fields to change, using the model_create keys"),
			}, "name", "fields"),
		},
		{
			Name:        "model_delete",
			Description: "Delete a stored model.",
			InputSchema: objectSchema(map[string]interface{}{
				"name": prop("string", "Model name"),
			}, "name"),
		},
		{
			Name:        "model_add_image",
			Description: "Attach an additional reference image to a model.",
			InputSchema: objectSchema(map[string]interface{}{
				"name": prop("string", "Model name"),
				"path": prop("string", "Image path"),
			}, "name", "path"),
		},
		{
			Name:        "model_measure",
			Description: "Measure the largest object in a model's reference image: centre, size, radius and area.",
			InputSchema: objectSchema(map[string]interface{}{
				"name": prop("string", "Model name"),
				"path": prop("string", "Measure this image instead of the model's reference"),
				"save": prop("boolean", "Store the measurement as the model's ROI"),
			}, "name"),
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
