// Package server implements the MCP (Model Context Protocol) server for the
// pick-and-place matching tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image diagnostics:
//   - image_load, image_dimensions: metadata
//   - image_binarize: the pre-pass applied before matching
//   - image_edge_detect: Canny edge map
//   - image_segment: regions found by the segmenter
//
// Matching:
//   - match_find: detections and placement pairs for a model or reference image
//   - match_render: match_find plus an annotated PNG
//   - match_read_labels: match_find plus OCR inside each detection
//
// Models:
//   - model_list, model_get, model_create, model_update, model_delete
//   - model_add_image: attach further reference captures
//   - model_measure: size the ROI from the largest object
//
// # Parameter Precedence
//
// For the match_* tools, explicit arguments override the model's settings,
// which override the configured defaults.
//
// # Image Caching
//
// Decoded images are cached by path in a bounded cache, so a reference image
// reused across frames is decoded once. Relative paths are resolved against
// the configured image directory.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Testing
//
// Tests use the standard testing package, with fixture images drawn in
// the test itself, as the other adapted image-processing packages do.
package server
