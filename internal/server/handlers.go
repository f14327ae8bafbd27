package server

import (
	"encoding/json"
	"image"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/ironsheep/pickplace-mcp/internal/detection"
	"github.com/ironsheep/pickplace-mcp/internal/imaging"
	"github.com/ironsheep/pickplace-mcp/internal/matching"
	"github.com/ironsheep/pickplace-mcp/internal/model"
	"github.com/ironsheep/pickplace-mcp/internal/ocr"
	"github.com/ironsheep/pickplace-mcp/internal/render"
)

// errInvalidArgs marks tool arguments that fail validation.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "match_find", "model_list").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "err", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.logger.Debug("tool call", "tool", params.Name, "elapsed", time.Since(start))

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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image diagnostics
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_binarize":
		return s.handleImageBinarize(args)
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)
	case "image_segment":
		return s.handleImageSegment(args)

	// Matching
	case "match_find":
		return s.handleMatchFind(args)
	case "match_render":
		return s.handleMatchRender(args)
	case "match_read_labels":
		return s.handleMatchReadLabels(args)

	// Models
	case "model_list":
		return s.handleModelList(args)
	case "model_get":
		return s.handleModelGet(args)
	case "model_create":
		return s.handleModelCreate(args)
	case "model_update":
		return s.handleModelUpdate(args)
	case "model_delete":
		return s.handleModelDelete(args)
	case "model_add_image":
		return s.handleModelAddImage(args)
	case "model_measure":
		return s.handleModelMeasure(args)

	default:
		return nil, errors.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
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

// resolvePath makes relative paths relative to the configured image directory.
func (s *Server) resolvePath(path string) (string, error) {
	if path == "" {
		return "", errors.Wrap(errInvalidArgs, "path is required")
	}
	if filepath.IsAbs(path) || s.cfg.ImageDir == "" {
		return path, nil
	}
	return filepath.Join(s.cfg.ImageDir, path), nil
}

func (s *Server) loadImage(path string) (image.Image, error) {
	resolved, err := s.resolvePath(path)
	if err != nil {
		return nil, err
	}
	return s.cache.Load(resolved)
}

// === Image diagnostics ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	path, err := s.resolvePath(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	path, err := s.resolvePath(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, path)
}

type imageBinarizeArgs struct {
	Path  string `json:"path"`
	Level int    `json:"level"`
}

func (s *Server) handleImageBinarize(args json.RawMessage) (interface{}, error) {
	var a imageBinarizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	level, err := s.binarizeLevel(a.Level)
	if err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.BinarizeImage(img, level)
}

type imageEdgeDetectArgs struct {
	Path          string `json:"path"`
	ThresholdLow  int    `json:"threshold_low"`
	ThresholdHigh int    `json:"threshold_high"`
}

func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a imageEdgeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ThresholdLow == 0 {
		a.ThresholdLow = int(s.cfg.Segment.CannyLow)
	}
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = int(s.cfg.Segment.CannyHigh)
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, a.ThresholdLow, a.ThresholdHigh)
}

type imageSegmentArgs struct {
	Path          string `json:"path"`
	BinarizeLevel int    `json:"binarize_level"`
}

func (s *Server) handleImageSegment(args json.RawMessage) (interface{}, error) {
	var a imageSegmentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	level, err := s.binarizeLevel(a.BinarizeLevel)
	if err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	regions := detection.Segment(imaging.Binarize(img, level), s.cfg.Segment)
	return detection.Summarize(regions), nil
}

// binarizeLevel returns the configured level for 0 and validates the rest.
func (s *Server) binarizeLevel(level int) (uint8, error) {
	if level == 0 {
		return uint8(s.cfg.Match.BinarizeLevel), nil
	}
	if level < 1 || level > 255 {
		return 0, errors.Wrapf(errInvalidArgs, "binarize level %d outside [1, 255]", level)
	}
	return uint8(level), nil
}

// === Matching ===

// matchArgs selects the reference and target and overrides matching
// parameters. Explicit arguments win over model settings, which win over the
// configured defaults.
type matchArgs struct {
	TargetPath       string   `json:"target_path"`
	Model            string   `json:"model,omitempty"`
	ReferencePath    string   `json:"reference_path,omitempty"`
	Threshold        *float64 `json:"threshold,omitempty"`
	OverlapThreshold *float64 `json:"overlap_threshold,omitempty"`
	DetectionOrder   string   `json:"detection_order,omitempty"`
	DetectionCount   *int     `json:"detection_count,omitempty"`
	BoxSize          *int     `json:"box_size,omitempty"`
}

// params resolves the effective parameters for a call.
func (a matchArgs) params(base matching.Params) (matching.Params, error) {
	p := base
	if a.Threshold != nil {
		if *a.Threshold <= 0 || *a.Threshold > 1 {
			return p, errors.Wrapf(errInvalidArgs, "threshold %.3f outside (0, 1]", *a.Threshold)
		}
		p.Threshold = *a.Threshold
	}
	if a.OverlapThreshold != nil {
		if *a.OverlapThreshold <= 0 || *a.OverlapThreshold > 1 {
			return p, errors.Wrapf(errInvalidArgs, "overlap_threshold %.3f outside (0, 1]", *a.OverlapThreshold)
		}
		p.OverlapThreshold = *a.OverlapThreshold
	}
	if a.DetectionOrder != "" {
		order, err := matching.ParseDetectionOrder(a.DetectionOrder)
		if err != nil {
			return p, errors.Wrap(errInvalidArgs, err.Error())
		}
		p.Order = order
	}
	if a.DetectionCount != nil {
		if *a.DetectionCount < 0 {
			return p, errors.Wrapf(errInvalidArgs, "detection_count %d is negative", *a.DetectionCount)
		}
		p.Limit = *a.DetectionCount
	}
	if a.BoxSize != nil {
		if *a.BoxSize < 2 {
			return p, errors.Wrapf(errInvalidArgs, "box_size %d is below 2", *a.BoxSize)
		}
		p.BoxSize = *a.BoxSize
	}
	return p, nil
}

// runMatch resolves the reference (model ROI or reference image), runs the
// pipeline and returns the result with the loaded target image.
func (s *Server) runMatch(a matchArgs) (*matching.Result, image.Image, error) {
	base := s.cfg.MatchParams()

	var reference image.Image
	switch {
	case a.Model != "":
		m, err := s.store.Get(a.Model)
		if err != nil {
			return nil, nil, err
		}
		img, err := s.loadImage(m.ImagePath)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "model %q reference", m.Name)
		}
		if reference, err = model.ExtractROI(img, *m); err != nil {
			return nil, nil, err
		}
		base = m.Params(base)
	case a.ReferencePath != "":
		img, err := s.loadImage(a.ReferencePath)
		if err != nil {
			return nil, nil, errors.Wrap(err, "reference image")
		}
		reference = img
	default:
		return nil, nil, errors.Wrap(errInvalidArgs, "model or reference_path is required")
	}

	p, err := a.params(base)
	if err != nil {
		return nil, nil, err
	}

	target, err := s.loadImage(a.TargetPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "target image")
	}

	res, err := s.matcher.Match(reference, target, p)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("match",
		"run", res.RunID,
		"model", a.Model,
		"target", a.TargetPath,
		"detections", res.Count,
		"weak", res.WeakMatches,
		"elapsed_ms", res.ElapsedMS)
	return res, target, nil
}

func (s *Server) handleMatchFind(args json.RawMessage) (interface{}, error) {
	var a matchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	res, _, err := s.runMatch(a)
	return res, err
}

type matchRenderArgs struct {
	matchArgs
	render.Options
}

type matchRenderResult struct {
	Match   *matching.Result     `json:"match"`
	Overlay *render.OverlayResult `json:"overlay"`
}

func (s *Server) handleMatchRender(args json.RawMessage) (interface{}, error) {
	var a matchRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	res, target, err := s.runMatch(a.matchArgs)
	if err != nil {
		return nil, err
	}
	overlay, err := render.Overlay(target, res, a.Options)
	if err != nil {
		return nil, err
	}
	return &matchRenderResult{Match: res, Overlay: overlay}, nil
}

type matchReadLabelsArgs struct {
	matchArgs
	Language string `json:"language,omitempty"`
}

type matchReadLabelsResult struct {
	Match  *matching.Result `json:"match"`
	Labels []ocr.Label      `json:"labels"`
}

func (s *Server) handleMatchReadLabels(args json.RawMessage) (interface{}, error) {
	var a matchReadLabelsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = s.cfg.OCRLanguage
	}
	res, target, err := s.runMatch(a.matchArgs)
	if err != nil {
		return nil, err
	}

	boxes := lo.Map(res.Detections, func(d matching.Detection, _ int) detection.Bounds {
		return d.Bounds
	})
	labels, err := ocr.ReadLabels(target, boxes, a.Language)
	if err != nil {
		return nil, err
	}
	return &matchReadLabelsResult{Match: res, Labels: labels.Labels}, nil
}

// === Models ===

type modelNameArgs struct {
	Name string `json:"name"`
}

type modelListResult struct {
	Models []model.Model `json:"models"`
	Names  []string      `json:"names"`
	Count  int           `json:"count"`
}

func (s *Server) handleModelList(_ json.RawMessage) (interface{}, error) {
	models, err := s.store.List()
	if err != nil {
		return nil, err
	}
	return &modelListResult{
		Models: models,
		Names:  lo.Map(models, func(m model.Model, _ int) string { return m.Name }),
		Count:  len(models),
	}, nil
}

func (s *Server) handleModelGet(args json.RawMessage) (interface{}, error) {
	var a modelNameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.store.Get(a.Name)
}

type modelCreateArgs struct {
	model.Model

	// Measure fills the ROI geometry from the reference image.
	Measure bool `json:"measure,omitempty"`
}

func (s *Server) handleModelCreate(args json.RawMessage) (interface{}, error) {
	var a modelCreateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ImagePath == "" {
		return nil, errors.Wrap(errInvalidArgs, "image_path is required")
	}

	m := a.Model
	if a.Measure {
		g, err := s.measure(m.ImagePath)
		if err != nil {
			return nil, err
		}
		m.ApplyGeometry(*g)
	}
	return s.store.Create(m)
}

// modelUpdateArgs carries a partial model: only the keys present in Fields
// change.
type modelUpdateArgs struct {
	Name   string          `json:"name"`
	Fields json.RawMessage `json:"fields"`
}

func (s *Server) handleModelUpdate(args json.RawMessage) (interface{}, error) {
	var a modelUpdateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Fields) == 0 {
		return nil, errors.Wrap(errInvalidArgs, "fields are required")
	}
	return s.store.Update(a.Name, func(m *model.Model) error {
		return errors.Wrap(json.Unmarshal(a.Fields, m), "invalid fields")
	})
}

type modelDeleteResult struct {
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
}

func (s *Server) handleModelDelete(args json.RawMessage) (interface{}, error) {
	var a modelNameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := s.store.Delete(a.Name); err != nil {
		return nil, err
	}
	return &modelDeleteResult{Name: a.Name, Deleted: true}, nil
}

type modelAddImageArgs struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func (s *Server) handleModelAddImage(args json.RawMessage) (interface{}, error) {
	var a modelAddImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if _, err := s.loadImage(a.Path); err != nil {
		return nil, err
	}
	return s.store.AddImage(a.Name, a.Path)
}

type modelMeasureArgs struct {
	Name string `json:"name"`

	// Path measures another image instead of the model's reference.
	Path string `json:"path,omitempty"`

	// Save writes the measurement into the model.
	Save bool `json:"save,omitempty"`
}

type modelMeasureResult struct {
	Geometry *model.Geometry `json:"geometry"`
	Model    *model.Model    `json:"model,omitempty"`
}

func (s *Server) handleModelMeasure(args json.RawMessage) (interface{}, error) {
	var a modelMeasureArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	m, err := s.store.Get(a.Name)
	if err != nil {
		return nil, err
	}

	path := lo.Ternary(a.Path != "", a.Path, m.ImagePath)
	g, err := s.measure(path)
	if err != nil {
		return nil, err
	}
	if !a.Save {
		return &modelMeasureResult{Geometry: g}, nil
	}

	updated, err := s.store.Update(a.Name, func(m *model.Model) error {
		m.ApplyGeometry(*g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &modelMeasureResult{Geometry: g, Model: updated}, nil
}

func (s *Server) measure(path string) (*model.Geometry, error) {
	img, err := s.loadImage(path)
	if err != nil {
		return nil, err
	}
	return model.Measure(img, s.cfg.Segment)
}
