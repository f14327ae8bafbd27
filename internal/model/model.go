// Package model stores the operator-defined object models.
//
// A model names a reference image, the region of interest (ROI) around the
// object in that image, and the per-model matching settings: similarity
// threshold, detection order, detection count and placement box size.
// Models are persisted as a JSON array keyed by name.
//
// # Testing
//
// Tests use testify's require for preconditions and assert for checks.
// Packages written for matching use testify; the image-processing packages
// keep plain testing.
package model

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/ironsheep/pickplace-mcp/internal/matching"
)

// Sentinel errors returned by the store and validation.
var (
	ErrNotFound = errors.New("model not found")
	ErrExists   = errors.New("model already exists")
	ErrInvalid  = errors.New("invalid model")
)

// Shape is the ROI shape drawn around the reference object.
type Shape string

// Supported ROI shapes.
const (
	ShapeRectangle Shape = "rectangle"
	ShapeCircle    Shape = "circle"
	ShapeRing      Shape = "ring"
)

// Model is one operator-defined object model.
type Model struct {
	// Name identifies the model and must be unique in the store.
	Name string `json:"name"`

	// ImagePath is the reference image.
	ImagePath string `json:"image_path"`

	// AdditionalImages are further captures of the same object.
	AdditionalImages []string `json:"additional_images,omitempty"`

	// Shape selects the ROI geometry. Empty means the whole image.
	Shape Shape `json:"shape,omitempty"`

	// CenterX and CenterY locate the ROI centre in the reference image.
	CenterX int `json:"center_x"`
	CenterY int `json:"center_y"`

	// Width and Height size a rectangle ROI.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Radius sizes a circle ROI and is the outer radius of a ring.
	Radius int `json:"radius"`

	// InnerRadius is the inner radius of a ring ROI.
	InnerRadius int `json:"inner_radius,omitempty"`

	// Diameter is informational, filled by measurement.
	Diameter int `json:"diameter"`

	// RotationAngle rotates a rectangle ROI clockwise, in degrees.
	RotationAngle float64 `json:"rotation_angle"`

	// Matching is the similarity threshold as a percentage. Zero uses the
	// service default.
	Matching float64 `json:"matching,omitempty"`

	// DetectionOrder sorts the detections reported for this model.
	DetectionOrder matching.DetectionOrder `json:"detection_order,omitempty"`

	// DetectionCount caps the number of detections reported; 0 reports all.
	DetectionCount int `json:"detection_count,omitempty"`

	// BoxSize is the placement box side; 0 uses the service default.
	BoxSize int `json:"box_size,omitempty"`
}

// Validate checks the model's fields.
func (m *Model) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	switch {
	case m.Name == "":
		return errors.Wrap(ErrInvalid, "name is required")
	case m.Matching < 0 || m.Matching > 100:
		return errors.Wrapf(ErrInvalid, "matching %.2f outside [0, 100]", m.Matching)
	case m.BoxSize < 0:
		return errors.Wrapf(ErrInvalid, "box size %d is negative", m.BoxSize)
	case m.DetectionCount < 0:
		return errors.Wrapf(ErrInvalid, "detection count %d is negative", m.DetectionCount)
	case m.DetectionOrder != "" && !m.DetectionOrder.Valid():
		return errors.Wrapf(ErrInvalid, "detection order %q", m.DetectionOrder)
	}

	switch m.Shape {
	case "":
	case ShapeRectangle:
		if m.Width <= 0 || m.Height <= 0 {
			return errors.Wrap(ErrInvalid, "rectangle ROI needs width and height")
		}
	case ShapeCircle:
		if m.Radius <= 0 {
			return errors.Wrap(ErrInvalid, "circle ROI needs a radius")
		}
	case ShapeRing:
		if m.Radius <= 0 || m.InnerRadius < 0 || m.InnerRadius >= m.Radius {
			return errors.Wrap(ErrInvalid, "ring ROI needs 0 <= inner_radius < radius")
		}
	default:
		return errors.Wrapf(ErrInvalid, "unknown shape %q", m.Shape)
	}
	return nil
}

// Params overlays the model's settings on base.
func (m Model) Params(base matching.Params) matching.Params {
	p := base
	if m.Matching > 0 {
		p.Threshold = m.Matching / 100
	}
	if m.DetectionOrder != "" {
		p.Order = m.DetectionOrder
	}
	if m.BoxSize > 0 {
		p.BoxSize = m.BoxSize
	}
	if m.DetectionCount > 0 {
		p.Limit = m.DetectionCount
	}
	return p
}

// ApplyGeometry stores a measurement in the model. A model without an ROI
// shape gets a rectangle ROI around the measured object.
func (m *Model) ApplyGeometry(g Geometry) {
	m.CenterX = g.CenterX
	m.CenterY = g.CenterY
	m.Width = g.Width
	m.Height = g.Height
	m.Radius = g.Radius
	m.Diameter = g.Diameter
	if m.Shape == "" {
		m.Shape = ShapeRectangle
	}
}
