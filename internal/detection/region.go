package detection

import (
	"image"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// The coordinate convention follows standard image bounds:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is X1+width, Y1+height
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Width returns X2 - X1.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// Rect converts the bounds to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Region is one candidate object found by Segment.
//
// X, Y, Width and Height describe the inclusive bounding rectangle of the
// object's outer contour, so Width and Height are at least 1.
type Region struct {
	// Pixels is a view of the segmented image restricted to the bounding
	// rectangle. It shares memory with that image and must not be modified.
	Pixels *image.Gray `json:"-"`

	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`

	// Centroid is derived from the contour's first-order moments, or is the
	// bounding-box centre when the contour encloses no area.
	Centroid Point `json:"centroid"`

	// Contour is the compressed outer boundary in tracing order. Contour[0] is
	// the topmost, then leftmost, pixel of the object.
	Contour []Point `json:"contour"`

	// Area is the absolute area enclosed by the contour polygon.
	Area float64 `json:"area"`
}

// Bounds returns the region's box as (x, y, x+w, y+h).
func (r Region) Bounds() Bounds {
	return Bounds{X1: r.X, Y1: r.Y, X2: r.X + r.Width, Y2: r.Y + r.Height}
}

// Seed returns the first contour point, or the centroid when the contour is empty.
func (r Region) Seed() Point {
	if len(r.Contour) == 0 {
		return r.Centroid
	}
	return r.Contour[0]
}
