package model

import (
	"image"
	"math"

	"github.com/pkg/errors"

	"github.com/ironsheep/pickplace-mcp/internal/imaging"
)

// roiMargin is the black border kept around the ROI when it is cropped, so
// that objects touching the ROI edge still segment the same way they do in a
// full frame.
const roiMargin = 8

// ExtractROI returns the model's reference object: the part of img inside the
// model's ROI, cropped to the ROI bounds plus a small margin, with every pixel
// outside the shape set to black. A model without a shape returns img
// unchanged.
//
// Shapes:
//   - rectangle: Width x Height centred on (CenterX, CenterY), rotated
//     clockwise by RotationAngle degrees
//   - circle: pixels within Radius of the centre
//   - ring: pixels whose distance from the centre is in [InnerRadius, Radius]
func ExtractROI(img image.Image, m Model) (image.Image, error) {
	if m.Shape == "" {
		return img, nil
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	gray := imaging.ToGray(img)
	inside, bounds := roiTest(m)
	bounds = bounds.Inset(-roiMargin)
	crop := bounds.Intersect(gray.Bounds())
	if crop.Empty() {
		return nil, errors.Wrapf(ErrInvalid, "ROI of %q lies outside the %dx%d reference image",
			m.Name, gray.Bounds().Dx(), gray.Bounds().Dy())
	}

	out := image.NewGray(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	for y := crop.Min.Y; y < crop.Max.Y; y++ {
		for x := crop.Min.X; x < crop.Max.X; x++ {
			if inside(x, y) {
				out.Pix[(y-crop.Min.Y)*out.Stride+(x-crop.Min.X)] = gray.Pix[y*gray.Stride+x]
			}
		}
	}
	return out, nil
}

// roiTest returns a membership test for the model's shape and the shape's
// bounding rectangle.
func roiTest(m Model) (func(x, y int) bool, image.Rectangle) {
	cx, cy := float64(m.CenterX), float64(m.CenterY)

	switch m.Shape {
	case ShapeCircle, ShapeRing:
		r := float64(m.Radius)
		inner := 0.0
		if m.Shape == ShapeRing {
			inner = float64(m.InnerRadius)
		}
		inside := func(x, y int) bool {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			return d <= r && d >= inner
		}
		return inside, image.Rect(m.CenterX-m.Radius, m.CenterY-m.Radius, m.CenterX+m.Radius+1, m.CenterY+m.Radius+1)
	}

	// Rectangle
	rad := m.RotationAngle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	hw, hh := float64(m.Width)/2, float64(m.Height)/2
	inside := func(x, y int) bool {
		dx, dy := float64(x)-cx, float64(y)-cy
		u := dx*cos + dy*sin
		v := -dx*sin + dy*cos
		return math.Abs(u) <= hw && math.Abs(v) <= hh
	}

	ex := math.Abs(hw*cos) + math.Abs(hh*sin)
	ey := math.Abs(hw*sin) + math.Abs(hh*cos)
	bounds := image.Rect(
		int(math.Floor(cx-ex)), int(math.Floor(cy-ey)),
		int(math.Ceil(cx+ex))+1, int(math.Ceil(cy+ey))+1,
	)
	return inside, bounds
}
