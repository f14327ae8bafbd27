package model

import (
	"image"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/ironsheep/pickplace-mcp/internal/detection"
	"github.com/ironsheep/pickplace-mcp/internal/imaging"
)

// ErrNoObject is returned by Measure when the image contains no object.
var ErrNoObject = errors.New("no object found")

// Geometry describes the largest object in a reference image.
type Geometry struct {
	CenterX  int     `json:"center_x"`
	CenterY  int     `json:"center_y"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Radius   int     `json:"radius"`
	Diameter int     `json:"diameter"`
	Area     float64 `json:"area"`
}

// Measure segments img and describes its largest object by contour area.
//
// Centre is the bounding-box centre, Radius is max(Width, Height)/2 and
// Diameter is twice the radius.
func Measure(img image.Image, opts detection.Options) (*Geometry, error) {
	bin := imaging.Binarize(img, imaging.DefaultBinarizeLevel)
	regions := detection.Segment(bin, opts)
	if len(regions) == 0 {
		return nil, ErrNoObject
	}

	largest := lo.MaxBy(regions, func(a, b detection.Region) bool {
		return a.Area > b.Area
	})

	radius := max(largest.Width, largest.Height) / 2
	return &Geometry{
		CenterX:  largest.X + largest.Width/2,
		CenterY:  largest.Y + largest.Height/2,
		Width:    largest.Width,
		Height:   largest.Height,
		Radius:   radius,
		Diameter: 2 * radius,
		Area:     largest.Area,
	}, nil
}
