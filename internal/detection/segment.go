package detection

import (
	"image"

	"github.com/ironsheep/pickplace-mcp/internal/imaging"
)

// Options controls the segmentation pipeline.
type Options struct {
	// BlurSize is the side of the Gaussian smoothing kernel (odd).
	BlurSize int `json:"blur_size" yaml:"blur_size"`

	// BlockSize is the neighbourhood used by the adaptive threshold (odd, >= 3).
	BlockSize int `json:"block_size" yaml:"block_size"`

	// C is subtracted from the local mean before thresholding.
	C float64 `json:"c" yaml:"c"`

	// CannyLow and CannyHigh are the hysteresis thresholds on the 0-255 scale.
	CannyLow  float64 `json:"canny_low" yaml:"canny_low"`
	CannyHigh float64 `json:"canny_high" yaml:"canny_high"`
}

// DefaultOptions returns the segmentation parameters used for pick-and-place
// frames: 5x5 blur, 11x11 Gaussian adaptive threshold with C=2, Canny 50/150.
func DefaultOptions() Options {
	return Options{
		BlurSize:  5,
		BlockSize: 11,
		C:         2,
		CannyLow:  50,
		CannyHigh: 150,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BlurSize <= 0 || o.BlurSize%2 == 0 {
		o.BlurSize = d.BlurSize
	}
	if o.BlockSize < 3 || o.BlockSize%2 == 0 {
		o.BlockSize = d.BlockSize
	}
	if o.CannyHigh <= 0 {
		o.CannyLow, o.CannyHigh = d.CannyLow, d.CannyHigh
	}
	return o
}

// Segment extracts candidate object regions from src.
//
// Parameters:
//   - src: The image to segment, normally the output of imaging.Binarize.
//     Region pixel views reference this image.
//   - opts: Pipeline parameters. Zero or invalid fields fall back to
//     DefaultOptions.
//
// Returns the regions in discovery order (raster order of each object's first
// pixel). An image without objects yields an empty slice.
//
// # Algorithm
//
//  1. Gaussian blur (BlurSize x BlurSize)
//  2. Adaptive Gaussian threshold (BlockSize, C), which turns every object
//     into a pair of concentric outlines separated by a dark band
//  3. Canny edge detection
//  4. 8-connected labelling of edge pixels, keeping only components that face
//     the background reachable from the image border (external contours)
//  5. Moore-neighbour tracing of each kept component's outer boundary,
//     compressed to the corner points of straight runs
//  6. Inclusive bounding rectangle and moment centroid per contour
//
// Contours with a zero-sized bounding rectangle are dropped silently.
func Segment(src *image.Gray, opts Options) []Region {
	opts = opts.withDefaults()
	gray := imaging.ToGray(src)
	if gray.Bounds().Empty() {
		return []Region{}
	}

	blurred := imaging.GaussianBlur(gray, opts.BlurSize, 0)
	thresh := imaging.AdaptiveThreshold(blurred, opts.BlockSize, opts.C)
	edges := newEdgeMap(imaging.Canny(thresh, opts.CannyLow, opts.CannyHigh))

	components := edges.components()
	if len(components) == 0 {
		return []Region{}
	}
	exterior := edges.exterior()

	regions := make([]Region, 0, len(components))
	for _, comp := range components {
		if !edges.isExternal(comp, exterior) {
			continue
		}

		trace := edges.traceBoundary(comp.start)
		minX, minY, maxX, maxY := pointExtent(trace)
		w := maxX - minX + 1
		h := maxY - minY + 1
		if w <= 0 || h <= 0 {
			continue
		}

		contour := compressContour(trace)
		m00, m10, m01 := polygonMoments(contour)

		var centroid Point
		if m00 != 0 {
			centroid = Point{X: int(m10 / m00), Y: int(m01 / m00)}
		} else {
			centroid = Point{X: minX + w/2, Y: minY + h/2}
		}

		area := m00
		if area < 0 {
			area = -area
		}

		regions = append(regions, Region{
			Pixels:   imaging.CropGray(gray, image.Rect(minX, minY, minX+w, minY+h)),
			X:        minX,
			Y:        minY,
			Width:    w,
			Height:   h,
			Centroid: centroid,
			Contour:  contour,
			Area:     area,
		})
	}

	return regions
}

// RegionSummary is the serialisable description of a Region without its pixels.
type RegionSummary struct {
	// Bounds is the region box as (x, y, x+w, y+h).
	Bounds Bounds `json:"bounds"`

	// Centroid is the moment centroid of the outer contour.
	Centroid Point `json:"centroid"`

	// Seed is the first contour point, where placement starts searching.
	Seed Point `json:"seed"`

	// ContourPoints is the number of points in the compressed contour.
	ContourPoints int `json:"contour_points"`

	// Area is the area enclosed by the contour in square pixels.
	Area float64 `json:"area"`
}

// SegmentResult contains every region found in an image.
type SegmentResult struct {
	// Regions in discovery order.
	Regions []RegionSummary `json:"regions"`

	// Count is the number of regions.
	Count int `json:"count"`
}

// Summarize converts regions to their serialisable form.
func Summarize(regions []Region) *SegmentResult {
	out := make([]RegionSummary, len(regions))
	for i, r := range regions {
		out[i] = RegionSummary{
			Bounds:        r.Bounds(),
			Centroid:      r.Centroid,
			Seed:          r.Seed(),
			ContourPoints: len(r.Contour),
			Area:          r.Area,
		}
	}
	return &SegmentResult{Regions: out, Count: len(out)}
}
