package imaging

import (
	"image"
	"math"
)

// EdgeDetectResult contains an edge-detected image encoded as base64 PNG.
//
// The result is a grayscale image where white pixels (255) represent detected
// edges and black pixels (0) represent non-edges.
type EdgeDetectResult struct {
	// Width of the output image in pixels (same as input).
	Width int `json:"width"`

	// Height of the output image in pixels (same as input).
	Height int `json:"height"`

	// EdgePixels is the number of pixels marked as edges.
	EdgePixels int `json:"edge_pixels"`

	// ImageBase64 is the edge image encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png" for edge detection results.
	MimeType string `json:"mime_type"`
}

// EdgeDetect blurs img with a 5x5 Gaussian and runs Canny on the result.
//
// This is the diagnostic view of the first half of the segmenter: it shows the
// edge map that region extraction would trace, without the adaptive threshold.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - thresholdLow: Low hysteresis threshold on the 0-255 gradient scale.
//   - thresholdHigh: High hysteresis threshold on the 0-255 gradient scale.
//
// Returns:
//   - *EdgeDetectResult: Grayscale edge image as base64 PNG.
//   - error: Non-nil if PNG encoding fails.
func EdgeDetect(img image.Image, thresholdLow, thresholdHigh int) (*EdgeDetectResult, error) {
	gray := GaussianBlur(ToGray(img), 5, 0)
	edges := Canny(gray, float64(thresholdLow), float64(thresholdHigh))

	encoded, err := EncodePNG(edges)
	if err != nil {
		return nil, err
	}

	count := 0
	for _, v := range edges.Pix {
		if v == 255 {
			count++
		}
	}

	b := edges.Bounds()
	return &EdgeDetectResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		EdgePixels:  count,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// Canny marks the edges of src and returns them as a binary image
// (255 = edge, 0 = background) with bounds starting at (0,0).
//
// The input is used as-is; callers blur beforehand when they need noise
// suppression.
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators on the raw 0-255 values,
//     L1 magnitude = |Gx| + |Gy|, direction = atan2(Gy, Gx). Borders
//     replicate the outermost pixels. The L1 norm is what OpenCV's Canny
//     uses by default, so diagonal edges clear the thresholds the same way.
//
//  2. Non-maximum suppression: a pixel survives when its magnitude is strictly
//     greater than the neighbour before it and at least the neighbour after it
//     along the quantized gradient direction. The asymmetric comparison keeps a
//     single pixel on plateaus, so a sharp step yields a 1-pixel edge.
//
//  3. Hysteresis: pixels at or above thresholdHigh seed edges, which then grow
//     through 8-connected pixels at or above thresholdLow.
//
// Pixels on the outermost row and column are never edges.
func Canny(src *image.Gray, thresholdLow, thresholdHigh float64) *image.Gray {
	src = rebase(src)
	width := src.Bounds().Dx()
	height := src.Bounds().Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return result
	}

	at := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(src.Pix[y*src.Stride+x])
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) -
				2*at(x-1, y) + 2*at(x+1, y) -
				at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			magnitude[y*width+x] = math.Abs(gx) + math.Abs(gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression
	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag == 0 {
				continue
			}

			angle := direction[i]
			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			} else {
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			}

			if mag > n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	// Hysteresis: grow strong edges through weak ones.
	stack := make([]int, 0, 256)
	for i, v := range suppressed {
		if v >= thresholdHigh && result.Pix[i/width*result.Stride+i%width] == 0 {
			result.Pix[i/width*result.Stride+i%width] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			jx, jy := j%width, j/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := jx+dx, jy+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					n := ny*width + nx
					if suppressed[n] >= thresholdLow && suppressed[n] > 0 && result.Pix[ny*result.Stride+nx] == 0 {
						result.Pix[ny*result.Stride+nx] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}

	return result
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
