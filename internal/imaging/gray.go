package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
)

// DefaultBinarizeLevel is the fixed threshold of the binarization pre-pass.
// Pixels darker than this become 0, everything else 255.
const DefaultBinarizeLevel = 128

// ToGray returns img as an 8-bit grayscale image whose bounds start at (0,0).
//
// Gray inputs are re-based without copying. Other color models are converted
// with bild's luminance weights.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return rebase(g)
	}
	rgba := effect.Grayscale(img)
	b := rgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			gray.Pix[y*gray.Stride+x] = row[x*4]
		}
	}
	return gray
}

// Binarize converts img to a binary image: values below level become 0 and
// values at or above level become 255.
//
// The result doubles as the foreground mask consulted by the placement
// planner, where 255 marks an occupied pixel.
func Binarize(img image.Image, level uint8) *image.Gray {
	return rebase(segment.Threshold(img, level))
}

// GaussianBlur smooths src with a size x size Gaussian kernel.
//
// A non-positive sigma derives the standard deviation from the kernel size
// (0.3*((size-1)*0.5-1)+0.8), and sizes 1, 3, 5 and 7 with such a sigma use the
// fixed binomial tables. Borders replicate the outermost pixels.
func GaussianBlur(src *image.Gray, size int, sigma float64) *image.Gray {
	k := gaussianKernel1D(size, sigma)
	kernel := convolution.NewKernel(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			kernel.Matrix[y*size+x] = k[y] * k[x]
		}
	}

	out := convolution.Convolve(src, kernel, &convolution.Options{Bias: 0, Wrap: false})
	b := out.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := out.Pix[y*out.Stride:]
		for x := 0; x < b.Dx(); x++ {
			dst.Pix[y*dst.Stride+x] = row[x*4]
		}
	}
	return dst
}

// AdaptiveThreshold binarizes src against a Gaussian-weighted local mean.
//
// A pixel becomes 255 when src > mean - c over a blockSize x blockSize
// neighbourhood and 0 otherwise. blockSize must be odd and at least 3.
func AdaptiveThreshold(src *image.Gray, blockSize int, c float64) *image.Gray {
	src = rebase(src)
	mean := GaussianBlur(src, blockSize, 0)
	delta := int(math.Ceil(c))

	b := src.Bounds()
	dst := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := int(src.Pix[y*src.Stride+x])
			m := int(mean.Pix[y*mean.Stride+x])
			if v-m > -delta {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

// gaussianKernel1D returns a normalized 1D Gaussian kernel of the given size.
func gaussianKernel1D(size int, sigma float64) []float64 {
	if sigma <= 0 {
		switch size {
		case 1:
			return []float64{1}
		case 3:
			return []float64{0.25, 0.5, 0.25}
		case 5:
			return []float64{0.0625, 0.25, 0.375, 0.25, 0.0625}
		case 7:
			return []float64{0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125}
		}
		sigma = 0.3*(float64(size-1)*0.5-1) + 0.8
	}

	k := make([]float64, size)
	half := float64(size-1) / 2
	var sum float64
	for i := range k {
		d := float64(i) - half
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// rebase returns a view of g whose bounds start at (0,0), sharing pixel memory.
func rebase(g *image.Gray) *image.Gray {
	b := g.Bounds()
	if b.Min == (image.Point{}) {
		return g
	}
	if b.Empty() {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}
	off := g.PixOffset(b.Min.X, b.Min.Y)
	return &image.Gray{
		Pix:    g.Pix[off:],
		Stride: g.Stride,
		Rect:   image.Rect(0, 0, b.Dx(), b.Dy()),
	}
}
