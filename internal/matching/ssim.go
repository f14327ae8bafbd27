package matching

import (
	"image"

	"github.com/ironsheep/pickplace-mcp/internal/detection"
	"github.com/ironsheep/pickplace-mcp/internal/imaging"
)

// SSIM constants for 8-bit images.
const (
	WindowSize = 7
	k1         = 0.01
	k2         = 0.03
	dataRange  = 255.0
)

// Score compares a candidate region against a reference region.
//
// The candidate's pixels are resampled (nearest neighbour) to the reference's
// size and the two are compared with SSIM. ok is false when the reference is
// smaller than the 7x7 comparison window in either dimension; such pairs
// score 0 and are skipped by the aggregator.
func Score(ref, cand detection.Region) (score float64, ok bool) {
	if ref.Pixels == nil || cand.Pixels == nil {
		return 0, false
	}
	rb := ref.Pixels.Bounds()
	if min(rb.Dx(), rb.Dy(), WindowSize) < WindowSize {
		return 0, false
	}
	resized := imaging.ResizeGray(cand.Pixels, rb.Dx(), rb.Dy())
	return SSIM(ref.Pixels, resized)
}

// SSIM returns the mean structural similarity index of two equally sized
// grayscale images, in [-1, 1].
//
// # Algorithm
//
// Local statistics are taken over a 7x7 uniform window with sample
// covariance (normalised by 49/48), using
//
//	C1 = (0.01*255)², C2 = (0.03*255)²
//	S  = (2·μa·μb + C1)(2·σab + C2) / ((μa² + μb² + C1)(σa² + σb² + C2))
//
// and S is averaged over every window position that lies fully inside the
// image. Window sums come from summed-area tables, so the cost is linear in
// the pixel count.
//
// ok is false when the sizes differ or either side is smaller than the window.
func SSIM(a, b *image.Gray) (float64, bool) {
	ab, bb := a.Bounds(), b.Bounds()
	w, h := ab.Dx(), ab.Dy()
	if w != bb.Dx() || h != bb.Dy() || min(w, h, WindowSize) < WindowSize {
		return 0, false
	}

	stride := w + 1
	sa := make([]float64, stride*(h+1))
	sb := make([]float64, stride*(h+1))
	saa := make([]float64, stride*(h+1))
	sbb := make([]float64, stride*(h+1))
	sab := make([]float64, stride*(h+1))

	for y := 0; y < h; y++ {
		rowA := a.Pix[a.PixOffset(ab.Min.X, ab.Min.Y+y):]
		rowB := b.Pix[b.PixOffset(bb.Min.X, bb.Min.Y+y):]
		var ra, rb, raa, rbb, rab float64
		for x := 0; x < w; x++ {
			va := float64(rowA[x])
			vb := float64(rowB[x])
			ra += va
			rb += vb
			raa += va * va
			rbb += vb * vb
			rab += va * vb

			i := (y+1)*stride + x + 1
			up := y*stride + x + 1
			sa[i] = sa[up] + ra
			sb[i] = sb[up] + rb
			saa[i] = saa[up] + raa
			sbb[i] = sbb[up] + rbb
			sab[i] = sab[up] + rab
		}
	}

	window := func(s []float64, x0, y0 int) float64 {
		x1, y1 := x0+WindowSize, y0+WindowSize
		return s[y1*stride+x1] - s[y0*stride+x1] - s[y1*stride+x0] + s[y0*stride+x0]
	}

	const np = WindowSize * WindowSize
	covNorm := float64(np) / float64(np-1)
	c1 := (k1 * dataRange) * (k1 * dataRange)
	c2 := (k2 * dataRange) * (k2 * dataRange)

	var total float64
	count := 0
	for y0 := 0; y0+WindowSize <= h; y0++ {
		for x0 := 0; x0+WindowSize <= w; x0++ {
			ux := window(sa, x0, y0) / np
			uy := window(sb, x0, y0) / np
			uxx := window(saa, x0, y0) / np
			uyy := window(sbb, x0, y0) / np
			uxy := window(sab, x0, y0) / np

			vx := covNorm * (uxx - ux*ux)
			vy := covNorm * (uyy - uy*uy)
			vxy := covNorm * (uxy - ux*uy)

			num := (2*ux*uy + c1) * (2*vxy + c2)
			den := (ux*ux + uy*uy + c1) * (vx + vy + c2)
			total += num / den
			count++
		}
	}

	return total / float64(count), true
}
