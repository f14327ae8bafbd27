package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// CropGray returns the part of src inside r as a view that shares pixel memory
// with src. The returned image keeps src's coordinate space, so its bounds are
// r clipped to src.
func CropGray(src *image.Gray, r image.Rectangle) *image.Gray {
	return src.SubImage(r).(*image.Gray)
}

// ResizeGray resamples src to width x height using nearest-neighbour sampling.
//
// Nearest-neighbour keeps binary inputs binary, which the similarity scorer
// relies on. Resizing to src's own size returns an identical copy.
func ResizeGray(src *image.Gray, width, height int) *image.Gray {
	src = rebase(src)
	if width <= 0 || height <= 0 || src.Bounds().Empty() {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}

	resized := imaging.Resize(src, width, height, imaging.NearestNeighbor)
	dst := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < width; x++ {
			dst.Pix[y*dst.Stride+x] = row[x*4]
		}
	}
	return dst
}

// BinarizeResult contains a binarized image encoded as base64 PNG.
type BinarizeResult struct {
	// Width of the output image in pixels.
	Width int `json:"width"`

	// Height of the output image in pixels.
	Height int `json:"height"`

	// Level is the threshold that was applied.
	Level int `json:"level"`

	// ForegroundRatio is the fraction of pixels that became white.
	ForegroundRatio float64 `json:"foreground_ratio"`

	// ImageBase64 is the binary image encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// BinarizeImage applies the binarization pre-pass to img and encodes the result.
func BinarizeImage(img image.Image, level uint8) (*BinarizeResult, error) {
	bin := Binarize(img, level)
	encoded, err := EncodePNG(bin)
	if err != nil {
		return nil, err
	}

	white := 0
	for _, v := range bin.Pix {
		if v == 255 {
			white++
		}
	}
	b := bin.Bounds()
	ratio := 0.0
	if n := b.Dx() * b.Dy(); n > 0 {
		ratio = float64(white) / float64(n)
	}

	return &BinarizeResult{
		Width:           b.Dx(),
		Height:          b.Dy(),
		Level:           int(level),
		ForegroundRatio: ratio,
		ImageBase64:     encoded,
		MimeType:        "image/png",
	}, nil
}

// EncodePNG encodes img as PNG and returns it base64 encoded.
func EncodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", errors.Wrap(err, "failed to encode image")
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
