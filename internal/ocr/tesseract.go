package ocr

import (
	"bytes"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"

	"github.com/ironsheep/pickplace-mcp/internal/detection"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "eng"

// labelPadding is added around each detection box before recognition so
// glyphs touching the box edge are not clipped.
const labelPadding = 4

// minLabelHeight is the crop height below which crops are upscaled.
// Tesseract recognises small parts poorly at their native size.
const minLabelHeight = 32

// Label is the text read inside one detection box.
type Label struct {
	// Index is the position of the box in the request.
	Index int `json:"index"`

	// Bounds is the detection box in target image coordinates.
	Bounds detection.Bounds `json:"bounds"`

	// Text is the recognised text with surrounding whitespace trimmed.
	Text string `json:"text"`

	// Confidence is the mean word confidence (0.0 to 1.0), or 0 when no
	// words were found.
	Confidence float64 `json:"confidence"`
}

// ReadResult contains labels for every requested box.
type ReadResult struct {
	Labels []Label `json:"labels"`
	Count  int     `json:"count"`
}

// ReadLabels runs OCR inside each box of img.
//
// Boxes are padded by a few pixels and clipped to the image. A box that does
// not intersect the image produces a Label with empty text. One tesseract
// client is reused for every box.
func ReadLabels(img image.Image, boxes []detection.Bounds, language string) (*ReadResult, error) {
	if language == "" {
		language = DefaultLanguage
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, errors.Wrap(err, "failed to set tesseract language")
	}

	labels := make([]Label, 0, len(boxes))
	for i, b := range boxes {
		label := Label{Index: i, Bounds: b}

		r := padBounds(b, labelPadding, img.Bounds())
		if r.Empty() {
			labels = append(labels, label)
			continue
		}

		data, err := cropPNG(img, r)
		if err != nil {
			return nil, err
		}
		if err := client.SetImageFromBytes(data); err != nil {
			return nil, errors.Wrapf(err, "failed to set image for box %d", i)
		}

		text, err := client.Text()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read box %d", i)
		}
		label.Text = strings.TrimSpace(text)

		if words, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil {
			label.Confidence = meanConfidence(words)
		}
		labels = append(labels, label)
	}

	return &ReadResult{Labels: labels, Count: len(labels)}, nil
}

// padBounds grows b by pad on every side and clips it to within.
func padBounds(b detection.Bounds, pad int, within image.Rectangle) image.Rectangle {
	r := image.Rect(b.X1-pad, b.Y1-pad, b.X2+pad, b.Y2+pad)
	return r.Intersect(within)
}

// cropPNG crops r out of img, upscales short crops and encodes them as PNG.
func cropPNG(img image.Image, r image.Rectangle) ([]byte, error) {
	cropped := imaging.Crop(img, r)
	if h := cropped.Bounds().Dy(); h > 0 && h < minLabelHeight {
		scale := (minLabelHeight + h - 1) / h
		cropped = imaging.Resize(cropped, cropped.Bounds().Dx()*scale, h*scale, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, errors.Wrap(err, "failed to encode label crop")
	}
	return buf.Bytes(), nil
}

func meanConfidence(words []gosseract.BoundingBox) float64 {
	var sum float64
	n := 0
	for _, w := range words {
		if strings.TrimSpace(w.Word) == "" {
			continue
		}
		sum += w.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) / 100.0
}
