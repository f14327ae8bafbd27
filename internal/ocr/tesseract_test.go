package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/pickplace-mcp/internal/detection"
)

// createImageWithText renders text in black on white, scaled up for OCR.
func createImageWithText(text string, scale int) *image.RGBA {
	face := basicfont.Face7x13
	w := len(text)*7 + 20
	h := 13 + 20

	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(small, small.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(10, 10+face.Ascent),
	}
	d.DrawString(text)

	big := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h*scale; y++ {
		for x := 0; x < w*scale; x++ {
			big.Set(x, y, small.At(x/scale, y/scale))
		}
	}
	return big
}

func skipIfNoTesseract(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		return
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "tesseract") || strings.Contains(msg, "library") ||
		strings.Contains(msg, "language") || strings.Contains(msg, "init") {
		t.Skip("Tesseract not available")
	}
}

func TestPadBounds(t *testing.T) {
	within := image.Rect(0, 0, 100, 80)

	tests := []struct {
		name string
		b    detection.Bounds
		pad  int
		want image.Rectangle
	}{
		{"interior", detection.Bounds{X1: 10, Y1: 10, X2: 20, Y2: 30}, 4, image.Rect(6, 6, 24, 34)},
		{"clipped at origin", detection.Bounds{X1: 1, Y1: 2, X2: 10, Y2: 10}, 4, image.Rect(0, 0, 14, 14)},
		{"clipped at far edge", detection.Bounds{X1: 90, Y1: 70, X2: 100, Y2: 80}, 4, image.Rect(86, 66, 100, 80)},
		{"outside", detection.Bounds{X1: 200, Y1: 200, X2: 210, Y2: 210}, 4, image.Rectangle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := padBounds(tt.b, tt.pad, within)
			if tt.want.Empty() {
				if !got.Empty() {
					t.Errorf("padBounds() = %v, want empty", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("padBounds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCropPNG_UpscalesShortCrops(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	data, err := cropPNG(img, image.Rect(0, 0, 40, 10))
	if err != nil {
		t.Fatalf("cropPNG failed: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("cropPNG produced invalid PNG: %v", err)
	}
	if decoded.Bounds().Dy() < minLabelHeight {
		t.Errorf("crop height = %d, want >= %d", decoded.Bounds().Dy(), minLabelHeight)
	}
	if decoded.Bounds().Dx() != 40*4 {
		t.Errorf("crop width = %d, want %d", decoded.Bounds().Dx(), 160)
	}
}

func TestCropPNG_KeepsTallCrops(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	data, err := cropPNG(img, image.Rect(10, 10, 60, 70))
	if err != nil {
		t.Fatalf("cropPNG failed: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("cropPNG produced invalid PNG: %v", err)
	}
	if cfg.Width != 50 || cfg.Height != 60 {
		t.Errorf("crop size = %dx%d, want 50x60", cfg.Width, cfg.Height)
	}
}

func TestReadLabels_OutsideBoxIsEmpty(t *testing.T) {
	img := createImageWithText("R12", 3)

	result, err := ReadLabels(img, []detection.Bounds{{X1: 5000, Y1: 5000, X2: 5010, Y2: 5010}}, "eng")
	skipIfNoTesseract(t, err)
	if err != nil {
		t.Fatalf("ReadLabels failed: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("Count = %d, want 1", result.Count)
	}
	if result.Labels[0].Text != "" {
		t.Errorf("Text = %q, want empty", result.Labels[0].Text)
	}
}

func TestReadLabels_RealText(t *testing.T) {
	img := createImageWithText("C47", 4)
	b := img.Bounds()

	result, err := ReadLabels(img, []detection.Bounds{{X1: 0, Y1: 0, X2: b.Dx(), Y2: b.Dy()}}, "")
	skipIfNoTesseract(t, err)
	if err != nil {
		t.Fatalf("ReadLabels failed: %v", err)
	}

	t.Logf("read %q (confidence %.2f)", result.Labels[0].Text, result.Labels[0].Confidence)
	if result.Labels[0].Index != 0 {
		t.Errorf("Index = %d, want 0", result.Labels[0].Index)
	}
	if c := result.Labels[0].Confidence; c < 0 || c > 1 {
		t.Errorf("Confidence = %v, want within [0, 1]", c)
	}
}

func TestReadLabels_NoBoxes(t *testing.T) {
	img := createImageWithText("X", 1)

	result, err := ReadLabels(img, nil, "eng")
	skipIfNoTesseract(t, err)
	if err != nil {
		t.Fatalf("ReadLabels failed: %v", err)
	}
	if result.Count != 0 || len(result.Labels) != 0 {
		t.Errorf("got %d labels, want 0", result.Count)
	}
}
