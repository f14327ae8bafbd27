package render

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/pickplace-mcp/internal/detection"
	"github.com/ironsheep/pickplace-mcp/internal/matching"
	"github.com/ironsheep/pickplace-mcp/internal/placement"
)

func grayBackground(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{100, 100, 100, 255}), image.Point{}, draw.Src)
	return img
}

func decode(t *testing.T, res *OverlayResult) image.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func rgba(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func sampleResult() *matching.Result {
	return &matching.Result{
		Detections: []matching.Detection{{
			Bounds:   detection.Bounds{X1: 20, Y1: 40, X2: 60, Y2: 80},
			Score:    97.5,
			Centroid: detection.Point{X: 40, Y: 60},
		}},
		Placements: []placement.Pair{{
			Primary:  detection.Point{X: 100, Y: 60},
			Opposing: detection.Point{X: -20, Y: 60},
			Center:   detection.Point{X: 40, Y: 60},
			HalfBox:  10,
		}},
		Count:       1,
		WeakMatches: 2,
	}
}

func TestOverlay(t *testing.T) {
	res, err := Overlay(grayBackground(200, 120), sampleResult(), Options{HideLabels: true})
	require.NoError(t, err)

	assert.Equal(t, 200, res.Width)
	assert.Equal(t, 120, res.Height)
	assert.Equal(t, 1, res.Detections)
	assert.Equal(t, "image/png", res.MimeType)

	img := decode(t, res)
	require.Equal(t, image.Rect(0, 0, 200, 120), img.Bounds())

	assert.Equal(t, color.RGBA{0, 255, 0, 255}, rgba(img, 20, 50), "detection box")
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, rgba(img, 40, 58), "centroid")
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba(img, 90, 55), "placement box")
	assert.Equal(t, color.RGBA{100, 100, 100, 255}, rgba(img, 150, 110), "untouched background")
}

func TestOverlay_CustomColorsAndLabels(t *testing.T) {
	opts := Options{BoxColor: "ffff00", AnchorColor: "not-a-colour"}
	res, err := Overlay(grayBackground(200, 120), sampleResult(), opts)
	require.NoError(t, err)

	img := decode(t, res)
	assert.Equal(t, color.RGBA{255, 255, 0, 255}, rgba(img, 20, 70), "custom box colour")
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba(img, 90, 65), "invalid colour falls back")

	// The header label darkens the top-left corner.
	assert.NotEqual(t, color.RGBA{100, 100, 100, 255}, rgba(img, 5, 8))
}

func TestOverlay_OffsetSource(t *testing.T) {
	full := grayBackground(300, 300)
	sub := full.SubImage(image.Rect(50, 50, 250, 170))

	res, err := Overlay(sub, &matching.Result{}, Options{HideLabels: true})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 120), decode(t, res).Bounds())
	assert.Zero(t, res.Detections)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#FF8000", color.RGBA{255, 128, 0, 255}},
		{"00ff00", color.RGBA{0, 255, 0, 255}},
		{" #0000ff ", color.RGBA{0, 0, 255, 255}},
		{"", color.RGBA{255, 255, 255, 255}},
		{"zzz", color.RGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseColor(tt.in, "#FFFFFF"), "parseColor(%q)", tt.in)
	}
}

func TestNormalizeHex(t *testing.T) {
	assert.Equal(t, "#abc123", normalizeHex("abc123"))
	assert.Equal(t, "#abc123", normalizeHex("  #abc123"))
	assert.Equal(t, "", normalizeHex(" "))
}
