// Package render draws matching results onto the target image.
//
// # Testing
//
// Tests use testify's require for preconditions and assert for checks.
// Packages written for matching use testify; the image-processing packages
// keep plain testing.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/pickplace-mcp/internal/detection"
	"github.com/ironsheep/pickplace-mcp/internal/imaging"
	"github.com/ironsheep/pickplace-mcp/internal/matching"
)

// Options selects overlay colours as hex strings ("#RRGGBB"). Empty or
// unparsable values fall back to the defaults.
type Options struct {
	BoxColor    string `json:"box_color"`
	AnchorColor string `json:"anchor_color"`
	CenterColor string `json:"center_color"`
	LabelColor  string `json:"label_color"`

	// HideLabels suppresses the text annotations.
	HideLabels bool `json:"hide_labels"`
}

// DefaultOptions draws detections in green, placement boxes in red,
// centres in blue and labels in white.
func DefaultOptions() Options {
	return Options{
		BoxColor:    "#00FF00",
		AnchorColor: "#FF0000",
		CenterColor: "#0000FF",
		LabelColor:  "#FFFFFF",
	}
}

// OverlayResult contains the annotated image encoded as base64 PNG.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Detections  int    `json:"detections"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Overlay draws res onto a copy of img.
//
// For every detection it draws the bounding box, "#n score%" above it and the
// centroid coordinates, then each placement box with a line from its anchor
// to the pair's centre. A header line reports the detection and weak-match
// counts.
func Overlay(img image.Image, res *matching.Result, opts Options) (*OverlayResult, error) {
	def := DefaultOptions()
	boxCol := parseColor(opts.BoxColor, def.BoxColor)
	anchorCol := parseColor(opts.AnchorColor, def.AnchorColor)
	centerCol := parseColor(opts.CenterColor, def.CenterColor)
	labelCol := parseColor(opts.LabelColor, def.LabelColor)
	labelBg := color.RGBA{0, 0, 0, 200}

	src := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)

	for i, d := range res.Detections {
		drawRect(dst, d.Bounds.Rect(), boxCol, 2)
		drawDot(dst, d.Centroid, 3, centerCol)
		if !opts.HideLabels {
			drawLabel(dst, d.Bounds.X1, d.Bounds.Y1-2, fmt.Sprintf("#%d %.1f%%", i+1, d.Score), labelCol, labelBg)
			drawLabel(dst, d.Centroid.X+5, d.Centroid.Y+14, fmt.Sprintf("(%d,%d)", d.Centroid.X, d.Centroid.Y), labelCol, labelBg)
		}
	}

	for _, p := range res.Placements {
		a, b := p.Footprints()
		drawRect(dst, a, anchorCol, 1)
		drawRect(dst, b, anchorCol, 1)
		drawLine(dst, p.Primary, p.Center, anchorCol)
		drawLine(dst, p.Opposing, p.Center, anchorCol)
		drawDot(dst, p.Primary, 2, boxCol)
		drawDot(dst, p.Opposing, 2, boxCol)
	}

	if !opts.HideLabels {
		header := fmt.Sprintf("matches: %d  weak: %d", res.Count, res.WeakMatches)
		drawLabel(dst, 4, 14, header, labelCol, labelBg)
	}

	encoded, err := imaging.EncodePNG(dst)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{
		Width:       src.Dx(),
		Height:      src.Dy(),
		Detections:  len(res.Detections),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// parseColor parses hex with go-colorful, falling back to fallback.
func parseColor(hex, fallback string) color.RGBA {
	c, err := colorful.Hex(normalizeHex(hex))
	if err != nil {
		c, _ = colorful.Hex(fallback)
	}
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func normalizeHex(hex string) string {
	hex = strings.TrimSpace(hex)
	if hex != "" && !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	return hex
}

func drawRect(dst *image.RGBA, r image.Rectangle, c color.RGBA, thickness int) {
	for t := 0; t < thickness; t++ {
		in := r.Inset(t)
		if in.Empty() {
			return
		}
		for x := in.Min.X; x < in.Max.X; x++ {
			setPixel(dst, x, in.Min.Y, c)
			setPixel(dst, x, in.Max.Y-1, c)
		}
		for y := in.Min.Y; y < in.Max.Y; y++ {
			setPixel(dst, in.Min.X, y, c)
			setPixel(dst, in.Max.X-1, y, c)
		}
	}
}

func drawDot(dst *image.RGBA, p detection.Point, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				setPixel(dst, p.X+dx, p.Y+dy, c)
			}
		}
	}
}

// drawLine draws a 1-pixel Bresenham line from a to b.
func drawLine(dst *image.RGBA, a, b detection.Point, c color.RGBA) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	for {
		setPixel(dst, x, y, c)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// drawLabel writes text with its baseline at (x, y) over a filled background.
func drawLabel(dst *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	width := d.MeasureString(text).Ceil()
	back := image.Rect(x-1, y-face.Ascent-1, x+width+1, y+face.Descent+1).Intersect(dst.Bounds())
	draw.Draw(dst, back, image.NewUniform(bg), image.Point{}, draw.Over)
	d.DrawString(text)
}

func setPixel(dst *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(dst.Rect) {
		dst.SetRGBA(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
