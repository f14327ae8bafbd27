// Package placement plans pairs of placement boxes around detected objects.
//
// Each object gets two square boxes of side BoxSize whose centres (anchors)
// are reflections of each other through the object's centre. The planner
// rotates the pair around the centre until neither box covers foreground
// pixels or another object's boxes, so a gripper can reach in from both sides.
//
// # Testing
//
// Tests use testify's require for preconditions and assert for checks.
// Packages written for matching use testify; the image-processing packages
// keep plain testing.
package placement

import (
	"image"
	"math"

	"github.com/ironsheep/pickplace-mcp/internal/detection"
)

// Defaults for Options.
const (
	DefaultBoxSize   = 50
	DefaultAngleStep = 20
)

// Options controls the planner.
type Options struct {
	// BoxSize is the side of each placement box in pixels.
	BoxSize int `json:"box_size" yaml:"box_size"`

	// AngleStep is the rotation increment of the search, in degrees.
	AngleStep int `json:"angle_step" yaml:"angle_step"`

	// Perturb enables a second search that shifts the seed anchor diagonally
	// by multiples of half a box before giving up.
	Perturb bool `json:"perturb" yaml:"perturb"`
}

// Target is one object to plan boxes for.
type Target struct {
	// Center is the object's centroid.
	Center detection.Point

	// Seed is the first point of the object's contour.
	Seed detection.Point
}

// Pair is the planned placement for one object.
//
// Opposing always equals 2*Center - Primary, and both anchors lie in
// [HalfBox, dim-HalfBox] on each axis.
type Pair struct {
	// Primary is the centre of the first placement box.
	Primary detection.Point `json:"primary"`

	// Opposing is the centre of the second box, Primary reflected through Center.
	Opposing detection.Point `json:"opposing"`

	// Center is the pivot of the pair: the object's centroid clamped into the
	// area where a full box fits. It differs from ObjectCenter only for
	// objects closer than HalfBox to the image edge.
	Center detection.Point `json:"center"`

	// ObjectCenter is the object's centroid as detected, before clamping.
	ObjectCenter detection.Point `json:"object_center"`

	// Heading is the direction of the Primary->Center line in degrees, [0, 360).
	Heading float64 `json:"heading"`

	// Axis is the image axis (0, 90, 180 or 270) nearest to Heading.
	Axis int `json:"axis"`

	// Alignment is Heading - Axis, in (-45, 45].
	Alignment float64 `json:"alignment"`

	// Rotation is the sweep angle, in degrees, at which a free pair was found.
	Rotation int `json:"rotation"`

	// Perturbed is set when the pair came from the diagonal-shift fallback.
	Perturbed bool `json:"perturbed,omitempty"`

	// Exhausted is set when no collision-free pair was found and the seed
	// anchors were used as they are.
	Exhausted bool `json:"exhausted"`

	// HalfBox is half the box side used for this pair.
	HalfBox int `json:"half_box"`
}

// Footprints returns the pixel rectangles covered by the two boxes.
func (p Pair) Footprints() (image.Rectangle, image.Rectangle) {
	return footprint(p.Primary, p.HalfBox), footprint(p.Opposing, p.HalfBox)
}

// Planner computes placement pairs.
type Planner struct {
	opts Options
}

// NewPlanner creates a planner. Zero option values take their defaults.
func NewPlanner(opts Options) *Planner {
	if opts.BoxSize <= 0 {
		opts.BoxSize = DefaultBoxSize
	}
	if opts.AngleStep <= 0 || opts.AngleStep >= 360 {
		opts.AngleStep = DefaultAngleStep
	}
	return &Planner{opts: opts}
}

// Plan computes one pair per target, in target order, using a default planner
// with the given box size.
func Plan(targets []Target, mask *image.Gray, boxSize int) []Pair {
	return NewPlanner(Options{BoxSize: boxSize}).Plan(targets, mask)
}

// Plan computes one pair per target, in target order.
//
// mask is the binary foreground of the target image (255 = occupied) and
// defines the image extent. Earlier pairs are obstacles for later ones.
//
// # Algorithm
//
//  1. The seed is snapped to the axis on which it is farther from the centre,
//     and the primary anchor is pushed half a box beyond it, away from the
//     centre. The arm is the vector from the centre to that anchor.
//  2. The arm is rotated around the centre by 0, step, 2*step, ... degrees.
//     For each rotation the arm is clamped so both anchors keep a full box
//     inside the image, and the pair is accepted when neither box covers a
//     foreground pixel, overlaps an already placed box, or has its anchor
//     closer than a box side to another object's centre.
//  3. With Perturb set, diagonal shifts of the seed anchor are tried next.
//  4. Otherwise the clamped seed anchors are used and Exhausted is set.
func (p *Planner) Plan(targets []Target, mask *image.Gray) []Pair {
	pairs := make([]Pair, 0, len(targets))
	if len(targets) == 0 {
		return pairs
	}

	half := p.opts.BoxSize / 2
	b := mask.Bounds()
	s := &search{
		mask:    mask,
		half:    half,
		width:   b.Dx(),
		height:  b.Dy(),
		targets: targets,
	}

	for i, t := range targets {
		s.current = i
		pair := s.plan(t, p.opts)
		pair.HalfBox = half
		pair.ObjectCenter = t.Center
		pairs = append(pairs, pair)
		s.placed = append(s.placed, pair.Primary, pair.Opposing)
	}
	return pairs
}

type search struct {
	mask          *image.Gray
	half          int
	width, height int
	targets       []Target
	current       int
	placed        []detection.Point
}

func (s *search) plan(t Target, opts Options) Pair {
	c := detection.Point{
		X: clampRange(t.Center.X, s.half, s.width-s.half),
		Y: clampRange(t.Center.Y, s.half, s.height-s.half),
	}
	arm := seedArm(t.Seed, c, s.half)

	for deg := 0; deg < 360; deg += opts.AngleStep {
		r := s.clampArm(rotate(arm, deg), c)
		if s.free(c, r) {
			return makePair(c, r, deg)
		}
	}

	if opts.Perturb {
		for off := -2 * s.half; off <= 2*s.half; off += max(s.half, 1) {
			for _, sign := range []int{1, -1} {
				shifted := detection.Point{X: arm.X + sign*off, Y: arm.Y + sign*off}
				r := s.clampArm(shifted, c)
				if s.free(c, r) {
					pair := makePair(c, r, 0)
					pair.Perturbed = true
					return pair
				}
			}
		}
	}

	pair := makePair(c, s.clampArm(arm, c), 0)
	pair.Exhausted = true
	return pair
}

// seedArm returns the vector from c to the primary anchor derived from seed.
func seedArm(seed, c detection.Point, half int) detection.Point {
	dx := seed.X - c.X
	dy := seed.Y - c.Y
	if abs(dx) > abs(dy) {
		dy = 0
	} else {
		dx = 0
	}
	if dx == 0 && dy == 0 {
		return detection.Point{X: half, Y: 0}
	}
	return detection.Point{X: dx + sign(dx)*half, Y: dy + sign(dy)*half}
}

// rotate turns v by deg degrees (clockwise on screen), truncating toward zero.
func rotate(v detection.Point, deg int) detection.Point {
	if deg == 0 {
		return v
	}
	rad := float64(deg) * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	x, y := float64(v.X), float64(v.Y)
	return detection.Point{
		X: int(x*cos - y*sin),
		Y: int(x*sin + y*cos),
	}
}

// clampArm limits r so that c+r and c-r both keep a full box inside the image.
func (s *search) clampArm(r, c detection.Point) detection.Point {
	limX := max(0, min(c.X-s.half, s.width-s.half-c.X))
	limY := max(0, min(c.Y-s.half, s.height-s.half-c.Y))
	return detection.Point{
		X: clampRange(r.X, -limX, limX),
		Y: clampRange(r.Y, -limY, limY),
	}
}

// free reports whether the pair c±r is collision free.
func (s *search) free(c, r detection.Point) bool {
	if r.X == 0 && r.Y == 0 {
		return false
	}
	primary := detection.Point{X: c.X + r.X, Y: c.Y + r.Y}
	opposing := detection.Point{X: c.X - r.X, Y: c.Y - r.Y}
	return !s.collides(primary) && !s.collides(opposing)
}

func (s *search) collides(a detection.Point) bool {
	side := 2 * s.half
	for _, q := range s.placed {
		if abs(a.X-q.X) < side && abs(a.Y-q.Y) < side {
			return true
		}
	}
	for j, t := range s.targets {
		if j == s.current {
			continue
		}
		dx := float64(a.X - t.Center.X)
		dy := float64(a.Y - t.Center.Y)
		if math.Hypot(dx, dy) < float64(side) {
			return true
		}
	}
	return s.coversForeground(a)
}

// coversForeground reports whether any mask pixel under the box at a is 255.
func (s *search) coversForeground(a detection.Point) bool {
	mb := s.mask.Bounds()
	r := footprint(a, s.half).Add(mb.Min).Intersect(mb)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := s.mask.Pix[s.mask.PixOffset(r.Min.X, y):]
		for x := 0; x < r.Dx(); x++ {
			if row[x] == 255 {
				return true
			}
		}
	}
	return false
}

func makePair(c, r detection.Point, deg int) Pair {
	primary := detection.Point{X: c.X + r.X, Y: c.Y + r.Y}
	heading, axis, dev := Alignment(primary, c)
	return Pair{
		Primary:   primary,
		Opposing:  detection.Point{X: 2*c.X - primary.X, Y: 2*c.Y - primary.Y},
		Center:    c,
		Heading:   heading,
		Axis:      axis,
		Alignment: dev,
		Rotation:  deg,
	}
}

// Alignment returns the direction of the from->to line in degrees on
// [0, 360), the nearest image axis, and the deviation from that axis in
// (-45, 45]. Coincident points have heading 0.
func Alignment(from, to detection.Point) (heading float64, axis int, deviation float64) {
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	if dx != 0 || dy != 0 {
		heading = math.Atan2(dy, dx) * 180 / math.Pi
		if heading < 0 {
			heading += 360
		}
	}
	k := math.Ceil(heading/90 - 0.5)
	deviation = heading - k*90
	axis = int(k*90) % 360
	return heading, axis, deviation
}

func footprint(a detection.Point, half int) image.Rectangle {
	return image.Rect(a.X-half, a.Y-half, a.X+half, a.Y+half)
}

func clampRange(v, lo, hi int) int {
	if lo > hi {
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
