package detection

import (
	"image"
)

// edgeMap is a flat boolean view of a binary edge image.
type edgeMap struct {
	width, height int
	on            []bool
}

func newEdgeMap(g *image.Gray) *edgeMap {
	b := g.Bounds()
	m := &edgeMap{width: b.Dx(), height: b.Dy(), on: make([]bool, b.Dx()*b.Dy())}
	for y := 0; y < m.height; y++ {
		row := g.Pix[y*g.Stride:]
		for x := 0; x < m.width; x++ {
			m.on[y*m.width+x] = row[x] != 0
		}
	}
	return m
}

func (m *edgeMap) at(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.on[y*m.width+x]
}

// component is one 8-connected group of edge pixels.
type component struct {
	// start is the first pixel of the component in raster order.
	start  Point
	pixels []Point
}

// components labels the 8-connected groups of edge pixels in raster order.
//
// Uses a stack-based flood fill (not recursive) to avoid stack overflow on
// long outlines.
func (m *edgeMap) components() []component {
	visited := make([]bool, len(m.on))
	comps := make([]component, 0)

	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			i := y*m.width + x
			if !m.on[i] || visited[i] {
				continue
			}
			c := component{start: Point{X: x, Y: y}}
			m.floodFill(visited, x, y, &c.pixels)
			comps = append(comps, c)
		}
	}
	return comps
}

// floodFill collects the 8-connected edge pixels reachable from (startX, startY).
func (m *edgeMap) floodFill(visited []bool, startX, startY int, pixels *[]Point) {
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !m.at(p.X, p.Y) {
			continue
		}
		i := p.Y*m.width + p.X
		if visited[i] {
			continue
		}
		visited[i] = true
		*pixels = append(*pixels, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}

// exterior marks the background reachable from the image border.
//
// Edge pixels are dilated by one pixel before the 4-connected fill so that
// outlines with gaps of up to two pixels still close off their interior.
func (m *edgeMap) exterior() []bool {
	wall := make([]bool, len(m.on))
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if !m.on[y*m.width+x] {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && ny >= 0 && nx < m.width && ny < m.height {
						wall[ny*m.width+nx] = true
					}
				}
			}
		}
	}

	outside := make([]bool, len(m.on))
	stack := make([]Point, 0, 2*(m.width+m.height))
	push := func(x, y int) {
		if x < 0 || y < 0 || x >= m.width || y >= m.height {
			return
		}
		i := y*m.width + x
		if wall[i] || outside[i] {
			return
		}
		outside[i] = true
		stack = append(stack, Point{X: x, Y: y})
	}

	for x := 0; x < m.width; x++ {
		push(x, 0)
		push(x, m.height-1)
	}
	for y := 0; y < m.height; y++ {
		push(0, y)
		push(m.width-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		push(p.X+1, p.Y)
		push(p.X-1, p.Y)
		push(p.X, p.Y+1)
		push(p.X, p.Y-1)
	}
	return outside
}

// isExternal reports whether a component borders the outside background or
// lies against the image border. Components nested inside another outline
// are not external.
func (m *edgeMap) isExternal(c component, outside []bool) bool {
	const reach = 2
	for _, p := range c.pixels {
		if p.X < reach || p.Y < reach || p.X >= m.width-reach || p.Y >= m.height-reach {
			return true
		}
		for dy := -reach; dy <= reach; dy++ {
			for dx := -reach; dx <= reach; dx++ {
				if outside[(p.Y+dy)*m.width+p.X+dx] {
					return true
				}
			}
		}
	}
	return false
}

// Moore neighbourhood in clockwise order (y grows downward).
var mooreOffsets = [8]Point{
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
}

func mooreIndex(dx, dy int) int {
	for i, o := range mooreOffsets {
		if o.X == dx && o.Y == dy {
			return i
		}
	}
	return 4
}

// traceBoundary walks the outer boundary of the component containing start
// using Moore-neighbour tracing with Jacob's stopping criterion.
//
// start must be the component's first pixel in raster order, so its west and
// northern neighbours are background. The returned points are in clockwise
// order and begin with start. Thin parts of an outline are walked in both
// directions, so points may repeat.
func (m *edgeMap) traceBoundary(start Point) []Point {
	contour := []Point{start}
	cur := start
	back := 4 // entered from the west

	// Each boundary pixel can be entered from at most 4 directions.
	limit := 4*len(m.on) + 8
	var second Point
	haveSecond := false

	for step := 0; step < limit; step++ {
		next, nextBack, ok := m.mooreNext(cur, back)
		if !ok {
			break // isolated pixel
		}
		if !haveSecond {
			second, haveSecond = next, true
		} else if cur == start && next == second {
			break
		}
		cur, back = next, nextBack
		if cur != start {
			contour = append(contour, cur)
		}
	}
	return contour
}

// mooreNext finds the next boundary pixel clockwise from the backtrack
// direction and returns it with its own backtrack direction.
func (m *edgeMap) mooreNext(cur Point, back int) (Point, int, bool) {
	prev := Point{X: cur.X + mooreOffsets[back].X, Y: cur.Y + mooreOffsets[back].Y}
	for i := 1; i <= 8; i++ {
		d := (back + i) % 8
		cand := Point{X: cur.X + mooreOffsets[d].X, Y: cur.Y + mooreOffsets[d].Y}
		if m.at(cand.X, cand.Y) {
			return cand, mooreIndex(prev.X-cand.X, prev.Y-cand.Y), true
		}
		prev = cand
	}
	return cur, back, false
}

// compressContour drops points in the middle of horizontal, vertical and
// diagonal runs, keeping only the points where the direction changes. The
// first point is always kept.
func compressContour(trace []Point) []Point {
	n := len(trace)
	if n <= 2 {
		out := make([]Point, n)
		copy(out, trace)
		return out
	}

	out := []Point{trace[0]}
	for i := 1; i < n; i++ {
		prev := trace[i-1]
		cur := trace[i]
		next := trace[(i+1)%n]
		if cur.X-prev.X != next.X-cur.X || cur.Y-prev.Y != next.Y-cur.Y {
			out = append(out, cur)
		}
	}
	return out
}

// polygonMoments returns the signed zeroth and first-order moments of the
// closed polygon through pts (Green's theorem).
func polygonMoments(pts []Point) (m00, m10, m01 float64) {
	n := len(pts)
	if n < 3 {
		return 0, 0, 0
	}
	var a, sx, sy float64
	for i := 0; i < n; i++ {
		p := pts[i]
		q := pts[(i+1)%n]
		cross := float64(p.X*q.Y - q.X*p.Y)
		a += cross
		sx += float64(p.X+q.X) * cross
		sy += float64(p.Y+q.Y) * cross
	}
	return a / 2, sx / 6, sy / 6
}

// pointExtent returns the inclusive min and max coordinates of pts.
func pointExtent(pts []Point) (minX, minY, maxX, maxY int) {
	minX, minY = pts[0].X, pts[0].Y
	maxX, maxY = minX, minY
	for _, p := range pts[1:] {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}
