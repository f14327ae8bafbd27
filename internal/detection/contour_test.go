package detection

import (
	"testing"
)

// edgeMapFrom builds an edge map from rows of '#' (edge) and '.' (background).
func edgeMapFrom(rows ...string) *edgeMap {
	m := &edgeMap{width: len(rows[0]), height: len(rows)}
	m.on = make([]bool, m.width*m.height)
	for y, row := range rows {
		for x, c := range row {
			m.on[y*m.width+x] = c == '#'
		}
	}
	return m
}

func TestComponents_RasterOrder(t *testing.T) {
	m := edgeMapFrom(
		"......",
		"...##.",
		"......",
		".#....",
		"..#...",
	)

	comps := m.components()
	if len(comps) != 2 {
		t.Fatalf("got %d components, want 2", len(comps))
	}
	if comps[0].start != (Point{X: 3, Y: 1}) || len(comps[0].pixels) != 2 {
		t.Errorf("first component: start %v, %d pixels", comps[0].start, len(comps[0].pixels))
	}
	// (1,3) and (2,4) touch diagonally.
	if comps[1].start != (Point{X: 1, Y: 3}) || len(comps[1].pixels) != 2 {
		t.Errorf("second component: start %v, %d pixels", comps[1].start, len(comps[1].pixels))
	}
}

func TestTraceBoundary_Square(t *testing.T) {
	m := edgeMapFrom(
		".....",
		".###.",
		".#.#.",
		".###.",
		".....",
	)

	got := m.traceBoundary(Point{X: 1, Y: 1})
	want := []Point{{1, 1}, {2, 1}, {3, 1}, {3, 2}, {3, 3}, {2, 3}, {1, 3}, {1, 2}}
	if len(got) != len(want) {
		t.Fatalf("trace: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("trace[%d]: got %v, want %v (full %v)", i, got[i], want[i], got)
		}
	}

	contour := compressContour(got)
	corners := []Point{{1, 1}, {3, 1}, {3, 3}, {1, 3}}
	if len(contour) != len(corners) {
		t.Fatalf("compressed: got %v, want %v", contour, corners)
	}
	for i := range corners {
		if contour[i] != corners[i] {
			t.Errorf("compressed[%d]: got %v, want %v", i, contour[i], corners[i])
		}
	}

	m00, m10, m01 := polygonMoments(contour)
	if m00 != 4 {
		t.Errorf("area: got %v, want 4", m00)
	}
	if m10/m00 != 2 || m01/m00 != 2 {
		t.Errorf("centroid: got (%v, %v), want (2, 2)", m10/m00, m01/m00)
	}
}

func TestTraceBoundary_IsolatedPixel(t *testing.T) {
	m := edgeMapFrom(
		"...",
		".#.",
		"...",
	)

	got := m.traceBoundary(Point{X: 1, Y: 1})
	if len(got) != 1 || got[0] != (Point{X: 1, Y: 1}) {
		t.Errorf("trace: got %v, want the single pixel", got)
	}
}

func TestTraceBoundary_ThinLineIsWalkedBothWays(t *testing.T) {
	m := edgeMapFrom(
		".....",
		".###.",
		".....",
	)

	got := m.traceBoundary(Point{X: 1, Y: 1})
	want := []Point{{1, 1}, {2, 1}, {3, 1}, {2, 1}}
	if len(got) != len(want) {
		t.Fatalf("trace: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("trace[%d]: got %v, want %v", i, got[i], want[i])
		}
	}

	if m00, _, _ := polygonMoments(compressContour(got)); m00 != 0 {
		t.Errorf("a line encloses no area, got %v", m00)
	}
}

func TestIsExternal_NestedOutlines(t *testing.T) {
	m := edgeMapFrom(
		"....................",
		"....................",
		"..################..",
		"..#..............#..",
		"..#..............#..",
		"..#..............#..",
		"..#..............#..",
		"..#..............#..",
		"..#.....####.....#..",
		"..#.....#..#.....#..",
		"..#.....#..#.....#..",
		"..#.....####.....#..",
		"..#..............#..",
		"..#..............#..",
		"..#..............#..",
		"..#..............#..",
		"..#..............#..",
		"..################..",
		"....................",
		"....................",
	)

	comps := m.components()
	if len(comps) != 2 {
		t.Fatalf("got %d components, want 2", len(comps))
	}
	outside := m.exterior()

	if !m.isExternal(comps[0], outside) {
		t.Error("outer outline should be external")
	}
	if m.isExternal(comps[1], outside) {
		t.Error("nested outline should not be external")
	}
}

func TestIsExternal_GappedOutlineStillEncloses(t *testing.T) {
	// The outer outline has a one-pixel gap on its right side.
	m := edgeMapFrom(
		"....................",
		"....................",
		"..################..",
		"..#..............#..",
		"..#..............#..",
		"..#..............#..",
		"..#..............#..",
		"..#..............#..",
		"..#.....####........",
		"..#.....#..#.....#..",
		"..#.....#..#.....#..",
		"..#.....####.....#..",
		"..#..............#..",
		"..#..............#..",
		"..#..............#..",
		"..#..............#..",
		"..#..............#..",
		"..################..",
		"....................",
		"....................",
	)

	comps := m.components()
	outside := m.exterior()
	if len(comps) != 2 {
		t.Fatalf("got %d components, want 2", len(comps))
	}
	if m.isExternal(comps[1], outside) {
		t.Error("a one-pixel gap should not expose the nested outline")
	}
}

func TestIsExternal_NearBorder(t *testing.T) {
	m := edgeMapFrom(
		".#....",
		".#....",
		"......",
	)
	comps := m.components()
	if !m.isExternal(comps[0], m.exterior()) {
		t.Error("a component within two pixels of the border is external")
	}
}

func TestPolygonMoments_Degenerate(t *testing.T) {
	if m00, m10, m01 := polygonMoments([]Point{{0, 0}, {5, 0}}); m00 != 0 || m10 != 0 || m01 != 0 {
		t.Errorf("two points: got %v %v %v, want zeros", m00, m10, m01)
	}
}

func TestPointExtent(t *testing.T) {
	minX, minY, maxX, maxY := pointExtent([]Point{{4, 2}, {1, 7}, {9, 3}})
	if minX != 1 || minY != 2 || maxX != 9 || maxY != 7 {
		t.Errorf("got (%d,%d)-(%d,%d), want (1,2)-(9,7)", minX, minY, maxX, maxY)
	}
}
