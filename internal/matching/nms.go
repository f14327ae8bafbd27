package matching

import (
	"sort"

	"github.com/ironsheep/pickplace-mcp/internal/detection"
)

// DefaultOverlapThreshold is the overlap ratio above which a box is suppressed.
const DefaultOverlapThreshold = 0.3

// Suppress removes detections that overlap a kept detection by more than
// overlapThresh of their own area (greedy non-maximum suppression).
//
// # Algorithm
//
//  1. Sort boxes ascending by bottom edge (Y2), breaking ties by X2, Y1, X1
//     and score so the outcome never depends on input order
//  2. Take the last box (largest Y2) and keep it
//  3. For every remaining box compute
//     overlap = intersection / own area, with inclusive pixel areas
//     (x2-x1+1)*(y2-y1+1), and drop it when overlap > overlapThresh
//  4. Repeat until no boxes remain
//
// The result is in selection order: the kept box with the largest Y2 first.
// Suppress is idempotent: running it on its own output changes nothing.
func Suppress(dets []Detection, overlapThresh float64) []Detection {
	if len(dets) == 0 {
		return []Detection{}
	}

	idxs := make([]int, len(dets))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		a, b := dets[idxs[i]].Bounds, dets[idxs[j]].Bounds
		switch {
		case a.Y2 != b.Y2:
			return a.Y2 < b.Y2
		case a.X2 != b.X2:
			return a.X2 < b.X2
		case a.Y1 != b.Y1:
			return a.Y1 < b.Y1
		case a.X1 != b.X1:
			return a.X1 < b.X1
		}
		return dets[idxs[i]].Score < dets[idxs[j]].Score
	})

	suppressed := make([]bool, len(idxs))
	kept := make([]Detection, 0, len(dets))
	for last := len(idxs) - 1; last >= 0; last-- {
		if suppressed[last] {
			continue
		}
		pick := dets[idxs[last]]
		kept = append(kept, pick)

		for k := 0; k < last; k++ {
			if suppressed[k] {
				continue
			}
			if overlapRatio(pick.Bounds, dets[idxs[k]].Bounds) > overlapThresh {
				suppressed[k] = true
			}
		}
	}
	return kept
}

// overlapRatio returns the intersection of kept and other divided by the area
// of other, using inclusive pixel extents.
func overlapRatio(kept, other detection.Bounds) float64 {
	xx1 := max(kept.X1, other.X1)
	yy1 := max(kept.Y1, other.Y1)
	xx2 := min(kept.X2, other.X2)
	yy2 := min(kept.Y2, other.Y2)

	w := max(0, xx2-xx1+1)
	h := max(0, yy2-yy1+1)
	area := (other.X2 - other.X1 + 1) * (other.Y2 - other.Y1 + 1)
	if area <= 0 {
		return 0
	}
	return float64(w*h) / float64(area)
}
