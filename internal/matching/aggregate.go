package matching

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/pickplace-mcp/internal/detection"
)

// DefaultThreshold is the fraction of similarity a candidate needs to become a
// detection.
const DefaultThreshold = 0.8

// DefaultWeakThreshold is the fraction of similarity at which a candidate is
// counted as a weak match.
const DefaultWeakThreshold = 0.1

// Detection is a candidate region that matched a reference region.
type Detection struct {
	// Bounds is the candidate box as (x, y, x+w, y+h).
	Bounds detection.Bounds `json:"bounds"`

	// Score is the best similarity as a percentage in [0, 100].
	Score float64 `json:"score"`

	// Centroid is the candidate's moment centroid.
	Centroid detection.Point `json:"centroid"`

	// Contour is the candidate's compressed outer boundary.
	Contour []detection.Point `json:"-"`

	// Seed is the first contour point.
	Seed detection.Point `json:"seed"`

	// ReferenceIndex is the reference region that produced Score.
	ReferenceIndex int `json:"reference_index"`

	// CandidateIndex is the candidate's position in the target's regions.
	CandidateIndex int `json:"candidate_index"`
}

// AggregateOptions controls Aggregate.
type AggregateOptions struct {
	// Threshold is the minimum best similarity, as a fraction, to emit a
	// detection.
	Threshold float64

	// WeakThreshold is the minimum best similarity, as a fraction, to count a
	// candidate as a weak match.
	WeakThreshold float64

	// Workers bounds the number of candidates scored concurrently.
	// Zero means GOMAXPROCS.
	Workers int
}

// Aggregate scores every candidate against every reference region and keeps
// the candidates whose best score reaches threshold.
//
// Parameters:
//   - refs: Regions of the reference image, in discovery order.
//   - cands: Regions of the target image, in discovery order.
//   - threshold: Minimum similarity as a fraction (0.8 means 80%).
//
// Returns the detections in candidate order and the number of candidates
// whose best score reached 10%.
func Aggregate(refs, cands []detection.Region, threshold float64) ([]Detection, int) {
	return AggregateWith(refs, cands, AggregateOptions{
		Threshold:     threshold,
		WeakThreshold: DefaultWeakThreshold,
	})
}

// AggregateWith is Aggregate with explicit options.
//
// For each candidate the best score over all references is kept; a later
// reference replaces the current best only when strictly greater, so the
// first reference wins ties. Pairs whose reference is too small to compare are
// skipped. Candidates are scored concurrently but results are assembled in
// candidate order, so the output does not depend on scheduling.
func AggregateWith(refs, cands []detection.Region, opts AggregateOptions) ([]Detection, int) {
	if len(refs) == 0 || len(cands) == 0 {
		return []Detection{}, 0
	}

	type best struct {
		score float64
		ref   int
		found bool
	}
	results := make([]best, len(cands))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for ci := range cands {
		ci := ci
		g.Go(func() error {
			b := best{}
			for ri := range refs {
				s, ok := Score(refs[ri], cands[ci])
				if !ok {
					continue
				}
				if s > b.score {
					b = best{score: s, ref: ri, found: true}
				}
			}
			results[ci] = b
			return nil
		})
	}
	_ = g.Wait()

	detections := make([]Detection, 0)
	weak := 0
	for ci, b := range results {
		if !b.found {
			continue
		}
		pct := b.score * 100
		if pct >= opts.WeakThreshold*100 {
			weak++
		}
		if pct >= opts.Threshold*100 {
			c := cands[ci]
			detections = append(detections, Detection{
				Bounds:         c.Bounds(),
				Score:          pct,
				Centroid:       c.Centroid,
				Contour:        c.Contour,
				Seed:           c.Seed(),
				ReferenceIndex: b.ref,
				CandidateIndex: ci,
			})
		}
	}
	return detections, weak
}
