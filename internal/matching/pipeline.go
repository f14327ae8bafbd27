package matching

import (
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/pickplace-mcp/internal/detection"
	"github.com/ironsheep/pickplace-mcp/internal/imaging"
	"github.com/ironsheep/pickplace-mcp/internal/placement"
)

// Params are the per-call matching parameters.
type Params struct {
	// Threshold is the minimum similarity as a fraction (0.8 = 80%).
	Threshold float64 `json:"threshold"`

	// OverlapThreshold is the suppression overlap ratio.
	OverlapThreshold float64 `json:"overlap_threshold"`

	// WeakThreshold is the similarity fraction counted as a weak match.
	WeakThreshold float64 `json:"weak_threshold"`

	// Order sorts the final detections.
	Order DetectionOrder `json:"detection_order"`

	// BoxSize is the side of the placement boxes.
	BoxSize int `json:"box_size"`

	// Limit keeps only the first Limit ordered detections; 0 keeps all.
	Limit int `json:"limit,omitempty"`

	// BinarizeLevel is the threshold of the binarization pre-pass.
	BinarizeLevel uint8 `json:"binarize_level"`
}

// DefaultParams returns the parameters used when a caller specifies nothing.
func DefaultParams() Params {
	return Params{
		Threshold:        DefaultThreshold,
		OverlapThreshold: DefaultOverlapThreshold,
		WeakThreshold:    DefaultWeakThreshold,
		Order:            DefaultOrder,
		BoxSize:          placement.DefaultBoxSize,
		BinarizeLevel:    imaging.DefaultBinarizeLevel,
	}
}

// Result is the outcome of one matching call.
type Result struct {
	// RunID identifies this call in logs.
	RunID string `json:"run_id"`

	// Detections are the kept matches, in the requested order.
	Detections []Detection `json:"detections"`

	// Placements holds one pair per detection, index aligned.
	Placements []placement.Pair `json:"placements"`

	// Count is len(Detections).
	Count int `json:"count"`

	// WeakMatches counts candidates whose best similarity reached the weak
	// threshold, whether or not they became detections.
	WeakMatches int `json:"weak_matches"`

	// ReferenceRegions and TargetRegions are the segmentation counts.
	ReferenceRegions int `json:"reference_regions"`
	TargetRegions    int `json:"target_regions"`

	// Suppressed is the number of detections removed as overlapping.
	Suppressed int `json:"suppressed"`

	// Width and Height are the target image dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// ElapsedMS is the wall time of the call in milliseconds.
	ElapsedMS int64 `json:"elapsed_ms"`
}

// Config holds the Matcher's fixed settings.
type Config struct {
	// Segment configures region extraction for both images.
	Segment detection.Options

	// AngleStep and Perturb configure the placement search.
	AngleStep int
	Perturb   bool

	// Workers bounds concurrent candidate scoring; zero means GOMAXPROCS.
	Workers int
}

// Matcher runs the full matching pipeline. A Matcher holds no per-call state
// and is safe for concurrent use.
type Matcher struct {
	cfg    Config
	logger *slog.Logger
}

// NewMatcher creates a Matcher. A nil logger discards log output.
func NewMatcher(cfg Config, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Matcher{cfg: cfg, logger: logger}
}

// MatchFiles loads both images through cache and calls Match.
func (m *Matcher) MatchFiles(cache *imaging.ImageCache, referencePath, targetPath string, p Params) (*Result, error) {
	ref, err := cache.Load(referencePath)
	if err != nil {
		return nil, errors.Wrap(err, "reference image")
	}
	target, err := cache.Load(targetPath)
	if err != nil {
		return nil, errors.Wrap(err, "target image")
	}
	return m.Match(ref, target, p)
}

// Match finds occurrences of the reference object in target and plans
// placement boxes around each of them.
//
// # Pipeline
//
//  1. Binarize both images (Params.BinarizeLevel)
//  2. Segment both images concurrently
//  3. Aggregate: best reference score per candidate, threshold filter
//  4. Suppress overlapping detections
//  5. Order detections by Params.Order and apply Params.Limit
//  6. Plan placement pairs against the binarized target
//
// An empty image is reported as imaging.ErrImageDecode. Finding nothing is
// not an error: the result simply has no detections.
func (m *Matcher) Match(reference, target image.Image, p Params) (*Result, error) {
	start := time.Now()
	if reference == nil || reference.Bounds().Empty() {
		return nil, errors.Wrap(imaging.ErrImageDecode, "reference image is empty")
	}
	if target == nil || target.Bounds().Empty() {
		return nil, errors.Wrap(imaging.ErrImageDecode, "target image is empty")
	}
	p = p.withDefaults()

	runID := uuid.NewString()
	log := m.logger.With("run", runID)

	refBin := imaging.Binarize(reference, p.BinarizeLevel)
	targetBin := imaging.Binarize(target, p.BinarizeLevel)

	var refRegions, targetRegions []detection.Region
	var g errgroup.Group
	g.Go(func() error {
		refRegions = detection.Segment(refBin, m.cfg.Segment)
		return nil
	})
	g.Go(func() error {
		targetRegions = detection.Segment(targetBin, m.cfg.Segment)
		return nil
	})
	_ = g.Wait()

	candidates, weak := AggregateWith(refRegions, targetRegions, AggregateOptions{
		Threshold:     p.Threshold,
		WeakThreshold: p.WeakThreshold,
		Workers:       m.cfg.Workers,
	})
	kept := Suppress(candidates, p.OverlapThreshold)
	ordered := Order(kept, p.Order)
	if p.Limit > 0 && len(ordered) > p.Limit {
		ordered = ordered[:p.Limit]
	}

	targets := make([]placement.Target, len(ordered))
	for i, d := range ordered {
		targets[i] = placement.Target{Center: d.Centroid, Seed: d.Seed}
	}
	planner := placement.NewPlanner(placement.Options{
		BoxSize:   p.BoxSize,
		AngleStep: m.cfg.AngleStep,
		Perturb:   m.cfg.Perturb,
	})
	pairs := planner.Plan(targets, targetBin)
	for i, pair := range pairs {
		if pair.Exhausted {
			log.Warn("placement search exhausted", "detection", i, "center", pair.Center)
		}
	}

	b := targetBin.Bounds()
	res := &Result{
		RunID:            runID,
		Detections:       ordered,
		Placements:       pairs,
		Count:            len(ordered),
		WeakMatches:      weak,
		ReferenceRegions: len(refRegions),
		TargetRegions:    len(targetRegions),
		Suppressed:       len(candidates) - len(kept),
		Width:            b.Dx(),
		Height:           b.Dy(),
		ElapsedMS:        time.Since(start).Milliseconds(),
	}

	log.Debug("match complete",
		"reference_regions", res.ReferenceRegions,
		"target_regions", res.TargetRegions,
		"detections", res.Count,
		"suppressed", res.Suppressed,
		"weak", res.WeakMatches,
		"elapsed_ms", res.ElapsedMS)
	return res, nil
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Threshold <= 0 {
		p.Threshold = d.Threshold
	}
	if p.OverlapThreshold <= 0 {
		p.OverlapThreshold = d.OverlapThreshold
	}
	if p.WeakThreshold <= 0 {
		p.WeakThreshold = d.WeakThreshold
	}
	if p.Order == "" {
		p.Order = d.Order
	}
	if p.BoxSize <= 0 {
		p.BoxSize = d.BoxSize
	}
	if p.BinarizeLevel == 0 {
		p.BinarizeLevel = d.BinarizeLevel
	}
	return p
}
