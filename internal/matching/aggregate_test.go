package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/pickplace-mcp/internal/detection"
)

func TestAggregate_SelfMatch(t *testing.T) {
	r := regionOf(pattern(16, 16), 10, 20)

	dets, weak := Aggregate([]detection.Region{r}, []detection.Region{r}, DefaultThreshold)
	require.Len(t, dets, 1)
	assert.Equal(t, 1, weak)

	d := dets[0]
	assert.InDelta(t, 100.0, d.Score, 1e-9)
	assert.Equal(t, detection.Bounds{X1: 10, Y1: 20, X2: 26, Y2: 36}, d.Bounds)
	assert.Equal(t, r.Centroid, d.Centroid)
	assert.Equal(t, detection.Point{X: 10, Y: 20}, d.Seed)
	assert.Equal(t, 0, d.ReferenceIndex)
	assert.Equal(t, 0, d.CandidateIndex)
}

func TestAggregate_EmptyInputs(t *testing.T) {
	r := regionOf(pattern(16, 16), 0, 0)

	dets, weak := Aggregate(nil, []detection.Region{r}, DefaultThreshold)
	assert.NotNil(t, dets)
	assert.Empty(t, dets)
	assert.Zero(t, weak)

	dets, weak = Aggregate([]detection.Region{r}, nil, DefaultThreshold)
	assert.Empty(t, dets)
	assert.Zero(t, weak)
}

func TestAggregate_FirstReferenceWinsTies(t *testing.T) {
	r := regionOf(pattern(16, 16), 0, 0)

	dets, _ := Aggregate([]detection.Region{r, r}, []detection.Region{r}, DefaultThreshold)
	require.Len(t, dets, 1)
	assert.Equal(t, 0, dets[0].ReferenceIndex)

	other := regionOf(invert(pattern(16, 16)), 0, 0)
	dets, _ = Aggregate([]detection.Region{other, r}, []detection.Region{r}, DefaultThreshold)
	require.Len(t, dets, 1)
	assert.Equal(t, 1, dets[0].ReferenceIndex, "the better reference should win")
}

func TestAggregate_ThresholdAndWeakCount(t *testing.T) {
	r := regionOf(pattern(16, 16), 0, 0)
	opposite := regionOf(invert(pattern(16, 16)), 40, 0)

	// The inverted candidate scores below zero: neither a detection nor weak.
	dets, weak := Aggregate([]detection.Region{r}, []detection.Region{r, opposite}, DefaultThreshold)
	require.Len(t, dets, 1)
	assert.Equal(t, 0, dets[0].CandidateIndex)
	assert.Equal(t, 1, weak)

	// Weak matches are counted even when no candidate reaches the threshold.
	dets, weak = AggregateWith([]detection.Region{r}, []detection.Region{r}, AggregateOptions{
		Threshold:     1.01,
		WeakThreshold: DefaultWeakThreshold,
	})
	assert.Empty(t, dets)
	assert.Equal(t, 1, weak)
}

func TestAggregate_SkipsReferencesTooSmallToCompare(t *testing.T) {
	tiny := regionOf(pattern(5, 5), 0, 0)
	cand := regionOf(pattern(16, 16), 0, 0)

	dets, weak := Aggregate([]detection.Region{tiny}, []detection.Region{cand}, 0.01)
	assert.Empty(t, dets)
	assert.Zero(t, weak)
}

func TestAggregate_CandidateOrderUnderConcurrency(t *testing.T) {
	ref := regionOf(pattern(16, 16), 0, 0)
	cands := make([]detection.Region, 24)
	for i := range cands {
		cands[i] = regionOf(pattern(16, 16), i*20, 0)
	}

	dets, weak := AggregateWith([]detection.Region{ref}, cands, AggregateOptions{
		Threshold:     DefaultThreshold,
		WeakThreshold: DefaultWeakThreshold,
		Workers:       3,
	})
	require.Len(t, dets, len(cands))
	assert.Equal(t, len(cands), weak)
	for i, d := range dets {
		assert.Equal(t, i, d.CandidateIndex)
		assert.Equal(t, i*20, d.Bounds.X1)
	}
}
