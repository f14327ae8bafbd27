package matching

import (
	"encoding/json"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/pickplace-mcp/internal/detection"
)

func at(x, y int, score float64, id int) Detection {
	return Detection{
		Centroid:       detection.Point{X: x, Y: y},
		Score:          score,
		CandidateIndex: id,
	}
}

func ids(dets []Detection) []int {
	return lo.Map(dets, func(d Detection, _ int) int { return d.CandidateIndex })
}

func TestOrder_Policies(t *testing.T) {
	dets := []Detection{
		at(30, 10, 85, 0),
		at(10, 40, 95, 1),
		at(20, 20, 90, 2),
	}

	tests := []struct {
		policy DetectionOrder
		want   []int
	}{
		{OrderAscendingX, []int{1, 2, 0}},
		{OrderDescendingX, []int{0, 2, 1}},
		{OrderAscendingY, []int{0, 2, 1}},
		{OrderDescendingY, []int{1, 2, 0}},
		{OrderMaxScore, []int{1, 2, 0}},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Order(dets, tt.policy)))
		})
	}

	assert.Equal(t, []int{0, 1, 2}, ids(dets), "Order must not modify its input")
}

func TestOrder_Stable(t *testing.T) {
	dets := []Detection{
		at(10, 5, 80, 0),
		at(10, 3, 80, 1),
		at(5, 9, 80, 2),
		at(10, 1, 80, 3),
	}

	assert.Equal(t, []int{2, 0, 1, 3}, ids(Order(dets, OrderAscendingX)))
	assert.Equal(t, []int{0, 1, 3, 2}, ids(Order(dets, OrderDescendingX)))
	assert.Equal(t, []int{0, 1, 2, 3}, ids(Order(dets, OrderMaxScore)))
}

func TestOrder_UnknownPolicy(t *testing.T) {
	dets := []Detection{at(30, 0, 1, 0), at(10, 0, 2, 1)}

	out := Order(dets, DetectionOrder("zigzag"))
	assert.Equal(t, []int{0, 1}, ids(out))

	out[0].Score = 50
	assert.Equal(t, 1.0, dets[0].Score, "the result must be a copy")
}

func TestOrder_Empty(t *testing.T) {
	assert.Empty(t, Order(nil, OrderAscendingX))
}

func TestParseDetectionOrder(t *testing.T) {
	tests := []struct {
		in   string
		want DetectionOrder
	}{
		{"asc_x", OrderAscendingX},
		{"Ascending X", OrderAscendingX},
		{"  descending y ", OrderDescendingY},
		{"DESC_X", OrderDescendingX},
		{"ascy", OrderAscendingY},
		{"descy", OrderDescendingY},
		{"Maximum Matching %", OrderMaxScore},
		{"score", OrderMaxScore},
		{"maxscore", OrderMaxScore},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDetectionOrder(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDetectionOrder("sideways")
	assert.ErrorContains(t, err, "sideways")
}

func TestDetectionOrder_LabelAndValid(t *testing.T) {
	assert.Equal(t, "Ascending X", OrderAscendingX.Label())
	assert.Equal(t, "Maximum Matching %", OrderMaxScore.Label())
	assert.Equal(t, "other", DetectionOrder("other").Label())

	assert.True(t, OrderDescendingY.Valid())
	assert.False(t, DetectionOrder("").Valid())
}

func TestDetectionOrder_UnmarshalText(t *testing.T) {
	var doc struct {
		Order DetectionOrder `json:"order" yaml:"order"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"order":"Descending X"}`), &doc))
	assert.Equal(t, OrderDescendingX, doc.Order)

	require.NoError(t, yaml.Unmarshal([]byte("order: ascy\n"), &doc))
	assert.Equal(t, OrderAscendingY, doc.Order)

	require.NoError(t, json.Unmarshal([]byte(`{"order":""}`), &doc))
	assert.Equal(t, DetectionOrder(""), doc.Order)

	assert.Error(t, json.Unmarshal([]byte(`{"order":"up"}`), &doc))
}
