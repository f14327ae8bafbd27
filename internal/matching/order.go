package matching

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DetectionOrder is the policy used to sort detections for the operator.
type DetectionOrder string

// Supported detection orders.
const (
	OrderAscendingX  DetectionOrder = "asc_x"
	OrderDescendingX DetectionOrder = "desc_x"
	OrderAscendingY  DetectionOrder = "asc_y"
	OrderDescendingY DetectionOrder = "desc_y"
	OrderMaxScore    DetectionOrder = "max_score"
)

// DefaultOrder is used when a model does not specify one.
const DefaultOrder = OrderAscendingX

var orderLabels = map[DetectionOrder]string{
	OrderAscendingX:  "Ascending X",
	OrderDescendingX: "Descending X",
	OrderAscendingY:  "Ascending Y",
	OrderDescendingY: "Descending Y",
	OrderMaxScore:    "Maximum Matching %",
}

// Label returns the operator-facing name of the order, or the raw value for
// unknown orders.
func (o DetectionOrder) Label() string {
	if l, ok := orderLabels[o]; ok {
		return l
	}
	return string(o)
}

// Valid reports whether o is one of the supported orders.
func (o DetectionOrder) Valid() bool {
	_, ok := orderLabels[o]
	return ok
}

// ParseDetectionOrder accepts either the short form ("asc_x") or the
// operator label ("Ascending X"), case-insensitively.
func ParseDetectionOrder(s string) (DetectionOrder, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for o, label := range orderLabels {
		if norm == string(o) || norm == strings.ToLower(label) {
			return o, nil
		}
	}
	switch norm {
	case "ascx":
		return OrderAscendingX, nil
	case "descx":
		return OrderDescendingX, nil
	case "ascy":
		return OrderAscendingY, nil
	case "descy":
		return OrderDescendingY, nil
	case "maxscore", "score":
		return OrderMaxScore, nil
	}
	return "", errors.Errorf("unknown detection order %q", s)
}

// UnmarshalText lets JSON and YAML documents use either form accepted by
// ParseDetectionOrder. An empty value stays empty.
func (o *DetectionOrder) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*o = ""
		return nil
	}
	parsed, err := ParseDetectionOrder(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Order returns a copy of dets sorted by policy.
//
// Sorting is stable, so detections with equal keys keep their input order.
// AscX/DescX sort on centroid X, AscY/DescY on centroid Y, and MaxScore on
// score descending. An unknown policy returns the detections unchanged.
func Order(dets []Detection, policy DetectionOrder) []Detection {
	out := make([]Detection, len(dets))
	copy(out, dets)

	var less func(a, b Detection) bool
	switch policy {
	case OrderAscendingX:
		less = func(a, b Detection) bool { return a.Centroid.X < b.Centroid.X }
	case OrderDescendingX:
		less = func(a, b Detection) bool { return a.Centroid.X > b.Centroid.X }
	case OrderAscendingY:
		less = func(a, b Detection) bool { return a.Centroid.Y < b.Centroid.Y }
	case OrderDescendingY:
		less = func(a, b Detection) bool { return a.Centroid.Y > b.Centroid.Y }
	case OrderMaxScore:
		less = func(a, b Detection) bool { return a.Score > b.Score }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
