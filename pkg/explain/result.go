package explain

import "github.com/mylinyuzhi/macrobase/internal/core"

// NamedValue pairs a metric's name with the value it computed for a
// given result, so callers don't have to remember which threshold
// slot corresponds to which metric.
type NamedValue struct {
	Name  string
	Value float64
}

// Subgroup is a reported attribute combination: 1 to 3 codes in
// canonical ascending order.
type Subgroup struct {
	Members []int
}

func subgroupFromArraySet(s core.ArraySet) Subgroup {
	switch s.Order() {
	case 1:
		return Subgroup{Members: []int{s.First()}}
	case 2:
		return Subgroup{Members: []int{s.First(), s.Second()}}
	default:
		return Subgroup{Members: []int{s.First(), s.Second(), s.Third()}}
	}
}

// Result is one emitted candidate: the subgroup, its aggregate
// vector, and the metric values computed against it (both as a raw
// slice, in metric order, and as named pairs for convenience).
type Result struct {
	Subgroup     Subgroup
	Aggregates   []float64
	MetricValues []float64
	Metrics      []NamedValue
}
