package explain

import "testing"

func TestCombineActionLattice(t *testing.T) {
	cases := []struct {
		a, b Action
		want Action
	}{
		{Keep, Keep, Keep},
		{Keep, Next, Next},
		{Next, Keep, Next},
		{Keep, Prune, Prune},
		{Next, Prune, Prune},
		{Prune, Prune, Prune},
	}
	for _, c := range cases {
		if got := CombineAction(c.a, c.b); got != c.want {
			t.Fatalf("CombineAction(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

// Property #5: value(Γ) after initialize(Γ) is idempotent — a metric
// evaluated against the very global vector it was initialized with
// must be consistent with that initialization, not some stale state.
func TestSupportMetricValueOfGlobalIsIdempotent(t *testing.T) {
	global := []float64{40, 10}
	m := NewSupportMetric(1)
	m.Initialize(global)
	if got := m.Value(global); got != 1.0 {
		t.Fatalf("Value(global) = %v, want 1.0", got)
	}
}

func TestSupportMetricZeroGlobalNeverDividesByZero(t *testing.T) {
	m := NewSupportMetric(0)
	m.Initialize([]float64{0, 5})
	if got := m.Value([]float64{3, 1}); got != 0 {
		t.Fatalf("Value with zero global = %v, want 0", got)
	}
	if action := m.ActionFor([]float64{3, 1}, 0); action != Keep {
		t.Fatalf("ActionFor with threshold 0 = %v, want Keep", action)
	}
}

func TestMinCountMetricPrunesBelowThreshold(t *testing.T) {
	m := NewMinCountMetric(0)
	if got := m.ActionFor([]float64{4}, 5); got != Prune {
		t.Fatalf("ActionFor(4, threshold=5) = %v, want Prune", got)
	}
	if got := m.ActionFor([]float64{5}, 5); got != Keep {
		t.Fatalf("ActionFor(5, threshold=5) = %v, want Keep", got)
	}
}
