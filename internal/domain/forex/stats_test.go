package forex

import (
	"math"
	"testing"
)

func TestStats(t *testing.T) {
	s := Stats([]float64{1.0, 2.0, 3.0, 4.0})

	if s.Mean != 2.5 {
		t.Errorf("expected mean 2.5, got %v", s.Mean)
	}
	if s.Variance != 1.25 {
		t.Errorf("expected variance 1.25, got %v", s.Variance)
	}
	if s.Highest != 4.0 {
		t.Errorf("expected highest 4.0, got %v", s.Highest)
	}
	if s.Lowest != 1.0 {
		t.Errorf("expected lowest 1.0, got %v", s.Lowest)
	}
	if s.Count != 4 {
		t.Errorf("expected count 4, got %d", s.Count)
	}
}

func TestStatsSingleValue(t *testing.T) {
	s := Stats([]float64{1.0845})

	if s.Mean != 1.0845 || s.Highest != 1.0845 || s.Lowest != 1.0845 {
		t.Errorf("single-value stats wrong: %+v", s)
	}
	if s.Variance != 0 {
		t.Errorf("expected zero variance, got %v", s.Variance)
	}
}

func TestStatsEmpty(t *testing.T) {
	s := Stats(nil)
	if s != (Summary{}) {
		t.Errorf("expected zero summary for empty series, got %+v", s)
	}
}

func TestStatsNegativeDeltas(t *testing.T) {
	s := Stats([]float64{0.9, 1.1})
	if math.Abs(s.Variance-0.01) > 1e-12 {
		t.Errorf("expected variance 0.01, got %v", s.Variance)
	}
}
