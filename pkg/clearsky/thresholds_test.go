package clearsky

import (
	"errors"
	"testing"
)

func TestThresholdBounds(t *testing.T) {
	for _, th := range []Threshold{{-1, 1}, {1, -1}} {
		if th.Min() != -1 || th.Max() != 1 {
			t.Errorf("%v: expected bounds [-1, 1], got [%v, %v]", th, th.Min(), th.Max())
		}
		for _, v := range []float64{-1, 0, 1} {
			if !th.Contains(v) {
				t.Errorf("%v should contain %v", th, v)
			}
		}
		for _, v := range []float64{-1.0001, 1.0001} {
			if th.Contains(v) {
				t.Errorf("%v should not contain %v", th, v)
			}
		}
	}
}

func TestThresholdsFromMap(t *testing.T) {
	th, err := ThresholdsFromMap(map[string][2]float64{
		"sigma":         {0.01, -0.01},
		"max_deviation": {-4, 4},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := th.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if th[Sigma] != (Threshold{0.01, -0.01}) || th[MaxDeviation] != (Threshold{-4, 4}) {
		t.Errorf("overrides not applied: %v", th)
	}
	if th[Mean] != DefaultThresholds()[Mean] {
		t.Errorf("expected default mean threshold, got %v", th[Mean])
	}

	if _, err := ThresholdsFromMap(map[string][2]float64{"median": {0, 1}}); err == nil {
		t.Error("expected an error for an unknown criterion")
	}
}

func TestThresholdsFromLists(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected Threshold
		wantErr  bool
	}{
		{name: "pair", values: []float64{1, -1}, expected: Threshold{-1, 1}},
		{name: "three values", values: []float64{0, 1, -5}, expected: Threshold{-5, 1}},
		{name: "single value", values: []float64{5}, wantErr: true},
		{name: "empty", values: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, err := ThresholdsFromLists(map[string][]float64{"mean": tt.values})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if th[Mean] != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, th[Mean])
			}
		})
	}
}

func TestThresholdsValidate(t *testing.T) {
	for _, n := range []int{0, 4, 6} {
		err := make(Thresholds, n).Validate()
		if !errors.Is(err, ErrInvalidThresholdCount) {
			t.Errorf("%d thresholds: expected ErrInvalidThresholdCount, got %v", n, err)
		}
	}
}

func TestEvaluate(t *testing.T) {
	th := Thresholds{{-1, 1}, {-1, 1}, {-1, 1}, {-1, 1}, {-1, 1}}

	if !Evaluate(Criteria{1, -1, 0, 0.5, -0.5}, th) {
		t.Error("criteria on the bounds should pass")
	}
	for c := 0; c < NumCriteria; c++ {
		var crit Criteria
		crit[c] = 1.5
		if Evaluate(crit, th) {
			t.Errorf("criteria failing %s should not pass", Criterion(c))
		}
	}
}
