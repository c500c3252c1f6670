package clearsky

import (
	"math"
	"testing"
)

func TestLineLengthOf(t *testing.T) {
	tests := []struct {
		name     string
		v        []float64
		expected float64
	}{
		{name: "single point", v: []float64{5}, expected: 0},
		{name: "flat", v: []float64{3, 3, 3}, expected: 2},
		{name: "step", v: []float64{0, 1, 1}, expected: math.Sqrt2 + 1},
		{name: "descending", v: []float64{10, 7, 3}, expected: math.Sqrt(10) + math.Sqrt(17)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LineLengthOf(tt.v); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("expected %.9f, got %.9f", tt.expected, got)
			}
		})
	}
}

func TestSigmaOf(t *testing.T) {
	tests := []struct {
		name     string
		v        []float64
		expected float64
	}{
		{name: "regular", v: []float64{1, 2, 4}, expected: math.Sqrt(0.5) / (7.0 / 3.0)},
		{name: "constant slope", v: []float64{2, 4, 6, 8}, expected: 0},
		{name: "all zero", v: []float64{0, 0, 0, 0}, expected: 0},
		{name: "zero mean", v: []float64{1, -1, 1, -1}, expected: 0},
		{name: "single difference", v: []float64{3, 5}, expected: 0},
		{name: "single point", v: []float64{3}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SigmaOf(tt.v)
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Fatalf("expected a finite sigma, got %v", got)
			}
			if math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("expected %.9f, got %.9f", tt.expected, got)
			}
		})
	}
}

func TestMaxDeviationOf(t *testing.T) {
	if got := MaxDeviationOf([]float64{1, 3, 4}, []float64{1, 2, 5}); got != 2 {
		t.Errorf("expected 2, got %v", got)
	}
	if got := MaxDeviationOf([]float64{7}, []float64{1}); got != 0 {
		t.Errorf("expected 0 for a single point, got %v", got)
	}
}

func TestCalculateCriteria(t *testing.T) {
	x := []float64{1, 3, 4}
	cs := []float64{1, 2, 5}

	expected := Criteria{
		Mean:         0,
		Max:          -1,
		LineLength:   (math.Sqrt(5) + math.Sqrt2) - (math.Sqrt2 + math.Sqrt(10)),
		Sigma:        math.Sqrt(0.5)/(8.0/3.0) - math.Sqrt2/(8.0/3.0),
		MaxDeviation: 2,
	}

	got := CalculateCriteria(x, cs)
	for i := range expected {
		if math.Abs(got[i]-expected[i]) > 1e-9 {
			t.Errorf("%s: expected %.9f, got %.9f", Criterion(i), expected[i], got[i])
		}
	}
}

func TestCalculateCriteriaIdentical(t *testing.T) {
	v := []float64{0, 12.5, 80, 240.25, 410, 388, 512}
	e := NewEngine(len(v))

	for w := 1; w <= len(v); w++ {
		c := e.Calculate(v[:w], v[:w])
		if c != (Criteria{}) {
			t.Errorf("window %d: expected all-zero criteria, got %v", w, c)
		}
	}
}

func TestCalculateCriteriaZeroMeanWindow(t *testing.T) {
	x := make([]float64, 20)
	cs := []float64{0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1}

	c := CalculateCriteria(x, cs)
	for i, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s is not finite: %v", Criterion(i), v)
		}
	}
	if c[Sigma] != -SigmaOf(cs) {
		t.Errorf("expected the zero window to contribute no sigma, got %v", c[Sigma])
	}
}

func TestEngineReuse(t *testing.T) {
	e := NewEngine(2)
	long := e.Calculate([]float64{1, 5, 2, 8}, []float64{1, 4, 3, 7})
	short := e.Calculate([]float64{1, 5}, []float64{1, 4})

	if long != CalculateCriteria([]float64{1, 5, 2, 8}, []float64{1, 4, 3, 7}) {
		t.Errorf("grown engine disagrees with a fresh one: %v", long)
	}
	if short != CalculateCriteria([]float64{1, 5}, []float64{1, 4}) {
		t.Errorf("reused engine disagrees with a fresh one: %v", short)
	}
}

func TestCriterionString(t *testing.T) {
	if LineLength.String() != "line_length" {
		t.Errorf("unexpected name %q", LineLength.String())
	}
	if Criterion(9).String() != "criterion(9)" {
		t.Errorf("unexpected name %q", Criterion(9).String())
	}
}
