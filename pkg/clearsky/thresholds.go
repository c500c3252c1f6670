package clearsky

import (
	"fmt"
	"math"
	"slices"
)

// Threshold is a pair of bounds for one criterion. The bounds are unordered:
// the smaller one is the lower bound no matter which position it occupies.
type Threshold [2]float64

// Min returns the lower bound
func (t Threshold) Min() float64 {
	return math.Min(t[0], t[1])
}

// Max returns the upper bound
func (t Threshold) Max() float64 {
	return math.Max(t[0], t[1])
}

// Contains reports whether v lies within the bounds, inclusive. NaN lies
// outside every threshold.
func (t Threshold) Contains(v float64) bool {
	return v >= t.Min() && v <= t.Max()
}

// NewThreshold returns a Threshold spanning values, which may list any number
// of bounds but at least two
func NewThreshold(values []float64) (Threshold, error) {
	if len(values) < 2 {
		return Threshold{}, fmt.Errorf("a threshold needs at least two values, got %d", len(values))
	}
	return Threshold{slices.Min(values), slices.Max(values)}, nil
}

// Thresholds holds one Threshold per criterion, in Criterion order. It is a
// slice rather than an array so that tables decoded from user input can be
// validated by the scanner.
type Thresholds []Threshold

// DefaultThresholds returns the thresholds published by Reno et al. (2012)
// for a 10 minute window of 1 minute data.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Mean:         {-75, 75},
		Max:          {-75, 75},
		LineLength:   {-5, 10},
		Sigma:        {-0.005, 0.005},
		MaxDeviation: {-8, 8},
	}
}

// ThresholdsFromMap builds a table from criterion names (see Criterion.String).
// Criteria missing from m keep their default bounds.
func ThresholdsFromMap(m map[string][2]float64) (Thresholds, error) {
	t := DefaultThresholds()
	for name, bounds := range m {
		c, err := ParseCriterion(name)
		if err != nil {
			return nil, err
		}
		t[c] = bounds
	}
	return t, nil
}

// ThresholdsFromLists is ThresholdsFromMap for bounds given as lists of
// values; see NewThreshold
func ThresholdsFromLists(m map[string][]float64) (Thresholds, error) {
	bounds := make(map[string][2]float64, len(m))
	for name, values := range m {
		th, err := NewThreshold(values)
		if err != nil {
			return nil, fmt.Errorf("threshold %q: %w", name, err)
		}
		bounds[name] = th
	}
	return ThresholdsFromMap(bounds)
}

// ParseCriterion maps a criterion name to its Criterion
func ParseCriterion(name string) (Criterion, error) {
	for i, n := range criterionNames {
		if n == name {
			return Criterion(i), nil
		}
	}
	return 0, fmt.Errorf("unknown criterion %q", name)
}

// Validate checks that the table has one entry per criterion
func (t Thresholds) Validate() error {
	if len(t) != NumCriteria {
		return fmt.Errorf("%w: got %d", ErrInvalidThresholdCount, len(t))
	}
	return nil
}

// Evaluate reports whether every criterion lies within its threshold.
// t must have been validated.
func Evaluate(c Criteria, t Thresholds) bool {
	for i, v := range c {
		if !t[i].Contains(v) {
			return false
		}
	}
	return true
}
