package clearsky

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// RMSE returns the root mean squared error between x and y
func RMSE(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: %d and %d values", ErrLengthMismatch, len(x), len(y))
	}
	if len(x) == 0 {
		return math.NaN(), nil
	}

	d := make([]float64, len(x))
	floats.SubTo(d, x, y)
	return math.Sqrt(floats.Dot(d, d) / float64(len(d))), nil
}

// Summary counts the clear points of a mask
type Summary struct {
	Total    int     `json:"total" msgpack:"total"`
	Clear    int     `json:"clear" msgpack:"clear"`
	Fraction float64 `json:"fraction" msgpack:"fraction"`
}

// Summarize returns the number and share of clear points in mask
func Summarize(mask []bool) Summary {
	s := Summary{Total: len(mask)}
	for _, clear := range mask {
		if clear {
			s.Clear++
		}
	}
	if s.Total > 0 {
		s.Fraction = float64(s.Clear) / float64(s.Total)
	}
	return s
}

// Interval is a half-open run [Start, End) of consecutive clear points
type Interval struct {
	Start int `json:"start" msgpack:"start"`
	End   int `json:"end" msgpack:"end"`
}

// Len returns the number of points in the interval
func (iv Interval) Len() int {
	return iv.End - iv.Start
}

// ClearIntervals returns the maximal runs of true values in mask, in order
func ClearIntervals(mask []bool) []Interval {
	var out []Interval
	start := -1

	for i, clear := range mask {
		switch {
		case clear && start < 0:
			start = i
		case !clear && start >= 0:
			out = append(out, Interval{Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, Interval{Start: start, End: len(mask)})
	}

	return out
}
