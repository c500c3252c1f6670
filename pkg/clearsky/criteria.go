// Package clearsky detects clear-sky periods in measured irradiance by
// comparing sliding windows of it against a clear-sky model prediction using
// the five criteria of Reno et al. (2012).
package clearsky

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Criterion indexes one of the five clear-sky criteria
type Criterion int

const (
	Mean Criterion = iota
	Max
	LineLength
	Sigma
	MaxDeviation

	// NumCriteria is the number of criteria and thresholds
	NumCriteria = 5
)

var criterionNames = [NumCriteria]string{"mean", "max", "line_length", "sigma", "max_deviation"}

func (c Criterion) String() string {
	if c < 0 || int(c) >= NumCriteria {
		return fmt.Sprintf("criterion(%d)", int(c))
	}
	return criterionNames[c]
}

// Criteria holds the five criterion values for one window, indexed by Criterion
type Criteria [NumCriteria]float64

func (c Criteria) String() string {
	return fmt.Sprintf("mean=%g max=%g line_length=%g sigma=%g max_deviation=%g",
		c[Mean], c[Max], c[LineLength], c[Sigma], c[MaxDeviation])
}

// Engine computes criteria for pairs of windows. It keeps scratch buffers
// between calls, so an Engine must not be shared between goroutines.
type Engine struct {
	dx  []float64
	dcs []float64
	dev []float64
}

// NewEngine returns an Engine with buffers sized for windows of length w
func NewEngine(w int) *Engine {
	n := w - 1
	if n < 0 {
		n = 0
	}
	return &Engine{
		dx:  make([]float64, n),
		dcs: make([]float64, n),
		dev: make([]float64, n),
	}
}

// Calculate returns the criteria for observed window x and predicted window cs.
// x and cs must have the same, non-zero length.
func (e *Engine) Calculate(x, cs []float64) Criteria {
	var c Criteria

	dx := diffTo(e.grow(&e.dx, len(x)-1), x)
	dcs := diffTo(e.grow(&e.dcs, len(cs)-1), cs)

	c[Mean] = stat.Mean(x, nil) - stat.Mean(cs, nil)
	c[Max] = floats.Max(x) - floats.Max(cs)
	c[LineLength] = lineLengthOfDiff(dx) - lineLengthOfDiff(dcs)
	c[Sigma] = sigmaOfDiff(x, dx) - sigmaOfDiff(cs, dcs)
	c[MaxDeviation] = maxDeviationOfDiff(e.grow(&e.dev, len(dx)), dx, dcs)

	return c
}

func (e *Engine) grow(buf *[]float64, n int) []float64 {
	if n < 0 {
		n = 0
	}
	if cap(*buf) < n {
		*buf = make([]float64, n)
	}
	return (*buf)[:n]
}

// CalculateCriteria is a convenience wrapper that allocates a fresh Engine
func CalculateCriteria(x, cs []float64) Criteria {
	return NewEngine(len(x)).Calculate(x, cs)
}

// LineLengthOf returns the length of the line traced by v, assuming adjacent
// samples are exactly one time unit apart:
//
//	L = sum_i sqrt((v[i+1]-v[i])^2 + 1)
//
// The thresholds in DefaultThresholds were calibrated with this unit step.
func LineLengthOf(v []float64) float64 {
	return lineLengthOfDiff(diff(v))
}

// SigmaOf returns the standard deviation of the first differences of v
// normalized by the mean of v. A non-finite ratio (zero mean, or fewer than
// two differences) yields 0.
func SigmaOf(v []float64) float64 {
	return sigmaOfDiff(v, diff(v))
}

// MaxDeviationOf returns max |diff(x) - diff(cs)|, the largest deviation of the
// measured slope from the predicted slope. Windows shorter than two samples
// have no slope and return 0.
func MaxDeviationOf(x, cs []float64) float64 {
	dx, dcs := diff(x), diff(cs)
	return maxDeviationOfDiff(make([]float64, len(dx)), dx, dcs)
}

func diff(v []float64) []float64 {
	if len(v) < 2 {
		return nil
	}
	return diffTo(make([]float64, len(v)-1), v)
}

// diffTo stores the first differences of v in dst, which must hold len(v)-1 values
func diffTo(dst, v []float64) []float64 {
	if len(v) < 2 {
		return dst[:0]
	}
	return floats.SubTo(dst, v[1:], v[:len(v)-1])
}

func lineLengthOfDiff(d []float64) float64 {
	var l float64
	for _, s := range d {
		l += math.Sqrt(s*s + 1)
	}
	return l
}

func sigmaOfDiff(v, d []float64) float64 {
	sd := math.NaN()
	if len(d) > 1 {
		sd = stat.StdDev(d, nil)
	}
	sigma := sd / stat.Mean(v, nil)
	if math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return 0
	}
	return sigma
}

func maxDeviationOfDiff(dst, dx, dcs []float64) float64 {
	if len(dx) == 0 {
		return 0
	}
	floats.SubTo(dst, dx, dcs)
	for i, v := range dst {
		dst[i] = math.Abs(v)
	}
	return floats.Max(dst)
}
