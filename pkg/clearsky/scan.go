package clearsky

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// progressBatch is how many windows a worker evaluates between Progress calls
const progressBatch = 1024

// Scanner slides a window across a series pair and marks the points of every
// window that satisfies all five thresholds as clear.
//
// The zero value scans sequentially. A Scanner holds no state between scans
// and may be reused or shared.
type Scanner struct {
	// Workers is the number of goroutines evaluating windows. Values below 2
	// scan on the calling goroutine.
	Workers int

	// Progress, if set, is called with the number of windows evaluated since
	// the previous call. With more than one worker it is called concurrently.
	Progress func(windows int)
}

// DetectClearPoints scans observed against predicted on the calling goroutine
// and returns a mask of the clear points. The returned mask is newly allocated
// and owned by the caller.
func DetectClearPoints(ctx context.Context, observed, predicted []float64, thresholds Thresholds, windowLen int) ([]bool, error) {
	var s Scanner
	return s.Scan(ctx, observed, predicted, thresholds, windowLen)
}

// Validate checks the arguments of a scan without running it
func Validate(observed, predicted []float64, thresholds Thresholds, windowLen int) error {
	n := len(observed)
	if n != len(predicted) {
		return fmt.Errorf("%w: observed has %d values, predicted has %d", ErrLengthMismatch, n, len(predicted))
	}
	if windowLen <= 0 || windowLen > n {
		return fmt.Errorf("%w: %d (series length %d)", ErrInvalidWindowLength, windowLen, n)
	}
	return thresholds.Validate()
}

// Scan returns a mask the length of observed in which a point is true when at
// least one window covering it passed every threshold.
//
// The context is checked once per window. If it is cancelled the scan stops and
// returns the context's error without a mask.
func (s *Scanner) Scan(ctx context.Context, observed, predicted []float64, thresholds Thresholds, windowLen int) ([]bool, error) {
	if err := Validate(observed, predicted, thresholds, windowLen); err != nil {
		return nil, err
	}

	windows := len(observed) - windowLen + 1
	passed := make([]bool, windows)

	workers := s.Workers
	if workers > windows {
		workers = windows
	}

	if workers < 2 {
		if err := s.scanRange(ctx, observed, predicted, thresholds, windowLen, 0, windows, passed); err != nil {
			return nil, fmt.Errorf("clear-sky scan aborted: %w", err)
		}
		return markClear(passed, len(observed), windowLen), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	chunk := (windows + workers - 1) / workers
	for from := 0; from < windows; from += chunk {
		from := from
		to := min(from+chunk, windows)
		g.Go(func() error {
			return s.scanRange(gctx, observed, predicted, thresholds, windowLen, from, to, passed)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("clear-sky scan aborted: %w", err)
	}

	return markClear(passed, len(observed), windowLen), nil
}

// scanRange evaluates the windows starting at [from, to) and records the
// outcome of each in passed
func (s *Scanner) scanRange(ctx context.Context, observed, predicted []float64, thresholds Thresholds, w, from, to int, passed []bool) error {
	e := NewEngine(w)
	pending := 0

	for start := from; start < to; start++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		c := e.Calculate(observed[start:start+w], predicted[start:start+w])
		passed[start] = Evaluate(c, thresholds)

		pending++
		if s.Progress != nil && pending == progressBatch {
			s.Progress(pending)
			pending = 0
		}
	}

	if s.Progress != nil && pending > 0 {
		s.Progress(pending)
	}
	return nil
}

// markClear ORs every passing window into a fresh mask of length n. Windows
// are visited in start order, so each point is written at most once.
func markClear(passed []bool, n, w int) []bool {
	mask := make([]bool, n)
	covered := 0

	for start, ok := range passed {
		if !ok {
			continue
		}
		for i := max(start, covered); i < start+w; i++ {
			mask[i] = true
		}
		covered = start + w
	}

	return mask
}
