// Package detection runs clear-sky detection end to end: it loads measured
// irradiance, predicts clear-sky irradiance at the same timestamps, scans for
// clear periods and records the run.
package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/clearsky/internal/metrics"
	"github.com/chrissnell/clearsky/internal/series"
	"github.com/chrissnell/clearsky/internal/storage/sqlite"
	"github.com/chrissnell/clearsky/pkg/clearsky"
	"github.com/chrissnell/clearsky/pkg/config"
	"github.com/chrissnell/clearsky/pkg/solar"
)

// RunStore persists completed runs
type RunStore interface {
	SaveRun(ctx context.Context, run *sqlite.Run, intervals []sqlite.Interval) error
}

// Pipeline holds everything needed to run detection for one site
type Pipeline struct {
	Station      string
	ModelName    string
	Model        solar.ModelFunc
	Site         solar.Site
	Thresholds   clearsky.Thresholds
	WindowLength int
	Workers      int

	Source Source
	Store  RunStore // optional

	logger *zap.SugaredLogger
}

// Request selects the data a run operates on. When Series is set the source
// is not consulted.
type Request struct {
	Start, End time.Time
	Series     *series.Series

	// Progress receives the number of windows evaluated since its last call
	Progress func(windows int)
}

// Result is the outcome of a run
type Result struct {
	Run       sqlite.Run
	Series    series.Series
	Predicted []float64
	Mask      []bool
	Intervals []sqlite.Interval
	RMSE      float64
}

// NewPipeline builds a pipeline from configuration. The caller owns the
// store and closes it; the pipeline's source is closed by Close.
func NewPipeline(cfg *config.ConfigData, store RunStore, logger *zap.SugaredLogger) (*Pipeline, error) {
	model, err := solar.Lookup(cfg.Model)
	if err != nil {
		return nil, err
	}

	thresholds, err := cfg.Detection.ThresholdTable()
	if err != nil {
		return nil, err
	}

	source, err := NewSource(cfg, logger)
	if err != nil {
		return nil, err
	}

	station := cfg.Source.Station
	if station == "" {
		station = cfg.Site.Name
	}

	return &Pipeline{
		Station:      station,
		ModelName:    cfg.Model,
		Model:        model,
		Site:         cfg.Site.SolarSite(),
		Thresholds:   thresholds,
		WindowLength: cfg.Detection.WindowLength,
		Workers:      cfg.Detection.Workers,
		Source:       source,
		Store:        store,
		logger:       logger,
	}, nil
}

// Run loads the requested series, scans it and stores the result
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	var s series.Series
	if req.Series != nil {
		s = *req.Series
	} else {
		if p.Source == nil {
			return nil, errors.New("no source configured")
		}
		var err error
		s, err = p.Source.Load(ctx, req.Start, req.End)
		if err != nil {
			return nil, fmt.Errorf("error loading series: %w", err)
		}
	}

	if n := s.Irregular(); n > 0 {
		p.logger.Warnf("series has %d irregular intervals; line length assumes a step of %v", n, s.Step())
	}

	predicted := solar.PredictSeries(p.Model, s.Times, p.Site)

	scanner := clearsky.Scanner{
		Workers: p.Workers,
		Progress: func(windows int) {
			metrics.AddWindows(windows)
			if req.Progress != nil {
				req.Progress(windows)
			}
		},
	}

	start := time.Now()
	mask, err := scanner.Scan(ctx, s.Values, predicted, p.Thresholds, p.WindowLength)
	metrics.ObserveScan(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	rmse, err := clearsky.RMSE(s.Values, predicted)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Series:    s,
		Predicted: predicted,
		Mask:      mask,
		Intervals: wallClockIntervals(s, clearsky.ClearIntervals(mask)),
		RMSE:      rmse,
		Run: sqlite.Run{
			Station:      p.Station,
			Model:        p.ModelName,
			WindowLength: p.WindowLength,
			Summary:      clearsky.Summarize(mask),
			RMSE:         rmse,
			Start:        s.Times[0],
			End:          s.Times[len(s.Times)-1],
		},
	}

	metrics.SetClearFraction(p.Station, res.Run.Summary.Fraction)
	p.logger.Infof("detected %d of %d clear points (%.1f%%) in %d intervals for %s using %s",
		res.Run.Summary.Clear, res.Run.Summary.Total, 100*res.Run.Summary.Fraction,
		len(res.Intervals), p.Station, p.ModelName)

	if p.Store != nil {
		if err := p.Store.SaveRun(ctx, &res.Run, res.Intervals); err != nil {
			return nil, fmt.Errorf("error saving run: %w", err)
		}
		p.logger.Debugf("saved run %s", res.Run.ID)
	}

	return res, nil
}

// Close releases the pipeline's source
func (p *Pipeline) Close() error {
	if p.Source == nil {
		return nil
	}
	return p.Source.Close()
}

// wallClockIntervals converts index intervals to times. The end of an
// interval is the first sample after it, or one step past the last sample.
func wallClockIntervals(s series.Series, ivs []clearsky.Interval) []sqlite.Interval {
	out := make([]sqlite.Interval, len(ivs))
	for i, iv := range ivs {
		end := s.Times[len(s.Times)-1].Add(s.Step())
		if iv.End < len(s.Times) {
			end = s.Times[iv.End]
		}
		out[i] = sqlite.Interval{Start: s.Times[iv.Start], End: end}
	}
	return out
}
