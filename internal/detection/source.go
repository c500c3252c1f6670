package detection

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/clearsky/internal/database"
	"github.com/chrissnell/clearsky/internal/series"
	"github.com/chrissnell/clearsky/pkg/config"
)

// Source loads measured irradiance for [start, end). A zero start or end
// leaves that side of the range open where the source allows it.
type Source interface {
	Load(ctx context.Context, start, end time.Time) (series.Series, error)
	Close() error
}

// FileSource reads a CSV, gzipped CSV or Parquet file
type FileSource struct {
	Path   string
	Column string
}

// Load reads the file and keeps the samples that fall in [start, end)
func (f *FileSource) Load(ctx context.Context, start, end time.Time) (series.Series, error) {
	if err := ctx.Err(); err != nil {
		return series.Series{}, err
	}
	s, err := series.Open(f.Path, f.Column)
	if err != nil {
		return series.Series{}, err
	}
	return clip(s, start, end), nil
}

func (f *FileSource) Close() error { return nil }

// TimescaleSource reads a station's readings from TimescaleDB
type TimescaleSource struct {
	Client  *database.Client
	Station string
}

// Load fetches the station's readings. Both ends of the range are required.
func (t *TimescaleSource) Load(ctx context.Context, start, end time.Time) (series.Series, error) {
	if start.IsZero() || end.IsZero() {
		return series.Series{}, fmt.Errorf("timescaledb source requires a start and end time")
	}
	return t.Client.FetchSolarSeries(ctx, t.Station, start, end)
}

func (t *TimescaleSource) Close() error {
	return t.Client.Close()
}

// NewSource builds the source named by the configuration
func NewSource(cfg *config.ConfigData, logger *zap.SugaredLogger) (Source, error) {
	switch cfg.Source.Type {
	case "", "file":
		return &FileSource{Path: cfg.Source.Path, Column: cfg.Source.Column}, nil
	case "timescaledb":
		if cfg.Storage.TimescaleDB == nil {
			return nil, fmt.Errorf("timescaledb source requires storage.timescaledb")
		}
		client, err := database.NewClient(cfg.Storage.TimescaleDB.ConnectionString, logger)
		if err != nil {
			return nil, fmt.Errorf("could not connect to TimescaleDB: %w", err)
		}
		return &TimescaleSource{Client: client, Station: cfg.Source.Station}, nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Source.Type)
	}
}

func clip(s series.Series, start, end time.Time) series.Series {
	if start.IsZero() && end.IsZero() {
		return s
	}
	out := series.Series{}
	for i, t := range s.Times {
		if !start.IsZero() && t.Before(start) {
			continue
		}
		if !end.IsZero() && !t.Before(end) {
			continue
		}
		out.Times = append(out.Times, t)
		out.Values = append(out.Values, s.Values[i])
	}
	return out
}
