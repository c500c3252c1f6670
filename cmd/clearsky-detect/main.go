package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/chrissnell/clearsky/internal/app"
	"github.com/chrissnell/clearsky/internal/detection"
	"github.com/chrissnell/clearsky/internal/log"
	"github.com/chrissnell/clearsky/internal/series"
	"github.com/chrissnell/clearsky/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "", "Path to the YAML configuration file (optional with -input)")
	input := flag.String("input", "", "CSV, CSV.gz or Parquet file of measured irradiance; overrides the configured source")
	column := flag.String("column", "", "CSV column holding irradiance (default \"ghi\")")
	output := flag.String("output", "-", "Where to write the clear-sky mask CSV, - for stdout")
	startStr := flag.String("start", "", "Start of the range to scan (RFC3339)")
	endStr := flag.String("end", "", "End of the range to scan (RFC3339)")
	progress := flag.Bool("progress", false, "Show a progress bar")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	start, err := parseTime(*startStr)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	end, err := parseTime(*endStr)
	if err != nil {
		log.Fatalf("invalid -end: %v", err)
	}

	cfg, err := loadConfig(*cfgFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *input != "" {
		cfg.Source = config.SourceData{Type: "file", Path: *input, Column: *column}
	}
	if cfg.Source.Type == "file" && cfg.Source.Path == "" {
		log.Fatalf("no input: pass -input or configure source.path")
	}

	if err := detect(cfg, start, end, *output, *progress); err != nil {
		log.Errorf("%v", err)
		log.Sync()
		os.Exit(1)
	}
}

// detect runs one detection, releasing its components before returning
func detect(cfg *config.ConfigData, start, end time.Time, output string, progress bool) error {
	components, err := app.Build(cfg, log.GetSugaredLogger())
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return run(ctx, components.Pipeline, start, end, output, progress)
}

func run(ctx context.Context, p *detection.Pipeline, start, end time.Time, output string, progress bool) error {
	s, err := p.Source.Load(ctx, start, end)
	if err != nil {
		return fmt.Errorf("error loading series: %w", err)
	}

	bar := pb.New(max(s.Len()-p.WindowLength+1, 0))
	if !progress {
		bar.SetWriter(io.Discard)
	}
	bar.Start()

	res, err := p.Run(ctx, detection.Request{
		Series:   &s,
		Progress: func(windows int) { bar.Add(windows) },
	})
	bar.Finish()
	if err != nil {
		return err
	}

	if err := writeMask(output, res); err != nil {
		return fmt.Errorf("error writing mask: %w", err)
	}

	log.Infow("detection complete",
		"points", res.Run.Summary.Total,
		"clear", res.Run.Summary.Clear,
		"intervals", len(res.Intervals),
		"rmse", res.RMSE,
		"run", res.Run.ID,
	)
	return nil
}

// writeMask writes the mask CSV to output, or to stdout when output is "-"
func writeMask(output string, res *detection.Result) (err error) {
	if output == "-" {
		return series.WriteMaskCSV(os.Stdout, res.Series, res.Predicted, res.Mask)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return series.WriteMaskCSV(f, res.Series, res.Predicted, res.Mask)
}

func loadConfig(cfgFile string) (*config.ConfigData, error) {
	if cfgFile == "" {
		return config.Parse(nil)
	}
	filename, _ := filepath.Abs(cfgFile)
	return config.NewYAMLProvider(filename).LoadConfig()
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
