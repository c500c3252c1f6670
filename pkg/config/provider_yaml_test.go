package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrissnell/clearsky/pkg/clearsky"
	"github.com/chrissnell/clearsky/pkg/solar"
)

const sampleConfig = `
site:
  name: abq
  latitude: 35.08
  longitude: -106.65
  altitude: 1600
  timezone: UTC
model: haurwitz
detection:
  window_length: 15
  workers: 4
  thresholds:
    mean: [75, -75]
    sigma: [-0.01, 0, 0.01]
source:
  type: timescaledb
  station: CSI
storage:
  timescaledb:
    connection_string: postgres://weather@localhost/weather
  sqlite:
    path: /var/lib/clearsky/runs.db
rest:
  port: 9090
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Model != "haurwitz" || cfg.Detection.WindowLength != 15 || cfg.Detection.Workers != 4 {
		t.Errorf("unexpected detection settings: model=%s %+v", cfg.Model, cfg.Detection)
	}
	if cfg.Site.Name != "abq" || cfg.Site.Latitude != 35.08 {
		t.Errorf("unexpected site %+v", cfg.Site)
	}
	if cfg.Source.Station != "CSI" || cfg.Storage.TimescaleDB == nil || cfg.Storage.SQLite == nil {
		t.Errorf("unexpected source/storage: %+v %+v", cfg.Source, cfg.Storage)
	}
	if cfg.RESTServer == nil || cfg.RESTServer.Addr() != ":9090" {
		t.Errorf("unexpected rest config %+v", cfg.RESTServer)
	}

	th, err := cfg.Detection.ThresholdTable()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if th[clearsky.Mean].Min() != -75 || th[clearsky.Mean].Max() != 75 {
		t.Errorf("unexpected mean threshold %v", th[clearsky.Mean])
	}
	if th[clearsky.Sigma] != (clearsky.Threshold{-0.01, 0.01}) {
		t.Errorf("expected the extremes of the sigma values, got %v", th[clearsky.Sigma])
	}
	if th[clearsky.MaxDeviation] != clearsky.DefaultThresholds()[clearsky.MaxDeviation] {
		t.Errorf("expected the default max deviation threshold, got %v", th[clearsky.MaxDeviation])
	}

	site := cfg.Site.SolarSite()
	if site.Altitude != 1600 || site.Turbidity != 2 || site.AirTempF != 59 {
		t.Errorf("unexpected solar site %+v", site)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("site:\n  latitude: 10\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "ineichen-perez" || cfg.Detection.WindowLength != 10 || cfg.Source.Type != "file" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.RESTServer != nil {
		t.Errorf("expected no REST server, got %+v", cfg.RESTServer)
	}
	loc, err := cfg.Site.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("expected UTC, got %v (%v)", loc, err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		is   error
	}{
		{name: "unknown model", doc: "model: sunshine\n", is: solar.ErrUnknownModel},
		{name: "negative window", doc: "detection:\n  window_length: -2\n", is: clearsky.ErrInvalidWindowLength},
		{name: "short threshold", doc: "detection:\n  thresholds:\n    mean: [1]\n"},
		{name: "unknown criterion", doc: "detection:\n  thresholds:\n    median: [1, 2]\n"},
		{name: "unknown source", doc: "source:\n  type: ftp\n"},
		{name: "timescaledb without storage", doc: "source:\n  type: timescaledb\n  station: x\n"},
		{name: "bad timezone", doc: "site:\n  timezone: Mars/Olympus\n"},
		{name: "malformed", doc: "site: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestYAMLProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clearsky.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatal(err)
	}

	p := NewYAMLProvider(path)
	defer p.Close()

	cfg, err := p.LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "haurwitz" {
		t.Errorf("unexpected model %s", cfg.Model)
	}
	if !p.IsReadOnly() {
		t.Error("YAML provider should be read-only")
	}

	if _, err := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml")).LoadConfig(); err == nil {
		t.Error("expected an error for a missing file")
	}
}
