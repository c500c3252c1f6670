// Package config loads clear-sky detection settings.
package config

import (
	"fmt"
	"time"

	"github.com/chrissnell/clearsky/pkg/clearsky"
	"github.com/chrissnell/clearsky/pkg/solar"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Site       SiteData        `json:"site"`
	Model      string          `json:"model"`
	Detection  DetectionData   `json:"detection"`
	Source     SourceData      `json:"source"`
	Storage    StorageData     `json:"storage,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
}

// SiteData describes the location the irradiance was measured at
type SiteData struct {
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	Timezone  string  `json:"timezone,omitempty"`
	AirTempF  float64 `json:"air_temp_f,omitempty"`
	Humidity  float64 `json:"humidity,omitempty"`
	Turbidity float64 `json:"turbidity,omitempty"`
}

// Location returns the site's time zone, UTC if none is configured
func (s SiteData) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid site timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// SolarSite converts the site into the parameters the clear-sky models take.
// Unset atmospheric parameters fall back to solar.DefaultSite.
func (s SiteData) SolarSite() solar.Site {
	site := solar.DefaultSite(s.Latitude, s.Longitude, s.Altitude)
	if s.AirTempF != 0 {
		site.AirTempF = s.AirTempF
	}
	if s.Humidity != 0 {
		site.Humidity = s.Humidity
	}
	if s.Turbidity != 0 {
		site.Turbidity = s.Turbidity
	}
	return site
}

// DetectionData holds the sliding-window settings
type DetectionData struct {
	WindowLength int                   `json:"window_length"`
	Workers      int                   `json:"workers,omitempty"`
	Thresholds   map[string][2]float64 `json:"thresholds,omitempty"`
}

// ThresholdTable returns the configured thresholds, filling unset criteria
// with clearsky.DefaultThresholds
func (d DetectionData) ThresholdTable() (clearsky.Thresholds, error) {
	return clearsky.ThresholdsFromMap(d.Thresholds)
}

// SourceData describes where measured irradiance is read from
type SourceData struct {
	Type    string `json:"type"` // "file" or "timescaledb"
	Path    string `json:"path,omitempty"`
	Column  string `json:"column,omitempty"`
	Station string `json:"station,omitempty"`
}

// StorageData holds the configuration for the storage backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
	SQLite      *SQLiteData      `json:"sqlite,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

type SQLiteData struct {
	Path string `json:"path"`
}

type RESTServerData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Port       int    `json:"port"`
}

// Addr returns the address the REST server listens on
func (r RESTServerData) Addr() string {
	return fmt.Sprintf("%s:%d", r.ListenAddr, r.Port)
}
