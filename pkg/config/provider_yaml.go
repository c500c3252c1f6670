package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chrissnell/clearsky/internal/constants"
	"github.com/chrissnell/clearsky/pkg/clearsky"
	"github.com/chrissnell/clearsky/pkg/solar"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

type siteYAML struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Altitude  float64 `yaml:"altitude"`
	Timezone  string  `yaml:"timezone"`
	AirTempF  float64 `yaml:"air_temp_f"`
	Humidity  float64 `yaml:"humidity"`
	Turbidity float64 `yaml:"turbidity"`
}

type detectionYAML struct {
	WindowLength int                  `yaml:"window_length"`
	Workers      int                  `yaml:"workers"`
	Thresholds   map[string][]float64 `yaml:"thresholds"`
}

type sourceYAML struct {
	Type    string `yaml:"type"`
	Path    string `yaml:"path"`
	Column  string `yaml:"column"`
	Station string `yaml:"station"`
}

type storageYAML struct {
	TimescaleDB *struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"timescaledb,omitempty"`
	SQLite *struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite,omitempty"`
}

type restYAML struct {
	ListenAddr string `yaml:"listen_addr"`
	Port       int    `yaml:"port"`
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}
	return Parse(cfgFile)
}

// Parse decodes a YAML document into ConfigData, applies defaults and
// validates it
func Parse(data []byte) (*ConfigData, error) {
	var yamlConfig struct {
		Site      siteYAML      `yaml:"site"`
		Model     string        `yaml:"model"`
		Detection detectionYAML `yaml:"detection"`
		Source    sourceYAML    `yaml:"source"`
		Storage   storageYAML   `yaml:"storage,omitempty"`
		REST      *restYAML     `yaml:"rest,omitempty"`
	}

	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return nil, err
	}

	config := &ConfigData{
		Site:  SiteData(yamlConfig.Site),
		Model: yamlConfig.Model,
		Detection: DetectionData{
			WindowLength: yamlConfig.Detection.WindowLength,
			Workers:      yamlConfig.Detection.Workers,
		},
		Source: SourceData(yamlConfig.Source),
	}

	if config.Model == "" {
		config.Model = constants.DefaultModel
	}
	if _, err := solar.Lookup(config.Model); err != nil {
		return nil, err
	}

	if config.Detection.WindowLength == 0 {
		config.Detection.WindowLength = constants.DefaultWindowLength
	}
	if config.Detection.WindowLength < 0 {
		return nil, fmt.Errorf("%w: %d", clearsky.ErrInvalidWindowLength, config.Detection.WindowLength)
	}

	// A threshold may list any number of values; its bounds are the extremes
	if len(yamlConfig.Detection.Thresholds) > 0 {
		config.Detection.Thresholds = make(map[string][2]float64, len(yamlConfig.Detection.Thresholds))
		for name, values := range yamlConfig.Detection.Thresholds {
			th, err := clearsky.NewThreshold(values)
			if err != nil {
				return nil, fmt.Errorf("threshold %q: %w", name, err)
			}
			config.Detection.Thresholds[name] = th
		}
	}
	if _, err := config.Detection.ThresholdTable(); err != nil {
		return nil, err
	}

	if _, err := config.Site.Location(); err != nil {
		return nil, err
	}

	if yamlConfig.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.Storage.TimescaleDB.ConnectionString,
		}
	}
	if yamlConfig.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{
			Path: yamlConfig.Storage.SQLite.Path,
		}
	}

	switch config.Source.Type {
	case "", "file":
		config.Source.Type = "file"
	case "timescaledb":
		if config.Storage.TimescaleDB == nil {
			return nil, fmt.Errorf("source type timescaledb requires storage.timescaledb")
		}
		if config.Source.Station == "" {
			return nil, fmt.Errorf("source type timescaledb requires a station")
		}
	default:
		return nil, fmt.Errorf("unsupported source type: %s. Use 'file' or 'timescaledb'", config.Source.Type)
	}

	if yamlConfig.REST != nil {
		config.RESTServer = &RESTServerData{
			ListenAddr: yamlConfig.REST.ListenAddr,
			Port:       yamlConfig.REST.Port,
		}
		if config.RESTServer.Port == 0 {
			config.RESTServer.Port = 8080
		}
	}

	return config, nil
}

// IsReadOnly returns true since YAML files are edited by hand
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
