// Package database reads measured irradiance from a weather station TimescaleDB.
package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/clearsky/internal/log"
	"github.com/chrissnell/clearsky/internal/series"
)

// SolarReading is one row of the one-minute weather aggregate
type SolarReading struct {
	Bucket              time.Time `gorm:"column:bucket"`
	StationName         string    `gorm:"column:stationname"`
	SolarWatts          float32   `gorm:"column:solarwatts"`
	PotentialSolarWatts float32   `gorm:"column:potentialsolarwatts"`
}

// TableName implements the Tabler interface for the SolarReading struct
func (SolarReading) TableName() string {
	return "weather_1m"
}

// Client holds the connection to a TimescaleDB database
type Client struct {
	DB     *gorm.DB
	logger *zap.SugaredLogger
}

// NewClient connects to the TimescaleDB database at connectionString
func NewClient(connectionString string, logger *zap.SugaredLogger) (*Client, error) {
	db, err := CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}
	return &Client{DB: db, logger: logger}, nil
}

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             5 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a TimescaleDB connection:", err)
		return nil, err
	}
	log.Info("TimescaleDB connection successful")

	return db, nil
}

// FetchSolarReadings returns a station's readings in [start, end), ordered by time
func (c *Client) FetchSolarReadings(ctx context.Context, station string, start, end time.Time) ([]SolarReading, error) {
	var readings []SolarReading

	err := c.DB.WithContext(ctx).
		Select("bucket", "stationname", "solarwatts", "potentialsolarwatts").
		Where("stationname = ? AND bucket >= ? AND bucket < ?", station, start, end).
		Order("bucket").
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("error querying solar readings for %s: %w", station, err)
	}

	c.logger.Debugf("fetched %d solar readings for %s between %s and %s", len(readings), station,
		start.Format(time.RFC3339), end.Format(time.RFC3339))
	return readings, nil
}

// FetchSolarSeries returns a station's measured solar radiation in [start, end)
func (c *Client) FetchSolarSeries(ctx context.Context, station string, start, end time.Time) (series.Series, error) {
	readings, err := c.FetchSolarReadings(ctx, station, start, end)
	if err != nil {
		return series.Series{}, err
	}
	return ToSeries(readings), nil
}

// ToSeries converts readings to a series of measured solar radiation
func ToSeries(readings []SolarReading) series.Series {
	s := series.Series{
		Times:  make([]time.Time, len(readings)),
		Values: make([]float64, len(readings)),
	}
	for i, r := range readings {
		s.Times[i] = r.Bucket
		s.Values[i] = float64(r.SolarWatts)
	}
	return s
}

// Ping checks the connection with a trivial query
func (c *Client) Ping(ctx context.Context) error {
	var result int
	if err := c.DB.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		return fmt.Errorf("TimescaleDB query failed: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
