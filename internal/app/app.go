// Package app wires configuration, storage, detection and the REST server
// into a running service.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/clearsky/internal/controllers/restserver"
	"github.com/chrissnell/clearsky/internal/detection"
	"github.com/chrissnell/clearsky/internal/health"
	"github.com/chrissnell/clearsky/internal/log"
	"github.com/chrissnell/clearsky/internal/storage/sqlite"
	"github.com/chrissnell/clearsky/pkg/config"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

const healthCheckInterval = time.Minute

// Components are the long-lived pieces of a running service
type Components struct {
	Store    *sqlite.Store       // nil without storage.sqlite
	Pipeline *detection.Pipeline // nil without a configured source
	Health   *health.Manager
}

// Close releases the components
func (c *Components) Close() {
	if c.Pipeline != nil {
		if err := c.Pipeline.Close(); err != nil {
			log.Warnf("error closing detection source: %v", err)
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			log.Warnf("error closing run store: %v", err)
		}
	}
}

// Build opens the run store and detection pipeline named by cfg
func Build(cfg *config.ConfigData, logger *zap.SugaredLogger) (*Components, error) {
	c := &Components{Health: health.NewManager()}

	if cfg.Storage.SQLite != nil {
		store, err := sqlite.Open(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("could not open run store: %w", err)
		}
		c.Store = store
		c.Health.Register("sqlite", store)
		logger.Infof("storing runs in %s", cfg.Storage.SQLite.Path)
	}

	if cfg.Source.Type == "file" && cfg.Source.Path == "" {
		logger.Info("no source path configured; POST /runs is disabled")
		return c, nil
	}

	var saver detection.RunStore
	if c.Store != nil {
		saver = c.Store
	}
	pipeline, err := detection.NewPipeline(cfg, saver, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Pipeline = pipeline
	if ts, ok := pipeline.Source.(*detection.TimescaleSource); ok {
		c.Health.Register("timescaledb", ts.Client)
	}

	return c, nil
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	if cfg.RESTServer == nil {
		return fmt.Errorf("no rest section configured; nothing to serve")
	}

	components, err := Build(cfg, a.logger)
	if err != nil {
		return err
	}
	defer components.Close()

	var runs restserver.RunReader
	if components.Store != nil {
		runs = components.Store
	}

	components.Health.Start(ctx, &wg, healthCheckInterval)

	rest, err := restserver.NewController(ctx, &wg, cfg, components.Pipeline, runs, a.logger)
	if err != nil {
		return fmt.Errorf("could not create REST server: %w", err)
	}
	rest.Health = components.Health
	if err := rest.StartController(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
