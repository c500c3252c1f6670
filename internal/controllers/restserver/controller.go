package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/clearsky/internal/detection"
	"github.com/chrissnell/clearsky/internal/health"
	"github.com/chrissnell/clearsky/internal/log"
	"github.com/chrissnell/clearsky/internal/metrics"
	"github.com/chrissnell/clearsky/internal/storage/sqlite"
	"github.com/chrissnell/clearsky/pkg/config"
)

// RunReader reads stored detection runs
type RunReader interface {
	GetRun(ctx context.Context, id string) (*sqlite.Run, []sqlite.Interval, error)
	ListRuns(ctx context.Context, limit int) ([]sqlite.Run, error)
}

// Controller represents the REST server controller
type Controller struct {
	ctx      context.Context
	wg       *sync.WaitGroup
	cfg      *config.ConfigData
	Server   http.Server
	Pipeline *detection.Pipeline // nil disables POST /runs
	Runs     RunReader           // nil disables the /runs endpoints
	Health   *health.Manager     // nil reports healthy
	logger   *zap.SugaredLogger
	handlers *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg *config.ConfigData, pipeline *detection.Pipeline, runs RunReader, logger *zap.SugaredLogger) (*Controller, error) {
	if cfg.RESTServer == nil {
		return nil, fmt.Errorf("no rest configuration")
	}
	if _, err := cfg.Site.Location(); err != nil {
		return nil, err
	}

	ctrl := &Controller{
		ctx:      ctx,
		wg:       wg,
		cfg:      cfg,
		Pipeline: pipeline,
		Runs:     runs,
		logger:   logger,
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if cfg.RESTServer.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		cfg.RESTServer.ListenAddr = "0.0.0.0"
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = cfg.RESTServer.Addr()
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(metrics.Middleware)

	router.HandleFunc("/detect", c.handlers.Detect).Methods(http.MethodPost)
	router.HandleFunc("/models", c.handlers.GetModels).Methods(http.MethodGet)
	router.HandleFunc("/predict", c.handlers.GetPrediction).Methods(http.MethodGet)
	router.HandleFunc("/runs", c.handlers.GetRuns).Methods(http.MethodGet)
	router.HandleFunc("/runs", c.handlers.CreateRun).Methods(http.MethodPost)
	router.HandleFunc("/runs/{id}", c.handlers.GetRun).Methods(http.MethodGet)
	router.HandleFunc("/health", c.handlers.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return router
}
