package restserver

import (
	"time"

	"github.com/chrissnell/clearsky/internal/health"
	"github.com/chrissnell/clearsky/internal/storage/sqlite"
	"github.com/chrissnell/clearsky/pkg/clearsky"
)

// DetectRequest is the body of POST /detect
type DetectRequest struct {
	Observed  []float64 `json:"observed"`
	Predicted []float64 `json:"predicted"`
	// Thresholds maps criterion names to two or more bounds; the extremes are used
	Thresholds   map[string][]float64 `json:"thresholds,omitempty"`
	WindowLength int                  `json:"window_length,omitempty"`
}

// DetectResponse is the result of POST /detect
type DetectResponse struct {
	Mask      []bool              `json:"mask"`
	Summary   clearsky.Summary    `json:"summary"`
	Intervals []clearsky.Interval `json:"intervals"`
}

// ModelsResponse lists the available clear-sky models
type ModelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

// PredictResponse is a predicted clear-sky day for the configured site
type PredictResponse struct {
	Model   string      `json:"model"`
	Date    string      `json:"date"`
	Sunrise string      `json:"sunrise,omitempty"`
	Sunset  string      `json:"sunset,omitempty"`
	Times   []time.Time `json:"times"`
	GHI     []float64   `json:"ghi"`
}

// RunRequest is the body of POST /runs. Times are RFC3339.
type RunRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RunsResponse lists stored runs, newest first
type RunsResponse struct {
	Runs []sqlite.Run `json:"runs"`
}

// RunResponse is one stored run and its clear intervals
type RunResponse struct {
	Run       *sqlite.Run       `json:"run"`
	Intervals []sqlite.Interval `json:"intervals"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status     string                   `json:"status"`
	Components map[string]health.Status `json:"components"`
}
