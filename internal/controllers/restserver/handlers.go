package restserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/chrissnell/clearsky/internal/constants"
	"github.com/chrissnell/clearsky/internal/detection"
	"github.com/chrissnell/clearsky/internal/health"
	"github.com/chrissnell/clearsky/internal/storage/sqlite"
	"github.com/chrissnell/clearsky/pkg/clearsky"
	"github.com/chrissnell/clearsky/pkg/responseformat"
	"github.com/chrissnell/clearsky/pkg/solar"
)

const (
	defaultRunsLimit   = 50
	minPredictInterval = time.Second
	healthMaxAge       = 5 * time.Minute
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.controller.logger.Errorf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	if werr := h.formatter.WriteError(w, req, status, err.Error()); werr != nil {
		h.controller.logger.Errorf("error writing response: %v", werr)
	}
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.formatter.WriteStatus(w, req, status, data); err != nil {
		h.controller.logger.Errorf("error writing response: %v", err)
	}
}

// statusFor maps detection errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, clearsky.ErrLengthMismatch),
		errors.Is(err, clearsky.ErrInvalidWindowLength),
		errors.Is(err, clearsky.ErrInvalidThresholdCount):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Detect scans a caller-supplied observed and predicted series
func (h *Handlers) Detect(w http.ResponseWriter, req *http.Request) {
	var body DetectRequest
	if err := responseformat.Decode(req, &body); err != nil {
		h.writeError(w, req, http.StatusBadRequest, errors.New("invalid request body: "+err.Error()))
		return
	}

	thresholds, err := clearsky.ThresholdsFromLists(body.Thresholds)
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}

	windowLen := body.WindowLength
	if windowLen == 0 {
		windowLen = h.controller.cfg.Detection.WindowLength
	}

	scanner := clearsky.Scanner{Workers: h.controller.cfg.Detection.Workers}
	mask, err := scanner.Scan(req.Context(), body.Observed, body.Predicted, thresholds, windowLen)
	if err != nil {
		h.writeError(w, req, statusFor(err), err)
		return
	}

	h.write(w, req, http.StatusOK, DetectResponse{
		Mask:      mask,
		Summary:   clearsky.Summarize(mask),
		Intervals: clearsky.ClearIntervals(mask),
	})
}

// GetModels lists the clear-sky models
func (h *Handlers) GetModels(w http.ResponseWriter, req *http.Request) {
	def := h.controller.cfg.Model
	if def == "" {
		def = constants.DefaultModel
	}
	h.write(w, req, http.StatusOK, ModelsResponse{Models: solar.Models(), Default: def})
}

// GetPrediction returns one day of predicted irradiance for the configured site
func (h *Handlers) GetPrediction(w http.ResponseWriter, req *http.Request) {
	cfg := h.controller.cfg
	q := req.URL.Query()

	name := q.Get("model")
	if name == "" {
		name = cfg.Model
	}
	model, err := solar.Lookup(name)
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}

	loc, err := cfg.Site.Location()
	if err != nil {
		h.writeError(w, req, http.StatusInternalServerError, err)
		return
	}

	day := time.Now().In(loc)
	if d := q.Get("date"); d != "" {
		day, err = time.ParseInLocation(time.DateOnly, d, loc)
		if err != nil {
			h.writeError(w, req, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
			return
		}
	}

	interval := time.Minute
	if iv := q.Get("interval"); iv != "" {
		interval, err = time.ParseDuration(iv)
		if err != nil || interval < minPredictInterval {
			h.writeError(w, req, http.StatusBadRequest, errors.New("interval must be a duration of at least 1s"))
			return
		}
	}

	times := solar.DayTimes(day, interval)
	site := cfg.Site.SolarSite()
	events := solar.CalculateSunEvents(times[0], site.Latitude, site.Longitude)

	h.write(w, req, http.StatusOK, PredictResponse{
		Model:   name,
		Date:    times[0].Format(time.DateOnly),
		Sunrise: solar.FormatSunTime(events.SunriseMinutes, loc),
		Sunset:  solar.FormatSunTime(events.SunsetMinutes, loc),
		Times:   times,
		GHI:     solar.PredictSeries(model, times, site),
	})
}

// GetRuns lists stored runs
func (h *Handlers) GetRuns(w http.ResponseWriter, req *http.Request) {
	if h.controller.Runs == nil {
		h.writeError(w, req, http.StatusServiceUnavailable, errors.New("run storage is not configured"))
		return
	}

	limit := defaultRunsLimit
	if l := req.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			h.writeError(w, req, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	runs, err := h.controller.Runs.ListRuns(req.Context(), limit)
	if err != nil {
		h.writeError(w, req, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []sqlite.Run{}
	}
	h.write(w, req, http.StatusOK, RunsResponse{Runs: runs})
}

// GetRun returns one stored run
func (h *Handlers) GetRun(w http.ResponseWriter, req *http.Request) {
	if h.controller.Runs == nil {
		h.writeError(w, req, http.StatusServiceUnavailable, errors.New("run storage is not configured"))
		return
	}

	run, intervals, err := h.controller.Runs.GetRun(req.Context(), mux.Vars(req)["id"])
	if errors.Is(err, sqlite.ErrRunNotFound) {
		h.writeError(w, req, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.writeError(w, req, http.StatusInternalServerError, err)
		return
	}
	h.write(w, req, http.StatusOK, RunResponse{Run: run, Intervals: intervals})
}

// CreateRun runs detection over the configured source for [start, end)
func (h *Handlers) CreateRun(w http.ResponseWriter, req *http.Request) {
	if h.controller.Pipeline == nil {
		h.writeError(w, req, http.StatusServiceUnavailable, errors.New("detection source is not configured"))
		return
	}

	var body RunRequest
	if err := responseformat.Decode(req, &body); err != nil {
		h.writeError(w, req, http.StatusBadRequest, errors.New("invalid request body: "+err.Error()))
		return
	}
	if !body.Start.IsZero() && !body.End.IsZero() && !body.End.After(body.Start) {
		h.writeError(w, req, http.StatusBadRequest, errors.New("end must be after start"))
		return
	}

	res, err := h.controller.Pipeline.Run(req.Context(), detection.Request{Start: body.Start, End: body.End})
	if err != nil {
		h.writeError(w, req, statusFor(err), err)
		return
	}

	h.write(w, req, http.StatusCreated, RunResponse{Run: &res.Run, Intervals: res.Intervals})
}

// GetHealth reports the status of the backing stores
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	resp := HealthResponse{Status: health.StatusHealthy, Components: map[string]health.Status{}}
	status := http.StatusOK

	if hm := h.controller.Health; hm != nil {
		resp.Components = hm.Snapshot()
		if !hm.Healthy(healthMaxAge) {
			resp.Status = health.StatusUnhealthy
			status = http.StatusServiceUnavailable
		}
	}
	h.write(w, req, status, resp)
}
