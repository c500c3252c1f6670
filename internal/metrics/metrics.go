// Package metrics exposes Prometheus collectors for detection runs and the HTTP API.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clearsky_scans_total",
			Help: "Total number of clear-sky scans by outcome.",
		},
		[]string{"result"},
	)
	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clearsky_scan_duration_seconds",
			Help:    "Clear-sky scan duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)
	windowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "clearsky_windows_evaluated_total",
			Help: "Total number of windows evaluated against the thresholds.",
		},
	)
	clearFraction = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clearsky_clear_fraction",
			Help: "Share of clear points in the most recent run for a station.",
		},
		[]string{"station"},
	)
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(scansTotal, scanDuration, windowsTotal, clearFraction)
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration)
}

// ObserveScan records the outcome and duration of a scan
func ObserveScan(d time.Duration, err error) {
	result := "ok"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result = "cancelled"
	case err != nil:
		result = "error"
	}
	scansTotal.WithLabelValues(result).Inc()
	scanDuration.Observe(d.Seconds())
}

// AddWindows counts evaluated windows. It matches clearsky.Scanner's Progress signature.
func AddWindows(n int) {
	windowsTotal.Add(float64(n))
}

// SetClearFraction records the clear share of a station's latest run
func SetClearFraction(station string, fraction float64) {
	clearFraction.WithLabelValues(station).Set(fraction)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency, labelled by route template
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
