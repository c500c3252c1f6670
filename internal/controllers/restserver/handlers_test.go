package restserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/clearsky/internal/detection"
	"github.com/chrissnell/clearsky/internal/health"
	"github.com/chrissnell/clearsky/internal/log"
	"github.com/chrissnell/clearsky/internal/storage/sqlite"
	"github.com/chrissnell/clearsky/pkg/config"
	"github.com/chrissnell/clearsky/pkg/solar"
)

const testConfig = `
site:
  name: backyard
  latitude: 35.08
  longitude: -106.65
  altitude: 1619
  timezone: America/Denver
model: haurwitz
detection:
  window_length: 3
source:
  type: file
  path: %s
rest:
  port: 8080
`

type testServer struct {
	handler http.Handler
	ctrl    *Controller
	store   *sqlite.Store
}

func newTestServer(t *testing.T, withStore bool) *testServer {
	t.Helper()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "ghi.csv")
	var b strings.Builder
	b.WriteString("time,ghi\n")
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "%s,0\n", start.Add(time.Duration(i)*time.Minute).Format(time.RFC3339))
	}
	if err := os.WriteFile(csvPath, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Parse([]byte(fmt.Sprintf(testConfig, csvPath)))
	if err != nil {
		t.Fatalf("config.Parse: %v", err)
	}

	logger := zap.NewNop().Sugar()
	ts := &testServer{}

	var runs RunReader
	var saver detection.RunStore
	if withStore {
		ts.store, err = sqlite.Open(filepath.Join(dir, "runs.db"))
		if err != nil {
			t.Fatalf("sqlite.Open: %v", err)
		}
		t.Cleanup(func() { ts.store.Close() })
		runs, saver = ts.store, ts.store
	}

	pipeline, err := detection.NewPipeline(cfg, saver, logger)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	ctrl, err := NewController(context.Background(), &sync.WaitGroup{}, cfg, pipeline, runs, logger)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	if ctrl.Server.Addr != "0.0.0.0:8080" {
		t.Errorf("Server.Addr = %q, want 0.0.0.0:8080", ctrl.Server.Addr)
	}
	ts.handler = ctrl.Server.Handler
	ts.ctrl = ctrl
	return ts
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func TestDetect(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantMask   []bool
	}{
		{
			name:       "identical series",
			body:       `{"observed":[1,2,3,4],"predicted":[1,2,3,4],"window_length":2}`,
			wantStatus: http.StatusOK,
			wantMask:   []bool{true, true, true, true},
		},
		{
			name:       "configured window length",
			body:       `{"observed":[40,20,30,40,50,90],"predicted":[10,20,30,40,50,60],"thresholds":{"mean":[1,-1]}}`,
			wantStatus: http.StatusOK,
			wantMask:   []bool{false, true, true, true, true, false},
		},
		{
			name:       "threshold bounds are the extremes of the list",
			body:       `{"observed":[1,1,1,1,1],"predicted":[4,4,4,4,4],"window_length":2,"thresholds":{"mean":[0,1,-5]}}`,
			wantStatus: http.StatusOK,
			wantMask:   []bool{true, true, true, true, true},
		},
		{
			name:       "threshold with a single value",
			body:       `{"observed":[1,1,1,1,1],"predicted":[4,4,4,4,4],"window_length":2,"thresholds":{"mean":[5]}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "length mismatch",
			body:       `{"observed":[1,2,3],"predicted":[1,2],"window_length":2}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "window longer than series",
			body:       `{"observed":[1,2],"predicted":[1,2],"window_length":5}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative window",
			body:       `{"observed":[1,2],"predicted":[1,2],"window_length":-1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown criterion",
			body:       `{"observed":[1,2],"predicted":[1,2],"thresholds":{"cloudiness":[0,1]}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"observed":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/detect", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantMask == nil {
				return
			}
			var resp DetectResponse
			decode(t, rec, &resp)
			if fmt.Sprint(resp.Mask) != fmt.Sprint(tt.wantMask) {
				t.Errorf("mask = %v, want %v", resp.Mask, tt.wantMask)
			}
		})
	}
}

func TestGetModels(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.do(http.MethodGet, "/models", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp ModelsResponse
	decode(t, rec, &resp)
	if resp.Default != "haurwitz" {
		t.Errorf("default = %q, want haurwitz", resp.Default)
	}
	if len(resp.Models) != len(solar.Models()) {
		t.Errorf("got %d models, want %d", len(resp.Models), len(solar.Models()))
	}
}

func TestGetPrediction(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(http.MethodGet, "/predict?model=asce&date=2024-06-21&interval=1h", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp PredictResponse
	decode(t, rec, &resp)
	if resp.Model != "asce" || resp.Date != "2024-06-21" {
		t.Errorf("unexpected model/date %q %q", resp.Model, resp.Date)
	}
	if len(resp.Times) != 24 || len(resp.GHI) != 24 {
		t.Fatalf("expected 24 hourly values, got %d times and %d values", len(resp.Times), len(resp.GHI))
	}
	if resp.GHI[0] != 0 || resp.GHI[12] <= 0 {
		t.Errorf("expected darkness at midnight and sun at noon, got %v and %v", resp.GHI[0], resp.GHI[12])
	}
	if resp.Sunrise == "" || resp.Sunset == "" {
		t.Error("expected sunrise and sunset")
	}

	for _, target := range []string{
		"/predict?model=nope",
		"/predict?date=21/06/2024",
		"/predict?interval=1ms",
		"/predict?interval=soon",
	} {
		if rec := ts.do(http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestRuns(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(http.MethodGet, "/runs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list RunsResponse
	decode(t, rec, &list)
	if len(list.Runs) != 0 {
		t.Fatalf("expected no runs, got %d", len(list.Runs))
	}

	rec = ts.do(http.MethodPost, "/runs", `{}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /runs status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var created RunResponse
	decode(t, rec, &created)
	if created.Run == nil || created.Run.ID == "" {
		t.Fatal("expected the created run to have an ID")
	}
	if created.Run.Summary.Total != 30 || created.Run.Summary.Clear != 30 {
		t.Errorf("unexpected summary %+v", created.Run.Summary)
	}

	rec = ts.do(http.MethodGet, "/runs/"+created.Run.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /runs/{id} status = %d", rec.Code)
	}
	var got RunResponse
	decode(t, rec, &got)
	if got.Run.ID != created.Run.ID || len(got.Intervals) != 1 {
		t.Errorf("unexpected run %+v with %d intervals", got.Run, len(got.Intervals))
	}

	if rec := ts.do(http.MethodGet, "/runs/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing run status = %d, want 404", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/runs?limit=zero", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
	if rec := ts.do(http.MethodPost, "/runs", `{"start":"2024-03-02T00:00:00Z","end":"2024-03-01T00:00:00Z"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("reversed range status = %d, want 400", rec.Code)
	}
}

func TestRunsWithoutStore(t *testing.T) {
	ts := newTestServer(t, false)
	if rec := ts.do(http.MethodGet, "/runs", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMsgPackResponse(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.do(http.MethodGet, "/models?format=msgpack", "")
	if got := rec.Header().Get("Content-Type"); got != "application/x-msgpack" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, false)
	ts.do(http.MethodGet, "/models", "")

	rec := ts.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/models",status="200"}`) {
		t.Error("expected request metrics for /models")
	}
}

func TestGetHealth(t *testing.T) {
	log.InitNop()
	ts := newTestServer(t, true)

	if rec := ts.do(http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("without a health manager status = %d, want 200", rec.Code)
	}

	hm := health.NewManager()
	hm.Register("sqlite", ts.store)
	ts.ctrl.Health = hm

	if rec := ts.do(http.MethodGet, "/health", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("before the first check status = %d, want 503", rec.Code)
	}

	hm.Check(context.Background())
	rec := ts.do(http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var resp HealthResponse
	decode(t, rec, &resp)
	if resp.Components["sqlite"].Status != health.StatusHealthy {
		t.Errorf("unexpected components %+v", resp.Components)
	}
}
