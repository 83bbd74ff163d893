package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/leakscan/pkg/config"
	"mercator-hq/leakscan/pkg/detector"
	"mercator-hq/leakscan/pkg/scan"
	"mercator-hq/leakscan/pkg/telemetry/logging"
	"mercator-hq/leakscan/pkg/telemetry/metrics"
	"mercator-hq/leakscan/pkg/tuning"
)

type fakeTuning struct {
	ready  chan struct{}
	status tuning.Status
}

func (f *fakeTuning) Status() tuning.Status  { return f.status }
func (f *fakeTuning) Ready() <-chan struct{} { return f.ready }

type panicScanner struct{}

func (panicScanner) Scan(context.Context, scan.Request) (*scan.Report, error) {
	panic("boom")
}

type failingScanner struct{}

func (failingScanner) Scan(context.Context, scan.Request) (*scan.Report, error) {
	return nil, errors.New("analyzer unavailable")
}

type testEnv struct {
	server   *Server
	handler  http.Handler
	tuning   *fakeTuning
	registry *prometheus.Registry
}

func newTestEnv(t *testing.T, modify func(*config.ServerConfig, *Options)) *testEnv {
	t.Helper()

	cfg := config.Default()
	det := detector.New()
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{
		Enabled:           true,
		Namespace:         "test",
		Subsystem:         "api",
		MaxTagCardinality: 10,
	}, registry)

	tun := &fakeTuning{ready: make(chan struct{}), status: tuning.Status{Source: "memory"}}
	opts := Options{
		Scanner: scan.NewService(det, scan.Options{Logger: logging.Discard()}),
		Rules:   det,
		Tuning:  tun,
		Metrics: collector,
		Logger:  logging.Discard(),
		Version: "1.2.3",
	}
	if modify != nil {
		modify(&cfg.Server, &opts)
	}

	srv, err := NewServer(&cfg.Server, opts)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return &testEnv{server: srv, handler: srv.Handler(), tuning: tun, registry: registry}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp.Error
}

func TestNewServer_Validation(t *testing.T) {
	det := detector.New()
	svc := scan.NewService(det, scan.Options{})
	cfg := &config.Default().Server

	if _, err := NewServer(nil, Options{Scanner: svc, Rules: det}); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewServer(cfg, Options{Rules: det}); err == nil {
		t.Error("expected error for missing scanner")
	}
	if _, err := NewServer(cfg, Options{Scanner: svc}); err == nil {
		t.Error("expected error for missing rules")
	}
}

func TestHandleScan(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/v1/scan", `{"kind":"input","text":"연락처 010-1234-5678, 주민번호 900101-1234567"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var report scan.Report
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.ID == "" || report.Kind != scan.KindInput {
		t.Errorf("report = %+v", report)
	}
	if !report.Result.IsLeak {
		t.Error("IsLeak = false, want true")
	}
	if _, ok := report.Result.Patterns[detector.TagPhone]; !ok {
		t.Errorf("phone not detected: %v", report.Result.PatternTags)
	}
}

func TestHandleScan_Errors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		body     string
		wantCode int
		wantType string
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed, ErrorTypeMethodNotAllowed},
		{"malformed json", http.MethodPost, `{"text":`, http.StatusBadRequest, ErrorTypeInvalidRequest},
		{"unknown kind", http.MethodPost, `{"kind":"clipboard","text":"x"}`, http.StatusBadRequest, ErrorTypeInvalidRequest},
		{"empty selection", http.MethodPost, `{"kind":"selection","text":"  "}`, http.StatusUnprocessableEntity, ErrorTypeEmptySelection},
	}

	env := newTestEnv(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.method, "/v1/scan", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if got := decodeError(t, w); got.Type != tt.wantType || got.Message == "" {
				t.Errorf("error = %+v, want type %q", got, tt.wantType)
			}
		})
	}
}

func TestHandleScan_BodyTooLarge(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.ServerConfig, _ *Options) {
		cfg.MaxBodyBytes = 32
	})

	body := `{"kind":"input","text":"` + strings.Repeat("a", 64) + `"}`
	w := env.do(http.MethodPost, "/v1/scan", body)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
	if got := decodeError(t, w); got.Type != ErrorTypeRequestTooLarge {
		t.Errorf("type = %q", got.Type)
	}
}

func TestHandleScan_ScannerFailure(t *testing.T) {
	env := newTestEnv(t, func(_ *config.ServerConfig, o *Options) {
		o.Scanner = failingScanner{}
	})

	w := env.do(http.MethodPost, "/v1/scan", `{"text":"x"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := decodeError(t, w); strings.Contains(got.Message, "unavailable") {
		t.Errorf("internal error leaked to client: %q", got.Message)
	}
}

func TestHandleRules(t *testing.T) {
	env := newTestEnv(t, nil)
	env.tuning.status.Loaded = true
	env.tuning.status.DocumentVersion = "1.0"

	w := env.do(http.MethodGet, "/v1/rules", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp rulesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Rules.Patterns) == 0 || len(resp.Rules.Keywords) == 0 {
		t.Errorf("rules = %+v", resp.Rules)
	}
	if resp.Tuning == nil || !resp.Tuning.Loaded || resp.Tuning.DocumentVersion != "1.0" {
		t.Errorf("tuning = %+v", resp.Tuning)
	}

	if w := env.do(http.MethodPost, "/v1/rules", "{}"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /v1/rules status = %d, want 405", w.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	if w := env.do(http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("/healthz status = %d, want 200", w.Code)
	}
	if w := env.do(http.MethodGet, "/readyz", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("/readyz before first load = %d, want 503", w.Code)
	}

	close(env.tuning.ready)

	if w := env.do(http.MethodGet, "/readyz", ""); w.Code != http.StatusOK {
		t.Errorf("/readyz after first load = %d, want 200", w.Code)
	}

	w := env.do(http.MethodGet, "/version", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "1.2.3") {
		t.Errorf("/version = %d %s", w.Code, w.Body.String())
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/v2/nothing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if got := decodeError(t, w); got.Type != ErrorTypeNotFound {
		t.Errorf("type = %q", got.Type)
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	env.do(http.MethodPost, "/v1/scan", `{"text":"hello"}`)
	env.do(http.MethodGet, "/v1/rules", "")

	count, err := testutil.GatherAndCount(env.registry, "test_api_http_requests_total")
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("http_requests_total series = %d, want 2", count)
	}

	w := env.do(http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `test_api_http_requests_total{code="200",method="POST",route="/v1/scan"} 1`) {
		t.Errorf("scan request not counted:\n%s", w.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/healthz", "")
	if id := w.Header().Get(RequestIDHeader); len(id) != 36 {
		t.Errorf("generated request ID = %q, want a UUID", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "client-id-42")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "client-id-42" {
		t.Errorf("request ID = %q, want client-id-42", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("oversized request ID not replaced: %q", got)
	}
}

func TestRecovery(t *testing.T) {
	env := newTestEnv(t, func(_ *config.ServerConfig, o *Options) {
		o.Scanner = panicScanner{}
	})

	w := env.do(http.MethodPost, "/v1/scan", `{"text":"x"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := decodeError(t, w); got.Type != ErrorTypeServerError {
		t.Errorf("type = %q", got.Type)
	}
}

func TestCORS(t *testing.T) {
	const origin = "chrome-extension://abcdef"

	tests := []struct {
		name       string
		enabled    bool
		origin     string
		wantHeader string
	}{
		{"disabled", false, origin, ""},
		{"allowed origin", true, origin, origin},
		{"other origin", true, "https://evil.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(cfg *config.ServerConfig, _ *Options) {
				cfg.CORS = config.CORSConfig{Enabled: tt.enabled, AllowedOrigins: []string{origin}, MaxAge: time.Minute}
			})

			req := httptest.NewRequest(http.MethodOptions, "/v1/scan", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			env.handler.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantHeader {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantHeader)
			}
			if tt.enabled && w.Code != http.StatusNoContent {
				t.Errorf("preflight status = %d, want 204", w.Code)
			}
			if tt.wantHeader != "" && w.Header().Get("Access-Control-Max-Age") != "60" {
				t.Errorf("Access-Control-Max-Age = %q", w.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	env := newTestEnv(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !env.server.IsRunning() {
		t.Error("IsRunning() = false while serving")
	}
	if env.server.Addr() == nil {
		t.Error("Addr() = nil while serving")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
	if env.server.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}
