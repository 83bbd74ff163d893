package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestChecker_CheckReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"tuning": func(context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"tuning": func(context.Context) error { return nil },
				"rules":  func(context.Context) error { return errors.New("empty") },
			},
			wantStatus: StatusNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}

			status := c.CheckReadiness(context.Background())
			if status.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", status.Status, tt.wantStatus)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("len(Checks) = %d, want %d", len(status.Checks), len(tt.checks))
			}
		})
	}
}

func TestChecker_Timeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	status := c.CheckReadiness(context.Background())
	if status.Checks["slow"].Message != ErrCheckTimeout.Error() {
		t.Errorf("Message = %q, want timeout", status.Checks["slow"].Message)
	}
}

func TestChannelClosed(t *testing.T) {
	ch := make(chan struct{})
	check := ChannelClosed(ch, "not yet")

	if err := check(context.Background()); err == nil || err.Error() != "not yet" {
		t.Errorf("check() = %v, want not yet", err)
	}
	close(ch)
	if err := check(context.Background()); err != nil {
		t.Errorf("check() after close = %v, want nil", err)
	}
}

func TestReadinessHandler(t *testing.T) {
	ready := make(chan struct{})
	c := New(time.Second)
	c.RegisterCheck("tuning", ChannelClosed(ready, "tuning document not loaded yet"))

	handler := c.ReadinessHandler()

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status before ready = %d, want 503", rec.Code)
	}

	close(ready)
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status after ready = %d, want 200", rec.Code)
	}

	var body HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Checks["tuning"].Status != StatusOK {
		t.Errorf("tuning check = %+v", body.Checks["tuning"])
	}
}

func TestLivenessHandler_Head(t *testing.T) {
	rec := httptest.NewRecorder()
	New(0).LivenessHandler()(rec, httptest.NewRequest(http.MethodHead, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Error("HEAD response has a body")
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("1.2.3", "abc", "today")(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Version != "1.2.3" || info.GoVersion == "" {
		t.Errorf("info = %+v", info)
	}
}
