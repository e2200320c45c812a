package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthChecker_Liveness(t *testing.T) {
	checker := NewHealthChecker(nil)

	rec := httptest.NewRecorder()
	checker.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	checker := NewHealthChecker(nil)

	rec := httptest.NewRecorder()
	checker.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Checks["ready"] != "ok" || body.Checks["shutdown"] != "ok" {
		t.Errorf("checks = %v, want ready and shutdown ok", body.Checks)
	}
}

func TestHealthChecker_Readiness_NotReady(t *testing.T) {
	checker := NewHealthChecker(nil)
	checker.SetReady(false)

	rec := httptest.NewRecorder()
	checker.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var body HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Status != "not ready" {
		t.Errorf("status = %q, want %q", body.Status, "not ready")
	}
	if body.Checks["ready"] != "not ready" {
		t.Errorf("checks = %v, want ready check failing", body.Checks)
	}
}

func TestHealthChecker_Readiness_AfterShutdown(t *testing.T) {
	sc := newTestServerContext(t)
	checker := NewHealthChecker(sc)

	if err := sc.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	rec := httptest.NewRecorder()
	checker.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var body HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Checks["shutdown"] != "shutting down" {
		t.Errorf("checks = %v, want shutdown check failing", body.Checks)
	}
}

func TestHealthChecker_Detailed(t *testing.T) {
	sc := newTestServerContext(t)
	checker := NewHealthChecker(sc)

	rec := httptest.NewRecorder()
	checker.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body DetailedHealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
	if body.Uptime == "" {
		t.Error("uptime missing")
	}
	if body.Account != "default" {
		t.Errorf("account = %q, want %q", body.Account, "default")
	}
	if body.Calendar != "uninitialized" {
		t.Errorf("calendar = %q, want %q", body.Calendar, "uninitialized")
	}

	// Once the calendar client exists the check reports ok.
	sc.SetCalendar(&stubCalendar{})

	rec = httptest.NewRecorder()
	checker.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Calendar != "ok" {
		t.Errorf("calendar = %q, want %q", body.Calendar, "ok")
	}
}

func TestHealthChecker_Detailed_NotReady(t *testing.T) {
	checker := NewHealthChecker(nil)
	checker.SetReady(false)

	rec := httptest.NewRecorder()
	checker.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var body DetailedHealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Status != "not ready" {
		t.Errorf("status = %q, want %q", body.Status, "not ready")
	}
}

func TestHealthChecker_ReadyToggle(t *testing.T) {
	checker := NewHealthChecker(nil)

	if !checker.IsReady() {
		t.Error("IsReady() = false on a new checker, want true")
	}

	checker.SetReady(false)
	if checker.IsReady() {
		t.Error("IsReady() = true after SetReady(false)")
	}

	checker.SetReady(true)
	if !checker.IsReady() {
		t.Error("IsReady() = false after SetReady(true)")
	}
}
