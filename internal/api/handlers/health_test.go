package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// mockChecker — мок ReadinessChecker для тестов.
type mockChecker struct {
	name    string
	status  string
	message string
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) CheckReady(context.Context) (string, string) {
	return m.status, m.message
}

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler()
	rec := httptest.NewRecorder()
	h.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидается 200, получено %d", rec.Code)
	}
	var resp healthLiveResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("декодирование ответа: %v", err)
	}
	if resp.Status != "ok" || resp.Service != serviceName {
		t.Errorf("ответ = %+v", resp)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []ReadinessChecker
		wantCode   int
		wantStatus string
	}{
		{
			"все ok",
			[]ReadinessChecker{&mockChecker{"tender_api", "ok", ""}, &mockChecker{"redis", "ok", ""}},
			http.StatusOK, "ok",
		},
		{
			"degraded",
			[]ReadinessChecker{&mockChecker{"tender_api", "ok", ""}, &mockChecker{"redis", "degraded", "медленно"}},
			http.StatusOK, "degraded",
		},
		{
			"API недоступен",
			[]ReadinessChecker{&mockChecker{"tender_api", "fail", "timeout"}, &mockChecker{"redis", "ok", ""}},
			http.StatusServiceUnavailable, "fail",
		},
		{"без зависимостей", nil, http.StatusOK, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checkers...)
			rec := httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("код = %d, ожидается %d", rec.Code, tt.wantCode)
			}
			var resp healthReadyResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("декодирование ответа: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, ожидается %q", resp.Status, tt.wantStatus)
			}
			if len(resp.Checks) != len(tt.checkers) {
				t.Errorf("проверок %d, ожидается %d", len(resp.Checks), len(tt.checkers))
			}
		})
	}
}

// barrierChecker готов, только когда все проверки запущены одновременно.
type barrierChecker struct {
	name string
	wg   *sync.WaitGroup
}

func (b *barrierChecker) Name() string { return b.name }

func (b *barrierChecker) CheckReady(ctx context.Context) (string, string) {
	b.wg.Done()
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return "ok", ""
	case <-ctx.Done():
		return "fail", "проверки выполняются последовательно"
	}
}

func TestHealthReadyRunsChecksConcurrently(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(2)
	h := NewHealthHandler(&barrierChecker{"tender_api", &wg}, &barrierChecker{"redis", &wg})

	rec := httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("код = %d, ожидается 200: %s", rec.Code, rec.Body.String())
	}
	var resp healthReadyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("декодирование ответа: %v", err)
	}
	if resp.Checks["redis"].Status != "ok" || resp.Checks["tender_api"].Status != "ok" {
		t.Errorf("проверки = %+v", resp.Checks)
	}
}

func TestHealthNilCheckerSkipped(t *testing.T) {
	var nilChecker ReadinessChecker
	h := NewHealthHandler(nilChecker, &mockChecker{"tender_api", "ok", ""})
	if len(h.checkers) != 1 {
		t.Errorf("проверок %d, ожидается 1", len(h.checkers))
	}
}

func TestGetMetrics(t *testing.T) {
	h := NewHealthHandler()
	rec := httptest.NewRecorder()
	h.GetMetrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидается 200, получено %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("ожидаются стандартные метрики Go")
	}
}
