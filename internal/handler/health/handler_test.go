package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }
func (s stubPinger) ModelName() string          { return "gemma3n:e4b" }

type fixedCount int

func (c fixedCount) Len() int { return int(c) }

func check(t *testing.T, p Pinger) response {
	t.Helper()
	r := chi.NewRouter()
	New(p, fixedCount(2)).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body response
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestHealthHealthy(t *testing.T) {
	body := check(t, stubPinger{})
	if body.Status != "healthy" || body.Model != "gemma3n:e4b" || body.ActiveSessions != 2 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestHealthDegraded(t *testing.T) {
	if body := check(t, stubPinger{err: errors.New("connection refused")}); body.Status != "degraded" || body.ModelStatus != "unhealthy" {
		t.Fatalf("unexpected body %+v", body)
	}
	if body := check(t, nil); body.ModelStatus != "unavailable" {
		t.Fatalf("unexpected body %+v", body)
	}
}
