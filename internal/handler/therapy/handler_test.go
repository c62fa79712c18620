package therapy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindful-mate/backend/internal/service/technique"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(technique.Default()).RegisterRoutes(r)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestTechniqueGuide(t *testing.T) {
	r := setupRouter()

	resp := get(r, "/techniques/grounding_technique")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var guide struct {
		Technique string   `json:"technique"`
		Name      string   `json:"name"`
		Steps     []string `json:"steps"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &guide); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if guide.Name != "5-4-3-2-1 Grounding" || len(guide.Steps) != 5 {
		t.Fatalf("unexpected guide %+v", guide)
	}

	if resp := get(r, "/techniques/unknown"); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestGuidedTechnique(t *testing.T) {
	resp := get(setupRouter(), "/techniques/behavioral_activation?guided=true")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var ex technique.GuidedExercise
	if err := json.Unmarshal(resp.Body.Bytes(), &ex); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ex.TotalSteps != 5 || ex.Steps[4].StepNumber != 5 {
		t.Fatalf("unexpected guided exercise %+v", ex)
	}
}

func TestCrisisResources(t *testing.T) {
	resp := get(setupRouter(), "/crisis-resources")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body crisisResources
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ImmediateHelp["suicide_crisis_lifeline"].Number != "988" {
		t.Fatalf("unexpected resources %+v", body.ImmediateHelp)
	}
	if len(body.SafetyPlanning) != 4 {
		t.Fatalf("expected 4 safety steps, got %d", len(body.SafetyPlanning))
	}
}
