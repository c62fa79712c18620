package emotion

import (
	"context"
	"errors"
	"testing"

	"github.com/zhouzirui/mindful-mate/backend/internal/analysis/keyword"
	"github.com/zhouzirui/mindful-mate/backend/internal/model/chat"
	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
	"github.com/zhouzirui/mindful-mate/backend/internal/service/ai"
)

type stubAnalyzer struct {
	payload *ai.AnalysisPayload
	err     error
	calls   int
}

func (s *stubAnalyzer) AnalyzeEmotion(context.Context, string, *chat.Summary) (*ai.AnalysisPayload, error) {
	s.calls++
	return s.payload, s.err
}

func floatPtr(v float64) *float64 { return &v }

func TestAnalyzeEmptyText(t *testing.T) {
	svc := NewService(nil)
	if _, err := svc.Analyze(context.Background(), "   ", nil); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestAnalyzeUsesModelResult(t *testing.T) {
	stub := &stubAnalyzer{payload: &ai.AnalysisPayload{
		PrimaryEmotion:     "Anxious",
		Confidence:         floatPtr(0.82),
		Intensity:          "high",
		RiskLevel:          "medium",
		PositiveIndicators: []string{"seeking support"},
		EmotionalPatterns:  []string{"catastrophizing"},
		SuggestedApproach:  "cbt",
	}}
	svc := NewService(stub)

	a, err := svc.Analyze(context.Background(), "what if everything goes wrong", nil)
	if err != nil {
		t.Fatalf("Analyze err: %v", err)
	}
	if a.PrimaryEmotion != emotion.Anxious || a.Confidence != 0.82 {
		t.Fatalf("unexpected analysis: %+v", a)
	}
	if a.SuggestedTechnique != emotion.CBT {
		t.Fatalf("expected whitelisted cbt, got %s", a.SuggestedTechnique)
	}
	if a.Intensity != emotion.IntensityHigh || a.RiskLevel != emotion.RiskMedium {
		t.Fatalf("unexpected intensity/risk: %s/%s", a.Intensity, a.RiskLevel)
	}
}

func TestAnalyzeNormalisesUnknownModelValues(t *testing.T) {
	stub := &stubAnalyzer{payload: &ai.AnalysisPayload{
		PrimaryEmotion:    "melancholic",
		RiskLevel:         "severe",
		Intensity:         "extreme",
		SuggestedApproach: "hypnosis",
	}}
	a, err := NewService(stub).Analyze(context.Background(), "a normal day", nil)
	if err != nil {
		t.Fatalf("Analyze err: %v", err)
	}
	if a.PrimaryEmotion != emotion.Calm {
		t.Fatalf("expected calm default, got %s", a.PrimaryEmotion)
	}
	if a.RiskLevel != emotion.RiskLow || a.Confidence != 0.5 || a.Intensity != emotion.IntensityMedium {
		t.Fatalf("unexpected defaults: %+v", a)
	}
	if a.SuggestedTechnique != emotion.MaintenanceCheck {
		t.Fatalf("expected table technique, got %s", a.SuggestedTechnique)
	}
}

func TestAnalyzeCrisisKeywordsOverrideModel(t *testing.T) {
	stub := &stubAnalyzer{payload: &ai.AnalysisPayload{
		PrimaryEmotion:   "calm",
		Confidence:       floatPtr(0.9),
		RiskLevel:        "low",
		CrisisIndicators: []string{"end it all"},
	}}
	a, err := NewService(stub).Analyze(context.Background(), "I want to end it all", nil)
	if err != nil {
		t.Fatalf("Analyze err: %v", err)
	}
	if a.RiskLevel != emotion.RiskCrisis {
		t.Fatalf("expected crisis, got %s", a.RiskLevel)
	}
	if a.SuggestedTechnique != emotion.CrisisIntervention {
		t.Fatalf("expected crisis_intervention, got %s", a.SuggestedTechnique)
	}
}

func TestAnalyzeCrisisWithoutModelIndicatorsFallsBack(t *testing.T) {
	stub := &stubAnalyzer{payload: &ai.AnalysisPayload{PrimaryEmotion: "happy", RiskLevel: "low"}}
	a, err := NewService(stub).Analyze(context.Background(), "I want to end it all", nil)
	if err != nil {
		t.Fatalf("Analyze err: %v", err)
	}
	if a.RiskLevel != emotion.RiskCrisis {
		t.Fatalf("expected crisis, got %s", a.RiskLevel)
	}
	if len(a.Patterns) != 1 || a.Patterns[0] != keyword.PatternFallback {
		t.Fatalf("expected keyword fallback, got %v", a.Patterns)
	}
}

func TestAnalyzeModelErrorFallsBack(t *testing.T) {
	stub := &stubAnalyzer{err: errors.New("malformed json")}
	a, err := NewService(stub).Analyze(context.Background(), "I feel so sad and empty", nil)
	if err != nil {
		t.Fatalf("Analyze err: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("expected one model call, got %d", stub.calls)
	}
	if a.PrimaryEmotion != emotion.Depressed {
		t.Fatalf("expected depressed, got %s", a.PrimaryEmotion)
	}
	if a.Indicators[0] != keyword.IndicatorKeywordBased {
		t.Fatalf("expected keyword indicator, got %v", a.Indicators)
	}
}

func TestAnalyzeWithoutModelNeverCalls(t *testing.T) {
	svc := NewService(nil)
	if svc.Enabled() {
		t.Fatal("expected disabled service")
	}
	a, err := svc.Analyze(context.Background(), "great and wonderful news", nil)
	if err != nil {
		t.Fatalf("Analyze err: %v", err)
	}
	if a.PrimaryEmotion != emotion.Happy {
		t.Fatalf("expected happy, got %s", a.PrimaryEmotion)
	}
}
