package emotion

import (
	"context"
	"errors"
	"strings"

	"github.com/zhouzirui/mindful-mate/backend/internal/analysis/keyword"
	"github.com/zhouzirui/mindful-mate/backend/internal/model/chat"
	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
	"github.com/zhouzirui/mindful-mate/backend/internal/observability"
	"github.com/zhouzirui/mindful-mate/backend/internal/service/ai"
)

// ErrEmptyText 表示待分析文本为空。
var ErrEmptyText = errors.New("text is required")

// Analyzer is the generative analysis capability the service depends on.
type Analyzer interface {
	AnalyzeEmotion(ctx context.Context, text string, summary *chat.Summary) (*ai.AnalysisPayload, error)
}

// approachWhitelist lists model-suggested techniques accepted as-is.
var approachWhitelist = map[emotion.Technique]struct{}{
	emotion.Validation:           {},
	emotion.CBT:                  {},
	emotion.BehavioralActivation: {},
	emotion.CrisisIntervention:   {},
}

// Service 文本情绪分析：先尝试大模型，失败时回退到关键词规则。
type Service struct {
	analyzer Analyzer
}

// NewService creates the analyzer. A nil analyzer means keyword analysis only.
func NewService(analyzer Analyzer) *Service {
	return &Service{analyzer: analyzer}
}

// Enabled 返回是否启用大模型分析。
func (s *Service) Enabled() bool {
	return s != nil && s.analyzer != nil
}

// stageResult is the outcome of the generative stage; ok=false means fall back.
type stageResult struct {
	analysis emotion.Analysis
	ok       bool
	reason   string
}

// Analyze returns an emotion reading for text. Only empty input is an error.
func (s *Service) Analyze(ctx context.Context, text string, summary *chat.Summary) (emotion.Analysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return emotion.Analysis{}, ErrEmptyText
	}

	crisis := keyword.ScanCrisis(text)

	result := s.modelStage(ctx, text, summary, crisis)
	if result.ok {
		return result.analysis, nil
	}

	observability.FromContext(ctx, "emotion").
		WithField("reason", result.reason).
		WithField("crisis_keywords", crisis).
		Info("use keyword fallback")
	return keyword.Analyze(text, crisis), nil
}

func (s *Service) modelStage(ctx context.Context, text string, summary *chat.Summary, crisis bool) stageResult {
	if !s.Enabled() {
		return stageResult{reason: "model analysis disabled"}
	}

	payload, err := s.analyzer.AnalyzeEmotion(ctx, text, summary)
	if err != nil {
		observability.FromContext(ctx, "emotion").WithError(err).Warn("model analysis failed")
		return stageResult{reason: "model analysis failed"}
	}
	if payload == nil {
		return stageResult{reason: "empty model analysis"}
	}
	if crisis && len(payload.CrisisIndicators) == 0 {
		return stageResult{reason: "crisis keywords without model indicators"}
	}

	return stageResult{analysis: fromPayload(payload, crisis), ok: true}
}

func fromPayload(p *ai.AnalysisPayload, crisis bool) emotion.Analysis {
	state, ok := emotion.ParseState(p.PrimaryEmotion)
	if !ok {
		state = emotion.Calm
	}

	risk, _ := emotion.ParseRiskLevel(p.RiskLevel)
	if crisis {
		risk = emotion.RiskCrisis
	}

	confidence := 0.5
	if p.Confidence != nil {
		confidence = emotion.ClampConfidence(*p.Confidence)
	}

	indicators := make([]string, 0, len(p.CrisisIndicators)+len(p.PositiveIndicators))
	indicators = append(indicators, p.CrisisIndicators...)
	indicators = append(indicators, p.PositiveIndicators...)

	return emotion.Analysis{
		PrimaryEmotion:     state,
		Confidence:         confidence,
		RiskLevel:          risk,
		Indicators:         indicators,
		SuggestedTechnique: chooseTechnique(state, risk, p.SuggestedApproach),
		Intensity:          emotion.ParseIntensity(p.Intensity),
		Patterns:           append([]string(nil), p.EmotionalPatterns...),
	}
}

func chooseTechnique(state emotion.State, risk emotion.RiskLevel, approach string) emotion.Technique {
	if t, ok := emotion.RiskTechnique(risk); ok {
		return t
	}
	suggested := emotion.Technique(strings.ToLower(strings.TrimSpace(approach)))
	if _, ok := approachWhitelist[suggested]; ok {
		return suggested
	}
	return emotion.DefaultTechnique(state)
}
