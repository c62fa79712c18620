package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zhouzirui/mindful-mate/backend/internal/model/chat"
)

// AnalysisPayload is the structured emotion reading the model returns.
type AnalysisPayload struct {
	PrimaryEmotion     string   `json:"primary_emotion"`
	Confidence         *float64 `json:"confidence"`
	Intensity          string   `json:"intensity"`
	RiskLevel          string   `json:"risk_level"`
	CrisisIndicators   []string `json:"crisis_indicators"`
	PositiveIndicators []string `json:"positive_indicators"`
	EmotionalPatterns  []string `json:"emotional_patterns"`
	SuggestedApproach  string   `json:"suggested_approach"`
}

// AnalyzeEmotion asks the model for a JSON emotion reading. Call and parse failures are returned as errors.
func (s *Service) AnalyzeEmotion(ctx context.Context, text string, summary *chat.Summary) (*AnalysisPayload, error) {
	content, err := s.Generate(ctx, ProfileAnalysis, analysisSystemPrompt, nil, buildAnalysisQuery(text, summary))
	if err != nil {
		return nil, fmt.Errorf("emotion analysis generation: %w", err)
	}

	payload, err := parseAnalysisOutput(content)
	if err != nil {
		return nil, fmt.Errorf("emotion analysis output: %w", err)
	}
	return payload, nil
}

// parseAnalysisOutput 解析大模型返回的 JSON。
func parseAnalysisOutput(content string) (*AnalysisPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &AnalysisPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}
