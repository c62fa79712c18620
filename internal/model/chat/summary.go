package chat

import "github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"

// Summary 会话摘要，供文本分析和接口查询使用。
type Summary struct {
	SessionLengthMinutes int               `json:"session_length_minutes"`
	TotalInteractions    int               `json:"total_interactions"`
	RecentEmotions       []emotion.State   `json:"recent_emotions"`
	CurrentRiskLevel     emotion.RiskLevel `json:"current_risk_level"`
	ActiveRiskFlags      []string          `json:"active_risk_flags"`
	TherapeuticGoals     []string          `json:"therapeutic_goals"`
	KeyThemes            []string          `json:"key_themes"`
}

// Empty reports whether the session has no recorded interactions yet.
func (s Summary) Empty() bool {
	return s.TotalInteractions == 0
}
