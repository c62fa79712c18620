package chat

import (
	"time"

	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
)

// Interaction records one user/assistant exchange with the emotion read for it.
type Interaction struct {
	Timestamp  time.Time         `json:"timestamp"`
	User       string            `json:"user"`
	Assistant  string            `json:"assistant"`
	Emotion    emotion.State     `json:"emotion"`
	RiskLevel  emotion.RiskLevel `json:"risk_level"`
	Confidence float64           `json:"confidence"`
}
