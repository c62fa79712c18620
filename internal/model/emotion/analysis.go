package emotion

// Analysis is an immutable emotion assessment; derive new values instead of editing one.
type Analysis struct {
	PrimaryEmotion     State     `json:"primary_emotion"`
	Confidence         float64   `json:"confidence"`
	RiskLevel          RiskLevel `json:"risk_level"`
	Indicators         []string  `json:"emotional_indicators"`
	SuggestedTechnique Technique `json:"suggested_technique"`
	Intensity          Intensity `json:"intensity"`
	Patterns           []string  `json:"patterns"`
}

// Clone returns a copy that shares no slices with a.
func (a Analysis) Clone() Analysis {
	out := a
	out.Indicators = append([]string(nil), a.Indicators...)
	out.Patterns = append([]string(nil), a.Patterns...)
	return out
}

// ClampConfidence bounds c to [0,1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
