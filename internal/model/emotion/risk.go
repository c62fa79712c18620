package emotion

import (
	"fmt"
	"strings"
)

// RiskLevel is ordered: RiskLow < RiskMedium < RiskHigh < RiskCrisis.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCrisis
)

var riskLabels = [...]string{"low", "medium", "high", "crisis"}

func (r RiskLevel) String() string {
	if r < RiskLow || r > RiskCrisis {
		return fmt.Sprintf("risk(%d)", int(r))
	}
	return riskLabels[r]
}

// ParseRiskLevel 解析不区分大小写的风险等级。
func ParseRiskLevel(raw string) (RiskLevel, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for i, label := range riskLabels {
		if label == normalized {
			return RiskLevel(i), true
		}
	}
	return RiskLow, false
}

// MaxRisk returns the higher of two levels.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if a > b {
		return a
	}
	return b
}

// AtLeast lifts r to floor when r is lower.
func (r RiskLevel) AtLeast(floor RiskLevel) RiskLevel {
	return MaxRisk(r, floor)
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	if r < RiskLow || r > RiskCrisis {
		return nil, fmt.Errorf("invalid risk level %d", int(r))
	}
	return []byte(riskLabels[r]), nil
}

func (r *RiskLevel) UnmarshalText(text []byte) error {
	level, ok := ParseRiskLevel(string(text))
	if !ok {
		return fmt.Errorf("unknown risk level %q", string(text))
	}
	*r = level
	return nil
}
