package emotion

import "strings"

// State 表示模型可识别的情绪状态。
type State string

const (
	Anxious   State = "anxious"
	Depressed State = "depressed"
	Stressed  State = "stressed"
	Angry     State = "angry"
	Happy     State = "happy"
	Calm      State = "calm"
	Confused  State = "confused"
	Excited   State = "excited"
)

// States lists every state in declaration order. Argmax ties resolve to the earlier entry.
var States = []State{Anxious, Depressed, Stressed, Angry, Happy, Calm, Confused, Excited}

// ParseState 解析不区分大小写的情绪标签。
func ParseState(raw string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range States {
		if s == normalized {
			return s, true
		}
	}
	return "", false
}

// Negative reports whether the state counts toward a persistent negative mood.
func (s State) Negative() bool {
	switch s {
	case Depressed, Anxious, Stressed:
		return true
	default:
		return false
	}
}

// Intensity 表示情绪强度。
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// ParseIntensity returns IntensityMedium for anything unrecognised.
func ParseIntensity(raw string) Intensity {
	switch Intensity(strings.ToLower(strings.TrimSpace(raw))) {
	case IntensityLow:
		return IntensityLow
	case IntensityHigh:
		return IntensityHigh
	default:
		return IntensityMedium
	}
}

// Weight maps low/medium/high to 1/2/3.
func (i Intensity) Weight() float64 {
	switch i {
	case IntensityLow:
		return 1
	case IntensityHigh:
		return 3
	default:
		return 2
	}
}

// IntensityFromConfidence buckets a confidence score.
func IntensityFromConfidence(confidence float64) Intensity {
	switch {
	case confidence > 0.7:
		return IntensityHigh
	case confidence > 0.4:
		return IntensityMedium
	default:
		return IntensityLow
	}
}
