package fusion

import (
	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
)

const (
	VoiceWeight         = 0.4
	TextWeight          = 0.6
	AgreementBonus      = 0.2
	DisagreementPenalty = 0.8
	MinConfidence       = 0.3
)

// Fuse combines a voice reading with a text reading. A nil voice returns text unchanged.
func Fuse(voice *emotion.Analysis, text emotion.Analysis) emotion.Analysis {
	if voice == nil {
		return text
	}

	primary := text.PrimaryEmotion
	agree := voice.PrimaryEmotion == text.PrimaryEmotion
	combined := voice.Confidence*VoiceWeight + text.Confidence*TextWeight
	if agree {
		combined += AgreementBonus
		if combined > 1 {
			combined = 1
		}
	} else {
		combined *= DisagreementPenalty
	}

	risk := emotion.MaxRisk(voice.RiskLevel, text.RiskLevel)

	indicators := make([]string, 0, len(voice.Indicators)+len(text.Indicators))
	indicators = append(indicators, voice.Indicators...)
	indicators = append(indicators, text.Indicators...)

	confidence := combined
	if confidence < MinConfidence {
		confidence = MinConfidence
	}

	return emotion.Analysis{
		PrimaryEmotion:     primary,
		Confidence:         emotion.ClampConfidence(confidence),
		RiskLevel:          risk,
		Indicators:         indicators,
		SuggestedTechnique: fuseTechnique(*voice, text, risk),
		Intensity:          fuseIntensity(*voice, text, combined),
		Patterns:           union(voice.Patterns, text.Patterns),
	}
}

func fuseTechnique(voice, text emotion.Analysis, risk emotion.RiskLevel) emotion.Technique {
	if t, ok := emotion.RiskTechnique(risk); ok {
		return t
	}
	if voice.SuggestedTechnique == text.SuggestedTechnique {
		return voice.SuggestedTechnique
	}
	return text.SuggestedTechnique
}

// fuseIntensity uses the combined confidence before the floor is applied.
func fuseIntensity(voice, text emotion.Analysis, combined float64) emotion.Intensity {
	weighted := voice.Intensity.Weight()*VoiceWeight + text.Intensity.Weight()*TextWeight
	switch {
	case combined > 0.8:
		weighted *= 1.1
	case combined < 0.4:
		weighted *= 0.9
	}

	switch {
	case weighted > 2.5:
		return emotion.IntensityHigh
	case weighted > 1.5:
		return emotion.IntensityMedium
	default:
		return emotion.IntensityLow
	}
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, p := range list {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
