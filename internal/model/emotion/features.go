package emotion

import (
	"errors"
	"fmt"
)

// Feature keys understood by the voice scorer.
const (
	FeaturePitchMean     = "pitch_mean"
	FeaturePitchVariance = "pitch_variance"
	FeatureSpeechRate    = "speech_rate"
	FeatureEnergy        = "energy"
	FeaturePauseDuration = "avg_pause_duration"
)

var featureDefaults = map[string]float64{
	FeaturePitchMean:     150,
	FeaturePitchVariance: 50,
	FeatureSpeechRate:    150,
	FeatureEnergy:        0.5,
	FeaturePauseDuration: 0.5,
}

// requiredFeatures must be present on inbound voice payloads.
var requiredFeatures = []string{FeaturePitchMean, FeatureEnergy}

// ErrMissingFeature 表示缺少必需的语音特征。
var ErrMissingFeature = errors.New("missing required voice feature")

// VoiceFeatures carries prosodic measurements; unknown keys are kept but ignored by scoring.
type VoiceFeatures map[string]float64

// Value returns the measurement for key, falling back to its default.
func (f VoiceFeatures) Value(key string) float64 {
	if v, ok := f[key]; ok {
		return v
	}
	return featureDefaults[key]
}

func (f VoiceFeatures) PitchMean() float64     { return f.Value(FeaturePitchMean) }
func (f VoiceFeatures) PitchVariance() float64 { return f.Value(FeaturePitchVariance) }
func (f VoiceFeatures) SpeechRate() float64    { return f.Value(FeatureSpeechRate) }
func (f VoiceFeatures) Energy() float64        { return f.Value(FeatureEnergy) }
func (f VoiceFeatures) PauseDuration() float64 { return f.Value(FeaturePauseDuration) }

// Validate checks the boundary requirements. Scoring itself never needs it.
func (f VoiceFeatures) Validate() error {
	for _, key := range requiredFeatures {
		if _, ok := f[key]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingFeature, key)
		}
	}
	return nil
}
