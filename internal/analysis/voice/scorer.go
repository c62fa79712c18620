package voice

import (
	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
)

// reading is the resolved feature vector a rule sees.
type reading struct {
	pitch    float64
	variance float64
	rate     float64
	energy   float64
	pause    float64
}

type rule struct {
	weight float64
	when   func(r reading) bool
}

type emotionRules struct {
	state emotion.State
	rules []rule
}

// scoringRules holds the additive weights per emotion. Order matches emotion.States.
var scoringRules = []emotionRules{
	{emotion.Anxious, []rule{
		{0.3, func(r reading) bool { return r.variance > 75 }},
		{0.3, func(r reading) bool { return r.rate > 180 }},
		{0.2, func(r reading) bool { return r.pitch > 200 }},
		{0.2, func(r reading) bool { return r.energy > 0.6 && (r.variance > 60 || r.rate > 170) }},
	}},
	{emotion.Depressed, []rule{
		{0.4, func(r reading) bool { return r.energy < 0.3 }},
		{0.3, func(r reading) bool { return r.pitch < 120 }},
		{0.3, func(r reading) bool { return r.pause > 1.5 }},
		{0.2, func(r reading) bool { return r.rate < 120 }},
	}},
	{emotion.Stressed, []rule{
		{0.3, func(r reading) bool { return r.rate > 200 || r.rate < 100 }},
		{0.3, func(r reading) bool { return r.variance > 80 }},
		{0.2, func(r reading) bool { return r.energy > 0.7 && r.variance > 60 }},
		{0.2, func(r reading) bool { return r.energy > 0.4 && r.energy < 0.7 && (r.rate > 190 || r.rate < 110) }},
	}},
	{emotion.Angry, []rule{
		{0.4, func(r reading) bool { return r.energy > 0.8 }},
		{0.3, func(r reading) bool { return r.pitch > 180 }},
		{0.3, func(r reading) bool { return r.rate > 190 }},
	}},
	{emotion.Happy, []rule{
		{0.3, func(r reading) bool { return r.energy > 0.6 && r.energy < 0.9 }},
		{0.2, func(r reading) bool { return r.pitch > 160 && r.pitch < 200 }},
		{0.2, func(r reading) bool { return r.rate > 150 && r.rate < 180 }},
		{0.3, func(r reading) bool { return r.variance > 40 && r.variance < 70 }},
	}},
	{emotion.Calm, []rule{
		{0.3, func(r reading) bool { return r.variance > 25 && r.variance < 55 }},
		{0.3, func(r reading) bool { return r.rate > 140 && r.rate < 170 }},
		{0.2, func(r reading) bool { return r.energy > 0.4 && r.energy < 0.7 }},
		{0.2, func(r reading) bool { return r.pause > 0.3 && r.pause < 0.8 }},
	}},
}

// Score maps prosodic features to an emotion analysis. Missing features take defaults.
func Score(features emotion.VoiceFeatures) emotion.Analysis {
	r := resolve(features)
	scores := scoreEmotions(r)

	primary := emotion.Calm
	best := -1.0
	for _, er := range scoringRules {
		if s := scores[er.state]; s > best {
			best = s
			primary = er.state
		}
	}
	confidence := emotion.ClampConfidence(best)
	risk := assessRisk(scores, r)

	return emotion.Analysis{
		PrimaryEmotion:     primary,
		Confidence:         confidence,
		RiskLevel:          risk,
		Indicators:         indicators(r),
		SuggestedTechnique: emotion.SelectTechnique(primary, risk),
		Intensity:          emotion.IntensityFromConfidence(confidence),
		Patterns:           patterns(r),
	}
}

// Scores exposes the per-emotion scores for the given features.
func Scores(features emotion.VoiceFeatures) map[emotion.State]float64 {
	return scoreEmotions(resolve(features))
}

func resolve(f emotion.VoiceFeatures) reading {
	return reading{
		pitch:    f.PitchMean(),
		variance: f.PitchVariance(),
		rate:     f.SpeechRate(),
		energy:   f.Energy(),
		pause:    f.PauseDuration(),
	}
}

func scoreEmotions(r reading) map[emotion.State]float64 {
	scores := make(map[emotion.State]float64, len(scoringRules))
	for _, er := range scoringRules {
		total := 0.0
		for _, ru := range er.rules {
			if ru.when(r) {
				total += ru.weight
			}
		}
		if total > 1 {
			total = 1
		}
		scores[er.state] = total
	}
	return scores
}

func assessRisk(scores map[emotion.State]float64, r reading) emotion.RiskLevel {
	if scores[emotion.Depressed] > 0.8 && r.energy < 0.2 && r.rate < 100 {
		return emotion.RiskCrisis
	}

	strong := 0
	for _, s := range scores {
		if s > 0.7 {
			strong++
		}
	}
	if (scores[emotion.Anxious] > 0.8 && r.pause > 2.0) || strong >= 2 {
		return emotion.RiskHigh
	}

	negative := scores[emotion.Depressed]
	for _, s := range []float64{scores[emotion.Anxious], scores[emotion.Stressed]} {
		if s > negative {
			negative = s
		}
	}
	if negative > 0.6 {
		return emotion.RiskMedium
	}
	return emotion.RiskLow
}

func indicators(r reading) []string {
	out := make([]string, 0, 4)
	switch {
	case r.rate > 190:
		out = append(out, "Rapid speech pattern")
	case r.rate < 120:
		out = append(out, "Slow speech pattern")
	}
	switch {
	case r.energy < 0.3:
		out = append(out, "Low vocal energy")
	case r.energy > 0.8:
		out = append(out, "High vocal energy")
	}
	switch {
	case r.variance > 75:
		out = append(out, "Variable pitch patterns")
	case r.variance < 25:
		out = append(out, "Monotone speech")
	}
	switch {
	case r.pause > 1.5:
		out = append(out, "Extended pauses")
	case r.pause < 0.2:
		out = append(out, "Minimal pauses")
	}
	return out
}

func patterns(r reading) []string {
	var out []string
	if r.energy < 0.3 && r.rate < 120 {
		out = append(out, "potential_depression_indicators")
	}
	if r.rate > 180 && r.variance > 70 {
		out = append(out, "potential_anxiety_indicators")
	}
	if (r.rate > 200 || r.rate < 100) && r.energy > 0.6 {
		out = append(out, "potential_stress_indicators")
	}
	return out
}
