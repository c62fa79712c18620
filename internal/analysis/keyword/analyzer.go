package keyword

import (
	"strings"

	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
)

var crisisKeywords = []string{
	"suicide", "kill myself", "end it all", "better off dead",
	"self harm", "hurt myself", "cutting", "overdose",
	"hopeless", "worthless", "no point", "can't go on",
	"want to die", "end my life", "not worth living",
}

type bucket struct {
	state    emotion.State
	keywords []string
}

// keywordBuckets is evaluated in order; ties go to the earlier bucket.
var keywordBuckets = []bucket{
	{emotion.Anxious, []string{"worried", "nervous", "scared", "panic", "anxious", "afraid"}},
	{emotion.Depressed, []string{"sad", "empty", "hopeless", "worthless", "depressed", "down"}},
	{emotion.Stressed, []string{"overwhelmed", "pressure", "stressed", "burden", "exhausted"}},
	{emotion.Angry, []string{"angry", "furious", "mad", "frustrated", "rage", "irritated"}},
	{emotion.Happy, []string{"happy", "joy", "excited", "good", "great", "wonderful"}},
}

const (
	// zeroMatchConfidence applies when no bucket matched anything.
	zeroMatchConfidence = 0.3

	IndicatorKeywordBased = "Keyword-based analysis"
	PatternFallback       = "fallback_analysis"
)

// ScanCrisis reports whether text contains any crisis keyword.
func ScanCrisis(text string) bool {
	normalized := strings.ToLower(text)
	for _, word := range crisisKeywords {
		if strings.Contains(normalized, word) {
			return true
		}
	}
	return false
}

// Analyze scores each emotion by the share of its keywords present in text.
func Analyze(text string, crisis bool) emotion.Analysis {
	normalized := strings.ToLower(strings.TrimSpace(text))

	primary := emotion.Calm
	best := 0.0
	for _, b := range keywordBuckets {
		s := score(normalized, b.keywords)
		if s > best {
			best = s
			primary = b.state
		}
	}

	confidence := best
	if best == 0 {
		primary = emotion.Calm
		confidence = zeroMatchConfidence
	}

	risk := emotion.RiskLow
	if crisis {
		risk = emotion.RiskCrisis
	}

	return emotion.Analysis{
		PrimaryEmotion:     primary,
		Confidence:         confidence,
		RiskLevel:          risk,
		Indicators:         []string{IndicatorKeywordBased},
		SuggestedTechnique: emotion.SelectTechnique(primary, risk),
		Intensity:          emotion.IntensityMedium,
		Patterns:           []string{PatternFallback},
	}
}

func score(normalized string, keywords []string) float64 {
	if normalized == "" || len(keywords) == 0 {
		return 0
	}
	hits := 0
	for _, word := range keywords {
		if strings.Contains(normalized, word) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}
