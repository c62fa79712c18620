package crisis

import (
	"strings"

	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
)

// Category 危机类型。
type Category string

const (
	SuicidalIdeation   Category = "suicidal_ideation"
	SelfHarm           Category = "self_harm"
	SevereDepression   Category = "severe_depression"
	PanicAttack        Category = "panic_attack"
	ContextualCrisis   Category = "contextual_crisis"
	ContextualHighRisk Category = "contextual_high_risk"
)

// Urgency 危机紧急程度。
type Urgency string

const (
	UrgencyNone      Urgency = ""
	UrgencyMonitor   Urgency = "monitor"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyImmediate Urgency = "immediate"
)

func (u Urgency) priority() int {
	switch u {
	case UrgencyMonitor:
		return 1
	case UrgencyUrgent:
		return 2
	case UrgencyImmediate:
		return 3
	default:
		return 0
	}
}

// RiskFloor is the lowest risk level an urgency implies.
func (u Urgency) RiskFloor() emotion.RiskLevel {
	switch u {
	case UrgencyImmediate:
		return emotion.RiskCrisis
	case UrgencyUrgent:
		return emotion.RiskHigh
	case UrgencyMonitor:
		return emotion.RiskMedium
	default:
		return emotion.RiskLow
	}
}

// DefaultThreshold is the score a category must exceed to be reported.
const DefaultThreshold = 0.3

type pattern struct {
	category Category
	keywords []string
	phrases  []string
	urgency  Urgency
}

var defaultPatterns = []pattern{
	{
		category: SuicidalIdeation,
		keywords: []string{"suicide", "kill myself", "end it all", "want to die", "better off dead", "end my life", "not worth living", "suicide plan", "ways to die"},
		phrases:  []string{"i want to die", "i should die", "kill me", "end it all", "can't go on", "no reason to live"},
		urgency:  UrgencyImmediate,
	},
	{
		category: SelfHarm,
		keywords: []string{"hurt myself", "cut myself", "self harm", "cutting", "burn myself", "punch wall", "harm myself"},
		phrases:  []string{"want to hurt myself", "cutting helps", "pain makes it better"},
		urgency:  UrgencyUrgent,
	},
	{
		category: SevereDepression,
		keywords: []string{"hopeless", "worthless", "useless", "burden", "empty", "numb", "void", "pointless"},
		phrases:  []string{"nothing matters", "no point", "completely hopeless", "total failure", "everyone hates me"},
		urgency:  UrgencyMonitor,
	},
	{
		category: PanicAttack,
		keywords: []string{"panic attack", "can't breathe", "heart racing", "chest pain", "dizzy", "dying"},
		phrases:  []string{"having a panic attack", "can't catch my breath", "feel like dying", "heart pounding"},
		urgency:  UrgencyUrgent,
	},
}

// Detection is one flagged category.
type Detection struct {
	Category Category `json:"type"`
	Score    float64  `json:"score"`
	Urgency  Urgency  `json:"urgency"`
}

// Report summarises crisis signals for one message.
type Report struct {
	Detected               bool        `json:"crisis_detected"`
	Crises                 []Detection `json:"crisis_types"`
	HighestUrgency         Urgency     `json:"highest_urgency,omitempty"`
	ImmediateActionNeeded  bool        `json:"immediate_action_needed"`
	Resources              *Resources  `json:"resources_needed,omitempty"`
	SafetyPlanningRequired bool        `json:"safety_planning_required"`
}

// Has reports whether category was flagged.
func (r Report) Has(category Category) bool {
	for _, c := range r.Crises {
		if c.Category == category {
			return true
		}
	}
	return false
}

// Detector scores text against the crisis pattern table.
type Detector struct {
	threshold float64
	patterns  []pattern
}

// NewDetector creates a detector; threshold <= 0 selects DefaultThreshold.
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold, patterns: defaultPatterns}
}

// Threshold returns the active detection threshold.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Detect scans text and, when given, the fused analysis for crisis signals.
func (d *Detector) Detect(text string, fused *emotion.Analysis) Report {
	normalized := strings.ToLower(text)

	var crises []Detection
	highest := UrgencyNone
	for _, p := range d.patterns {
		score := p.score(normalized)
		if score <= d.threshold {
			continue
		}
		crises = append(crises, Detection{Category: p.category, Score: score, Urgency: p.urgency})
		if p.urgency.priority() > highest.priority() {
			highest = p.urgency
		}
	}

	if fused != nil {
		if c, ok := contextual(*fused); ok {
			crises = append(crises, c)
			if c.Urgency.priority() > highest.priority() {
				highest = c.Urgency
			}
		}
	}

	report := Report{
		Detected:               len(crises) > 0,
		Crises:                 crises,
		HighestUrgency:         highest,
		ImmediateActionNeeded:  highest == UrgencyImmediate,
		SafetyPlanningRequired: len(crises) > 0,
	}
	if report.Detected {
		report.Resources = resourcesFor(crises)
	}
	return report
}

func (p pattern) score(normalized string) float64 {
	keywordHits := 0
	for _, k := range p.keywords {
		if strings.Contains(normalized, k) {
			keywordHits++
		}
	}
	phraseHits := 0
	for _, ph := range p.phrases {
		if strings.Contains(normalized, ph) {
			phraseHits++
		}
	}

	keywordScore := float64(keywordHits) * 0.3
	if keywordScore > 0.8 {
		keywordScore = 0.8
	}
	phraseScore := float64(phraseHits) * 0.5
	if phraseScore > 1.0 {
		phraseScore = 1.0
	}
	if keywordScore > phraseScore {
		return keywordScore
	}
	return phraseScore
}

func contextual(a emotion.Analysis) (Detection, bool) {
	switch {
	case a.RiskLevel == emotion.RiskCrisis && a.Confidence > 0.7:
		return Detection{Category: ContextualCrisis, Score: a.Confidence, Urgency: UrgencyImmediate}, true
	case a.RiskLevel == emotion.RiskHigh && a.Confidence > 0.8:
		return Detection{Category: ContextualHighRisk, Score: a.Confidence, Urgency: UrgencyUrgent}, true
	default:
		return Detection{}, false
	}
}
