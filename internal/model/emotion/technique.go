package emotion

// Technique 表示推荐的干预技巧。
type Technique string

const (
	BreathingExercise      Technique = "breathing_exercise"
	BehavioralActivation   Technique = "behavioral_activation"
	GroundingTechnique     Technique = "grounding_technique"
	EmotionRegulation      Technique = "emotion_regulation"
	PositiveReinforcement  Technique = "positive_reinforcement"
	MaintenanceCheck       Technique = "maintenance_check"
	ClarificationQuestions Technique = "clarification_questions"
	CrisisIntervention     Technique = "crisis_intervention"
	SafetyPlanning         Technique = "safety_planning"
	Validation             Technique = "validation"
	CBT                    Technique = "cbt"
)

var techniqueByState = map[State]Technique{
	Anxious:   BreathingExercise,
	Depressed: BehavioralActivation,
	Stressed:  GroundingTechnique,
	Angry:     EmotionRegulation,
	Happy:     PositiveReinforcement,
	Calm:      MaintenanceCheck,
	Confused:  ClarificationQuestions,
	Excited:   PositiveReinforcement,
}

// DefaultTechnique is the technique table keyed by emotion alone.
func DefaultTechnique(state State) Technique {
	if t, ok := techniqueByState[state]; ok {
		return t
	}
	return Validation
}

// RiskTechnique returns the override for crisis and high risk.
func RiskTechnique(risk RiskLevel) (Technique, bool) {
	switch {
	case risk >= RiskCrisis:
		return CrisisIntervention, true
	case risk == RiskHigh:
		return SafetyPlanning, true
	default:
		return "", false
	}
}

// SelectTechnique applies the risk override before the emotion table.
func SelectTechnique(state State, risk RiskLevel) Technique {
	if t, ok := RiskTechnique(risk); ok {
		return t
	}
	return DefaultTechnique(state)
}
