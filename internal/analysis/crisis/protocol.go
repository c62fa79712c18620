package crisis

// Intervention is the structured crisis response attached to a reply.
type Intervention struct {
	Urgency            Urgency    `json:"urgency_level"`
	PrimaryCategory    Category   `json:"primary_crisis"`
	ImmediateResponse  string     `json:"immediate_response"`
	SafetyQuestions    []string   `json:"safety_questions,omitempty"`
	RecommendedActions []string   `json:"recommended_actions"`
	Resources          *Resources `json:"crisis_resources,omitempty"`
	SafetyPlanPrompt   string     `json:"safety_plan_prompt,omitempty"`
	FollowUpRequired   bool       `json:"follow_up_required"`
}

type protocol struct {
	response  string
	questions []string
}

var protocols = map[Category]protocol{
	SuicidalIdeation: {
		response: "I'm very concerned about what you've shared. Your life has value and there are people who want to help. Let's talk about keeping you safe right now.",
		questions: []string{
			"Do you have a plan to hurt yourself?",
			"Do you have access to means of self-harm?",
			"Are you alone right now?",
			"Is there someone you trust who could come be with you?",
		},
	},
	SelfHarm: {
		response: "I'm worried about you wanting to hurt yourself. Self-harm might bring short relief, but there are safer ways to cope with these feelings.",
		questions: []string{
			"What usually triggers your urge to self-harm?",
			"Do you have a support person you can call?",
			"Are you in a safe environment right now?",
		},
	},
	SevereDepression: {
		response: "I can hear how much pain you're in right now. Feelings of hopelessness are symptoms of depression, and they can improve with proper support.",
		questions: []string{
			"Have you had thoughts of hurting yourself?",
			"Who in your life knows you're struggling?",
			"What has helped you get through difficult times before?",
		},
	},
}

var defaultProtocol = protocol{
	response: "I'm concerned about what you've shared. Let's focus on keeping you safe right now and getting you the support you need.",
	questions: []string{
		"Are you safe right now?",
		"Do you have someone you can call for support?",
		"Have you been having thoughts of hurting yourself?",
	},
}

// categoryPriority orders categories from most to least severe.
var categoryPriority = []Category{SuicidalIdeation, SelfHarm, SevereDepression, PanicAttack}

var recommendedActions = map[Urgency][]string{
	UrgencyImmediate: {
		"Call 911 if in immediate danger",
		"Call 988 Suicide & Crisis Lifeline",
		"Remove access to means of self-harm",
		"Stay with a trusted person",
		"Go to emergency room",
	},
	UrgencyUrgent: {
		"Call 988 Suicide & Crisis Lifeline",
		"Text HOME to 741741 for crisis support",
		"Contact a mental health professional",
		"Reach out to trusted friend or family",
		"Create a safety plan",
	},
	UrgencyMonitor: {
		"Schedule appointment with mental health professional",
		"Increase social support",
		"Monitor mood and thoughts closely",
		"Use coping strategies",
		"Consider therapy or counseling",
	},
}

// Intervene builds the intervention for a report, or nil when nothing was detected.
func Intervene(report Report) *Intervention {
	if !report.Detected {
		return nil
	}

	primary := primaryCategory(report)
	p, ok := protocols[primary]
	if !ok {
		p = defaultProtocol
	}

	urgency := report.HighestUrgency
	if urgency == UrgencyNone {
		urgency = UrgencyMonitor
	}

	out := &Intervention{
		Urgency:            urgency,
		PrimaryCategory:    primary,
		ImmediateResponse:  p.response,
		RecommendedActions: recommendedActions[urgency],
		Resources:          report.Resources,
		FollowUpRequired:   true,
	}
	if urgency == UrgencyImmediate || urgency == UrgencyUrgent {
		out.SafetyQuestions = p.questions
	}
	if report.SafetyPlanningRequired {
		out.SafetyPlanPrompt = SafetyPlanPrompt(report)
	}
	return out
}

func primaryCategory(report Report) Category {
	for _, c := range categoryPriority {
		if report.Has(c) {
			return c
		}
	}
	if len(report.Crises) > 0 {
		return report.Crises[0].Category
	}
	return SevereDepression
}

// SafetyPlanPrompt picks the safety-planning walkthrough for the detected categories.
func SafetyPlanPrompt(report Report) string {
	switch {
	case report.Has(SuicidalIdeation):
		return suicideSafetyPlan
	case report.Has(SelfHarm):
		return selfHarmSafetyPlan
	default:
		return generalSafetyPlan
	}
}

const suicideSafetyPlan = `Let's work together on a safety plan to help keep you safe:

1. Warning signs: what thoughts, feelings or situations usually come before you feel suicidal?
2. Coping strategies: what can you do on your own when these thoughts start?
3. People for support: who are 2-3 people you could reach out to in a crisis?
4. Professional help: which mental health professionals or crisis services can you contact?
5. A safer environment: which means of self-harm should be removed or secured?
6. Emergency contacts: 988 Suicide & Crisis Lifeline (24/7), emergency services 911, Crisis Text Line (text HOME to 741741).

Would you like to start with your warning signs?`

const selfHarmSafetyPlan = `Let's make a plan for coping with urges to self-harm in safer ways:

1. Triggers: which situations or feelings usually lead to the urge?
2. Alternative coping: ice cubes on skin, drawing red lines instead of cutting, intense exercise, calling someone.
3. Support network: who can you reach out to when the urge comes?
4. Professional help: a mental health professional who understands self-harm.
5. Emergency resources: Crisis Text Line (text HOME to 741741), Self-Injury Outreach & Support.

Which area would you like to start with?`

const generalSafetyPlan = `Let's put together a plan for getting through difficult times:

1. Early warning signs: what tells you that you're starting to struggle?
2. Coping strategies: what helps you feel better when things are hard?
3. Support people: who can you talk to when you need support?
4. Professional resources: mental health professionals you can contact.
5. Crisis resources: emergency contacts for serious situations.

What area feels most important to you right now?`
