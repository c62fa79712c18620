package crisis

// Resources lists the help channels suited to a report.
type Resources struct {
	ImmediateHelp         map[string]string `json:"immediate_help,omitempty"`
	ProfessionalResources []string          `json:"professional_resources"`
	SelfHelpTechniques    []string          `json:"self_help_techniques"`
}

const (
	Lifeline      = "988"
	Emergency     = "911"
	CrisisTextMsg = "Text HOME to 741741"
)

// Hotlines is the static directory served by the crisis resources endpoint.
var Hotlines = map[string]string{
	"suicide_crisis_lifeline": Lifeline,
	"emergency_services":      Emergency,
	"crisis_text_line":        CrisisTextMsg,
}

func resourcesFor(crises []Detection) *Resources {
	res := &Resources{
		ProfessionalResources: []string{},
		SelfHelpTechniques:    []string{},
	}

	anyImmediate, anyUrgent, needsProfessional := false, false, false
	for _, c := range crises {
		switch c.Urgency {
		case UrgencyImmediate:
			anyImmediate = true
		case UrgencyUrgent:
			anyUrgent = true
		}
		if c.Category == SuicidalIdeation || c.Category == SelfHarm {
			needsProfessional = true
		}
	}

	switch {
	case anyImmediate:
		res.ImmediateHelp = map[string]string{
			"suicide_crisis_lifeline": Lifeline,
			"emergency_services":      Emergency,
			"crisis_text_line":        CrisisTextMsg,
		}
	case anyUrgent:
		res.ImmediateHelp = map[string]string{
			"suicide_crisis_lifeline": Lifeline,
			"crisis_text_line":        CrisisTextMsg,
		}
	}

	if needsProfessional {
		res.ProfessionalResources = append(res.ProfessionalResources,
			"Emergency room evaluation",
			"Mental health crisis center",
			"Psychiatrist or therapist",
		)
	}
	if !anyImmediate {
		res.SelfHelpTechniques = append(res.SelfHelpTechniques,
			"Safety planning",
			"Grounding techniques",
			"Crisis coping skills",
		)
	}
	return res
}
