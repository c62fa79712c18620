package ai

import (
	"context"
	"strings"

	"github.com/zhouzirui/mindful-mate/backend/internal/model/chat"
	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
	"github.com/zhouzirui/mindful-mate/backend/internal/observability"
)

const (
	defaultCheckIn        = "4hours"
	defaultFollowUp       = "What would be most helpful for you right now?"
	fallbackResponseOther = "I'm here to listen and support you. It sounds like you're going through something difficult. Can you tell me more about what's bothering you right now? Sometimes talking it through can help."
)

// Reply is a therapeutic response plus the metadata derived from it.
type Reply struct {
	Response                string            `json:"response"`
	SuggestedTechnique      emotion.Technique `json:"suggested_technique"`
	FollowUpQuestion        string            `json:"follow_up_question,omitempty"`
	CheckInTime             string            `json:"check_in_time"`
	ProfessionalHelpNeeded  bool              `json:"professional_help_needed"`
	CrisisResourcesProvided bool              `json:"crisis_resources_provided"`
	Fallback                bool              `json:"fallback"`
}

var fallbackResponses = map[emotion.State]string{
	emotion.Anxious:   "I can hear that you're feeling anxious. That must be really difficult. Let's try a quick breathing exercise: breathe in for 4 counts, hold for 4, then breathe out for 4. Would you like to try this together?",
	emotion.Depressed: "Thank you for sharing with me. It sounds like you're going through a tough time. When we're feeling low, small activities can help. Is there one small thing you used to enjoy that we could think about?",
	emotion.Stressed:  "It sounds like you're under a lot of pressure right now. Let's try a grounding technique: can you name 5 things you can see around you? This can help bring you back to the present moment.",
	emotion.Angry:     "I can sense your frustration, and those feelings are valid. When we're angry it can help to take some deep breaths or move our body. What usually helps you when you're feeling this way?",
}

// GenerateResponse produces a reply for the user. It never fails; any model error yields the canned fallback.
func (s *Service) GenerateResponse(ctx context.Context, userInput string, a emotion.Analysis, history []chat.Interaction) Reply {
	profile := ProfileTherapeutic
	if a.RiskLevel >= emotion.RiskCrisis {
		profile = ProfileCrisis
	}

	text, err := s.Generate(ctx, profile, buildTherapeuticPrompt(a), buildHistoryMessages(history), userInput)
	if err != nil {
		observability.FromContext(ctx, "ai").WithError(err).Warn("therapeutic generation failed, use fallback")
		return FallbackReply(a)
	}

	observability.FromContext(ctx, "ai").
		WithField("profile", string(profile)).
		WithField("length", len(text)).
		Debug("generated therapeutic response")
	return parseReply(text)
}

// parseReply derives technique and escalation hints from free text.
func parseReply(text string) Reply {
	lower := strings.ToLower(text)

	technique := emotion.Validation
	switch {
	case strings.Contains(lower, "breath"):
		technique = emotion.BreathingExercise
	case strings.Contains(lower, "ground") || strings.Contains(lower, "5 things"):
		technique = emotion.GroundingTechnique
	case strings.Contains(lower, "activity") || strings.Contains(lower, "do something"):
		technique = emotion.BehavioralActivation
	case strings.Contains(lower, "crisis") || strings.Contains(lower, "help"):
		technique = emotion.CrisisIntervention
	}

	professional := false
	for _, word := range []string{"crisis", "professional", "therapist", "emergency"} {
		if strings.Contains(lower, word) {
			professional = true
			break
		}
	}

	return Reply{
		Response:               text,
		SuggestedTechnique:     technique,
		CheckInTime:            defaultCheckIn,
		ProfessionalHelpNeeded: professional,
	}
}

// FallbackReply returns the canned response for the analysed emotion.
func FallbackReply(a emotion.Analysis) Reply {
	response, ok := fallbackResponses[a.PrimaryEmotion]
	technique := emotion.DefaultTechnique(a.PrimaryEmotion)
	if !ok {
		response = fallbackResponseOther
		technique = emotion.Validation
	}

	return Reply{
		Response:               response,
		SuggestedTechnique:     technique,
		FollowUpQuestion:       defaultFollowUp,
		CheckInTime:            defaultCheckIn,
		ProfessionalHelpNeeded: a.RiskLevel >= emotion.RiskHigh,
		Fallback:               true,
	}
}
