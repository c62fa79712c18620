package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zhouzirui/mindful-mate/backend/internal/analysis/crisis"
	"github.com/zhouzirui/mindful-mate/backend/internal/analysis/fusion"
	"github.com/zhouzirui/mindful-mate/backend/internal/analysis/voice"
	"github.com/zhouzirui/mindful-mate/backend/internal/model/chat"
	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
	"github.com/zhouzirui/mindful-mate/backend/internal/observability"
	"github.com/zhouzirui/mindful-mate/backend/internal/service/ai"
	"github.com/zhouzirui/mindful-mate/backend/internal/service/conversation"
)

var (
	ErrEmptyMessage    = errors.New("message is required")
	ErrUserRequired    = errors.New("user id is required")
	ErrSessionNotFound = errors.New("session not found")
)

// MaxMessageLength caps sanitised user input, in runes.
const MaxMessageLength = 1000

const crisisFlagPrefix = "crisis:"

// TextAnalyzer classifies a user message.
type TextAnalyzer interface {
	Analyze(ctx context.Context, text string, summary *chat.Summary) (emotion.Analysis, error)
}

// Responder writes the therapeutic reply. Implementations never fail.
type Responder interface {
	GenerateResponse(ctx context.Context, userInput string, a emotion.Analysis, history []chat.Interaction) ai.Reply
}

// Request is one chat turn.
type Request struct {
	UserID        string                `json:"user_id"`
	SessionID     string                `json:"session_id,omitempty"`
	Message       string                `json:"message"`
	VoiceFeatures emotion.VoiceFeatures `json:"voice_features,omitempty"`
}

// Response is what the caller sees after a turn.
type Response struct {
	Response                  string               `json:"response"`
	SessionID                 string               `json:"session_id"`
	EmotionDetected           emotion.State        `json:"emotion_detected"`
	Confidence                float64              `json:"confidence"`
	RiskLevel                 emotion.RiskLevel    `json:"risk_level"`
	SuggestedTechnique        emotion.Technique    `json:"suggested_technique"`
	FollowUpQuestion          string               `json:"follow_up_question,omitempty"`
	ProfessionalHelpSuggested bool                 `json:"professional_help_suggested"`
	Crisis                    *crisis.Intervention `json:"crisis_intervention,omitempty"`
	Fallback                  bool                 `json:"fallback"`
	Timestamp                 time.Time            `json:"timestamp"`
}

// SessionInfo describes a live session.
type SessionInfo struct {
	SessionID       string       `json:"session_id"`
	UserID          string       `json:"user_id"`
	SessionStart    time.Time    `json:"session_start"`
	LastInteraction time.Time    `json:"last_interaction"`
	Summary         chat.Summary `json:"summary"`
}

// Service runs the analyze, respond, record pipeline for each turn.
type Service struct {
	sessions  conversation.Store
	text      TextAnalyzer
	responder Responder
	crisis    *crisis.Detector
	now       func() time.Time
}

// NewService wires the pipeline; a nil detector uses the default threshold.
func NewService(sessions conversation.Store, text TextAnalyzer, responder Responder, detector *crisis.Detector) *Service {
	if detector == nil {
		detector = crisis.NewDetector(crisis.DefaultThreshold)
	}
	return &Service{
		sessions:  sessions,
		text:      text,
		responder: responder,
		crisis:    detector,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

const truncationSuffix = "..."

// Sanitize collapses whitespace and caps the length, suffix included.
func Sanitize(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > MaxMessageLength {
		runes := []rune(text)
		text = string(runes[:MaxMessageLength-len(truncationSuffix)]) + truncationSuffix
	}
	return text
}

// Chat processes one user turn. Turns on the same session are serialised.
func (s *Service) Chat(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrUserRequired
	}
	message := Sanitize(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	session := s.sessions.GetOrCreate(req.UserID, req.SessionID)
	release := session.BeginTurn()
	defer release()

	log := observability.FromContext(ctx, "chat").WithField("session_id", session.SessionID)

	summary := s.sessions.Summary(session)
	final, err := s.analyze(ctx, message, &summary, req.VoiceFeatures)
	if err != nil {
		return nil, err
	}

	report := s.crisis.Detect(message, &final)
	final = enrich(final, report)
	intervention := crisis.Intervene(report)

	reply := s.responder.GenerateResponse(ctx, message, final, session.Snapshot().History)
	if reply.Fallback {
		log.Warn("responding with fallback reply")
	}

	s.sessions.AddInteraction(session, message, reply.Response, final)
	for _, c := range report.Crises {
		s.sessions.MarkFlag(session, crisisFlagPrefix+string(c.Category))
	}
	professional := s.sessions.ShouldSuggestProfessionalHelp(session)

	if report.Detected {
		log.WithField("urgency", string(report.HighestUrgency)).
			WithField("crises", len(report.Crises)).
			Warn("crisis signals detected")
	}
	log.WithField("emotion", string(final.PrimaryEmotion)).
		WithField("risk", final.RiskLevel.String()).
		Info("chat turn completed")

	return &Response{
		Response:                  reply.Response,
		SessionID:                 session.SessionID,
		EmotionDetected:           final.PrimaryEmotion,
		Confidence:                final.Confidence,
		RiskLevel:                 final.RiskLevel,
		SuggestedTechnique:        final.SuggestedTechnique,
		FollowUpQuestion:          reply.FollowUpQuestion,
		ProfessionalHelpSuggested: professional,
		Crisis:                    intervention,
		Fallback:                  reply.Fallback,
		Timestamp:                 s.now(),
	}, nil
}

// AnalyzeText runs the text analyzer alone.
func (s *Service) AnalyzeText(ctx context.Context, text string, summary *chat.Summary) (emotion.Analysis, error) {
	return s.text.Analyze(ctx, Sanitize(text), summary)
}

// AnalyzeVoice scores boundary-supplied features after validating them.
func (s *Service) AnalyzeVoice(features emotion.VoiceFeatures) (emotion.Analysis, error) {
	if err := features.Validate(); err != nil {
		return emotion.Analysis{}, err
	}
	return voice.Score(features), nil
}

// AnalyzeMultimodal fuses text with optional voice features.
func (s *Service) AnalyzeMultimodal(ctx context.Context, text string, features emotion.VoiceFeatures) (emotion.Analysis, error) {
	if len(features) > 0 {
		if err := features.Validate(); err != nil {
			return emotion.Analysis{}, err
		}
	}
	return s.analyze(ctx, Sanitize(text), nil, features)
}

func (s *Service) analyze(ctx context.Context, text string, summary *chat.Summary, features emotion.VoiceFeatures) (emotion.Analysis, error) {
	textAnalysis, err := s.text.Analyze(ctx, text, summary)
	if err != nil {
		return emotion.Analysis{}, err
	}

	var voiceAnalysis *emotion.Analysis
	if len(features) > 0 {
		v := voice.Score(features)
		voiceAnalysis = &v
	}
	return fusion.Fuse(voiceAnalysis, textAnalysis), nil
}

// enrich raises the fused risk to the floor implied by the detected urgency.
func enrich(a emotion.Analysis, report crisis.Report) emotion.Analysis {
	if !report.Detected {
		return a
	}
	raised := a.RiskLevel.AtLeast(report.HighestUrgency.RiskFloor())
	if raised == a.RiskLevel {
		return a
	}
	out := a.Clone()
	out.RiskLevel = raised
	out.SuggestedTechnique = emotion.SelectTechnique(out.PrimaryEmotion, raised)
	return out
}

// Session returns details for a live session.
func (s *Service) Session(userID, sessionID string) (*SessionInfo, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserRequired
	}
	session, ok := s.sessions.Lookup(userID, sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	snap := session.Snapshot()
	return &SessionInfo{
		SessionID:       snap.SessionID,
		UserID:          snap.UserID,
		SessionStart:    snap.SessionStart,
		LastInteraction: snap.LastInteraction,
		Summary:         s.sessions.Summary(session),
	}, nil
}

// EndSession drops a session.
func (s *Service) EndSession(userID, sessionID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUserRequired
	}
	if !s.sessions.Delete(userID, sessionID) {
		return ErrSessionNotFound
	}
	return nil
}
