package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/zhouzirui/mindful-mate/backend/internal/analysis/crisis"
	"github.com/zhouzirui/mindful-mate/backend/internal/model/chat"
	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
	"github.com/zhouzirui/mindful-mate/backend/internal/service/ai"
	"github.com/zhouzirui/mindful-mate/backend/internal/service/conversation"
	emotionsvc "github.com/zhouzirui/mindful-mate/backend/internal/service/emotion"
)

type recordingResponder struct {
	mu        sync.Mutex
	histories [][]chat.Interaction
	analyses  []emotion.Analysis
	fallback  bool
}

func (r *recordingResponder) GenerateResponse(_ context.Context, userInput string, a emotion.Analysis, history []chat.Interaction) ai.Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histories = append(r.histories, history)
	r.analyses = append(r.analyses, a)
	if r.fallback {
		return ai.FallbackReply(a)
	}
	return ai.Reply{Response: "echo: " + userInput, SuggestedTechnique: emotion.Validation, CheckInTime: "4hours"}
}

func newTestService() (*Service, *conversation.Manager, *recordingResponder) {
	sessions := conversation.NewManager(conversation.Config{MaxHistory: 10})
	responder := &recordingResponder{}
	svc := NewService(sessions, emotionsvc.NewService(nil), responder, nil)
	return svc, sessions, responder
}

func TestChatValidation(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Chat(context.Background(), Request{UserID: "u1", Message: "   \n\t "}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := svc.Chat(context.Background(), Request{Message: "hello"}); !errors.Is(err, ErrUserRequired) {
		t.Fatalf("expected ErrUserRequired, got %v", err)
	}
}

func TestChatRecordsInteractionAndPassesHistory(t *testing.T) {
	svc, sessions, responder := newTestService()
	ctx := context.Background()

	first, err := svc.Chat(ctx, Request{UserID: "u1", Message: "I feel   so sad today"})
	if err != nil {
		t.Fatalf("Chat err: %v", err)
	}
	if first.SessionID == "" {
		t.Fatal("expected generated session id")
	}
	if first.EmotionDetected != emotion.Depressed {
		t.Fatalf("expected depressed, got %s", first.EmotionDetected)
	}

	if _, err := svc.Chat(ctx, Request{UserID: "u1", SessionID: first.SessionID, Message: "still here"}); err != nil {
		t.Fatalf("Chat err: %v", err)
	}

	if len(responder.histories) != 2 || len(responder.histories[1]) != 1 {
		t.Fatalf("expected second turn to see one prior interaction, got %+v", responder.histories)
	}
	if got := responder.histories[1][0].User; got != "I feel so sad today" {
		t.Fatalf("expected sanitised message in history, got %q", got)
	}

	session, ok := sessions.Lookup("u1", first.SessionID)
	if !ok {
		t.Fatal("expected session to exist")
	}
	snap := session.Snapshot()
	if len(snap.History) != 2 || snap.History[0].Assistant != "echo: I feel so sad today" {
		t.Fatalf("unexpected history %+v", snap.History)
	}
}

func TestChatCrisisMessage(t *testing.T) {
	svc, sessions, _ := newTestService()

	resp, err := svc.Chat(context.Background(), Request{UserID: "u1", SessionID: "s1", Message: "I want to die and end it all"})
	if err != nil {
		t.Fatalf("Chat err: %v", err)
	}
	if resp.RiskLevel != emotion.RiskCrisis || resp.SuggestedTechnique != emotion.CrisisIntervention {
		t.Fatalf("expected crisis handling, got %s/%s", resp.RiskLevel, resp.SuggestedTechnique)
	}
	if resp.Crisis == nil || resp.Crisis.Urgency != crisis.UrgencyImmediate {
		t.Fatalf("expected immediate intervention, got %+v", resp.Crisis)
	}
	if !resp.ProfessionalHelpSuggested {
		t.Fatal("expected professional help suggestion")
	}

	session, _ := sessions.Lookup("u1", "s1")
	if !session.HasFlag("crisis:" + string(crisis.SuicidalIdeation)) {
		t.Fatalf("expected crisis category flag, got %v", session.Snapshot().RiskFlags)
	}
}

func TestChatUrgentCrisisRaisesRisk(t *testing.T) {
	svc, _, responder := newTestService()

	resp, err := svc.Chat(context.Background(), Request{UserID: "u1", Message: "I'm having a panic attack and can't breathe"})
	if err != nil {
		t.Fatalf("Chat err: %v", err)
	}
	if resp.RiskLevel != emotion.RiskHigh {
		t.Fatalf("expected high risk, got %s", resp.RiskLevel)
	}
	if resp.SuggestedTechnique != emotion.SafetyPlanning {
		t.Fatalf("expected safety_planning, got %s", resp.SuggestedTechnique)
	}
	if responder.analyses[0].RiskLevel != emotion.RiskHigh {
		t.Fatal("responder should see the enriched analysis")
	}
}

func TestChatFallbackReplyIsRecorded(t *testing.T) {
	svc, sessions, responder := newTestService()
	responder.fallback = true

	resp, err := svc.Chat(context.Background(), Request{UserID: "u1", SessionID: "s1", Message: "I'm worried and nervous"})
	if err != nil {
		t.Fatalf("Chat err: %v", err)
	}
	if !resp.Fallback || resp.FollowUpQuestion == "" {
		t.Fatalf("expected fallback reply, got %+v", resp)
	}
	session, _ := sessions.Lookup("u1", "s1")
	if got := session.Snapshot().History[0].Assistant; got != resp.Response {
		t.Fatalf("expected fallback text recorded, got %q", got)
	}
}

func TestChatWithVoiceFeatures(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.Chat(context.Background(), Request{
		UserID:  "u1",
		Message: "I feel sad and empty",
		VoiceFeatures: emotion.VoiceFeatures{
			emotion.FeaturePitchMean:     110,
			emotion.FeaturePitchVariance: 15,
			emotion.FeatureSpeechRate:    90,
			emotion.FeatureEnergy:        0.1,
		},
	})
	if err != nil {
		t.Fatalf("Chat err: %v", err)
	}
	if resp.EmotionDetected != emotion.Depressed {
		t.Fatalf("expected depressed, got %s", resp.EmotionDetected)
	}
	if resp.Confidence <= 0 || resp.Confidence > 1 {
		t.Fatalf("confidence out of range: %f", resp.Confidence)
	}
}

func TestAnalyzeVoiceRequiresFeatures(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AnalyzeVoice(emotion.VoiceFeatures{emotion.FeaturePitchMean: 150})
	if !errors.Is(err, emotion.ErrMissingFeature) {
		t.Fatalf("expected ErrMissingFeature, got %v", err)
	}
	a, err := svc.AnalyzeVoice(emotion.VoiceFeatures{emotion.FeaturePitchMean: 150, emotion.FeatureEnergy: 0.5})
	if err != nil {
		t.Fatalf("AnalyzeVoice err: %v", err)
	}
	if a.PrimaryEmotion != emotion.Calm {
		t.Fatalf("expected calm, got %s", a.PrimaryEmotion)
	}
}

func TestAnalyzeMultimodalWithoutVoice(t *testing.T) {
	svc, _, _ := newTestService()

	a, err := svc.AnalyzeMultimodal(context.Background(), "what a wonderful and great day", nil)
	if err != nil {
		t.Fatalf("AnalyzeMultimodal err: %v", err)
	}
	if a.PrimaryEmotion != emotion.Happy {
		t.Fatalf("expected happy, got %s", a.PrimaryEmotion)
	}
	if _, err := svc.AnalyzeMultimodal(context.Background(), "", nil); !errors.Is(err, emotionsvc.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Session("u1", "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	resp, err := svc.Chat(ctx, Request{UserID: "u1", Message: "hello there"})
	if err != nil {
		t.Fatalf("Chat err: %v", err)
	}
	info, err := svc.Session("u1", resp.SessionID)
	if err != nil {
		t.Fatalf("Session err: %v", err)
	}
	if info.Summary.TotalInteractions != 1 {
		t.Fatalf("expected 1 interaction, got %d", info.Summary.TotalInteractions)
	}

	if err := svc.EndSession("u1", resp.SessionID); err != nil {
		t.Fatalf("EndSession err: %v", err)
	}
	if err := svc.EndSession("u1", resp.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize("  hello \n\t world  "); got != "hello world" {
		t.Fatalf("unexpected sanitised text %q", got)
	}
	long := Sanitize(strings.Repeat("a", MaxMessageLength+50))
	if len(long) != MaxMessageLength || !strings.HasSuffix(long, "...") {
		t.Fatalf("expected truncated text, got length %d", len(long))
	}
	if exact := strings.Repeat("b", MaxMessageLength); Sanitize(exact) != exact {
		t.Fatal("expected text at the cap to pass unchanged")
	}
	wide := Sanitize(strings.Repeat("心", MaxMessageLength+1))
	if n := utf8.RuneCountInString(wide); n != MaxMessageLength {
		t.Fatalf("expected %d runes, got %d", MaxMessageLength, n)
	}
}

func TestEnrichOnlyRaisesRisk(t *testing.T) {
	report := crisis.Report{Detected: true, HighestUrgency: crisis.UrgencyMonitor}
	high := emotion.Analysis{PrimaryEmotion: emotion.Depressed, RiskLevel: emotion.RiskHigh, SuggestedTechnique: emotion.SafetyPlanning}
	if got := enrich(high, report); got.RiskLevel != emotion.RiskHigh {
		t.Fatalf("enrich lowered risk to %s", got.RiskLevel)
	}

	low := emotion.Analysis{PrimaryEmotion: emotion.Depressed, RiskLevel: emotion.RiskLow, SuggestedTechnique: emotion.BehavioralActivation}
	got := enrich(low, report)
	if got.RiskLevel != emotion.RiskMedium || got.SuggestedTechnique != emotion.BehavioralActivation {
		t.Fatalf("unexpected enrichment %+v", got)
	}
}
