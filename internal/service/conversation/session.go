package conversation

import (
	"sync"
	"time"

	"github.com/zhouzirui/mindful-mate/backend/internal/model/chat"
	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
)

// Session-scoped risk flags. They are recomputed from the current window on every interaction.
const (
	sessionFlagPrefix = "session_"

	FlagCrisisDetected         = "session_crisis_detected"
	FlagPersistentNegativeMood = "session_persistent_negative_mood"
	FlagEscalatingRisk         = "session_escalating_risk"
)

// Session is the conversation context for one (user, session) pair.
type Session struct {
	UserID    string
	SessionID string

	// turn serialises whole pipeline turns for this key.
	turn sync.Mutex

	mu    sync.RWMutex
	state sessionState
}

type sessionState struct {
	history         []chat.Interaction
	emotions        []emotion.Analysis
	riskFlags       []string
	goals           []string
	sessionStart    time.Time
	lastInteraction time.Time
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	UserID          string             `json:"user_id"`
	SessionID       string             `json:"session_id"`
	History         []chat.Interaction `json:"conversation_history"`
	Emotions        []emotion.Analysis `json:"emotion_history"`
	RiskFlags       []string           `json:"risk_flags"`
	Goals           []string           `json:"therapeutic_goals"`
	SessionStart    time.Time          `json:"session_start"`
	LastInteraction time.Time          `json:"last_interaction"`
}

func newSession(userID, sessionID string, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		SessionID: sessionID,
		state: sessionState{
			riskFlags:       []string{},
			goals:           []string{},
			sessionStart:    now,
			lastInteraction: now,
		},
	}
}

// BeginTurn blocks until no other turn runs on this session and returns the release func.
func (s *Session) BeginTurn() func() {
	s.turn.Lock()
	return s.turn.Unlock
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	emotions := make([]emotion.Analysis, len(s.state.emotions))
	for i, a := range s.state.emotions {
		emotions[i] = a.Clone()
	}
	return Snapshot{
		UserID:          s.UserID,
		SessionID:       s.SessionID,
		History:         append([]chat.Interaction(nil), s.state.history...),
		Emotions:        emotions,
		RiskFlags:       append([]string{}, s.state.riskFlags...),
		Goals:           append([]string{}, s.state.goals...),
		SessionStart:    s.state.sessionStart,
		LastInteraction: s.state.lastInteraction,
	}
}

// HasFlag reports whether flag is currently set.
func (s *Session) HasFlag(flag string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containsString(s.state.riskFlags, flag)
}

func (s *Session) lastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.lastInteraction
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
