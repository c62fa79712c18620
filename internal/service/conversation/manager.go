package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/mindful-mate/backend/internal/model/chat"
	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
	"github.com/zhouzirui/mindful-mate/backend/internal/observability"
)

const (
	DefaultMaxHistory = 20
	DefaultTimeout    = time.Hour

	maxGoals           = 3
	maxThemes          = 3
	summaryWindow      = 5
	negativeMoodWindow = 5
	negativeMoodMin    = 4
	escalationWindow   = 3

	longSessionDuration     = 2 * time.Hour
	longSessionInteractions = 15
)

var goalByEmotion = map[emotion.State]string{
	emotion.Anxious:   "anxiety_management",
	emotion.Depressed: "mood_improvement",
	emotion.Stressed:  "stress_reduction",
	emotion.Angry:     "anger_management",
}

type theme struct {
	name     string
	keywords []string
}

var themes = []theme{
	{"work_stress", []string{"work", "job", "boss", "deadline", "pressure"}},
	{"relationships", []string{"partner", "friend", "family", "relationship", "lonely"}},
	{"health_concerns", []string{"sick", "health", "pain", "tired", "sleep"}},
	{"financial_stress", []string{"money", "bills", "debt", "financial", "afford"}},
	{"academic_stress", []string{"school", "exam", "grade", "study", "homework"}},
}

// Store is the session capability the chat pipeline depends on.
type Store interface {
	GetOrCreate(userID, sessionID string) *Session
	Lookup(userID, sessionID string) (*Session, bool)
	AddInteraction(s *Session, userText, assistantText string, a emotion.Analysis) Snapshot
	MarkFlag(s *Session, flag string)
	ShouldSuggestProfessionalHelp(s *Session) bool
	Summary(s *Session) chat.Summary
	Delete(userID, sessionID string) bool
	CleanupExpired() int
}

// Config 会话管理参数。
type Config struct {
	MaxHistory int
	Timeout    time.Duration
}

// Manager keeps conversation sessions in memory.
type Manager struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	maxHistory int
	timeout    time.Duration

	now   func() time.Time
	newID func() string
}

// NewManager bootstraps the in-memory session store.
func NewManager(cfg Config) *Manager {
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{
		sessions:   make(map[string]*Session),
		maxHistory: maxHistory,
		timeout:    timeout,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

func sessionKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}

// GetOrCreate returns the live session for the key. An expired one is replaced, never resumed.
func (m *Manager) GetOrCreate(userID, sessionID string) *Session {
	if sessionID == "" {
		sessionID = m.newID()
	}
	key := sessionKey(userID, sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if existing, ok := m.sessions[key]; ok {
		if now.Sub(existing.lastActive()) <= m.timeout {
			return existing
		}
		observability.Component("conversation").
			WithField("session_id", sessionID).
			Info("session expired, starting fresh")
	}

	s := newSession(userID, sessionID, now)
	m.sessions[key] = s
	return s
}

// Lookup returns a live session without creating one.
func (m *Manager) Lookup(userID, sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionKey(userID, sessionID)]
	if !ok || m.now().Sub(s.lastActive()) > m.timeout {
		return nil, false
	}
	return s, true
}

// Delete removes a session; it reports whether one existed.
func (m *Manager) Delete(userID, sessionID string) bool {
	key := sessionKey(userID, sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[key]; !ok {
		return false
	}
	delete(m.sessions, key)
	return true
}

// Len returns the number of tracked sessions, expired ones included.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// AddInteraction records one exchange. The new state is built first and committed in one step.
func (m *Manager) AddInteraction(s *Session, userText, assistantText string, a emotion.Analysis) Snapshot {
	now := m.now()
	a = a.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(append([]chat.Interaction(nil), s.state.history...), chat.Interaction{
		Timestamp:  now,
		User:       userText,
		Assistant:  assistantText,
		Emotion:    a.PrimaryEmotion,
		RiskLevel:  a.RiskLevel,
		Confidence: a.Confidence,
	})
	emotions := append(append([]emotion.Analysis(nil), s.state.emotions...), a)
	if over := len(history) - m.maxHistory; over > 0 {
		history = history[over:]
		emotions = emotions[over:]
	}

	next := sessionState{
		history:         history,
		emotions:        emotions,
		riskFlags:       recomputeFlags(s.state.riskFlags, emotions, a),
		goals:           updateGoals(s.state.goals, a.PrimaryEmotion),
		sessionStart:    s.state.sessionStart,
		lastInteraction: now,
	}
	s.state = next
	return s.snapshotLocked()
}

// MarkFlag sets a non-session flag that survives recomputation.
func (m *Manager) MarkFlag(s *Session, flag string) {
	if flag == "" || strings.HasPrefix(flag, sessionFlagPrefix) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !containsString(s.state.riskFlags, flag) {
		s.state.riskFlags = append(append([]string{}, s.state.riskFlags...), flag)
	}
}

func recomputeFlags(previous []string, emotions []emotion.Analysis, current emotion.Analysis) []string {
	flags := make([]string, 0, len(previous)+3)
	for _, f := range previous {
		if !strings.HasPrefix(f, sessionFlagPrefix) {
			flags = append(flags, f)
		}
	}

	if current.RiskLevel == emotion.RiskCrisis {
		flags = append(flags, FlagCrisisDetected)
	}

	recent := tail(emotions, negativeMoodWindow)
	negative := 0
	for _, a := range recent {
		if a.PrimaryEmotion.Negative() {
			negative++
		}
	}
	if negative >= negativeMoodMin {
		flags = append(flags, FlagPersistentNegativeMood)
	}

	if len(emotions) >= escalationWindow {
		window := tail(emotions, escalationWindow)
		escalating := true
		for i := 0; i+1 < len(window); i++ {
			if window[i].RiskLevel > window[i+1].RiskLevel {
				escalating = false
				break
			}
		}
		if escalating {
			flags = append(flags, FlagEscalatingRisk)
		}
	}
	return flags
}

func updateGoals(previous []string, state emotion.State) []string {
	goals := append([]string{}, previous...)
	if goal, ok := goalByEmotion[state]; ok && !containsString(goals, goal) {
		goals = append(goals, goal)
	}
	if len(goals) > maxGoals {
		goals = goals[len(goals)-maxGoals:]
	}
	return goals
}

// ShouldSuggestProfessionalHelp applies the escalation rules to the session state.
func (m *Manager) ShouldSuggestProfessionalHelp(s *Session) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flags := s.state.riskFlags
	if containsString(flags, FlagCrisisDetected) {
		return true
	}
	if containsString(flags, FlagPersistentNegativeMood) && containsString(flags, FlagEscalatingRisk) {
		return true
	}
	return m.now().Sub(s.state.sessionStart) > longSessionDuration && len(s.state.history) > longSessionInteractions
}

// Summary 生成会话摘要。
func (m *Manager) Summary(s *Session) chat.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := chat.Summary{
		SessionLengthMinutes: int(m.now().Sub(s.state.sessionStart).Minutes()),
		TotalInteractions:    len(s.state.history),
		RecentEmotions:       []emotion.State{},
		CurrentRiskLevel:     emotion.RiskLow,
		ActiveRiskFlags:      append([]string{}, s.state.riskFlags...),
		TherapeuticGoals:     append([]string{}, s.state.goals...),
		KeyThemes:            []string{},
	}
	if len(s.state.history) == 0 {
		return summary
	}

	for _, a := range tail(s.state.emotions, summaryWindow) {
		summary.RecentEmotions = append(summary.RecentEmotions, a.PrimaryEmotion)
	}
	summary.CurrentRiskLevel = s.state.emotions[len(s.state.emotions)-1].RiskLevel
	summary.KeyThemes = extractThemes(s.state.history)
	return summary
}

func extractThemes(history []chat.Interaction) []string {
	start := len(history) - summaryWindow
	if start < 0 {
		start = 0
	}
	parts := make([]string, 0, len(history)-start)
	for _, turn := range history[start:] {
		parts = append(parts, turn.User)
	}
	recent := strings.ToLower(strings.Join(parts, " "))

	found := []string{}
	for _, th := range themes {
		for _, k := range th.keywords {
			if strings.Contains(recent, k) {
				found = append(found, th.name)
				break
			}
		}
		if len(found) == maxThemes {
			break
		}
	}
	return found
}

// CleanupExpired removes sessions idle longer than the timeout and returns how many were dropped.
func (m *Manager) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.timeout)
	removed := 0
	for key, s := range m.sessions {
		if s.lastActive().Before(cutoff) {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := observability.Component("conversation")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.CleanupExpired(); n > 0 {
				log.WithField("removed", n).Info("cleaned up expired sessions")
			}
		}
	}
}

func tail(list []emotion.Analysis, n int) []emotion.Analysis {
	if len(list) <= n {
		return list
	}
	return list[len(list)-n:]
}
