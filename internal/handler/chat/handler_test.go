package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/mindful-mate/backend/internal/model/chat"
	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
	"github.com/zhouzirui/mindful-mate/backend/internal/service/ai"
	chatservice "github.com/zhouzirui/mindful-mate/backend/internal/service/chat"
	"github.com/zhouzirui/mindful-mate/backend/internal/service/conversation"
	emotionservice "github.com/zhouzirui/mindful-mate/backend/internal/service/emotion"
)

type echoResponder struct{}

func (echoResponder) GenerateResponse(_ context.Context, userInput string, a emotion.Analysis, _ []chat.Interaction) ai.Reply {
	return ai.Reply{Response: "I hear you: " + userInput, SuggestedTechnique: a.SuggestedTechnique, CheckInTime: "4hours"}
}

func setupRouter() *chi.Mux {
	sessions := conversation.NewManager(conversation.Config{})
	chatSvc := chatservice.NewService(sessions, emotionservice.NewService(nil), echoResponder{}, nil)

	r := chi.NewRouter()
	New(chatSvc).RegisterRoutes(r)
	NewWebSocketHandler(chatSvc).RegisterWebSocketRoutes(r)
	return r
}

func postChat(t *testing.T, r http.Handler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestChatEndpoint(t *testing.T) {
	r := setupRouter()
	resp := postChat(t, r, map[string]any{"user_id": "u1", "message": "I'm so worried about tomorrow"})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body chatservice.Response
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.SessionID == "" || body.EmotionDetected != emotion.Anxious {
		t.Fatalf("unexpected response %+v", body)
	}
	if !strings.Contains(resp.Body.String(), `"risk_level":"low"`) {
		t.Fatalf("expected lowercase risk label in %s", resp.Body.String())
	}
}

func TestChatEndpointValidation(t *testing.T) {
	r := setupRouter()

	if resp := postChat(t, r, map[string]any{"user_id": "u1", "message": ""}); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty message, got %d", resp.Code)
	}
	if resp := postChat(t, r, map[string]any{"message": "hi"}); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing user, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", resp.Code)
	}
}

func TestSessionEndpoints(t *testing.T) {
	r := setupRouter()
	postChat(t, r, map[string]any{"user_id": "u1", "session_id": "s1", "message": "hello"})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/session/s1?user_id=u1", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var info chatservice.SessionInfo
	if err := json.Unmarshal(resp.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Summary.TotalInteractions != 1 {
		t.Fatalf("expected one interaction, got %+v", info.Summary)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/session/s1?user_id=u1", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/session/s1?user_id=u1", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", resp.Code)
	}
}

func TestStreamEndpoint(t *testing.T) {
	r := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stream/s1?user_id=u1&message=feeling+great", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, event := range []string{"event: status", "event: response", "event: done"} {
		if !strings.Contains(body, event) {
			t.Fatalf("expected %q in stream:\n%s", event, body)
		}
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stream/s1?user_id=u1", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without message, got %d", resp.Code)
	}
}

func TestWebSocketChat(t *testing.T) {
	srv := httptest.NewServer(setupRouter())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/s1?user_id=u1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello outgoingMessage
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != "connected" {
		t.Fatalf("expected connected frame, got %+v (%v)", hello, err)
	}

	frame := map[string]any{"type": "chat", "data": map[string]any{"message": "I feel sad"}}
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	var result struct {
		Type      string               `json:"type"`
		SessionID string               `json:"session_id"`
		Data      chatservice.Response `json:"data"`
	}
	if err := conn.ReadJSON(&result); err != nil {
		t.Fatalf("read: %v", err)
	}
	if result.Type != "result" || result.Data.EmotionDetected != emotion.Depressed || result.SessionID != "s1" {
		t.Fatalf("unexpected result %+v", result)
	}

	if err := conn.WriteJSON(map[string]any{"type": "chat", "data": map[string]any{"message": "  "}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var errFrame outgoingMessage
	if err := conn.ReadJSON(&errFrame); err != nil || errFrame.Type != "error" {
		t.Fatalf("expected error frame, got %+v (%v)", errFrame, err)
	}
}

func TestWebSocketRequiresUser(t *testing.T) {
	r := setupRouter()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/ws/s1", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

type slowResponder struct {
	delay time.Duration
}

func (s slowResponder) GenerateResponse(ctx context.Context, _ string, a emotion.Analysis, _ []chat.Interaction) ai.Reply {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
	}
	return ai.Reply{Response: "thanks for waiting", SuggestedTechnique: a.SuggestedTechnique}
}

func TestWebSocketSurvivesTurnLongerThanReadTimeout(t *testing.T) {
	sessions := conversation.NewManager(conversation.Config{})
	chatSvc := chatservice.NewService(sessions, emotionservice.NewService(nil), slowResponder{delay: 600 * time.Millisecond}, nil)

	ws := NewWebSocketHandler(chatSvc)
	ws.readTimeout = 200 * time.Millisecond
	ws.pingInterval = 50 * time.Millisecond
	r := chi.NewRouter()
	ws.RegisterWebSocketRoutes(r)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/s1?user_id=u1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello outgoingMessage
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != "connected" {
		t.Fatalf("expected connected frame, got %+v (%v)", hello, err)
	}

	if err := conn.WriteJSON(map[string]any{"type": "chat", "data": map[string]any{"message": "I feel sad"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var result outgoingMessage
	if err := conn.ReadJSON(&result); err != nil || result.Type != "result" {
		t.Fatalf("expected result frame, got %+v (%v)", result, err)
	}

	if err := conn.WriteJSON(map[string]any{"type": "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var pong outgoingMessage
	if err := conn.ReadJSON(&pong); err != nil || pong.Type != "pong" {
		t.Fatalf("expected pong after slow turn, got %+v (%v)", pong, err)
	}
}
