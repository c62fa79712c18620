package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
	"github.com/zhouzirui/mindful-mate/backend/internal/observability"
	chatService "github.com/zhouzirui/mindful-mate/backend/internal/service/chat"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 54 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsTurnQueue    = 4
)

// WebSocketHandler 实时聊天通道
type WebSocketHandler struct {
	chatSvc      *chatService.Service
	upgrader     websocket.Upgrader
	readTimeout  time.Duration
	pingInterval time.Duration
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(chatSvc *chatService.Service) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		readTimeout:  wsReadTimeout,
		pingInterval: wsPingInterval,
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ChatMessage is the payload of a "chat" frame.
type ChatMessage struct {
	Message       string                `json:"message"`
	VoiceFeatures emotion.VoiceFeatures `json:"voice_features,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// wsConn serialises writes; gorilla allows one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
	log  *logrus.Entry
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

func (c *wsConn) send(msgType, sessionID string, data interface{}) {
	msg := outgoingMessage{
		Type:      msgType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := c.writeJSON(msg); err != nil {
		c.log.WithError(err).Debug("write failed")
	}
}

func (c *wsConn) sendError(sessionID, message string) {
	c.send("error", sessionID, map[string]string{"message": message})
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userID := r.URL.Query().Get("user_id")
	if sessionID == "" || userID == "" {
		http.Error(w, "sessionID and user_id are required", http.StatusBadRequest)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		observability.FromContext(r.Context(), "websocket").WithError(err).Warn("upgrade failed")
		return
	}
	defer raw.Close()

	conn := &wsConn{
		conn: raw,
		log:  observability.Component("websocket").WithField("session_id", sessionID),
	}
	conn.log.Info("connection opened")

	ctx, cancel := context.WithCancel(r.Context())

	_ = raw.SetReadDeadline(time.Now().Add(h.readTimeout))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	go pingLoop(ctx, conn, h.pingInterval)

	// 聊天轮次在独立goroutine中串行执行，读循环持续处理pong
	turns := make(chan ChatMessage, wsTurnQueue)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for payload := range turns {
			h.runTurn(ctx, conn, userID, sessionID, payload)
		}
	}()
	defer func() {
		cancel()
		close(turns)
		wg.Wait()
	}()

	conn.send("connected", sessionID, map[string]string{"user_id": userID})

	for {
		var msg inboundMessage
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				conn.log.WithError(err).Warn("read error")
			}
			return
		}
		_ = raw.SetReadDeadline(time.Now().Add(h.readTimeout))

		h.handleMessage(conn, sessionID, msg, turns)
	}
}

func (h *WebSocketHandler) handleMessage(conn *wsConn, sessionID string, msg inboundMessage, turns chan<- ChatMessage) {
	switch msg.Type {
	case "chat":
		var payload ChatMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			conn.sendError(sessionID, "invalid chat payload")
			return
		}
		select {
		case turns <- payload:
		default:
			conn.sendError(sessionID, "too many pending messages")
		}
	case "ping":
		conn.send("pong", sessionID, nil)
	default:
		conn.sendError(sessionID, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) runTurn(ctx context.Context, conn *wsConn, userID, sessionID string, payload ChatMessage) {
	resp, err := h.chatSvc.Chat(ctx, chatService.Request{
		UserID:        userID,
		SessionID:     sessionID,
		Message:       payload.Message,
		VoiceFeatures: payload.VoiceFeatures,
	})
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			conn.log.WithError(err).Error("chat turn failed")
			conn.sendError(sessionID, "internal server error")
			return
		}
		conn.sendError(sessionID, err.Error())
		return
	}
	conn.send("result", sessionID, resp)
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, conn *wsConn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}
