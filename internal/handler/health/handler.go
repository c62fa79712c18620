package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindful-mate/backend/internal/observability"
	"github.com/zhouzirui/mindful-mate/backend/pkg/utils"
)

// Version is reported by the health endpoint.
const Version = "1.1.0"

const defaultPingTimeout = 30 * time.Second

// Pinger checks generative model connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
	ModelName() string
}

// SessionCounter reports live session count.
type SessionCounter interface {
	Len() int
}

// Handler 健康检查
type Handler struct {
	model       Pinger
	sessions    SessionCounter
	pingTimeout time.Duration
}

// New 创建健康检查处理器
func New(model Pinger, sessions SessionCounter) *Handler {
	return &Handler{model: model, sessions: sessions, pingTimeout: defaultPingTimeout}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

type response struct {
	Status         string    `json:"status"`
	ModelStatus    string    `json:"model_status"`
	Model          string    `json:"model,omitempty"`
	ActiveSessions int       `json:"active_sessions"`
	Timestamp      time.Time `json:"timestamp"`
	Version        string    `json:"version"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := response{
		Status:      "healthy",
		ModelStatus: "healthy",
		Timestamp:   time.Now().UTC(),
		Version:     Version,
	}
	if h.sessions != nil {
		resp.ActiveSessions = h.sessions.Len()
	}

	if h.model == nil {
		resp.Status, resp.ModelStatus = "degraded", "unavailable"
	} else {
		resp.Model = h.model.ModelName()
		ctx, cancel := context.WithTimeout(r.Context(), h.pingTimeout)
		defer cancel()
		if err := h.model.Ping(ctx); err != nil {
			observability.FromContext(r.Context(), "health").WithError(err).Warn("model health check failed")
			resp.Status, resp.ModelStatus = "degraded", "unhealthy"
		}
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}
