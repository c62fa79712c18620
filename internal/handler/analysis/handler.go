package analysis

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindful-mate/backend/internal/model/chat"
	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
	"github.com/zhouzirui/mindful-mate/backend/internal/observability"
	chatService "github.com/zhouzirui/mindful-mate/backend/internal/service/chat"
	emotionService "github.com/zhouzirui/mindful-mate/backend/internal/service/emotion"
	"github.com/zhouzirui/mindful-mate/backend/pkg/utils"
)

// Handler 情绪分析接口
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建分析处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册分析路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analyze", func(ar chi.Router) {
		ar.Post("/text", h.handleText)
		ar.Post("/voice", h.handleVoice)
		ar.Post("/multimodal", h.handleMultimodal)
	})
}

type textRequest struct {
	Text    string        `json:"text"`
	Context *chat.Summary `json:"context,omitempty"`
}

type voiceRequest struct {
	VoiceFeatures emotion.VoiceFeatures `json:"voice_features"`
}

type multimodalRequest struct {
	Text          string                `json:"text"`
	VoiceFeatures emotion.VoiceFeatures `json:"voice_features,omitempty"`
}

func (h *Handler) handleText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.chatSvc.AnalyzeText(r.Context(), req.Text, req.Context)
	respond(w, r, a, err)
}

func (h *Handler) handleVoice(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.chatSvc.AnalyzeVoice(req.VoiceFeatures)
	respond(w, r, a, err)
}

func (h *Handler) handleMultimodal(w http.ResponseWriter, r *http.Request) {
	var req multimodalRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.chatSvc.AnalyzeMultimodal(r.Context(), req.Text, req.VoiceFeatures)
	respond(w, r, a, err)
}

func respond(w http.ResponseWriter, r *http.Request, a emotion.Analysis, err error) {
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, a)
	case errors.Is(err, emotionService.ErrEmptyText):
		utils.RespondError(w, http.StatusBadRequest, "text is required")
	case errors.Is(err, emotion.ErrMissingFeature):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		observability.FromContext(r.Context(), "http").WithError(err).Error("analysis failed")
		utils.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
