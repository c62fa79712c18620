package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindful-mate/backend/internal/observability"
	chatService "github.com/zhouzirui/mindful-mate/backend/internal/service/chat"
	"github.com/zhouzirui/mindful-mate/backend/pkg/utils"
)

// handleStream runs one chat turn and reports progress over SSE.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := chatService.Request{
		UserID:    query.Get("user_id"),
		SessionID: chi.URLParam(r, "sessionID"),
		Message:   query.Get("message"),
	}
	if req.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}
	if req.UserID == "" {
		utils.RespondError(w, http.StatusBadRequest, chatService.ErrUserRequired.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	utils.SetupSSEHeaders(w)

	log := observability.FromContext(r.Context(), "sse").WithField("session_id", req.SessionID)
	if err := utils.SendSSEEvent(w, flusher, "status", map[string]string{"message": "analyzing"}); err != nil {
		return
	}

	resp, err := h.chatSvc.Chat(r.Context(), req)
	if err != nil {
		log.WithError(err).Warn("stream chat failed")
		_ = utils.SendSSEEvent(w, flusher, "error", map[string]string{"message": err.Error()})
		return
	}
	if resp.Crisis != nil {
		if err := utils.SendSSEEvent(w, flusher, "crisis", resp.Crisis); err != nil {
			return
		}
	}
	if err := utils.SendSSEEvent(w, flusher, "response", resp); err != nil {
		return
	}
	_ = utils.SendSSEEvent(w, flusher, "done", map[string]string{"session_id": resp.SessionID})
}
