package utils

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/zhouzirui/mindful-mate/backend/internal/observability"
)

// SendSSEEvent 发送带事件名的数据块
func SendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sse payload: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		observability.Component("sse").WithError(err).Debug("client went away")
		return err
	}
	flusher.Flush()
	return nil
}

// SetupSSEHeaders 设置SSE响应头
func SetupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}
