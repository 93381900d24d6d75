package handlers

import (
	"net/http"
	"time"

	"github.com/modelshelf/modelshelf/internal/server/response"
)

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":         "healthy",
		"service":        "modelshelf",
		"pending_ops":    h.queue.Len(),
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	})
}
