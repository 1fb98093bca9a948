package handlers

import (
	"net/http"

	"github.com/akmatori/snowbridge/internal/api"
)

// HTTPHandler handles the webhook and health endpoints
type HTTPHandler struct {
	webhookHandler *WebhookHandler
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(webhookHandler *WebhookHandler) *HTTPHandler {
	return &HTTPHandler{
		webhookHandler: webhookHandler,
	}
}

// SetupRoutes configures all HTTP routes
func (h *HTTPHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	// Control Hub posts alerts to the service root
	if h.webhookHandler != nil {
		mux.HandleFunc("/{$}", h.webhookHandler.HandleWebhook)
	}
}

// handleHealth returns a simple health check response
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	api.RespondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
