package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/akmatori/snowbridge/internal/alerts"
	"github.com/akmatori/snowbridge/internal/api"
	"github.com/akmatori/snowbridge/internal/middleware"
	"github.com/akmatori/snowbridge/internal/pipeline"
	"github.com/akmatori/snowbridge/internal/utils"
)

// Webhook response bodies. Control Hub only looks at the status code, so a
// rejected signature is still answered with 200.
const (
	AckMessage              = "Webhook receiver is running - check the terminal for alert information"
	InvalidSignatureMessage = "Webhook Secret invalid! Skipping..."
)

// AlertProcessor runs an alert through classification and ticket creation
type AlertProcessor interface {
	Process(ctx context.Context, record *alerts.AlertRecord) *pipeline.Result
}

// WebhookHandler receives Control Hub alert webhooks
type WebhookHandler struct {
	adapter   alerts.AlertAdapter
	processor AlertProcessor
}

// NewWebhookHandler creates a webhook handler. Deadlines for ServiceNow work
// are applied per issue key by the processor.
func NewWebhookHandler(adapter alerts.AlertAdapter, processor AlertProcessor) *WebhookHandler {
	return &WebhookHandler{
		adapter:   adapter,
		processor: processor,
	}
}

// HandleWebhook answers GET with a liveness string and processes POSTed alerts.
// Accepted POSTs are always acknowledged; outcomes are only logged.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		api.RespondPlain(w, http.StatusOK, AckMessage)
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := middleware.GetRequestID(r.Context())
	log.Printf("Webhook alert detected from %s (request %s)", r.RemoteAddr, requestID)

	body, err := api.ReadBody(w, r)
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		log.Printf("Webhook body too large (limit %d bytes), rejecting", maxBytesErr.Limit)
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if err := h.adapter.ValidateWebhookSecret(r, body); err != nil {
		log.Printf("Webhook secret validation failed: %v", err)
		api.RespondPlain(w, http.StatusOK, InvalidSignatureMessage)
		return
	}

	record, err := h.adapter.ParsePayload(body)
	if err != nil {
		log.Printf("Error parsing alert payload: %v", err)
		api.RespondPlain(w, http.StatusOK, AckMessage)
		return
	}

	log.Printf("Received %s alert %q (%s): %s", record.Type, record.Subtype, record.NotificationID, record.Summary)

	start := time.Now()
	result := h.processor.Process(context.WithoutCancel(r.Context()), record)
	log.Printf("Alert %s processed in %s (request %s): %d ticket(s) created, %d skipped",
		result.CorrelationID, utils.FormatDuration(time.Since(start)), requestID, len(result.Created), len(result.Skipped))

	api.RespondPlain(w, http.StatusOK, AckMessage)
}
