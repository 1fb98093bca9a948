package adapters

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akmatori/snowbridge/internal/alerts"
)

// SignatureHeader carries the hex HMAC-SHA1 of the request body
const SignatureHeader = "X-Spark-Signature"

// ControlHubAdapter handles Webex Control Hub alert webhooks
type ControlHubAdapter struct {
	alerts.BaseAdapter
	secret []byte
}

// NewControlHubAdapter creates a new Control Hub adapter using the shared webhook secret
func NewControlHubAdapter(secret string) *ControlHubAdapter {
	return &ControlHubAdapter{
		BaseAdapter: alerts.BaseAdapter{SourceType: "controlhub"},
		secret:      []byte(secret),
	}
}

// ControlHubPayload represents the webhook envelope from Control Hub
type ControlHubPayload struct {
	ID   string              `json:"id"`
	Name string              `json:"name"`
	Data *alerts.AlertRecord `json:"data"`
}

// Sign returns the signature Control Hub would send for body
func (a *ControlHubAdapter) Sign(body []byte) string {
	mac := hmac.New(sha1.New, a.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateWebhookSecret compares the signature header with the HMAC of the body
func (a *ControlHubAdapter) ValidateWebhookSecret(r *http.Request, body []byte) error {
	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		return alerts.ErrMissingSignature
	}

	if !hmac.Equal([]byte(signature), []byte(a.Sign(body))) {
		return alerts.ErrInvalidSignature
	}

	return nil
}

// ParsePayload parses the Control Hub envelope and returns its "data" alert.
// A missing "data" object yields an empty record of unknown category.
func (a *ControlHubAdapter) ParsePayload(body []byte) (*alerts.AlertRecord, error) {
	var payload ControlHubPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse controlhub payload: %w", err)
	}

	record := payload.Data
	if record == nil {
		record = &alerts.AlertRecord{}
	}
	if record.Type == "" {
		record.Type = string(alerts.CategoryUnknown)
	}
	record.Category = alerts.ParseCategory(record.Type)

	return record, nil
}
