package alerts

import (
	"net/http"
)

// AlertAdapter defines the interface for source-specific webhook handling
type AlertAdapter interface {
	// GetSourceType returns the source type name (e.g., "controlhub")
	GetSourceType() string

	// ValidateWebhookSecret authenticates the request against its raw body
	ValidateWebhookSecret(r *http.Request, body []byte) error

	// ParsePayload decodes the raw request body into an alert record
	ParsePayload(body []byte) (*AlertRecord, error)
}

// BaseAdapter provides common functionality for all adapters
type BaseAdapter struct {
	SourceType string
}

// GetSourceType returns the source type name
func (b *BaseAdapter) GetSourceType() string {
	return b.SourceType
}
