// Package testhelpers provides data builders for testing
package testhelpers

import (
	"encoding/json"

	"github.com/akmatori/snowbridge/internal/alerts"
	"github.com/akmatori/snowbridge/internal/ticket"
)

// ========================================
// Alert Record Builder
// ========================================

// AlertRecordBuilder builds AlertRecord instances for testing
type AlertRecordBuilder struct {
	record alerts.AlertRecord
}

// NewDeviceAlert starts a Devices alert for "Room1"
func NewDeviceAlert(subtype string) *AlertRecordBuilder {
	return &AlertRecordBuilder{
		record: alerts.AlertRecord{
			Type:                   string(alerts.CategoryDevice),
			Category:               alerts.CategoryDevice,
			Subtype:                subtype,
			NotificationID:         "notification-1",
			NotificationAttributes: alerts.NewAttributes("deviceName", "Room1"),
		},
	}
}

// NewMeetingAlert starts a Meetings "Device live meeting alert" for "Room1"
func NewMeetingAlert() *AlertRecordBuilder {
	return &AlertRecordBuilder{
		record: alerts.AlertRecord{
			Type:                   string(alerts.CategoryMeeting),
			Category:               alerts.CategoryMeeting,
			Subtype:                "Device live meeting alert",
			NotificationID:         "notification-1",
			NotificationAttributes: alerts.NewAttributes("deviceName", "Room1"),
		},
	}
}

// WithSummary sets the summary
func (b *AlertRecordBuilder) WithSummary(summary string) *AlertRecordBuilder {
	b.record.Summary = summary
	return b
}

// WithNotificationID sets the notification id
func (b *AlertRecordBuilder) WithNotificationID(id string) *AlertRecordBuilder {
	b.record.NotificationID = id
	return b
}

// WithAttributes replaces the notification attributes (alternating key, value)
func (b *AlertRecordBuilder) WithAttributes(pairs ...string) *AlertRecordBuilder {
	b.record.NotificationAttributes = alerts.NewAttributes(pairs...)
	return b
}

// WithDetectedIssues sets issues.detected
func (b *AlertRecordBuilder) WithDetectedIssues(keys ...string) *AlertRecordBuilder {
	if keys == nil {
		keys = []string{}
	}
	b.record.Issues = &alerts.IssueSet{Detected: keys}
	return b
}

// Build returns the constructed record
func (b *AlertRecordBuilder) Build() *alerts.AlertRecord {
	r := b.record
	return &r
}

// Envelope wraps the record in a Control Hub webhook body
func (b *AlertRecordBuilder) Envelope() []byte {
	body, err := json.Marshal(map[string]interface{}{
		"id":   "webhook-1",
		"name": "ControlHub alerts",
		"data": b.record,
	})
	if err != nil {
		panic(err)
	}
	return body
}

// ========================================
// Ticket Template Builder
// ========================================

// NewTemplate returns a template with the given description and caller
func NewTemplate(description, caller string, extra ...string) *ticket.Template {
	t := &ticket.Template{
		Description: description,
		CallerID:    caller,
		Extra:       make(map[string]string),
	}
	for i := 0; i+1 < len(extra); i += 2 {
		t.Extra[extra[i]] = extra[i+1]
	}
	return t
}
