// Package templates looks up the ticket template configured for a
// (category, subtype group, issue key) triple.
package templates

import (
	"context"
	"errors"
	"fmt"

	"github.com/akmatori/snowbridge/internal/alerts"
	"github.com/akmatori/snowbridge/internal/ticket"
)

// ErrTemplateNotFound is returned when no template is configured for a key
var ErrTemplateNotFound = errors.New("ticket template not found")

// ErrReadOnly is returned by stores that cannot be edited at runtime
var ErrReadOnly = errors.New("template store is read-only")

// Key identifies one template
type Key struct {
	Category alerts.Category     `json:"category"`
	Group    alerts.SubtypeGroup `json:"group"`
	IssueKey string              `json:"issue_key"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Category, k.Group, k.IssueKey)
}

// Entry is a template together with its key
type Entry struct {
	Key      Key              `json:"key"`
	Template *ticket.Template `json:"template"`
}

// Provider resolves templates. Returned templates must be treated as read-only.
type Provider interface {
	Lookup(ctx context.Context, key Key) (*ticket.Template, error)
}

// Lister enumerates every configured template
type Lister interface {
	List(ctx context.Context) ([]Entry, error)
}

// Writer edits templates
type Writer interface {
	Put(ctx context.Context, key Key, tmpl *ticket.Template) error
	Delete(ctx context.Context, key Key) error
}

// Store is a provider that can also list and edit its templates
type Store interface {
	Provider
	Lister
	Writer
}
