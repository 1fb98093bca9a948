package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akmatori/snowbridge/internal/notify"
	"github.com/akmatori/snowbridge/internal/templates"
	"github.com/akmatori/snowbridge/internal/ticket"
)

// ========================================
// Ticket Sink
// ========================================

// SinkCall records one CreateIncident call
type SinkCall struct {
	Payload       *ticket.Payload
	CorrelationID string
}

// FakeSink records incidents instead of calling ServiceNow
type FakeSink struct {
	mu    sync.Mutex
	Calls []SinkCall
	// FailFor makes CreateIncident fail for payloads with this short description
	FailFor string
	// Delay makes each call take this long unless ctx ends first
	Delay time.Duration
}

// CreateIncident records the call and returns INC000000N
func (s *FakeSink) CreateIncident(ctx context.Context, payload *ticket.Payload, correlationID string) (string, error) {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailFor != "" && payload.ShortDescription == s.FailFor {
		return "", fmt.Errorf("ServiceNow unavailable")
	}
	s.Calls = append(s.Calls, SinkCall{Payload: payload, CorrelationID: correlationID})
	return fmt.Sprintf("INC%07d", len(s.Calls)), nil
}

// CallCount returns the number of successful calls
func (s *FakeSink) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

// ========================================
// Caller Resolver
// ========================================

// FakeCallers resolves user names from a map; unknown names are not found
type FakeCallers struct {
	Names map[string]string
	Err   error
}

// ResolveCaller implements ticket.CallerResolver
func (f *FakeCallers) ResolveCaller(ctx context.Context, username string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	if name, ok := f.Names[username]; ok {
		return name, nil
	}
	return "", ticket.ErrCallerNotFound
}

// ========================================
// Reporter
// ========================================

// RecordingReporter keeps every reported event
type RecordingReporter struct {
	mu     sync.Mutex
	Events []notify.Event
}

// Report implements notify.Reporter
func (r *RecordingReporter) Report(ctx context.Context, event notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

// ========================================
// Template Provider
// ========================================

// MapProvider serves templates from memory
type MapProvider struct {
	mu        sync.Mutex
	Templates map[templates.Key]*ticket.Template
	Lookups   int
}

// Lookup implements templates.Provider
func (p *MapProvider) Lookup(ctx context.Context, key templates.Key) (*ticket.Template, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Lookups++
	tmpl, ok := p.Templates[key]
	if !ok {
		return nil, templates.ErrTemplateNotFound
	}
	return tmpl, nil
}
