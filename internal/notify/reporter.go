// Package notify reports alerts that could not be turned into tickets.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Stage names the pipeline step that failed
type Stage string

const (
	StageClassify Stage = "classify"
	StageLookup   Stage = "lookup"
	StageAssemble Stage = "assemble"
	StageSink     Stage = "sink"
)

// Event describes one skipped alert or issue key
type Event struct {
	Stage          Stage
	NotificationID string
	Category       string
	Subtype        string
	IssueKey       string
	DeviceName     string
	Err            error
}

// Summary renders the event as a single line
func (e Event) Summary() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] alert %s", e.Stage, e.NotificationID))
	if e.Category != "" {
		sb.WriteString(fmt.Sprintf(" (%s / %s)", e.Category, e.Subtype))
	}
	if e.IssueKey != "" {
		sb.WriteString(fmt.Sprintf(" issue %q", e.IssueKey))
	}
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	return sb.String()
}

// Reporter delivers events to operators
type Reporter interface {
	Report(ctx context.Context, event Event)
}

// LogReporter writes events to a logger
type LogReporter struct {
	logger *log.Logger
}

// NewLogReporter creates a reporter writing to logger (log.Default when nil)
func NewLogReporter(logger *log.Logger) *LogReporter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogReporter{logger: logger}
}

// Report logs the event
func (r *LogReporter) Report(ctx context.Context, event Event) {
	r.logger.Printf("Error: %s", event.Summary())
}

// MultiReporter fans an event out to several reporters
type MultiReporter []Reporter

// Report forwards the event to every reporter
func (m MultiReporter) Report(ctx context.Context, event Event) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, event)
		}
	}
}
