// Package pipeline turns one Control Hub alert into zero or more ServiceNow
// incidents: classify, look up templates, assemble, and file each ticket.
package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/akmatori/snowbridge/internal/alerts"
	"github.com/akmatori/snowbridge/internal/notify"
	"github.com/akmatori/snowbridge/internal/templates"
	"github.com/akmatori/snowbridge/internal/ticket"
	"github.com/google/uuid"
)

// TicketSink files a finished ticket and returns the incident number
type TicketSink interface {
	CreateIncident(ctx context.Context, payload *ticket.Payload, correlationID string) (string, error)
}

// CreatedTicket records one incident filed for an alert
type CreatedTicket struct {
	IssueKey string
	Number   string
}

// Result summarises what happened to one alert
type Result struct {
	CorrelationID string
	Created       []CreatedTicket
	Skipped       []notify.Event
}

// Pipeline is stateless between calls and safe for concurrent use
type Pipeline struct {
	classifier *alerts.Classifier
	templates  templates.Provider
	assembler  *ticket.Assembler
	sink       TicketSink
	reporter   notify.Reporter
	logger     *log.Logger

	issueTimeout time.Duration
}

// New creates a pipeline from its collaborators
func New(
	classifier *alerts.Classifier,
	provider templates.Provider,
	assembler *ticket.Assembler,
	sink TicketSink,
	reporter notify.Reporter,
	logger *log.Logger,
) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	if reporter == nil {
		reporter = notify.NewLogReporter(logger)
	}
	return &Pipeline{
		classifier: classifier,
		templates:  provider,
		assembler:  assembler,
		sink:       sink,
		reporter:   reporter,
		logger:     logger,
	}
}

// WithIssueTimeout bounds the work done for each issue key, so a slow
// ticket never eats into the time left for its siblings. Zero disables it.
func (p *Pipeline) WithIssueTimeout(d time.Duration) *Pipeline {
	p.issueTimeout = d
	return p
}

// Process handles one alert. Failures are reported and recorded in the
// result; one failing issue key never stops its siblings.
func (p *Pipeline) Process(ctx context.Context, record *alerts.AlertRecord) *Result {
	result := &Result{CorrelationID: record.NotificationID}
	if result.CorrelationID == "" {
		result.CorrelationID = uuid.NewString()
		p.logger.Printf("Pipeline: alert has no notificationId, using %s", result.CorrelationID)
	}

	classification, err := p.classifier.Classify(record)
	if err != nil {
		p.skip(ctx, result, notify.Event{
			Stage:    notify.StageClassify,
			Category: record.Type,
			Subtype:  record.Subtype,
			Err:      err,
		})
		return result
	}

	if len(classification.IssueKeys) == 0 {
		p.logger.Printf("Pipeline: alert %s (%s / %s) lists no detected issues, nothing to file",
			result.CorrelationID, classification.Category, classification.Subtype)
	}

	for _, issueKey := range classification.IssueKeys {
		p.processIssue(ctx, result, record, classification, issueKey)
	}

	return result
}

func (p *Pipeline) processIssue(
	ctx context.Context,
	result *Result,
	record *alerts.AlertRecord,
	c *alerts.Classification,
	issueKey string,
) {
	event := notify.Event{
		Category: string(c.Category),
		Subtype:  c.Subtype,
		IssueKey: issueKey,
	}
	if name, ok := record.DeviceName(); ok {
		event.DeviceName = name
	}

	issueCtx := ctx
	if p.issueTimeout > 0 {
		var cancel context.CancelFunc
		issueCtx, cancel = context.WithTimeout(ctx, p.issueTimeout)
		defer cancel()
	}

	// Skips are reported on ctx so an expired issue deadline does not
	// also swallow the notification.
	key := templates.Key{Category: c.Category, Group: c.Group, IssueKey: issueKey}
	tmpl, err := p.templates.Lookup(issueCtx, key)
	if errors.Is(err, templates.ErrTemplateNotFound) {
		event.Stage = notify.StageLookup
		event.Err = &alerts.ClassificationError{
			Kind:     alerts.KindUnconfiguredIssue,
			Category: string(c.Category),
			Subtype:  c.Subtype,
			IssueKey: issueKey,
		}
		p.skip(ctx, result, event)
		return
	}
	if err != nil {
		event.Stage = notify.StageLookup
		event.Err = err
		p.skip(ctx, result, event)
		return
	}

	p.logger.Printf("Pipeline: received and have configuration for %s, %q (alert type), %q (issue)",
		c.Category, c.Subtype, issueKey)

	payload, err := p.assembler.Assemble(issueCtx, c.Category, record, tmpl)
	if err != nil {
		event.Stage = notify.StageAssemble
		event.Err = err
		p.skip(ctx, result, event)
		return
	}

	number, err := p.sink.CreateIncident(issueCtx, payload, result.CorrelationID)
	if err != nil {
		event.Stage = notify.StageSink
		event.Err = err
		p.skip(ctx, result, event)
		return
	}

	result.Created = append(result.Created, CreatedTicket{IssueKey: issueKey, Number: number})
}

func (p *Pipeline) skip(ctx context.Context, result *Result, event notify.Event) {
	event.NotificationID = result.CorrelationID
	result.Skipped = append(result.Skipped, event)
	p.reporter.Report(ctx, event)
}
