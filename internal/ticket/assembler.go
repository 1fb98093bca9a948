package ticket

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/akmatori/snowbridge/internal/alerts"
)

// MetadataHeader precedes the attribute dump appended to every description
const MetadataHeader = "\n\nControlHub Alert MetaData:\n"

// ErrCallerNotFound is returned by a CallerResolver when the directory has no such user
var ErrCallerNotFound = errors.New("caller not found")

// CallerResolver maps a ServiceNow user name to the caller identity used on incidents
type CallerResolver interface {
	ResolveCaller(ctx context.Context, username string) (string, error)
}

// Assembler merges alert data into a copy of a ticket template
type Assembler struct {
	callers       CallerResolver
	defaultCaller string
	logger        *log.Logger
}

// NewAssembler creates an assembler. defaultCaller is the user name that
// authenticates against ServiceNow and is used when a template has no caller.
func NewAssembler(callers CallerResolver, defaultCaller string, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = log.Default()
	}
	return &Assembler{
		callers:       callers,
		defaultCaller: defaultCaller,
		logger:        logger,
	}
}

// Assemble builds the incident payload for one issue. The template is never modified.
func (a *Assembler) Assemble(ctx context.Context, category alerts.Category, record *alerts.AlertRecord, tmpl *Template) (*Payload, error) {
	working := tmpl.Clone()

	deviceName, ok := record.DeviceName()
	if !ok {
		return nil, &AssemblyError{Field: "deviceName"}
	}

	caller, err := a.resolveCaller(ctx, working.CallerID)
	if err != nil {
		return nil, err
	}

	description, err := BuildDescription(category, record, working.Description)
	if err != nil {
		return nil, err
	}

	return &Payload{
		ShortDescription: deviceName,
		CallerID:         caller,
		Description:      description,
		Extra:            working.Extra,
	}, nil
}

// BuildDescription produces the final description: meeting alerts split the
// configured text from the webhook summary, and every alert gets the
// notification attributes appended.
func BuildDescription(category alerts.Category, record *alerts.AlertRecord, templateDescription string) (string, error) {
	description := templateDescription
	if category == alerts.CategoryMeeting {
		description = "Custom Description:\n" + templateDescription + "\nRaw Description:\n" + record.Summary
	}

	metadata, err := record.NotificationAttributes.Pretty()
	if err != nil {
		return "", fmt.Errorf("failed to render alert metadata: %w", err)
	}

	return description + MetadataHeader + metadata, nil
}

func (a *Assembler) resolveCaller(ctx context.Context, name string) (string, error) {
	if name == "" {
		name = a.defaultCaller
	}
	if a.callers == nil {
		return name, nil
	}

	resolved, err := a.callers.ResolveCaller(ctx, name)
	if errors.Is(err, ErrCallerNotFound) {
		a.logger.Printf("Assembler: caller %q not found in ServiceNow, using name as given", name)
		return name, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve caller %q: %w", name, err)
	}
	return resolved, nil
}
