package alerts

import (
	"errors"
	"fmt"
)

// Authentication errors returned by webhook signature validation
var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// ErrorKind identifies why an alert, or one of its issue keys, was skipped
type ErrorKind string

const (
	KindUnsupportedCategory ErrorKind = "unsupported_category"
	KindUnsupportedSubtype  ErrorKind = "unsupported_subtype"
	KindAmbiguousSummary    ErrorKind = "ambiguous_summary"
	KindMissingIssueList    ErrorKind = "missing_issue_list"
	KindUnconfiguredIssue   ErrorKind = "unconfigured_issue"
)

// Sentinels for errors.Is matching against a ClassificationError
var (
	ErrUnsupportedCategory = errors.New("unsupported alert category")
	ErrUnsupportedSubtype  = errors.New("unsupported alert subtype")
	ErrAmbiguousSummary    = errors.New("summary mentions neither online nor offline")
	ErrMissingIssueList    = errors.New("issues.detected not present")
	ErrUnconfiguredIssue   = errors.New("no template configured for issue")
)

var kindSentinels = map[ErrorKind]error{
	KindUnsupportedCategory: ErrUnsupportedCategory,
	KindUnsupportedSubtype:  ErrUnsupportedSubtype,
	KindAmbiguousSummary:    ErrAmbiguousSummary,
	KindMissingIssueList:    ErrMissingIssueList,
	KindUnconfiguredIssue:   ErrUnconfiguredIssue,
}

// ClassificationError describes an alert that cannot be turned into a ticket
type ClassificationError struct {
	Kind     ErrorKind
	Category string
	Subtype  string
	IssueKey string
	Detail   string
}

func (e *ClassificationError) Error() string {
	msg := fmt.Sprintf("%s (category: %q, subtype: %q", kindSentinels[e.Kind], e.Category, e.Subtype)
	if e.IssueKey != "" {
		msg += fmt.Sprintf(", issue: %q", e.IssueKey)
	}
	msg += ")"
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap exposes the sentinel for the error kind
func (e *ClassificationError) Unwrap() error {
	return kindSentinels[e.Kind]
}
