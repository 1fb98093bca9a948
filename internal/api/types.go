package api

import (
	"regexp"

	"github.com/akmatori/snowbridge/internal/templates"
	"github.com/akmatori/snowbridge/internal/ticket"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// TemplateResponse is one template as returned by the admin API
type TemplateResponse struct {
	Category string            `json:"category"`
	Group    string            `json:"group"`
	IssueKey string            `json:"issue_key"`
	Fields   map[string]string `json:"fields"`
}

// TemplateRequest is the body of PUT /api/templates/{category}/{group}/{issue_key}
type TemplateRequest struct {
	Fields map[string]string `json:"fields"`
}

// ToTemplateResponse converts a store entry for the API
func ToTemplateResponse(e templates.Entry) TemplateResponse {
	return TemplateResponse{
		Category: string(e.Key.Category),
		Group:    string(e.Key.Group),
		IssueKey: e.Key.IssueKey,
		Fields:   e.Template.Fields(),
	}
}

var fieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate checks the template fields. ServiceNow column names are lower snake case.
func (r *TemplateRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if len(r.Fields) == 0 {
		errs["fields"] = "at least one field is required"
	}
	for name := range r.Fields {
		if !fieldNamePattern.MatchString(name) {
			errs["fields."+name] = "field names must be lower snake case"
		}
	}
	if _, ok := r.Fields[ticket.FieldDescription]; !ok && len(r.Fields) > 0 {
		errs["fields.description"] = "description is required"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Template converts the request into a ticket template
func (r *TemplateRequest) Template() *ticket.Template {
	return ticket.TemplateFromFields(r.Fields)
}
