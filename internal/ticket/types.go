// Package ticket turns a classified alert and its configured template into
// the incident record sent to ServiceNow.
package ticket

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Well-known incident fields handled explicitly by the assembler
const (
	FieldShortDescription = "short_description"
	FieldCallerID         = "caller_id"
	FieldDescription      = "description"
)

// Template is the static configuration for one issue key. Fields other than
// the three named ones are carried verbatim in Extra.
type Template struct {
	ShortDescription string
	CallerID         string
	Description      string
	Extra            map[string]string
}

// Payload is the fully resolved incident sent to the ticketing system
type Payload struct {
	ShortDescription string
	CallerID         string
	Description      string
	Extra            map[string]string
}

// Clone returns a deep copy of the template
func (t *Template) Clone() *Template {
	out := *t
	out.Extra = copyExtra(t.Extra)
	return &out
}

// Fields flattens the template into a field-name map
func (t *Template) Fields() map[string]string {
	return flatten(t.ShortDescription, t.CallerID, t.Description, t.Extra)
}

// TemplateFromFields builds a template from a flat field-name map
func TemplateFromFields(fields map[string]string) *Template {
	t := &Template{Extra: make(map[string]string)}
	for k, v := range fields {
		switch k {
		case FieldShortDescription:
			t.ShortDescription = v
		case FieldCallerID:
			t.CallerID = v
		case FieldDescription:
			t.Description = v
		default:
			t.Extra[k] = v
		}
	}
	return t
}

// MarshalJSON encodes the template as a flat object
func (t Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Fields())
}

// UnmarshalJSON decodes a flat object of string fields
func (t *Template) UnmarshalJSON(data []byte) error {
	fields := make(map[string]string)
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("ticket template fields must be strings: %w", err)
	}
	*t = *TemplateFromFields(fields)
	return nil
}

// UnmarshalYAML decodes a flat mapping of string fields
func (t *Template) UnmarshalYAML(value *yaml.Node) error {
	fields := make(map[string]string)
	if err := value.Decode(&fields); err != nil {
		return fmt.Errorf("ticket template fields must be strings: %w", err)
	}
	*t = *TemplateFromFields(fields)
	return nil
}

// Fields flattens the payload into a field-name map
func (p *Payload) Fields() map[string]string {
	return flatten(p.ShortDescription, p.CallerID, p.Description, p.Extra)
}

// FieldNames returns the payload field names in sorted order
func (p *Payload) FieldNames() []string {
	fields := p.Fields()
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the payload as the flat incident object
func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Fields())
}

func flatten(short, caller, description string, extra map[string]string) map[string]string {
	fields := make(map[string]string, len(extra)+3)
	for k, v := range extra {
		fields[k] = v
	}
	fields[FieldShortDescription] = short
	fields[FieldCallerID] = caller
	fields[FieldDescription] = description
	return fields
}

func copyExtra(extra map[string]string) map[string]string {
	if extra == nil {
		return nil
	}
	out := make(map[string]string, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}
