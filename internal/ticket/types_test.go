package ticket

import (
	"encoding/json"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestTemplate_UnmarshalJSON(t *testing.T) {
	var tmpl Template
	input := `{"short_description":"","caller_id":"jdoe","description":"Check room","assignment_group":"AV"}`
	if err := json.Unmarshal([]byte(input), &tmpl); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}

	if tmpl.CallerID != "jdoe" || tmpl.Description != "Check room" {
		t.Errorf("Unexpected template %+v", tmpl)
	}
	if tmpl.Extra["assignment_group"] != "AV" {
		t.Errorf("Expected extra field assignment_group, got %v", tmpl.Extra)
	}
}

func TestTemplate_UnmarshalJSON_NonString(t *testing.T) {
	var tmpl Template
	if err := json.Unmarshal([]byte(`{"description":"x","urgency":3}`), &tmpl); err == nil {
		t.Error("Expected error for non-string field")
	}
}

func TestTemplate_UnmarshalYAML(t *testing.T) {
	var tmpl Template
	input := "caller_id: jdoe\ndescription: |\n  Meeting degraded\nimpact: \"2\"\n"
	if err := yaml.Unmarshal([]byte(input), &tmpl); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}

	if tmpl.Description != "Meeting degraded\n" {
		t.Errorf("Unexpected description %q", tmpl.Description)
	}
	if tmpl.Extra["impact"] != "2" {
		t.Errorf("Expected impact 2, got %v", tmpl.Extra)
	}
}

func TestTemplate_Clone(t *testing.T) {
	original := &Template{Description: "a", Extra: map[string]string{"k": "v"}}
	clone := original.Clone()

	clone.Description = "b"
	clone.Extra["k"] = "changed"

	if original.Description != "a" || original.Extra["k"] != "v" {
		t.Errorf("Clone shares state with original: %+v", original)
	}
}

func TestPayload_MarshalJSON(t *testing.T) {
	p := Payload{
		ShortDescription: "Room1",
		CallerID:         "abc",
		Description:      "text",
		Extra:            map[string]string{"urgency": "2"},
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}

	var decoded map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}

	expected := map[string]string{
		"short_description": "Room1",
		"caller_id":         "abc",
		"description":       "text",
		"urgency":           "2",
	}
	if !reflect.DeepEqual(decoded, expected) {
		t.Errorf("Expected %v, got %v", expected, decoded)
	}

	names := p.FieldNames()
	if !reflect.DeepEqual(names, []string{"caller_id", "description", "short_description", "urgency"}) {
		t.Errorf("Unexpected field names %v", names)
	}
}

func TestPayload_ExtraCannotOverrideNamedFields(t *testing.T) {
	p := Payload{
		ShortDescription: "Room1",
		Extra:            map[string]string{"short_description": "other"},
	}
	if got := p.Fields()["short_description"]; got != "Room1" {
		t.Errorf("Expected named field to win, got %q", got)
	}
}
