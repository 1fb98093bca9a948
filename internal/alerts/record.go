package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Category is the top-level Control Hub service an alert belongs to
type Category string

const (
	CategoryDevice  Category = "Devices"
	CategoryMeeting Category = "Meetings"
	CategoryUnknown Category = "Unknown"
)

// ParseCategory maps the webhook "type" field onto a known category
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryDevice:
		return CategoryDevice
	case CategoryMeeting:
		return CategoryMeeting
	default:
		return CategoryUnknown
	}
}

// IssueSet holds the vendor issue codes reported by "Issue detected or resolved" events.
// A nil Detected slice means the field was absent from the payload.
type IssueSet struct {
	Detected []string `json:"detected"`
	Resolved []string `json:"resolved,omitempty"`
}

// AlertRecord is a single Control Hub alert as delivered in the webhook "data" object
type AlertRecord struct {
	Type                   string     `json:"type"`
	Subtype                string     `json:"subType"`
	Summary                string     `json:"summary"`
	NotificationID         string     `json:"notificationId"`
	NotificationAttributes Attributes `json:"notificationAttributes"`
	Issues                 *IssueSet  `json:"issues,omitempty"`

	// Category is derived from Type when the payload is parsed
	Category Category `json:"-"`
}

// DeviceName returns the device name attribute, if present
func (r *AlertRecord) DeviceName() (string, bool) {
	return r.NotificationAttributes.Get("deviceName")
}

// Attributes is the notificationAttributes object. It keeps the keys in the
// order they arrived so the metadata dump attached to a ticket matches the webhook.
type Attributes struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewAttributes builds string attributes in the given key order.
// pairs must alternate key, value.
func NewAttributes(pairs ...string) Attributes {
	var a Attributes
	for i := 0; i+1 < len(pairs); i += 2 {
		a.Set(pairs[i], pairs[i+1])
	}
	return a
}

// Set stores a string value, appending the key if it is new
func (a *Attributes) Set(key, value string) {
	raw, _ := json.Marshal(value)
	a.setRaw(key, raw)
}

func (a *Attributes) setRaw(key string, raw json.RawMessage) {
	if a.values == nil {
		a.values = make(map[string]json.RawMessage)
	}
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = raw
}

// Get returns the value of a string attribute. Non-string values report false.
func (a Attributes) Get(key string) (string, bool) {
	raw, ok := a.values[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Keys returns the attribute names in arrival order
func (a Attributes) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of attributes
func (a Attributes) Len() int {
	return len(a.keys)
}

// UnmarshalJSON decodes a JSON object while recording key order
func (a *Attributes) UnmarshalJSON(data []byte) error {
	*a = Attributes{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("notificationAttributes must be an object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected attribute key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode attribute %q: %w", key, err)
		}
		a.setRaw(key, raw)
	}

	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the attributes as an object in arrival order
func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(a.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Pretty renders the attributes as indented JSON (4 spaces)
func (a Attributes) Pretty() (string, error) {
	compact, err := a.MarshalJSON()
	if err != nil {
		return "", err
	}
	if a.Len() == 0 {
		return "{}", nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "    "); err != nil {
		return "", err
	}
	return out.String(), nil
}
