package alerts

import (
	"errors"
	"reflect"
	"testing"
)

func deviceRecord(subtype, summary string) *AlertRecord {
	return &AlertRecord{
		Type:     "Devices",
		Category: CategoryDevice,
		Subtype:  subtype,
		Summary:  summary,
	}
}

func TestClassifier_OfflineOnlineSummary(t *testing.T) {
	c := NewClassifier(DefaultSubtypeRules)

	tests := []struct {
		name     string
		summary  string
		expected []string
		wantErr  error
	}{
		{"online lower case", "Device is online", []string{"online"}, nil},
		{"online mixed case", "Room Kit ONLINE again", []string{"online"}, nil},
		{"offline", "Device went Offline", []string{"offline"}, nil},
		{"online wins when both present", "Device went offline, now online", []string{"online"}, nil},
		{"neither", "Device rebooted", nil, ErrAmbiguousSummary},
		{"empty summary", "", nil, ErrAmbiguousSummary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(deviceRecord("Offline and online events", tt.summary))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
				}
				if got != nil {
					t.Errorf("Expected no classification, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify returned error: %v", err)
			}
			if got.Group != GroupOfflineOnline {
				t.Errorf("Expected group %q, got %q", GroupOfflineOnline, got.Group)
			}
			if !reflect.DeepEqual(got.IssueKeys, tt.expected) {
				t.Errorf("Expected issue keys %v, got %v", tt.expected, got.IssueKeys)
			}
		})
	}
}

func TestClassifier_DetectedIssues(t *testing.T) {
	c := NewClassifier(DefaultSubtypeRules)

	record := deviceRecord("Issue detected or resolved events", "")
	record.Issues = &IssueSet{Detected: []string{"temperaturecheck", "noiseremoval"}}

	got, err := c.Classify(record)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got.Group != GroupIssues {
		t.Errorf("Expected group %q, got %q", GroupIssues, got.Group)
	}
	if !reflect.DeepEqual(got.IssueKeys, []string{"temperaturecheck", "noiseremoval"}) {
		t.Errorf("Expected issue keys in order, got %v", got.IssueKeys)
	}

	// The classification must not alias the record's slice
	got.IssueKeys[0] = "changed"
	if record.Issues.Detected[0] != "temperaturecheck" {
		t.Error("Classification modified the alert record")
	}
}

func TestClassifier_DetectedIssuesEmptyList(t *testing.T) {
	c := NewClassifier(DefaultSubtypeRules)

	record := deviceRecord("Issue detected or resolved events", "")
	record.Issues = &IssueSet{Detected: []string{}}

	got, err := c.Classify(record)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if len(got.IssueKeys) != 0 {
		t.Errorf("Expected no issue keys, got %v", got.IssueKeys)
	}
}

func TestClassifier_MissingIssueList(t *testing.T) {
	c := NewClassifier(DefaultSubtypeRules)

	tests := []struct {
		name   string
		issues *IssueSet
	}{
		{"no issues object", nil},
		{"no detected key", &IssueSet{Resolved: []string{"noiseremoval"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := deviceRecord("Issue detected or resolved events", "")
			record.Issues = tt.issues

			_, err := c.Classify(record)
			if !errors.Is(err, ErrMissingIssueList) {
				t.Errorf("Expected ErrMissingIssueList, got %v", err)
			}
		})
	}
}

func TestClassifier_LiveMeeting(t *testing.T) {
	c := NewClassifier(DefaultSubtypeRules)

	got, err := c.Classify(&AlertRecord{
		Type:     "Meetings",
		Category: CategoryMeeting,
		Subtype:  "Device live meeting alert",
		Summary:  "Ongoing meeting issue",
	})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got.Group != GroupDeviceLiveMeeting {
		t.Errorf("Expected group %q, got %q", GroupDeviceLiveMeeting, got.Group)
	}
	if !reflect.DeepEqual(got.IssueKeys, []string{LiveMeetingIssueKey}) {
		t.Errorf("Expected [%s], got %v", LiveMeetingIssueKey, got.IssueKeys)
	}
}

func TestClassifier_UnsupportedSubtype(t *testing.T) {
	c := NewClassifier(DefaultSubtypeRules)

	tests := []struct {
		name   string
		record *AlertRecord
	}{
		{"device", deviceRecord("Firmware upgrade events", "")},
		{"meeting", &AlertRecord{Type: "Meetings", Category: CategoryMeeting, Subtype: "Meeting quality"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Classify(tt.record)
			if !errors.Is(err, ErrUnsupportedSubtype) {
				t.Errorf("Expected ErrUnsupportedSubtype, got %v", err)
			}

			var ce *ClassificationError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected *ClassificationError, got %T", err)
			}
			if ce.Subtype != tt.record.Subtype {
				t.Errorf("Expected subtype %q in error, got %q", tt.record.Subtype, ce.Subtype)
			}
		})
	}
}

func TestClassifier_UnsupportedCategory(t *testing.T) {
	c := NewClassifier(DefaultSubtypeRules)

	for _, typ := range []string{"Unknown", "Calling", ""} {
		t.Run(typ, func(t *testing.T) {
			_, err := c.Classify(&AlertRecord{Type: typ, Subtype: "Offline and online events", Summary: "online"})
			if !errors.Is(err, ErrUnsupportedCategory) {
				t.Errorf("Expected ErrUnsupportedCategory, got %v", err)
			}
		})
	}
}

func TestClassifier_CategoryWithoutRules(t *testing.T) {
	c := NewClassifier(DefaultSubtypeRules[:2])

	_, err := c.Classify(&AlertRecord{Type: "Meetings", Category: CategoryMeeting, Subtype: "Device live meeting alert"})
	if !errors.Is(err, ErrUnsupportedCategory) {
		t.Errorf("Expected ErrUnsupportedCategory when no Meetings rules exist, got %v", err)
	}
}

func TestClassifier_LaterRuleReplacesEarlier(t *testing.T) {
	rules := append([]SubtypeRule{}, DefaultSubtypeRules...)
	rules = append(rules, SubtypeRule{
		Category: CategoryMeeting,
		Subtype:  "Device live meeting alert",
		Group:    "live_meetings_v2",
		Strategy: StrategyFixed,
		FixedKey: "meeting_alert",
	})
	c := NewClassifier(rules)

	if len(c.Rules()) != len(DefaultSubtypeRules) {
		t.Errorf("Expected %d rules, got %d", len(DefaultSubtypeRules), len(c.Rules()))
	}

	got, err := c.Classify(&AlertRecord{Type: "Meetings", Subtype: "Device live meeting alert"})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got.Group != "live_meetings_v2" || got.IssueKeys[0] != "meeting_alert" {
		t.Errorf("Expected replacement rule to apply, got %+v", got)
	}
}

func TestClassificationError_Message(t *testing.T) {
	err := &ClassificationError{
		Kind:     KindUnconfiguredIssue,
		Category: "Devices",
		Subtype:  "Issue detected or resolved events",
		IssueKey: "fancheck",
	}

	expected := `no template configured for issue (category: "Devices", subtype: "Issue detected or resolved events", issue: "fancheck")`
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, ErrUnconfiguredIssue) {
		t.Error("Expected errors.Is to match ErrUnconfiguredIssue")
	}
}
