package alerts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SubtypeGroup is the template bucket a (category, subtype) pair resolves to
type SubtypeGroup string

const (
	GroupOfflineOnline     SubtypeGroup = "offline_online"
	GroupIssues            SubtypeGroup = "issues"
	GroupDeviceLiveMeeting SubtypeGroup = "device_live_meeting"
)

// IssueStrategy selects how issue keys are derived from an alert
type IssueStrategy string

const (
	// StrategySummaryKeywords picks the first keyword found in the summary (case-insensitive)
	StrategySummaryKeywords IssueStrategy = "summary_keywords"
	// StrategyDetectedIssues uses every entry of issues.detected
	StrategyDetectedIssues IssueStrategy = "detected_issues"
	// StrategyFixed always yields FixedKey
	StrategyFixed IssueStrategy = "fixed"
)

// LiveMeetingIssueKey is the single issue key of live meeting alerts
const LiveMeetingIssueKey = "live_meeting_alert"

// SubtypeRule maps one (category, subtype) pair to its template group
type SubtypeRule struct {
	Category Category      `yaml:"category" json:"category"`
	Subtype  string        `yaml:"subtype" json:"subtype"`
	Group    SubtypeGroup  `yaml:"group" json:"group"`
	Strategy IssueStrategy `yaml:"strategy" json:"strategy"`
	Keywords []string      `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	FixedKey string        `yaml:"fixed_key,omitempty" json:"fixed_key,omitempty"`
}

// DefaultSubtypeRules covers the Control Hub alert subtypes the bridge supports
var DefaultSubtypeRules = []SubtypeRule{
	{
		Category: CategoryDevice,
		Subtype:  "Offline and online events",
		Group:    GroupOfflineOnline,
		Strategy: StrategySummaryKeywords,
		Keywords: []string{"online", "offline"},
	},
	{
		Category: CategoryDevice,
		Subtype:  "Issue detected or resolved events",
		Group:    GroupIssues,
		Strategy: StrategyDetectedIssues,
	},
	{
		Category: CategoryMeeting,
		Subtype:  "Device live meeting alert",
		Group:    GroupDeviceLiveMeeting,
		Strategy: StrategyFixed,
		FixedKey: LiveMeetingIssueKey,
	},
}

// Validate checks that a rule is usable by the classifier
func (r SubtypeRule) Validate() error {
	if ParseCategory(string(r.Category)) == CategoryUnknown {
		return fmt.Errorf("rule %q: unsupported category %q", r.Subtype, r.Category)
	}
	if r.Subtype == "" {
		return fmt.Errorf("rule for %s: subtype is required", r.Category)
	}
	if r.Group == "" {
		return fmt.Errorf("rule %q: group is required", r.Subtype)
	}
	switch r.Strategy {
	case StrategySummaryKeywords:
		if len(r.Keywords) == 0 {
			return fmt.Errorf("rule %q: summary_keywords strategy needs keywords", r.Subtype)
		}
	case StrategyDetectedIssues:
	case StrategyFixed:
		if r.FixedKey == "" {
			return fmt.Errorf("rule %q: fixed strategy needs fixed_key", r.Subtype)
		}
	default:
		return fmt.Errorf("rule %q: unknown strategy %q", r.Subtype, r.Strategy)
	}
	return nil
}

// LoadSubtypeRules reads a YAML list of subtype rules
func LoadSubtypeRules(path string) ([]SubtypeRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtype rules: %w", err)
	}

	var rules []SubtypeRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse subtype rules %s: %w", path, err)
	}

	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
	}
	return rules, nil
}
