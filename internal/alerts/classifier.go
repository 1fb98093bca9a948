package alerts

import (
	"strings"
)

// Classification is the outcome of classifying one alert: the template group
// to look in and the issue keys to file tickets for, in order.
type Classification struct {
	Category  Category
	Subtype   string
	Group     SubtypeGroup
	IssueKeys []string
}

type ruleKey struct {
	category Category
	subtype  string
}

// Classifier decides which template group and issue keys apply to an alert.
// It is read-only after construction and safe for concurrent use.
type Classifier struct {
	rules      map[ruleKey]SubtypeRule
	categories map[Category]bool
	ordered    []SubtypeRule
}

// NewClassifier builds a classifier from a subtype table. Later rules for the
// same (category, subtype) replace earlier ones.
func NewClassifier(rules []SubtypeRule) *Classifier {
	c := &Classifier{
		rules:      make(map[ruleKey]SubtypeRule),
		categories: make(map[Category]bool),
	}
	for _, rule := range rules {
		key := ruleKey{category: rule.Category, subtype: rule.Subtype}
		if _, exists := c.rules[key]; !exists {
			c.ordered = append(c.ordered, rule)
		} else {
			for i := range c.ordered {
				if c.ordered[i].Category == rule.Category && c.ordered[i].Subtype == rule.Subtype {
					c.ordered[i] = rule
				}
			}
		}
		c.rules[key] = rule
		c.categories[rule.Category] = true
	}
	return c
}

// Rules returns the subtype table in definition order
func (c *Classifier) Rules() []SubtypeRule {
	out := make([]SubtypeRule, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Classify resolves the template group and issue keys for an alert.
// The returned error is always a *ClassificationError.
func (c *Classifier) Classify(record *AlertRecord) (*Classification, error) {
	category := record.Category
	if category == "" {
		category = ParseCategory(record.Type)
	}

	if category == CategoryUnknown || !c.categories[category] {
		return nil, &ClassificationError{
			Kind:     KindUnsupportedCategory,
			Category: record.Type,
			Subtype:  record.Subtype,
		}
	}

	rule, ok := c.rules[ruleKey{category: category, subtype: record.Subtype}]
	if !ok {
		return nil, &ClassificationError{
			Kind:     KindUnsupportedSubtype,
			Category: string(category),
			Subtype:  record.Subtype,
		}
	}

	keys, err := issueKeys(rule, record)
	if err != nil {
		return nil, err
	}

	return &Classification{
		Category:  category,
		Subtype:   record.Subtype,
		Group:     rule.Group,
		IssueKeys: keys,
	}, nil
}

func issueKeys(rule SubtypeRule, record *AlertRecord) ([]string, error) {
	switch rule.Strategy {
	case StrategySummaryKeywords:
		summary := strings.ToLower(record.Summary)
		for _, keyword := range rule.Keywords {
			if strings.Contains(summary, strings.ToLower(keyword)) {
				return []string{keyword}, nil
			}
		}
		return nil, &ClassificationError{
			Kind:     KindAmbiguousSummary,
			Category: string(rule.Category),
			Subtype:  rule.Subtype,
			Detail:   "summary: " + summary,
		}

	case StrategyDetectedIssues:
		if record.Issues == nil || record.Issues.Detected == nil {
			return nil, &ClassificationError{
				Kind:     KindMissingIssueList,
				Category: string(rule.Category),
				Subtype:  rule.Subtype,
			}
		}
		keys := make([]string, len(record.Issues.Detected))
		copy(keys, record.Issues.Detected)
		return keys, nil

	case StrategyFixed:
		return []string{rule.FixedKey}, nil
	}

	return nil, &ClassificationError{
		Kind:     KindUnsupportedSubtype,
		Category: string(rule.Category),
		Subtype:  rule.Subtype,
		Detail:   "unknown issue strategy " + string(rule.Strategy),
	}
}
