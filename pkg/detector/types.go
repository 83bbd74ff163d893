package detector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Level is a discrete risk bucket.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Tier is a risk level together with its display data.
type Tier struct {
	// Level is the bucket name (low, medium, high, critical).
	Level Level `json:"level"`

	// Label is the human-readable label shown next to the score.
	Label string `json:"label"`

	// Color is the display color as a hex RGB string.
	Color string `json:"color"`
}

// Fixed tiers, ordered low to critical.
var (
	TierLow      = Tier{Level: LevelLow, Label: "Safe", Color: "#27ae60"}
	TierMedium   = Tier{Level: LevelMedium, Label: "Caution", Color: "#f1c40f"}
	TierHigh     = Tier{Level: LevelHigh, Label: "High", Color: "#e67e22"}
	TierCritical = Tier{Level: LevelCritical, Label: "Danger", Color: "#e74c3c"}
)

// Tiers returns all tiers from lowest to highest.
func Tiers() []Tier {
	return []Tier{TierLow, TierMedium, TierHigh, TierCritical}
}

// Result is the outcome of a single Analyze call.
// A Result is never modified after it is returned.
type Result struct {
	// IsLeak is true when RiskScore exceeds the leak threshold (25).
	IsLeak bool `json:"is_leak"`

	// RiskScore is the aggregate score in [0, 100].
	RiskScore float64 `json:"risk_score"`

	// Tier is the risk bucket derived from RiskScore.
	Tier Tier `json:"risk_level"`

	// Patterns maps a matched pattern tag to its count and masked samples.
	Patterns map[string]PatternHit `json:"patterns"`

	// PatternTags lists the keys of Patterns in rule-table order.
	PatternTags []string `json:"pattern_tags"`

	// Keywords maps a matched keyword category to the keywords found.
	Keywords map[string][]string `json:"keywords"`

	// KeywordCategories lists the keys of Keywords in table order.
	KeywordCategories []string `json:"keyword_categories"`

	// MatchedItems holds every individual pattern match.
	MatchedItems []MatchedItem `json:"matched_items"`

	// MLScore is the bounded ML keyword sub-score in [0, 30].
	MLScore float64 `json:"ml_score"`

	// Summary is a one-line human-readable description.
	Summary string `json:"summary"`

	// Timestamp is when the analysis ran.
	Timestamp time.Time `json:"timestamp"`

	// RulesVersion is the tuning version the result was computed against.
	// Zero means built-in defaults only.
	RulesVersion uint64 `json:"rules_version"`
}

// PatternHit summarizes the matches of a single pattern rule.
type PatternHit struct {
	// Count is the number of non-overlapping matches.
	Count int `json:"count"`

	// Samples holds up to the first three matches, masked.
	Samples []string `json:"samples"`
}

// MatchedItem is one pattern match.
type MatchedItem struct {
	Tag    string `json:"type"`
	Value  string `json:"value"`
	Masked string `json:"masked"`
}

// Origin records where a pattern rule came from.
type Origin string

const (
	OriginBuiltin  Origin = "builtin"
	OriginExternal Origin = "external"
)

// MLKeyword is a keyword with a learned importance weight.
//
// It decodes from either the exporter's pair form ["keyword", 1.25] or an
// object {"keyword": "...", "weight": 1.25}.
type MLKeyword struct {
	Keyword string  `json:"keyword" yaml:"keyword"`
	Weight  float64 `json:"weight" yaml:"weight"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *MLKeyword) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var pair []json.RawMessage
		if err := json.Unmarshal(data, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("ml keyword pair must have 2 elements, got %d", len(pair))
		}
		if err := json.Unmarshal(pair[0], &k.Keyword); err != nil {
			return fmt.Errorf("ml keyword: %w", err)
		}
		if err := json.Unmarshal(pair[1], &k.Weight); err != nil {
			return fmt.Errorf("ml keyword %q weight: %w", k.Keyword, err)
		}
		return nil
	}

	type plain MLKeyword
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*k = MLKeyword(p)
	return nil
}

// Tuning is a set of overrides merged into a Detector by Apply.
type Tuning struct {
	// Patterns maps a tag (or a known alias) to a regular expression source.
	// Every entry is compiled case-insensitively.
	Patterns map[string]string

	// SensitiveKeywords maps a category (or alias) to its keyword list.
	// A category here replaces the existing category of the same name.
	SensitiveKeywords map[string][]string

	// MLKeywords replaces the ML keyword table when non-nil.
	// A non-nil empty slice clears it.
	MLKeywords []MLKeyword
}

// MergeReport describes what an Apply call changed.
type MergeReport struct {
	// Version is the rules version after the merge.
	Version uint64

	// PatternsApplied lists the tags whose rule was added or replaced.
	PatternsApplied []string

	// PatternErrors lists the entries that were skipped.
	PatternErrors []PatternError

	// CategoriesApplied lists the keyword categories added or replaced.
	CategoriesApplied []string

	// MLReplaced is true when the ML keyword table was replaced.
	MLReplaced bool

	// MLKeywords is the size of the ML keyword table after the merge.
	MLKeywords int
}

// PatternError is a single pattern entry that could not be merged.
type PatternError struct {
	Tag    string
	Source string
	Err    error
}

// Error implements error.
func (e PatternError) Error() string {
	return fmt.Sprintf("pattern %q: %v", e.Tag, e.Err)
}

// Unwrap returns the underlying compile error.
func (e PatternError) Unwrap() error {
	return e.Err
}

// RuleSet is a read-only view of the detector's current tables.
type RuleSet struct {
	Version    uint64         `json:"version"`
	Patterns   []PatternInfo  `json:"patterns"`
	Keywords   []CategoryInfo `json:"keywords"`
	MLKeywords []MLKeyword    `json:"ml_keywords"`
}

// PatternInfo describes one pattern rule.
type PatternInfo struct {
	Tag        string `json:"tag"`
	Expression string `json:"expression"`
	Origin     Origin `json:"origin"`
	Weight     int    `json:"weight"`
}

// CategoryInfo describes one keyword category.
type CategoryInfo struct {
	Category string   `json:"category"`
	Keywords []string `json:"keywords"`
}
