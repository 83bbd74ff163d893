package detector

import (
	"errors"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Detector classifies text using pattern, keyword and ML keyword tables.
type Detector struct {
	rules atomic.Pointer[rulebook]

	// writeMu serializes Apply; readers never take it.
	writeMu sync.Mutex

	now func() time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock sets the time source used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		if now != nil {
			d.now = now
		}
	}
}

// New creates a Detector with the built-in tables.
func New(opts ...Option) *Detector {
	d := &Detector{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	d.rules.Store(defaultRulebook())
	return d
}

// Version returns the number of tuning merges applied so far.
func (d *Detector) Version() uint64 {
	return d.rules.Load().version
}

// AnalyzeAny analyzes v if it is a string or a non-nil *string.
// Any other value yields the empty result.
func (d *Detector) AnalyzeAny(v any) *Result {
	switch s := v.(type) {
	case string:
		return d.Analyze(s)
	case *string:
		if s != nil {
			return d.Analyze(*s)
		}
	}
	return d.emptyResult()
}

// Analyze classifies text against the tables current at call time.
// It never fails; empty input yields the empty result.
func (d *Detector) Analyze(text string) *Result {
	if text == "" {
		return d.emptyResult()
	}

	rb := d.rules.Load()
	result := &Result{
		Patterns:     make(map[string]PatternHit),
		Keywords:     make(map[string][]string),
		MatchedItems: make([]MatchedItem, 0),
		Timestamp:    d.now(),
		RulesVersion: rb.version,
	}

	var total float64

	// Pattern rules
	for _, rule := range rb.patterns {
		matches := findMatches(rule.re, text)
		if len(matches) == 0 {
			continue
		}

		hit := PatternHit{Count: len(matches), Samples: make([]string, 0, min(len(matches), MaxSamples))}
		for i, m := range matches {
			masked := Mask(rule.tag, m)
			if i < MaxSamples {
				hit.Samples = append(hit.Samples, masked)
			}
			result.MatchedItems = append(result.MatchedItems, MatchedItem{
				Tag:    rule.tag,
				Value:  m,
				Masked: masked,
			})
		}

		result.Patterns[rule.tag] = hit
		result.PatternTags = append(result.PatternTags, rule.tag)
		total += float64(WeightFor(rule.tag) * len(matches))
	}

	// Keyword categories
	lower := strings.ToLower(text)
	for _, kc := range rb.keywords {
		var matched []string
		for i, kw := range kc.lowered {
			if strings.Contains(lower, kw) {
				matched = append(matched, kc.keywords[i])
			}
		}
		if len(matched) == 0 {
			continue
		}
		result.Keywords[kc.category] = matched
		result.KeywordCategories = append(result.KeywordCategories, kc.category)
		total += float64(len(matched) * KeywordWeight)
	}

	// ML keywords
	result.MLScore = mlScore(lower, rb.ml)
	total += result.MLScore

	result.RiskScore = clampScore(total)
	result.Tier = TierFor(result.RiskScore)
	result.IsLeak = result.RiskScore > LeakThreshold
	result.Summary = summarize(result.Tier, result.PatternTags, result.KeywordCategories)

	return result
}

// findMatches returns all non-overlapping, non-empty matches of re in text.
func findMatches(re *regexp.Regexp, text string) []string {
	all := re.FindAllString(text, -1)
	if len(all) == 0 {
		return nil
	}
	out := all[:0]
	for _, m := range all {
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

func (d *Detector) emptyResult() *Result {
	return &Result{
		Tier:         TierLow,
		Patterns:     make(map[string]PatternHit),
		Keywords:     make(map[string][]string),
		MatchedItems: make([]MatchedItem, 0),
		Summary:      SummaryNoText,
		Timestamp:    d.now(),
		RulesVersion: d.Version(),
	}
}

// Redact returns text with every pattern match replaced by its masked form.
// Rules are applied in table order to the progressively redacted text.
func (d *Detector) Redact(text string) string {
	if text == "" {
		return text
	}
	for _, rule := range d.rules.Load().patterns {
		tag := rule.tag
		text = rule.re.ReplaceAllStringFunc(text, func(m string) string {
			return Mask(tag, m)
		})
	}
	return text
}

var errEmptyExpression = errors.New("empty expression")

// Apply merges tuning overrides into the detector.
//
// Each pattern is compiled case-insensitively; an entry that fails to
// compile is skipped and reported without affecting the others. Keyword
// categories replace same-named categories. A non-nil MLKeywords replaces
// the ML table. The new tables become visible atomically.
func (d *Detector) Apply(t Tuning) MergeReport {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	next := d.rules.Load().clone()
	var report MergeReport

	for _, name := range sortedKeys(t.Patterns) {
		expr := t.Patterns[name]
		tag := CanonicalName(name)
		if tag == "" || strings.TrimSpace(expr) == "" {
			report.PatternErrors = append(report.PatternErrors, PatternError{Tag: name, Source: expr, Err: errEmptyExpression})
			continue
		}
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			report.PatternErrors = append(report.PatternErrors, PatternError{Tag: tag, Source: expr, Err: err})
			continue
		}
		next.setPattern(patternRule{tag: tag, expr: expr, re: re, origin: OriginExternal})
		report.PatternsApplied = append(report.PatternsApplied, tag)
	}

	for _, name := range sortedKeys(t.SensitiveKeywords) {
		category := CanonicalName(name)
		if category == "" {
			continue
		}
		next.setCategory(newKeywordCategory(category, t.SensitiveKeywords[name]))
		report.CategoriesApplied = append(report.CategoriesApplied, category)
	}

	if t.MLKeywords != nil {
		ml := make([]MLKeyword, 0, len(t.MLKeywords))
		for _, kw := range t.MLKeywords {
			if strings.TrimSpace(kw.Keyword) == "" {
				continue
			}
			ml = append(ml, MLKeyword{Keyword: strings.ToLower(kw.Keyword), Weight: kw.Weight})
		}
		next.ml = ml
		report.MLReplaced = true
	}

	next.version++
	d.rules.Store(next)

	report.Version = next.version
	report.MLKeywords = len(next.ml)
	return report
}

// Rules returns a snapshot of the current tables.
func (d *Detector) Rules() RuleSet {
	rb := d.rules.Load()
	rs := RuleSet{
		Version:    rb.version,
		Patterns:   make([]PatternInfo, 0, len(rb.patterns)),
		Keywords:   make([]CategoryInfo, 0, len(rb.keywords)),
		MLKeywords: append([]MLKeyword{}, rb.ml...),
	}
	for _, p := range rb.patterns {
		rs.Patterns = append(rs.Patterns, PatternInfo{
			Tag:        p.tag,
			Expression: p.expr,
			Origin:     p.origin,
			Weight:     WeightFor(p.tag),
		})
	}
	for _, kc := range rb.keywords {
		rs.Keywords = append(rs.Keywords, CategoryInfo{
			Category: kc.category,
			Keywords: append([]string{}, kc.keywords...),
		})
	}
	return rs
}
