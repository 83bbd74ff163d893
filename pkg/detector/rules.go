package detector

import (
	"regexp"
	"sort"
	"strings"
)

// Built-in pattern tags.
const (
	TagResidentID    = "resident-id"
	TagPhone         = "phone"
	TagEmail         = "email"
	TagCreditCard    = "credit-card"
	TagAccountNumber = "account-number"
	TagIPAddress     = "ip-address"
	TagPassword      = "password"
	TagAPIKey        = "api-key"
	TagAWSKey        = "aws-key"
	TagGitHubToken   = "github-token"
)

// Built-in keyword categories.
const (
	CategoryPersonalInfo      = "personal-info"
	CategoryFinancialInfo     = "financial-info"
	CategoryConfidential      = "confidential"
	CategoryAccessCredentials = "access-credentials"
)

const (
	// DefaultWeight applies to any matched tag absent from the weight table.
	DefaultWeight = 20

	// KeywordWeight is added per matched keyword.
	KeywordWeight = 15

	// MaxScore caps the aggregate risk score.
	MaxScore = 100

	// LeakThreshold is the score a result must exceed to count as a leak.
	LeakThreshold = 25

	// MLKeywordCap bounds a single ML keyword's contribution.
	MLKeywordCap = 5

	// MLScoreCap bounds the whole ML sub-score.
	MLScoreCap = 30

	// MaxSamples is the number of masked samples kept per tag.
	MaxSamples = 3
)

// builtinPattern is one entry of the default pattern table.
type builtinPattern struct {
	tag  string
	expr string
}

// builtinPatterns is the default pattern table in evaluation order.
//
// The account-number rule refuses a leading group starting with "01" so that
// mobile numbers (010-xxxx-xxxx) are scored as phones only, and is
// word-bounded so it does not fire inside a resident registration number.
var builtinPatterns = []builtinPattern{
	{TagResidentID, `\d{6}[-\s]?\d{7}`},
	{TagPhone, `01[016789][-\s]?\d{3,4}[-\s]?\d{4}`},
	{TagEmail, `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`},
	{TagCreditCard, `\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}`},
	{TagAccountNumber, `\b(?:[1-9]\d{2,3}|0[02-9]\d{1,2})[-\s]?\d{2,4}[-\s]?\d{4,6}\b`},
	{TagIPAddress, `\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`},
	{TagPassword, `(?i)(password|비밀번호|pwd|passwd)[\s:=]+\S+`},
	{TagAPIKey, `(?i)(api[_-]?key|apikey|secret[_-]?key|access[_-]?token)[\s:=]+\S+`},
	{TagAWSKey, `AKIA[0-9A-Z]{16}`},
	{TagGitHubToken, `ghp_[a-zA-Z0-9]{36}`},
}

// weights is the per-tag risk weight table. It is not configurable.
var weights = map[string]int{
	TagResidentID:    50,
	TagCreditCard:    45,
	TagPassword:      40,
	TagAPIKey:        40,
	TagAWSKey:        45,
	TagGitHubToken:   40,
	TagAccountNumber: 35,
	TagPhone:         20,
	TagEmail:         15,
	TagIPAddress:     15,
}

type builtinCategory struct {
	category string
	keywords []string
}

var builtinKeywords = []builtinCategory{
	{CategoryPersonalInfo, []string{"주민번호", "주민등록", "생년월일", "신분증", "여권번호"}},
	{CategoryFinancialInfo, []string{"계좌", "카드번호", "비밀번호", "인증번호", "cvv", "cvc"}},
	{CategoryConfidential, []string{"기밀", "대외비", "영업비밀", "내부정보", "극비", "1급비밀"}},
	{CategoryAccessCredentials, []string{"admin", "root", "api키", "secret", "token", "credential"}},
}

// aliases maps the rule and category names used by exported tuning
// documents to canonical names.
var aliases = map[string]string{
	"주민등록번호":   TagResidentID,
	"전화번호":     TagPhone,
	"이메일":      TagEmail,
	"신용카드":     TagCreditCard,
	"계좌번호":     TagAccountNumber,
	"IP주소":     TagIPAddress,
	"비밀번호패턴":   TagPassword,
	"API키":     TagAPIKey,
	"AWS키":     TagAWSKey,
	"GitHub토큰": TagGitHubToken,

	"개인정보": CategoryPersonalInfo,
	"금융정보": CategoryFinancialInfo,
	"기업기밀": CategoryConfidential,
	"접근권한": CategoryAccessCredentials,
}

// CanonicalName resolves a tag or category alias to its canonical name.
// Unknown names are returned trimmed but otherwise unchanged.
func CanonicalName(name string) string {
	name = strings.TrimSpace(name)
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}

// WeightFor returns the risk weight of a pattern tag.
func WeightFor(tag string) int {
	if w, ok := weights[CanonicalName(tag)]; ok {
		return w
	}
	return DefaultWeight
}

type patternRule struct {
	tag    string
	expr   string
	re     *regexp.Regexp
	origin Origin
}

type keywordCategory struct {
	category string
	keywords []string
	// lowered holds keywords lowercased once, aligned with keywords.
	lowered []string
}

func newKeywordCategory(category string, keywords []string) keywordCategory {
	kc := keywordCategory{category: category}
	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		kc.keywords = append(kc.keywords, kw)
		kc.lowered = append(kc.lowered, strings.ToLower(kw))
	}
	return kc
}

// rulebook is an immutable snapshot of all detector tables.
type rulebook struct {
	version  uint64
	patterns []patternRule
	keywords []keywordCategory
	ml       []MLKeyword
}

func defaultRulebook() *rulebook {
	rb := &rulebook{
		patterns: make([]patternRule, 0, len(builtinPatterns)),
		keywords: make([]keywordCategory, 0, len(builtinKeywords)),
	}
	for _, p := range builtinPatterns {
		rb.patterns = append(rb.patterns, patternRule{
			tag:    p.tag,
			expr:   p.expr,
			re:     regexp.MustCompile(p.expr),
			origin: OriginBuiltin,
		})
	}
	for _, c := range builtinKeywords {
		rb.keywords = append(rb.keywords, newKeywordCategory(c.category, c.keywords))
	}
	return rb
}

// clone returns a copy whose slices can be modified without affecting rb.
// Entries themselves are treated as immutable and shared.
func (rb *rulebook) clone() *rulebook {
	return &rulebook{
		version:  rb.version,
		patterns: append([]patternRule(nil), rb.patterns...),
		keywords: append([]keywordCategory(nil), rb.keywords...),
		ml:       rb.ml,
	}
}

func (rb *rulebook) setPattern(rule patternRule) {
	for i := range rb.patterns {
		if rb.patterns[i].tag == rule.tag {
			rb.patterns[i] = rule
			return
		}
	}
	rb.patterns = append(rb.patterns, rule)
}

func (rb *rulebook) setCategory(kc keywordCategory) {
	for i := range rb.keywords {
		if rb.keywords[i].category == kc.category {
			rb.keywords[i] = kc
			return
		}
	}
	rb.keywords = append(rb.keywords, kc)
}

// sortedKeys returns map keys in a stable order so that newly added tags
// land in the table deterministically.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
