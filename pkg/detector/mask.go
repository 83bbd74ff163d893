package detector

import (
	"regexp"
)

// Shapes the tag-specific masks look for inside a matched value. The
// hidden positions also accept '*' so that masking an already masked value
// returns it unchanged.
var (
	residentShape = regexp.MustCompile(`(\d{6}[-\s]?)[\d*]{7}`)
	cardShape     = regexp.MustCompile(`(\d{4}[-\s]?)[\d*]{4}[-\s]?[\d*]{4}[-\s]?(\d{4})`)
	phoneShape    = regexp.MustCompile(`(01[016789][-\s]?)[\d*]{3,4}([-\s]?\d{4})`)
	emailShape    = regexp.MustCompile(`(.{2})[^@]*(@.*)`)
	accountShape  = regexp.MustCompile(`(\d{3,4}[-\s]?)[\d*]`)
)

const (
	residentMask = "*******"
	accountMask  = "********"
	shortMask    = "***"
)

// Mask returns the display form of a value matched by the rule tagged tag.
// It never returns an error and never panics: a value that lacks the shape
// its tag expects is masked with the generic rule.
func Mask(tag, value string) string {
	if value == "" {
		return value
	}

	var (
		masked string
		ok     bool
	)

	switch CanonicalName(tag) {
	case TagResidentID:
		masked, ok = splice(residentShape, value, func(g []string) string {
			return g[1] + residentMask
		})
	case TagCreditCard:
		masked, ok = splice(cardShape, value, func(g []string) string {
			return g[1] + "****-****-" + g[2]
		})
	case TagPhone:
		masked, ok = splice(phoneShape, value, func(g []string) string {
			return g[1] + "****" + g[2]
		})
	case TagEmail:
		masked, ok = splice(emailShape, value, func(g []string) string {
			return g[1] + shortMask + g[2]
		})
	case TagAccountNumber:
		masked, ok = maskAccount(value)
	}

	if ok {
		return masked
	}
	return maskDefault(value)
}

// splice replaces the first match of re in value with render(groups),
// keeping the text around the match.
func splice(re *regexp.Regexp, value string, render func(groups []string) string) (string, bool) {
	loc := re.FindStringSubmatchIndex(value)
	if loc == nil {
		return "", false
	}

	groups := make([]string, len(loc)/2)
	for i := range groups {
		if start, end := loc[2*i], loc[2*i+1]; start >= 0 {
			groups[i] = value[start:end]
		}
	}

	return value[:loc[0]] + render(groups) + value[loc[1]:], true
}

// maskAccount keeps everything up to and including the leading digit group
// and masks the remainder.
func maskAccount(value string) (string, bool) {
	loc := accountShape.FindStringSubmatchIndex(value)
	if loc == nil {
		return "", false
	}
	return value[:loc[3]] + accountMask, true
}

// maskDefault keeps the first 3 and last 2 characters of values longer than
// 6 characters and replaces shorter values entirely.
func maskDefault(value string) string {
	r := []rune(value)
	if len(r) > 6 {
		return string(r[:3]) + shortMask + string(r[len(r)-2:])
	}
	return shortMask
}
