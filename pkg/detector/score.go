package detector

import (
	"strings"
)

// Summary strings.
const (
	SummaryNoText    = "No text to analyze."
	SummaryNoFinding = "No sensitive information detected."
)

// Tier thresholds, checked from the top.
const (
	criticalThreshold = 70
	highThreshold     = 40
	mediumThreshold   = 25
)

// TierFor maps a risk score to its tier.
func TierFor(score float64) Tier {
	switch {
	case score >= criticalThreshold:
		return TierCritical
	case score >= highThreshold:
		return TierHigh
	case score >= mediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// mlScore sums min(weight*2, 5) over ML keywords contained in lowerText and
// clamps the total to [0, MLScoreCap]. Keywords are stored lowercased.
func mlScore(lowerText string, table []MLKeyword) float64 {
	if len(table) == 0 {
		return 0
	}

	var score float64
	for _, kw := range table {
		if strings.Contains(lowerText, kw.Keyword) {
			score += min(kw.Weight*2, MLKeywordCap)
		}
	}

	return max(0, min(score, MLScoreCap))
}

func clampScore(total float64) float64 {
	return max(0, min(total, MaxScore))
}

// summarize builds the one-line summary for a non-empty analysis.
func summarize(tier Tier, patternTags, categories []string) string {
	if len(patternTags) == 0 && len(categories) == 0 {
		return SummaryNoFinding
	}

	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(tier.Label)
	sb.WriteString("]")

	if len(patternTags) > 0 {
		sb.WriteString(" Detected patterns: ")
		sb.WriteString(strings.Join(patternTags, ", "))
		sb.WriteString(".")
	}

	if len(categories) > 0 {
		sb.WriteString(" Related keywords: ")
		sb.WriteString(strings.Join(categories, ", "))
		sb.WriteString(".")
	}

	return sb.String()
}
