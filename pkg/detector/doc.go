// Package detector classifies text for leaked or sensitive information.
//
// The detector is a hybrid of three signals, summed into one risk score:
//
//   - Pattern rules: named regular expressions for structured values
//     (resident registration numbers, card numbers, phone numbers, keys)
//   - Keyword categories: literal words whose presence signals a sensitive topic
//   - ML keywords: an externally tuned (keyword, weight) table exported from an
//     offline classifier; bounded so it can never dominate the rule signal
//
// # Usage
//
//	det := detector.New()
//
//	result := det.Analyze("고객 주민번호 900101-1234567 확인요청")
//	if result.IsLeak {
//		log.Warn("possible leak",
//			"score", result.RiskScore,
//			"tier", result.Tier.Level,
//			"summary", result.Summary)
//	}
//
// Tuning documents are merged with Apply, usually through the tuning
// package's Loader which fetches them in the background:
//
//	report := det.Apply(detector.Tuning{
//		Patterns: map[string]string{"employee-id": `EMP-\d{6}`},
//	})
//
// # Scoring
//
// Each pattern match adds its tag weight (default 20), each matched keyword
// adds 15, and the ML sub-score adds at most 30. The sum is capped at 100.
// Tiers: critical >= 70, high >= 40, medium >= 25, low otherwise. A result
// is a leak when the score exceeds 25.
//
// # Masking
//
// Matched values are only ever shown masked. Masking is tag-specific and
// falls back to a generic rule when a value does not have the shape its tag
// expects.
//
// # Thread Safety
//
// Analyze is safe for concurrent use. Rule tables are immutable snapshots
// swapped atomically by Apply, so a concurrent merge is either fully visible
// to a call or not at all.
package detector
