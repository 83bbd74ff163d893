// leakscan classifies text for potential information leaks.
//
// It scores text against a table of sensitive-data patterns (resident
// registration numbers, phone numbers, card numbers, credentials, ...),
// sensitive keyword categories and an optional ML keyword table exported by
// an offline training pipeline.
//
// Usage:
//
//	# Scan text directly
//	leakscan scan --text "주민번호 900101-1234567"
//
//	# Scan files, failing the build if any leaks
//	leakscan scan --fail-on-leak notes.txt report.txt
//
//	# Scan stdin with an exported tuning document
//	cat page.txt | leakscan scan --tuning ml_patterns.json --format json
//
//	# Run the HTTP API
//	leakscan serve --config /etc/leakscan/config.yaml
//
//	# Show the active rule tables
//	leakscan rules
//
//	# Check a tuning document before deploying it
//	leakscan tuning validate ml_patterns.json
package main

func main() {
	Execute()
}
