// Package scan runs leak analysis on behalf of a caller.
//
// A Service wraps an Analyzer (normally a *detector.Detector) and adds the
// bookkeeping that every entry point needs: a scan ID, a tracing span,
// metrics and a debug log line. The three request kinds mirror where the
// text came from:
//
//   - page: the full visible text of a document
//   - selection: text the user highlighted; an empty selection is an error
//   - input: text typed or pasted directly
//
// Example:
//
//	svc := scan.NewService(det, scan.Options{Recorder: collector, Tracer: tracer})
//	report, err := svc.Scan(ctx, scan.Request{Kind: scan.KindInput, Text: text})
package scan
