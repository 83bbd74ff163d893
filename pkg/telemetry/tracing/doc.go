// Package tracing provides OpenTelemetry tracing for leakscan.
//
// Spans are exported over OTLP/gRPC when tracing is enabled; otherwise a
// noop tracer is used. W3C Trace Context is extracted from incoming API
// requests so scans join the caller's trace.
//
// # Sampling Strategies
//
//   - always: Sample all traces (development/debugging)
//   - never: Sample no traces
//   - ratio: Sample a fraction of traces by trace ID
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version.Version)
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "scan.analyze")
//	defer span.End()
//	tracing.SetScanAttributes(span, "input", result)
//
// Span attributes never carry scanned text or matched values.
package tracing
