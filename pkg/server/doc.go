// Package server exposes the leak detector over HTTP.
//
// # Routes
//
//   - POST /v1/scan - Analyze a piece of text, returns a scan report
//   - GET /v1/rules - Current rule tables and tuning loader status
//   - GET /healthz - Liveness probe (always 200 while the process serves)
//   - GET /readyz - Readiness probe (503 until the first tuning load finishes)
//   - GET /version - Build information
//   - GET /metrics - Prometheus metrics (path configurable)
//
// # Middleware Chain
//
// Requests pass through the following middleware (innermost to outermost):
//  1. CORS: Adds Cross-Origin Resource Sharing headers when enabled
//  2. Logging: Logs request/response details, tagged with the request ID
//  3. Tracing: Extracts W3C trace context from incoming headers
//  4. RequestID: Generates or propagates X-Request-ID
//  5. Recovery: Recovers from panics and returns a 500 error
//
// # Errors
//
// Every error response has the same shape:
//
//	{"error": {"type": "invalid_request_error", "message": "..."}}
//
// # Graceful Shutdown
//
// Start blocks until its context is cancelled, then stops accepting new
// connections and waits up to the configured shutdown timeout for active
// requests to finish.
package server
