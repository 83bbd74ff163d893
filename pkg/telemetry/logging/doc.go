// Package logging provides structured logging with sensitive-value redaction.
//
// # Overview
//
// The logging package builds a log/slog logger with:
//   - JSON or text output
//   - Configurable log levels (debug, info, warn, error)
//   - Redaction of string attributes through a Redactor, normally the
//     leak detector itself, so scanned content never reaches logs in clear
//   - Request IDs carried in the context and added to every record
//
// # Usage
//
//	det := detector.New()
//	logger, err := logging.New(logging.Config{
//	    Level:    "info",
//	    Format:   "json",
//	    Redactor: det,
//	})
//
//	ctx := logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "scan received", "text", input)
//	// text is logged with emails, phone numbers and keys masked
package logging
