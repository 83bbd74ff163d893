package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"mercator-hq/leakscan/pkg/detector"
	"mercator-hq/leakscan/pkg/scan"
	"mercator-hq/leakscan/pkg/tuning"
)

// scanRequest is the body of POST /v1/scan.
type scanRequest struct {
	Kind   string `json:"kind"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// rulesResponse is the body of GET /v1/rules.
type rulesResponse struct {
	Rules  detector.RuleSet `json:"rules"`
	Tuning *tuning.Status   `json:"tuning,omitempty"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	if s.config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorTypeRequestTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest,
			fmt.Sprintf("invalid JSON body: %v", err))
		return
	}

	report, err := s.scanner.Scan(r.Context(), scan.Request{
		Kind:   scan.Kind(req.Kind),
		Text:   req.Text,
		Source: req.Source,
	})
	switch {
	case errors.Is(err, scan.ErrUnknownKind):
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error())
		return
	case errors.Is(err, scan.ErrEmptySelection):
		writeError(w, http.StatusUnprocessableEntity, ErrorTypeEmptySelection, err.Error())
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "scan failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrorTypeServerError, "scan failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	resp := rulesResponse{Rules: s.rules.Rules()}
	if s.tuning != nil {
		status := s.tuning.Status()
		resp.Tuning = &status
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, ErrorTypeNotFound, fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, ErrorTypeMethodNotAllowed, "method not allowed")
}

// instrument records request metrics under a fixed route label.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		s.metrics.RecordHTTPRequest(route, r.Method, rw.statusCode, time.Since(start))
	})
}
