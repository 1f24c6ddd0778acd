// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/meetscribe/meetscribe/internal/log"
	"github.com/meetscribe/meetscribe/internal/meeting"
)

// HeaderRequestID is the canonical request correlation header.
const HeaderRequestID = "X-Request-Id"

// writeProblem writes an RFC 7807 problem details response.
//
// Semantics:
//   - type: Canonical machine identifier (e.g. "meetings/not_found").
//   - title: Human-readable short label (e.g. "Not Found").
//   - detail: Human-readable explanation of the specific error.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, title, detail string) {
	reqID := log.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = w.Header().Get(HeaderRequestID)
	}

	res := map[string]any{
		"type":       problemType,
		"title":      title,
		"status":     status,
		"request_id": reqID,
	}
	if detail != "" {
		res["detail"] = detail
	}
	if instance := r.URL.EscapedPath(); instance != "" {
		res["instance"] = instance
	}

	w.Header().Set(HeaderRequestID, reqID)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		logger := log.L()
		logger.Error().
			Err(err).
			Str("type", problemType).
			Int("status", status).
			Msg("failed to encode problem response")
	}
}

// writeDomainError maps the lifecycle/search error taxonomy onto HTTP
// status codes: validation 400, not found 404, state conflict 409,
// everything else 500 with no partial state committed.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *meeting.ValidationError
	switch {
	case errors.As(err, &ve):
		writeProblem(w, r, http.StatusBadRequest,
			"meetings/validation_failed", "Validation Failed", ve.Error())
	case errors.Is(err, meeting.ErrNotFound):
		writeProblem(w, r, http.StatusNotFound,
			"meetings/not_found", "Not Found", err.Error())
	case errors.Is(err, meeting.ErrInvalidState):
		writeProblem(w, r, http.StatusConflict,
			"meetings/invalid_state", "Invalid State", err.Error())
	default:
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "request.failed").
			Str(log.FieldPath, r.URL.Path).
			Msg("unexpected error handling request")
		writeProblem(w, r, http.StatusInternalServerError,
			"meetings/internal", "Internal Server Error", "an unexpected error occurred")
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
