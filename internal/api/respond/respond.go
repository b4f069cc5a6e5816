// Package respond writes the JSON envelope every endpoint shares: successes
// as {"data": ..., "meta": ...} and failures as {"error": ..., "details": ...}.
// Error responses are logged here so handlers don't repeat themselves.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

type Meta struct {
	Total  int64 `json:"total,omitempty"`
	Limit  int   `json:"limit,omitempty"`
	Offset int   `json:"offset,omitempty"`
}

type envelope struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// Data writes a success envelope.
func Data(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Data: data})
}

// List writes a success envelope with pagination metadata.
func List(w http.ResponseWriter, status int, data any, meta Meta) {
	writeJSON(w, status, envelope{Data: data, Meta: &meta})
}

// Error writes an error envelope and logs the underlying error: 5xx at
// error level, 4xx at warn. The message sent to the client is the public
// one, never err.Error().
func Error(w http.ResponseWriter, r *http.Request, status int, message string, err error, details any) {
	if err != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(message)
	}
	writeJSON(w, status, errorBody{Error: message, Details: details})
}

func Validation(w http.ResponseWriter, r *http.Request, err error, details any) {
	Error(w, r, http.StatusBadRequest, "validation failed", err, details)
}

func Unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	Error(w, r, http.StatusUnauthorized, "authentication required", err, nil)
}

func Forbidden(w http.ResponseWriter, r *http.Request, err error) {
	Error(w, r, http.StatusForbidden, "forbidden", err, nil)
}

func NotFound(w http.ResponseWriter, r *http.Request, err error) {
	Error(w, r, http.StatusNotFound, "not found", err, nil)
}

func Conflict(w http.ResponseWriter, r *http.Request, message string, err error) {
	Error(w, r, http.StatusConflict, message, err, nil)
}

func Internal(w http.ResponseWriter, r *http.Request, err error) {
	Error(w, r, http.StatusInternalServerError, "internal server error", err, nil)
}
