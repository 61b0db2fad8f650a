package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/alecgard/tripboard/internal/board"
	"github.com/alecgard/tripboard/internal/session"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// errorEnvelope is the standard error response shape.
type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// readJSON decodes the request body into v, enforcing a size limit.
func readJSON(r *http.Request, v any) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	return json.NewDecoder(lr).Decode(v)
}

// statusFor maps a board error class onto an HTTP status.
var statusFor = map[board.Class]int{
	board.ClassValidation: http.StatusUnprocessableEntity,
	board.ClassLogin:      http.StatusUnauthorized,
	board.ClassForbidden:  http.StatusForbidden,
	board.ClassConflict:   http.StatusConflict,
	board.ClassNotFound:   http.StatusNotFound,
	board.ClassThrottled:  http.StatusTooManyRequests,
	board.ClassRemote:     http.StatusBadGateway,
	board.ClassInternal:   http.StatusInternalServerError,
}

// writeBoardError reports a failed board operation. Internal errors are
// logged and their text is not sent to the client.
func writeBoardError(w http.ResponseWriter, r *http.Request, err error) {
	class := board.Classify(err)
	status, ok := statusFor[class]
	if !ok {
		status = http.StatusInternalServerError
	}
	msg := err.Error()
	switch class {
	case board.ClassInternal:
		slog.Error("request failed", "path", r.URL.Path, "request_id", RequestIDFromContext(r.Context()), "error", err)
		msg = "internal server error"
	case board.ClassRemote:
		slog.Warn("remote call failed", "path", r.URL.Path, "error", err)
		msg = "trip service unavailable"
	}
	writeError(w, status, string(class), msg)
}

// writeSessionError reports a failed sign-in step.
func writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidToken):
		writeError(w, http.StatusUnprocessableEntity, "invalid_token", err.Error())
	case errors.Is(err, session.ErrUnknownUser):
		writeError(w, http.StatusNotFound, "unknown_user", err.Error())
	default:
		writeBoardError(w, r, err)
	}
}
