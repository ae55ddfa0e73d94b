package crud

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/syssam/saint"
)

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps an error to the status code of its response.
func statusOf(err error) int {
	switch {
	case saint.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, saint.ErrCapability), errors.Is(err, saint.ErrReadonly):
		return http.StatusForbidden
	case saint.IsValidationError(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError reports err as an error array. Server errors are logged.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "crud request failed",
			slog.String("controller", h.ctrl.Name()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	writeJSON(w, status, ErrorResponse{Status: StatusError, Errors: saint.Messages(err)})
}

// badRequest reports a malformed request.
func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Status: StatusError, Errors: []string{msg}})
}
