package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rhythm-workflows/rhythm-go/internal/domain"
)

func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case isBodyTooLarge(err):
		return http.StatusRequestEntityTooLarge
	case domain.IsUnavailable(err), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

// fail writes err with the status its kind maps to. Internal errors are
// logged and answered with a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		s.logger.Debug("request cancelled", "path", r.URL.Path, "request_id", RequestIDFromContext(r.Context()))
		return
	case status == http.StatusInternalServerError:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", RequestIDFromContext(r.Context()))
		msg = "internal server error"
	case status == http.StatusServiceUnavailable:
		s.logger.Warn("dependency unavailable", "path", r.URL.Path, "error", err, "request_id", RequestIDFromContext(r.Context()))
	}
	writeError(w, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
