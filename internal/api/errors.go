package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Timestamp        time.Time         `json:"timestamp"`
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	CurrentStatus    string            `json:"currentStatus,omitempty"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

func newErrorResponse(status int, message string) ErrorResponse {
	return ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
	}
}

// writeError maps a service error onto its HTTP status and body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stateErr      *domain.StateError
		validationErr *domain.ValidationError
	)

	var resp ErrorResponse
	switch {
	case errors.As(err, &validationErr):
		resp = newErrorResponse(http.StatusBadRequest, "validation failed")
		resp.ValidationErrors = validationErr.Fields
	case errors.Is(err, domain.ErrNotFound):
		resp = newErrorResponse(http.StatusNotFound, err.Error())
	case errors.As(err, &stateErr):
		resp = newErrorResponse(http.StatusConflict, err.Error())
		resp.CurrentStatus = stateErr.Status
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrLockNotObtained):
		resp = newErrorResponse(http.StatusConflict, "the record was modified concurrently, retry the request")
	case errors.Is(err, domain.ErrInvalidAmount):
		resp = newErrorResponse(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrValidation):
		resp = newErrorResponse(http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
		resp = newErrorResponse(http.StatusInternalServerError, "an unexpected error occurred")
	}

	writeJSON(w, resp.Status, resp)
}

// writeBadRequest reports a body or path parameter that could not be parsed.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, newErrorResponse(http.StatusBadRequest, message))
}
