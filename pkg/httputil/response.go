package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/leogadddd/ordura-v2/pkg/errors"
	"github.com/leogadddd/ordura-v2/pkg/logger"
	"github.com/leogadddd/ordura-v2/pkg/validator"
)

// Envelope statuses. Every response body carries exactly one of these.
const (
	StatusSuccess         = "success"
	StatusError           = "error"
	StatusValidationError = "validation_error"
)

// Response is the JSON envelope used on every route, success or failure.
type Response struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Data      any               `json:"data,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, headers are already sent so nothing can be done.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope with the given HTTP status and payload.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Status:    StatusSuccess,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// WriteError writes an error envelope based on the error type. AppError values
// keep their own status and message; bare sentinels map through HTTPStatus.
// Anything unrecognized becomes a 500 with a generic message so internal
// details never leak to clients. It prefers the request-scoped logger from
// context (set by the RequestLogger middleware) over the fallback logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}

	status := apperrors.HTTPStatus(err)
	message := "an internal error occurred"

	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		status = appErr.Status
		message = appErr.Message
	case errors.Is(err, apperrors.ErrNotFound):
		message = "resource not found"
	case errors.Is(err, apperrors.ErrAlreadyExists):
		message = "resource already exists"
	case errors.Is(err, apperrors.ErrInvalidInput):
		message = err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		message = "unauthorized"
	case errors.Is(err, apperrors.ErrForbidden):
		message = "forbidden"
	}

	if status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		message = "an internal error occurred"
	}

	WriteJSON(w, status, Response{
		Status:    StatusError,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// WriteValidationError writes a validation_error envelope with field-level
// errors when the error is a validator.ValidationError, and a plain 400
// error envelope otherwise.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Status:    StatusValidationError,
			Message:   "request validation failed",
			Errors:    valErr.Fields(),
			Timestamp: time.Now().UTC(),
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Status:    StatusError,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	})
}

// PaginatedData is the list payload placed in the Data field of the envelope.
type PaginatedData[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPaginatedData constructs a PaginatedData from the given items, total
// count, page, and per-page values. It computes TotalPages and HasNext.
func NewPaginatedData[T any](items []T, totalCount, page, perPage int) PaginatedData[T] {
	totalPages := totalCount / perPage
	if totalCount%perPage > 0 {
		totalPages++
	}
	if items == nil {
		items = []T{}
	}
	return PaginatedData[T]{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}
