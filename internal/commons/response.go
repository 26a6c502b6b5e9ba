package commons

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "minierp/internal/errors"
)

// 1 MiB is far above any legitimate request body of this API.
const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	TraceID    string                       `json:"traceId"`
	Status     int                          `json:"status"`
	Code       string                       `json:"code"`
	Message    string                       `json:"message"`
	Suggestion string                       `json:"suggestion,omitempty"`
	Details    []apperrors.ValidationDetail `json:"details,omitempty"`
	Timestamp  time.Time                    `json:"timestamp"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// TraceLogger tags every log line of one request with a fresh traceId.
func TraceLogger(logger *zap.Logger) (string, *zap.Logger) {
	traceID := uuid.New().String()
	return traceID, logger.With(zap.String("traceId", traceID))
}

func WriteJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func WriteError(w http.ResponseWriter, logger *zap.Logger, traceID string, status int, code, message string) {
	WriteJSON(w, logger, status, ErrorResponse{
		TraceID:   traceID,
		Status:    status,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func WriteValidationError(w http.ResponseWriter, logger *zap.Logger, traceID string, ve *apperrors.ValidationError) {
	WriteJSON(w, logger, http.StatusBadRequest, ErrorResponse{
		TraceID:   traceID,
		Status:    http.StatusBadRequest,
		Code:      "VALIDATION_ERROR",
		Message:   ve.Message,
		Details:   ve.Details,
		Timestamp: time.Now().UTC(),
	})
}

// WriteAppError maps the error taxonomy to HTTP. Anything unrecognised is
// logged in full and answered with a sanitized 500.
func WriteAppError(w http.ResponseWriter, logger *zap.Logger, traceID string, err error) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		WriteValidationError(w, logger, traceID, ve)
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		WriteError(w, logger, traceID, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}

	if _, ok := apperrors.IsInsufficientStockError(err); ok {
		WriteError(w, logger, traceID, http.StatusBadRequest, "INSUFFICIENT_STOCK", err.Error())
		return
	}

	if ce, ok := apperrors.IsConflictError(err); ok {
		WriteJSON(w, logger, http.StatusConflict, ErrorResponse{
			TraceID:    traceID,
			Status:     http.StatusConflict,
			Code:       "CONFLICT",
			Message:    ce.Message,
			Suggestion: ce.Suggestion,
			Timestamp:  time.Now().UTC(),
		})
		return
	}

	if _, ok := apperrors.IsUnauthorizedError(err); ok {
		WriteError(w, logger, traceID, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
		return
	}

	if _, ok := apperrors.IsForbiddenError(err); ok {
		WriteError(w, logger, traceID, http.StatusForbidden, "FORBIDDEN", err.Error())
		return
	}

	if _, ok := apperrors.IsDeadlockError(err); ok {
		WriteError(w, logger, traceID, http.StatusConflict, "DEADLOCK", err.Error())
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	WriteError(w, logger, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
}

// DecodeJSON rejects unknown fields and trailing data.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must contain a single JSON object",
		})
	}
	return nil
}

func ParseIDParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, apperrors.ValidationDetail{
			Field:   name,
			Message: name + " must be a positive integer",
		})
	}
	return id, nil
}
