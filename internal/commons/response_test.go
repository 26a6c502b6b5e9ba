package commons

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "minierp/internal/errors"
)

func TestWriteAppError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", apperrors.NewValidationError("validation failed"), http.StatusBadRequest, "VALIDATION_ERROR", "validation failed"},
		{"not found", apperrors.NewNotFoundError("Order not found"), http.StatusNotFound, "NOT_FOUND", "Order not found"},
		{"insufficient stock", apperrors.NewInsufficientStockError(1, "Widget"), http.StatusBadRequest, "INSUFFICIENT_STOCK", "Insufficient stock for product Widget"},
		{"conflict", apperrors.NewConflictError("Email taken"), http.StatusConflict, "CONFLICT", "Email taken"},
		{"unauthorized", apperrors.NewUnauthorizedError("Invalid email or password"), http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password"},
		{"forbidden", apperrors.NewForbiddenError("forbidden"), http.StatusForbidden, "FORBIDDEN", "forbidden"},
		{"deadlock", apperrors.NewDeadlockError("max retries exceeded"), http.StatusConflict, "DEADLOCK", "max retries exceeded"},
		{"internal", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			WriteAppError(rec, zap.NewNop(), "trace-1", tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.Equal(t, "trace-1", body.TraceID)
		})
	}
}

func TestWriteAppError_ConflictSuggestion(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteAppError(rec, zap.NewNop(), "t", apperrors.NewConflictError("in use").WithSuggestion("deactivate"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "deactivate", body.Suggestion)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"x"}`, false},
		{"malformed", `{"name":`, true},
		{"unknown field", `{"nom":"x"}`, true},
		{"trailing data", `{"name":"x"}{"name":"y"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload

			err := DecodeJSON(req, &p)

			if tt.wantErr {
				_, ok := apperrors.IsValidationError(err)
				assert.True(t, ok)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "x", p.Name)
		})
	}
}

func TestParseIDParam(t *testing.T) {
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", value)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := ParseIDParam(withParam("42"), "id")
	assert.NoError(t, err)
	assert.Equal(t, 42, id)

	for _, bad := range []string{"0", "-3", "abc", ""} {
		_, err := ParseIDParam(withParam(bad), "id")
		_, ok := apperrors.IsValidationError(err)
		assert.True(t, ok, "value %q", bad)
	}
}
