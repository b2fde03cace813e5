package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without field",
			appErr:   &AppError{Message: "something went wrong"},
			expected: "something went wrong",
		},
		{
			name:     "with field",
			appErr:   &AppError{Message: "is required", Field: "url"},
			expected: "url: is required",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	t.Parallel()

	originalErr := errors.New("original error")
	appErr := &AppError{Err: originalErr, Message: "wrapped error"}

	assert.Equal(t, originalErr, appErr.Unwrap())
	assert.True(t, errors.Is(appErr, originalErr))
}

func TestConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantMsg    string
		sentinel   error
	}{
		{"not found", NotFound("watchlist item"), http.StatusNotFound, "watchlist item not found", ErrNotFound},
		{"bad request", BadRequest("bad input"), http.StatusBadRequest, "bad input", ErrBadRequest},
		{"validation", ValidationError("url", "url is required"), http.StatusBadRequest, "url is required", ErrValidation},
		{"unauthorized default", Unauthorized(""), http.StatusUnauthorized, "unauthorized", ErrUnauthorized},
		{"internal", Internal(ErrInternal), http.StatusInternalServerError, InternalMessage, ErrInternal},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantMsg, tt.err.Message)
			assert.True(t, errors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestGetStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"AppError", &AppError{StatusCode: http.StatusTeapot}, http.StatusTeapot},
		{"wrapped AppError", fmt.Errorf("service: %w", NotFound("item")), http.StatusNotFound},
		{"ErrNotFound", ErrNotFound, http.StatusNotFound},
		{"ErrUnauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"ErrBadRequest", ErrBadRequest, http.StatusBadRequest},
		{"ErrValidation", ErrValidation, http.StatusBadRequest},
		{"unknown error", errors.New("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, GetStatusCode(tt.err))
		})
	}
}

func TestGetMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"AppError", &AppError{Message: "custom message"}, "custom message"},
		{"AppError with field", ValidationError("ids", "must be an array"), "ids: must be an array"},
		{"sentinel 404", ErrNotFound, "resource not found"},
		{"raw database error is hidden", errors.New("pq: connection refused"), InternalMessage},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, GetMessage(tt.err))
		})
	}
}
