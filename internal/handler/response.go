package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wealthpath/pricewatch/internal/apperror"
	"github.com/wealthpath/pricewatch/internal/logger"
)

// SuccessResponse is the envelope of every 2xx body.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
	Data    any  `json:"data,omitempty"`
}

// ErrorResponse is the envelope of every error body.
type ErrorResponse struct {
	Success bool       `json:"success" example:"false"`
	Error   ErrorField `json:"error"`
}

type ErrorField struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// respondJSON writes data inside a success envelope with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, SuccessResponse{Success: true, Data: data})
}

// respondError writes a JSON error response with the given status code and message.
func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorField{Message: message}})
}

// respondAppError maps err to its status. Unclassified errors are logged in full
// and answered with a generic message.
func respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.GetStatusCode(err)
	var appErr *apperror.AppError
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("Request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		if !errors.As(err, &appErr) {
			err = apperror.Internal(err)
		}
	}

	resp := ErrorResponse{Error: ErrorField{Message: apperror.GetMessage(err)}}
	if errors.As(err, &appErr) {
		resp.Error.Field = appErr.Field
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
