// Package handler exposes the local row-store server's HTTP surface: the
// REST row endpoints the rest adapter speaks against, plus sign-up and
// sign-in.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/rowstore"
)

// ErrorResponse is the error shape every endpoint returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps the error taxonomy to HTTP. Row-store errors carry their
// own status code and pass through unchanged.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	errorType := "internal_error"
	message := "something went wrong"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		errorType = "forbidden"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		errorType = "conflict"
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	var remote *rowstore.RemoteError
	if errors.As(err, &remote) && remote.Code >= 400 {
		status = remote.Code
		errorType = "store_error"
		message = remote.Message
	}

	writeJSON(w, status, ErrorResponse{Error: errorType, Message: message})
}
