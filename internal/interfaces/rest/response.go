// Package rest carries the HTTP response and error-mapping helpers
// shared by the handlers and middleware.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/domain"
)

// MessageResponse is the body of every error and plain-message reply.
type MessageResponse struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError maps domain and application errors to HTTP responses.
// Internal detail never leaves the process; it is logged and replaced
// with a generic message.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var svcErr *application.ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.Code == application.ErrCodeInternal || svcErr.Code == application.ErrCodeUpstream {
			logger.Error("request failed", "code", svcErr.Code, "error", err)
		}
		WriteJSON(w, svcErr.HTTPStatus, MessageResponse{Message: svcErr.Message})
		return
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		status := http.StatusBadRequest
		switch domainErr.Code {
		case domain.ErrCodeOrderNotFound, domain.ErrCodeBookNotFound:
			status = http.StatusNotFound
		case domain.ErrCodeDuplicateTransaction:
			status = http.StatusConflict
		}
		WriteJSON(w, status, MessageResponse{Message: domainErr.Message})
		return
	}

	logger.Error("unhandled error", "error", err)
	WriteJSON(w, http.StatusInternalServerError, MessageResponse{Message: "An internal error occurred"})
}
