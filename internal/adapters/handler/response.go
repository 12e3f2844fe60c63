package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

const ErrCodeValidation = "VALIDATION_ERROR"

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := APIResponse{
		Success: status >= 200 && status < 300,
	}

	if response.Success {
		response.Data = data
	} else {
		if apiErr, ok := data.(*APIError); ok {
			response.Error = apiErr
		}
	}

	_ = json.NewEncoder(w).Encode(response)
}

// StatusFor maps an error to the HTTP status the API answers with. Business declines are
// not errors and never reach it.
func StatusFor(err error) int {
	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}

	switch domainErr.Code {
	case domain.ErrCodeUnknownBank:
		return http.StatusNotFound
	case domain.ErrCodeInvalidTransition:
		return http.StatusConflict
	case domain.ErrCodeIndeterminate:
		return http.StatusGatewayTimeout
	}

	switch domain.Categorize(err) {
	case domain.CategoryConfiguration:
		return http.StatusBadRequest
	case domain.CategoryAuthentication:
		return http.StatusUnprocessableEntity
	case domain.CategoryTransport:
		return http.StatusBadGateway
	}

	if domainErr.Code == ErrCodeValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// WriteError renders err in the API envelope. details, when present, is attached to the
// error body: a declined outcome or an indeterminate one the caller must resolve.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger, details ...interface{}) {
	status := StatusFor(err)

	apiErr := &APIError{Code: "INTERNAL_ERROR", Message: "internal server error"}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		apiErr.Code = domainErr.Code
		apiErr.Message = domainErr.Message
	}
	if len(details) > 0 {
		apiErr.Details = details[0]
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", apiErr.Code, "error", err)
	} else {
		logger.Warn("request rejected", "code", apiErr.Code, "error", err)
	}

	respondWithJSON(w, status, apiErr)
}
