// Copyright 2024 Event Planner Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resilience maps domain errors onto HTTP responses and guards the
// generation backend with a circuit breaker.
package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/event-planner-assistant/internal/catalog"
	"github.com/your-org/event-planner-assistant/internal/mergecache"
	"github.com/your-org/event-planner-assistant/internal/model"
	"github.com/your-org/event-planner-assistant/internal/session"
	"github.com/your-org/event-planner-assistant/internal/suggest"
)

// ErrorResponse represents the standard error response format across all APIs
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorCode represents standard error codes used across the service
type ErrorCode string

const (
	// Client errors (4xx)
	ErrorCodeBadRequest            ErrorCode = "BAD_REQUEST"
	ErrorCodeNotFound              ErrorCode = "NOT_FOUND"
	ErrorCodeSuggestionUnavailable ErrorCode = "SUGGESTION_UNAVAILABLE"
	ErrorCodeSessionNotFound       ErrorCode = "SESSION_NOT_FOUND"
	ErrorCodeConflict              ErrorCode = "CONFLICT"

	// Server errors (5xx)
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrorCodeTimeout            ErrorCode = "TIMEOUT"
)

// ServiceError represents an error with additional context for proper handling
type ServiceError struct {
	Message    string
	Code       ErrorCode
	StatusCode int
	Internal   error
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Internal
}

// ToErrorResponse converts a ServiceError to an ErrorResponse
func (e *ServiceError) ToErrorResponse(requestID string) ErrorResponse {
	return ErrorResponse{
		Error:     e.Message,
		Code:      string(e.Code),
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}
}

// NewServiceError creates a new ServiceError with the given parameters
func NewServiceError(message string, code ErrorCode, statusCode int, internal error) *ServiceError {
	return &ServiceError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Internal:   internal,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, internal error) *ServiceError {
	return NewServiceError(message, ErrorCodeBadRequest, http.StatusBadRequest, internal)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, internal error) *ServiceError {
	return NewServiceError(message, ErrorCodeNotFound, http.StatusNotFound, internal)
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *ServiceError {
	return NewServiceError(message, ErrorCodeInternalError, http.StatusInternalServerError, internal)
}

// ErrorHandler converts errors into service errors and writes them
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{logger: logger}
}

// WrapError classifies err by the domain errors it wraps
func (eh *ErrorHandler) WrapError(err error, operation string) *ServiceError {
	if err == nil {
		return nil
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}

	var wrapped *ServiceError
	switch {
	case errors.Is(err, suggest.ErrSuggestionUnavailable), errors.Is(err, catalog.ErrNotFound):
		wrapped = NewServiceError("Suggestions are unavailable for this event type.",
			ErrorCodeSuggestionUnavailable, http.StatusNotFound, err)
	case errors.Is(err, model.ErrInvalidRequest), errors.Is(err, mergecache.ErrEmptyText):
		wrapped = NewBadRequestError(err.Error(), err)
	case errors.Is(err, session.ErrNotFound):
		wrapped = NewServiceError("The session does not exist or has expired.",
			ErrorCodeSessionNotFound, http.StatusNotFound, err)
	case errors.Is(err, mergecache.ErrTaskNotFound), errors.Is(err, mergecache.ErrThemeNotFound),
		errors.Is(err, mergecache.ErrGuestNotFound):
		wrapped = NewNotFoundError(err.Error(), err)
	case errors.Is(err, mergecache.ErrDuplicate):
		wrapped = NewServiceError(err.Error(), ErrorCodeConflict, http.StatusConflict, err)
	case errors.Is(err, context.DeadlineExceeded):
		wrapped = NewServiceError("The operation is taking longer than expected. Please try again.",
			ErrorCodeTimeout, http.StatusGatewayTimeout, err)
	default:
		wrapped = NewInternalError("An error occurred while "+operation+". Please try again.", err)
	}

	if wrapped.StatusCode >= http.StatusInternalServerError {
		eh.logger.Error("Error occurred during operation",
			zap.String("operation", operation),
			zap.Error(err),
			zap.String("error_code", string(wrapped.Code)))
	} else {
		eh.logger.Debug("Request rejected",
			zap.String("operation", operation),
			zap.Error(err),
			zap.String("error_code", string(wrapped.Code)))
	}

	return wrapped
}

// WriteErrorResponse writes an error response to an HTTP response writer
func (eh *ErrorHandler) WriteErrorResponse(w http.ResponseWriter, err error, operation, requestID string) {
	serviceErr := eh.WrapError(err, operation)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(serviceErr.StatusCode)

	if err := json.NewEncoder(w).Encode(serviceErr.ToErrorResponse(requestID)); err != nil {
		eh.logger.Error("Failed to encode error response", zap.Error(err))
	}
}
