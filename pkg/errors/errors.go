package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned values still compare with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrBadRequest          = New("BAD_REQUEST", http.StatusBadRequest, "bad request")
	ErrUnauthorized        = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrSessionExpired      = New("SESSION_EXPIRED", http.StatusUnauthorized, "session expired, please sign in again")
	ErrForbidden           = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrNotFound            = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict            = New("CONFLICT", http.StatusConflict, "conflict")
	ErrScheduleConflict    = New("SCHEDULE_CONFLICT", http.StatusConflict, "schedule conflicts detected")
	ErrUnprocessable       = New("UNPROCESSABLE_ENTITY", http.StatusUnprocessableEntity, "unprocessable entity")
	ErrValidation          = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrFareAboveTariff     = New("FARE_ABOVE_TARIFF", http.StatusBadRequest, "fare exceeds the maximum tariff")
	ErrDiscountReason      = New("DISCOUNT_REASON_REQUIRED", http.StatusBadRequest, "a discount reason is required for discounts above the threshold")
	ErrInvalidTransition   = New("INVALID_STATUS_TRANSITION", http.StatusBadRequest, "invalid schedule status transition")
	ErrNetwork             = New("NETWORK_ERROR", http.StatusBadGateway, "network error, check your connection")
	ErrUpstreamTimeout     = New("UPSTREAM_TIMEOUT", http.StatusGatewayTimeout, "the request timed out, please try again")
	ErrRequestCancelled    = New("REQUEST_CANCELLED", 499, "request cancelled")
	ErrInternal            = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrServiceUnavailable  = New("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service unavailable")
	ErrCacheMiss           = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrEventPublishFailure = New("EVENT_PUBLISH_FAILED", http.StatusInternalServerError, "failed to publish event")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy of the error carrying structured details for the client.
func WithDetails(err *Error, message string, details interface{}) *Error {
	clone := Clone(err, message)
	if clone != nil {
		clone.Details = details
	}
	return clone
}

// IsCancelled reports whether err represents a superseded or abandoned request.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrRequestCancelled)
}
