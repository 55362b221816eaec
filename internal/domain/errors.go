package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Reason codes returned alongside errors so API clients can distinguish
// failure causes without parsing messages.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonNotAMember      = "not_a_member"
	ReasonValidation      = "validation_error"
	ReasonNotFound        = "not_found"
	ReasonCardDeclined    = "card_declined"
	ReasonPaymentProvider = "payment_provider_error"
	ReasonUnexpected      = "unexpected_error"
)

// AppError is a structured application error with HTTP status code.
type AppError struct {
	Code    int    `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error constructors.

func ErrNotFound(msg string) *AppError {
	return &AppError{Code: http.StatusNotFound, Reason: ReasonNotFound, Message: msg}
}

func ErrUnauthenticated(msg string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Reason: ReasonUnauthenticated, Message: msg}
}

func ErrNotAMember(msg string) *AppError {
	return &AppError{Code: http.StatusForbidden, Reason: ReasonNotAMember, Message: msg}
}

func ErrBadRequest(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Reason: ReasonValidation, Message: msg}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Reason: ReasonValidation, Message: msg}
}

func ErrCardDeclined(msg string) *AppError {
	return &AppError{Code: http.StatusPaymentRequired, Reason: ReasonCardDeclined, Message: msg}
}

func ErrPaymentProvider(msg string, err error) *AppError {
	return &AppError{Code: http.StatusBadGateway, Reason: ReasonPaymentProvider, Message: msg, Err: err}
}

func ErrInternal(msg string, err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Reason: ReasonUnexpected, Message: msg, Err: err}
}

// AsAppError attempts to extract an AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
