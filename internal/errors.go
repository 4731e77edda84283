package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeSignature    ErrorType = "SIGNATURE_ERROR"
	ErrorTypeProvider     ErrorType = "PROVIDER_ERROR"
	ErrorTypeNotification ErrorType = "NOTIFICATION_ERROR"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeAmountTooLow     ErrorCode = "AMOUNT_TOO_LOW"
	ErrCodeAmountTooHigh    ErrorCode = "AMOUNT_TOO_HIGH"

	ErrCodeDonationNotFound  ErrorCode = "DONATION_NOT_FOUND"
	ErrCodeInvalidTransition ErrorCode = "INVALID_STATUS_TRANSITION"

	ErrCodePaymentDeclined     ErrorCode = "PAYMENT_DECLINED"
	ErrCodeProviderFailure     ErrorCode = "PROVIDER_FAILURE"
	ErrCodeProviderUnreachable ErrorCode = "PROVIDER_UNREACHABLE"

	ErrCodeInvalidSignature ErrorCode = "INVALID_SIGNATURE"
	ErrCodeMissingSignature ErrorCode = "MISSING_SIGNATURE"

	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_FAILED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// FieldErrors maps a form field name to the message shown for it.
type FieldErrors map[string]string

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewFieldValidationError(fields FieldErrors) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    fields,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewSignatureError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeSignature,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewProviderError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeProvider,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
	}
}

func NewNotificationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNotification,
		Code:       ErrCodeNotificationFailed,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrDonationNotFound = NewNotFoundError("Donation not found", ErrCodeDonationNotFound)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, map[string]interface{}{"error": e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
