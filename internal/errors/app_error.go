package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

type AppError struct {
	Code       string
	Message    string
	Detail     string
	StatusCode int
	// RetryAfter is sent as the Retry-After header when set.
	RetryAfter time.Duration
	Err        error
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

func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail

	return e
}

func (e *AppError) WithRetryAfter(d time.Duration) *AppError {
	e.RetryAfter = d

	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err

	return e
}

const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeThirdPartyError   = "THIRD_PARTY_ERROR"
	ErrCodeTooManyRequests   = "TOO_MANY_REQUESTS"
	ErrCodeEmptyCart         = "EMPTY_CART"
	ErrCodePersistence       = "PERSISTENCE_ERROR"
	ErrCodePaymentInitiation = "PAYMENT_INITIATION_ERROR"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodePaymentNotConfirm = "PAYMENT_NOT_CONFIRMED"
)

func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message, http.StatusBadRequest)
}

func BadRequestError(message string) *AppError {
	return NewAppError(ErrCodeBadRequest, message, http.StatusBadRequest)
}

func NotFoundError(message string) *AppError {
	return NewAppError(ErrCodeNotFound, message, http.StatusNotFound)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func ForbiddenError(message string) *AppError {
	return NewAppError(ErrCodeForbidden, message, http.StatusForbidden)
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

func ThirdPartyError(message string) *AppError {
	return NewAppError(ErrCodeThirdPartyError, message, http.StatusBadGateway)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(ErrCodeTooManyRequests, message, http.StatusTooManyRequests)
}

// EmptyCartError is returned when a checkout is attempted with no cart lines.
// No order exists at that point.
func EmptyCartError(message string) *AppError {
	return NewAppError(ErrCodeEmptyCart, message, http.StatusBadRequest)
}

func PersistenceError(message string) *AppError {
	return NewAppError(ErrCodePersistence, message, http.StatusInternalServerError)
}

// PaymentInitiationError means the gateway refused or failed to open a session.
// The pending order has already been cancelled when this is returned.
func PaymentInitiationError(message string) *AppError {
	return NewAppError(ErrCodePaymentInitiation, message, http.StatusBadGateway)
}

func InsufficientStockError(message string) *AppError {
	return NewAppError(ErrCodeInsufficientStock, message, http.StatusConflict)
}

func InvalidTransitionError(message string) *AppError {
	return NewAppError(ErrCodeInvalidTransition, message, http.StatusConflict)
}

func PaymentNotConfirmedError(message string) *AppError {
	return NewAppError(ErrCodePaymentNotConfirm, message, http.StatusConflict)
}

func IsAppError(err error) (*AppError, bool) {
	var appError *AppError

	if errors.As(err, &appError) {
		return appError, true
	}

	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	appErr, ok := IsAppError(err)

	return ok && appErr.Code == code
}

// field validation error.
func AddValidationError(field, reason string) *AppError {
	return ValidationError(fmt.Sprintf("Invalid field '%s': %s", field, reason))
}
