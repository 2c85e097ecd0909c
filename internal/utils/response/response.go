package response

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/go-playground/validator/v10"
)

// APIResponse is the envelope of every JSON body the service writes.
type APIResponse struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func WriteJson(w http.ResponseWriter, statusCode int, data any) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, data any) {
	write(w, statusCode, APIResponse{Success: true, Data: data})
}

// Error maps err onto its status code. Anything that is not an AppError is
// reported as an internal error without leaking its text.
func Error(w http.ResponseWriter, err error) {

	appErr, ok := errors.IsAppError(err)
	if !ok {
		slog.Error("Unhandled error reached the response writer", slog.String("error", err.Error()))
		appErr = errors.InternalError("An unexpected error occurred")
	}

	errorResponse := &ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
	}

	if appErr.Detail != "" {
		errorResponse.Details = []string{appErr.Detail}
	}

	if appErr.RetryAfter > 0 {
		seconds := int(math.Ceil(appErr.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	write(w, appErr.StatusCode, APIResponse{Error: errorResponse})
}

// ValidationError sends one message per failed field.
func ValidationError(w http.ResponseWriter, errs validator.ValidationErrors) {

	details := make([]string, 0, len(errs))

	for _, err := range errs {
		details = append(details, fieldMessage(err))
	}

	write(w, http.StatusBadRequest, APIResponse{
		Error: &ErrorResponse{
			Code:    errors.ErrCodeValidation,
			Message: "Validation failed",
			Details: details,
		},
	})
}

func fieldMessage(err validator.FieldError) string {

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("Field %s is required", err.Field())
	case "min":
		return fmt.Sprintf("Field %s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("Field %s must be at most %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("Field %s must be one of [%s]", err.Field(), err.Param())
	case "uuid", "uuid4":
		return fmt.Sprintf("Field %s must be a valid UUID", err.Field())
	default:
		return fmt.Sprintf("Field %s is invalid: %s=%s", err.Field(), err.Tag(), err.Param())
	}
}

func write(w http.ResponseWriter, statusCode int, body APIResponse) {
	if err := WriteJson(w, statusCode, body); err != nil {
		slog.Warn("Failed to write response body", slog.String("error", err.Error()))
	}
}
