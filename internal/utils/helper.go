package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps JSON request bodies. Cart requests are a handful of fields.
const MaxBodyBytes = 16 << 10

var ErrEmptyBody = errors.New("request body cannot be empty")

// DecodeJSONBody reads a single JSON object into dest. Unknown fields and
// trailing data are rejected.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dest any) error {

	logger := middleware.LoggerFromContext(r.Context())

	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError

		switch {
		case errors.Is(err, io.EOF):
			return ErrEmptyBody
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		default:
			logger.Warn("Failed to parse request JSON",
				slog.String("error", err.Error()),
				slog.String("endpoint", r.URL.Path))
			return fmt.Errorf("invalid JSON format: %w", err)
		}
	}

	if decoder.More() {
		return errors.New("request body must contain a single JSON object")
	}

	return nil
}

func ValidateStruct(validate *validator.Validate, data any) error {

	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return fmt.Errorf("validation error: %w", validationErrs)
	}

	slog.Error("Unexpected validation error", slog.String("error", err.Error()))
	return fmt.Errorf("unexpected validation error: %w", err)
}
