package utils

import (
	"errors"
	"net/http"
	"strconv"

	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ParseAndValidate decodes the body into dest and validates it, writing the
// error response itself when either step fails.
func ParseAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate) bool {

	if err := DecodeJSONBody(w, r, dest); err != nil {
		response.Error(w, appErrors.BadRequestError(err.Error()))
		return false
	}

	if err := ValidateStruct(validate, dest); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			response.ValidationError(w, validationErrs)
			return false
		}

		response.Error(w, appErrors.BadRequestError("invalid input data"))
		return false
	}

	return true

}

// ParseID reads a UUID path value.
func ParseID(r *http.Request, name string) (uuid.UUID, error) {

	raw := r.PathValue(name)
	if raw == "" {
		return uuid.Nil, appErrors.BadRequestError("Missing " + name)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, appErrors.BadRequestError("Invalid " + name + " format").WithError(err)
	}

	return id, nil
}

// ParsePage reads the page and size query parameters. Missing or malformed
// values are left at zero for the service to default.
func ParsePage(r *http.Request) (int, int) {

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	return page, size
}
