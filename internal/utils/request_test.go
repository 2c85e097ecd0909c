package utils_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineRequest struct {
	Size     string `json:"size" validate:"required,oneof=XS S M L XL"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=99"`
}

func TestDecodeJSONBody(t *testing.T) {

	t.Run("Success - decodes a single object", func(t *testing.T) {
		// Arrange
		req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/items", strings.NewReader(`{"size":"M","quantity":2}`))
		var dest lineRequest

		// Act
		err := utils.DecodeJSONBody(httptest.NewRecorder(), req, &dest)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, lineRequest{Size: "M", Quantity: 2}, dest)
	})

	t.Run("Failure - empty body", func(t *testing.T) {
		// Arrange
		req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/items", strings.NewReader(""))

		// Act
		err := utils.DecodeJSONBody(httptest.NewRecorder(), req, &lineRequest{})

		// Assert
		assert.ErrorIs(t, err, utils.ErrEmptyBody)
	})

	t.Run("Failure - unknown field", func(t *testing.T) {
		// Arrange
		req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/items", strings.NewReader(`{"size":"M","quantity":2,"price":"0.01"}`))

		// Act
		err := utils.DecodeJSONBody(httptest.NewRecorder(), req, &lineRequest{})

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "price")
	})

	t.Run("Failure - trailing object", func(t *testing.T) {
		// Arrange
		req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/items", strings.NewReader(`{"size":"M","quantity":2}{"size":"L"}`))

		// Act
		err := utils.DecodeJSONBody(httptest.NewRecorder(), req, &lineRequest{})

		// Assert
		require.Error(t, err)
	})

	t.Run("Failure - body over the limit", func(t *testing.T) {
		// Arrange
		body := `{"size":"` + strings.Repeat("M", utils.MaxBodyBytes) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/items", strings.NewReader(body))

		// Act
		err := utils.DecodeJSONBody(httptest.NewRecorder(), req, &lineRequest{})

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds")
	})
}

func TestParseAndValidate(t *testing.T) {

	t.Run("Failure - invalid size writes a validation error", func(t *testing.T) {
		// Arrange
		req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/items", strings.NewReader(`{"size":"XXL","quantity":1}`))
		rr := httptest.NewRecorder()

		// Act
		ok := utils.ParseAndValidate(req, rr, &lineRequest{}, validator.New())

		// Assert
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), appErrors.ErrCodeValidation)
	})

	t.Run("Failure - malformed JSON writes a bad request", func(t *testing.T) {
		// Arrange
		req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/items", strings.NewReader(`{"size":`))
		rr := httptest.NewRecorder()

		// Act
		ok := utils.ParseAndValidate(req, rr, &lineRequest{}, validator.New())

		// Assert
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), appErrors.ErrCodeBadRequest)
	})
}

func TestParseID(t *testing.T) {

	t.Run("Success - reads the path value", func(t *testing.T) {
		// Arrange
		id := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+id.String(), nil)
		req.SetPathValue("id", id.String())

		// Act
		got, err := utils.ParseID(req, "id")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("Failure - malformed value", func(t *testing.T) {
		// Arrange
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/abc", nil)
		req.SetPathValue("id", "abc")

		// Act
		_, err := utils.ParseID(req, "id")

		// Assert
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeBadRequest))
	})

	t.Run("Failure - missing value", func(t *testing.T) {
		// Arrange
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)

		// Act
		_, err := utils.ParseID(req, "id")

		// Assert
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeBadRequest))
	})
}

func TestParsePage(t *testing.T) {
	// Arrange
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?page=3&size=oops", nil)

	// Act
	page, size := utils.ParsePage(req)

	// Assert
	assert.Equal(t, 3, page)
	assert.Equal(t, 0, size)
}
