package health_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/health"
	"github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type healthBody struct {
	Status   string            `json:"status"`
	Failures map[string]string `json:"failures"`
}

func TestNewHealthHandler(t *testing.T) {

	t.Run("Success - all checks pass", func(t *testing.T) {
		// Arrange
		db, sqlMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		sqlMock.ExpectPing()

		gateway := mocks.NewGateway(t)
		gateway.On("Ping", mock.Anything).Return(nil)

		h, err := health.NewHealthHandler("test", &health.Endpoints{DB: db, Gateway: gateway})
		require.NoError(t, err)

		// Act
		rr := httptest.NewRecorder()
		h.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		// Assert
		var body healthBody
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "OK", body.Status)
	})

	t.Run("Failure - stripe down degrades only", func(t *testing.T) {
		gateway := mocks.NewGateway(t)
		gateway.On("Ping", mock.Anything).Return(errors.New("invalid api key"))

		h, err := health.NewHealthHandler("test", &health.Endpoints{Gateway: gateway})
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		h.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		var body healthBody
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Partially Available", body.Status)
		assert.Contains(t, body.Failures, "stripe")
	})

	t.Run("Failure - database down", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		sqlMock.ExpectPing().WillReturnError(errors.New("connection refused"))

		h, err := health.NewHealthHandler("test", &health.Endpoints{DB: db})
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		h.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
