// Package testutils builds handler requests the way the middleware chain
// would have left them.
package testutils

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/google/uuid"
)

const TestEmail = "shopper@example.com"

// CreateTestRequestWithContext returns an authenticated request for userID.
func CreateTestRequestWithContext(method, target string, body io.Reader, userID uuid.UUID, pathParams map[string]string) *http.Request {
	req := newRequest(method, target, body, pathParams)

	ctx := middleware.WithUser(req.Context(), &models.Claims{UserID: userID, Email: TestEmail})

	return req.WithContext(ctx)
}

// CreateTestRequestWithoutContext returns a request that skipped Authenticate.
func CreateTestRequestWithoutContext(method, target string, body io.Reader, pathParams map[string]string) *http.Request {
	return newRequest(method, target, body, pathParams)
}

func newRequest(method, target string, body io.Reader, pathParams map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)

	for key, value := range pathParams {
		req.SetPathValue(key, value)
	}

	logger := slog.New(slog.DiscardHandler)

	return req.WithContext(middleware.WithLogger(req.Context(), logger))
}
