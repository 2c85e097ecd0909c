package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	models "github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils/response"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type contextKey uuid.UUID

var UserContextKey = contextKey(uuid.New())

// AuthMiddleware accepts HMAC-signed tokens issued by the account service.
// The shopper id comes from the token, never from the request.
type AuthMiddleware struct {
	jwtKey []byte
	parser *jwt.Parser
}

func NewAuthMiddleware(jwtKey []byte) *AuthMiddleware {
	return &AuthMiddleware{
		jwtKey: jwtKey,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{
				jwt.SigningMethodHS256.Alg(),
				jwt.SigningMethodHS384.Alg(),
				jwt.SigningMethodHS512.Alg(),
			}),
			jwt.WithExpirationRequired(),
		),
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logger.Warn("Missing authorization header")
			response.Error(w, errors.UnauthorizedError("Authorization header is required"))
			return
		}

		scheme, tokenString, found := strings.Cut(authHeader, " ")
		if !found || scheme != "Bearer" {
			logger.Warn("Invalid authorization header format")
			response.Error(w, errors.UnauthorizedError("Invalid authorization format"))
			return
		}

		claims := &models.Claims{}

		token, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
			return m.jwtKey, nil
		})
		if err != nil || !token.Valid {
			logger.Warn("JWT rejected", slog.Any("error", err))
			response.Error(w, errors.UnauthorizedError("Invalid or expired token"))
			return
		}

		if claims.UserID == uuid.Nil {
			logger.Warn("JWT carries no user id")
			response.Error(w, errors.UnauthorizedError("Invalid token"))
			return
		}

		ctx := WithUser(r.Context(), claims)

		userLogger := logger.With(slog.String("userId", claims.UserID.String()))
		ctx = WithLogger(ctx, userLogger)

		trace.SpanFromContext(ctx).SetAttributes(attribute.String("enduser.id", claims.UserID.String()))

		userLogger.Debug("User authenticated")

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// WithUser stores claims the way Authenticate does.
func WithUser(ctx context.Context, claims *models.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// UserFromContext returns the claims stored by Authenticate.
func UserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	if !ok || claims == nil || claims.UserID == uuid.Nil {
		return nil, false
	}

	return claims, true
}
