package middleware

import (
	"strings"

	"passport/internal/delivery/http/response"
	"passport/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// KeySubjectEmail is the echo.Context key under which Authenticate stores the
// validated access-token subject.
const KeySubjectEmail = "subjectEmail"

// AuthMiddleware guards routes behind a valid access token.
type AuthMiddleware struct {
	issuer service.AccessTokenIssuer
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(issuer service.AccessTokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer}
}

// Authenticate validates the bearer token and stores its subject on the
// context for handlers to use.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return response.Unauthorized(c, "MISSING_TOKEN", "authorization header is missing")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return response.Unauthorized(c, "INVALID_TOKEN", "authorization must use a bearer token")
		}

		claims, err := m.issuer.Validate(tokenString)
		if err != nil {
			return response.Unauthorized(c, "INVALID_TOKEN", "invalid or expired access token")
		}
		if claims.Subject == "" {
			return response.Unauthorized(c, "INVALID_TOKEN", "access token carries no subject")
		}

		c.Set(KeySubjectEmail, claims.Subject)

		return next(c)
	}
}
