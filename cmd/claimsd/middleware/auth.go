package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hbox/claimtrack/common/models"
)

// principalKey is the echo context key for the authenticated principal
const principalKey = "principal"

// TokenVerifier resolves a bearer token to a principal
type TokenVerifier interface {
	Verify(token string) (*models.Principal, error)
}

// RequireAuth validates the Authorization bearer token and stores the
// resulting principal in the request context. Requests without a valid
// token get a 401 envelope.
func RequireAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := BearerToken(c)
			if token == "" {
				return unauthorized(c, "Authentication required. Please log in.")
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				return unauthorized(c, "Invalid or expired token. Please log in again.")
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// BearerToken extracts the token from the Authorization header, or ""
func BearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// GetPrincipal retrieves the authenticated principal from the request
// context. Returns nil when the route skipped RequireAuth.
func GetPrincipal(c echo.Context) *models.Principal {
	principal, _ := c.Get(principalKey).(*models.Principal)
	return principal
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]any{
		"success": false,
		"error":   "Unauthorized",
		"message": message,
	})
}
