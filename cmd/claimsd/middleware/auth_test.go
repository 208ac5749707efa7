package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbox/claimtrack/common/models"
)

type stubVerifier struct {
	principal *models.Principal
}

func (v *stubVerifier) Verify(token string) (*models.Principal, error) {
	if v.principal != nil && token == "good-token" {
		return v.principal, nil
	}
	return nil, errors.New("invalid or expired token")
}

func runMiddleware(authHeader string, verifier TokenVerifier) (*httptest.ResponseRecorder, *models.Principal) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/claims", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *models.Principal
	handler := RequireAuth(verifier)(func(c echo.Context) error {
		seen = GetPrincipal(c)
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec, seen
}

func TestRequireAuth_ValidToken(t *testing.T) {
	principal := &models.Principal{ID: 2, Name: "Admin", Role: "admin"}
	rec, seen := runMiddleware("Bearer good-token", &stubVerifier{principal: principal})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, 2, seen.ID)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	rec, seen := runMiddleware("", &stubVerifier{})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)
	assert.Contains(t, rec.Body.String(), "Authentication required")
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	rec, _ := runMiddleware("Token abc", &stubVerifier{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_BadToken(t *testing.T) {
	rec, _ := runMiddleware("Bearer bad-token", &stubVerifier{principal: &models.Principal{ID: 2}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired token")
}

func TestBearerToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc123")
	c := e.NewContext(req, httptest.NewRecorder())
	assert.Equal(t, "abc123", BearerToken(c))
}
