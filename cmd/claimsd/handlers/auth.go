package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hbox/claimtrack/cmd/claimsd/middleware"
	"github.com/hbox/claimtrack/cmd/claimsd/service"
	"github.com/hbox/claimtrack/common/logger"
)

// AuthHandler handles login and token verification
type AuthHandler struct {
	svc *service.AuthService
	log *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login issues a bearer token
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid request body", "body must be a JSON object")
	}
	if req.Email == "" || req.Password == "" {
		return respondError(c, http.StatusBadRequest, "Missing credentials", "Email and password are required")
	}

	token, principal, err := h.svc.Login(req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return respondError(c, http.StatusUnauthorized, "Invalid credentials", "Invalid email or password")
	}
	if err != nil {
		h.log.Error("login failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "Login failed", "unexpected error")
	}

	return respondData(c, http.StatusOK, map[string]any{
		"token": token,
		"user":  principal,
	})
}

// Verify validates a bearer token
// POST /api/auth/verify
func (h *AuthHandler) Verify(c echo.Context) error {
	token := middleware.BearerToken(c)
	if token == "" {
		return respondError(c, http.StatusUnauthorized, "Unauthorized", "Authentication required. Please log in.")
	}

	principal, err := h.svc.Verify(token)
	if err != nil {
		return respondError(c, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token. Please log in again.")
	}

	return respondData(c, http.StatusOK, map[string]any{
		"user": principal,
	})
}
