package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/hbox/claimtrack/cmd/claimsd/container"
)

// RegisterAuthRoutes registers login and token verification routes
func RegisterAuthRoutes(e *echo.Echo, c *container.Container) {
	auth := e.Group("/api/auth")
	{
		auth.POST("/login", c.AuthHandler.Login)   // POST /api/auth/login
		auth.POST("/verify", c.AuthHandler.Verify) // POST /api/auth/verify
	}
}
