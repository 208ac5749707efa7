package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/hbox/claimtrack/cmd/claimsd/container"
	"github.com/hbox/claimtrack/cmd/claimsd/middleware"
)

// RegisterClaimRoutes registers all claim and change-log routes.
// Static segments must be registered alongside /:id; echo matches
// /claims/history/all before the param route.
func RegisterClaimRoutes(e *echo.Echo, c *container.Container) {
	claims := e.Group("/api/claims")
	claims.Use(middleware.RequireAuth(c.AuthService))
	{
		claims.GET("", c.ClaimHandler.List)                       // GET /api/claims?patientId=&cptId=&serviceEnd=
		claims.POST("", c.ClaimHandler.Create)                    // POST /api/claims
		claims.GET("/history/all", c.HistoryHandler.AllHistory)   // GET /api/claims/history/all?page=&limit=
		claims.GET("/:id", c.ClaimHandler.Get)                    // GET /api/claims/:id
		claims.PUT("/:id", c.ClaimHandler.Update)                 // PUT /api/claims/:id
		claims.DELETE("/:id", c.ClaimHandler.Delete)              // DELETE /api/claims/:id
		claims.GET("/:id/history", c.HistoryHandler.ClaimHistory) // GET /api/claims/:id/history
	}
}
