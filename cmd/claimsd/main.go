package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/hbox/claimtrack/cmd/claimsd/container"
	"github.com/hbox/claimtrack/cmd/claimsd/repository"
	"github.com/hbox/claimtrack/cmd/claimsd/routes"
	"github.com/hbox/claimtrack/common/bootstrap"
	"github.com/hbox/claimtrack/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (config, logger, DB, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "claimsd")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap claimsd: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// The change log table is optional: updates still work without it,
	// audit writes are skipped and history reports unavailable.
	auditReady, err := repository.ChangeLogTableExists(ctx, components.DB)
	if err != nil {
		components.Logger.Error("change log probe failed", "error", err)
	} else if !auditReady {
		components.Logger.Warn("claim_change_log table not found, audit trail disabled")
	}

	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e, serviceContainer)
	registerRoutes(e, serviceContainer)

	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, c *container.Container) {
	e.GET("/health", func(ec echo.Context) error {
		ctx := ec.Request().Context()

		dbStatus := "ok"
		if err := c.Components.DB.Health(ctx); err != nil {
			dbStatus = "down"
		}

		auditStatus := "ok"
		if ok, err := repository.ChangeLogTableExists(ctx, c.Components.DB); err != nil || !ok {
			auditStatus = "unavailable"
		}

		status := http.StatusOK
		if dbStatus != "ok" {
			status = http.StatusServiceUnavailable
		}

		return ec.JSON(status, map[string]string{
			"status":   dbStatus,
			"service":  "claimsd",
			"database": dbStatus,
			"audit":    auditStatus,
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterAuthRoutes(e, serviceContainer)
	routes.RegisterClaimRoutes(e, serviceContainer)
}

// startServer starts the HTTP server with graceful shutdown
func startServer(e *echo.Echo, components *bootstrap.Components) {
	port := components.Config.Service.Port

	srv := server.New("claimsd", port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
