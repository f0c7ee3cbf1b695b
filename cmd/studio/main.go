package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/inkwell/studio/cmd/studio/container"
	"github.com/inkwell/studio/cmd/studio/handlers"
	"github.com/inkwell/studio/cmd/studio/middleware"
	"github.com/inkwell/studio/cmd/studio/routes"
	"github.com/inkwell/studio/common/bootstrap"
	"github.com/inkwell/studio/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (DB, logger, queue, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "studio")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap studio: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(ctx, components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e, serviceContainer)
	registerRoutes(e, serviceContainer)

	// Host echo behind the common server for graceful shutdown
	srv := server.New("studio", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.ExtractActor())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, c *container.Container) {
	e.GET("/health", func(ctx echo.Context) error {
		if err := c.Components.Health(ctx.Request().Context()); err != nil {
			return ctx.JSON(503, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
		}
		return ctx.JSON(200, map[string]string{
			"status":  "ok",
			"service": "studio",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, c *container.Container) {
	api := e.Group("/api/v1")

	designHandler := handlers.NewDesignHandler(c.DesignService)
	lineageHandler := handlers.NewLineageHandler(c.DesignService, c.LineageService, c.CompareService, c.BranchService)
	studioHandler := handlers.NewStudioHandler(c.SettingsService)
	collectionHandler := handlers.NewCollectionHandler(c.CollectionService)
	shareHandler := handlers.NewShareHandler(c.ShareService)

	routes.RegisterDesignRoutes(api, designHandler)
	routes.RegisterLineageRoutes(api, lineageHandler)
	routes.RegisterStudioRoutes(api, studioHandler)
	routes.RegisterCollectionRoutes(api, collectionHandler)
	routes.RegisterShareRoutes(api, shareHandler)
}
