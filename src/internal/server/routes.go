package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/casapps/cassupply/src/internal/api/handlers"
	"github.com/casapps/cassupply/src/internal/api/middleware"
	"github.com/casapps/cassupply/src/internal/services"
)

// setupRoutes configures all application routes
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.handleHealth)

	apiV1 := s.echo.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(s.config))

	// Catalog CRUD (payload collections)
	catalogHandler := handlers.NewCatalogHandler(s.db)
	catalogHandler.RegisterRoutes(apiV1)

	// Admin maintenance surface. Authorization is handled by the
	// proxy layer in front of this group.
	adminGroup := apiV1.Group("/admin")

	backupHandler := handlers.NewBackupHandler(s.store, s.restorer, s.scheduler, s.codec, s.log)
	backupHandler.RegisterRoutes(adminGroup)

	userHandler := handlers.NewUserHandler(services.NewUserService(s.db))
	userHandler.RegisterRoutes(adminGroup)
}

// handleHealth reports process liveness
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}
