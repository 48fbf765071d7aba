package router

import (
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/handlers"
	"github.com/anonto42/nano-social/backend/internal/logger"
	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/anonto42/nano-social/backend/pkg/config"
	"github.com/labstack/echo/v4"
)

// Dependencies are the wired stores and services the routes are built on.
type Dependencies struct {
	Users         repositories.UserRepository
	Relationships repositories.RelationshipRepository
	Notifications repositories.NotificationRepository
	History       repositories.UserHistoryRepository

	Graph       *services.SocialGraph
	Profiles    *services.Profiles
	Suggestions *services.SuggestionEngine

	// Dispatcher reports queue depth on /health. Optional.
	Dispatcher handlers.DispatcherStats
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, log *logger.Logger) {
	config.SetupMiddleware(e, log)
	e.Use(middleware.ClientInfoMiddleware())
	log.Info("Global middleware configured.")
}

// SetupRoutes configures all application routes. auth guards /api/v1.
func SetupRoutes(e *echo.Echo, deps Dependencies, auth echo.MiddlewareFunc, log *logger.Logger) {
	healthHandler := handlers.NewHealthHandler(deps.Dispatcher)
	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "nano-social API"})
	})

	api := e.Group("/api/v1")
	api.Use(auth)
	log.Info("Authentication middleware applied to /api/v1 group.")

	suggestionHandler := handlers.NewSuggestionHandler(deps.Suggestions)
	suggestionHandler.RegisterSuggestionRoutes(api)
	log.Info("Suggestion routes configured.")

	userHandler := handlers.NewUserHandler(deps.Profiles, deps.Graph, deps.History)
	userHandler.RegisterProfileRoutes(api)
	log.Info("User profile routes configured.")

	followHandler := handlers.NewFollowHandler(deps.Graph, deps.Relationships)
	followHandler.RegisterFollowRoutes(api)
	log.Info("Follow routes configured.")

	notificationHandler := handlers.NewNotificationHandler(deps.Notifications, deps.Users)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Info("Notification routes configured.")

	log.Info("All routes configured.")
}
