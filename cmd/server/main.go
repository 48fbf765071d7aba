package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anonto42/nano-social/backend/internal/dispatcher"
	"github.com/anonto42/nano-social/backend/internal/jobs"
	"github.com/anonto42/nano-social/backend/internal/logger"
	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/internal/router"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/anonto42/nano-social/backend/pkg/config"
	"github.com/anonto42/nano-social/backend/pkg/firebase"
	"github.com/anonto42/nano-social/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Fatal("Failed to load configuration", "error", err)
	}
	log := logger.New(cfg.LogLevel)
	if !cfg.EnvFileLoaded {
		log.Info("No .env file found, assuming environment variables are set.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize databases", "error", err)
	}
	defer db.CloseDB()

	if err := repositories.AutoMigrate(db.Postgres); err != nil {
		log.Fatal("Failed to auto migrate models", "error", err)
	}
	log.Info("PostgreSQL auto-migrations completed for all models.")

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	relationshipRepo := repositories.NewPostgresRelationshipRepository(db.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)
	historyRepo := repositories.NewUserHistoryRepository(db.History)

	// --- Notification dispatcher ---
	notifier := dispatcher.New(notificationRepo, log, dispatcher.Options{
		Concurrency:  cfg.Notify.Concurrency,
		MaxBacklog:   cfg.Notify.MaxBacklog,
		WriteTimeout: cfg.Notify.WriteTimeout,
	})
	notifier.Start(ctx)

	// --- Services ---
	var geo services.GeoResolver
	if cfg.Geo.Enabled {
		geo = services.NewHTTPGeoResolver(cfg.Geo.URL, cfg.Geo.Timeout)
	}
	graph := services.NewSocialGraph(relationshipRepo, userRepo, notifier, historyRepo, log, services.SocialGraphOptions{
		FollowLimit:  cfg.Social.FollowRateLimit,
		FollowWindow: cfg.Social.FollowRateWindow,
		MaxAttempts:  cfg.Social.ConflictRetries,
	})
	suggestions := services.NewSuggestionEngine(userRepo, relationshipRepo, geo, log, services.SuggestionOptions{
		ExcludePrivate: cfg.Social.SuggestExcludePrivate,
	})
	profiles := services.NewProfiles(userRepo, historyRepo, log)

	// --- Lifecycle jobs ---
	loc, err := cfg.Lifecycle.Location()
	if err != nil {
		log.Fatal("Invalid scheduler time zone", "error", err)
	}
	scheduler := jobs.NewScheduler(log, loc)
	cleanup := jobs.NewNotificationCleanup(notificationRepo, cfg.Lifecycle.NotificationRetention, log)
	if err := scheduler.Register(cfg.Lifecycle.CleanupSchedule, cleanup); err != nil {
		log.Fatal("Failed to schedule notification cleanup", "error", err)
	}
	if cfg.EnablePermanentDelete {
		purge := jobs.NewPermanentDeletion(userRepo, historyRepo, cfg.Lifecycle.DeletionGrace, cfg.Lifecycle.PurgeUserTimeout, log)
		if err := scheduler.Register(cfg.Lifecycle.PurgeSchedule, purge); err != nil {
			log.Fatal("Failed to schedule permanent deletion", "error", err)
		}
	} else {
		log.Info("Permanent deletion disabled (ENABLE_PERMANENT_DELETE=false).")
	}
	scheduler.Start()

	// --- Authentication ---
	var auth echo.MiddlewareFunc
	switch cfg.Auth.Provider {
	case config.AuthProviderFirebase:
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.Auth.FirebaseCredentialsPath, log)
		if err != nil {
			log.Fatal("Failed to initialize Firebase", "error", err)
		}
		auth = middleware.FirebaseAuthMiddleware(firebaseApp.AuthClient, userRepo)
	default:
		auth = middleware.JWTAuthMiddleware(cfg.Auth.JWTSecret)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	router.SetupMiddleware(e, log)
	router.SetupRoutes(e, router.Dependencies{
		Users:         userRepo,
		Relationships: relationshipRepo,
		Notifications: notificationRepo,
		History:       historyRepo,
		Graph:         graph,
		Profiles:      profiles,
		Suggestions:   suggestions,
		Dispatcher:    notifier,
	}, auth, log)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server stopped unexpectedly", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Notify.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler did not stop in time", "error", err)
	}
	if err := notifier.Stop(shutdownCtx); err != nil {
		log.Error("Notification dispatcher did not drain", "error", err, "queued", notifier.Stats().Queued)
	}
	log.Info("Shutdown complete.")
}
