// Package app wires the portal services, the HTTP router and the background jobs
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/growup/backend/docs"
	"github.com/growup/backend/internal/auth"
	"github.com/growup/backend/internal/config"
	"github.com/growup/backend/internal/handlers"
	"github.com/growup/backend/internal/jobs"
	"github.com/growup/backend/internal/middleware"
	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/services"
	"github.com/growup/backend/internal/store"
	"github.com/growup/backend/internal/validation"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Dependencies are the storage adapters chosen by the caller
type Dependencies struct {
	Backend  store.Backend
	AuditLog services.AuditLogRepository
	Sessions services.SessionRepository
	// BcryptCost defaults to bcrypt.DefaultCost
	BcryptCost int
}

// App is a fully wired portal
type App struct {
	Router  http.Handler
	Sweeper *jobs.PaymentSweeper
}

// New builds the services over deps, seeds the admin account from cfg and registers the routes
func New(ctx context.Context, cfg *config.Config, deps Dependencies, logger *zap.Logger) (*App, error) {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	validate := validation.New()
	verifier := auth.NewBcryptVerifier(cost)
	tokenGenerator := auth.NewTokenGenerator(cfg.Session.Secret)

	// Initialize store
	audit := services.NewAuditService(deps.AuditLog, logger.Named("audit"))
	s := store.New(deps.Backend, audit, logger.Named("audit"))

	// Initialize services
	identity := services.NewIdentityService(s.Users, deps.Sessions, tokenGenerator, verifier, validate, logger, cfg.Session.TTL)
	subscriptions := services.NewSubscriptionService(s.Users, s.Plans, s.Payments, logger)
	settings := services.NewSettingsService(s.Settings, s.Users, logger)
	payments := services.NewPaymentService(s.Payments, s.Users, subscriptions, validate, logger)
	content := services.NewContentService(s.Content, settings, validate, logger)
	users := services.NewUserService(s.Users, identity, verifier, validate, logger, cfg.Admin.ProtectLastAdmin)
	plans := services.NewPlanService(s.Plans, validate, logger)
	ads := services.NewAdService(s.Ads, settings, validate, logger)
	overview := services.NewOverviewService(s.Users, s.Content, s.Payments, audit, logger)

	if cfg.Admin.SeedEmail != "" {
		if err := identity.Bootstrap(ctx, cfg.Admin.SeedEmail, cfg.Admin.SeedPassword, cfg.Admin.SeedName); err != nil {
			return nil, fmt.Errorf("failed to seed admin: %w", err)
		}
	}

	sweeper, err := jobs.NewPaymentSweeper(payments, cfg.Payments.PendingTTL, cfg.Payments.SweepSchedule, logger.Named("sweeper"))
	if err != nil {
		return nil, err
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(identity, subscriptions, logger, cfg.Session.TTL, cfg.Session.SecureCookie)
	publicHandler := handlers.NewPublicHandler(settings, ads, plans, logger)
	contentHandler := handlers.NewContentHandler(content, logger)
	paymentHandler := handlers.NewPaymentHandler(payments, subscriptions, logger)
	adminHandler := handlers.NewAdminHandler(users, plans, ads, settings, audit, payments, overview, logger)

	// Initialize auth middleware
	authMiddleware := middleware.AuthMiddleware(identity, logger)
	optionalAuthMiddleware := middleware.OptionalAuthMiddleware(identity, logger)
	staffMiddleware := middleware.RoleMiddleware(models.RoleAdmin, models.RoleTeacher)
	adminMiddleware := middleware.RoleMiddleware(models.RoleAdmin)
	apiKeyMiddleware := middleware.APIKeyMiddleware(cfg.Payments.APIKey, logger.Named("gateway"))

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authMiddleware)
		publicHandler.RegisterRoutes(r, optionalAuthMiddleware)
		// Register gateway callback with API key middleware
		r.Group(func(r chi.Router) {
			r.Use(apiKeyMiddleware)
			paymentHandler.RegisterWebhookRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			contentHandler.RegisterRoutes(r)
			paymentHandler.RegisterRoutes(r)
			// Register upload routes with role middleware
			r.Group(func(r chi.Router) {
				r.Use(staffMiddleware)
				contentHandler.RegisterStaffRoutes(r)
			})
			// Register admin routes with role middleware
			r.Group(func(r chi.Router) {
				r.Use(adminMiddleware)
				adminHandler.RegisterRoutes(r)
			})
		})
	})

	return &App{Router: r, Sweeper: sweeper}, nil
}
