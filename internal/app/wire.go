package app

import (
	"log/slog"
	"time"

	"github.com/rpgsocial/platform/internal/auth"
	"github.com/rpgsocial/platform/internal/guard"
	"github.com/rpgsocial/platform/internal/handler"
	adminhandler "github.com/rpgsocial/platform/internal/handler/admin"
	"github.com/rpgsocial/platform/internal/infra"
	"github.com/rpgsocial/platform/internal/progression"
	"github.com/rpgsocial/platform/internal/quest"
	"github.com/rpgsocial/platform/internal/repository"
	"github.com/rpgsocial/platform/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool               *pgxpool.Pool
	JWTMgr             *auth.JWTManager
	Logger             *slog.Logger
	Hub                *infra.WSHub
	RateLimitPerMinute int
	CORSOrigins        string
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	// Repositories
	userRepo := repository.NewUserRepository()
	levelRepo := repository.NewLevelRepository()
	questRepo := repository.NewQuestRepository()
	outboxRepo := repository.NewOutboxRepository()
	authUserRepo := repository.NewPgAuthUserRepository()

	// Progression engine and services
	table := progression.DefaultTable()
	engine := progression.NewEngine(userRepo, outboxRepo, table)

	var notifier progression.Notifier
	if deps.Hub != nil {
		notifier = deps.Hub
	}

	progressionSvc := progression.NewService(pool, engine, notifier, logger)
	tracker := quest.NewTracker(pool, questRepo, userRepo, outboxRepo, engine, notifier, logger)
	authSvc := service.NewAuthService(pool, authUserRepo, userRepo, outboxRepo, jwtMgr)

	// Guards
	limit := deps.RateLimitPerMinute
	if limit <= 0 {
		limit = 120
	}
	rateLimiter := guard.NewRateLimiter(limit, time.Minute)
	idempotency := guard.NewIdempotencyGuard()

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	progressionHandler := handler.NewProgressionHandler(progressionSvc)
	questHandler := handler.NewQuestHandler(tracker, idempotency)
	badgeHandler := handler.NewBadgeHandler(progressionSvc)

	// Admin handlers
	levelAdmin := adminhandler.NewLevelAdminHandler(levelRepo, pool)
	questAdmin := adminhandler.NewQuestAdminHandler(questRepo, pool)
	userAdmin := adminhandler.NewUserAdminHandler(progressionSvc)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	origins := deps.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	r.Use(handler.CORSWithOrigins(origins))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Auth routes (no auth)
	r.Route("/auth", func(r chi.Router) {
		r.Use(handler.RateLimit(rateLimiter))
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// User-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateUser(jwtMgr))
		r.Use(handler.RateLimit(rateLimiter))

		r.Get("/progression/me", progressionHandler.Me)
		r.Get("/levels", progressionHandler.Levels)

		r.Route("/quests", func(r chi.Router) {
			r.Get("/", questHandler.List)
			r.Post("/progress", questHandler.UpdateProgress)
			r.Post("/reset", questHandler.ResetDaily)
		})

		r.Get("/badges/me", badgeHandler.ListMine)
	})

	// Admin-authenticated routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthenticateAdmin(jwtMgr))

		r.Route("/levels", func(r chi.Router) {
			r.With(auth.RequireRole(auth.AllAdminRoles()...)).Get("/", levelAdmin.ListLevels)
			r.With(auth.RequireRole(auth.WriteRoles()...)).Post("/seed", levelAdmin.SeedLevels)
		})

		r.Route("/quests", func(r chi.Router) {
			r.With(auth.RequireRole(auth.AllAdminRoles()...)).Get("/", questAdmin.ListQuests)
			r.With(auth.RequireRole(auth.WriteRoles()...)).Post("/", questAdmin.CreateQuest)
			r.With(auth.RequireRole(auth.WriteRoles()...)).Patch("/{id}/active", questAdmin.SetQuestActive)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(auth.RequireRole(auth.WriteRoles()...))
			r.Post("/{id}/xp", userAdmin.GrantXP)
			r.Post("/{id}/badges", userAdmin.GrantBadge)
		})
	})

	return r
}
