package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sekolah-app/sekolah/internal/academics/sessions"
	"github.com/sekolah-app/sekolah/internal/academics/terms"
	"github.com/sekolah-app/sekolah/internal/app"
	"github.com/sekolah-app/sekolah/internal/audit"
	"github.com/sekolah-app/sekolah/internal/auth"
	"github.com/sekolah-app/sekolah/internal/masterdata/branches"
	"github.com/sekolah-app/sekolah/internal/masterdata/levels"
	"github.com/sekolah-app/sekolah/internal/observability"
	"github.com/sekolah-app/sekolah/internal/platform/cache"
	"github.com/sekolah-app/sekolah/internal/platform/db"
	"github.com/sekolah-app/sekolah/internal/rbac"
	"github.com/sekolah-app/sekolah/internal/roles"
	"github.com/sekolah-app/sekolah/internal/schools"
	"github.com/sekolah-app/sekolah/internal/shared"
	"github.com/sekolah-app/sekolah/internal/students"
	"github.com/sekolah-app/sekolah/internal/users"
	"github.com/sekolah-app/sekolah/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	dataCache := cache.NewCache(redisClient, cfg.CacheTTL)
	responseCache := cache.NewResponseCache(cfg.CacheTTL)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	issuer := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:             cfg.JWTSecret,
		AccessTokenExpiry:  cfg.AccessTokenExpiry,
		RefreshTokenExpiry: cfg.RefreshTokenExpiry,
	})

	rbacService := rbac.NewService(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, rbacService, issuer, logger, auditLogger)
	authHandler := auth.NewHandler(logger, authService)

	schoolsService := schools.NewService(schools.NewRepository(dbpool))
	schoolsHandler := schools.NewHandler(logger, schoolsService)

	levelsService := levels.NewService(levels.NewRepository(dbpool))
	levelsHandler := levels.NewHandler(logger, levelsService)

	branchesService := branches.NewService(branches.NewRepository(dbpool))
	branchesHandler := branches.NewHandler(logger, branchesService)

	studentsService := students.NewService(students.NewRepository(dbpool), dataCache)
	studentsHandler := students.NewHandler(logger, studentsService)

	sessionsRepo := sessions.NewRepository(dbpool)
	sessionsService := sessions.NewService(sessionsRepo)
	sessionsHandler := sessions.NewHandler(logger, sessionsService)

	termsService := terms.NewService(terms.NewRepository(dbpool), sessionsRepo)
	termsHandler := terms.NewHandler(logger, termsService)

	usersService := users.NewService(users.NewRepository(dbpool), auditLogger)
	usersHandler := users.NewHandler(logger, usersService)

	rolesService := roles.NewService(roles.NewRepository(dbpool), auditLogger)
	rolesHandler := roles.NewHandler(logger, rolesService)

	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService)

	auditHandler := audit.NewHandler(logger, audit.NewService(dbpool))

	jobsHandler := jobs.NewHandler(asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr}), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        authHandler,
		SchoolsHandler:     schoolsHandler,
		LevelsHandler:      levelsHandler,
		BranchesHandler:    branchesHandler,
		StudentsHandler:    studentsHandler,
		SessionsHandler:    sessionsHandler,
		TermsHandler:       termsHandler,
		UsersHandler:       usersHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		AuditHandler:       auditHandler,
		JobsHandler:        jobsHandler,
		RBACMiddleware:     rbac.Middleware{Verifier: issuer, Logger: logger},
		ResponseCache:      responseCache,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
