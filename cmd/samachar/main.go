package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/samachar-news/samachar/internal/app"
	"github.com/samachar-news/samachar/internal/audit"
	audithttp "github.com/samachar-news/samachar/internal/audit/http"
	"github.com/samachar-news/samachar/internal/auth"
	"github.com/samachar-news/samachar/internal/observability"
	"github.com/samachar-news/samachar/internal/platform/cache"
	"github.com/samachar-news/samachar/internal/platform/db"
	"github.com/samachar-news/samachar/internal/rbac"
	"github.com/samachar-news/samachar/internal/roles"
	"github.com/samachar-news/samachar/internal/shared"
	"github.com/samachar-news/samachar/internal/users"
	"github.com/samachar-news/samachar/internal/view"
	"github.com/samachar-news/samachar/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	sessionManager := shared.NewSessionManager(redisClient, shared.SessionOptions{
		CookieName: "samachar_session",
		Secret:     cfg.SessionSecret,
		TTL:        cfg.SessionTTL,
		Secure:     cfg.IsProduction(),
	})
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	rbacService := rbac.NewService(rbac.NewPGStore(pool),
		rbac.WithLogger(logger),
		rbac.WithDecisionRecorder(metrics),
	)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("load templates", slog.Any("error", err))
		os.Exit(1)
	}
	dashboard := &view.Dashboard{
		Engine: templates,
		CSRF:   csrfManager,
		Menus:  rbacService,
		Logger: logger,
	}

	redisOpts := cfg.Redis().QueueOpts()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	auditSink := jobs.NewAuditEnqueuer(jobClient, logger)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("job inspector close", slog.Any("error", err))
		}
	}()

	authService := auth.NewService(auth.NewRepository(pool), logger)
	rolesService := roles.NewService(roles.NewRepository(pool), auditSink, rbacService, logger)
	usersService := users.NewService(users.NewRepository(pool), auditSink, rbacService, logger)
	auditService := audit.NewService(audit.NewRepository(pool))

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Dashboard:      dashboard,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		RBACMiddleware: rbacMiddleware,
		Access:         rbacService,
		AuthHandler:    auth.NewHandler(logger, authService, dashboard, sessionManager),
		AccessAPI:      rbac.NewHandler(logger, rbacService),
		RolesHandler:   roles.NewHandler(logger, rolesService, dashboard, rbacMiddleware),
		UsersHandler:   users.NewHandler(logger, usersService, dashboard, rbacMiddleware),
		AuditHandler:   audithttp.NewHandler(logger, auditService, rbacMiddleware),
		JobHandler:     jobs.NewHandler(inspector, logger),
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server starting", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	logger.Info("http server stopped")
}
