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

	"github.com/inkwell-app/inkwell/internal/app"
	"github.com/inkwell-app/inkwell/internal/auth"
	"github.com/inkwell-app/inkwell/internal/notes"
	"github.com/inkwell-app/inkwell/internal/observability"
	"github.com/inkwell-app/inkwell/internal/platform/cache"
	"github.com/inkwell-app/inkwell/internal/platform/db"
	"github.com/inkwell-app/inkwell/internal/shared"
	"github.com/inkwell-app/inkwell/internal/view"
	"github.com/inkwell-app/inkwell/jobs"
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
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "inkwell_session", cfg.SessionSecret, cfg.SessionTTL, cfg.SessionTouchInterval, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	authRepo := auth.NewRepository(dbpool)
	hasher := auth.NewHasher()
	auditLogger := shared.NewAuditLogger(dbpool)

	// The strategy set is fixed at startup from deployment configuration.
	// Without Google credentials the app serves local auth only.
	var googleProvider auth.OAuthProvider
	googleStrategy := (*auth.GoogleStrategy)(nil)
	if cfg.GoogleConfigured() {
		provider, err := auth.NewGoogleProvider(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
		if err != nil {
			logger.Warn("google oauth discovery failed, continuing with local auth only", slog.Any("error", err))
		} else {
			googleProvider = provider
			googleStrategy = auth.NewGoogleStrategy(authRepo)
		}
	} else {
		logger.Warn("google oauth credentials not set, federated login disabled")
	}
	strategies := auth.NewStrategies(auth.NewLocalStrategy(authRepo, hasher), googleStrategy)

	metrics := observability.NewMetrics()

	authService := auth.NewService(authRepo, hasher, strategies, auditLogger)
	authHandler := auth.NewHandler(logger, authService, googleProvider, templates, sessionManager, csrfManager, metrics)
	currentUser := auth.NewCurrentUser(authService, logger)

	notesRepo := notes.NewRepository(dbpool)
	notesService := notes.NewService(notesRepo)
	notesHandler := notes.NewHandler(logger, notesService, templates, csrfManager)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		CurrentUser:    currentUser,
		NotesHandler:   notesHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
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
