package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"leavedesk/internal/domain/audit"
	"leavedesk/internal/domain/core"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/platform/config"
	"leavedesk/internal/platform/db"
	"leavedesk/internal/platform/logging"
	"leavedesk/internal/platform/metrics"
	"leavedesk/internal/transport/http/api"
	audithandler "leavedesk/internal/transport/http/handlers/audit"
	authhandler "leavedesk/internal/transport/http/handlers/auth"
	corehandler "leavedesk/internal/transport/http/handlers/core"
	leavehandler "leavedesk/internal/transport/http/handlers/leave"
	"leavedesk/internal/transport/http/middleware"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg  config.Config
	pool *pgxpool.Pool
}

func Run(migrationsDir string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Environment == "development" {
		level = slog.LevelDebug
	}
	logger := logging.Setup(cfg.LogFile, level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrationsDir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	app := &App{cfg: cfg, pool: pool}
	handler := app.buildHandler()

	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *App) buildHandler() http.Handler {
	leaveStore := leave.NewStore(a.pool)
	coreStore := core.NewStore(a.pool)

	leaveSvc := leave.NewService(leaveStore, coreStore)
	leaveSvc.RequireRejectRemarks = a.cfg.RequireRejectRemarks
	coreSvc := core.NewService(coreStore, leaveSvc)
	auditSvc := audit.New(a.pool)

	var collector *metrics.Collector
	if a.cfg.MetricsEnabled {
		collector = metrics.New()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	if collector != nil {
		r.Use(middleware.Metrics(collector))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		api.Success(w, map[string]string{"status": "ok"}, middleware.GetRequestID(req.Context()))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := a.pool.Ping(req.Context()); err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database unreachable", middleware.GetRequestID(req.Context()))
			return
		}
		api.Success(w, map[string]string{"status": "ready"}, middleware.GetRequestID(req.Context()))
	})
	if collector != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(a.cfg.JWTSecret))

		r.Post("/auth/login", authhandler.NewHandler(coreSvc, a.cfg.JWTSecret, a.cfg.TokenTTL).HandleLogin)
		corehandler.NewHandler(coreSvc).RegisterRoutes(r)
		leavehandler.NewHandler(leaveSvc, collector).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
	})

	return r
}
