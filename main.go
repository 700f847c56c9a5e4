package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/s1natex/todos-api-GO/internal/config"
	"github.com/s1natex/todos-api-GO/internal/middleware"
	"github.com/s1natex/todos-api-GO/internal/telemetry"
	"github.com/s1natex/todos-api-GO/internal/todos"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger) // for third-party packages that use slog

	if err := run(cfg, logger); err != nil {
		logger.Error("server_error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.TraceExporter, cfg.ServiceName, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Error("tracing_shutdown_error", slog.String("error", err.Error()))
		}
	}()

	repo, closeRepo, err := openRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	if cfg.SeedFile != "" {
		n, err := todos.Seed(repo, cfg.SeedFile)
		if err != nil {
			return err
		}
		logger.Info("store_seeded", slog.String("file", cfg.SeedFile), slog.Int("count", n))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := todos.RegisterMetrics(reg, repo); err != nil {
		return fmt.Errorf("register todo metrics: %w", err)
	}
	metrics, err := middleware.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	r := newRouter(routerDeps{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		gather:  reg,
		auth: middleware.AuthConfig{
			Mode:        middleware.AuthMode(cfg.AuthMode),
			APIKey:      cfg.APIKey,
			BearerToken: cfg.BearerToken,
			SkipPaths:   []string{"/health", "/metrics"},
		},
		limiter: middleware.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listen",
			slog.String("addr", cfg.HTTPAddr),
			slog.String("store", cfg.Store),
			slog.String("auth", cfg.AuthMode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server_shutdown")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func openRepo(ctx context.Context, cfg config.Config) (todos.Repository, func(), error) {
	if cfg.Store != "sqlite" {
		return todos.NewInMemoryRepo(), func() {}, nil
	}

	dsn, err := todos.SQLiteFileDSN(cfg.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite dsn: %w", err)
	}
	repo, err := todos.NewSQLiteRepo(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := repo.ApplyMigrations(ctx); err != nil {
		_ = repo.Close()
		return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return repo, func() { _ = repo.Close() }, nil
}

type routerDeps struct {
	repo    todos.Repository
	logger  *slog.Logger
	metrics *middleware.Metrics
	gather  prometheus.Gatherer
	auth    middleware.AuthConfig
	limiter *rate.Limiter
}

// newRouter wires the health and metrics endpoints, todo routes, and middleware stack
func newRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// ---- Middleware stack (order matters a bit) ----
	// RequestID first so downstream can include it (logger, errors, etc.)
	r.Use(chimw.RequestID)

	// Panic recovery: never crash the server; returns 500 on panics
	r.Use(chimw.Recoverer)

	// Timeouts: cancel handlers that exceed this duration
	r.Use(chimw.Timeout(15 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "Trace-Id"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.RequestLogger(d.logger))
	if d.metrics != nil {
		r.Use(d.metrics.Middleware)
	}
	r.Use(middleware.RateLimitMiddleware(d.limiter))
	r.Use(middleware.AuthMiddleware(d.auth))

	// ---- Routes ----

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	if d.gather != nil {
		r.Method(http.MethodGet, "/metrics", middleware.MetricsHandler(d.gather))
	}

	todos.RegisterRoutes(r, d.repo)

	return r
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}
