// Package main is the entry point for the HOS engine API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-retry"

	"github.com/freighthos/eld-engine/internal/auth"
	"github.com/freighthos/eld-engine/internal/config"
	"github.com/freighthos/eld-engine/internal/handler"
	"github.com/freighthos/eld-engine/internal/hos"
	"github.com/freighthos/eld-engine/internal/middleware"
	"github.com/freighthos/eld-engine/internal/planner"
	"github.com/freighthos/eld-engine/internal/repo"
	"github.com/freighthos/eld-engine/internal/routing"
	"github.com/freighthos/eld-engine/internal/service"
	"github.com/freighthos/eld-engine/migrations"
	"github.com/freighthos/eld-engine/spec"
)

// maxRequestBody caps JSON request bodies. Planning payloads are small;
// anything near this size is garbage or abuse.
const maxRequestBody = 1 << 20 // 1 MiB

func main() {
	// .env is a local development convenience; absence is not an error.
	_ = godotenv.Load()

	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// log/slog is the stdlib structured logger introduced in Go 1.21.
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic. The container
	// orchestrator may start us before Postgres is ready, so retry the ping
	// with backoff instead of failing on the first attempt.
	backoff := retry.WithMaxRetries(5, retry.NewExponential(time.Second))
	err = retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		return retry.RetryableError(pool.Ping(ctx))
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// --- Domain wiring ----------------------------------------------------
	rules := hos.DefaultRules()
	rules.FuelIntervalMiles = cfg.FuelIntervalMiles

	var provider routing.Provider
	if cfg.RoutingProvider == "ors" {
		provider = routing.NewORSClient(cfg.ORSAPIKey)
	} else {
		provider = &routing.HaversineProvider{AverageSpeedMPH: cfg.AverageSpeedMPH}
	}
	slog.Info("routing provider configured", "provider", cfg.RoutingProvider)

	drivers := repo.NewDriverRepo(pool)
	events := repo.NewEventRepo(pool)
	trips := repo.NewTripRepo(pool)
	dailyLogs := repo.NewDailyLogRepo(pool)

	tokens := auth.NewTokenManager(cfg.TokenSecret, auth.DefaultTokenTTL)
	ledger := service.NewLedgerService(events, dailyLogs, rules)
	tripSvc := service.NewTripService(trips, ledger, planner.NewSegmenter(provider), rules)
	logSvc := service.NewLogService(events, dailyLogs, rules)
	driverSvc := service.NewDriverService(drivers, trips, ledger, tokens)

	api := handler.NewServer(driverSvc, tripSvc, logSvc, ledger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMetricsHandler())
	r.Use(middleware.NewMaxBodySizeHandler(maxRequestBody))

	r.Get("/healthz", handler.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(spec.OpenAPI) //nolint:errcheck
	})
	r.Mount("/api/v1", api.Routes(tokens))

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// runMigrations applies all pending migrations from the embedded FS.
// goose needs database/sql, not a pgx pool, so it gets its own connection.
func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(context.Background())
	if err != nil {
		return err
	}
	for _, res := range results {
		slog.Info("migration applied", "source", res.Source.Path)
	}
	return nil
}
