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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/reacthost/console/api/internal/adapters"
	"github.com/reacthost/console/api/internal/api/handlers"
	"github.com/reacthost/console/api/internal/api/middleware"
	"github.com/reacthost/console/api/internal/api/router"
	"github.com/reacthost/console/api/internal/config"
	"github.com/reacthost/console/api/internal/core/domain"
	"github.com/reacthost/console/api/internal/core/services"
	"github.com/reacthost/console/api/internal/db/snapshot"
	deliveryhttp "github.com/reacthost/console/api/internal/delivery/http"
	"github.com/reacthost/console/api/internal/infrastructure/crypto"
	"github.com/reacthost/console/api/internal/metrics"
	"github.com/reacthost/console/api/internal/telemetry"
	"github.com/reacthost/console/api/internal/worker"
)

func main() {
	// --- 1. Core Telemetry & Configuration ---
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded .env file")
	}
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})).
		With(slog.String("service", "reacthost-api"))
	slog.SetDefault(logger)
	logger.Info("🚀 Booting ReactHost console API...", slog.String("env", cfg.Environment))

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// --- 2. Persistence ---
	snapshots, err := snapshot.Open(rootCtx, cfg)
	if err != nil {
		logger.Error("FATAL: snapshot backend failed", slog.String("backend", cfg.SnapshotBackend), slog.Any("error", err))
		os.Exit(1)
	}
	defer snapshots.Close()

	seed, err := services.LoadSeed(cfg.SeedFile)
	if err != nil {
		logger.Error("FATAL: seed set invalid", slog.Any("error", err))
		os.Exit(1)
	}

	// 🛡️ Env var values are sealed at rest when a master key is configured
	var cryptoService domain.CryptoService
	if cfg.MasterKeyHex != "" {
		aes, err := crypto.NewDerivedAESCryptoService(cfg.MasterKeyHex, crypto.PurposeEnvVars)
		if err != nil {
			logger.Error("FATAL: crypto init failed", slog.Any("error", err))
			os.Exit(1)
		}
		cryptoService = aes
	} else {
		logger.Warn("ENCRYPTION_KEY not set, env var values are stored in plaintext")
	}

	store := services.NewProjectStore(
		snapshots,
		services.NewEnvVarService(cryptoService, logger),
		seed,
		cfg.HostingDomain,
		logger,
	)
	projects, err := store.Load(rootCtx)
	if err != nil {
		logger.Error("FATAL: could not load projects", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Projects loaded", slog.Int("count", len(projects)))

	// --- 3. Dependency Injection ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	telemetryHub := telemetry.NewHub()
	view := services.NewViewState(store)

	deployWorker := worker.NewDeploymentWorker(telemetryHub, cfg.ProvisionDelay, logger)
	simulator := services.NewDeploymentSimulator(store, view, deployWorker, telemetryHub, recorder, cfg.ResetDelay, logger)

	var generator domain.TextGenerator
	if cfg.AdviceAPIKey != "" {
		gemini, err := adapters.NewGeminiClient(cfg.AdviceBaseURL, cfg.AdviceAPIKey)
		if err != nil {
			logger.Error("FATAL: advice client failed", slog.Any("error", err))
			os.Exit(1)
		}
		generator = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, the architect will report offline")
	}
	advice := services.NewAdviceService(generator, cfg.AdviceModel, recorder, logger)

	// --- 4. HTTP Gateway ---
	mux := router.NewRouter(router.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		ProjectHandler: handlers.NewProjectHandler(store, view, logger),
		WizardHandler:  handlers.NewWizardHandler(simulator, telemetryHub, logger),
		WSHandler:      handlers.NewWebSocketHandler(telemetryHub, cfg.AllowedOrigins, logger),
		AdviceHandler:  handlers.NewAdviceHandler(advice, store),
		ViewHandler:    handlers.NewViewHandler(view),
		HealthHandler:  deliveryhttp.NewHealthHandler(snapshots),
		AdviceLimiter:  middleware.NewRateLimiter(rootCtx, "/api/v1/advice", cfg.AdviceRatePerMinute, recorder),
		Metrics:        recorder,
		Gatherer:       registry,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      75 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// --- 5. Graceful Exit ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("🌐 ReactHost console API active", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("CRITICAL: Server crashed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Abort any fabricated build first so it cannot write after the store closes.
	if err := simulator.Shutdown(shutdownCtx); err != nil {
		logger.Error("ERROR: provisioning did not stop", slog.Any("error", err))
	}
	cancelRoot()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ERROR: Forced shutdown", slog.Any("error", err))
	}
	logger.Info("✅ ReactHost console API stopped.")
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
