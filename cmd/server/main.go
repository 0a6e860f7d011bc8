// Copyright 2024 Event Planner Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/your-org/event-planner-assistant/internal/api"
	"github.com/your-org/event-planner-assistant/internal/catalog"
	"github.com/your-org/event-planner-assistant/internal/config"
	"github.com/your-org/event-planner-assistant/internal/health"
	"github.com/your-org/event-planner-assistant/internal/mergecache"
	"github.com/your-org/event-planner-assistant/internal/metrics"
	internalopenai "github.com/your-org/event-planner-assistant/internal/openai"
	"github.com/your-org/event-planner-assistant/internal/resilience"
	"github.com/your-org/event-planner-assistant/internal/session"
	"github.com/your-org/event-planner-assistant/internal/suggest"
	"github.com/your-org/event-planner-assistant/internal/telemetry"
)

const (
	serviceName    = "event-planner"
	serviceVersion = "1.0.0"
)

// app holds the wired service components
type app struct {
	handler  http.Handler
	sessions *session.Manager
	breaker  *resilience.CircuitBreaker
	metrics  *metrics.Collector
}

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, level, err := config.NewLogger(cfg.Logging, serviceName)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	maskedConfig := cfg.MaskSensitiveValues()
	logger.Info("Configuration loaded successfully",
		zap.String("service", serviceName),
		zap.Bool("generation_enabled", maskedConfig.OpenAI.Enabled),
		zap.String("openai_endpoint", maskedConfig.OpenAI.Endpoint),
		zap.String("openai_model", maskedConfig.OpenAI.Model),
		zap.String("openai_api_key", maskedConfig.OpenAI.APIKey),
		zap.String("store_type", maskedConfig.Store.Type),
		zap.Duration("request_timeout", maskedConfig.Server.RequestTimeout),
	)

	shutdownTracer, err := telemetry.InitTracer(telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     serviceVersion,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	application, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize service", zap.Error(err))
	}

	if cfg.Server.HotReload {
		err := config.WatchConfig(*configPath, logger, func(updated *config.Config) {
			level.SetLevel(config.ParseLevel(updated.Logging.Level))
			logger.Info("Configuration reloaded", zap.String("log_level", updated.Logging.Level))
		})
		if err != nil {
			logger.Warn("Hot reload unavailable", zap.Error(err))
		}
	}

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           application.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting event planner service",
			zap.Int("port", cfg.Server.Port),
			zap.String("model", cfg.OpenAI.Model))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to shut down server", zap.Error(err))
	}
	if err := application.sessions.Close(); err != nil {
		logger.Error("Failed to close session store", zap.Error(err))
	}
	if err := shutdownTracer(ctx); err != nil {
		logger.Error("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Event planner service stopped")
}

// newApp wires the catalog, generator, orchestrator, session store and HTTP
// routes from configuration
func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	fallback := catalog.Default()
	if cfg.Catalog.Path != "" {
		loaded, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		fallback = loaded
		logger.Info("Loaded catalog override", zap.String("path", cfg.Catalog.Path))
	}

	var backend suggest.Generator = internalopenai.Disabled()
	if cfg.OpenAI.Enabled {
		client, err := internalopenai.NewClient(cfg.GenerationConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize generation client: %w", err)
		}
		backend = client
	} else {
		logger.Warn("Generation disabled, serving catalog suggestions only")
	}

	breaker := resilience.NewCircuitBreaker(cfg.BreakerConfig(), logger)
	orchestrator := suggest.NewOrchestrator(resilience.NewGuardedGenerator(backend, breaker), fallback, logger)

	sessions, err := session.NewManager(cfg.SessionConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	logger.Info("Session store ready", zap.Any("stats", sessions.GetStats()))

	collector := metrics.NewCollector(logger, nil)

	healthManager := health.NewManager(serviceName, serviceVersion, logger)
	healthManager.AddChecker("store", health.StoreChecker(cfg.Store.Type, sessions.Ping))
	healthManager.AddChecker("generation", health.GeneratorChecker(cfg.OpenAI.Enabled, cfg.OpenAI.Model, breaker))
	healthManager.AddChecker("catalog", health.CatalogChecker(fallback.EventTypes))
	healthManager.AddChecker("suggestions", collector)

	handler := api.NewHandler(metrics.Instrument(orchestrator, collector), sessions, mergecache.New(sessions, logger),
		cfg.Server.RequestTimeout, logger)
	router := api.NewRouter(handler, healthManager.Handler())
	router.GET("/metrics", collector.Handler())

	return &app{
		handler:  otelhttp.NewHandler(router, serviceName),
		sessions: sessions,
		breaker:  breaker,
		metrics:  collector,
	}, nil
}
