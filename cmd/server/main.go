// Package main is the entry point for the recollect memory assistant server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/harperclay/recollect/internal/api"
	"github.com/harperclay/recollect/internal/completion"
	"github.com/harperclay/recollect/internal/config"
	"github.com/harperclay/recollect/internal/engine"
	"github.com/harperclay/recollect/internal/intent"
	"github.com/harperclay/recollect/internal/memory/redisstore"
	"github.com/harperclay/recollect/internal/observability"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	bootLogger := observability.NewLogger(observability.LoggerConfig{
		Output:     os.Stdout,
		JSONFormat: true,
	})

	cfgManager, err := config.NewManager(*configPath, bootLogger)
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := cfgManager.Get()

	logger := observability.NewLogger(observability.LoggerConfig{
		Level:      observability.ParseLevel(cfg.Logging.Level),
		Output:     os.Stdout,
		JSONFormat: cfg.Logging.Format != "text",
	})
	logger.Info("starting recollect", "version", "0.1.0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := cfgManager.Watch(ctx); err != nil {
		logger.Warn("config hot-reload disabled", "error", err)
	}

	tracerProvider, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRate:  cfg.Tracing.SampleRate,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// The store surfaces failures per request; startup continues so
		// the service can recover once Redis is reachable.
		logger.Warn("redis unreachable at startup", "addr", cfg.Redis.Addr, "error", err)
	}
	pingCancel()

	store := redisstore.New(redisClient,
		redisstore.WithKeyPrefix(cfg.Redis.KeyPrefix),
		redisstore.WithLogger(logger),
	)

	eng := engine.New(intent.NewKeywordClassifier(), store,
		engine.WithSearchLimit(cfg.Memory.ChatSearchLimit),
		engine.WithLogger(logger),
	)

	completionClient := completion.NewHTTPClient(completion.Config{
		BaseURL:     cfg.Completion.BaseURL,
		APIKey:      cfg.Completion.APIKey,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
		Timeout:     cfg.Completion.Timeout,
	})

	handler := api.NewHandler(eng, store, completionClient, logger, api.Config{
		DefaultUser:  cfg.Memory.DefaultUser,
		ListLimit:    cfg.Memory.APIListLimit,
		SystemPrompt: cfg.Completion.SystemPrompt,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, store)

	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.Handler())
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      buildMiddlewareStack(cfg, logger)(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracer shutdown error", "error", err)
	}
	if err := redisClient.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	cfgManager.Close()
	logger.Info("server stopped")
}
