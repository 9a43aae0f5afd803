// Command presupuesto-server serves the budget load and save API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/advice"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/analysis"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/backend"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/cli"
	apphttp "github.com/W4k4s/herramienta-presupuesto-economilenial/internal/http"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp, os.Getenv("LOG_LEVEL") == "debug")

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		os.Exit(1)
	}

	rules, err := cfg.Rules()
	if err != nil {
		logger.Error("Failed to load advice rules", log.FieldError, err, "path", cfg.RulesFile)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	opts := apphttp.Options{
		Addr:               ":" + cfg.Port,
		Repository:         res.Repository,
		Evaluator:          advice.NewEvaluator(rules, analysis.NewMemo(cfg.CacheSize, cfg.CacheTTL)),
		IdentityHeader:     cfg.IdentityHeader,
		APIToken:           cfg.APIToken,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	}
	if res.Publisher != nil {
		opts.Publisher = res.Publisher
	}
	srv := apphttp.NewServer(opts)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting presupuesto server", "port", cfg.Port, "backend", cfg.DataBackend,
		"events", res.Publisher != nil, log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
