// Command presupuesto-worker appends a summary row for every saved budget.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/advice"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/amqp"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/analysis"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/backend"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/cli"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/log"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker, os.Getenv("LOG_LEVEL") == "debug")
	logger.Info("Starting presupuesto-worker", log.FieldOperation, log.OpStartup)

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		os.Exit(1)
	}
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration validation failed", log.FieldError, err,
			"error_type", log.ErrorTypeConfiguration)
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
	// The worker consumes, so it never needs the factory's publisher.
	backendCfg.AMQPURL = ""

	factory := backend.NewFactory(logger)
	res, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	writer, err := factory.CreateSummaryWriter(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize summary writer", log.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	evaluator := advice.NewEvaluator(rules, analysis.NewMemo(cfg.CacheSize, cfg.CacheTTL))
	w := worker.NewSummaryWorker(res.Repository, writer, evaluator, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		if err := consumer.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	if err := w.Run(ctx, consumer); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Summary worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
