// Package main is the entry point for the prison-events service.
//
// It consumes raw Xtag trigger messages from SQS, transforms them into typed
// offender events, enriches them from the NOMIS replica, and publishes them
// to the outbound SNS topic. Alongside the consumer it serves a small HTTP
// surface: health probes, build info, and the authenticated DLQ retry
// endpoint.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

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

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"prison-events/internal/config"
	"prison-events/internal/core"
	"prison-events/internal/db"
	"prison-events/internal/events"
	"prison-events/internal/queue"
	"prison-events/internal/telemetry"
	"prison-events/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("prison-events starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// NOMIS replica pool.
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.HealthCheckPeriod = cfg.Database.HealthCheckPeriod
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("creating database pool: %w", err)
	}
	defer pool.Close()

	// AWS clients.
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}
	sqsClient := sqs.NewFromConfig(awsCfg)
	snsClient := sns.NewFromConfig(awsCfg)
	cwClient := cloudwatch.NewFromConfig(awsCfg)

	// Pipeline wiring.
	tel := telemetry.NewClient(cwClient, cfg.Telemetry.Namespace, cfg.Telemetry.Enabled, logger)
	repo := db.NewEventRepository(pool)
	pipeline := events.NewPipeline(
		events.NewTransformer(logger),
		events.NewEnricher(repo, logger),
		events.NewPublisher(snsClient, cfg.AWS.EventTopicARN, tel, logger),
		logger,
	)
	listener := events.NewListener(sqsClient, cfg.AWS.EventQueueURL, pipeline, cfg.Listener, logger)

	// HTTP surface.
	transferer := queue.NewTransferer(sqsClient, cfg.AWS, logger)
	srv, err := core.NewServer(cfg, logger, transferer, []core.HealthProbe{
		&core.DBProbe{Pool: pool},
		&core.QueueProbe{Client: sqsClient, QueueURL: cfg.AWS.EventQueueURL, ProbeName: "sqs"},
		&core.QueueProbe{Client: sqsClient, QueueURL: cfg.AWS.EventDLQURL, ProbeName: "sqs-dlq"},
		&core.TopicProbe{Client: snsClient, TopicARN: cfg.AWS.EventTopicARN},
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("event listener starting",
			"queue_url", cfg.AWS.EventQueueURL,
			"concurrency", cfg.Listener.Concurrency,
		)
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("event listener: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err.Error())
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("service stopped cleanly")
	return nil
}

// newLogger creates a structured logger at the configured level.
func newLogger(level string) types.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return &slogAdapter{logger: slog.New(handler)}
}

// slogAdapter adapts *slog.Logger to the types.Logger interface.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}
