// Package main is the Lambda entry point for the prison-events pipeline.
//
// It consumes batches of raw Xtag trigger messages via the Lambda SQS event
// source and runs each record through the same transform/enrich/publish
// pipeline as the long-running service. Partial batch responses report
// failed records back to SQS so only those are redelivered.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/jackc/pgx/v5/pgxpool"

	"prison-events/internal/config"
	"prison-events/internal/db"
	pipelineEvents "prison-events/internal/events"
	"prison-events/internal/telemetry"
	"prison-events/internal/types"
	"prison-events/internal/xtag"
)

// Handler holds the dependencies for the event worker Lambda handler.
type Handler struct {
	pipeline *pipelineEvents.Pipeline
	logger   types.Logger
}

// Handle processes one SQS event batch. Records that fail are returned in
// batchItemFailures so SQS retries only those; everything else is acked.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{}

	for _, record := range sqsEvent.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process SQS record",
				"message_id", record.MessageId,
				"error", err.Error(),
			)
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId},
			)
		}
	}

	return response, nil
}

func (h *Handler) processRecord(ctx context.Context, record events.SQSMessage) error {
	var eventType *string
	if attr, ok := record.MessageAttributes[xtag.EventTypeAttribute]; ok && attr.StringValue != nil && *attr.StringValue != "" {
		eventType = attr.StringValue
	}
	sentTimestamp := record.Attributes["SentTimestamp"]

	return h.pipeline.Handle(ctx, eventType, sentTimestamp, []byte(record.Body))
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err.Error())
		os.Exit(1)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("failed to load AWS config", "error", err.Error())
		os.Exit(1)
	}

	tel := telemetry.NewClient(cloudwatch.NewFromConfig(awsCfg), cfg.Telemetry.Namespace, cfg.Telemetry.Enabled, logger)
	pipeline := pipelineEvents.NewPipeline(
		pipelineEvents.NewTransformer(logger),
		pipelineEvents.NewEnricher(db.NewEventRepository(pool), logger),
		pipelineEvents.NewPublisher(sns.NewFromConfig(awsCfg), cfg.AWS.EventTopicARN, tel, logger),
		logger,
	)

	handler := &Handler{pipeline: pipeline, logger: logger}
	logger.Info("event worker starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
	)
	lambda.Start(handler.Handle)
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
