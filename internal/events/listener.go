package events

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"golang.org/x/sync/errgroup"

	"prison-events/internal/config"
	"prison-events/internal/types"
	"prison-events/internal/xtag"
)

// Pipeline drives one raw message through transform -> enrich -> publish.
// It is shared by the long-running poller and the Lambda adapter, and is
// safe for concurrent use: none of its stages hold per-call state.
type Pipeline struct {
	transformer *Transformer
	enricher    *Enricher
	publisher   *Publisher
	logger      types.Logger
}

// NewPipeline wires the three stages together.
func NewPipeline(transformer *Transformer, enricher *Enricher, publisher *Publisher, logger types.Logger) *Pipeline {
	return &Pipeline{
		transformer: transformer,
		enricher:    enricher,
		publisher:   publisher,
		logger:      logger,
	}
}

// Handle processes one raw message. A nil return means the message is done
// (published, or legitimately dropped) and must be acknowledged; an error
// means the delivery attempt failed and the message must be left for
// redelivery. Handler panics are mapping defects: they are logged and
// converted to errors here, the delivery boundary, so the transport retries
// and eventually dead-letters the message.
func (p *Pipeline) Handle(ctx context.Context, eventType *string, sentTimestampMillis string, body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("mapping defect while transforming event",
				"event_type", stringOrEmpty(eventType),
				"panic", fmt.Sprintf("%v", r),
			)
			err = types.NewAppError(types.ErrCodeTransformMissingField,
				fmt.Sprintf("mapping defect: %v", r), nil)
		}
	}()

	raw := xtag.FromMessage(eventType, sentTimestampMillis, body)

	event := p.transformer.Transform(raw)
	if event == nil {
		// Dropped by design, not a failure.
		return nil
	}

	event, err = p.enricher.Enrich(ctx, event)
	if err != nil {
		p.logger.Error("failed to enrich event",
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	if event == nil {
		return nil
	}

	return p.publisher.Publish(ctx, event)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SQSConsumer abstracts the SQS operations the listener uses.
type SQSConsumer interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Listener long-polls the source queue and feeds each message through the
// Pipeline. The acknowledgment contract is the whole retry story: a message
// is deleted only when Handle returns nil; otherwise it stays on the queue
// for redelivery until the redrive policy moves it to the DLQ. There is no
// retry loop here.
type Listener struct {
	client   SQSConsumer
	queueURL string
	pipeline *Pipeline
	cfg      config.ListenerConfig
	logger   types.Logger
}

// NewListener creates a Listener consuming from the given queue.
func NewListener(client SQSConsumer, queueURL string, pipeline *Pipeline, cfg config.ListenerConfig, logger types.Logger) *Listener {
	return &Listener{
		client:   client,
		queueURL: queueURL,
		pipeline: pipeline,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run starts the configured number of workers and blocks until the context
// is cancelled. Each worker owns its receive/process/delete cycle; messages
// are processed synchronously end-to-end.
func (l *Listener) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < l.cfg.Concurrency; i++ {
		worker := i
		g.Go(func() error {
			return l.work(ctx, worker)
		})
	}
	return g.Wait()
}

func (l *Listener) work(ctx context.Context, worker int) error {
	logger := l.logger.With("worker", worker)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		out, err := l.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:                    aws.String(l.queueURL),
			MaxNumberOfMessages:         int32(l.cfg.BatchSize),
			WaitTimeSeconds:             int32(l.cfg.WaitTime / time.Second),
			MessageSystemAttributeNames: []sqsTypes.MessageSystemAttributeName{sqsTypes.MessageSystemAttributeNameSentTimestamp},
			MessageAttributeNames:       []string{xtag.EventTypeAttribute},
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("failed to receive messages", "error", err.Error())
			// Back off briefly so a broken queue doesn't spin the worker.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, msg := range out.Messages {
			l.processMessage(ctx, msg, logger)
		}
	}
}

// processMessage runs one message through the pipeline and acknowledges it
// on success. Failures are logged and left for redelivery.
func (l *Listener) processMessage(ctx context.Context, msg sqsTypes.Message, logger types.Logger) {
	eventType := extractEventType(msg)
	sentTimestamp := msg.Attributes[string(sqsTypes.MessageSystemAttributeNameSentTimestamp)]

	msgLogger := logger.With(
		"message_id", aws.ToString(msg.MessageId),
		"event_type", stringOrEmpty(eventType),
	)

	if err := l.pipeline.Handle(ctx, eventType, sentTimestamp, []byte(aws.ToString(msg.Body))); err != nil {
		msgLogger.Error("processing failed, leaving message for redelivery",
			"error", err.Error(),
		)
		return
	}

	if _, err := l.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(l.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		// The message will be redelivered and reprocessed; publication is
		// at-least-once by contract.
		msgLogger.Warn("failed to delete processed message", "error", err.Error())
	}
}

// extractEventType pulls the raw trigger code from the message attributes.
// A missing attribute yields nil, which the transformer drops.
func extractEventType(msg sqsTypes.Message) *string {
	attr, ok := msg.MessageAttributes[xtag.EventTypeAttribute]
	if !ok || attr.StringValue == nil || *attr.StringValue == "" {
		return nil
	}
	return attr.StringValue
}
