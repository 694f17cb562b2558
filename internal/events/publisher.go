package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/sony/gobreaker/v2"

	"prison-events/internal/types"
)

// SNSPublisher abstracts the SNS Publish operation for testability.
// Production code uses the *sns.Client from aws-sdk-go-v2.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// TelemetryTracker records one occurrence of a named telemetry event.
// *telemetry.Client is the production implementation.
type TelemetryTracker interface {
	TrackEvent(ctx context.Context, name string, properties map[string]string)
}

// Publisher serializes domain events and publishes them to the outbound SNS
// topic. Failure classification is the contract the listener's retry
// behavior hangs off:
//
//   - an SNS parameter-validation rejection is terminal: the event can never
//     publish, so it is counted and swallowed;
//   - any other transport failure (breaker open, timeout, connectivity) is
//     counted and returned, so the message is redelivered;
//   - a success response missing its message id is treated as a failure and
//     returned.
type Publisher struct {
	client    SNSPublisher
	topicARN  string
	breaker   *gobreaker.CircuitBreaker[*sns.PublishOutput]
	telemetry TelemetryTracker
	logger    types.Logger
	now       func() time.Time
}

// NewPublisher creates a Publisher targeting the given topic.
func NewPublisher(client SNSPublisher, topicARN string, telemetry TelemetryTracker, logger types.Logger) *Publisher {
	cb := gobreaker.NewCircuitBreaker[*sns.PublishOutput](gobreaker.Settings{
		Name:        "sns-prison-events",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			// Validation rejections are deterministic; they must not trip
			// the breaker against a healthy topic.
			return err == nil || isValidationRejection(err)
		},
	})

	return &Publisher{
		client:    client,
		topicARN:  topicARN,
		breaker:   cb,
		telemetry: telemetry,
		logger:    logger,
		now:       time.Now,
	}
}

// Publish sends one event to the topic, blocking until the transport
// resolves. See the type comment for the failure contract.
func (p *Publisher) Publish(ctx context.Context, event *OffenderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return types.NewAppError(types.ErrCodePublishIncomplete, "failed to marshal event", err)
	}

	input := &sns.PublishInput{
		TopicArn:          aws.String(p.topicARN),
		Message:           aws.String(string(body)),
		MessageAttributes: p.attributesFor(event),
	}

	out, err := p.breaker.Execute(func() (*sns.PublishOutput, error) {
		return p.client.Publish(ctx, input)
	})

	if err != nil {
		if isValidationRejection(err) {
			// Permanently unpublishable: count it and move on.
			p.logger.Error("event rejected by topic validation, dropping",
				"event_type", event.EventType,
				"error_code", string(types.ErrCodePublishRejected),
				"error", err.Error(),
			)
			p.trackFailure(ctx, event)
			return nil
		}
		p.logger.Error("failed to publish event",
			"event_type", event.EventType,
			"error", err.Error(),
		)
		p.trackFailure(ctx, event)
		return types.NewAppError(types.ErrCodePublishUnavailable, "failed to publish event", err)
	}

	if out == nil || out.MessageId == nil || *out.MessageId == "" {
		p.trackFailure(ctx, event)
		return types.NewAppError(types.ErrCodePublishIncomplete,
			fmt.Sprintf("publish of %s returned no message id", event.EventType), nil)
	}

	props, err := event.ToAttributeMap()
	if err != nil {
		// Serialization already succeeded above; this is unreachable in
		// practice but must not fail the delivery.
		props = map[string]string{"eventType": event.EventType}
	}
	p.telemetry.TrackEvent(ctx, event.EventType, props)

	return nil
}

// attributesFor builds the message attributes: the public event type, the
// publish timestamp, and a derived code for the alert and movement families.
func (p *Publisher) attributesFor(event *OffenderEvent) map[string]snsTypes.MessageAttributeValue {
	attrs := map[string]snsTypes.MessageAttributeValue{
		"eventType": {
			DataType:    aws.String("String"),
			StringValue: aws.String(event.EventType),
		},
		"publishedAt": {
			DataType:    aws.String("String"),
			StringValue: aws.String(p.now().Format(time.RFC3339)),
		},
	}

	if code := derivedCode(event); code != nil {
		attrs["code"] = snsTypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: code,
		}
	}

	return attrs
}

// derivedCode returns the "code" attribute value: the alert code for alert
// events, "{movementType}-{directionCode}" for external movement events,
// nil for everything else.
func derivedCode(event *OffenderEvent) *string {
	switch {
	case strings.HasPrefix(event.EventType, "ALERT-"):
		return event.AlertCode
	case strings.HasPrefix(event.EventType, "EXTERNAL_MOVEMENT"):
		if event.MovementType == nil || event.DirectionCode == nil {
			return nil
		}
		code := *event.MovementType + "-" + *event.DirectionCode
		return &code
	default:
		return nil
	}
}

func (p *Publisher) trackFailure(ctx context.Context, event *OffenderEvent) {
	p.telemetry.TrackEvent(ctx, event.EventType+types.FailedEventSuffix, map[string]string{
		"eventType": event.EventType,
	})
}

// isValidationRejection reports whether the error is SNS refusing the
// request as malformed, which no number of retries will fix.
func isValidationRejection(err error) bool {
	var invalidParam *snsTypes.InvalidParameterException
	var invalidValue *snsTypes.InvalidParameterValueException
	return errors.As(err, &invalidParam) || errors.As(err, &invalidValue)
}
