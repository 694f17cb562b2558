package main

import (
	"context"
	"errors"
	"testing"

	lambdaEvents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prison-events/internal/db"
	pipelineEvents "prison-events/internal/events"
	"prison-events/internal/types"
)

// testLogger implements types.Logger for tests.
type testLogger struct{}

func (l *testLogger) Info(_ string, _ ...any)    {}
func (l *testLogger) Error(_ string, _ ...any)   {}
func (l *testLogger) Warn(_ string, _ ...any)    {}
func (l *testLogger) With(_ ...any) types.Logger { return l }

// mockSNS implements pipelineEvents.SNSPublisher for tests.
type mockSNS struct {
	err   error
	calls int
}

func (m *mockSNS) Publish(_ context.Context, _ *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{MessageId: aws.String("mid-001")}, nil
}

// nopRepo implements pipelineEvents.LookupRepository with empty lookups.
type nopRepo struct{}

func (nopRepo) OffenderNumberForOffender(_ context.Context, _ int64) (*string, error) {
	return nil, nil
}
func (nopRepo) OffenderNumberForBooking(_ context.Context, _ int64) (*string, error) {
	return nil, nil
}
func (nopRepo) MovementByBookingAndSeq(_ context.Context, _, _ int64) (*db.Movement, error) {
	return nil, nil
}
func (nopRepo) OffenderNumberForPersonRestriction(_ context.Context, _ int64) (*string, error) {
	return nil, nil
}
func (nopRepo) BookingDatesByBookingID(_ context.Context, _ int64) (*db.BookingDates, error) {
	return nil, nil
}

type nopTelemetry struct{}

func (nopTelemetry) TrackEvent(_ context.Context, _ string, _ map[string]string) {}

func newTestHandler(client *mockSNS) *Handler {
	logger := &testLogger{}
	pipeline := pipelineEvents.NewPipeline(
		pipelineEvents.NewTransformer(logger),
		pipelineEvents.NewEnricher(nopRepo{}, logger),
		pipelineEvents.NewPublisher(client, "arn:aws:sns:eu-west-2:000000000000:prison-events", nopTelemetry{}, logger),
		logger,
	)
	return &Handler{pipeline: pipeline, logger: logger}
}

func sqsRecord(messageID, eventType, body string) lambdaEvents.SQSMessage {
	return lambdaEvents.SQSMessage{
		MessageId: messageID,
		Body:      body,
		Attributes: map[string]string{
			"SentTimestamp": "1562965200000",
		},
		MessageAttributes: map[string]lambdaEvents.SQSMessageAttribute{
			"eventType": {
				DataType:    "String",
				StringValue: aws.String(eventType),
			},
		},
	}
}

func TestHandlePublishesEachRecord(t *testing.T) {
	client := &mockSNS{}
	h := newTestHandler(client)

	resp, err := h.Handle(context.Background(), lambdaEvents.SQSEvent{Records: []lambdaEvents.SQSMessage{
		sqsRecord("msg-1", "OFF_ALERT_INSERT", `{"p_offender_book_id":"1234"}`),
		sqsRecord("msg-2", "S2_RESULT", `{"p_offender_book_id":"1234"}`),
	}})

	require.NoError(t, err)
	assert.Empty(t, resp.BatchItemFailures)
	assert.Equal(t, 2, client.calls)
}

func TestHandleReportsOnlyFailedRecords(t *testing.T) {
	client := &mockSNS{err: errors.New("connection reset")}
	h := newTestHandler(client)

	resp, err := h.Handle(context.Background(), lambdaEvents.SQSEvent{Records: []lambdaEvents.SQSMessage{
		sqsRecord("msg-1", "OFF_ALERT_INSERT", `{"p_offender_book_id":"1234"}`),
	}})

	require.NoError(t, err)
	require.Len(t, resp.BatchItemFailures, 1)
	assert.Equal(t, "msg-1", resp.BatchItemFailures[0].ItemIdentifier)
}

func TestHandleAcksRecordWithoutEventType(t *testing.T) {
	client := &mockSNS{}
	h := newTestHandler(client)
	record := sqsRecord("msg-1", "", `{}`)
	delete(record.MessageAttributes, "eventType")

	resp, err := h.Handle(context.Background(), lambdaEvents.SQSEvent{Records: []lambdaEvents.SQSMessage{record}})

	require.NoError(t, err)
	assert.Empty(t, resp.BatchItemFailures)
	assert.Zero(t, client.calls)
}

func TestHandleReportsMappingDefects(t *testing.T) {
	client := &mockSNS{}
	h := newTestHandler(client)

	// OFF_BKB_INS without its booking id panics in the transformer; the
	// pipeline converts that to a failure so the record is redelivered.
	resp, err := h.Handle(context.Background(), lambdaEvents.SQSEvent{Records: []lambdaEvents.SQSMessage{
		sqsRecord("msg-1", "OFF_BKB_INS", `{}`),
	}})

	require.NoError(t, err)
	require.Len(t, resp.BatchItemFailures, 1)
	assert.Zero(t, client.calls)
}
