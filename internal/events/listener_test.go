package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prison-events/internal/config"
	"prison-events/internal/db"
	"prison-events/internal/types"
)

// mockSQS implements SQSConsumer for tests. Receive returns the queued
// batches in order, then empty results.
type mockSQS struct {
	mu      sync.Mutex
	batches [][]sqsTypes.Message
	deleted []string
}

func (m *mockSQS) ReceiveMessage(ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.batches) == 0 {
		return &sqs.ReceiveMessageOutput{}, nil
	}
	batch := m.batches[0]
	m.batches = m.batches[1:]
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (m *mockSQS) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (m *mockSQS) deletedHandles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

const testQueueURL = "https://sqs.eu-west-2.amazonaws.com/000000000000/prison-events"

func newTestPipeline(client SNSPublisher, tel TelemetryTracker) *Pipeline {
	logger := &testLogger{}
	return NewPipeline(
		NewTransformer(logger),
		NewEnricher(&mockLookupRepo{}, logger),
		NewPublisher(client, testTopicARN, tel, logger),
		logger,
	)
}

func rawMessage(eventType, receiptHandle string, fields map[string]string) sqsTypes.Message {
	body, _ := json.Marshal(fields)
	return sqsTypes.Message{
		MessageId:     aws.String("msg-" + receiptHandle),
		ReceiptHandle: aws.String(receiptHandle),
		Body:          aws.String(string(body)),
		Attributes: map[string]string{
			"SentTimestamp": "1562965200000",
		},
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(eventType),
			},
		},
	}
}

func TestPipelineHandlePublishesTransformedEvent(t *testing.T) {
	client := &mockSNS{}
	tel := &mockTelemetry{}
	p := newTestPipeline(client, tel)
	eventType := "OFF_ALERT_INSERT"
	body := []byte(`{"p_offender_book_id": "1234", "p_alert_seq": "3", "p_alert_code": "XTACT"}`)

	err := p.Handle(context.Background(), &eventType, "1562965200000", body)

	require.NoError(t, err)
	assert.Equal(t, 1, client.publishCalls)
	require.Len(t, tel.events, 1)
	assert.Equal(t, "ALERT-INSERTED", tel.events[0])
}

func TestPipelineHandleNilEventTypeAcksWithoutPublishing(t *testing.T) {
	client := &mockSNS{}
	p := newTestPipeline(client, &mockTelemetry{})

	err := p.Handle(context.Background(), nil, "1562965200000", []byte(`{}`))

	require.NoError(t, err)
	assert.Zero(t, client.publishCalls)
}

func TestPipelineHandleConvertsMappingDefectPanicToError(t *testing.T) {
	client := &mockSNS{}
	p := newTestPipeline(client, &mockTelemetry{})
	eventType := "OFF_BKB_INS"

	// Missing p_offender_book_id makes the booking handler panic; the
	// pipeline must turn that into an error so the message is redelivered.
	err := p.Handle(context.Background(), &eventType, "1562965200000", []byte(`{}`))

	require.Error(t, err)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeTransformMissingField, appErr.Code)
	assert.Zero(t, client.publishCalls)
}

func TestPipelineHandlePropagatesEnrichmentFailure(t *testing.T) {
	logger := &testLogger{}
	repo := &mockLookupRepo{err: types.NewAppError(types.ErrCodeInternalDB, "replica unavailable", nil)}
	client := &mockSNS{}
	p := NewPipeline(
		NewTransformer(logger),
		NewEnricher(repo, logger),
		NewPublisher(client, testTopicARN, &mockTelemetry{}, logger),
		logger,
	)
	eventType := "OFF_UPD"

	err := p.Handle(context.Background(), &eventType, "1562965200000",
		[]byte(`{"p_offender_id": "5"}`))

	require.Error(t, err)
	assert.Zero(t, client.publishCalls)
}

func TestPipelineHandlePropagatesPublishFailure(t *testing.T) {
	client := &mockSNS{publishErr: errors.New("connection reset")}
	p := newTestPipeline(client, &mockTelemetry{})
	eventType := "OFF_ALERT_INSERT"

	err := p.Handle(context.Background(), &eventType, "1562965200000",
		[]byte(`{"p_offender_book_id": "1234"}`))

	require.Error(t, err)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodePublishUnavailable, appErr.Code)
}

func TestListenerDeletesMessageOnSuccess(t *testing.T) {
	client := &mockSNS{}
	sqsClient := &mockSQS{batches: [][]sqsTypes.Message{
		{rawMessage("OFF_ALERT_INSERT", "rh-1", map[string]string{"p_offender_book_id": "1234"})},
	}}
	l := newTestListener(sqsClient, client)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := l.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"rh-1"}, sqsClient.deletedHandles())
	assert.Equal(t, 1, client.publishCalls)
}

func TestListenerLeavesFailedMessageForRedelivery(t *testing.T) {
	client := &mockSNS{publishErr: errors.New("connection reset")}
	sqsClient := &mockSQS{batches: [][]sqsTypes.Message{
		{rawMessage("OFF_ALERT_INSERT", "rh-1", map[string]string{"p_offender_book_id": "1234"})},
	}}
	l := newTestListener(sqsClient, client)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := l.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, sqsClient.deletedHandles())
}

func TestListenerAcksMessageWithoutEventType(t *testing.T) {
	client := &mockSNS{}
	msg := rawMessage("ignored", "rh-1", map[string]string{})
	delete(msg.MessageAttributes, "eventType")
	sqsClient := &mockSQS{batches: [][]sqsTypes.Message{{msg}}}
	l := newTestListener(sqsClient, client)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = l.Run(ctx)

	assert.Equal(t, []string{"rh-1"}, sqsClient.deletedHandles())
	assert.Zero(t, client.publishCalls)
}

func newTestListener(sqsClient *mockSQS, snsClient SNSPublisher) *Listener {
	return NewListener(sqsClient, testQueueURL, newTestPipeline(snsClient, &mockTelemetry{}),
		config.ListenerConfig{Concurrency: 1, WaitTime: time.Second, BatchSize: 10},
		&testLogger{})
}

func TestExtractEventType(t *testing.T) {
	assert.Nil(t, extractEventType(sqsTypes.Message{}))

	empty := sqsTypes.Message{MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
		"eventType": {StringValue: aws.String("")},
	}}
	assert.Nil(t, extractEventType(empty))

	present := sqsTypes.Message{MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
		"eventType": {StringValue: aws.String("OFF_ALERT_INSERT")},
	}}
	got := extractEventType(present)
	require.NotNil(t, got)
	assert.Equal(t, "OFF_ALERT_INSERT", *got)
}

var _ LookupRepository = (*db.EventRepository)(nil)
