// Package queue provides SQS housekeeping for the event queues, chiefly
// moving dead-lettered messages back onto the main queue for another
// processing round.
package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"prison-events/internal/config"
	"prison-events/internal/types"
)

// SQSTransferClient abstracts the SQS operations the transfer uses.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSTransferClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
	DeleteMessageBatch(ctx context.Context, params *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error)
}

// Transferer drains the dead-letter queue back onto the main event queue.
// Messages keep their bodies and attributes, so a retried message is
// indistinguishable from a fresh delivery.
type Transferer struct {
	client   SQSTransferClient
	queueURL string
	dlqURL   string
	logger   types.Logger
}

// NewTransferer creates a Transferer between the configured queue pair.
func NewTransferer(client SQSTransferClient, awsCfg config.AWSConfig, logger types.Logger) *Transferer {
	return &Transferer{
		client:   client,
		queueURL: awsCfg.EventQueueURL,
		dlqURL:   awsCfg.EventDLQURL,
		logger:   logger,
	}
}

// RetryAll moves every message currently on the DLQ to the main queue and
// returns the number moved. Draining stops at the first empty receive; a
// message dead-lettered mid-transfer waits for the next invocation.
//
// A message is deleted from the DLQ only after its send succeeded, so a
// partial failure leaves the remainder on the DLQ rather than losing it.
func (t *Transferer) RetryAll(ctx context.Context) (int, error) {
	moved := 0
	for {
		out, err := t.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:                    aws.String(t.dlqURL),
			MaxNumberOfMessages:         10,
			WaitTimeSeconds:             0,
			MessageSystemAttributeNames: []sqsTypes.MessageSystemAttributeName{sqsTypes.MessageSystemAttributeNameSentTimestamp},
			MessageAttributeNames:       []string{"All"},
		})
		if err != nil {
			return moved, types.NewAppError(types.ErrCodeQueueTransfer, "failed to receive from DLQ", err)
		}
		if len(out.Messages) == 0 {
			t.logger.Info("DLQ drain complete", "messages_moved", moved)
			return moved, nil
		}

		n, err := t.transferBatch(ctx, out.Messages)
		moved += n
		if err != nil {
			return moved, err
		}
	}
}

// transferBatch sends one received batch to the main queue and deletes the
// sent messages from the DLQ. Entries rejected by the batch send stay on
// the DLQ.
func (t *Transferer) transferBatch(ctx context.Context, messages []sqsTypes.Message) (int, error) {
	entries := make([]sqsTypes.SendMessageBatchRequestEntry, len(messages))
	byID := make(map[string]sqsTypes.Message, len(messages))
	for i, msg := range messages {
		id := uuid.New().String()
		byID[id] = msg
		entries[i] = sqsTypes.SendMessageBatchRequestEntry{
			Id:                aws.String(id),
			MessageBody:       msg.Body,
			MessageAttributes: msg.MessageAttributes,
		}
	}

	sendOut, err := t.client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
		QueueUrl: aws.String(t.queueURL),
		Entries:  entries,
	})
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeQueueTransfer, "failed to send DLQ batch to main queue", err)
	}

	for _, failed := range sendOut.Failed {
		t.logger.Warn("DLQ message not transferred, leaving on DLQ",
			"entry_id", aws.ToString(failed.Id),
			"code", aws.ToString(failed.Code),
			"sender_fault", failed.SenderFault,
		)
	}

	if len(sendOut.Successful) == 0 {
		return 0, nil
	}

	deleteEntries := make([]sqsTypes.DeleteMessageBatchRequestEntry, 0, len(sendOut.Successful))
	for _, ok := range sendOut.Successful {
		msg := byID[aws.ToString(ok.Id)]
		deleteEntries = append(deleteEntries, sqsTypes.DeleteMessageBatchRequestEntry{
			Id:            ok.Id,
			ReceiptHandle: msg.ReceiptHandle,
		})
	}

	if _, err := t.client.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
		QueueUrl: aws.String(t.dlqURL),
		Entries:  deleteEntries,
	}); err != nil {
		// Undeleted messages reappear on the DLQ and transfer again; the
		// pipeline is idempotent against duplicate deliveries.
		return len(sendOut.Successful), types.NewAppError(types.ErrCodeQueueTransfer, "failed to delete transferred messages from DLQ", err)
	}

	return len(sendOut.Successful), nil
}
