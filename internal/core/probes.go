package core

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Pinger covers *pgxpool.Pool for the database probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DBProbe checks replica connectivity.
type DBProbe struct {
	Pool Pinger
}

func (p *DBProbe) Name() string { return "db" }

func (p *DBProbe) Check(ctx context.Context) error {
	if err := p.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

// QueueAttributesAPI is the SQS subset for the queue probes.
type QueueAttributesAPI interface {
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

// QueueProbe checks that a queue exists and is reachable with the service's
// credentials.
type QueueProbe struct {
	Client    QueueAttributesAPI
	QueueURL  string
	ProbeName string
}

func (p *QueueProbe) Name() string { return p.ProbeName }

func (p *QueueProbe) Check(ctx context.Context) error {
	_, err := p.Client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(p.QueueURL),
		AttributeNames: []sqsTypes.QueueAttributeName{sqsTypes.QueueAttributeNameQueueArn},
	})
	if err != nil {
		return fmt.Errorf("queue unreachable: %w", err)
	}
	return nil
}

// TopicAttributesAPI is the SNS subset for the topic probe.
type TopicAttributesAPI interface {
	GetTopicAttributes(ctx context.Context, params *sns.GetTopicAttributesInput, optFns ...func(*sns.Options)) (*sns.GetTopicAttributesOutput, error)
}

// TopicProbe checks the outbound topic.
type TopicProbe struct {
	Client   TopicAttributesAPI
	TopicARN string
}

func (p *TopicProbe) Name() string { return "sns" }

func (p *TopicProbe) Check(ctx context.Context) error {
	_, err := p.Client.GetTopicAttributes(ctx, &sns.GetTopicAttributesInput{
		TopicArn: aws.String(p.TopicARN),
	})
	if err != nil {
		return fmt.Errorf("topic unreachable: %w", err)
	}
	return nil
}
