// Package telemetry tracks per-event-type counts in CloudWatch. Successful
// publications count under the public event type; failures count under
// "{eventType}_FAILED". Event properties are attached as structured log
// fields because CloudWatch dimensions are capped well below the field
// count of the larger event shapes.
package telemetry

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"prison-events/internal/types"
)

// CloudWatchAPI is the subset of the CloudWatch SDK client used here.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Client tracks telemetry events. Tracking is best-effort: a CloudWatch
// failure is logged and never affects message processing.
type Client struct {
	cw        CloudWatchAPI
	namespace string
	enabled   bool
	logger    types.Logger
}

// NewClient creates a telemetry Client publishing under the given namespace.
func NewClient(cw CloudWatchAPI, namespace string, enabled bool, logger types.Logger) *Client {
	return &Client{
		cw:        cw,
		namespace: namespace,
		enabled:   enabled,
		logger:    logger,
	}
}

// TrackEvent records one occurrence of the named telemetry event with the
// given string properties.
func (c *Client) TrackEvent(ctx context.Context, name string, properties map[string]string) {
	logArgs := make([]any, 0, 2+2*len(properties))
	logArgs = append(logArgs, "telemetry_event", name)
	for k, v := range properties {
		logArgs = append(logArgs, k, v)
	}
	c.logger.Info("telemetry", logArgs...)

	if !c.enabled {
		return
	}

	_, err := c.cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(c.namespace),
		MetricData: []cwTypes.MetricDatum{
			{
				MetricName: aws.String(name),
				Value:      aws.Float64(1),
				Unit:       cwTypes.StandardUnitCount,
				Timestamp:  aws.Time(time.Now()),
			},
		},
	})
	if err != nil {
		c.logger.Warn("failed to put telemetry metric",
			"telemetry_event", name,
			"error", err.Error(),
		)
	}
}
