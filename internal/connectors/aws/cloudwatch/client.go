// Package cloudwatch publishes comparison summaries as CloudWatch metrics.
package cloudwatch

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cw "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/finops-claw-gang/api-parity/internal/shadow"
)

// SuiteDimension names the dimension every published datum carries.
const SuiteDimension = "Suite"

// API is the subset of the CloudWatch client used by this package.
type API interface {
	PutMetricData(ctx context.Context, params *cw.PutMetricDataInput, optFns ...func(*cw.Options)) (*cw.PutMetricDataOutput, error)
}

// Client wraps the CloudWatch API.
type Client struct {
	api API
	now func() time.Time
}

// New creates a CloudWatch client from an AWS config.
func New(cfg aws.Config) *Client {
	return &Client{api: cw.NewFromConfig(cfg), now: time.Now}
}

// NewFromAPI creates a Client from an explicit API implementation (for testing).
func NewFromAPI(api API) *Client {
	return &Client{api: api, now: time.Now}
}

// PublishSummary sends Total, Matched, Mismatched and Errors counts for a
// suite run to namespace in a single PutMetricData call.
func (c *Client) PublishSummary(ctx context.Context, namespace, suite string, s shadow.Summary) error {
	if namespace == "" {
		return fmt.Errorf("cloudwatch: namespace is required")
	}

	ts := c.now().UTC()
	dims := []cwtypes.Dimension{{Name: aws.String(SuiteDimension), Value: aws.String(suite)}}
	datum := func(name string, v int) cwtypes.MetricDatum {
		return cwtypes.MetricDatum{
			MetricName: aws.String(name),
			Dimensions: dims,
			Timestamp:  aws.Time(ts),
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(v)),
		}
	}

	_, err := c.api.PutMetricData(ctx, &cw.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []cwtypes.MetricDatum{
			datum("Total", s.Total),
			datum("Matched", s.Matched),
			datum("Mismatched", s.Mismatched),
			datum("Errors", s.Errors),
		},
	})
	if err != nil {
		return fmt.Errorf("cloudwatch: put metric data: %w", err)
	}
	return nil
}
