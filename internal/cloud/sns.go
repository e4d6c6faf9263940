package cloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog/log"
)

// SNSClient publishes safety alerts to the prevention officer's topic.
type SNSClient struct {
	svc      *sns.Client
	topicArn string
}

// NewSNSClient creates a new SNS client instance
func NewSNSClient(ctx context.Context, region, topicArn string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &SNSClient{
		svc:      sns.NewFromConfig(cfg),
		topicArn: topicArn,
	}, nil
}

// SendAlert publishes one message to the topic.
func (c *SNSClient) SendAlert(ctx context.Context, alert Alert) error {
	result, err := c.svc.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(SubjectLine(alert.Subject)),
		Message:  aws.String(alert.Message),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}

	log.Debug().Str("message_id", aws.ToString(result.MessageId)).Msg("alert published")
	return nil
}

// SendBatchAlerts folds several alerts into one notification.
func (c *SNSClient) SendBatchAlerts(ctx context.Context, alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	if len(alerts) == 1 {
		return c.SendAlert(ctx, alerts[0])
	}

	var b strings.Builder
	b.WriteString("Multiple noise alerts:\n\n")
	for i, a := range alerts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a.Subject)
	}
	return c.SendAlert(ctx, Alert{
		Subject: fmt.Sprintf("Noise assessment: %d alerts", len(alerts)),
		Message: b.String(),
	})
}
