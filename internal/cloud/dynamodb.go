package cloud

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/domain"
)

// DynamoDBClient mirrors sound level meter segments into DynamoDB, keyed by
// meter and start time.
type DynamoDBClient struct {
	svc   *dynamodb.Client
	table string
}

// NewDynamoDBClient creates a new DynamoDB client instance
func NewDynamoDBClient(ctx context.Context, region, table string) (*DynamoDBClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &DynamoDBClient{
		svc:   dynamodb.NewFromConfig(cfg),
		table: table,
	}, nil
}

// Segment is the DynamoDB item layout of a meter segment.
type Segment struct {
	MeterID   string   `dynamodbav:"meterId"`
	StartedAt int64    `dynamodbav:"startedAt"`
	Activity  string   `dynamodbav:"activity"`
	LEQ       float64  `dynamodbav:"leq"`
	Minutes   float64  `dynamodbav:"minutes"`
	Peak      *float64 `dynamodbav:"peak,omitempty"`
}

func segmentFromSample(s *domain.MeterSample) Segment {
	return Segment{
		MeterID:   s.MeterID,
		StartedAt: s.StartedAt.Unix(),
		Activity:  s.Activity,
		LEQ:       s.LEQ,
		Minutes:   s.Minutes,
		Peak:      s.Peak,
	}
}

func (s Segment) sample() domain.MeterSample {
	return domain.MeterSample{
		MeterID:   s.MeterID,
		StartedAt: time.Unix(s.StartedAt, 0).UTC(),
		Activity:  s.Activity,
		LEQ:       s.LEQ,
		Minutes:   s.Minutes,
		Peak:      s.Peak,
	}
}

// PutSegment stores one meter segment.
func (c *DynamoDBClient) PutSegment(ctx context.Context, sample *domain.MeterSample) error {
	item, err := attributevalue.MarshalMap(segmentFromSample(sample))
	if err != nil {
		return fmt.Errorf("failed to marshal segment: %w", err)
	}

	_, err = c.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}
	return nil
}

// SegmentsSince returns a meter's segments started at or after since.
func (c *DynamoDBClient) SegmentsSince(ctx context.Context, meterID string, since time.Time) ([]domain.MeterSample, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("meterId = :mid AND startedAt >= :since"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":mid":   &types.AttributeValueMemberS{Value: meterID},
			":since": &types.AttributeValueMemberN{Value: strconv.FormatInt(since.Unix(), 10)},
		},
	}

	var out []domain.MeterSample
	paginator := dynamodb.NewQueryPaginator(c.svc, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query DynamoDB: %w", err)
		}
		var segments []Segment
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &segments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal segments: %w", err)
		}
		for _, s := range segments {
			out = append(out, s.sample())
		}
	}
	return out, nil
}

// BatchPutSegments stores segments 25 at a time, the BatchWriteItem limit.
func (c *DynamoDBClient) BatchPutSegments(ctx context.Context, samples []domain.MeterSample) error {
	const batchSize = 25

	for i := 0; i < len(samples); i += batchSize {
		end := min(i+batchSize, len(samples))

		batch := samples[i:end]
		writeRequests := make([]types.WriteRequest, len(batch))
		for j := range batch {
			item, err := attributevalue.MarshalMap(segmentFromSample(&batch[j]))
			if err != nil {
				return fmt.Errorf("failed to marshal segment %d: %w", i+j, err)
			}
			writeRequests[j] = types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}
		}

		_, err := c.svc.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{c.table: writeRequests},
		})
		if err != nil {
			return fmt.Errorf("failed to batch write items: %w", err)
		}
	}
	return nil
}
