// Command segment-stream is a Lambda function attached to the DynamoDB stream
// of the meter segment table. It alerts when a new segment pushes a meter's
// daily exposure to the exposure limit value.
package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/acoustics"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/cloud"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/config"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/domain"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/service"
)

type segmentSource interface {
	SegmentsSince(ctx context.Context, meterID string, since time.Time) ([]domain.MeterSample, error)
}

type alertSender interface {
	SendAlert(ctx context.Context, alert cloud.Alert) error
}

type handler struct {
	segments segmentSource
	alerts   alertSender
}

// Handle processes a batch of stream records. Inserts are grouped by meter
// and UTC day so each day is evaluated once against all of its new segments.
func (h *handler) Handle(ctx context.Context, event events.DynamoDBEvent) error {
	log.Debug().Int("records", len(event.Records)).Msg("processing stream batch")

	type meterDay struct {
		meterID string
		day     time.Time
		added   map[int64]bool
	}
	var order []string
	days := map[string]*meterDay{}
	for _, record := range event.Records {
		if record.EventName != "INSERT" {
			continue
		}

		meterID, started, err := parseSegmentKey(record.Change.NewImage)
		if err != nil {
			log.Warn().Err(err).Str("event_id", record.EventID).Msg("skipping record")
			continue
		}
		day := started.UTC().Truncate(24 * time.Hour)
		key := meterID + "/" + day.Format(time.DateOnly)
		md, ok := days[key]
		if !ok {
			md = &meterDay{meterID: meterID, day: day, added: map[int64]bool{}}
			days[key] = md
			order = append(order, key)
		}
		md.added[started.Unix()] = true
	}

	for _, key := range order {
		md := days[key]
		if err := h.checkDay(ctx, md.meterID, md.day, md.added); err != nil {
			return err
		}
	}
	return nil
}

// checkDay alerts when the day's LEX,8h reaches the limit only because of the
// segments whose start times (Unix seconds) are in added.
func (h *handler) checkDay(ctx context.Context, meterID string, day time.Time, added map[int64]bool) error {
	samples, err := h.segments.SegmentsSince(ctx, meterID, day)
	if err != nil {
		return fmt.Errorf("load segments for %s: %w", meterID, err)
	}

	var before, after []domain.MeterSample
	for _, s := range samples {
		if !s.StartedAt.Before(day.Add(24 * time.Hour)) {
			continue
		}
		after = append(after, s)
		if !added[s.StartedAt.Unix()] {
			before = append(before, s)
		}
	}

	was := acoustics.ClassifyRisk(acoustics.DailyExposureLevel(service.MeasurementSet(before))).Band
	now := acoustics.ComputeExposure(service.MeasurementSet(after))
	if was == acoustics.RiskHigh || acoustics.ClassifyRisk(now.LEX).Band != acoustics.RiskHigh {
		return nil
	}

	alert := cloud.Alert{
		Subject: fmt.Sprintf("Meter %s reached the exposure limit", meterID),
		Message: fmt.Sprintf("Meter %s: LEX,8h %s dB(A) on %s (limit %.0f dB(A)), peak %s dB(C).",
			meterID, acoustics.FormatLevel(now.LEX), day.Format(time.DateOnly),
			acoustics.ExposureLimitLEX, acoustics.FormatLevel(now.PeakMax)),
	}
	if err := h.alerts.SendAlert(ctx, alert); err != nil {
		log.Error().Err(err).Str("meter", meterID).Msg("alert publish failed")
		return nil
	}
	log.Info().Str("meter", meterID).Float64("lex", now.LEX).Msg("exposure limit alert sent")
	return nil
}

func parseSegmentKey(image map[string]events.DynamoDBAttributeValue) (string, time.Time, error) {
	mid, ok := image["meterId"]
	if !ok || mid.DataType() != events.DataTypeString || mid.String() == "" {
		return "", time.Time{}, fmt.Errorf("missing or non-string meterId")
	}
	st, ok := image["startedAt"]
	if !ok || st.DataType() != events.DataTypeNumber {
		return "", time.Time{}, fmt.Errorf("missing or non-numeric startedAt")
	}
	ts, err := strconv.ParseInt(st.Number(), 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid startedAt: %w", err)
	}
	return mid.String(), time.Unix(ts, 0).UTC(), nil
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	zerolog.SetGlobalLevel(config.LogLevel())

	ctx := context.Background()
	ddb, err := cloud.NewDynamoDBClient(ctx, config.AWSRegion(), config.DynamoDBTable())
	if err != nil {
		log.Fatal().Err(err).Msg("dynamodb client")
	}
	snsc, err := cloud.NewSNSClient(ctx, config.AWSRegion(), config.SNSTopicArn())
	if err != nil {
		log.Fatal().Err(err).Msg("sns client")
	}

	h := &handler{segments: ddb, alerts: snsc}
	lambda.Start(h.Handle)
}
