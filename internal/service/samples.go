package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/acoustics"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/cloud"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/domain"
)

// SampleService ingests activity segments from sound level meters.
type SampleService struct {
	store    Store
	mirror   SegmentMirror
	notifier Notifier
}

type samplePayload struct {
	MeterID   string    `json:"meter_id"`
	Activity  string    `json:"activity"`
	StartedAt time.Time `json:"started_at"`
	LEQ       *float64  `json:"leq"`
	Minutes   *float64  `json:"minutes"`
	Peak      *float64  `json:"peak"`
}

// FromMQTT stores one segment published on topic. When the payload carries
// no meter_id the last topic level is used.
func (s *SampleService) FromMQTT(ctx context.Context, topic string, payload []byte) error {
	var p samplePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode segment: %w", err)
	}
	if p.MeterID == "" {
		p.MeterID = path.Base(topic)
	}

	sample, err := p.sample()
	if err != nil {
		return err
	}
	if err := s.store.InsertSample(ctx, sample); err != nil {
		return fmt.Errorf("insert segment: %w", err)
	}

	if s.mirror != nil {
		if err := s.mirror.PutSegment(ctx, sample); err != nil {
			log.Error().Err(err).Str("meter", sample.MeterID).Msg("segment mirror failed")
		}
	}
	return nil
}

func (p samplePayload) sample() (*domain.MeterSample, error) {
	switch {
	case p.MeterID == "" || p.MeterID == "." || p.MeterID == "/":
		return nil, fmt.Errorf("%w: missing meter_id", ErrInvalidInput)
	case p.LEQ == nil:
		return nil, fmt.Errorf("%w: missing leq", ErrInvalidInput)
	case p.Minutes == nil || *p.Minutes <= 0:
		return nil, fmt.Errorf("%w: minutes must be positive", ErrInvalidInput)
	}
	started := p.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	return &domain.MeterSample{
		MeterID:   p.MeterID,
		Activity:  strings.TrimSpace(p.Activity),
		StartedAt: started.UTC(),
		LEQ:       *p.LEQ,
		Minutes:   *p.Minutes,
		Peak:      p.Peak,
	}, nil
}

// MeasurementSet converts meter segments into engine input.
func MeasurementSet(samples []domain.MeterSample) acoustics.MeasurementSet {
	set := make(acoustics.MeasurementSet, 0, len(samples))
	for _, smp := range samples {
		set = append(set, acoustics.Measurement{
			Activity: smp.Activity,
			Level:    acoustics.Float(smp.LEQ),
			Duration: acoustics.Float(smp.Minutes),
			Peak:     smp.Peak,
		})
	}
	return set
}

// DailyReport is a meter's exposure over one UTC day.
type DailyReport struct {
	MeterID  string                   `json:"meter_id"`
	Day      string                   `json:"day"`
	Segments int                      `json:"segments"`
	Minutes  float64                  `json:"minutes"`
	Exposure acoustics.ExposureResult `json:"exposure"`
	Risk     acoustics.RiskClass      `json:"risk"`
}

// DailyExposure computes LEX,8h and peak from the segments a meter started
// on day.
func (s *SampleService) DailyExposure(ctx context.Context, meterID string, day time.Time) (*DailyReport, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	samples, err := s.store.ListSamples(ctx, meterID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}

	var minutes float64
	for _, smp := range samples {
		minutes += smp.Minutes
	}

	exposure := acoustics.ComputeExposure(MeasurementSet(samples))
	return &DailyReport{
		MeterID:  meterID,
		Day:      from.Format(time.DateOnly),
		Segments: len(samples),
		Minutes:  minutes,
		Exposure: exposure,
		Risk:     acoustics.ClassifyRisk(exposure.LEX),
	}, nil
}

// ReviewDay computes every meter's exposure for day and publishes a single
// alert listing the meters at or above the exposure limit value. It returns
// the reports of those meters.
func (s *SampleService) ReviewDay(ctx context.Context, day time.Time) ([]DailyReport, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	meters, err := s.store.ListMeterIDs(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("list meters: %w", err)
	}

	var over []DailyReport
	var alerts []cloud.Alert
	for _, id := range meters {
		r, err := s.DailyExposure(ctx, id, from)
		if err != nil {
			return nil, err
		}
		if r.Risk.Band != acoustics.RiskHigh {
			continue
		}
		over = append(over, *r)
		alerts = append(alerts, cloud.Alert{
			Subject: fmt.Sprintf("Meter %s: LEX,8h %s dB(A) on %s", r.MeterID, acoustics.FormatLevel(r.Exposure.LEX), r.Day),
			Message: fmt.Sprintf("Meter %s recorded %d segments (%.0f min), LEX,8h %s dB(A), peak %s dB(C).",
				r.MeterID, r.Segments, r.Minutes,
				acoustics.FormatLevel(r.Exposure.LEX), acoustics.FormatLevel(r.Exposure.PeakMax)),
		})
	}

	log.Info().Str("day", from.Format(time.DateOnly)).Int("meters", len(meters)).Int("over_limit", len(over)).Msg("daily review")
	if len(alerts) > 0 && s.notifier != nil {
		if err := s.notifier.SendBatchAlerts(ctx, alerts); err != nil {
			log.Error().Err(err).Msg("daily review alert failed")
		}
	}
	return over, nil
}

// ResyncMirror copies a meter's stored segments since the given time to the
// mirror, repairing gaps left by failed mirror writes.
func (s *SampleService) ResyncMirror(ctx context.Context, meterID string, since time.Time) (int, error) {
	if s.mirror == nil {
		return 0, fmt.Errorf("segment mirror: %w", ErrNotConfigured)
	}
	samples, err := s.store.ListSamples(ctx, meterID, since, time.Now().Add(time.Minute))
	if err != nil {
		return 0, fmt.Errorf("list segments: %w", err)
	}
	if err := s.mirror.BatchPutSegments(ctx, samples); err != nil {
		return 0, err
	}
	return len(samples), nil
}

// RestoreFromMirror inserts the mirror's segments for a meter that the store
// is missing, matched on start time.
func (s *SampleService) RestoreFromMirror(ctx context.Context, meterID string, since time.Time) (int, error) {
	if s.mirror == nil {
		return 0, fmt.Errorf("segment mirror: %w", ErrNotConfigured)
	}
	mirrored, err := s.mirror.SegmentsSince(ctx, meterID, since)
	if err != nil {
		return 0, err
	}
	stored, err := s.store.ListSamples(ctx, meterID, since, time.Now().Add(time.Minute))
	if err != nil {
		return 0, fmt.Errorf("list segments: %w", err)
	}

	have := make(map[int64]bool, len(stored))
	for _, smp := range stored {
		have[smp.StartedAt.Unix()] = true
	}
	restored := 0
	for i := range mirrored {
		if have[mirrored[i].StartedAt.Unix()] {
			continue
		}
		if err := s.store.InsertSample(ctx, &mirrored[i]); err != nil {
			return restored, fmt.Errorf("insert segment: %w", err)
		}
		restored++
	}
	return restored, nil
}
