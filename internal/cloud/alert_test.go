package cloud

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/domain"
)

func TestExposureAlert(t *testing.T) {
	a := &domain.ExposureAssessment{ID: 12, JobTitle: "Press operator", Department: "Stamping", LEX: "89.3", PeakMax: "138.0", RiskClass: "HIGH - exposure limit value exceeded"}
	alert := ExposureAlert(a, time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))

	assert.Equal(t, "Noise exposure limit exceeded: Press operator", alert.Subject)
	assert.Contains(t, alert.Message, "LEX,8h: 89.3 dB(A) (limit 87 dB(A))")
	assert.Contains(t, alert.Message, "Lpicco,C: 138.0 dB(C) (limit 140 dB(C))")
	assert.Contains(t, alert.Message, "2026-05-04T10:00:00Z")
}

func TestProtectorAlert(t *testing.T) {
	leff := "88.4"
	a := &domain.ProtectorAssessment{ID: 3, JobTitle: "Driller", ReferenceLEX: "104.0", EffectiveLevel: &leff}
	alert := ProtectorAlert(a, "3M Peltor Optime I (SNR 27 dB - earmuffs)", time.Now())

	assert.Contains(t, alert.Subject, "Driller")
	assert.Contains(t, alert.Message, "L'eff: 88.4 dB(A)")
	assert.Contains(t, alert.Message, "Peltor Optime I")

	a.EffectiveLevel = nil
	assert.Contains(t, ProtectorAlert(a, "custom", time.Now()).Message, "L'eff: - dB(A)")
}

func TestAlertSubjectIsSNSSafe(t *testing.T) {
	a := &domain.ExposureAssessment{ID: 5, JobTitle: "Addetto attività di saldatura", Department: "Officina", LEX: "88.0"}
	alert := ExposureAlert(a, time.Now())
	assert.Equal(t, "Noise exposure limit exceeded: Addetto attivita di saldatura", alert.Subject)
	assert.Contains(t, alert.Message, "Job: Addetto attività di saldatura")

	long := strings.Repeat("Operatore macchine ", 7)[:120]
	leff := "90.1"
	p := &domain.ProtectorAssessment{ID: 6, JobTitle: long, EffectiveLevel: &leff}
	palert := ProtectorAlert(p, "custom", time.Now())
	assert.Less(t, len(palert.Subject), 100)
	assert.True(t, strings.HasPrefix(palert.Subject, "Inadequate hearing protector: Operatore macchine"))
	assert.True(t, strings.HasSuffix(palert.Subject, "..."))
	assert.Contains(t, palert.Message, "Job: "+long)
}

func TestSubjectLine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Press operator", "Press operator"},
		{"Città\nreparto", "Citta reparto"},
		{"Saldatore € ß", "Saldatore ? ?"},
		{"  padded\r\n", "padded"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SubjectLine(tt.in), "SubjectLine(%q)", tt.in)
	}
	assert.Len(t, SubjectLine(strings.Repeat("x", 300)), 99)
}

func TestSegmentRoundTrip(t *testing.T) {
	peak := 129.5
	s := &domain.MeterSample{MeterID: "slm-7", Activity: "sawing", StartedAt: time.Unix(1767261600, 0).UTC(), LEQ: 91.2, Minutes: 45, Peak: &peak}
	got := segmentFromSample(s).sample()

	assert.Equal(t, s.MeterID, got.MeterID)
	assert.True(t, s.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, s.LEQ, got.LEQ)
	assert.Equal(t, *s.Peak, *got.Peak)
}
