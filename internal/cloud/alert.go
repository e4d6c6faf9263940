package cloud

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/acoustics"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/domain"
)

// Alert is a notification ready to publish.
type Alert struct {
	Subject string
	Message string
}

// SNS rejects subjects that are not single-line ASCII below 100 characters.
const maxSubjectLen = 99

// SubjectLine makes s usable as an SNS subject. Accents are dropped, line
// breaks become spaces, other non-ASCII characters become '?' and long text
// is cut with "...".
func SubjectLine(s string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case r < 0x20 || r == 0x7f:
		case r > 0x7e:
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if len(out) > maxSubjectLen {
		out = strings.TrimSpace(out[:maxSubjectLen-3]) + "..."
	}
	return out
}

// ExposureAlert describes a saved assessment whose LEX exceeds the exposure
// limit value.
func ExposureAlert(a *domain.ExposureAssessment, at time.Time) Alert {
	return Alert{
		Subject: SubjectLine(fmt.Sprintf("Noise exposure limit exceeded: %s", a.JobTitle)),
		Message: fmt.Sprintf(
			"Daily noise exposure above the limit value\n\n"+
				"Assessment: %d\n"+
				"Job: %s\n"+
				"Department: %s\n"+
				"LEX,8h: %s dB(A) (limit %.0f dB(A))\n"+
				"Lpicco,C: %s dB(C) (limit %.0f dB(C))\n"+
				"Class: %s\n"+
				"Time: %s\n\n"+
				"Technical and organisational measures are required.",
			a.ID, a.JobTitle, a.Department,
			a.LEX, acoustics.ExposureLimitLEX,
			a.PeakMax, acoustics.ExposureLimitPeak,
			a.RiskClass,
			at.UTC().Format(time.RFC3339),
		),
	}
}

// ProtectorAlert describes a saved assessment whose protector leaves more
// than 85 dB(A) at the ear.
func ProtectorAlert(a *domain.ProtectorAssessment, protectorName string, at time.Time) Alert {
	leff := "-"
	if a.EffectiveLevel != nil {
		leff = *a.EffectiveLevel
	}
	return Alert{
		Subject: SubjectLine(fmt.Sprintf("Inadequate hearing protector: %s", a.JobTitle)),
		Message: fmt.Sprintf(
			"Hearing protector does not attenuate enough\n\n"+
				"Assessment: %d\n"+
				"Job: %s\n"+
				"Department: %s\n"+
				"Protector: %s\n"+
				"Reference LEX: %s dB(A)\n"+
				"L'eff: %s dB(A)\n"+
				"Time: %s\n\n"+
				"Select a protector with higher attenuation.",
			a.ID, a.JobTitle, a.Department, protectorName,
			a.ReferenceLEX, leff,
			at.UTC().Format(time.RFC3339),
		),
	}
}
