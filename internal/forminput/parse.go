// Package forminput turns the free-text values of the assessment forms into
// the optional numbers the acoustics engine works with.
package forminput

import (
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/acoustics"
)

// ParseNumber reads a decimal number typed with either separator ("85,5" or
// "85.5"). Empty or unparseable input yields nil.
func ParseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NumberOrZero mirrors the H/M/L fields, where a blank counts as 0.
func NumberOrZero(s string) float64 {
	if v := ParseNumber(s); v != nil {
		return *v
	}
	return 0
}

// Row is one measurement line as typed into the form or read from a file.
type Row struct {
	Activity string `json:"activity"`
	Level    string `json:"leq"`
	Duration string `json:"duration"`
	Peak     string `json:"peak"`
}

// ToMeasurement parses a row, leaving unusable fields absent.
func ToMeasurement(r Row) acoustics.Measurement {
	return acoustics.Measurement{
		Activity: strings.TrimSpace(r.Activity),
		Level:    ParseNumber(r.Level),
		Duration: ParseNumber(r.Duration),
		Peak:     ParseNumber(r.Peak),
	}
}

// ToMeasurementSet parses rows in order.
func ToMeasurementSet(rows []Row) acoustics.MeasurementSet {
	set := make(acoustics.MeasurementSet, 0, len(rows))
	for _, r := range rows {
		set = append(set, ToMeasurement(r))
	}
	return set
}

// HML holds the protector attenuation fields as typed.
type HML struct {
	H string `json:"h"`
	M string `json:"m"`
	L string `json:"l"`
}

// Entered returns the values the user actually typed; blanks stay nil so the
// selected protector's ratings can fill them in.
func (v HML) Entered() (h, m, l *float64) {
	return ParseNumber(v.H), ParseNumber(v.M), ParseNumber(v.L)
}

// ParseHML reads the three fields with blanks and garbage counting as zero.
func ParseHML(h, m, l string) (float64, float64, float64) {
	return NumberOrZero(h), NumberOrZero(m), NumberOrZero(l)
}

// Normalize rewrites comma decimals with dots for storage.
func (v HML) Normalize() HML {
	return HML{H: normalize(v.H), M: normalize(v.M), L: normalize(v.L)}
}

func normalize(s string) string {
	return strings.Replace(strings.TrimSpace(s), ",", ".", 1)
}

// NormalizeNumber is the storage form of a single typed number.
func NormalizeNumber(s string) string { return normalize(s) }
