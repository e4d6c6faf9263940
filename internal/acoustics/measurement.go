package acoustics

import "math"

// Measurement is one observed activity segment. Numeric fields are optional:
// nil, NaN and infinite values are treated as absent by every calculator.
type Measurement struct {
	Activity string   `json:"activity"`
	Level    *float64 `json:"leq"`      // LEQ, dB(A)
	Duration *float64 `json:"duration"` // minutes
	Peak     *float64 `json:"peak"`     // Lpicco, dB(C)
}

// MeasurementSet is the ordered list of segments of one assessment.
type MeasurementSet []Measurement

// Float returns a pointer to v, for building measurements in code.
func Float(v float64) *float64 { return &v }

func value(p *float64) (float64, bool) {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, false
	}
	return *p, true
}

// orZero mirrors the form layer's `parseFloat(x) || 0` rule for H/M/L inputs.
func orZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
