package acoustics

import "math"

// ReferenceShiftMinutes is the 8-hour reference period LEX is normalised to.
const ReferenceShiftMinutes = 480.0

// ExposureResult holds LEX,8h in dB(A) and the highest Lpicco,C in dB(C),
// both rounded to one decimal.
type ExposureResult struct {
	LEX     float64 `json:"lex"`
	PeakMax float64 `json:"peak_max"`
}

// ComputeExposure reduces a measurement set to its daily exposure level and
// maximum peak. Segments without a usable level or a positive duration add no
// energy; an empty energy sum yields LEX 0.
func ComputeExposure(set MeasurementSet) ExposureResult {
	return ExposureResult{
		LEX:     DailyExposureLevel(set),
		PeakMax: MaxPeak(set),
	}
}

// DailyExposureLevel computes LEX,8h = 10·log10(Σ 10^(LEQ/10)·t / 480).
// Levels whose energy no longer fits a float64 (above about 3080 dB) are
// summed in the log domain instead, so the result stays finite.
func DailyExposureLevel(set MeasurementSet) float64 {
	var energy float64
	var exps []float64
	for _, m := range set {
		leq, ok := value(m.Level)
		if !ok {
			continue
		}
		minutes, ok := value(m.Duration)
		if !ok || minutes <= 0 {
			continue
		}
		energy += math.Pow(10, leq/10) * minutes
		exps = append(exps, leq/10+math.Log10(minutes))
	}
	if energy == 0 {
		return 0
	}
	if math.IsInf(energy, 0) || math.IsNaN(energy) {
		return Round1(10 * (log10Sum(exps) - math.Log10(ReferenceShiftMinutes)))
	}
	return Round1(10 * math.Log10(energy/ReferenceShiftMinutes))
}

// log10Sum returns log10(Σ 10^e) without overflowing.
func log10Sum(exps []float64) float64 {
	top := math.Inf(-1)
	for _, e := range exps {
		top = math.Max(top, e)
	}
	var sum float64
	for _, e := range exps {
		sum += math.Pow(10, e-top)
	}
	return top + math.Log10(sum)
}

// MaxPeak returns the highest valid peak level, or 0 when none is present.
func MaxPeak(set MeasurementSet) float64 {
	found := false
	peak := 0.0
	for _, m := range set {
		v, ok := value(m.Peak)
		if !ok {
			continue
		}
		if !found || v > peak {
			peak = v
			found = true
		}
	}
	if !found {
		return 0
	}
	return Round1(peak)
}

// PartialExposure is the LEX,8h contribution of a single segment, useful for
// showing which activity dominates the daily dose. Absent inputs yield 0.
func PartialExposure(m Measurement) float64 {
	return DailyExposureLevel(MeasurementSet{m})
}
