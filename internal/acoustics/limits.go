package acoustics

// Action and limit values of D.Lgs. 81/2008 (EU Directive 2003/10/EC).
const (
	LowerActionLEX   = 80.0
	UpperActionLEX   = 85.0
	ExposureLimitLEX = 87.0

	LowerActionPeak   = 135.0
	UpperActionPeak   = 137.0
	ExposureLimitPeak = 140.0
)

// RegulatoryThreshold pairs a daily exposure value with its peak counterpart.
type RegulatoryThreshold struct {
	Name string  `json:"name"`
	LEX  float64 `json:"lex"`
	Peak float64 `json:"peak"`
}

// RegulatoryLimits lists the three thresholds in ascending order.
func RegulatoryLimits() []RegulatoryThreshold {
	return []RegulatoryThreshold{
		{Name: "lower exposure action value", LEX: LowerActionLEX, Peak: LowerActionPeak},
		{Name: "upper exposure action value", LEX: UpperActionLEX, Peak: UpperActionPeak},
		{Name: "exposure limit value", LEX: ExposureLimitLEX, Peak: ExposureLimitPeak},
	}
}
