package acoustics

// RiskBand is the regulatory exposure class; bands are ordered by severity.
type RiskBand int

const (
	RiskMinimal RiskBand = iota
	RiskMedium
	RiskSignificant
	RiskHigh
)

func (b RiskBand) String() string {
	switch b {
	case RiskMinimal:
		return "MINIMAL"
	case RiskMedium:
		return "MEDIUM"
	case RiskSignificant:
		return "SIGNIFICANT"
	case RiskHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// RiskClass is a band plus the label and colour tokens renderers display.
type RiskClass struct {
	Band   RiskBand `json:"band"`
	Label  string   `json:"label"`
	Color  string   `json:"color"`
	Border string   `json:"border"`
}

var riskClasses = [...]RiskClass{
	RiskMinimal:     {Band: RiskMinimal, Label: "MINIMAL", Color: "success", Border: "success"},
	RiskMedium:      {Band: RiskMedium, Label: "MEDIUM - lower exposure action value", Color: "warning", Border: "warning"},
	RiskSignificant: {Band: RiskSignificant, Label: "SIGNIFICANT - upper exposure action value", Color: "orange", Border: "orange"},
	RiskHigh:        {Band: RiskHigh, Label: "HIGH - exposure limit value exceeded", Color: "destructive", Border: "destructive"},
}

// ClassifyRisk maps a LEX,8h value onto its band: [0,80) minimal, [80,85)
// medium, [85,87) significant, 87 and above high.
func ClassifyRisk(lex float64) RiskClass {
	switch {
	case lex < LowerActionLEX:
		return riskClasses[RiskMinimal]
	case lex < UpperActionLEX:
		return riskClasses[RiskMedium]
	case lex < ExposureLimitLEX:
		return riskClasses[RiskSignificant]
	default:
		return riskClasses[RiskHigh]
	}
}

// RiskClassFor returns the display data of a band.
func RiskClassFor(b RiskBand) (RiskClass, bool) {
	if b < RiskMinimal || b > RiskHigh {
		return RiskClass{}, false
	}
	return riskClasses[b], true
}

// MarshalText encodes the band by name so stored records stay readable.
func (b RiskBand) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *RiskBand) UnmarshalText(text []byte) error {
	for i := RiskMinimal; i <= RiskHigh; i++ {
		if i.String() == string(text) {
			*b = i
			return nil
		}
	}
	return &UnknownBandError{Value: string(text)}
}

// UnknownBandError reports a band name that does not exist.
type UnknownBandError struct {
	Value string
}

func (e *UnknownBandError) Error() string { return "acoustics: unknown band " + `"` + e.Value + `"` }
