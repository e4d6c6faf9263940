package acoustics

import "math"

// Adequacy grades the level left at the ear once a protector is worn.
type Adequacy int

const (
	AdequacyExcessive Adequacy = iota
	AdequacyGood
	AdequacyOptimal
	AdequacyAcceptable
	AdequacyInsufficient
)

var adequacyNames = [...]string{"EXCESSIVE", "GOOD", "OPTIMAL", "ACCEPTABLE", "INSUFFICIENT"}

var adequacyLabels = [...]string{
	"EXCESSIVE - acoustic isolation risk",
	"GOOD - slightly over-protective",
	"OPTIMAL - adequate protection",
	"ACCEPTABLE - minimal protection",
	"INSUFFICIENT - inadequate protector",
}

var adequacyColors = [...]string{"orange", "info", "success", "warning", "destructive"}

func (a Adequacy) valid() bool { return a >= AdequacyExcessive && a <= AdequacyInsufficient }

func (a Adequacy) String() string {
	if !a.valid() {
		return "UNKNOWN"
	}
	return adequacyNames[a]
}

// Label is the sentence shown on the DPI result card.
func (a Adequacy) Label() string {
	if !a.valid() {
		return ""
	}
	return adequacyLabels[a]
}

func (a Adequacy) Color() string {
	if !a.valid() {
		return ""
	}
	return adequacyColors[a]
}

func (a Adequacy) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Adequacy) UnmarshalText(text []byte) error {
	for i, n := range adequacyNames {
		if n == string(text) {
			*a = Adequacy(i)
			return nil
		}
	}
	return &UnknownBandError{Value: string(text)}
}

// ClassifyAdequacy grades an effective level: below 65 excessive, [65,70)
// good, [70,80] optimal, (80,85] acceptable, above 85 insufficient.
func ClassifyAdequacy(effective float64) Adequacy {
	switch {
	case effective < 65:
		return AdequacyExcessive
	case effective < 70:
		return AdequacyGood
	case effective <= 80:
		return AdequacyOptimal
	case effective <= 85:
		return AdequacyAcceptable
	default:
		return AdequacyInsufficient
	}
}

// Bracket is one row of the HML method table (EN 458).
type Bracket struct {
	Index   int     `json:"index"`
	Upper   float64 `json:"upper"` // inclusive; +Inf for the last row
	Formula string  `json:"formula"`
	pnr     func(h, m, l float64) float64
}

// PNR evaluates the bracket's formula.
func (b Bracket) PNR(h, m, l float64) float64 { return b.pnr(h, m, l) }

var hmlBrackets = []Bracket{
	{Index: 0, Upper: 80, Formula: "M - H/4 - L/4", pnr: func(h, m, l float64) float64 { return m - h/4 - l/4 }},
	{Index: 1, Upper: 90, Formula: "M - H/2 - L/8", pnr: func(h, m, l float64) float64 { return m - h/2 - l/8 }},
	{Index: 2, Upper: 95, Formula: "M - H/4", pnr: func(h, m, l float64) float64 { return m - h/4 }},
	{Index: 3, Upper: 100, Formula: "M", pnr: func(h, m, l float64) float64 { return m }},
	{Index: 4, Upper: 105, Formula: "M + H/4", pnr: func(h, m, l float64) float64 { return m + h/4 }},
	{Index: 5, Upper: 110, Formula: "M + H/2 + L/4", pnr: func(h, m, l float64) float64 { return m + h/2 + l/4 }},
	{Index: 6, Upper: math.Inf(1), Formula: "M + 3H/4 + L/2", pnr: func(h, m, l float64) float64 { return m + 3*h/4 + l/2 }},
}

// HMLFormula selects the bracket for a reference level. Upper bounds are
// inclusive and the first match wins, so 90 belongs to the 80-90 row.
func HMLFormula(referenceLevel float64) Bracket {
	for _, b := range hmlBrackets {
		if referenceLevel <= b.Upper {
			return b
		}
	}
	return hmlBrackets[len(hmlBrackets)-1]
}

// AttenuationResult is the outcome of the HML method. PNR and EffectiveLevel
// are rounded to one decimal.
type AttenuationResult struct {
	PNR            float64  `json:"pnr"`
	EffectiveLevel float64  `json:"leff"`
	Adequacy       Adequacy `json:"adequacy"`
	Bracket        int      `json:"bracket"`
}

// ComputeAttenuation applies the HML method to a reference exposure level and
// the protector's H, M and L values. ok is false when there is nothing to
// compute: a zero (or unusable) reference level, or H, M and L all zero.
func ComputeAttenuation(referenceLevel, h, m, l float64) (AttenuationResult, bool) {
	h, m, l = orZero(h), orZero(m), orZero(l)
	if _, usable := value(&referenceLevel); !usable || referenceLevel == 0 {
		return AttenuationResult{}, false
	}
	if h == 0 && m == 0 && l == 0 {
		return AttenuationResult{}, false
	}

	bracket := HMLFormula(referenceLevel)
	pnr := bracket.PNR(h, m, l)
	effective := referenceLevel - pnr

	return AttenuationResult{
		PNR:            Round1(pnr),
		EffectiveLevel: Round1(effective),
		Adequacy:       ClassifyAdequacy(effective),
		Bracket:        bracket.Index,
	}, true
}

// ResolveReferenceLevel picks the level a protector is evaluated against: a
// usable non-zero override wins, otherwise the computed LEX.
func ResolveReferenceLevel(override *float64, lex float64) float64 {
	if v, ok := value(override); ok && v != 0 {
		return v
	}
	return lex
}

// FormattedAttenuation is the string form stored with saved assessments.
type FormattedAttenuation struct {
	PNR            string `json:"pnr"`
	EffectiveLevel string `json:"leff"`
	Adequacy       string `json:"adequacy"`
}

// EmptyAttenuation is the legacy "nothing computed" marker. Renderers hide
// the result card when EffectiveLevel is "0".
var EmptyAttenuation = FormattedAttenuation{PNR: "0", EffectiveLevel: "0", Adequacy: ""}

func (r AttenuationResult) Formatted() FormattedAttenuation {
	return FormattedAttenuation{
		PNR:            FormatLevel(r.PNR),
		EffectiveLevel: FormatLevel(r.EffectiveLevel),
		Adequacy:       r.Adequacy.Label(),
	}
}

// IsEmpty reports whether f is the "nothing computed" marker.
func (f FormattedAttenuation) IsEmpty() bool {
	return f.EffectiveLevel == "" || f.EffectiveLevel == "0"
}
