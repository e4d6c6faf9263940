package acoustics

import (
	"math"
	"math/big"
	"strconv"
)

// Round1 rounds v to one decimal place the way the assessment reports always
// have: on the exact binary value, ties away from zero.
func Round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
		return v
	}
	neg := v < 0
	x := new(big.Float).SetPrec(128).SetFloat64(math.Abs(v))
	x.Mul(x, big.NewFloat(10))

	n, _ := x.Int(nil)
	frac := new(big.Float).SetPrec(128).Sub(x, new(big.Float).SetInt(n))
	if frac.Cmp(big.NewFloat(0.5)) >= 0 {
		n.Add(n, big.NewInt(1))
	}

	digits := n.String()
	if len(digits) < 2 {
		digits = "0" + digits
	}
	s := digits[:len(digits)-1] + "." + digits[len(digits)-1:]
	out, _ := strconv.ParseFloat(s, 64)
	if neg && out != 0 {
		out = -out
	}
	return out
}

// FormatLevel renders a level with one decimal, e.g. "81.9".
func FormatLevel(v float64) string {
	return strconv.FormatFloat(Round1(v), 'f', 1, 64)
}
