package normalize

import (
	"math"
	"strconv"
	"strings"
)

// MaxAmount is the largest value a NUMERIC(18,2) column accepts.
const MaxAmount = 9999999999999999.99

// DecimalRule converts loosely formatted amounts into float64.
type DecimalRule struct {
	Max     float64
	Default float64
}

// DefaultDecimal is the rule used by Decimal.
var DefaultDecimal = DecimalRule{Max: MaxAmount, Default: 0.0}

// Decimal parses text with DefaultDecimal.
func Decimal(text string) float64 {
	return DefaultDecimal.Parse(text)
}

// Parse never fails. Unparseable or empty input yields r.Default, negative
// values lose their sign and anything above r.Max is clamped.
func (r DecimalRule) Parse(text string) float64 {
	cleaned := cleanNumber(text)
	if cleaned == "" {
		return r.Default
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return r.Default
	}
	return r.Clamp(v)
}

// Clamp drops the sign of v and caps it at r.Max.
func (r DecimalRule) Clamp(v float64) float64 {
	v = math.Abs(v)
	if r.Max > 0 && v > r.Max {
		return r.Max
	}
	return v
}

// Amount is the nullable variant of Decimal: false means nothing numeric
// could be read from text.
func Amount(text string) (float64, bool) {
	cleaned := cleanNumber(text)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return DefaultDecimal.Clamp(v), true
}

// cleanNumber keeps digits and a single '.' as decimal point.
//
// When both ',' and '.' appear, the right-most one is the decimal separator
// and the other is grouping. When only one kind appears, a single occurrence
// is the decimal separator and repeated occurrences are grouping.
func cleanNumber(text string) string {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return ""
	}

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')
	dec := -1
	switch {
	case lastDot >= 0 && lastComma >= 0:
		dec = max(lastDot, lastComma)
	case lastComma >= 0 && strings.Count(s, ",") == 1:
		dec = lastComma
	case lastDot >= 0 && strings.Count(s, ".") == 1:
		dec = lastDot
	}

	b.Reset()
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case i == dec:
			b.WriteByte('.')
		case c == '.' || c == ',':
		default:
			b.WriteByte(c)
		}
	}
	out := b.String()
	if out == "." {
		return ""
	}
	return out
}
