package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatearMonto renders an amount for display: "$ 1.250.000". Amounts carry no
// minor units, so the value is rounded to the unit.
func FormatearMonto(d decimal.Decimal) string {
	digits := d.Round(0).Abs().String()

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if d.Round(0).IsNegative() {
		return "-$ " + b.String()
	}
	return "$ " + b.String()
}

// EsEnteroPositivo reports whether d is a whole number greater than zero.
func EsEnteroPositivo(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Truncate(0))
}
