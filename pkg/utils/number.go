// Package utils provides small formatting and parsing helpers shared by
// the finmetrics packages.
package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// valueReplacer strips the currency, percent and thousands-separator
// characters vendors embed in displayed figures.
var valueReplacer = strings.NewReplacer("$", "", "%", "", ",", "")

// ParseDecimal cleans a raw vendor value and parses it as a decimal number.
// "$", "%" and "," are removed and surrounding whitespace trimmed before
// parsing. The second return value is false when the input is empty or not
// numeric (for example the "-" placeholder).
func ParseDecimal(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(valueReplacer.Replace(raw))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatUSD formats an amount with a dollar sign, thousands separators and
// two decimals, e.g. -1234.5 → "-$1,234.50".
func FormatUSD(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	s := fmt.Sprintf("%.2f", amount)
	intPart, decPart := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	if negative {
		return "-$" + b.String() + decPart
	}
	return "$" + b.String() + decPart
}

// FormatPct formats a percentage with sign (e.g., "+2.35%", "-1.20%").
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}
