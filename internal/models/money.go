package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NairaSymbol prefixes every formatted price.
const NairaSymbol = "₦"

// ParseNaira reads a price such as "₦25,000".
func ParseNaira(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	if !strings.HasPrefix(raw, NairaSymbol) {
		return decimal.Zero, fmt.Errorf("price %q has no naira symbol", s)
	}
	raw = strings.ReplaceAll(strings.TrimPrefix(raw, NairaSymbol), ",", "")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return d, nil
}

// FormatNaira renders a whole-naira amount with comma grouping, e.g. "₦1,250,000".
func FormatNaira(d decimal.Decimal) string {
	digits := d.Round(0).Abs().String()
	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(NairaSymbol)
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
