package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatCents renders a minor-unit amount as kronor with two decimals,
// e.g. 1234 -> "12.34 kr".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2) + " kr"
}

// FormatCentsShort renders a minor-unit amount as whole kronor, rounded
// down, e.g. 1234 -> "12 kr" and -1234 -> "-13 kr".
func FormatCentsShort(cents int64) string {
	return fmt.Sprintf("%d kr", decimal.New(cents, -2).Floor().IntPart())
}
