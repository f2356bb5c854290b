package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
)

// FormatWon renders an amount with Korean digit grouping, without the currency suffix.
func FormatWon(amount int64) string {
	return message.NewPrinter(language.Korean).Sprintf("%d", amount)
}

// FormatPercent renders a fractional rate as a percentage number, 0.1 -> "10".
func FormatPercent(rate float64) string {
	return decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(100)).String()
}

// LineTotal returns (unit + option) × quantity, or ErrAmountOutOfRange when
// the product does not fit in an int64.
func LineTotal(unit, option int64, quantity int) (int64, error) {
	return toAmount(decimal.NewFromInt(unit).Add(decimal.NewFromInt(option)).Mul(decimal.NewFromInt(int64(quantity))))
}

// roundMul returns round(amount × factor) with half-away-from-zero rounding.
func roundMul(amount int64, factor decimal.Decimal) (int64, error) {
	return toAmount(decimal.NewFromInt(amount).Mul(factor))
}

func addAmounts(a, b int64) (int64, error) {
	return toAmount(decimal.NewFromInt(a).Add(decimal.NewFromInt(b)))
}

func toAmount(d decimal.Decimal) (int64, error) {
	d = d.Round(0)
	if d.GreaterThan(maxAmount) || d.LessThan(minAmount) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOutOfRange, d.String())
	}
	return d.IntPart(), nil
}
