package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MarginResult is the outcome of applying a margin string to a total.
// Amount is nil when no valid margin was given, which is distinct from a 0% margin.
type MarginResult struct {
	Margin string
	Amount *int64
	Final  int64
}

// ParseMarginRate parses the leading number of a percentage such as "10",
// "7.5" or "10%". Blank, negative and non-numeric input reports false.
func ParseMarginRate(raw string) (float64, bool) {
	rate, _, ok := parseMargin(raw)
	return rate, ok
}

// parseMargin also returns the numeric text that was read, which is what a
// line keeps as its margin.
func parseMargin(raw string) (float64, string, bool) {
	prefix := leadingNumber(strings.TrimSpace(raw))
	if prefix == "" {
		return 0, "", false
	}
	rate, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return 0, "", false
	}
	return rate, prefix, true
}

// leadingNumber returns the longest prefix of s shaped like a decimal float:
// an optional sign, digits with at most one '.', and an optional exponent.
func leadingNumber(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return ""
	}

	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		start := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > start {
			end = j
		}
	}
	return s[:end]
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// ApplyMargin computes round(total × rate / 100) and adds it to total. An
// unparsable margin leaves the total as is; a margin amount that does not fit
// in an int64 is ErrAmountOutOfRange.
func ApplyMargin(total int64, margin string) (MarginResult, error) {
	rate, text, ok := parseMargin(margin)
	if !ok {
		return MarginResult{Final: total}, nil
	}

	amount, err := roundMul(total, decimal.NewFromFloat(rate).Div(decimal.NewFromInt(100)))
	if err != nil {
		return MarginResult{}, err
	}
	final, err := addAmounts(total, amount)
	if err != nil {
		return MarginResult{}, err
	}
	return MarginResult{
		Margin: text,
		Amount: &amount,
		Final:  final,
	}, nil
}
