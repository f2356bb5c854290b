package pricing

import (
	"errors"
	"math"
	"strconv"
	"testing"
)

func mustApplyMargin(t *testing.T, total int64, margin string) MarginResult {
	t.Helper()
	result, err := ApplyMargin(total, margin)
	if err != nil {
		t.Fatalf("ApplyMargin(%d, %q) returned error: %v", total, margin, err)
	}
	return result
}

func TestApplyMargin_Law(t *testing.T) {
	totals := []int64{0, 1, 99, 1000, 123457, 9999999}
	rates := []float64{0, 0.5, 5, 10, 12.5, 33, 100}

	for _, total := range totals {
		for _, rate := range rates {
			margin := strconv.FormatFloat(rate, 'f', -1, 64)
			result := mustApplyMargin(t, total, margin)
			want := int64(math.Round(float64(total) * rate / 100))

			if result.Amount == nil {
				t.Fatalf("ApplyMargin(%d, %q) returned nil amount", total, margin)
			}
			if *result.Amount != want {
				t.Fatalf("ApplyMargin(%d, %q) amount = %d, want %d", total, margin, *result.Amount, want)
			}
			if result.Final != total+want {
				t.Fatalf("ApplyMargin(%d, %q) final = %d, want %d", total, margin, result.Final, total+want)
			}
		}
	}
}

func TestApplyMargin_ZeroIsDistinctFromUnset(t *testing.T) {
	zero := mustApplyMargin(t, 50000, "0")
	if zero.Amount == nil || *zero.Amount != 0 {
		t.Fatalf("expected explicit zero amount, got %+v", zero)
	}
	if zero.Margin != "0" {
		t.Fatalf("expected margin to be kept, got %q", zero.Margin)
	}

	for _, raw := range []string{"", "   ", "abc", "-5", "NaN", "Inf", "%10", ".", "1e400"} {
		result := mustApplyMargin(t, 50000, raw)
		if result.Amount != nil {
			t.Fatalf("ApplyMargin(%q) amount = %d, want nil", raw, *result.Amount)
		}
		if result.Final != 50000 || result.Margin != "" {
			t.Fatalf("ApplyMargin(%q) = %+v", raw, result)
		}
	}
}

func TestApplyMargin_TrimsInput(t *testing.T) {
	result := mustApplyMargin(t, 10000, " 15 ")
	if result.Amount == nil || *result.Amount != 1500 || result.Margin != "15" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestApplyMargin_ReadsLeadingNumber(t *testing.T) {
	cases := []struct {
		raw    string
		margin string
		amount int64
	}{
		{"10%", "10", 10000},
		{" 7.5 % ", "7.5", 7500},
		{"12.5.3", "12.5", 12500},
		{"1e1x", "1e1", 10000},
		{"3e", "3", 3000},
		{".5", ".5", 500},
		{"+20원", "+20", 20000},
	}
	for _, tc := range cases {
		result := mustApplyMargin(t, 100000, tc.raw)
		if result.Amount == nil || *result.Amount != tc.amount {
			t.Fatalf("ApplyMargin(%q) = %+v, want amount %d", tc.raw, result, tc.amount)
		}
		if result.Margin != tc.margin {
			t.Fatalf("ApplyMargin(%q) margin = %q, want %q", tc.raw, result.Margin, tc.margin)
		}
		if result.Final != 100000+tc.amount {
			t.Fatalf("ApplyMargin(%q) final = %d", tc.raw, result.Final)
		}
	}

	rate, ok := ParseMarginRate("10%")
	if !ok || rate != 10 {
		t.Fatalf("ParseMarginRate(10%%) = %v, %v", rate, ok)
	}
}

func TestApplyMargin_RejectsAmountOutOfRange(t *testing.T) {
	if _, err := ApplyMargin(100000, "1e30"); !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("expected ErrAmountOutOfRange, got %v", err)
	}
	if _, err := ApplyMargin(math.MaxInt64, "1"); !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("expected final price overflow to be rejected, got %v", err)
	}
	if !errors.Is(ErrAmountOutOfRange, ErrInvalidInput) {
		t.Fatalf("ErrAmountOutOfRange must be an invalid input")
	}
}
