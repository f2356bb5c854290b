package pricing

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Surcharge is one dimension-triggered price increase. Exactly one of Amount
// (flat won) and Rate (fraction of the unit price) is non-zero.
type Surcharge struct {
	Amount int64   `json:"amount,omitempty"`
	Rate   float64 `json:"rate,omitempty"`
	Reason string  `json:"reason"`
}

// IsPercentage reports whether the surcharge multiplies the unit price.
func (s Surcharge) IsPercentage() bool { return s.Rate > 0 }

// SurchargeInput carries the facts the surcharge tables look at. Width and
// Height are millimetres; a nil dimension disables the rules that read it.
type SurchargeInput struct {
	Ruleset     Ruleset
	Width       *int
	Height      *int
	SpecName    string
	TypeName    string
	ProductName string
}

const tallHeight = 2101

var (
	gansalSlidingNarrow = []int{350, 386, 461, 561, 651}
	gansalSlidingWide   = []int{751, 851, 951, 1041}
	gansalHingedNarrow  = []int{430, 456, 541, 631, 731}
	gansalHingedWide    = []int{831, 931, 1031, 1131}
)

type slimBand struct {
	specs        []int
	heightAmount int64
	widthFrom    int
	widthAmount  int64
}

var slimBands = []slimBand{
	{specs: []int{110, 130, 140, 155}, heightAmount: 3000, widthFrom: 1201, widthAmount: 10000},
	{specs: []int{175, 195}, heightAmount: 5000, widthFrom: 1201, widthAmount: 13000},
	{specs: []int{210, 230}, heightAmount: 7000, widthFrom: 2101, widthAmount: 15000},
}

// Surcharges evaluates every rule of the input's ruleset and returns the ones
// that fire, in table order.
func Surcharges(in SurchargeInput) []Surcharge {
	switch in.Ruleset {
	case RulesetGansalWindow:
		return gansalSurcharges(in)
	case RulesetSlimFrame:
		return slimSurcharges(in)
	case RulesetNormalWindow:
		return normalWindowSurcharges(in)
	case RulesetABSDoor:
		return absSurcharges(in)
	case RulesetGenericFrame:
		return genericFrameSurcharges(in)
	default:
		return nil
	}
}

// ApplySurcharges folds flat amounts into unit, then applies a percentage
// surcharge if one is present.
func ApplySurcharges(unit int64, surcharges []Surcharge) (int64, error) {
	price := decimal.NewFromInt(unit)
	rate := decimal.Zero
	for _, s := range surcharges {
		if s.IsPercentage() {
			rate = rate.Add(decimal.NewFromFloat(s.Rate))
			continue
		}
		price = price.Add(decimal.NewFromInt(s.Amount))
	}
	if rate.IsPositive() {
		price = price.Mul(decimal.NewFromInt(1).Add(rate))
	}
	return toAmount(price)
}

// ParseSpec returns the leading integer of a spec name such as "110바".
func ParseSpec(spec string) (int, bool) {
	spec = strings.TrimSpace(spec)
	end := 0
	for end < len(spec) && spec[end] >= '0' && spec[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(spec[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func gansalSurcharges(in SurchargeInput) []Surcharge {
	if in.Width == nil || in.Height == nil || *in.Height < tallHeight {
		return nil
	}
	w := *in.Width

	sliding := strings.Contains(in.TypeName, "미닫이")
	hinged := strings.Contains(in.TypeName, "여닫이")
	either := !sliding && !hinged

	type row struct {
		widths []int
		label  string
		amount int64
	}
	var rows []row
	if sliding || either {
		rows = append(rows,
			row{gansalSlidingNarrow, "미닫이 80바", 20000},
			row{gansalSlidingWide, "미닫이", 25000},
		)
	}
	if hinged || either {
		rows = append(rows,
			row{gansalHingedNarrow, "여닫이 120바", 20000},
			row{gansalHingedWide, "여닫이", 25000},
		)
	}

	for _, r := range rows {
		if slices.Contains(r.widths, w) {
			return []Surcharge{{
				Amount: r.amount,
				Reason: fmt.Sprintf("높이 %dmm 이상 (%s, 가로 %dmm): +%s원", tallHeight, r.label, w, FormatWon(r.amount)),
			}}
		}
	}
	return nil
}

func slimSurcharges(in SurchargeInput) []Surcharge {
	spec, ok := ParseSpec(in.SpecName)
	if !ok {
		return nil
	}
	for _, band := range slimBands {
		if !slices.Contains(band.specs, spec) {
			continue
		}
		var out []Surcharge
		if in.Height != nil && *in.Height >= tallHeight {
			out = append(out, Surcharge{
				Amount: band.heightAmount,
				Reason: fmt.Sprintf("%d바 높이 %dmm 이상: +%s원", spec, tallHeight, FormatWon(band.heightAmount)),
			})
		}
		if in.Width != nil && *in.Width >= band.widthFrom {
			out = append(out, Surcharge{
				Amount: band.widthAmount,
				Reason: fmt.Sprintf("%d바 가로 %dmm 이상: +%s원", spec, band.widthFrom, FormatWon(band.widthAmount)),
			})
		}
		return out
	}
	return nil
}

func normalWindowSurcharges(in SurchargeInput) []Surcharge {
	var out []Surcharge
	if in.Width != nil && *in.Width >= 1051 {
		out = append(out, Surcharge{Amount: 5000, Reason: "가로 1051mm 이상: +" + FormatWon(5000) + "원"})
	}
	if in.Height != nil && *in.Height >= tallHeight {
		out = append(out, Surcharge{Amount: 10000, Reason: "높이 2101mm 이상: +" + FormatWon(10000) + "원"})
	}
	return out
}

func absSurcharges(in SurchargeInput) []Surcharge {
	if !isMinja(in) {
		if in.Height != nil && *in.Height >= 2066 {
			return []Surcharge{{Amount: 10000, Reason: "높이 2066mm 이상: +" + FormatWon(10000) + "원"}}
		}
		return nil
	}

	var out []Surcharge
	if in.Width != nil && in.Height != nil &&
		between(*in.Width, 951, 1070) && between(*in.Height, 2101, 2260) {
		out = append(out, Surcharge{Amount: 10000, Reason: "민자 가로 951~1070mm, 높이 2101~2260mm: +" + FormatWon(10000) + "원"})
	}
	if in.Height != nil && between(*in.Height, 2261, 2380) {
		out = append(out, Surcharge{Amount: 20000, Reason: "민자 높이 2261~2380mm: +" + FormatWon(20000) + "원"})
	}
	if in.Width != nil && between(*in.Width, 1071, 1170) {
		out = append(out, Surcharge{Amount: 30000, Reason: "민자 가로 1071~1170mm: +" + FormatWon(30000) + "원"})
	}
	return out
}

func isMinja(in SurchargeInput) bool {
	return strings.Contains(in.TypeName, "민자") || strings.Contains(in.ProductName, "민자")
}

func genericFrameSurcharges(in SurchargeInput) []Surcharge {
	w, h := -1, -1
	if in.Width != nil {
		w = *in.Width
	}
	if in.Height != nil {
		h = *in.Height
	}

	// The bands are exclusive: the first matching one applies.
	switch {
	case between(w, 1001, 1200) || between(h, 2101, 2300):
		return []Surcharge{{Rate: 0.10, Reason: "가로 1001~1200mm 또는 높이 2101~2300mm: 10% 인상"}}
	case between(w, 1201, 1500) || between(h, 2301, 2400):
		return []Surcharge{{Rate: 0.20, Reason: "가로 1201~1500mm 또는 높이 2301~2400mm: 20% 인상"}}
	}
	return nil
}

func between(v, lo, hi int) bool { return v >= lo && v <= hi }
