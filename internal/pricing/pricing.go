package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned when an estimate cannot be priced as given.
var ErrInvalidInput = errors.New("pricing: invalid input")

var (
	ErrInvalidQuantity  = fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	ErrNegativePrice    = fmt.Errorf("%w: negative base unit price", ErrInvalidInput)
	ErrAmountOutOfRange = fmt.Errorf("%w: amount out of range", ErrInvalidInput)
)

// Color is a finish whose CostRate (0.1 = +10%) raises the unit price.
type Color struct {
	ID       int64
	Name     string
	Code     string
	CostRate float64
}

// Input represents everything the engine needs to price one estimate line.
type Input struct {
	Ruleset           Ruleset
	ProductName       string
	BaseUnitPrice     int64
	Width             *int
	Height            *int
	SpecName          string
	TypeName          string
	Options           []Option
	SelectedOptionIDs []int64
	Color             *Color
	Quantity          int
	Margin            string
}

// ColorCost records the price increase caused by the selected color.
type ColorCost struct {
	ColorName string  `json:"colorName"`
	CostRate  float64 `json:"costRate"`
	Amount    int64   `json:"amount"`
	Reason    string  `json:"reason"`
}

// Breakdown contains the intermediate values of the calculation.
type Breakdown struct {
	BaseUnitPrice   int64       `json:"baseUnitPrice"`
	Surcharges      []Surcharge `json:"surcharges"`
	SurchargedPrice int64       `json:"surchargedPrice"`
	ColorCost       *ColorCost  `json:"colorCost,omitempty"`
	SelectedOptions []string    `json:"selectedOptions"`
}

// Totals contains the roll-up values of the calculation.
type Totals struct {
	UnitPrice    int64  `json:"unitPrice"`
	OptionPrice  int64  `json:"optionPrice"`
	Quantity     int    `json:"quantity"`
	TotalPrice   int64  `json:"totalPrice"`
	Margin       string `json:"margin,omitempty"`
	MarginAmount *int64 `json:"marginAmount,omitempty"`
	FinalPrice   int64  `json:"finalPrice"`
}

// Result groups the full pricing output.
type Result struct {
	Ruleset   Ruleset   `json:"ruleset"`
	Breakdown Breakdown `json:"breakdown"`
	Totals    Totals    `json:"totals"`
}

// Reasons lists the human-readable adjustments in the order they were applied.
func (r Result) Reasons() []string {
	reasons := make([]string, 0, len(r.Breakdown.Surcharges)+1)
	for _, s := range r.Breakdown.Surcharges {
		reasons = append(reasons, s.Reason)
	}
	if r.Breakdown.ColorCost != nil {
		reasons = append(reasons, r.Breakdown.ColorCost.Reason)
	}
	return reasons
}

// PriceIncreaseReason joins the surcharge reasons for display.
func (r Result) PriceIncreaseReason() string {
	parts := make([]string, 0, len(r.Breakdown.Surcharges))
	for _, s := range r.Breakdown.Surcharges {
		parts = append(parts, s.Reason)
	}
	return strings.Join(parts, ", ")
}

// Calculate prices one estimate line: dimension surcharges, then color cost,
// then options, quantity and margin. It has no hidden state.
func Calculate(in Input) (Result, error) {
	if in.BaseUnitPrice < 0 {
		return Result{}, fmt.Errorf("%w %d", ErrNegativePrice, in.BaseUnitPrice)
	}
	if in.Quantity < 1 {
		return Result{}, fmt.Errorf("%w, got %d", ErrInvalidQuantity, in.Quantity)
	}

	surcharges := Surcharges(SurchargeInput{
		Ruleset:     in.Ruleset,
		Width:       in.Width,
		Height:      in.Height,
		SpecName:    in.SpecName,
		TypeName:    in.TypeName,
		ProductName: in.ProductName,
	})
	surcharged, err := ApplySurcharges(in.BaseUnitPrice, surcharges)
	if err != nil {
		return Result{}, err
	}

	unitPrice, colorCost, err := ApplyColorCost(surcharged, in.Color)
	if err != nil {
		return Result{}, err
	}

	available := SelectableOptions(in.Ruleset, in.Options)
	optionPrice, err := SumOptions(in.SelectedOptionIDs, available)
	if err != nil {
		return Result{}, err
	}

	total, err := LineTotal(unitPrice, optionPrice, in.Quantity)
	if err != nil {
		return Result{}, err
	}
	margin, err := ApplyMargin(total, in.Margin)
	if err != nil {
		return Result{}, err
	}

	if surcharges == nil {
		surcharges = []Surcharge{}
	}

	return Result{
		Ruleset: in.Ruleset,
		Breakdown: Breakdown{
			BaseUnitPrice:   in.BaseUnitPrice,
			Surcharges:      surcharges,
			SurchargedPrice: surcharged,
			ColorCost:       colorCost,
			SelectedOptions: SelectedNames(in.SelectedOptionIDs, available),
		},
		Totals: Totals{
			UnitPrice:    unitPrice,
			OptionPrice:  optionPrice,
			Quantity:     in.Quantity,
			TotalPrice:   total,
			Margin:       margin.Margin,
			MarginAmount: margin.Amount,
			FinalPrice:   margin.Final,
		},
	}, nil
}

// ApplyColorCost raises unit by round(unit × CostRate) when the color has a
// positive rate.
func ApplyColorCost(unit int64, color *Color) (int64, *ColorCost, error) {
	if color == nil || color.CostRate <= 0 {
		return unit, nil, nil
	}

	amount, err := roundMul(unit, decimal.NewFromFloat(color.CostRate))
	if err != nil {
		return 0, nil, err
	}
	raised, err := addAmounts(unit, amount)
	if err != nil {
		return 0, nil, err
	}
	return raised, &ColorCost{
		ColorName: color.Name,
		CostRate:  color.CostRate,
		Amount:    amount,
		Reason:    fmt.Sprintf("%s (%s%% 인상)", color.Name, FormatPercent(color.CostRate)),
	}, nil
}
