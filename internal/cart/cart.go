// Package cart holds priced estimate lines for a quoting session.
package cart

import (
	"errors"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/DongSeo/platform/internal/apperr"
	"github.com/DongSeo/platform/internal/pricing"
)

var (
	ErrCartNotFound    = apperr.Wrap(apperr.KindNotFound, "장바구니를 찾을 수 없습니다.", errors.New("cart: not found"))
	ErrLineNotFound    = apperr.Wrap(apperr.KindNotFound, "장바구니 항목을 찾을 수 없습니다.", errors.New("cart: line not found"))
	ErrNotWoodLine     = apperr.Wrap(apperr.KindValidation, "수량은 목재 자재 항목만 변경할 수 있습니다.", errors.New("cart: not a wood line"))
	ErrInvalidQuantity = apperr.Wrap(apperr.KindValidation, "수량은 1 이상이어야 합니다.", errors.New("cart: invalid quantity"))
	ErrAmountTooLarge  = apperr.Wrap(apperr.KindValidation, "금액이 너무 큽니다. 수량이나 마진을 확인해주세요.", pricing.ErrAmountOutOfRange)
)

// Source tells how a line was priced.
type Source string

const (
	SourceEstimate Source = "estimate"
	SourceWood     Source = "wood"
)

// Line is a frozen snapshot of a priced estimate plus the metadata needed to
// display it. Prices never change after the line is added, except for the
// quantity of wood lines.
type Line struct {
	ID              string              `json:"id"`
	Source          Source              `json:"source"`
	ProductID       int64               `json:"productId"`
	ProductName     string              `json:"productName"`
	CategoryName    string              `json:"categoryName,omitempty"`
	SubCategoryName string              `json:"subCategoryName,omitempty"`
	Ruleset         pricing.Ruleset     `json:"ruleset,omitempty"`
	Width           *int                `json:"width,omitempty"`
	Height          *int                `json:"height,omitempty"`
	SpecName        string              `json:"specName,omitempty"`
	TypeName        string              `json:"typeName,omitempty"`
	ColorID         *int64              `json:"selectedColorId,omitempty"`
	ColorName       string              `json:"selectedColorName,omitempty"`
	ColorCode       string              `json:"selectedColorCode,omitempty"`
	SelectedOptions []string            `json:"selectedOptions,omitempty"`
	BaseUnitPrice   int64               `json:"baseUnitPrice"`
	Surcharges      []pricing.Surcharge `json:"surcharges,omitempty"`
	ColorCost       *pricing.ColorCost  `json:"colorCost,omitempty"`
	UnitPrice       int64               `json:"unitPrice"`
	OptionPrice     int64               `json:"optionPrice"`
	Quantity        int                 `json:"quantity"`
	TotalPrice      int64               `json:"totalPrice"`
	Margin          string              `json:"margin,omitempty"`
	MarginAmount    *int64              `json:"marginAmount,omitempty"`
	FinalPrice      *int64              `json:"finalPrice,omitempty"`
	AddedAt         time.Time           `json:"addedAt"`
}

// Price is what the line contributes to the cart total.
func (l Line) Price() int64 {
	if l.FinalPrice != nil {
		return *l.FinalPrice
	}
	return l.TotalPrice
}

// IsWood reports whether the line is a wood material line.
func (l Line) IsWood() bool { return l.Source == SourceWood }

// PriceIncreaseReason joins the surcharge reasons for display.
func (l Line) PriceIncreaseReason() string {
	return pricing.Result{Breakdown: pricing.Breakdown{Surcharges: l.Surcharges}}.PriceIncreaseReason()
}

// Clone returns a deep copy of l.
func (l Line) Clone() Line {
	out := l
	out.Width = clonePtr(l.Width)
	out.Height = clonePtr(l.Height)
	out.ColorID = clonePtr(l.ColorID)
	out.MarginAmount = clonePtr(l.MarginAmount)
	out.FinalPrice = clonePtr(l.FinalPrice)
	out.SelectedOptions = slices.Clone(l.SelectedOptions)
	out.Surcharges = slices.Clone(l.Surcharges)
	out.ColorCost = clonePtr(l.ColorCost)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// NewID returns a fresh sortable identifier.
func NewID() string {
	return ulid.Make().String()
}

// Cart is an ordered list of lines. It is not safe for concurrent use; stores
// serialize access.
type Cart struct {
	ID        string    `json:"id"`
	Items     []Line    `json:"lines"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	newID func() string
	now   func() time.Time
}

// New returns an empty cart with a fresh id.
func New() *Cart {
	now := time.Now().UTC()
	return &Cart{ID: NewID(), Items: []Line{}, CreatedAt: now, UpdatedAt: now}
}

func (c *Cart) nextID() string {
	if c.newID != nil {
		return c.newID()
	}
	return NewID()
}

func (c *Cart) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now().UTC()
}

// Add stores a snapshot of line under a fresh id and returns it.
func (c *Cart) Add(line Line) Line {
	snapshot := line.Clone()
	snapshot.ID = c.nextID()
	if snapshot.Source == "" {
		snapshot.Source = SourceEstimate
	}
	snapshot.AddedAt = c.clock()
	c.Items = append(c.Items, snapshot)
	c.UpdatedAt = snapshot.AddedAt
	return snapshot.Clone()
}

// Remove deletes the line with id and reports whether it existed.
func (c *Cart) Remove(id string) bool {
	idx := c.index(id)
	if idx < 0 {
		return false
	}
	c.Items = slices.Delete(c.Items, idx, idx+1)
	c.UpdatedAt = c.clock()
	return true
}

// Total sums each line's final price, or its total price when no margin was set.
func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.Items {
		total += l.Price()
	}
	return total
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.Items = []Line{}
	c.UpdatedAt = c.clock()
}

// Lines returns copies of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.Items))
	for _, l := range c.Items {
		out = append(out, l.Clone())
	}
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int { return len(c.Items) }

// Line returns a copy of the line with id.
func (c *Cart) Line(id string) (Line, bool) {
	idx := c.index(id)
	if idx < 0 {
		return Line{}, false
	}
	return c.Items[idx].Clone(), true
}

// UpdateWoodQuantity sets the quantity of a wood line and recomputes its
// total, margin amount and final price from the unit price, keeping the
// stored margin rate.
func (c *Cart) UpdateWoodQuantity(id string, quantity int) (Line, error) {
	if quantity < 1 {
		return Line{}, ErrInvalidQuantity
	}
	idx := c.index(id)
	if idx < 0 {
		return Line{}, ErrLineNotFound
	}
	line := &c.Items[idx]
	if !line.IsWood() {
		return Line{}, ErrNotWoodLine
	}

	total, err := pricing.LineTotal(line.UnitPrice, line.OptionPrice, quantity)
	if err != nil {
		return Line{}, ErrAmountTooLarge
	}
	margin, err := pricing.ApplyMargin(total, line.Margin)
	if err != nil {
		return Line{}, ErrAmountTooLarge
	}

	line.Quantity = quantity
	line.TotalPrice = total
	line.Margin = margin.Margin
	line.MarginAmount = margin.Amount
	final := margin.Final
	line.FinalPrice = &final
	c.UpdatedAt = c.clock()

	return line.Clone(), nil
}

func (c *Cart) index(id string) int {
	return slices.IndexFunc(c.Items, func(l Line) bool { return l.ID == id })
}

func (c *Cart) clone() *Cart {
	out := *c
	out.Items = make([]Line, 0, len(c.Items))
	for _, l := range c.Items {
		out.Items = append(out.Items, l.Clone())
	}
	return &out
}

// View is the client-facing form of a cart.
type View struct {
	ID        string    `json:"id"`
	Lines     []Line    `json:"lines"`
	Total     int64     `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// View returns a copy of c with its total.
func (c *Cart) View() View {
	return View{ID: c.ID, Lines: c.Lines(), Total: c.Total(), CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}
