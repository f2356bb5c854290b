// Package estimate turns catalog selections into priced estimate lines.
package estimate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DongSeo/platform/internal/apperr"
	"github.com/DongSeo/platform/internal/cart"
	"github.com/DongSeo/platform/internal/catalog"
	"github.com/DongSeo/platform/internal/pricing"
)

const (
	msgProductRequired    = "제품을 선택해주세요."
	msgDimensionsRequired = "가로와 세로를 입력해주세요."
	msgSpecRequired       = "규격을 선택해주세요."
	msgTypeRequired       = "타입을 선택해주세요."
	msgQuantityInvalid    = "수량은 1 이상이어야 합니다."
	msgAmountOutOfRange   = "금액이 너무 큽니다. 수량이나 마진을 확인해주세요."
	msgBasePriceInvalid   = "제품 단가가 올바르지 않습니다."
	msgNoTypeMatch        = "선택한 타입에 해당하는 제품을 찾을 수 없습니다."
	msgManyTypeMatches    = "선택한 타입에 해당하는 제품이 여러 개입니다."
	msgNotWood            = "목재 자재 제품이 아닙니다."
	msgUnknownSource      = "알 수 없는 항목 유형입니다."
)

// Service prices estimates against the catalog.
type Service struct {
	catalog    Catalog
	registry   *Registry
	classifier *pricing.Classifier
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClassifier sets the ruleset classifier. The default uses heuristics only.
func WithClassifier(c *pricing.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService returns a Service reading from cat.
func NewService(cat Catalog, opts ...Option) *Service {
	s := &Service{
		catalog:    cat,
		registry:   NewRegistry(cat),
		classifier: pricing.NewClassifier(nil),
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculateRequest is the input of the backend calculation.
type CalculateRequest struct {
	ProductID int64   `json:"productId"`
	Width     *int    `json:"width,omitempty"`
	Height    *int    `json:"height,omitempty"`
	SpecName  string  `json:"specName,omitempty"`
	TypeName  string  `json:"typeName,omitempty"`
	OptionIDs []int64 `json:"optionIds,omitempty"`
	Quantity  int     `json:"quantity"`
}

// CalculateResponse is the backend calculation result.
type CalculateResponse struct {
	ProductName string `json:"productName"`
	UnitPrice   int64  `json:"unitPrice"`
	OptionPrice int64  `json:"optionPrice"`
	Quantity    int    `json:"quantity"`
	TotalPrice  int64  `json:"totalPrice"`
}

// Calculate returns (base price + sum of the given options) × quantity with no
// surcharges, color cost or margin. A zero quantity counts as one.
func (s *Service) Calculate(ctx context.Context, req CalculateRequest) (CalculateResponse, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return CalculateResponse{}, apperr.Validation(msgQuantityInvalid)
	}

	p, err := s.catalog.Product(ctx, req.ProductID)
	if err != nil {
		return CalculateResponse{}, err
	}
	base, _, err := s.basePrice(ctx, p, Selection{Width: req.Width, Height: req.Height, SpecName: req.SpecName, TypeName: req.TypeName})
	if err != nil {
		return CalculateResponse{}, err
	}

	var optionPrice int64
	if len(req.OptionIDs) > 0 {
		options, err := s.catalog.OptionsByIDs(ctx, req.OptionIDs)
		if err != nil {
			return CalculateResponse{}, fmt.Errorf("load options: %w", err)
		}
		pricingOptions := catalog.PricingOptions(options)
		optionPrice, err = pricing.SumOptions(optionIDs(pricingOptions), pricingOptions)
		if err != nil {
			return CalculateResponse{}, pricingError(err)
		}
	}

	total, err := pricing.LineTotal(base, optionPrice, quantity)
	if err != nil {
		return CalculateResponse{}, pricingError(err)
	}
	return CalculateResponse{
		ProductName: p.Name,
		UnitPrice:   base,
		OptionPrice: optionPrice,
		Quantity:    quantity,
		TotalPrice:  total,
	}, nil
}

// QuoteRequest selects a product either by id or by category and type name.
type QuoteRequest struct {
	ProductID  *int64  `json:"productId,omitempty"`
	CategoryID *int64  `json:"categoryId,omitempty"`
	Width      *int    `json:"width,omitempty"`
	Height     *int    `json:"height,omitempty"`
	SpecName   string  `json:"specName,omitempty"`
	TypeName   string  `json:"typeName,omitempty"`
	OptionIDs  []int64 `json:"optionIds,omitempty"`
	ColorID    *int64  `json:"colorId,omitempty"`
	Quantity   int     `json:"quantity"`
	Margin     string  `json:"margin,omitempty"`
}

// Quote is a priced estimate line and the adjustments that produced it.
type Quote struct {
	Line                cart.Line      `json:"line"`
	Result              pricing.Result `json:"result"`
	Reasons             []string       `json:"reasons"`
	PriceIncreaseReason string         `json:"priceIncreaseReason"`
}

// Quote resolves the product, validates the selection for its ruleset and
// runs the pricing engine.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	if req.Quantity < 1 {
		return Quote{}, apperr.Validation(msgQuantityInvalid)
	}

	p, err := s.resolveProduct(ctx, req)
	if err != nil {
		return Quote{}, err
	}

	ruleset := s.classifier.Classify(p.ID, p.Ruleset, p.Attributes())
	sel := Selection{Width: req.Width, Height: req.Height, SpecName: strings.TrimSpace(req.SpecName), TypeName: strings.TrimSpace(req.TypeName)}
	if err := validateSelection(ruleset, sel); err != nil {
		return Quote{}, err
	}

	base, calc, err := s.basePrice(ctx, p, sel)
	if err != nil {
		return Quote{}, err
	}

	options, err := s.catalog.ProductOptions(ctx, p.ID, p.CompanyID)
	if err != nil {
		return Quote{}, fmt.Errorf("load product options: %w", err)
	}

	var color *catalog.Color
	if req.ColorID != nil {
		c, err := s.catalog.Color(ctx, *req.ColorID)
		if err != nil {
			return Quote{}, err
		}
		color = &c
	}

	in := pricing.Input{
		Ruleset:           ruleset,
		ProductName:       p.Name,
		BaseUnitPrice:     base,
		Width:             sel.Width,
		Height:            sel.Height,
		SpecName:          sel.SpecName,
		TypeName:          sel.TypeName,
		Options:           catalog.PricingOptions(options),
		SelectedOptionIDs: req.OptionIDs,
		Quantity:          req.Quantity,
		Margin:            req.Margin,
	}
	if color != nil {
		in.Color = color.PricingColor()
	}

	result, err := pricing.Calculate(in)
	if err != nil {
		return Quote{}, pricingError(err)
	}

	s.logger.Debug("estimate priced",
		zap.Int64("product_id", p.ID),
		zap.String("ruleset", string(ruleset)),
		zap.String("calculator", calc.Name()),
		zap.Int64("base_unit_price", base),
		zap.Int64("final_price", result.Totals.FinalPrice),
	)

	line := lineFromResult(p, sel, color, result)
	line.AddedAt = s.now().UTC()
	return Quote{
		Line:                line,
		Result:              result,
		Reasons:             result.Reasons(),
		PriceIncreaseReason: result.PriceIncreaseReason(),
	}, nil
}

// LineRequest asks for a cart line. Estimate lines are quoted; wood lines use
// only the product, quantity and margin.
type LineRequest struct {
	Source cart.Source `json:"source,omitempty"`
	QuoteRequest
}

// Line prices req as a cart line.
func (s *Service) Line(ctx context.Context, req LineRequest) (cart.Line, error) {
	switch req.Source {
	case cart.SourceWood:
		if req.ProductID == nil {
			return cart.Line{}, apperr.Validation(msgProductRequired)
		}
		return s.WoodLine(ctx, *req.ProductID, req.Quantity, req.Margin)
	case "", cart.SourceEstimate:
		q, err := s.Quote(ctx, req.QuoteRequest)
		if err != nil {
			return cart.Line{}, err
		}
		return q.Line, nil
	default:
		return cart.Line{}, apperr.Validation(msgUnknownSource)
	}
}

// WoodLine prices a wood material at its base price per piece.
func (s *Service) WoodLine(ctx context.Context, productID int64, quantity int, margin string) (cart.Line, error) {
	if quantity < 1 {
		return cart.Line{}, apperr.Validation(msgQuantityInvalid)
	}
	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return cart.Line{}, err
	}
	if !p.IsWood() {
		return cart.Line{}, apperr.Validation(msgNotWood)
	}

	total, err := pricing.LineTotal(p.BasePrice, 0, quantity)
	if err != nil {
		return cart.Line{}, pricingError(err)
	}
	m, err := pricing.ApplyMargin(total, margin)
	if err != nil {
		return cart.Line{}, pricingError(err)
	}
	final := m.Final

	return cart.Line{
		Source:        cart.SourceWood,
		ProductID:     p.ID,
		ProductName:   p.Name,
		CategoryName:  categoryName(p),
		Ruleset:       pricing.RulesetNone,
		SpecName:      p.Size,
		BaseUnitPrice: p.BasePrice,
		UnitPrice:     p.BasePrice,
		Quantity:      quantity,
		TotalPrice:    total,
		Margin:        m.Margin,
		MarginAmount:  m.Amount,
		FinalPrice:    &final,
		AddedAt:       s.now().UTC(),
	}, nil
}

// SelectableOptions returns the options of productID a user may pick.
func (s *Service) SelectableOptions(ctx context.Context, productID int64, companyID *int64) ([]catalog.Option, error) {
	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	company := p.CompanyID
	if companyID != nil {
		company = *companyID
	}
	options, err := s.catalog.ProductOptions(ctx, p.ID, company)
	if err != nil {
		return nil, fmt.Errorf("load product options: %w", err)
	}

	ruleset := s.classifier.Classify(p.ID, p.Ruleset, p.Attributes())
	keep := make(map[int64]struct{})
	for _, o := range pricing.SelectableOptions(ruleset, catalog.PricingOptions(options)) {
		keep[o.ID] = struct{}{}
	}
	out := make([]catalog.Option, 0, len(keep))
	for _, o := range options {
		if _, ok := keep[o.ID]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Service) resolveProduct(ctx context.Context, req QuoteRequest) (catalog.Product, error) {
	if req.ProductID != nil {
		return s.catalog.Product(ctx, *req.ProductID)
	}
	if req.CategoryID == nil {
		return catalog.Product{}, apperr.Validation(msgProductRequired)
	}
	typeName := strings.TrimSpace(req.TypeName)
	if typeName == "" {
		return catalog.Product{}, apperr.Validation(msgTypeRequired)
	}

	matches, err := s.catalog.ProductsByType(ctx, *req.CategoryID, typeName)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("find products by type: %w", err)
	}
	switch len(matches) {
	case 0:
		return catalog.Product{}, apperr.Ambiguous(msgNoTypeMatch)
	case 1:
		return matches[0], nil
	default:
		return catalog.Product{}, apperr.Ambiguous(msgManyTypeMatches)
	}
}

func (s *Service) basePrice(ctx context.Context, p catalog.Product, sel Selection) (int64, Calculator, error) {
	calc, err := s.registry.Select(p)
	if err != nil {
		return 0, nil, err
	}
	base, err := calc.BasePrice(ctx, p, sel)
	if err != nil {
		return 0, nil, err
	}
	return base, calc, nil
}

// validateSelection reports the first required field missing for ruleset.
func validateSelection(rs pricing.Ruleset, sel Selection) error {
	if (sel.Width != nil && *sel.Width <= 0) || (sel.Height != nil && *sel.Height <= 0) {
		return apperr.Validation(msgDimensionsRequired)
	}

	switch rs {
	case pricing.RulesetGansalWindow, pricing.RulesetSlimFrame, pricing.RulesetNormalWindow,
		pricing.RulesetABSDoor, pricing.RulesetGenericFrame, pricing.RulesetWoodFrame:
		if sel.Width == nil || sel.Height == nil {
			return apperr.Validation(msgDimensionsRequired)
		}
	}

	switch rs {
	case pricing.RulesetSlimFrame:
		if sel.SpecName == "" {
			return apperr.Validation(msgSpecRequired)
		}
	case pricing.RulesetGansalWindow:
		if sel.TypeName == "" {
			return apperr.Validation(msgTypeRequired)
		}
	}
	return nil
}

func lineFromResult(p catalog.Product, sel Selection, color *catalog.Color, result pricing.Result) cart.Line {
	final := result.Totals.FinalPrice
	line := cart.Line{
		Source:          cart.SourceEstimate,
		ProductID:       p.ID,
		ProductName:     p.Name,
		CategoryName:    categoryName(p),
		SubCategoryName: p.Attributes().SubCategoryName,
		Ruleset:         result.Ruleset,
		Width:           sel.Width,
		Height:          sel.Height,
		SpecName:        sel.SpecName,
		TypeName:        sel.TypeName,
		SelectedOptions: result.Breakdown.SelectedOptions,
		BaseUnitPrice:   result.Breakdown.BaseUnitPrice,
		Surcharges:      result.Breakdown.Surcharges,
		ColorCost:       result.Breakdown.ColorCost,
		UnitPrice:       result.Totals.UnitPrice,
		OptionPrice:     result.Totals.OptionPrice,
		Quantity:        result.Totals.Quantity,
		TotalPrice:      result.Totals.TotalPrice,
		Margin:          result.Totals.Margin,
		MarginAmount:    result.Totals.MarginAmount,
		FinalPrice:      &final,
	}
	if color != nil {
		id := color.ID
		line.ColorID = &id
		line.ColorName = color.Name
		line.ColorCode = color.ColorCode
	}
	return line.Clone()
}

// categoryName is the main category's name: the parent when there is one.
func categoryName(p catalog.Product) string {
	if p.Parent != nil {
		return p.Parent.Name
	}
	return p.Category.Name
}

// pricingError turns an engine error into the message a user can act on.
func pricingError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrAmountOutOfRange):
		return apperr.Wrap(apperr.KindValidation, msgAmountOutOfRange, err)
	case errors.Is(err, pricing.ErrInvalidQuantity):
		return apperr.Wrap(apperr.KindValidation, msgQuantityInvalid, err)
	case errors.Is(err, pricing.ErrNegativePrice):
		return apperr.Wrap(apperr.KindInternal, msgBasePriceInvalid, err)
	default:
		return fmt.Errorf("calculate estimate: %w", err)
	}
}

func optionIDs(options []pricing.Option) []int64 {
	ids := make([]int64, 0, len(options))
	for _, o := range options {
		ids = append(ids, o.ID)
	}
	return ids
}
