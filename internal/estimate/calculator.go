package estimate

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/DongSeo/platform/internal/apperr"
	"github.com/DongSeo/platform/internal/catalog"
)

const (
	msgNoBasePrice      = "제품의 기본 단가가 설정되지 않았습니다."
	msgNoMatrixPrice    = "해당 사이즈의 가격표가 없습니다."
	msgNoVariant        = "해당 규격의 제품이 없습니다."
	msgWoodFrameSize    = "목재문틀은 가로와 세로를 입력해야 합니다."
	msgNoCalculator     = "해당 제품의 계산 로직이 없습니다."
	woodFrameMarker     = "목재문틀"
	gansalMarker        = "간살"
	woodInterlockMarker = "목재 3연동 중문"
	woodFrameAreaUnit   = 900000
)

// Catalog is the subset of the catalog store the estimate pipeline reads.
type Catalog interface {
	Product(ctx context.Context, id int64) (catalog.Product, error)
	ProductsByType(ctx context.Context, categoryID int64, typeName string) ([]catalog.Product, error)
	FindVariant(ctx context.Context, productID int64, specName, typeName string) (catalog.Variant, error)
	MatrixPrice(ctx context.Context, productID int64, optionName string, width int) (catalog.MatrixRow, error)
	ProductOptions(ctx context.Context, productID, companyID int64) ([]catalog.Option, error)
	OptionsByIDs(ctx context.Context, ids []int64) ([]catalog.Option, error)
	Color(ctx context.Context, id int64) (catalog.Color, error)
}

// Selection is what a base price depends on besides the product.
type Selection struct {
	Width    *int
	Height   *int
	SpecName string
	TypeName string
}

// Calculator produces the base unit price of a product before surcharges.
type Calculator interface {
	Name() string
	Supports(categoryCode string) bool
	BasePrice(ctx context.Context, p catalog.Product, sel Selection) (int64, error)
}

// BasicCalculator uses the product's stored base price.
type BasicCalculator struct{}

var basicCodes = []string{
	"WINDOW",
	"HARDWARE",
	"DOORLOCK",
	"RECESSED_HANDLE",
	"EASY_HINGE",
	"PULL_HANDLE",
	"DOOR_STOPPER",
	"PACKAGING_FILM",
	"OTHER_HARDWARE",
	"HANGER_HARDWARE",
}

func (BasicCalculator) Name() string { return "basic" }

func (BasicCalculator) Supports(code string) bool {
	return strings.HasPrefix(code, "DOOR") || slices.Contains(basicCodes, code)
}

func (BasicCalculator) BasePrice(_ context.Context, p catalog.Product, _ Selection) (int64, error) {
	if p.BasePrice <= 0 {
		return 0, apperr.Validation(msgNoBasePrice)
	}
	return p.BasePrice, nil
}

// MatrixCalculator looks the price up in the product's width table.
type MatrixCalculator struct {
	Catalog Catalog
}

func (MatrixCalculator) Name() string { return "matrix" }

func (MatrixCalculator) Supports(code string) bool {
	return code == "INTERLOCK" || code == "WINDOW"
}

func (c MatrixCalculator) BasePrice(ctx context.Context, p catalog.Product, sel Selection) (int64, error) {
	if sel.Width == nil {
		return 0, apperr.Validation(msgDimensionsRequired)
	}
	row, err := c.Catalog.MatrixPrice(ctx, p.ID, catalog.BaseSetOption, *sel.Width)
	if errors.Is(err, catalog.ErrNotFound) {
		return 0, apperr.Wrap(apperr.KindValidation, msgNoMatrixPrice, err)
	}
	if err != nil {
		return 0, err
	}
	return row.Price, nil
}

// VariantCalculator prices by the (spec, type) variant. Wood frames are
// priced by area from the variant price.
type VariantCalculator struct {
	Catalog Catalog
}

var variantCodes = []string{"FRAME", "MOLDING", "FILM", "INTERLOCK"}

func (VariantCalculator) Name() string { return "variant" }

func (VariantCalculator) Supports(code string) bool {
	return slices.Contains(variantCodes, code)
}

func (c VariantCalculator) BasePrice(ctx context.Context, p catalog.Product, sel Selection) (int64, error) {
	if strings.TrimSpace(sel.SpecName) == "" {
		return 0, apperr.Validation(msgSpecRequired)
	}
	v, err := c.Catalog.FindVariant(ctx, p.ID, sel.SpecName, sel.TypeName)
	if errors.Is(err, catalog.ErrNotFound) {
		return 0, apperr.Wrap(apperr.KindValidation, msgNoVariant, err)
	}
	if err != nil {
		return 0, err
	}

	if !strings.Contains(p.Name, woodFrameMarker) {
		return v.Price, nil
	}
	if sel.Width == nil || sel.Height == nil {
		return 0, apperr.Validation(msgWoodFrameSize)
	}
	return WoodFrameAreaPrice(*sel.Width, *sel.Height, v.Price), nil
}

// WoodFrameAreaPrice returns round(width × height / 900000 × price).
func WoodFrameAreaPrice(width, height int, price int64) int64 {
	area := decimal.NewFromInt(int64(width) * int64(height)).Div(decimal.NewFromInt(woodFrameAreaUnit))
	return area.Mul(decimal.NewFromInt(price)).Round(0).IntPart()
}

// Registry picks the calculator for a product.
type Registry struct {
	basic   Calculator
	matrix  Calculator
	variant Calculator
	ordered []Calculator
}

// NewRegistry returns the calculators in lookup order basic, matrix, variant.
func NewRegistry(cat Catalog) *Registry {
	basic := BasicCalculator{}
	matrix := MatrixCalculator{Catalog: cat}
	variant := VariantCalculator{Catalog: cat}
	return &Registry{
		basic:   basic,
		matrix:  matrix,
		variant: variant,
		ordered: []Calculator{basic, matrix, variant},
	}
}

// Select returns the calculator for p. Gansal windows use the matrix, other
// windows with a stored price use it directly, and the wood three-panel
// interlock uses variants. Everything else takes the first calculator that
// supports the product's own code, then its parent code.
func (r *Registry) Select(p catalog.Product) (Calculator, error) {
	window := p.HasCode("WINDOW")
	switch {
	case window && strings.Contains(p.Name, gansalMarker):
		return r.matrix, nil
	case window && p.BasePrice > 0:
		return r.basic, nil
	case p.HasCode("INTERLOCK") && strings.Contains(p.Name, woodInterlockMarker):
		return r.variant, nil
	}

	for _, code := range []string{p.Category.Code, p.ParentCode()} {
		if code == "" {
			continue
		}
		for _, c := range r.ordered {
			if c.Supports(code) {
				return c, nil
			}
		}
	}
	return nil, apperr.Validation(msgNoCalculator)
}
