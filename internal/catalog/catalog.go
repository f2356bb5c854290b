// Package catalog stores companies, categories, products and their pricing
// data in SQLite.
package catalog

import (
	"errors"
	"strings"

	"github.com/DongSeo/platform/internal/apperr"
	"github.com/DongSeo/platform/internal/pricing"
)

// ErrNotFound is wrapped by every lookup that finds no row.
var ErrNotFound = errors.New("catalog: not found")

// Messages shown to users when a referenced entity does not exist.
const (
	MsgCompanyNotFound        = "회사를 찾을 수 없습니다."
	MsgParentCategoryNotFound = "부모 카테고리를 찾을 수 없습니다."
	MsgCategoryNotFound       = "카테고리를 찾을 수 없습니다."
	MsgProductNotFound        = "제품을 찾을 수 없습니다."
	MsgProductMissing         = "제품이 존재하지 않습니다."
	MsgVariantNotFound        = "규격을 찾을 수 없습니다."
	MsgColorNotFound          = "색상을 찾을 수 없습니다."
)

// BaseSetOption is the pricing matrix row set used for base prices.
const BaseSetOption = "기본 세트"

func notFound(message string) error {
	return apperr.Wrap(apperr.KindNotFound, message, ErrNotFound)
}

type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// CategoryRef is the short form of a category embedded in other responses.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type Category struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"companyId"`
	ParentID  *int64 `json:"parentId,omitempty"`
	Code      string `json:"code"`
	Name      string `json:"name"`
}

// Ref returns the short form of c.
func (c Category) Ref() CategoryRef {
	return CategoryRef{ID: c.ID, Name: c.Name, Code: c.Code}
}

type Product struct {
	ID          int64        `json:"id"`
	CompanyID   int64        `json:"companyId"`
	CompanyName string       `json:"companyName,omitempty"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Size        string       `json:"size,omitempty"`
	BasePrice   int64        `json:"basePrice"`
	Ruleset     string       `json:"ruleset,omitempty"`
	Category    CategoryRef  `json:"category"`
	Parent      *CategoryRef `json:"parentCategory,omitempty"`
}

// ParentCode returns the code of the parent category, or "" for a main category.
func (p Product) ParentCode() string {
	if p.Parent == nil {
		return ""
	}
	return p.Parent.Code
}

// Attributes returns the fields the pricing classifier reads. The product's own
// category counts as its subcategory when it has a parent.
func (p Product) Attributes() pricing.Attributes {
	attrs := pricing.Attributes{
		CategoryCode: p.Category.Code,
		ParentCode:   p.ParentCode(),
		ProductName:  p.Name,
		Description:  p.Description,
	}
	if p.Parent != nil {
		attrs.SubCategoryName = p.Category.Name
	}
	return attrs
}

// HasCode reports whether the product's category or its parent has code.
func (p Product) HasCode(code string) bool {
	return p.Category.Code == code || p.ParentCode() == code
}

// IsWood reports whether the product belongs to the wood materials catalog,
// which is priced per piece rather than through the estimate engine.
func (p Product) IsWood() bool {
	return IsWoodCategory(p.Category.Code) || IsWoodCategory(p.ParentCode())
}

// IsWoodCategory reports whether code names a wood materials category.
func IsWoodCategory(code string) bool {
	return strings.HasPrefix(code, "WOOD_") && !strings.Contains(code, "DOOR")
}

type Variant struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"productId"`
	SpecName  string `json:"specName"`
	TypeName  string `json:"typeName"`
	Price     int64  `json:"price"`
	Note      string `json:"note,omitempty"`
}

type Option struct {
	ID         int64        `json:"id"`
	CompanyID  int64        `json:"companyId"`
	CategoryID *int64       `json:"-"`
	ProductID  *int64       `json:"productId,omitempty"`
	Name       string       `json:"name"`
	AddPrice   int64        `json:"addPrice"`
	Category   *CategoryRef `json:"category,omitempty"`
}

// PricingOption converts o for the pricing engine.
func (o Option) PricingOption() pricing.Option {
	return pricing.Option{ID: o.ID, Name: o.Name, AddPrice: o.AddPrice}
}

// PricingOptions converts opts for the pricing engine.
func PricingOptions(opts []Option) []pricing.Option {
	out := make([]pricing.Option, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.PricingOption())
	}
	return out
}

type Color struct {
	ID        int64    `json:"id"`
	CompanyID int64    `json:"-"`
	Name      string   `json:"name"`
	ColorCode string   `json:"colorCode"`
	Cost      float64  `json:"cost"`
	Company   *Company `json:"company,omitempty"`
}

// PricingColor converts c for the pricing engine.
func (c Color) PricingColor() *pricing.Color {
	return &pricing.Color{ID: c.ID, Name: c.Name, Code: c.ColorCode, CostRate: c.Cost}
}

// MatrixRow is one width band of a product's price table.
type MatrixRow struct {
	ID         int64  `json:"id"`
	ProductID  int64  `json:"productId"`
	OptionName string `json:"optionName"`
	MaxWidth   int    `json:"maxWidth"`
	Price      int64  `json:"price"`
}
