package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/DongSeo/platform/internal/apperr"
	"github.com/DongSeo/platform/internal/pricing"
)

const (
	maxCodeLength = 50
	defaultCode   = "ITEM"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonCodeChars  = regexp.MustCompile(`[^A-Z0-9_]`)
)

// ToCode derives an identifier code from a display name: whitespace runs
// become "_", letters are upper-cased, anything outside [A-Z0-9_] is dropped
// and the result is cut to 50 characters. Names that leave nothing give "ITEM".
func ToCode(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultCode
	}
	code := whitespaceRun.ReplaceAllString(name, "_")
	code = nonCodeChars.ReplaceAllString(strings.ToUpper(code), "")
	if code == "" {
		return defaultCode
	}
	if len(code) > maxCodeLength {
		code = code[:maxCodeLength]
	}
	return code
}

type CompanyInput struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type CategoryInput struct {
	CompanyID *int64 `json:"companyId"`
	ParentID  *int64 `json:"parentId"`
	Name      string `json:"name"`
	Code      string `json:"code"`
}

type ProductInput struct {
	CompanyID    *int64 `json:"companyId"`
	CategoryID   *int64 `json:"categoryId"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Size         string `json:"size"`
	BasePrice    *int64 `json:"basePrice"`
	Ruleset      string `json:"ruleset"`
	SpecName     string `json:"specName"`
	TypeName     string `json:"typeName"`
	VariantPrice *int64 `json:"variantPrice"`
}

// ProductUpdate changes only the fields that are set. A blank description or
// size clears the field; a blank name is ignored.
type ProductUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Size        *string `json:"size"`
	BasePrice   *int64  `json:"basePrice"`
	Ruleset     *string `json:"ruleset"`
}

type VariantUpdate struct {
	SpecName *string `json:"specName"`
	TypeName *string `json:"typeName"`
	Price    *int64  `json:"price"`
}

type SearchQuery struct {
	Keyword    string
	CompanyID  *int64
	CategoryID *int64
}

// SearchItem is a product as listed by the admin search, with its variants.
type SearchItem struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Size         string        `json:"size,omitempty"`
	BasePrice    int64         `json:"basePrice"`
	CompanyID    int64         `json:"companyId"`
	CompanyName  string        `json:"companyName"`
	CategoryID   int64         `json:"categoryId"`
	CategoryName string        `json:"categoryName"`
	CategoryCode string        `json:"categoryCode"`
	Variants     []VariantInfo `json:"variants"`
}

type VariantInfo struct {
	ID       int64  `json:"id"`
	SpecName string `json:"specName"`
	TypeName string `json:"typeName"`
	Price    int64  `json:"price"`
}

// uniqueCode returns code, or code suffixed with the current unix millis when
// exists reports it taken.
func (s *Store) uniqueCode(code string, exists bool) string {
	if !exists {
		return code
	}
	return code + "_" + strconv.FormatInt(s.now().UnixMilli(), 10)
}

func codeOrDerived(code, name string) string {
	if code = strings.TrimSpace(code); code != "" {
		return code
	}
	return ToCode(name)
}

func normalizeRuleset(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	rs, ok := pricing.ParseRuleset(raw)
	if !ok {
		return "", apperr.Validation(fmt.Sprintf("알 수 없는 계산 규칙입니다: %s", raw))
	}
	return string(rs), nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateCompany adds a company. The code defaults to ToCode(name).
func (s *Store) CreateCompany(ctx context.Context, in CompanyInput) (Company, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Company{}, apperr.Validation("회사 이름은 필수입니다.")
	}
	code := codeOrDerived(in.Code, name)

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM companies WHERE code = ?)`, code).Scan(&exists); err != nil {
		return Company{}, fmt.Errorf("check company code: %w", err)
	}
	code = s.uniqueCode(code, exists)

	res, err := s.db.ExecContext(ctx, `INSERT INTO companies (name, code) VALUES (?, ?)`, name, code)
	if err != nil {
		return Company{}, fmt.Errorf("insert company: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Company{}, fmt.Errorf("read company id: %w", err)
	}
	return Company{ID: id, Name: name, Code: code}, nil
}

// CreateCategory adds a main category, or a subcategory when ParentID is set.
// Codes are unique per company.
func (s *Store) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	name := strings.TrimSpace(in.Name)
	if in.CompanyID == nil || name == "" {
		return Category{}, apperr.Validation("companyId, name 필수")
	}
	company, err := s.Company(ctx, *in.CompanyID)
	if err != nil {
		return Category{}, err
	}
	if in.ParentID != nil {
		if _, err := s.Category(ctx, *in.ParentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return Category{}, notFound(MsgParentCategoryNotFound)
			}
			return Category{}, err
		}
	}

	code := codeOrDerived(in.Code, name)
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM categories WHERE company_id = ? AND code = ?)
	`, company.ID, code).Scan(&exists); err != nil {
		return Category{}, fmt.Errorf("check category code: %w", err)
	}
	code = s.uniqueCode(code, exists)

	var parent any
	if in.ParentID != nil {
		parent = *in.ParentID
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (company_id, parent_id, code, name) VALUES (?, ?, ?, ?)
	`, company.ID, parent, code, name)
	if err != nil {
		return Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Category{}, fmt.Errorf("read category id: %w", err)
	}
	return Category{ID: id, CompanyID: company.ID, ParentID: in.ParentID, Code: code, Name: name}, nil
}

// CreateProduct adds a product and, when a spec name and variant price are
// given, its first variant.
func (s *Store) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	name := strings.TrimSpace(in.Name)
	if in.CompanyID == nil || in.CategoryID == nil || name == "" {
		return Product{}, apperr.Validation("companyId, categoryId, name 필수")
	}
	if in.BasePrice != nil && *in.BasePrice < 0 {
		return Product{}, apperr.Validation("기본 단가는 0 이상이어야 합니다.")
	}
	ruleset, err := normalizeRuleset(in.Ruleset)
	if err != nil {
		return Product{}, err
	}
	company, err := s.Company(ctx, *in.CompanyID)
	if err != nil {
		return Product{}, err
	}
	category, err := s.Category(ctx, *in.CategoryID)
	if err != nil {
		return Product{}, err
	}

	var basePrice int64
	if in.BasePrice != nil {
		basePrice = *in.BasePrice
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Product{}, fmt.Errorf("begin product transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO products (company_id, category_id, name, description, size, base_price, ruleset)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, company.ID, category.ID, name, strings.TrimSpace(in.Description), strings.TrimSpace(in.Size), basePrice, nullIfEmpty(ruleset))
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Product{}, fmt.Errorf("read product id: %w", err)
	}

	if spec := strings.TrimSpace(in.SpecName); spec != "" && in.VariantPrice != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO product_variants (product_id, spec_name, type_name, price) VALUES (?, ?, ?, ?)
		`, id, spec, strings.TrimSpace(in.TypeName), *in.VariantPrice); err != nil {
			return Product{}, fmt.Errorf("insert product variant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Product{}, fmt.Errorf("commit product transaction: %w", err)
	}
	return s.Product(ctx, id)
}

// SearchProducts lists products matching every filter that is set, with
// their variants. The keyword matches name or description.
func (s *Store) SearchProducts(ctx context.Context, q SearchQuery) ([]SearchItem, error) {
	where := []string{"1 = 1"}
	args := []any{}
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		where = append(where, "(instr(lower(p.name), lower(?)) > 0 OR instr(lower(p.description), lower(?)) > 0)")
		args = append(args, kw, kw)
	}
	if q.CompanyID != nil {
		where = append(where, "p.company_id = ?")
		args = append(args, *q.CompanyID)
	}
	if q.CategoryID != nil {
		where = append(where, "p.category_id = ?")
		args = append(args, *q.CategoryID)
	}

	products, err := s.queryProducts(ctx, `SELECT `+productColumns+productJoins+`
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY p.id
	`, args...)
	if err != nil {
		return nil, err
	}

	items := make([]SearchItem, 0, len(products))
	for _, p := range products {
		variants, err := s.Variants(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		infos := make([]VariantInfo, 0, len(variants))
		for _, v := range variants {
			infos = append(infos, VariantInfo{ID: v.ID, SpecName: v.SpecName, TypeName: v.TypeName, Price: v.Price})
		}
		items = append(items, SearchItem{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			Size:         p.Size,
			BasePrice:    p.BasePrice,
			CompanyID:    p.CompanyID,
			CompanyName:  p.CompanyName,
			CategoryID:   p.Category.ID,
			CategoryName: p.Category.Name,
			CategoryCode: p.Category.Code,
			Variants:     infos,
		})
	}
	return items, nil
}

// UpdateProduct applies the set fields of u to product id.
func (s *Store) UpdateProduct(ctx context.Context, id int64, u ProductUpdate) error {
	if _, err := s.productExists(ctx, id); err != nil {
		return err
	}

	sets := []string{}
	args := []any{}
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*u.Name))
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, strings.TrimSpace(*u.Description))
	}
	if u.Size != nil {
		sets = append(sets, "size = ?")
		args = append(args, strings.TrimSpace(*u.Size))
	}
	if u.BasePrice != nil {
		if *u.BasePrice < 0 {
			return apperr.Validation("기본 단가는 0 이상이어야 합니다.")
		}
		sets = append(sets, "base_price = ?")
		args = append(args, *u.BasePrice)
	}
	if u.Ruleset != nil {
		ruleset, err := normalizeRuleset(*u.Ruleset)
		if err != nil {
			return err
		}
		sets = append(sets, "ruleset = ?")
		args = append(args, nullIfEmpty(ruleset))
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)
	if _, err := s.db.ExecContext(ctx, `UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// UpdateVariant applies the set fields of u to variant id.
func (s *Store) UpdateVariant(ctx context.Context, id int64, u VariantUpdate) error {
	v, err := s.Variant(ctx, id)
	if err != nil {
		return err
	}
	if u.SpecName != nil {
		v.SpecName = strings.TrimSpace(*u.SpecName)
	}
	if u.TypeName != nil {
		v.TypeName = strings.TrimSpace(*u.TypeName)
	}
	if u.Price != nil {
		if *u.Price < 0 {
			return apperr.Validation("가격은 0 이상이어야 합니다.")
		}
		v.Price = *u.Price
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE product_variants SET spec_name = ?, type_name = ?, price = ? WHERE id = ?
	`, v.SpecName, v.TypeName, v.Price, id); err != nil {
		return fmt.Errorf("update product variant: %w", err)
	}
	return nil
}

// DeleteProduct removes product id together with its variants.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.productExists(ctx, id); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = ?`, id); err != nil {
		return fmt.Errorf("delete product variants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}
	return nil
}

// DeleteVariant removes variant id.
func (s *Store) DeleteVariant(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM product_variants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product variant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product variant: %w", err)
	}
	if affected == 0 {
		return notFound(MsgVariantNotFound)
	}
	return nil
}

func (s *Store) productExists(ctx context.Context, id int64) (bool, error) {
	var found int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM products WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, notFound(MsgProductNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("query product: %w", err)
	}
	return true, nil
}
