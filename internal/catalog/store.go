package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Store reads and writes the catalog.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

const productColumns = `
	p.id, p.company_id, co.name, p.name, p.description, p.size, p.base_price, COALESCE(p.ruleset, ''),
	c.id, c.name, c.code,
	pc.id, pc.name, pc.code
`

const productJoins = `
	FROM products p
	JOIN companies co ON co.id = p.company_id
	JOIN categories c ON c.id = p.category_id
	LEFT JOIN categories pc ON pc.id = c.parent_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p          Product
		parentID   sql.NullInt64
		parentName sql.NullString
		parentCode sql.NullString
	)
	if err := row.Scan(
		&p.ID, &p.CompanyID, &p.CompanyName, &p.Name, &p.Description, &p.Size, &p.BasePrice, &p.Ruleset,
		&p.Category.ID, &p.Category.Name, &p.Category.Code,
		&parentID, &parentName, &parentCode,
	); err != nil {
		return Product{}, err
	}
	if parentID.Valid {
		p.Parent = &CategoryRef{ID: parentID.Int64, Name: parentName.String, Code: parentCode.String}
	}
	return p, nil
}

func scanCategory(row rowScanner) (Category, error) {
	var (
		c        Category
		parentID sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.CompanyID, &parentID, &c.Code, &c.Name); err != nil {
		return Category{}, err
	}
	if parentID.Valid {
		id := parentID.Int64
		c.ParentID = &id
	}
	return c, nil
}

func scanOption(row rowScanner) (Option, error) {
	var (
		o            Option
		categoryID   sql.NullInt64
		productID    sql.NullInt64
		categoryName sql.NullString
		categoryCode sql.NullString
	)
	if err := row.Scan(&o.ID, &o.CompanyID, &categoryID, &productID, &o.Name, &o.AddPrice, &categoryName, &categoryCode); err != nil {
		return Option{}, err
	}
	if categoryID.Valid {
		id := categoryID.Int64
		o.CategoryID = &id
		o.Category = &CategoryRef{ID: id, Name: categoryName.String, Code: categoryCode.String}
	}
	if productID.Valid {
		id := productID.Int64
		o.ProductID = &id
	}
	return o, nil
}

const optionSelect = `
	SELECT o.id, o.company_id, o.category_id, o.product_id, o.name, o.add_price, c.name, c.code
	FROM options o
	LEFT JOIN categories c ON c.id = o.category_id
`

// ListCompanies returns every company ordered by id.
func (s *Store) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, code FROM companies ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	companies := make([]Company, 0)
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Code); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

// Company returns the company with id.
func (s *Store) Company(ctx context.Context, id int64) (Company, error) {
	var c Company
	err := s.db.QueryRowContext(ctx, `SELECT id, name, code FROM companies WHERE id = ?`, id).Scan(&c.ID, &c.Name, &c.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return Company{}, notFound(MsgCompanyNotFound)
	}
	if err != nil {
		return Company{}, fmt.Errorf("query company: %w", err)
	}
	return c, nil
}

func (s *Store) queryCategories(ctx context.Context, query string, args ...any) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// MainCategories returns the categories without a parent. A nil companyID
// returns them for every company.
func (s *Store) MainCategories(ctx context.Context, companyID *int64) ([]Category, error) {
	if companyID == nil {
		return s.queryCategories(ctx, `
			SELECT id, company_id, parent_id, code, name
			FROM categories
			WHERE parent_id IS NULL
			ORDER BY sort_order, id
		`)
	}
	return s.queryCategories(ctx, `
		SELECT id, company_id, parent_id, code, name
		FROM categories
		WHERE parent_id IS NULL AND company_id = ?
		ORDER BY sort_order, id
	`, *companyID)
}

// SubCategories returns the direct children of parentID.
func (s *Store) SubCategories(ctx context.Context, parentID int64) ([]Category, error) {
	return s.queryCategories(ctx, `
		SELECT id, company_id, parent_id, code, name
		FROM categories
		WHERE parent_id = ?
		ORDER BY sort_order, id
	`, parentID)
}

// Category returns the category with id.
func (s *Store) Category(ctx context.Context, id int64) (Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, `
		SELECT id, company_id, parent_id, code, name FROM categories WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, notFound(MsgCategoryNotFound)
	}
	if err != nil {
		return Category{}, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

// CategoryChain returns categoryID followed by its ancestors, nearest first.
func (s *Store) CategoryChain(ctx context.Context, categoryID int64) ([]int64, error) {
	chain := make([]int64, 0, 2)
	seen := make(map[int64]bool)
	current := &categoryID
	for current != nil && !seen[*current] {
		seen[*current] = true
		c, err := s.Category(ctx, *current)
		if err != nil {
			return nil, err
		}
		chain = append(chain, c.ID)
		current = c.ParentID
	}
	return chain, nil
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// ProductsByCategory returns the products of categoryID and of its direct
// subcategories.
func (s *Store) ProductsByCategory(ctx context.Context, categoryID int64) ([]Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+productJoins+`
		WHERE c.id = ? OR c.parent_id = ?
		ORDER BY p.id
	`, categoryID, categoryID)
}

// Product returns the product with id together with its category and parent.
func (s *Store) Product(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+productJoins+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, notFound(MsgProductMissing)
	}
	if err != nil {
		return Product{}, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

// ProductsByType returns the products in categoryID or its subcategories that
// have a variant with the given type name, or whose name contains it.
func (s *Store) ProductsByType(ctx context.Context, categoryID int64, typeName string) ([]Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+productJoins+`
		WHERE (c.id = ? OR c.parent_id = ?)
		AND (
			EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = p.id AND v.type_name = ?)
			OR instr(p.name, ?) > 0
		)
		ORDER BY p.id
	`, categoryID, categoryID, typeName, typeName)
}

// Variants returns the variants of productID ordered by id.
func (s *Store) Variants(ctx context.Context, productID int64) ([]Variant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, spec_name, type_name, price, note
		FROM product_variants
		WHERE product_id = ?
		ORDER BY id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	variants := make([]Variant, 0)
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SpecName, &v.TypeName, &v.Price, &v.Note); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}
	return variants, nil
}

// Variant returns the variant with id.
func (s *Store) Variant(ctx context.Context, id int64) (Variant, error) {
	var v Variant
	err := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, spec_name, type_name, price, note
		FROM product_variants
		WHERE id = ?
	`, id).Scan(&v.ID, &v.ProductID, &v.SpecName, &v.TypeName, &v.Price, &v.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return Variant{}, notFound(MsgVariantNotFound)
	}
	if err != nil {
		return Variant{}, fmt.Errorf("query variant: %w", err)
	}
	return v, nil
}

// FindVariant returns the variant of productID with exactly spec and type.
// The error wraps ErrNotFound when there is none.
func (s *Store) FindVariant(ctx context.Context, productID int64, specName, typeName string) (Variant, error) {
	var v Variant
	err := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, spec_name, type_name, price, note
		FROM product_variants
		WHERE product_id = ? AND spec_name = ? AND type_name = ?
		ORDER BY id
		LIMIT 1
	`, productID, specName, typeName).Scan(&v.ID, &v.ProductID, &v.SpecName, &v.TypeName, &v.Price, &v.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return Variant{}, fmt.Errorf("variant %d/%q/%q: %w", productID, specName, typeName, ErrNotFound)
	}
	if err != nil {
		return Variant{}, fmt.Errorf("query variant: %w", err)
	}
	return v, nil
}

func (s *Store) queryOptions(ctx context.Context, where string, args ...any) ([]Option, error) {
	rows, err := s.db.QueryContext(ctx, optionSelect+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	options := make([]Option, 0)
	for rows.Next() {
		o, err := scanOption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate options: %w", err)
	}
	return options, nil
}

// CompanyOptions returns every option of companyID.
func (s *Store) CompanyOptions(ctx context.Context, companyID int64) ([]Option, error) {
	return s.queryOptions(ctx, `WHERE o.company_id = ? ORDER BY o.id`, companyID)
}

// ProductOptions returns the options available for productID: its own
// options plus the common options (no product) of every category in its
// chain for companyID. Names are unique, the first occurrence wins with
// product options ahead of category options, and the result is ordered by id.
func (s *Store) ProductOptions(ctx context.Context, productID, companyID int64) ([]Option, error) {
	product, err := s.Product(ctx, productID)
	if err != nil {
		return nil, err
	}

	all, err := s.queryOptions(ctx, `WHERE o.product_id = ? ORDER BY o.id`, productID)
	if err != nil {
		return nil, err
	}

	chain, err := s.CategoryChain(ctx, product.Category.ID)
	if err != nil {
		return nil, err
	}
	for _, categoryID := range chain {
		common, err := s.queryOptions(ctx, `
			WHERE o.company_id = ? AND o.category_id = ? AND o.product_id IS NULL
			ORDER BY o.id
		`, companyID, categoryID)
		if err != nil {
			return nil, err
		}
		all = append(all, common...)
	}

	return dedupeOptions(all), nil
}

func dedupeOptions(all []Option) []Option {
	seen := make(map[string]bool, len(all))
	out := make([]Option, 0, len(all))
	for _, o := range all {
		if seen[o.Name] {
			continue
		}
		seen[o.Name] = true
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OptionsByIDs returns the options whose id is in ids, each once.
func (s *Store) OptionsByIDs(ctx context.Context, ids []int64) ([]Option, error) {
	if len(ids) == 0 {
		return []Option{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return s.queryOptions(ctx, `WHERE o.id IN (`+placeholders+`) ORDER BY o.id`, args...)
}

// Colors returns the colors of companyID ordered by id.
func (s *Store) Colors(ctx context.Context, companyID int64) ([]Color, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.company_id, c.name, c.color_code, c.cost, co.id, co.name, co.code
		FROM colors c
		JOIN companies co ON co.id = c.company_id
		WHERE c.company_id = ?
		ORDER BY c.id
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("query colors: %w", err)
	}
	defer rows.Close()

	colors := make([]Color, 0)
	for rows.Next() {
		var (
			c       Color
			company Company
		)
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.ColorCode, &c.Cost, &company.ID, &company.Name, &company.Code); err != nil {
			return nil, fmt.Errorf("scan color: %w", err)
		}
		c.Company = &company
		colors = append(colors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate colors: %w", err)
	}
	return colors, nil
}

// Color returns the color with id.
func (s *Store) Color(ctx context.Context, id int64) (Color, error) {
	var c Color
	err := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, name, color_code, cost FROM colors WHERE id = ?
	`, id).Scan(&c.ID, &c.CompanyID, &c.Name, &c.ColorCode, &c.Cost)
	if errors.Is(err, sql.ErrNoRows) {
		return Color{}, notFound(MsgColorNotFound)
	}
	if err != nil {
		return Color{}, fmt.Errorf("query color: %w", err)
	}
	return c, nil
}

// MatrixPrice returns the first row of productID's optionName table whose
// max width is at least width. The error wraps ErrNotFound when no band fits.
func (s *Store) MatrixPrice(ctx context.Context, productID int64, optionName string, width int) (MatrixRow, error) {
	var m MatrixRow
	err := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, option_name, max_width, price
		FROM pricing_matrix
		WHERE product_id = ? AND option_name = ? AND max_width >= ?
		ORDER BY max_width ASC
		LIMIT 1
	`, productID, optionName, width).Scan(&m.ID, &m.ProductID, &m.OptionName, &m.MaxWidth, &m.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return MatrixRow{}, fmt.Errorf("matrix %d/%q width %d: %w", productID, optionName, width, ErrNotFound)
	}
	if err != nil {
		return MatrixRow{}, fmt.Errorf("query pricing matrix: %w", err)
	}
	return m, nil
}
