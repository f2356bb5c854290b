package seed

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/DongSeo/platform/internal/auth"
)

const (
	demoCompanyName = "쉐누 (CHENOUS)"
	demoCompanyCode = "CHENOUS"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminUsername string
	AdminPassword string
	DemoCatalog   bool
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(tx, cfg.AdminUsername, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if cfg.DemoCatalog {
		if err := seedCatalog(tx, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

// seedAdmin creates the initial admin only while the users table is empty.
func seedAdmin(tx *sql.Tx, username, password string, stats *Stats) error {
	if username == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users LIMIT 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`, username, hash, auth.RoleAdmin); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func seedCatalog(tx *sql.Tx, stats *Stats) error {
	companyID, err := ensureCompany(tx, demoCompanyName, demoCompanyCode, stats)
	if err != nil {
		return err
	}

	categoryIDs := make(map[string]int64, len(demoCategories))
	for _, c := range demoCategories {
		var parentID *int64
		if c.parent != "" {
			id, ok := categoryIDs[c.parent]
			if !ok {
				return fmt.Errorf("seed category %s: parent %s not seeded", c.code, c.parent)
			}
			parentID = &id
		}
		id, err := ensureCategory(tx, companyID, parentID, c, stats)
		if err != nil {
			return err
		}
		categoryIDs[c.code] = id
	}

	for _, p := range demoProducts {
		productID, err := ensureProduct(tx, companyID, categoryIDs[p.category], p, stats)
		if err != nil {
			return err
		}
		for _, v := range p.variants {
			if err := ensureVariant(tx, productID, v, stats); err != nil {
				return err
			}
		}
		for _, m := range p.matrix {
			if err := ensureMatrixRow(tx, productID, m, stats); err != nil {
				return err
			}
		}
	}

	for _, o := range demoOptions {
		if err := ensureOption(tx, companyID, categoryIDs[o.category], o, stats); err != nil {
			return err
		}
	}
	for _, c := range demoColors {
		if err := ensureColor(tx, companyID, c, stats); err != nil {
			return err
		}
	}
	return nil
}

func ensureCompany(tx *sql.Tx, name, code string, stats *Stats) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM companies WHERE code = ?`, code).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("check company existence: %w", err)
	}

	res, err := tx.Exec(`INSERT INTO companies (name, code) VALUES (?, ?)`, name, code)
	if err != nil {
		return 0, fmt.Errorf("insert company %s: %w", code, err)
	}
	stats.Inserts++
	return res.LastInsertId()
}

func ensureCategory(tx *sql.Tx, companyID int64, parentID *int64, c demoCategory, stats *Stats) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM categories WHERE company_id = ? AND code = ?`, companyID, c.code).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("check category existence: %w", err)
	}

	res, err := tx.Exec(`
		INSERT INTO categories (company_id, parent_id, code, name, sort_order)
		VALUES (?, ?, ?, ?, ?)
	`, companyID, parentID, c.code, c.name, c.sortOrder)
	if err != nil {
		return 0, fmt.Errorf("insert category %s: %w", c.code, err)
	}
	stats.Inserts++
	return res.LastInsertId()
}

func ensureProduct(tx *sql.Tx, companyID, categoryID int64, p demoProduct, stats *Stats) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM products WHERE company_id = ? AND name = ?`, companyID, p.name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("check product existence: %w", err)
	}

	res, err := tx.Exec(`
		INSERT INTO products (company_id, category_id, name, description, size, base_price)
		VALUES (?, ?, ?, ?, ?, ?)
	`, companyID, categoryID, p.name, p.description, p.size, p.basePrice)
	if err != nil {
		return 0, fmt.Errorf("insert product %s: %w", p.name, err)
	}
	stats.Inserts++
	return res.LastInsertId()
}

func ensureVariant(tx *sql.Tx, productID int64, v demoVariant, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`
		SELECT EXISTS(
			SELECT 1
			FROM product_variants
			WHERE product_id = ? AND spec_name = ? AND type_name = ?
			LIMIT 1
		)
	`, productID, v.spec, v.typeName).Scan(&exists); err != nil {
		return fmt.Errorf("check variant existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO product_variants (product_id, spec_name, type_name, price)
		VALUES (?, ?, ?, ?)
	`, productID, v.spec, v.typeName, v.price); err != nil {
		return fmt.Errorf("insert variant: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureMatrixRow(tx *sql.Tx, productID int64, m demoMatrixRow, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`
		SELECT EXISTS(
			SELECT 1
			FROM pricing_matrix
			WHERE product_id = ? AND option_name = ? AND max_width = ?
			LIMIT 1
		)
	`, productID, baseSetOption, m.maxWidth).Scan(&exists); err != nil {
		return fmt.Errorf("check pricing matrix existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO pricing_matrix (product_id, option_name, max_width, price)
		VALUES (?, ?, ?, ?)
	`, productID, baseSetOption, m.maxWidth, m.price); err != nil {
		return fmt.Errorf("insert pricing matrix row: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureOption(tx *sql.Tx, companyID, categoryID int64, o demoOption, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`
		SELECT EXISTS(
			SELECT 1
			FROM options
			WHERE company_id = ? AND category_id = ? AND product_id IS NULL AND name = ?
			LIMIT 1
		)
	`, companyID, categoryID, o.name).Scan(&exists); err != nil {
		return fmt.Errorf("check option existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO options (company_id, category_id, name, add_price)
		VALUES (?, ?, ?, ?)
	`, companyID, categoryID, o.name, o.addPrice); err != nil {
		return fmt.Errorf("insert option %s: %w", o.name, err)
	}
	stats.Inserts++
	return nil
}

func ensureColor(tx *sql.Tx, companyID int64, c demoColor, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM colors WHERE company_id = ? AND name = ? LIMIT 1)`, companyID, c.name).Scan(&exists); err != nil {
		return fmt.Errorf("check color existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO colors (company_id, name, color_code, cost)
		VALUES (?, ?, ?, ?)
	`, companyID, c.name, c.code, c.cost); err != nil {
		return fmt.Errorf("insert color %s: %w", c.name, err)
	}
	stats.Inserts++
	return nil
}
