package seed

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/DongSeo/platform/internal/auth"
	"github.com/DongSeo/platform/internal/db"
	"github.com/DongSeo/platform/internal/migrations"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	database := openTestDB(t)
	cfg := Config{
		AdminUsername: "admin",
		AdminPassword: "admin123",
		DemoCatalog:   true,
	}

	// admin + company + 10 categories + 11 products + 8 variants + 3 matrix rows + 6 options + 3 colors
	const firstRunInserts = 43

	for i := 0; i < 5; i++ {
		stats, err := Run(database, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != firstRunInserts {
				t.Fatalf("expected %d inserts in first run, got %d", firstRunInserts, stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM users WHERE username = ? AND role = 'ADMIN'`, "admin", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM companies WHERE code = ?`, "CHENOUS", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM categories WHERE parent_id IS NOT NULL`, nil, 2)
	assertCount(t, database, `SELECT COUNT(*) FROM pricing_matrix WHERE option_name = ?`, "기본 세트", 3)
	assertCount(t, database, `SELECT COUNT(*) FROM products p JOIN categories c ON c.id = p.category_id WHERE c.code = ?`, "FRAME", 3)

	var hash string
	if err := database.QueryRow(`SELECT password_hash FROM users WHERE username = ?`, "admin").Scan(&hash); err != nil {
		t.Fatalf("query admin hash: %v", err)
	}
	if !auth.CheckPassword(hash, "admin123") {
		t.Fatalf("expected admin hash to match password")
	}
}

func TestRunSkipsAdminWhenUsersExist(t *testing.T) {
	t.Parallel()

	database := openTestDB(t)
	if _, err := database.Exec(`INSERT INTO users (username, password_hash, role) VALUES ('staff1', 'x', 'STAFF')`); err != nil {
		t.Fatalf("insert staff user: %v", err)
	}

	stats, err := Run(database, Config{AdminUsername: "admin", AdminPassword: "admin123"})
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != 0 {
		t.Fatalf("expected no inserts, got %d", stats.Inserts)
	}
	assertCount(t, database, `SELECT COUNT(*) FROM users`, nil, 1)
	assertCount(t, database, `SELECT COUNT(*) FROM companies`, nil, 0)
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
