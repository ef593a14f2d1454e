// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"shopcore/internal/database"
	"shopcore/internal/models"
	. "shopcore/internal/store"
)

// testConn is the DB handle opened by testDB; cleanups registered by the
// must* helpers use it since the stores' own handle is unexported.
var testConn *sql.DB

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "shopcore")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "shopcore")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	testConn = db
	t.Cleanup(func() { db.Close() })
	return db
}

// uniqHandle returns a handle that cannot collide across test runs.
func uniqHandle(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

// mustCreate inserts a collection and fails the test on error. Cleanup is
// registered so the whole subtree disappears when the test finishes.
func mustCreate(t *testing.T, s *CollectionStore, c *models.Collection) *models.Collection {
	t.Helper()
	created, err := s.Create(context.Background(), c)
	if err != nil {
		t.Fatalf("create collection %q: %v", c.Handle, err)
	}
	t.Cleanup(func() {
		testConn.Exec("DELETE FROM collections WHERE id = $1 OR path LIKE $2", created.ID, created.Path+"/%")
	})
	return created
}

// mustCreateProduct inserts a product and registers cleanup by handle.
func mustCreateProduct(t *testing.T, s *ProductStore, p *models.Product) *models.Product {
	t.Helper()
	created, err := s.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("create product %q: %v", p.Handle, err)
	}
	t.Cleanup(func() {
		testConn.Exec("DELETE FROM products WHERE id = $1", created.ID)
	})
	return created
}

// cleanCollections removes test collections by handle. Call in t.Cleanup().
func cleanCollections(t *testing.T, db *sql.DB, handles ...string) {
	t.Helper()
	for _, h := range handles {
		db.Exec("DELETE FROM collections WHERE handle = $1", h)
	}
}
