package database

import (
	"testing"
)

func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seed creates data only when the collections table is empty, so a
	// second call must be a no-op. We don't clear the database first
	// because other test packages may be running against it concurrently.
	if err := Seed(db); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	// Products exist.
	var productCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM products").Scan(&productCount); err != nil {
		t.Fatalf("count products: %v", err)
	}
	if productCount < 1 {
		t.Errorf("expected at least 1 product, got %d", productCount)
	}

	// The seeded tree keeps level/path consistent with parent links.
	var badLevels int
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM collections c
		JOIN collections p ON c.parent_id = p.id
		WHERE c.level <> p.level + 1
	`).Scan(&badLevels); err != nil {
		t.Fatalf("check levels: %v", err)
	}
	if badLevels != 0 {
		t.Errorf("found %d collections with inconsistent levels", badLevels)
	}
}
