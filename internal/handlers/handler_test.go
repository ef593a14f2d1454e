// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"shopcore/internal/cache"
	"shopcore/internal/database"
	"shopcore/internal/hierarchy"
	"shopcore/internal/membership"
	"shopcore/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "shopcore")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "shopcore")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "hierarchy:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB          *sql.DB
	Valkey      *redis.Client
	Collections *store.CollectionStore
	Products    *store.ProductStore
	Hierarchy   *hierarchy.Service
	Resolver    *membership.Resolver
	Admin       *Admin
	Public      *Public
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	collections := store.NewCollectionStore(db)
	products := store.NewProductStore(db)
	hierCache := cache.NewHierarchyCache(vk, 1*time.Minute)
	hier := hierarchy.New(collections, hierCache)
	resolver := membership.NewResolver(collections, products, hier)

	return &testEnv{
		DB:          db,
		Valkey:      vk,
		Collections: collections,
		Products:    products,
		Hierarchy:   hier,
		Resolver:    resolver,
		Admin:       NewAdmin(collections, hier),
		Public:      NewPublic(collections, hier, resolver),
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// cleanCollections removes test collections by handle, deepest paths first so
// the leaf check never trips.
func cleanCollections(t *testing.T, db *sql.DB, handles ...string) {
	t.Helper()
	for _, h := range handles {
		db.Exec("DELETE FROM collections WHERE handle = $1 OR path LIKE (SELECT path FROM collections WHERE handle = $1) || '/%'", h)
	}
}

// cleanProducts removes test products by handle.
func cleanProducts(t *testing.T, db *sql.DB, handles ...string) {
	t.Helper()
	for _, h := range handles {
		db.Exec("DELETE FROM products WHERE handle = $1", h)
	}
}
