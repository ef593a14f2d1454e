// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Integration tests against a live PostgreSQL; skipped when unreachable.
// The cache is exercised through an explicit HierarchyCache only in the
// invalidation test, everything else runs cacheless.
package hierarchy

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"shopcore/internal/cache"
	"shopcore/internal/database"
	"shopcore/internal/models"
	"shopcore/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

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

func mustCreate(t *testing.T, s *store.CollectionStore, c *models.Collection) *models.Collection {
	t.Helper()
	created, err := s.Create(context.Background(), c)
	if err != nil {
		t.Fatalf("create collection %q: %v", c.Handle, err)
	}
	t.Cleanup(func() {
		s.Delete(context.Background(), created.ID, true)
	})
	return created
}

func uniqHandle(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

func TestTree_NestsChildrenUnderParents(t *testing.T) {
	db := testDB(t)
	cs := store.NewCollectionStore(db)
	svc := New(cs, nil)
	ctx := context.Background()

	root := mustCreate(t, cs, &models.Collection{
		Title: "Root", Handle: uniqHandle("hr-root"), Type: models.CollectionManual, Published: true,
	})
	child := mustCreate(t, cs, &models.Collection{
		Title: "Child", Handle: uniqHandle("hr-child"), ParentID: &root.ID,
		Type: models.CollectionManual, Published: true,
	})
	mustCreate(t, cs, &models.Collection{
		Title: "Grandchild", Handle: uniqHandle("hr-grand"), ParentID: &child.ID,
		Type: models.CollectionManual, Published: true,
	})

	tree, err := svc.Tree(ctx, nil, true)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}

	var found *models.Collection
	for i := range tree {
		if tree[i].ID == root.ID {
			found = &tree[i]
		}
	}
	if found == nil {
		t.Fatal("root missing from tree")
	}
	if len(found.Children) != 1 || found.Children[0].ID != child.ID {
		t.Fatalf("root children = %d, want the single child", len(found.Children))
	}
	if len(found.Children[0].Children) != 1 {
		t.Errorf("child children = %d, want the grandchild", len(found.Children[0].Children))
	}
}

func TestTree_SubtreeRoot(t *testing.T) {
	db := testDB(t)
	cs := store.NewCollectionStore(db)
	svc := New(cs, nil)

	root := mustCreate(t, cs, &models.Collection{
		Title: "Root", Handle: uniqHandle("hr-sub"), Type: models.CollectionManual, Published: true,
	})
	child := mustCreate(t, cs, &models.Collection{
		Title: "Child", Handle: uniqHandle("hr-sub-child"), ParentID: &root.ID,
		Type: models.CollectionManual, Published: true,
	})

	tree, err := svc.Tree(context.Background(), &root.ID, true)
	if err != nil {
		t.Fatalf("Tree subtree: %v", err)
	}
	if len(tree) != 1 || tree[0].ID != root.ID {
		t.Fatalf("subtree root = %v, want the requested node", tree)
	}
	if len(tree[0].Children) != 1 || tree[0].Children[0].ID != child.ID {
		t.Errorf("subtree children wrong: %+v", tree[0].Children)
	}
}

func TestTree_ExcludesUnpublishedFromPublicView(t *testing.T) {
	db := testDB(t)
	cs := store.NewCollectionStore(db)
	svc := New(cs, nil)

	hidden := mustCreate(t, cs, &models.Collection{
		Title: "Hidden", Handle: uniqHandle("hr-hidden"), Type: models.CollectionManual,
	})

	tree, err := svc.Tree(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	for _, c := range tree {
		if c.ID == hidden.ID {
			t.Fatal("unpublished collection leaked into public tree")
		}
	}
}

func TestBreadcrumbs_RootFirstInclusive(t *testing.T) {
	db := testDB(t)
	cs := store.NewCollectionStore(db)
	svc := New(cs, nil)

	a := mustCreate(t, cs, &models.Collection{
		Title: "A", Handle: uniqHandle("hr-bc-a"), Type: models.CollectionManual, Published: true,
	})
	b := mustCreate(t, cs, &models.Collection{
		Title: "B", Handle: uniqHandle("hr-bc-b"), ParentID: &a.ID,
		Type: models.CollectionManual, Published: true,
	})
	c := mustCreate(t, cs, &models.Collection{
		Title: "C", Handle: uniqHandle("hr-bc-c"), ParentID: &b.ID,
		Type: models.CollectionManual, Published: true,
	})

	crumbs, err := svc.Breadcrumbs(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Breadcrumbs: %v", err)
	}
	want := []uuid.UUID{a.ID, b.ID, c.ID}
	if len(crumbs) != len(want) {
		t.Fatalf("got %d crumbs, want %d", len(crumbs), len(want))
	}
	for i, id := range want {
		if crumbs[i].ID != id {
			t.Errorf("crumb[%d] = %s, want %s", i, crumbs[i].ID, id)
		}
	}
}

func TestBreadcrumbs_ParentCycleDetected(t *testing.T) {
	db := testDB(t)
	cs := store.NewCollectionStore(db)
	svc := New(cs, nil)
	ctx := context.Background()

	a := mustCreate(t, cs, &models.Collection{
		Title: "A", Handle: uniqHandle("hr-cyc-a"), Type: models.CollectionManual, Published: true,
	})
	b := mustCreate(t, cs, &models.Collection{
		Title: "B", Handle: uniqHandle("hr-cyc-b"), ParentID: &a.ID,
		Type: models.CollectionManual, Published: true,
	})

	// Corrupt the tree behind the store's back: a two-node parent cycle
	// that no mutation path can produce. The walk must hit its bound and
	// report corruption instead of looping.
	if _, err := db.ExecContext(ctx,
		`UPDATE collections SET parent_id = $1 WHERE id = $2`, b.ID, a.ID,
	); err != nil {
		t.Fatalf("corrupt parent link: %v", err)
	}
	t.Cleanup(func() {
		db.ExecContext(ctx, `UPDATE collections SET parent_id = NULL WHERE id = $1`, a.ID)
	})

	if _, err := svc.Breadcrumbs(ctx, b.ID); !errors.Is(err, store.ErrCorruptHierarchy) {
		t.Fatalf("Breadcrumbs on cyclic parents: err = %v, want ErrCorruptHierarchy", err)
	}
	if _, err := svc.AncestorIDs(ctx, a.ID); !errors.Is(err, store.ErrCorruptHierarchy) {
		t.Fatalf("AncestorIDs on cyclic parents: err = %v, want ErrCorruptHierarchy", err)
	}
}

func TestAncestorIDs_ExcludesSelf(t *testing.T) {
	db := testDB(t)
	cs := store.NewCollectionStore(db)
	svc := New(cs, nil)

	a := mustCreate(t, cs, &models.Collection{
		Title: "A", Handle: uniqHandle("hr-anc-a"), Type: models.CollectionManual, Published: true,
	})
	b := mustCreate(t, cs, &models.Collection{
		Title: "B", Handle: uniqHandle("hr-anc-b"), ParentID: &a.ID,
		Type: models.CollectionManual, Published: true,
	})

	ids, err := svc.AncestorIDs(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("AncestorIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != a.ID {
		t.Errorf("AncestorIDs = %v, want [%s]", ids, a.ID)
	}
}

func TestDescendants_NotFound(t *testing.T) {
	db := testDB(t)
	svc := New(store.NewCollectionStore(db), nil)

	_, err := svc.Descendants(context.Background(), uuid.New(), true)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Descendants of ghost: err = %v, want ErrNotFound", err)
	}
}

func TestTree_CacheInvalidation(t *testing.T) {
	db := testDB(t)

	vk := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})
	ctx := context.Background()
	if err := vk.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}
	t.Cleanup(func() {
		vk.Del(ctx, "hierarchy:tree")
		vk.Close()
	})

	cs := store.NewCollectionStore(db)
	svc := New(cs, cache.NewHierarchyCache(vk, time.Minute))

	// Warm the cache with the published tree.
	if _, err := svc.Tree(ctx, nil, false); err != nil {
		t.Fatalf("warm tree: %v", err)
	}

	late := mustCreate(t, cs, &models.Collection{
		Title: "Late Arrival", Handle: uniqHandle("hr-late"), Type: models.CollectionManual, Published: true,
	})

	// Until invalidation the cached tree may predate the insert; after it
	// the new root has to show up.
	svc.Invalidate(ctx)
	tree, err := svc.Tree(ctx, nil, false)
	if err != nil {
		t.Fatalf("tree after invalidation: %v", err)
	}
	found := false
	for _, c := range tree {
		if c.ID == late.ID {
			found = true
		}
	}
	if !found {
		t.Error("collection created after cache warm missing from invalidated tree")
	}
}
