package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"shopcore/internal/models"
	"shopcore/internal/store"
)

// Seed populates the database with a small development catalog: a handful of
// products and a collection tree mixing manual and smart membership. It is a
// no-op when collections already exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM collections").Scan(&count); err != nil {
		return fmt.Errorf("seed check collections: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	ctx := context.Background()
	products := store.NewProductStore(db)
	collections := store.NewCollectionStore(db)

	seedProducts := []models.Product{
		{Title: "Linen Summer Shirt", Handle: "linen-summer-shirt", Price: 79.00, Status: models.ProductActive, Tags: []string{"summer", "linen"}},
		{Title: "Wool Overcoat", Handle: "wool-overcoat", Price: 249.00, Status: models.ProductActive, Tags: []string{"winter", "wool"}},
		{Title: "Canvas Tote", Handle: "canvas-tote", Price: 29.00, Status: models.ProductActive, Tags: []string{"accessories", "sale"}},
		{Title: "Denim Jacket", Handle: "denim-jacket", Price: 129.00, Status: models.ProductActive, Tags: []string{"denim"}},
		{Title: "Leather Belt", Handle: "leather-belt", Price: 45.00, Status: models.ProductActive, Tags: []string{"accessories", "leather"}},
		{Title: "Prototype Sneaker", Handle: "prototype-sneaker", Price: 180.00, Status: models.ProductDraft, Tags: []string{"footwear"}},
	}

	byHandle := make(map[string]uuid.UUID, len(seedProducts))
	for i := range seedProducts {
		p, err := products.Create(ctx, &seedProducts[i])
		if err != nil {
			return fmt.Errorf("seed product %q: %w", seedProducts[i].Handle, err)
		}
		byHandle[p.Handle] = p.ID
	}

	now := time.Now()

	apparel, err := collections.Create(ctx, &models.Collection{
		Title:       "Apparel",
		Handle:      "apparel",
		Description: "All clothing.",
		Type:        models.CollectionManual,
		Published:   true,
		PublishedAt: &now,
	})
	if err != nil {
		return fmt.Errorf("seed apparel: %w", err)
	}

	_, err = collections.Create(ctx, &models.Collection{
		Title:       "Editor's Picks",
		Handle:      "editors-picks",
		Description: "Hand-curated favourites.",
		ParentID:    &apparel.ID,
		Type:        models.CollectionManual,
		Published:   true,
		PublishedAt: &now,
		ProductIDs: []uuid.UUID{
			byHandle["wool-overcoat"],
			byHandle["linen-summer-shirt"],
		},
	})
	if err != nil {
		return fmt.Errorf("seed editors picks: %w", err)
	}

	_, err = collections.Create(ctx, &models.Collection{
		Title:       "Under 50",
		Handle:      "under-50",
		Description: "Everything below fifty.",
		ParentID:    &apparel.ID,
		Type:        models.CollectionSmart,
		Published:   true,
		PublishedAt: &now,
		Rules: &models.RuleSet{
			Combinator: models.CombinatorAll,
			Rules: []models.Rule{
				{Field: models.FieldPrice, Operator: models.OpLessThan, Value: 50.0},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("seed under-50: %w", err)
	}

	_, err = collections.Create(ctx, &models.Collection{
		Title:       "Sale",
		Handle:      "sale",
		Description: "Tagged for clearance.",
		Type:        models.CollectionSmart,
		Published:   true,
		PublishedAt: &now,
		Rules: &models.RuleSet{
			Combinator: models.CombinatorAny,
			Rules: []models.Rule{
				{Field: models.FieldTag, Operator: models.OpEquals, Value: "sale"},
				{Field: models.FieldTag, Operator: models.OpEquals, Value: "clearance"},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("seed sale: %w", err)
	}

	slog.Info("database seeded with sample catalog",
		"products", len(seedProducts),
		"collections", 4,
	)
	return nil
}
