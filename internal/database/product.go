package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/maltedev/motor-catalog-collector/internal/models"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS catalog_products (
		product_id   TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		specs        JSONB NOT NULL,
		bom          JSONB NOT NULL,
		assets       JSONB NOT NULL,
		run_id       UUID NOT NULL,
		collected_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_catalog_products_run_id ON catalog_products (run_id)`,
}

// EnsureSchema creates the catalog table if it does not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	return db.WithTx(ctx, func(tx pgx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}

// UpsertProduct stores the normalized record of one product. A product seen
// again in a later run replaces the earlier row.
func (db *DB) UpsertProduct(ctx context.Context, runID string, p *models.NormalizedProduct) (time.Time, error) {
	specs, err := json.Marshal(p.Specs)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to marshal specs: %w", err)
	}

	bom := p.BOM
	if bom == nil {
		bom = []models.BOMItem{}
	}
	bomJSON, err := json.Marshal(bom)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to marshal bom: %w", err)
	}

	assets, err := json.Marshal(p.Assets)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to marshal assets: %w", err)
	}

	query := `
		INSERT INTO catalog_products (product_id, name, description, specs, bom, assets, run_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (product_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			specs = EXCLUDED.specs,
			bom = EXCLUDED.bom,
			assets = EXCLUDED.assets,
			run_id = EXCLUDED.run_id,
			collected_at = CURRENT_TIMESTAMP
		RETURNING collected_at`

	var collectedAt time.Time
	err = db.pool.QueryRow(ctx, query,
		p.ProductID, p.Name, p.Description, specs, bomJSON, assets, runID,
	).Scan(&collectedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to upsert product %s: %w", p.ProductID, err)
	}

	return collectedAt, nil
}

// GetProduct returns the stored record of a product, or nil when there is none.
func (db *DB) GetProduct(ctx context.Context, productID string) (*models.NormalizedProduct, error) {
	query := `
		SELECT product_id, name, description, specs, bom, assets
		FROM catalog_products
		WHERE product_id = $1`

	var (
		p                  models.NormalizedProduct
		specs, bom, assets []byte
	)
	err := db.pool.QueryRow(ctx, query, productID).Scan(
		&p.ProductID, &p.Name, &p.Description, &specs, &bom, &assets,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if err := json.Unmarshal(specs, &p.Specs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal specs: %w", err)
	}
	if err := json.Unmarshal(bom, &p.BOM); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bom: %w", err)
	}
	if err := json.Unmarshal(assets, &p.Assets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assets: %w", err)
	}

	return &p, nil
}
