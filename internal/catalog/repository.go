package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Repository loads card definitions from Postgres. The full definition is
// stored as one JSONB document per card; the table exists so operators can
// push balance changes without rebuilding the server.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewRepository creates a repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool, logger *zap.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

// EnsureSchema creates the card table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS battle_cards (
			id         TEXT PRIMARY KEY,
			class      TEXT NOT NULL,
			card_type  TEXT NOT NULL,
			definition JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create battle_cards table: %w", err)
	}
	return nil
}

// UpsertDefinition writes one card definition.
func (r *Repository) UpsertDefinition(ctx context.Context, def *Definition) error {
	payload, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to encode card %q: %w", def.ID, err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO battle_cards (id, class, card_type, definition, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE
		SET class = EXCLUDED.class,
		    card_type = EXCLUDED.card_type,
		    definition = EXCLUDED.definition,
		    updated_at = now()
	`, def.ID, string(def.Class), string(def.Type), payload)
	if err != nil {
		return fmt.Errorf("failed to upsert card %q: %w", def.ID, err)
	}
	return nil
}

// LoadCatalog reads every stored definition and builds a validated catalog.
func (r *Repository) LoadCatalog(ctx context.Context) (*Catalog, error) {
	rows, err := r.pool.Query(ctx, `SELECT definition FROM battle_cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query battle_cards: %w", err)
	}
	defer rows.Close()

	var defs []*Definition
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		var def Definition
		if err := json.Unmarshal(payload, &def); err != nil {
			return nil, fmt.Errorf("failed to decode card definition: %w", err)
		}
		defs = append(defs, &def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate battle_cards: %w", err)
	}

	if r.logger != nil {
		r.logger.Info("loaded card catalog from database", zap.Int("cards", len(defs)))
	}
	return New(defs)
}
