package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vnmchuo/cloudsaver/internal/costs"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the cost_documents table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS cost_documents (
			id         TEXT PRIMARY KEY,
			tenant_id  TEXT NOT NULL,
			body       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create cost_documents table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, doc *costs.Document) error {
	if err := validate(doc); err != nil {
		return err
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
	}

	query := `
		INSERT INTO cost_documents (id, tenant_id, body, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (id) DO UPDATE
		SET tenant_id = EXCLUDED.tenant_id, body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.Exec(ctx, query, doc.ID, doc.TenantID, string(body)); err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
	}
	return nil
}
