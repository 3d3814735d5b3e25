// Package backup stores full copies of entities before destructive operations
// and restores them through an explicit per-type registry.
package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saral-erp/saral-erp/internal/shared"
)

// Record is one backed-up entity document.
type Record struct {
	ID         uuid.UUID `json:"id" db:"id"`
	EntityType string    `json:"entity_type" db:"entity_type"`
	EntityID   int64     `json:"entity_id" db:"entity_id"`
	Document   []byte    `json:"document" db:"document"`
	DeletedBy  int64     `json:"deleted_by" db:"deleted_by"`
	DeletedAt  time.Time `json:"deleted_at" db:"deleted_at"`
}

// Write inserts a record using the caller's open transaction so the backup
// commits or aborts together with the delete it protects.
func Write(ctx context.Context, tx pgx.Tx, rec Record) (uuid.UUID, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.DeletedAt.IsZero() {
		rec.DeletedAt = time.Now().UTC()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO entity_backups (id, entity_type, entity_id, document, deleted_by, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.EntityType, rec.EntityID, rec.Document, rec.DeletedBy, rec.DeletedAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("backup: write %s/%d: %w", rec.EntityType, rec.EntityID, err)
	}
	return rec.ID, nil
}

// Catalog reads and prunes stored backups.
type Catalog struct {
	pool *pgxpool.Pool
}

// NewCatalog constructs a catalog.
func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

// Get loads a single backup record.
func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	var rec Record
	err := c.pool.QueryRow(ctx, `
		SELECT id, entity_type, entity_id, document, deleted_by, deleted_at
		FROM entity_backups WHERE id = $1
	`, id).Scan(&rec.ID, &rec.EntityType, &rec.EntityID, &rec.Document, &rec.DeletedBy, &rec.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// List returns backups for an entity type, newest first.
func (c *Catalog) List(ctx context.Context, entityType string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.pool.Query(ctx, `
		SELECT id, entity_type, entity_id, document, deleted_by, deleted_at
		FROM entity_backups
		WHERE entity_type = $1
		ORDER BY deleted_at DESC
		LIMIT $2 OFFSET $3
	`, entityType, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EntityType, &rec.EntityID, &rec.Document, &rec.DeletedBy, &rec.DeletedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Purge removes backups older than the cutoff and reports how many were
// deleted. Used by the retention job.
func (c *Catalog) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM entity_backups WHERE deleted_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
