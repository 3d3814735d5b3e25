package backup

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/saral-erp/saral-erp/internal/shared"
)

// Restorer rebuilds a live entity from a backup record.
type Restorer interface {
	Restore(ctx context.Context, rec Record) error
}

// RestorerFunc adapts a function to the Restorer interface.
type RestorerFunc func(ctx context.Context, rec Record) error

func (f RestorerFunc) Restore(ctx context.Context, rec Record) error {
	return f(ctx, rec)
}

// RecordSource loads backup records by id. *Catalog is the production
// implementation.
type RecordSource interface {
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
}

// Registry maps entity-type tags to typed restore handlers. It is populated
// at startup; there is no runtime lookup by collection name.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Restorer
	catalog  RecordSource
}

// NewRegistry constructs an empty registry over the catalog.
func NewRegistry(catalog RecordSource) *Registry {
	return &Registry{
		handlers: make(map[string]Restorer),
		catalog:  catalog,
	}
}

// Register binds an entity type to its restorer. Registering the same type
// twice replaces the previous handler.
func (r *Registry) Register(entityType string, handler Restorer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[entityType] = handler
}

// Restore loads the backup and dispatches to the registered handler for its
// entity type.
func (r *Registry) Restore(ctx context.Context, backupID uuid.UUID) error {
	rec, err := r.catalog.Get(ctx, backupID)
	if err != nil {
		return fmt.Errorf("backup: load %s: %w", backupID, err)
	}

	r.mu.RLock()
	handler, ok := r.handlers[rec.EntityType]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: no restorer for entity type %q", shared.ErrInvalidInput, rec.EntityType)
	}
	return handler.Restore(ctx, *rec)
}
