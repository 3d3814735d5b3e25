package items

import (
	"context"
	"fmt"
	"strings"

	"github.com/saral-erp/saral-erp/internal/sales"
	"github.com/saral-erp/saral-erp/internal/shared"
)

// Service wraps the catalog repository and adapts it to the quotation
// engine's snapshot lookup.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}
	if filters.Limit > 200 {
		filters.Limit = 200
	}
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, item Item) (Item, error) {
	item.Code = strings.TrimSpace(item.Code)
	item.Name = strings.TrimSpace(item.Name)
	if item.Code == "" || item.Name == "" {
		return Item{}, fmt.Errorf("%w: code and name are required", shared.ErrInvalidInput)
	}
	return s.repo.Create(ctx, item)
}

func (s *Service) Update(ctx context.Context, id int64, item Item) error {
	item.Code = strings.TrimSpace(item.Code)
	item.Name = strings.TrimSpace(item.Name)
	if item.Code == "" || item.Name == "" {
		return fmt.Errorf("%w: code and name are required", shared.ErrInvalidInput)
	}
	return s.repo.Update(ctx, id, item)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}

// Snapshot returns the priced fields copied into a quotation line. Inactive
// items cannot be quoted.
func (s *Service) Snapshot(ctx context.Context, itemID int64) (*sales.ItemSnapshot, error) {
	it, err := s.repo.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !it.IsActive {
		return nil, fmt.Errorf("%w: item %s is inactive", shared.ErrInvalidInput, it.Code)
	}
	desc := it.Description
	if desc == "" {
		desc = it.Name
	}
	return &sales.ItemSnapshot{
		Description: desc,
		Unit:        it.Unit,
		UnitPrice:   it.UnitPrice,
		TaxRate:     it.TaxRate,
	}, nil
}
