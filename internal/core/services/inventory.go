// internal/core/services/inventory.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// InventoryService handles inventory business logic
type InventoryService struct {
	repo   ports.InventoryRepository
	logger *slog.Logger
}

// Statically assert that *InventoryService implements the InventoryService interface.
var _ ports.InventoryService = (*InventoryService)(nil)

// NewInventoryService creates a new inventory service
func NewInventoryService(repo ports.InventoryRepository, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		repo:   repo,
		logger: logger.With(slog.String("service", "inventory")),
	}
}

// SaveItem saves a single inventory item
func (s *InventoryService) SaveItem(ctx context.Context, item *domain.InventoryItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	s.logger.InfoContext(ctx, "saved inventory item",
		slog.Int64("id", item.ID),
		slog.String("item_code", item.ItemCode),
		slog.String("item_name", item.ItemName))

	return nil
}

// UpdateItem updates an existing inventory item
func (s *InventoryService) UpdateItem(ctx context.Context, id int64, item *domain.InventoryItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	item.ID = id
	if err := s.repo.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	s.logger.InfoContext(ctx, "updated inventory item", slog.Int64("id", id))

	return nil
}

// GetByID retrieves an inventory item by id
func (s *InventoryService) GetByID(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetByCode retrieves an inventory item by its item code
func (s *InventoryService) GetByCode(ctx context.Context, itemCode string) (*domain.InventoryItem, error) {
	item, err := s.repo.FindByCode(ctx, itemCode)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem soft deletes an inventory item. History must survive, so there
// is no hard delete path.
func (s *InventoryService) DeleteItem(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "deleted inventory item", slog.Int64("id", id))

	return nil
}

// List retrieves inventory items with filtering and pagination
func (s *InventoryService) List(ctx context.Context, params ports.InventoryListParams) (*ports.InventoryListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 500 {
		params.PageSize = 50
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	return result, nil
}

// ListLowStock returns items at or below their reorder level
func (s *InventoryService) ListLowStock(ctx context.Context) ([]*domain.InventoryItem, error) {
	items, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock items: %w", err)
	}
	return items, nil
}
