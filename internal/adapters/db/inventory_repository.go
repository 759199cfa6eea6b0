// internal/adapters/db/inventory_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// inventoryRepository implements ports.InventoryRepository
type inventoryRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *Database, logger *slog.Logger) ports.InventoryRepository {
	return &inventoryRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "inventory")),
	}
}

const inventoryColumns = `
	id, item_code, item_name, category, description,
	cost_price, selling_price, quantity, reorder_level,
	created_at, updated_at`

func scanInventoryItem(row pgx.Row) (*domain.InventoryItem, error) {
	item := &domain.InventoryItem{}
	var description sql.NullString

	err := row.Scan(
		&item.ID, &item.ItemCode, &item.ItemName, &item.Category, &description,
		&item.CostPrice, &item.SellingPrice, &item.Quantity, &item.ReorderLevel,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Description = description.String
	return item, nil
}

// Save creates a new inventory item
func (r *inventoryRepository) Save(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (
			item_code, item_name, category, description,
			cost_price, selling_price, quantity, reorder_level,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	item.PrepareForStorage()

	err := r.db.QueryRow(ctx, query,
		item.ItemCode, item.ItemName, item.Category, item.Description,
		item.CostPrice, item.SellingPrice, item.Quantity, item.ReorderLevel,
		item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save inventory item: %w", MapError(err))
	}

	r.logger.DebugContext(ctx, "inventory item saved",
		slog.Int64("id", item.ID),
		slog.String("item_code", item.ItemCode))

	return nil
}

// Update updates an existing inventory item
func (r *inventoryRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		UPDATE inventory_items SET
			item_code = $2, item_name = $3, category = $4, description = $5,
			cost_price = $6, selling_price = $7, quantity = $8, reorder_level = $9,
			updated_at = $10
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	item.UpdatedAt = time.Now()

	err := r.db.QueryRow(ctx, query,
		item.ID, item.ItemCode, item.ItemName, item.Category, item.Description,
		item.CostPrice, item.SellingPrice, item.Quantity, item.ReorderLevel,
		item.UpdatedAt,
	).Scan(&item.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.ErrItemNotFound
		}
		return fmt.Errorf("failed to update inventory item: %w", MapError(err))
	}

	r.logger.DebugContext(ctx, "inventory item updated", slog.Int64("id", item.ID))

	return nil
}

// FindByID retrieves an inventory item by row id
func (r *inventoryRepository) FindByID(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE id = $1 AND deleted_at IS NULL`

	item, err := scanInventoryItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find inventory item: %w", MapError(err))
	}

	return item, nil
}

// FindByCode retrieves an inventory item by its item code
func (r *inventoryRepository) FindByCode(ctx context.Context, itemCode string) (*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE item_code = $1 AND deleted_at IS NULL`

	item, err := scanInventoryItem(r.db.QueryRow(ctx, query, itemCode))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find inventory item: %w", MapError(err))
	}

	return item, nil
}

// LockForSale loads and row-locks the inventory rows referenced by a sale.
// Rows are locked in ascending id order so concurrent sales cannot deadlock
// against each other.
func (r *inventoryRepository) LockForSale(ctx context.Context, tx pgx.Tx, itemIDs []int64) (map[int64]*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE id = ANY($1) AND deleted_at IS NULL
		ORDER BY id
		FOR UPDATE`

	rows, err := tx.Query(ctx, query, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock inventory rows: %w", MapError(err))
	}
	defer rows.Close()

	locked := make(map[int64]*domain.InventoryItem, len(itemIDs))
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked inventory row: %w", err)
		}
		locked[item.ID] = item
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked rows: %w", MapError(err))
	}

	return locked, nil
}

// DecrementStock subtracts qty from an item's on-hand quantity. The guard in
// the WHERE clause is a second line of defense behind the service's check on
// the locked row.
func (r *inventoryRepository) DecrementStock(ctx context.Context, tx pgx.Tx, itemID int64, qty int) error {
	query := `
		UPDATE inventory_items
		SET quantity = quantity - $2, updated_at = NOW()
		WHERE id = $1 AND quantity >= $2 AND deleted_at IS NULL`

	tag, err := tx.Exec(ctx, query, itemID, qty)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientStock
	}

	return nil
}

// SoftDelete marks an item as deleted
func (r *inventoryRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE inventory_items SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	now := time.Now()
	tag, err := r.db.Exec(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("failed to soft delete inventory item: %w", MapError(err))
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}

	r.logger.InfoContext(ctx, "inventory item soft deleted", slog.Int64("id", id))

	return nil
}

// Count returns the total number of inventory items
func (r *inventoryRepository) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM inventory_items WHERE deleted_at IS NULL`

	var count int64
	err := r.db.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count inventory items: %w", MapError(err))
	}

	return count, nil
}

// ListLowStock returns items at or below their reorder level
func (r *inventoryRepository) ListLowStock(ctx context.Context) ([]*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE quantity <= reorder_level AND deleted_at IS NULL
		ORDER BY quantity ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock items: %w", MapError(err))
	}

	return ScanMany(rows, func(rows pgx.Rows) (*domain.InventoryItem, error) {
		return scanInventoryItem(rows)
	})
}

// List retrieves inventory items with filtering and pagination
func (r *inventoryRepository) List(ctx context.Context, params ports.InventoryListParams) (*ports.InventoryListResult, error) {
	applyFilters := func(qb squirrel.SelectBuilder) squirrel.SelectBuilder {
		qb = qb.Where("deleted_at IS NULL")
		if params.Search != "" {
			qb = qb.Where("(item_name ILIKE ? OR item_code ILIKE ?)",
				"%"+params.Search+"%", "%"+params.Search+"%")
		}
		if params.Category != "" {
			qb = qb.Where(squirrel.Eq{"category": params.Category})
		}
		if params.LowStock {
			qb = qb.Where("quantity <= reorder_level")
		}
		return qb
	}

	qb := applyFilters(squirrel.Select(
		"id", "item_code", "item_name", "category", "description",
		"cost_price", "selling_price", "quantity", "reorder_level",
		"created_at", "updated_at",
	).From("inventory_items").
		PlaceholderFormat(squirrel.Dollar))

	// Count total items (before pagination)
	countQb := applyFilters(squirrel.Select("COUNT(*)").
		From("inventory_items").
		PlaceholderFormat(squirrel.Dollar))
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	err = r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count inventory items: %w", MapError(err))
	}

	orderBy := "created_at DESC"
	if params.SortBy != "" {
		direction := "ASC"
		if params.SortOrder == "desc" {
			direction = "DESC"
		}

		switch params.SortBy {
		case "name":
			orderBy = fmt.Sprintf("item_name %s", direction)
		case "quantity":
			orderBy = fmt.Sprintf("quantity %s", direction)
		case "price":
			orderBy = fmt.Sprintf("selling_price %s", direction)
		case "updated":
			orderBy = fmt.Sprintf("updated_at %s", direction)
		default:
			orderBy = fmt.Sprintf("created_at %s", direction)
		}
	}
	qb = qb.OrderBy(orderBy)

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	qb = qb.Limit(uint64(pageSize)).Offset(uint64((page - 1) * pageSize))

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory items: %w", MapError(err))
	}

	items, err := ScanMany(rows, func(rows pgx.Rows) (*domain.InventoryItem, error) {
		return scanInventoryItem(rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan inventory items: %w", err)
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))

	return &ports.InventoryListResult{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}
