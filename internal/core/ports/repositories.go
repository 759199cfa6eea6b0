// internal/core/ports/repositories.go
package ports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ammerola/shopledger-be/internal/core/domain"
)

// InventoryRepository defines the persistence port for inventory.
// This interface is implemented by the database adapter.
type InventoryRepository interface {
	Save(ctx context.Context, item *domain.InventoryItem) error
	Update(ctx context.Context, item *domain.InventoryItem) error
	FindByID(ctx context.Context, id int64) (*domain.InventoryItem, error)
	FindByCode(ctx context.Context, itemCode string) (*domain.InventoryItem, error)
	List(ctx context.Context, params InventoryListParams) (*InventoryListResult, error)
	ListLowStock(ctx context.Context) ([]*domain.InventoryItem, error)
	SoftDelete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)

	// LockForSale loads the rows for itemIDs with SELECT ... FOR UPDATE
	// inside tx, keyed by item id. Missing ids are absent from the map.
	LockForSale(ctx context.Context, tx pgx.Tx, itemIDs []int64) (map[int64]*domain.InventoryItem, error)

	// DecrementStock subtracts qty from the item's on-hand quantity inside tx.
	DecrementStock(ctx context.Context, tx pgx.Tx, itemID int64, qty int) error
}

// SaleRepository defines the persistence port for sales.
type SaleRepository interface {
	// InsertPlaceholder writes the sale with a placeholder invoice number
	// inside tx and sets sale.ID from the new row.
	InsertPlaceholder(ctx context.Context, tx pgx.Tx, sale *domain.Sale) error

	// SetInvoiceNo stamps the final invoice number onto the row inside tx.
	SetInvoiceNo(ctx context.Context, tx pgx.Tx, saleID int64, invoiceNo string) error

	FindByID(ctx context.Context, id int64) (*domain.Sale, error)
	FindByInvoiceNo(ctx context.Context, invoiceNo string) (*domain.Sale, error)
	List(ctx context.Context, params SaleListParams) (*SaleListResult, error)

	// ApplyReturn subtracts the refund figures from the sale row inside tx.
	ApplyReturn(ctx context.Context, tx pgx.Tx, saleID int64, ret *domain.Return) error
}

// CustomerRepository defines the persistence port for customers.
type CustomerRepository interface {
	Save(ctx context.Context, customer *domain.Customer) error
	FindByID(ctx context.Context, id int64) (*domain.Customer, error)
	List(ctx context.Context, page, pageSize int) ([]*domain.Customer, int64, error)

	// Exists reports whether a customer row exists, without loading it.
	Exists(ctx context.Context, id int64) (bool, error)

	// RecordPurchase accumulates a completed sale onto the customer's
	// lifetime totals inside tx.
	RecordPurchase(ctx context.Context, tx pgx.Tx, customerID int64, sale *domain.Sale) error

	// ApplyReturn reverses an approved return from the customer's lifetime
	// totals inside tx.
	ApplyReturn(ctx context.Context, tx pgx.Tx, customerID int64, ret *domain.Return) error
}

// ReturnRepository defines the persistence port for return requests.
type ReturnRepository interface {
	// Create inserts the return and its returned-item rows inside tx and
	// sets ret.ID.
	Create(ctx context.Context, tx pgx.Tx, ret *domain.Return) error

	FindByID(ctx context.Context, id int64) (*domain.Return, error)

	// FindByIDForUpdate locks the return row inside tx.
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Return, error)

	// ExistsForSale reports whether any return, in any status, references the sale.
	ExistsForSale(ctx context.Context, saleID int64) (bool, error)

	// Resolve stamps the terminal status and its actor fields inside tx.
	Resolve(ctx context.Context, tx pgx.Tx, id int64, res domain.ReturnResolution) error

	// SetItemsCondition flips every holding-area row for the return inside tx.
	SetItemsCondition(ctx context.Context, tx pgx.Tx, returnID int64, condition domain.ItemCondition) error

	// DeleteItems drops the holding-area rows for a rejected return inside tx.
	DeleteItems(ctx context.Context, tx pgx.Tx, returnID int64) error

	List(ctx context.Context, status domain.ReturnStatus, page, pageSize int) ([]*domain.Return, int64, error)
}

// AnalyticsRepository defines the aggregation port for dashboard figures.
// All sums run in SQL; rows are never aggregated in Go. A nil sellerID
// aggregates across every seller.
type AnalyticsRepository interface {
	ProfitSummary(ctx context.Context, from, to time.Time, sellerID *int64) (*ProfitSummary, error)
	TopItemsByProfit(ctx context.Context, from, to time.Time, sellerID *int64, limit int) ([]ItemProfit, error)
	SalesForExport(ctx context.Context, from, to time.Time) ([]*domain.Sale, error)
}

// InventoryListParams holds filters for listing inventory.
type InventoryListParams struct {
	Search    string
	Category  string
	LowStock  bool
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// InventoryListResult holds a page of inventory items.
type InventoryListResult struct {
	Items      []*domain.InventoryItem `json:"items"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalCount int64                   `json:"total_count"`
	TotalPages int                     `json:"total_pages"`
}

// SaleListParams holds filters for listing sales.
type SaleListParams struct {
	CustomerID *int64
	From       *time.Time
	To         *time.Time
	SortBy     string
	SortOrder  string
	Page       int
	PageSize   int
}

// SaleListResult holds a page of sales.
type SaleListResult struct {
	Sales      []*domain.Sale `json:"sales"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalCount int64          `json:"total_count"`
	TotalPages int            `json:"total_pages"`
}
