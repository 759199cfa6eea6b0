// internal/core/ports/services.go
package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/shopledger-be/internal/core/domain"
)

// SaleService defines the application service port for sale processing.
type SaleService interface {
	CreateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error)
	GetByInvoiceNo(ctx context.Context, invoiceNo string) (*domain.Sale, error)
	List(ctx context.Context, params SaleListParams) (*SaleListResult, error)
}

// ReturnService defines the application service port for the return workflow.
type ReturnService interface {
	RequestReturn(ctx context.Context, req ReturnRequest) (*domain.Return, error)
	Approve(ctx context.Context, returnID int64, approvedBy string) (*domain.Return, error)
	Reject(ctx context.Context, returnID int64, rejectedBy, reason string) (*domain.Return, error)
	GetByID(ctx context.Context, returnID int64) (*domain.Return, error)
	List(ctx context.Context, status domain.ReturnStatus, page, pageSize int) ([]*domain.Return, int64, error)
}

// InventoryService defines the application service port for inventory.
type InventoryService interface {
	SaveItem(ctx context.Context, item *domain.InventoryItem) error
	UpdateItem(ctx context.Context, id int64, item *domain.InventoryItem) error
	GetByID(ctx context.Context, id int64) (*domain.InventoryItem, error)
	GetByCode(ctx context.Context, itemCode string) (*domain.InventoryItem, error)
	DeleteItem(ctx context.Context, id int64) error
	List(ctx context.Context, params InventoryListParams) (*InventoryListResult, error)
	ListLowStock(ctx context.Context) ([]*domain.InventoryItem, error)
}

// AnalyticsService defines the application service port for dashboard figures.
// A nil sellerID aggregates across every seller.
type AnalyticsService interface {
	ProfitDashboard(ctx context.Context, from, to time.Time, sellerID *int64) (*ProfitDashboard, error)
}

// ExportService renders sales over a window as a spreadsheet.
type ExportService interface {
	SalesReport(ctx context.Context, from, to time.Time) ([]byte, string, error)
}

// ReturnRequest carries a customer's return submission. Amount is the
// refund the counter agreed to; when absent the refund is derived from
// the returned quantities at the prices actually paid.
type ReturnRequest struct {
	InvoiceNo string           `json:"invoice_no"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Items     []ReturnLineItem `json:"items"`
}

// ReturnLineItem identifies one sold line being handed back.
type ReturnLineItem struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

// ProfitSummary holds the SQL-side sums over a reporting window.
type ProfitSummary struct {
	Total     decimal.Decimal `json:"total"`
	TotalCost decimal.Decimal `json:"total_cost"`
	Profit    decimal.Decimal `json:"profit"`
	Discount  decimal.Decimal `json:"discount"`
	SaleCount int64           `json:"sale_count"`
}

// ItemProfit is one row of the top-items ranking.
type ItemProfit struct {
	ItemID       int64           `json:"item_id"`
	ItemName     string          `json:"item_name"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
	Profit       decimal.Decimal `json:"profit"`
}

// ProfitDashboard is the assembled dashboard payload.
type ProfitDashboard struct {
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	SellerID          *int64          `json:"seller_id,omitempty"`
	Total             decimal.Decimal `json:"total"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	Profit            decimal.Decimal `json:"profit"`
	Discount          decimal.Decimal `json:"discount"`
	SaleCount         int64           `json:"sale_count"`
	ProfitMargin      decimal.Decimal `json:"profit_margin"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	TopItems          []ItemProfit    `json:"top_items"`
}
