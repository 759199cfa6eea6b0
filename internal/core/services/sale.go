// internal/core/services/sale.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// DashboardCachePattern matches every cached dashboard payload. Sale and
// return writes invalidate it so the dashboard never serves stale figures
// for longer than one request.
const DashboardCachePattern = "dashboard:*"

// SaleService processes sales. A sale is written in a single transaction:
// stock rows are locked, checked and decremented, the sale document is
// inserted, and the invoice number is derived from the new row id.
type SaleService struct {
	sales     ports.SaleRepository
	inventory ports.InventoryRepository
	customers ports.CustomerRepository
	db        ports.Database
	cache     ports.CacheRepository
	logger    *slog.Logger
}

// Statically assert that *SaleService implements the SaleService interface.
var _ ports.SaleService = (*SaleService)(nil)

// NewSaleService creates a new sale service
func NewSaleService(
	sales ports.SaleRepository,
	inventory ports.InventoryRepository,
	customers ports.CustomerRepository,
	db ports.Database,
	cache ports.CacheRepository,
	logger *slog.Logger,
) *SaleService {
	return &SaleService{
		sales:     sales,
		inventory: inventory,
		customers: customers,
		db:        db,
		cache:     cache,
		logger:    logger.With(slog.String("service", "sale")),
	}
}

// CreateSale validates and persists a sale. All financial figures are derived
// here from the locked inventory rows; anything the client computed is
// discarded.
func (s *SaleService) CreateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if err := sale.Validate(); err != nil {
		return nil, err
	}

	if sale.Status == "" {
		sale.Status = domain.SaleCompleted
	}
	if sale.PaymentMethod == "" {
		sale.PaymentMethod = domain.PaymentCash
	}

	if !sale.IsWalkIn() {
		exists, err := s.customers.Exists(ctx, sale.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify customer: %w", err)
		}
		if !exists {
			return nil, domain.ErrCustomerNotFound
		}
	}

	itemIDs := make([]int64, len(sale.Items))
	for i := range sale.Items {
		itemIDs[i] = sale.Items[i].ItemID
	}

	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		locked, err := s.inventory.LockForSale(ctx, tx, itemIDs)
		if err != nil {
			return err
		}

		for i := range sale.Items {
			line := &sale.Items[i]

			item, ok := locked[line.ItemID]
			if !ok {
				return fmt.Errorf("item %d: %w", line.ItemID, domain.ErrItemNotFound)
			}
			if item.Quantity < line.Quantity {
				return fmt.Errorf("item %s has %d on hand, %d requested: %w",
					item.ItemCode, item.Quantity, line.Quantity, domain.ErrInsufficientStock)
			}

			// Denormalize the authoritative prices onto the line.
			line.ItemCode = item.ItemCode
			line.ItemName = item.ItemName
			line.CostPrice = item.CostPrice
			line.SellingPrice = item.SellingPrice
			if line.UseListPrice {
				line.ActualUnitPrice = item.SellingPrice
			}
		}

		for i := range sale.Items {
			if err := s.inventory.DecrementStock(ctx, tx, sale.Items[i].ItemID, sale.Items[i].Quantity); err != nil {
				return err
			}
		}

		sale.DeriveTotals()

		if err := s.sales.InsertPlaceholder(ctx, tx, sale); err != nil {
			return err
		}

		sale.InvoiceNo = domain.FormatInvoiceNo(sale.ID)
		if err := s.sales.SetInvoiceNo(ctx, tx, sale.ID, sale.InvoiceNo); err != nil {
			return err
		}

		if !sale.IsWalkIn() {
			if err := s.customers.RecordPurchase(ctx, tx, sale.CustomerID, sale); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateDashboards(ctx)

	s.logger.InfoContext(ctx, "sale created",
		slog.String("invoice_no", sale.InvoiceNo),
		slog.Int64("customer_id", sale.CustomerID),
		slog.Int("line_count", len(sale.Items)),
		slog.String("total", sale.Total.String()),
		slog.String("profit", sale.Profit.String()))

	return sale, nil
}

// GetByInvoiceNo retrieves a sale by its invoice number.
func (s *SaleService) GetByInvoiceNo(ctx context.Context, invoiceNo string) (*domain.Sale, error) {
	invoiceNo = strings.TrimSpace(strings.ToUpper(invoiceNo))
	if invoiceNo == "" {
		return nil, domain.NewValidationError("invoice_no", "is required")
	}

	sale, err := s.sales.FindByInvoiceNo(ctx, invoiceNo)
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// List retrieves sales with filtering and pagination
func (s *SaleService) List(ctx context.Context, params ports.SaleListParams) (*ports.SaleListResult, error) {
	result, err := s.sales.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return result, nil
}

func (s *SaleService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, DashboardCachePattern); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate dashboard cache",
			slog.String("error", err.Error()))
	}
}
