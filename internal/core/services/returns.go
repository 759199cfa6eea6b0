// internal/core/services/returns.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// ReturnService drives the return workflow: request against an invoice,
// then a single approve or reject resolution.
//
// Approval reverses the sale's and customer's financials but never restocks
// inventory. Returned goods sit in the holding area until someone inspects
// them and re-enters sellable units through an inventory adjustment.
type ReturnService struct {
	returns   ports.ReturnRepository
	sales     ports.SaleRepository
	customers ports.CustomerRepository
	db        ports.Database
	cache     ports.CacheRepository
	logger    *slog.Logger
}

// Statically assert that *ReturnService implements the ReturnService interface.
var _ ports.ReturnService = (*ReturnService)(nil)

// NewReturnService creates a new return service
func NewReturnService(
	returns ports.ReturnRepository,
	sales ports.SaleRepository,
	customers ports.CustomerRepository,
	db ports.Database,
	cache ports.CacheRepository,
	logger *slog.Logger,
) *ReturnService {
	return &ReturnService{
		returns:   returns,
		sales:     sales,
		customers: customers,
		db:        db,
		cache:     cache,
		logger:    logger.With(slog.String("service", "return")),
	}
}

// RequestReturn validates a return submission against its sale and records it
// in pending state, along with the holding-area rows for the goods.
func (s *ReturnService) RequestReturn(ctx context.Context, req ports.ReturnRequest) (*domain.Return, error) {
	if req.InvoiceNo == "" {
		return nil, domain.NewValidationError("invoice_no", "is required")
	}
	if len(req.Items) == 0 {
		return nil, domain.NewValidationError("items", "at least one item is required")
	}

	sale, err := s.sales.FindByInvoiceNo(ctx, req.InvoiceNo)
	if err != nil {
		return nil, err
	}

	exists, err := s.returns.ExistsForSale(ctx, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing return: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateReturn
	}

	ret := &domain.Return{
		SaleID:       sale.ID,
		InvoiceNo:    sale.InvoiceNo,
		CustomerID:   sale.CustomerID,
		CustomerName: sale.CustomerName,
		Status:       domain.ReturnPending,
		Reason:       req.Reason,
		RequestedAt:  time.Now(),
	}

	for _, reqItem := range req.Items {
		if reqItem.Quantity <= 0 {
			return nil, domain.NewValidationError("items.quantity", "must be positive")
		}

		line := sale.FindLine(reqItem.ItemID)
		if line == nil {
			return nil, domain.NewValidationError("items.item_id",
				fmt.Sprintf("item %d was not part of invoice %s", reqItem.ItemID, sale.InvoiceNo))
		}
		if reqItem.Quantity > line.Quantity {
			return nil, domain.NewValidationError("items.quantity",
				fmt.Sprintf("cannot return %d of item %d, only %d were sold",
					reqItem.Quantity, reqItem.ItemID, line.Quantity))
		}

		// Refund at the price actually paid, not the list price.
		ret.Items = append(ret.Items, domain.ReturnedItem{
			ItemID:       line.ItemID,
			ItemCode:     line.ItemCode,
			ItemName:     line.ItemName,
			Quantity:     reqItem.Quantity,
			CostPrice:    line.CostPrice,
			SellingPrice: line.SellingPrice,
			RefundPrice:  line.ActualUnitPrice,
		})
	}

	ret.DeriveTotals()

	// The counter may have agreed a different refund figure (partial refund,
	// goodwill top-down). Accept it when it stays within the derived maximum;
	// cost stays derived, so the profit adjustment absorbs the difference and
	// the sale's total/cost/profit identity survives the reversal.
	if req.Amount != nil {
		if req.Amount.Sign() <= 0 {
			return nil, domain.NewValidationError("amount", "must be positive")
		}
		if req.Amount.GreaterThan(ret.RefundTotal) {
			return nil, domain.NewValidationError("amount",
				fmt.Sprintf("cannot exceed the derived refund total of %s", ret.RefundTotal))
		}
		ret.RefundTotal = *req.Amount
		ret.RefundProfit = ret.RefundTotal.Sub(ret.RefundCost)
	}

	err = s.db.Transaction(ctx, func(tx pgx.Tx) error {
		return s.returns.Create(ctx, tx, ret)
	})
	if err != nil {
		// A concurrent request for the same invoice loses the race on the
		// unique index rather than slipping past the existence check.
		if errors.Is(err, domain.ErrConstraintViolation) {
			return nil, domain.ErrDuplicateReturn
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "return requested",
		slog.String("reference", ret.Reference()),
		slog.String("invoice_no", ret.InvoiceNo),
		slog.String("refund_total", ret.RefundTotal.String()))

	return ret, nil
}

// Approve resolves a pending return by reversing the sale's and customer's
// financials, marking the sale returned and flipping the holding-area rows to
// approved condition. Approving an already-approved return is a no-op success,
// so a retried request can never reverse the figures twice.
func (s *ReturnService) Approve(ctx context.Context, returnID int64, approvedBy string) (*domain.Return, error) {
	var result *domain.Return

	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		ret, err := s.returns.FindByIDForUpdate(ctx, tx, returnID)
		if err != nil {
			return err
		}

		if ret.Status == domain.ReturnApproved {
			result = ret
			return nil
		}
		if ret.Status == domain.ReturnRejected {
			return domain.NewValidationError("status", "return has already been rejected")
		}

		if err := s.sales.ApplyReturn(ctx, tx, ret.SaleID, ret); err != nil {
			return err
		}
		if ret.CustomerID != domain.WalkInCustomerID {
			if err := s.customers.ApplyReturn(ctx, tx, ret.CustomerID, ret); err != nil {
				return err
			}
		}

		if err := s.returns.SetItemsCondition(ctx, tx, ret.ID, domain.ConditionApproved); err != nil {
			return err
		}

		now := time.Now()
		res := domain.ReturnResolution{
			Status: domain.ReturnApproved,
			Actor:  approvedBy,
			At:     now,
		}
		if err := s.returns.Resolve(ctx, tx, ret.ID, res); err != nil {
			return err
		}

		ret.Status = domain.ReturnApproved
		ret.ApprovedBy = approvedBy
		ret.ApprovedAt = &now
		for i := range ret.Items {
			ret.Items[i].Condition = domain.ConditionApproved
		}
		result = ret
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateDashboards(ctx)

	s.logger.InfoContext(ctx, "return approved",
		slog.String("reference", result.Reference()),
		slog.String("invoice_no", result.InvoiceNo))

	return result, nil
}

// Reject resolves a pending return by discarding the holding-area rows.
// The sale's and customer's financials are untouched.
func (s *ReturnService) Reject(ctx context.Context, returnID int64, rejectedBy, reason string) (*domain.Return, error) {
	var result *domain.Return

	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		ret, err := s.returns.FindByIDForUpdate(ctx, tx, returnID)
		if err != nil {
			return err
		}

		if !ret.IsPending() {
			return domain.NewValidationError("status",
				fmt.Sprintf("cannot reject a return in %s state", ret.Status))
		}

		if err := s.returns.DeleteItems(ctx, tx, ret.ID); err != nil {
			return err
		}

		now := time.Now()
		res := domain.ReturnResolution{
			Status:          domain.ReturnRejected,
			Actor:           rejectedBy,
			At:              now,
			RejectionReason: reason,
		}
		if err := s.returns.Resolve(ctx, tx, ret.ID, res); err != nil {
			return err
		}

		ret.Status = domain.ReturnRejected
		ret.RejectedBy = rejectedBy
		ret.RejectedAt = &now
		ret.RejectionReason = reason
		ret.Items = nil
		result = ret
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "return rejected",
		slog.String("reference", result.Reference()),
		slog.String("invoice_no", result.InvoiceNo))

	return result, nil
}

// GetByID retrieves a return with its holding-area items.
func (s *ReturnService) GetByID(ctx context.Context, returnID int64) (*domain.Return, error) {
	return s.returns.FindByID(ctx, returnID)
}

// List retrieves returns filtered by status.
func (s *ReturnService) List(ctx context.Context, status domain.ReturnStatus, page, pageSize int) ([]*domain.Return, int64, error) {
	if status != "" && status != domain.ReturnPending && status != domain.ReturnApproved && status != domain.ReturnRejected {
		return nil, 0, domain.NewValidationError("status", "must be pending, approved or rejected")
	}
	return s.returns.List(ctx, status, page, pageSize)
}

func (s *ReturnService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, DashboardCachePattern); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate dashboard cache",
			slog.String("error", err.Error()))
	}
}
