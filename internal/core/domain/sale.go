// internal/core/domain/sale.go
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// WalkInCustomerID is the sentinel customer id for anonymous counter sales.
// No customer row is read or written when a sale carries it.
const WalkInCustomerID int64 = 0

// InvoicePrefix prefixes every sale invoice number.
const InvoicePrefix = "TRN-"

// PaymentCash is the default payment method when the client sends none.
const PaymentCash = "cash"

// SaleStatus represents the lifecycle state of a sale document.
type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
	// SaleReturned is set only by return approval, never by the client.
	SaleReturned SaleStatus = "returned"
)

// SaleLineItem is a single line of a sale. Lines are persisted as a JSON
// array column on the sale row, so every figure a report might need is
// denormalized onto the line at sale time.
type SaleLineItem struct {
	ItemID          int64           `json:"item_id"`
	ItemCode        string          `json:"item_code"`
	ItemName        string          `json:"item_name"`
	Quantity        int             `json:"quantity"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	ActualUnitPrice decimal.Decimal `json:"actual_unit_price"`
	LineTotal       decimal.Decimal `json:"line_total"`
	LineCost        decimal.Decimal `json:"line_cost"`
	LineDiscount    decimal.Decimal `json:"line_discount"`

	// UseListPrice marks a line whose price the client did not supply.
	// The processor charges the item's catalog selling price instead of
	// treating the zero value as a free sale.
	UseListPrice bool `json:"-"`
}

// Derive computes the line's total, cost and discount from its unit figures.
// The discount is relative to the system selling price and is negative when
// the item sold above list.
func (l *SaleLineItem) Derive() {
	qty := decimal.NewFromInt(int64(l.Quantity))
	l.LineTotal = l.ActualUnitPrice.Mul(qty)
	l.LineCost = l.CostPrice.Mul(qty)
	l.LineDiscount = l.SellingPrice.Sub(l.ActualUnitPrice).Mul(qty)
}

// Sale is an immutable financial document once written. Return approval is
// the only flow allowed to adjust its figures, and only by reversal.
type Sale struct {
	ID            int64           `json:"id"`
	InvoiceNo     string          `json:"invoice_no"`
	CustomerID    int64           `json:"customer_id"`
	CustomerName  string          `json:"customer_name,omitempty"`
	SellerID      int64           `json:"seller_id"`
	SellerName    string          `json:"seller_name,omitempty"`
	Items         []SaleLineItem  `json:"items"`
	Total         decimal.Decimal `json:"total"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Discount      decimal.Decimal `json:"discount"`
	Profit        decimal.Decimal `json:"profit"`
	PaymentMethod string          `json:"payment_method"`
	Status        SaleStatus      `json:"status"`
	SoldAt        time.Time       `json:"sold_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DeriveTotals recomputes every financial figure from the line items.
// Client-supplied totals are never trusted.
func (s *Sale) DeriveTotals() {
	total := decimal.Zero
	cost := decimal.Zero
	discount := decimal.Zero
	for i := range s.Items {
		s.Items[i].Derive()
		total = total.Add(s.Items[i].LineTotal)
		cost = cost.Add(s.Items[i].LineCost)
		discount = discount.Add(s.Items[i].LineDiscount)
	}
	s.Total = total
	s.TotalCost = cost
	s.Discount = discount
	s.Profit = total.Sub(cost)
}

// Validate performs domain validation on the sale request.
func (s *Sale) Validate() error {
	if len(s.Items) == 0 {
		return NewValidationError("items", "at least one line item is required")
	}
	if s.CustomerID < 0 {
		return NewValidationError("customer_id", "cannot be negative")
	}
	if s.SellerID < 0 {
		return NewValidationError("seller_id", "cannot be negative")
	}
	switch s.Status {
	case "", SaleCompleted, SaleCancelled:
	case SaleReturned:
		return NewValidationError("status", "cannot be set directly, only return approval marks a sale returned")
	default:
		return NewValidationError("status", "must be completed or cancelled")
	}
	seen := make(map[int64]struct{}, len(s.Items))
	for _, item := range s.Items {
		if item.ItemID <= 0 {
			return NewValidationError("items.item_id", "must be positive")
		}
		if item.Quantity <= 0 {
			return NewValidationError("items.quantity", "must be positive")
		}
		if item.ActualUnitPrice.IsNegative() {
			return NewValidationError("items.actual_unit_price", "cannot be negative")
		}
		if _, dup := seen[item.ItemID]; dup {
			return NewValidationError("items.item_id", fmt.Sprintf("item %d appears more than once", item.ItemID))
		}
		seen[item.ItemID] = struct{}{}
	}
	return nil
}

// IsWalkIn reports whether the sale belongs to the anonymous counter customer.
func (s *Sale) IsWalkIn() bool {
	return s.CustomerID == WalkInCustomerID
}

// FindLine returns the line for itemID, or nil when the sale has no such line.
func (s *Sale) FindLine(itemID int64) *SaleLineItem {
	for i := range s.Items {
		if s.Items[i].ItemID == itemID {
			return &s.Items[i]
		}
	}
	return nil
}

// FormatInvoiceNo derives the invoice number from a sale row id.
func FormatInvoiceNo(id int64) string {
	return fmt.Sprintf("%s%05d", InvoicePrefix, id)
}
