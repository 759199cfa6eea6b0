// internal/core/domain/returns.go
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReturnPrefix prefixes every surfaced return reference.
const ReturnPrefix = "RET-"

// ReturnStatus represents the state of a return request.
type ReturnStatus string

const (
	ReturnPending  ReturnStatus = "pending"
	ReturnApproved ReturnStatus = "approved"
	ReturnRejected ReturnStatus = "rejected"
)

// ItemCondition records the state of a holding-area row. Rows are created
// as "returned" and flipped to "approved" when the return is approved;
// the remaining values are set later by manual inspection.
type ItemCondition string

const (
	ConditionReturned  ItemCondition = "returned"
	ConditionApproved  ItemCondition = "approved"
	ConditionDamaged   ItemCondition = "damaged"
	ConditionDefective ItemCondition = "defective"
	ConditionOpened    ItemCondition = "opened"
)

// ReturnedItem is a holding-area row for goods handed back pending
// inspection. Approval does not restock these into inventory.
type ReturnedItem struct {
	ID           int64           `json:"id"`
	ReturnID     int64           `json:"return_id"`
	ItemID       int64           `json:"item_id"`
	ItemCode     string          `json:"item_code"`
	ItemName     string          `json:"item_name"`
	Quantity     int             `json:"quantity"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	RefundPrice  decimal.Decimal `json:"refund_price"`
	Condition    ItemCondition   `json:"condition"`
	CreatedAt    time.Time       `json:"created_at"`
}

// LineRefund returns refundPrice * quantity.
func (r *ReturnedItem) LineRefund() decimal.Decimal {
	return r.RefundPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// LineCost returns costPrice * quantity.
func (r *ReturnedItem) LineCost() decimal.Decimal {
	return r.CostPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// Return is a single-shot return request against one invoice.
// An invoice can carry at most one return, regardless of outcome.
type Return struct {
	ID              int64           `json:"id"`
	SaleID          int64           `json:"sale_id"`
	InvoiceNo       string          `json:"invoice_no"`
	CustomerID      int64           `json:"customer_id"`
	CustomerName    string          `json:"customer_name,omitempty"`
	Status          ReturnStatus    `json:"status"`
	Items           []ReturnedItem  `json:"items"`
	RefundTotal     decimal.Decimal `json:"refund_total"`
	RefundCost      decimal.Decimal `json:"refund_cost"`
	RefundProfit    decimal.Decimal `json:"refund_profit"`
	Reason          string          `json:"reason,omitempty"`
	RequestedAt     time.Time       `json:"requested_at"`
	ApprovedBy      string          `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedBy      string          `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
}

// ReturnResolution carries the terminal status and actor stamp for a
// return transition.
type ReturnResolution struct {
	Status          ReturnStatus
	Actor           string
	At              time.Time
	RejectionReason string
}

// Reference formats the surfaced return reference for a return row id.
func (r *Return) Reference() string {
	return FormatReturnRef(r.ID)
}

// DeriveTotals recomputes the refund figures from the returned items.
func (r *Return) DeriveTotals() {
	total := decimal.Zero
	cost := decimal.Zero
	for i := range r.Items {
		total = total.Add(r.Items[i].LineRefund())
		cost = cost.Add(r.Items[i].LineCost())
	}
	r.RefundTotal = total
	r.RefundCost = cost
	r.RefundProfit = total.Sub(cost)
}

// IsPending reports whether the return is still awaiting resolution.
func (r *Return) IsPending() bool {
	return r.Status == ReturnPending
}

// FormatReturnRef derives the surfaced reference from a return row id.
func FormatReturnRef(id int64) string {
	return fmt.Sprintf("%s%05d", ReturnPrefix, id)
}
