// internal/core/domain/customer.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer carries lifetime purchase totals maintained by the sale and
// return flows. The walk-in sentinel (id 0) never has a row.
type Customer struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	Email          string          `json:"email,omitempty"`
	Address        string          `json:"address,omitempty"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	TotalProfit    decimal.Decimal `json:"total_profit"`
	PurchaseCount  int             `json:"purchase_count"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Validate performs domain validation on the customer record.
func (c *Customer) Validate() error {
	if c.Name == "" {
		return NewValidationError("name", "is required")
	}
	return nil
}
