// internal/core/domain/item.go
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ItemCategory represents item categories
type ItemCategory string

// Category constants
const (
	CategoryBeverages   ItemCategory = "beverages"
	CategoryClothing    ItemCategory = "clothing"
	CategoryElectronics ItemCategory = "electronics"
	CategoryGrocery     ItemCategory = "grocery"
	CategoryHardware    ItemCategory = "hardware"
	CategoryHousehold   ItemCategory = "household"
	CategoryStationery  ItemCategory = "stationery"
	CategoryToiletries  ItemCategory = "toiletries"
	CategoryOther       ItemCategory = "other"
)

// InventoryItem represents a single stocked product.
type InventoryItem struct {
	ID           int64           `json:"id"`
	ItemCode     string          `json:"item_code"`
	ItemName     string          `json:"item_name"`
	Category     ItemCategory    `json:"category"`
	Description  string          `json:"description,omitempty"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Quantity     int             `json:"quantity"`
	ReorderLevel int             `json:"reorder_level"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty"`
}

// Validate performs domain validation on the inventory item
func (i *InventoryItem) Validate() error {
	if i.ItemCode == "" {
		return NewValidationError("item_code", "is required")
	}
	if i.ItemName == "" {
		return NewValidationError("item_name", "is required")
	}
	if i.Quantity < 0 {
		return NewValidationError("quantity", "cannot be negative")
	}
	if i.CostPrice.IsNegative() {
		return NewValidationError("cost_price", "cannot be negative")
	}
	if i.SellingPrice.IsNegative() {
		return NewValidationError("selling_price", "cannot be negative")
	}
	if i.Category == "" {
		i.Category = CategoryOther
	}
	return nil
}

// UnitMargin returns sellingPrice - costPrice for a single unit.
func (i *InventoryItem) UnitMargin() decimal.Decimal {
	return i.SellingPrice.Sub(i.CostPrice)
}

// IsLowStock reports whether the on-hand quantity has reached the reorder level.
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.ReorderLevel
}

// PrepareForStorage prepares the item for database storage
func (i *InventoryItem) PrepareForStorage() {
	now := time.Now()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now
	if i.Category == "" {
		i.Category = CategoryOther
	}
}

func (i *InventoryItem) String() string {
	return fmt.Sprintf("%s (%s) qty=%d", i.ItemName, i.ItemCode, i.Quantity)
}
