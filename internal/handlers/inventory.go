// internal/handlers/inventory.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// InventoryHandler handles inventory-related HTTP requests
type InventoryHandler struct {
	service ports.InventoryService
	logger  *slog.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service ports.InventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "inventory")),
	}
}

// GetItem handles GET /api/v1/inventory/{id}
func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid inventory ID format")
		return
	}

	item, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get inventory item",
			slog.Int64("item_id", id),
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to retrieve inventory item")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, item)
}

// ListItems handles GET /api/v1/inventory
func (h *InventoryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := h.parseListParams(r)

	result, err := h.service.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list inventory items",
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to list inventory items")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, result)
}

// ListLowStock handles GET /api/v1/inventory/low-stock
func (h *InventoryHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.service.ListLowStock(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list low stock items",
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to list low stock items")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// CreateItem handles POST /api/v1/inventory
func (h *InventoryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	item := req.ToDomain()

	if err := h.service.SaveItem(ctx, item); err != nil {
		h.logger.ErrorContext(ctx, "failed to create inventory item",
			slog.String("item_code", item.ItemCode),
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to create inventory item")
		return
	}

	h.logger.InfoContext(ctx, "inventory item created",
		slog.Int64("item_id", item.ID),
		slog.String("item_code", item.ItemCode))

	respondJSON(h.logger, w, http.StatusCreated, item)
}

// UpdateItem handles PUT /api/v1/inventory/{id}
func (h *InventoryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid inventory ID format")
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	item := req.ToDomain()
	item.ID = id

	if err := h.service.UpdateItem(ctx, id, item); err != nil {
		h.logger.ErrorContext(ctx, "failed to update inventory item",
			slog.Int64("item_id", id),
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to update inventory item")
		return
	}

	h.logger.InfoContext(ctx, "inventory item updated",
		slog.Int64("item_id", id))

	respondJSON(h.logger, w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/v1/inventory/{id}
func (h *InventoryHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid inventory ID format")
		return
	}

	if err := h.service.DeleteItem(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete inventory item",
			slog.Int64("item_id", id),
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to delete inventory item")
		return
	}

	h.logger.InfoContext(ctx, "inventory item deleted",
		slog.Int64("item_id", id))

	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"message": "Inventory item deleted successfully",
		"item_id": id,
	})
}

// parseListParams parses query parameters for listing inventory
func (h *InventoryHandler) parseListParams(r *http.Request) ports.InventoryListParams {
	params := ports.InventoryListParams{
		Page:      1,
		PageSize:  50,
		SortBy:    "created_at",
		SortOrder: "desc",
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			if l > 100 {
				params.PageSize = 100
			} else {
				params.PageSize = l
			}
		}
	}

	params.Search = r.URL.Query().Get("search")
	params.Category = r.URL.Query().Get("category")

	if lowStock := r.URL.Query().Get("low_stock"); lowStock != "" {
		if val, err := strconv.ParseBool(lowStock); err == nil {
			params.LowStock = val
		}
	}

	if sortBy := r.URL.Query().Get("sort"); sortBy != "" {
		params.SortBy = sortBy
	}

	if order := r.URL.Query().Get("order"); order == "asc" || order == "desc" {
		params.SortOrder = order
	}

	return params
}

// Request/Response DTOs

// CreateItemRequest represents the request body for creating an inventory item
type CreateItemRequest struct {
	ItemCode     string          `json:"item_code"`
	ItemName     string          `json:"item_name"`
	Category     string          `json:"category,omitempty"`
	Description  string          `json:"description,omitempty"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Quantity     int             `json:"quantity"`
	ReorderLevel int             `json:"reorder_level,omitempty"`
}

// Validate validates the create item request
func (r *CreateItemRequest) Validate() error {
	if r.ItemCode == "" {
		return fmt.Errorf("item_code is required")
	}
	if r.ItemName == "" {
		return fmt.Errorf("item_name is required")
	}
	if r.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}
	if r.CostPrice.IsNegative() {
		return fmt.Errorf("cost_price cannot be negative")
	}
	if r.SellingPrice.IsNegative() {
		return fmt.Errorf("selling_price cannot be negative")
	}
	return nil
}

// ToDomain converts the request to a domain model
func (r *CreateItemRequest) ToDomain() *domain.InventoryItem {
	item := &domain.InventoryItem{
		ItemCode:     r.ItemCode,
		ItemName:     r.ItemName,
		Category:     domain.ItemCategory(r.Category),
		Description:  r.Description,
		CostPrice:    r.CostPrice,
		SellingPrice: r.SellingPrice,
		Quantity:     r.Quantity,
		ReorderLevel: r.ReorderLevel,
	}

	if item.Category == "" {
		item.Category = domain.CategoryOther
	}

	return item
}

// UpdateItemRequest represents the request body for updating an inventory item
type UpdateItemRequest struct {
	ItemCode     string          `json:"item_code"`
	ItemName     string          `json:"item_name"`
	Category     string          `json:"category,omitempty"`
	Description  string          `json:"description,omitempty"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Quantity     int             `json:"quantity"`
	ReorderLevel int             `json:"reorder_level,omitempty"`
}

// Validate validates the update item request
func (r *UpdateItemRequest) Validate() error {
	if r.ItemCode == "" {
		return fmt.Errorf("item_code is required")
	}
	if r.ItemName == "" {
		return fmt.Errorf("item_name is required")
	}
	if r.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}
	if r.CostPrice.IsNegative() {
		return fmt.Errorf("cost_price cannot be negative")
	}
	if r.SellingPrice.IsNegative() {
		return fmt.Errorf("selling_price cannot be negative")
	}
	return nil
}

// ToDomain converts the request to a domain model
func (r *UpdateItemRequest) ToDomain() *domain.InventoryItem {
	item := &domain.InventoryItem{
		ItemCode:     r.ItemCode,
		ItemName:     r.ItemName,
		Category:     domain.ItemCategory(r.Category),
		Description:  r.Description,
		CostPrice:    r.CostPrice,
		SellingPrice: r.SellingPrice,
		Quantity:     r.Quantity,
		ReorderLevel: r.ReorderLevel,
	}

	if item.Category == "" {
		item.Category = domain.CategoryOther
	}

	return item
}
