// internal/handlers/sales.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// SaleHandler handles sale-related HTTP requests
type SaleHandler struct {
	service ports.SaleService
	logger  *slog.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(service ports.SaleService, logger *slog.Logger) *SaleHandler {
	return &SaleHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "sales")),
	}
}

// CreateSale handles POST /api/v1/sales
func (h *SaleHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	sale, err := h.service.CreateSale(ctx, req.ToDomain())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create sale",
			slog.Int64("customer_id", req.CustomerID),
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to create sale")
		return
	}

	h.logger.InfoContext(ctx, "sale created",
		slog.String("invoice_no", sale.InvoiceNo),
		slog.String("total", sale.Total.String()))

	respondJSON(h.logger, w, http.StatusCreated, sale)
}

// GetSale handles GET /api/v1/sales/{invoiceNo}
func (h *SaleHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	invoiceNo := r.PathValue("invoiceNo")

	if invoiceNo == "" {
		respondError(h.logger, w, http.StatusBadRequest, "Invoice number is required")
		return
	}

	sale, err := h.service.GetByInvoiceNo(ctx, invoiceNo)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get sale",
			slog.String("invoice_no", invoiceNo),
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to retrieve sale")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, sale)
}

// ListSales handles GET /api/v1/sales
func (h *SaleHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := h.parseListParams(r)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list sales",
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to list sales")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, result)
}

func (h *SaleHandler) parseListParams(r *http.Request) (ports.SaleListParams, error) {
	params := ports.SaleListParams{
		Page:      1,
		PageSize:  50,
		SortBy:    "sold_at",
		SortOrder: "desc",
	}

	q := r.URL.Query()

	if page := q.Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}

	if limit := q.Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			if l > 100 {
				params.PageSize = 100
			} else {
				params.PageSize = l
			}
		}
	}

	if customerID := q.Get("customer_id"); customerID != "" {
		id, err := strconv.ParseInt(customerID, 10, 64)
		if err != nil {
			return params, fmt.Errorf("invalid customer_id")
		}
		params.CustomerID = &id
	}

	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return params, fmt.Errorf("invalid from timestamp, expected RFC3339")
		}
		params.From = &t
	}

	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return params, fmt.Errorf("invalid to timestamp, expected RFC3339")
		}
		params.To = &t
	}

	if order := q.Get("order"); order == "asc" || order == "desc" {
		params.SortOrder = order
	}

	return params, nil
}

// Request/Response DTOs

// SaleLineRequest represents one line of a sale submission. Price is the
// unit price actually charged, which may differ from the list price. A
// missing price means the line sells at the catalog selling price.
type SaleLineRequest struct {
	ItemID   int64            `json:"item_id"`
	Quantity int              `json:"quantity"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

// CreateSaleRequest represents the request body for creating a sale.
// A customer_id of 0 records a walk-in sale.
type CreateSaleRequest struct {
	CustomerID    int64             `json:"customer_id"`
	CustomerName  string            `json:"customer_name,omitempty"`
	SellerID      int64             `json:"seller_id,omitempty"`
	SellerName    string            `json:"seller_name,omitempty"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	Status        string            `json:"status,omitempty"`
	Date          *time.Time        `json:"date,omitempty"`
	Items         []SaleLineRequest `json:"items"`
}

// Validate validates the create sale request
func (r *CreateSaleRequest) Validate() error {
	if r.CustomerID < 0 {
		return fmt.Errorf("customer_id cannot be negative")
	}
	if r.SellerID < 0 {
		return fmt.Errorf("seller_id cannot be negative")
	}
	if len(r.Items) == 0 {
		return fmt.Errorf("at least one item is required")
	}
	for i, line := range r.Items {
		if line.ItemID <= 0 {
			return fmt.Errorf("items[%d]: item_id is required", i)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("items[%d]: quantity must be positive", i)
		}
		if line.Price != nil && line.Price.IsNegative() {
			return fmt.Errorf("items[%d]: price cannot be negative", i)
		}
	}
	return nil
}

// ToDomain converts the request to a domain model. Totals are left to the
// service, which derives them from locked inventory rows.
func (r *CreateSaleRequest) ToDomain() *domain.Sale {
	sale := &domain.Sale{
		CustomerID:    r.CustomerID,
		CustomerName:  r.CustomerName,
		SellerID:      r.SellerID,
		SellerName:    r.SellerName,
		PaymentMethod: r.PaymentMethod,
		Status:        domain.SaleStatus(r.Status),
		Items:         make([]domain.SaleLineItem, 0, len(r.Items)),
	}
	if r.Date != nil {
		sale.SoldAt = *r.Date
	}

	for _, line := range r.Items {
		item := domain.SaleLineItem{
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
		}
		if line.Price != nil {
			item.ActualUnitPrice = *line.Price
		} else {
			item.UseListPrice = true
		}
		sale.Items = append(sale.Items, item)
	}

	return sale
}
