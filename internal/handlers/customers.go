// internal/handlers/customers.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// CustomerHandler handles customer-related HTTP requests
type CustomerHandler struct {
	repo   ports.CustomerRepository
	logger *slog.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(repo ports.CustomerRepository, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		repo:   repo,
		logger: logger.With(slog.String("handler", "customers")),
	}
}

// CreateCustomer handles POST /api/v1/customers
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var customer domain.Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := customer.Validate(); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Save(ctx, &customer); err != nil {
		h.logger.ErrorContext(ctx, "failed to create customer",
			slog.String("name", customer.Name),
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to create customer")
		return
	}

	h.logger.InfoContext(ctx, "customer created",
		slog.Int64("customer_id", customer.ID))

	respondJSON(h.logger, w, http.StatusCreated, customer)
}

// GetCustomer handles GET /api/v1/customers/{id}
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	customer, err := h.repo.FindByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get customer",
			slog.Int64("customer_id", id),
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to retrieve customer")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, customer)
}

// ListCustomers handles GET /api/v1/customers
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := 1
	pageSize := 50
	q := r.URL.Query()

	if p := q.Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	customers, total, err := h.repo.List(ctx, page, pageSize)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list customers",
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to list customers")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"customers": customers,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
