// internal/handlers/returns.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// ReturnHandler handles return-workflow HTTP requests
type ReturnHandler struct {
	service ports.ReturnService
	logger  *slog.Logger
}

// NewReturnHandler creates a new return handler
func NewReturnHandler(service ports.ReturnService, logger *slog.Logger) *ReturnHandler {
	return &ReturnHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "returns")),
	}
}

// CreateReturn handles POST /api/v1/returns
func (h *ReturnHandler) CreateReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ports.ReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validateReturnRequest(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	ret, err := h.service.RequestReturn(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create return",
			slog.String("invoice_no", req.InvoiceNo),
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to create return")
		return
	}

	h.logger.InfoContext(ctx, "return requested",
		slog.String("reference", ret.Reference()),
		slog.String("invoice_no", ret.InvoiceNo))

	respondJSON(h.logger, w, http.StatusCreated, ret)
}

// ResolveReturn handles PUT /api/v1/returns/{id}
func (h *ReturnHandler) ResolveReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid return ID format")
		return
	}

	var req ResolveReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var ret *domain.Return
	switch req.Action {
	case "approve":
		ret, err = h.service.Approve(ctx, id, req.ApprovedBy)
	case "reject":
		ret, err = h.service.Reject(ctx, id, req.RejectedBy, req.RejectionReason)
	default:
		respondError(h.logger, w, http.StatusBadRequest, "Action must be 'approve' or 'reject'")
		return
	}

	if err != nil {
		h.logger.ErrorContext(ctx, "failed to resolve return",
			slog.Int64("return_id", id),
			slog.String("action", req.Action),
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to resolve return")
		return
	}

	h.logger.InfoContext(ctx, "return resolved",
		slog.String("reference", ret.Reference()),
		slog.String("status", string(ret.Status)))

	respondJSON(h.logger, w, http.StatusOK, ret)
}

// GetReturn handles GET /api/v1/returns/{id}
func (h *ReturnHandler) GetReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid return ID format")
		return
	}

	ret, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get return",
			slog.Int64("return_id", id),
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to retrieve return")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, ret)
}

// ListReturns handles GET /api/v1/returns
func (h *ReturnHandler) ListReturns(w http.ResponseWriter, r *http.Request) {
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

	status := domain.ReturnStatus(q.Get("status"))

	returns, total, err := h.service.List(ctx, status, page, pageSize)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list returns",
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to list returns")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"returns":   returns,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ResolveReturnRequest represents the request body for resolving a return.
// Approvals carry who approved; rejections carry who rejected and why.
type ResolveReturnRequest struct {
	Action          string `json:"action"`
	ApprovedBy      string `json:"approved_by,omitempty"`
	RejectedBy      string `json:"rejected_by,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

func validateReturnRequest(req *ports.ReturnRequest) error {
	if req.InvoiceNo == "" {
		return fmt.Errorf("invoice_no is required")
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("at least one item is required")
	}
	for i, line := range req.Items {
		if line.ItemID <= 0 {
			return fmt.Errorf("items[%d]: item_id is required", i)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("items[%d]: quantity must be positive", i)
		}
	}
	return nil
}
