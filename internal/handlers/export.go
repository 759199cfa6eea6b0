// internal/handlers/export.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// ExportHandler handles spreadsheet export operations
type ExportHandler struct {
	service ports.ExportService
	logger  *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(service ports.ExportService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "export")),
	}
}

// ExportSales handles GET /api/v1/export/sales
func (h *ExportHandler) ExportSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, err := parseWindow(r)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.InfoContext(ctx, "starting sales export",
		slog.Time("from", from),
		slog.Time("to", to))

	data, filename, err := h.service.SalesReport(ctx, from, to)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate sales export",
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to generate export")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(ctx, "failed to write export response",
			slog.String("error", err.Error()))
	}
}
