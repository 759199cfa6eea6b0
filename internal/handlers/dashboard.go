// internal/handlers/dashboard.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// DashboardHandler handles profit dashboard requests
type DashboardHandler struct {
	service ports.AnalyticsService
	logger  *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service ports.AnalyticsService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "dashboard")),
	}
}

// GetProfits handles GET /api/v1/dashboard/profits
func (h *DashboardHandler) GetProfits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, err := parseWindow(r)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	var sellerID *int64
	if v := r.URL.Query().Get("seller_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 0 {
			respondError(h.logger, w, http.StatusBadRequest, fmt.Sprintf("invalid seller_id parameter: %s", v))
			return
		}
		sellerID = &id
	}

	dashboard, err := h.service.ProfitDashboard(ctx, from, to, sellerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load profit dashboard",
			slog.Time("from", from),
			slog.Time("to", to),
			slog.String("error", err.Error()))
		respondDomainError(h.logger, w, err, "Failed to load dashboard")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, dashboard)
}

// parseWindow reads the from/to query parameters. When absent the window
// defaults to the last 30 days ending now.
func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()

	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if v := q.Get("from"); v != "" {
		t, err := parseTimeParam(v)
		if err != nil {
			return from, to, fmt.Errorf("invalid from parameter: %s", v)
		}
		from = t
	}

	if v := q.Get("to"); v != "" {
		t, err := parseTimeParam(v)
		if err != nil {
			return from, to, fmt.Errorf("invalid to parameter: %s", v)
		}
		to = t
	}

	return from, to, nil
}

// parseTimeParam accepts RFC3339 timestamps or bare dates.
func parseTimeParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
