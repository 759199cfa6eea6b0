// internal/core/services/analytics.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
)

const (
	dashboardCacheTTL = 5 * time.Minute
	topItemsLimit     = 10
)

// AnalyticsService assembles dashboard figures from SQL aggregates, with a
// short-lived cache in front since the dashboard polls.
type AnalyticsService struct {
	repo   ports.AnalyticsRepository
	cache  ports.CacheRepository
	logger *slog.Logger
}

// Statically assert that *AnalyticsService implements the AnalyticsService interface.
var _ ports.AnalyticsService = (*AnalyticsService)(nil)

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(repo ports.AnalyticsRepository, cache ports.CacheRepository, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		repo:   repo,
		cache:  cache,
		logger: logger.With(slog.String("service", "analytics")),
	}
}

// ProfitDashboard aggregates the profit figures over [from, to), optionally
// narrowed to one seller.
func (s *AnalyticsService) ProfitDashboard(ctx context.Context, from, to time.Time, sellerID *int64) (*ports.ProfitDashboard, error) {
	if !to.After(from) {
		return nil, domain.NewValidationError("to", "must be after from")
	}

	sellerKey := int64(0)
	if sellerID != nil {
		sellerKey = *sellerID
	}

	dashboard := &ports.ProfitDashboard{}
	cacheKey := fmt.Sprintf("dashboard:profits:%d:%d:%d", from.Unix(), to.Unix(), sellerKey)

	// A failed GetOrSet can mean the cache is down or the fetch itself
	// failed. Fetch errors surface as-is; only cache trouble falls back to
	// a direct build.
	var fetchErr error
	fetch := func() (interface{}, error) {
		d, err := s.buildDashboard(ctx, from, to, sellerID)
		fetchErr = err
		return d, err
	}

	if s.cache != nil {
		if err := s.cache.GetOrSet(ctx, cacheKey, dashboard, fetch, dashboardCacheTTL); err == nil {
			return dashboard, nil
		} else if fetchErr != nil {
			return nil, fetchErr
		} else {
			s.logger.WarnContext(ctx, "dashboard cache unavailable, serving direct",
				slog.String("error", err.Error()))
		}
	}

	return s.buildDashboard(ctx, from, to, sellerID)
}

func (s *AnalyticsService) buildDashboard(ctx context.Context, from, to time.Time, sellerID *int64) (*ports.ProfitDashboard, error) {
	summary, err := s.repo.ProfitSummary(ctx, from, to, sellerID)
	if err != nil {
		return nil, err
	}

	topItems, err := s.repo.TopItemsByProfit(ctx, from, to, sellerID, topItemsLimit)
	if err != nil {
		return nil, err
	}

	dashboard := &ports.ProfitDashboard{
		From:      from,
		To:        to,
		SellerID:  sellerID,
		Total:     summary.Total,
		TotalCost: summary.TotalCost,
		Profit:    summary.Profit,
		Discount:  summary.Discount,
		SaleCount: summary.SaleCount,
		TopItems:  topItems,
	}

	hundred := decimal.NewFromInt(100)
	if !summary.Total.IsZero() {
		dashboard.ProfitMargin = summary.Profit.Div(summary.Total).Mul(hundred).Round(2)
	}
	if summary.SaleCount > 0 {
		dashboard.AverageOrderValue = summary.Total.Div(decimal.NewFromInt(summary.SaleCount)).Round(2)
	}

	return dashboard, nil
}
