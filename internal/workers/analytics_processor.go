// internal/workers/analytics_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// AnalyticsProcessor pre-warms the profit dashboard cache
type AnalyticsProcessor struct {
	analytics ports.AnalyticsService
	logger    *slog.Logger
}

// NewAnalyticsProcessor creates a new analytics processor
func NewAnalyticsProcessor(analytics ports.AnalyticsService, logger *slog.Logger) *AnalyticsProcessor {
	return &AnalyticsProcessor{
		analytics: analytics,
		logger:    logger.With(slog.String("processor", "analytics")),
	}
}

// WarmDashboard builds the default dashboard window so the first request
// of the day is served from cache.
func (p *AnalyticsProcessor) WarmDashboard(ctx context.Context, t *asynq.Task) error {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	dashboard, err := p.analytics.ProfitDashboard(ctx, from, to, nil)
	if err != nil {
		return fmt.Errorf("failed to warm dashboard: %w", err)
	}

	p.logger.InfoContext(ctx, "dashboard cache warmed",
		slog.Int64("sale_count", dashboard.SaleCount),
		slog.String("profit", dashboard.Profit.String()))

	return nil
}
