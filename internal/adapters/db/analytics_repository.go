// internal/adapters/db/analytics_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// analyticsRepository implements ports.AnalyticsRepository. Every figure is
// aggregated inside PostgreSQL; Go never sums sale rows.
type analyticsRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *Database, logger *slog.Logger) ports.AnalyticsRepository {
	return &analyticsRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "analytics")),
	}
}

// ProfitSummary sums the financial columns over [from, to). Cancelled sales
// are excluded; returned sales count with their post-return totals. A non-nil
// sellerID narrows the window to one seller.
func (r *analyticsRepository) ProfitSummary(ctx context.Context, from, to time.Time, sellerID *int64) (*ports.ProfitSummary, error) {
	query := `
		SELECT
			COALESCE(SUM(total), 0),
			COALESCE(SUM(total_cost), 0),
			COALESCE(SUM(profit), 0),
			COALESCE(SUM(discount), 0),
			COUNT(*)
		FROM sales
		WHERE sold_at >= $1 AND sold_at < $2
		  AND status IN ('completed', 'returned')`

	args := []interface{}{from, to}
	if sellerID != nil {
		query += ` AND seller_id = $3`
		args = append(args, *sellerID)
	}

	summary := &ports.ProfitSummary{}
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&summary.Total,
		&summary.TotalCost,
		&summary.Profit,
		&summary.Discount,
		&summary.SaleCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate profit summary: %w", MapError(err))
	}

	return summary, nil
}

// TopItemsByProfit unnests the jsonb line arrays and ranks items by the
// profit they contributed over the window.
func (r *analyticsRepository) TopItemsByProfit(ctx context.Context, from, to time.Time, sellerID *int64, limit int) ([]ports.ItemProfit, error) {
	if limit <= 0 {
		limit = 10
	}

	sellerFilter := ""
	args := []interface{}{from, to, limit}
	if sellerID != nil {
		sellerFilter = ` AND seller_id = $4`
		args = append(args, *sellerID)
	}

	query := `
		SELECT
			(line->>'item_id')::bigint AS item_id,
			MAX(line->>'item_name') AS item_name,
			SUM((line->>'quantity')::bigint) AS quantity_sold,
			SUM((line->>'line_total')::numeric) AS revenue,
			SUM((line->>'line_total')::numeric - (line->>'line_cost')::numeric) AS profit
		FROM sales,
			jsonb_array_elements(items) AS line
		WHERE sold_at >= $1 AND sold_at < $2
		  AND status IN ('completed', 'returned')` + sellerFilter + `
		GROUP BY (line->>'item_id')::bigint
		ORDER BY profit DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to rank items by profit: %w", MapError(err))
	}
	defer rows.Close()

	var items []ports.ItemProfit
	for rows.Next() {
		var item ports.ItemProfit
		err := rows.Scan(&item.ItemID, &item.ItemName, &item.QuantitySold, &item.Revenue, &item.Profit)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item profit row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item profit rows: %w", err)
	}

	return items, nil
}

// SalesForExport streams the full sale rows for a reporting window.
func (r *analyticsRepository) SalesForExport(ctx context.Context, from, to time.Time) ([]*domain.Sale, error) {
	query := `SELECT ` + saleColumns + `
		FROM sales
		WHERE sold_at >= $1 AND sold_at < $2
		ORDER BY sold_at ASC`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales for export: %w", MapError(err))
	}

	sales, err := ScanMany(rows, func(rows pgx.Rows) (*domain.Sale, error) {
		return scanSale(rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sales for export: %w", err)
	}

	r.logger.DebugContext(ctx, "sales loaded for export",
		slog.Int("count", len(sales)),
		slog.Time("from", from),
		slog.Time("to", to))

	return sales, nil
}
