// internal/adapters/db/sale_repository.go
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// saleRepository implements ports.SaleRepository. Line items live in a jsonb
// column on the sale row; the sale is one financial document, not a join.
type saleRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *Database, logger *slog.Logger) ports.SaleRepository {
	return &saleRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "sale")),
	}
}

const saleColumns = `
	id, invoice_no, customer_id, customer_name, seller_id, seller_name, items,
	total, total_cost, discount, profit, payment_method, status,
	sold_at, created_at, updated_at`

func scanSale(row pgx.Row) (*domain.Sale, error) {
	sale := &domain.Sale{}
	var itemsJSON []byte

	err := row.Scan(
		&sale.ID, &sale.InvoiceNo, &sale.CustomerID, &sale.CustomerName,
		&sale.SellerID, &sale.SellerName, &itemsJSON,
		&sale.Total, &sale.TotalCost, &sale.Discount, &sale.Profit,
		&sale.PaymentMethod, &sale.Status,
		&sale.SoldAt, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &sale.Items); err != nil {
			return nil, fmt.Errorf("failed to decode sale items: %w", err)
		}
	}

	return sale, nil
}

// InsertPlaceholder writes the sale with a placeholder invoice number and
// sets sale.ID. The final number is derived from the row id and stamped with
// SetInvoiceNo in the same transaction.
func (r *saleRepository) InsertPlaceholder(ctx context.Context, tx pgx.Tx, sale *domain.Sale) error {
	query := `
		INSERT INTO sales (
			invoice_no, customer_id, customer_name, seller_id, seller_name, items,
			total, total_cost, discount, profit, payment_method, status,
			sold_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`

	itemsJSON, err := json.Marshal(sale.Items)
	if err != nil {
		return fmt.Errorf("failed to encode sale items: %w", err)
	}

	now := time.Now()
	if sale.SoldAt.IsZero() {
		sale.SoldAt = now
	}

	err = tx.QueryRow(ctx, query,
		"PENDING", sale.CustomerID, sale.CustomerName, sale.SellerID, sale.SellerName, itemsJSON,
		sale.Total, sale.TotalCost, sale.Discount, sale.Profit,
		sale.PaymentMethod, sale.Status,
		sale.SoldAt, now, now,
	).Scan(&sale.ID, &sale.CreatedAt, &sale.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", MapError(err))
	}

	return nil
}

// SetInvoiceNo stamps the derived invoice number onto the sale row.
func (r *saleRepository) SetInvoiceNo(ctx context.Context, tx pgx.Tx, saleID int64, invoiceNo string) error {
	query := `UPDATE sales SET invoice_no = $2, updated_at = NOW() WHERE id = $1`

	tag, err := tx.Exec(ctx, query, saleID, invoiceNo)
	if err != nil {
		return fmt.Errorf("failed to set invoice number: %w", MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSaleNotFound
	}

	return nil
}

// FindByID retrieves a sale by row id
func (r *saleRepository) FindByID(ctx context.Context, id int64) (*domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`

	sale, err := scanSale(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to find sale: %w", MapError(err))
	}

	return sale, nil
}

// FindByInvoiceNo retrieves a sale by its invoice number
func (r *saleRepository) FindByInvoiceNo(ctx context.Context, invoiceNo string) (*domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE invoice_no = $1`

	sale, err := scanSale(r.db.QueryRow(ctx, query, invoiceNo))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to find sale: %w", MapError(err))
	}

	return sale, nil
}

// ApplyReturn subtracts an approved return's refund figures from the sale
// and marks the document returned.
func (r *saleRepository) ApplyReturn(ctx context.Context, tx pgx.Tx, saleID int64, ret *domain.Return) error {
	query := `
		UPDATE sales SET
			total = total - $2,
			total_cost = total_cost - $3,
			profit = profit - $4,
			status = 'returned',
			updated_at = NOW()
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query, saleID, ret.RefundTotal, ret.RefundCost, ret.RefundProfit)
	if err != nil {
		return fmt.Errorf("failed to apply return to sale: %w", MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSaleNotFound
	}

	r.logger.DebugContext(ctx, "return applied to sale",
		slog.Int64("sale_id", saleID),
		slog.String("refund_total", ret.RefundTotal.String()))

	return nil
}

// List retrieves sales with filtering and pagination
func (r *saleRepository) List(ctx context.Context, params ports.SaleListParams) (*ports.SaleListResult, error) {
	applyFilters := func(qb squirrel.SelectBuilder) squirrel.SelectBuilder {
		if params.CustomerID != nil {
			qb = qb.Where(squirrel.Eq{"customer_id": *params.CustomerID})
		}
		if params.From != nil {
			qb = qb.Where(squirrel.GtOrEq{"sold_at": *params.From})
		}
		if params.To != nil {
			qb = qb.Where(squirrel.Lt{"sold_at": *params.To})
		}
		return qb
	}

	qb := applyFilters(squirrel.Select(
		"id", "invoice_no", "customer_id", "customer_name", "seller_id", "seller_name", "items",
		"total", "total_cost", "discount", "profit", "payment_method", "status",
		"sold_at", "created_at", "updated_at",
	).From("sales").
		PlaceholderFormat(squirrel.Dollar))

	countQb := applyFilters(squirrel.Select("COUNT(*)").
		From("sales").
		PlaceholderFormat(squirrel.Dollar))
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	err = r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", MapError(err))
	}

	orderBy := "sold_at DESC"
	if params.SortBy == "total" || params.SortBy == "profit" {
		direction := "ASC"
		if params.SortOrder == "desc" {
			direction = "DESC"
		}
		orderBy = fmt.Sprintf("%s %s", params.SortBy, direction)
	}
	qb = qb.OrderBy(orderBy)

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	qb = qb.Limit(uint64(pageSize)).Offset(uint64((page - 1) * pageSize))

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", MapError(err))
	}

	sales, err := ScanMany(rows, func(rows pgx.Rows) (*domain.Sale, error) {
		return scanSale(rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sales: %w", err)
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))

	return &ports.SaleListResult{
		Sales:      sales,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}
