// internal/adapters/db/return_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// returnRepository implements ports.ReturnRepository. Unlike sales, returned
// items live in their own table: they are a physical holding area whose rows
// get deleted on rejection, not part of an immutable document.
type returnRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewReturnRepository creates a new return repository
func NewReturnRepository(db *Database, logger *slog.Logger) ports.ReturnRepository {
	return &returnRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "return")),
	}
}

const returnColumns = `
	id, sale_id, invoice_no, customer_id, customer_name, status,
	refund_total, refund_cost, refund_profit, reason, requested_at,
	approved_by, approved_at, rejected_by, rejected_at, rejection_reason`

func scanReturn(row pgx.Row) (*domain.Return, error) {
	ret := &domain.Return{}
	var reason, approvedBy, rejectedBy, rejectionReason sql.NullString
	var approvedAt, rejectedAt sql.NullTime

	err := row.Scan(
		&ret.ID, &ret.SaleID, &ret.InvoiceNo, &ret.CustomerID, &ret.CustomerName,
		&ret.Status, &ret.RefundTotal, &ret.RefundCost, &ret.RefundProfit,
		&reason, &ret.RequestedAt,
		&approvedBy, &approvedAt, &rejectedBy, &rejectedAt, &rejectionReason,
	)
	if err != nil {
		return nil, err
	}

	ret.Reason = reason.String
	ret.ApprovedBy = approvedBy.String
	ret.RejectedBy = rejectedBy.String
	ret.RejectionReason = rejectionReason.String
	if approvedAt.Valid {
		t := approvedAt.Time
		ret.ApprovedAt = &t
	}
	if rejectedAt.Valid {
		t := rejectedAt.Time
		ret.RejectedAt = &t
	}

	return ret, nil
}

// Create inserts the return and its returned-item holding rows, setting ret.ID.
func (r *returnRepository) Create(ctx context.Context, tx pgx.Tx, ret *domain.Return) error {
	query := `
		INSERT INTO returns (
			sale_id, invoice_no, customer_id, customer_name, status,
			refund_total, refund_cost, refund_profit, reason, requested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, requested_at`

	if ret.RequestedAt.IsZero() {
		ret.RequestedAt = time.Now()
	}

	err := tx.QueryRow(ctx, query,
		ret.SaleID, ret.InvoiceNo, ret.CustomerID, ret.CustomerName, ret.Status,
		ret.RefundTotal, ret.RefundCost, ret.RefundProfit, ret.Reason, ret.RequestedAt,
	).Scan(&ret.ID, &ret.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to insert return: %w", MapError(err))
	}

	itemQuery := `
		INSERT INTO returned_items (
			return_id, item_id, item_code, item_name, quantity,
			cost_price, selling_price, refund_price, condition, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	for i := range ret.Items {
		ret.Items[i].ReturnID = ret.ID
		if ret.Items[i].CreatedAt.IsZero() {
			ret.Items[i].CreatedAt = ret.RequestedAt
		}
		if ret.Items[i].Condition == "" {
			ret.Items[i].Condition = domain.ConditionReturned
		}
		err := tx.QueryRow(ctx, itemQuery,
			ret.ID, ret.Items[i].ItemID, ret.Items[i].ItemCode, ret.Items[i].ItemName,
			ret.Items[i].Quantity, ret.Items[i].CostPrice, ret.Items[i].SellingPrice,
			ret.Items[i].RefundPrice, ret.Items[i].Condition, ret.Items[i].CreatedAt,
		).Scan(&ret.Items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert returned item: %w", MapError(err))
		}
	}

	r.logger.DebugContext(ctx, "return created",
		slog.Int64("return_id", ret.ID),
		slog.String("invoice_no", ret.InvoiceNo))

	return nil
}

func (r *returnRepository) loadItems(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}, ret *domain.Return) error {
	query := `
		SELECT id, return_id, item_id, item_code, item_name, quantity,
		       cost_price, selling_price, refund_price, condition, created_at
		FROM returned_items
		WHERE return_id = $1
		ORDER BY id`

	rows, err := q.Query(ctx, query, ret.ID)
	if err != nil {
		return fmt.Errorf("failed to query returned items: %w", MapError(err))
	}
	defer rows.Close()

	var items []domain.ReturnedItem
	for rows.Next() {
		var item domain.ReturnedItem
		err := rows.Scan(
			&item.ID, &item.ReturnID, &item.ItemID, &item.ItemCode, &item.ItemName,
			&item.Quantity, &item.CostPrice, &item.SellingPrice, &item.RefundPrice,
			&item.Condition, &item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan returned item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating returned items: %w", err)
	}

	ret.Items = items
	return nil
}

// FindByID retrieves a return with its holding-area items
func (r *returnRepository) FindByID(ctx context.Context, id int64) (*domain.Return, error) {
	query := `SELECT ` + returnColumns + ` FROM returns WHERE id = $1`

	ret, err := scanReturn(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrReturnNotFound
		}
		return nil, fmt.Errorf("failed to find return: %w", MapError(err))
	}

	if err := r.loadItems(ctx, r.db, ret); err != nil {
		return nil, err
	}

	return ret, nil
}

// FindByIDForUpdate locks the return row for the resolution transaction.
func (r *returnRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Return, error) {
	query := `SELECT ` + returnColumns + ` FROM returns WHERE id = $1 FOR UPDATE`

	ret, err := scanReturn(tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrReturnNotFound
		}
		return nil, fmt.Errorf("failed to lock return: %w", MapError(err))
	}

	if err := r.loadItems(ctx, tx, ret); err != nil {
		return nil, err
	}

	return ret, nil
}

// ExistsForSale reports whether the sale already carries a return request,
// regardless of status.
func (r *returnRepository) ExistsForSale(ctx context.Context, saleID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM returns WHERE sale_id = $1)`, saleID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for existing return: %w", MapError(err))
	}
	return exists, nil
}

// Resolve stamps the final status and the resolving actor onto the return row.
// Approval fills approved_by/approved_at; rejection fills rejected_by,
// rejected_at and the rejection reason.
func (r *returnRepository) Resolve(ctx context.Context, tx pgx.Tx, id int64, res domain.ReturnResolution) error {
	var query string
	var args []interface{}

	switch res.Status {
	case domain.ReturnApproved:
		query = `UPDATE returns SET status = $2, approved_by = $3, approved_at = $4 WHERE id = $1`
		args = []interface{}{id, res.Status, res.Actor, res.At}
	case domain.ReturnRejected:
		query = `UPDATE returns SET status = $2, rejected_by = $3, rejected_at = $4, rejection_reason = $5 WHERE id = $1`
		args = []interface{}{id, res.Status, res.Actor, res.At, res.RejectionReason}
	default:
		return fmt.Errorf("cannot resolve return to status %q", res.Status)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to resolve return: %w", MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReturnNotFound
	}

	return nil
}

// SetItemsCondition flips every holding-area row of the return to the given
// condition. Used by approval to mark the rows as accepted back into stock.
func (r *returnRepository) SetItemsCondition(ctx context.Context, tx pgx.Tx, returnID int64, condition domain.ItemCondition) error {
	_, err := tx.Exec(ctx,
		`UPDATE returned_items SET condition = $2 WHERE return_id = $1`,
		returnID, condition,
	)
	if err != nil {
		return fmt.Errorf("failed to update returned item condition: %w", MapError(err))
	}
	return nil
}

// DeleteItems drops the holding-area rows for a rejected return.
func (r *returnRepository) DeleteItems(ctx context.Context, tx pgx.Tx, returnID int64) error {
	_, err := tx.Exec(ctx, `DELETE FROM returned_items WHERE return_id = $1`, returnID)
	if err != nil {
		return fmt.Errorf("failed to delete returned items: %w", MapError(err))
	}

	r.logger.DebugContext(ctx, "returned items deleted", slog.Int64("return_id", returnID))

	return nil
}

// List retrieves returns filtered by status with pagination. An empty status
// matches every return.
func (r *returnRepository) List(ctx context.Context, status domain.ReturnStatus, page, pageSize int) ([]*domain.Return, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	where := ""
	args := []interface{}{pageSize, (page - 1) * pageSize}
	countArgs := []interface{}{}
	if status != "" {
		where = " WHERE status = $3"
		args = append(args, status)
		countArgs = append(countArgs, status)
	}

	countQuery := `SELECT COUNT(*) FROM returns`
	if status != "" {
		countQuery += ` WHERE status = $1`
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count returns: %w", MapError(err))
	}

	query := `SELECT ` + returnColumns + ` FROM returns` + where +
		` ORDER BY requested_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query returns: %w", MapError(err))
	}

	returns, err := ScanMany(rows, func(rows pgx.Rows) (*domain.Return, error) {
		return scanReturn(rows)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan returns: %w", err)
	}

	for _, ret := range returns {
		if err := r.loadItems(ctx, r.db, ret); err != nil {
			return nil, 0, err
		}
	}

	return returns, totalCount, nil
}
