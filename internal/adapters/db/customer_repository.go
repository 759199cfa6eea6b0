// internal/adapters/db/customer_repository.go
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

// customerRepository implements ports.CustomerRepository
type customerRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *Database, logger *slog.Logger) ports.CustomerRepository {
	return &customerRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "customer")),
	}
}

const customerColumns = `
	id, name, phone, email, address,
	total_purchases, total_profit, purchase_count,
	created_at, updated_at`

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	c := &domain.Customer{}
	var phone, email, address sql.NullString

	err := row.Scan(
		&c.ID, &c.Name, &phone, &email, &address,
		&c.TotalPurchases, &c.TotalProfit, &c.PurchaseCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Phone = phone.String
	c.Email = email.String
	c.Address = address.String
	return c, nil
}

// Save creates a new customer
func (r *customerRepository) Save(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (name, phone, email, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	err := r.db.QueryRow(ctx, query,
		customer.Name, customer.Phone, customer.Email, customer.Address, now,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save customer: %w", MapError(err))
	}

	r.logger.DebugContext(ctx, "customer saved", slog.Int64("id", customer.ID))

	return nil
}

// FindByID retrieves a customer by id
func (r *customerRepository) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	customer, err := scanCustomer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", MapError(err))
	}

	return customer, nil
}

// Exists reports whether a customer row exists
func (r *customerRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check customer existence: %w", MapError(err))
	}
	return exists, nil
}

// RecordPurchase accumulates a completed sale onto the customer's lifetime totals.
func (r *customerRepository) RecordPurchase(ctx context.Context, tx pgx.Tx, customerID int64, sale *domain.Sale) error {
	query := `
		UPDATE customers SET
			total_purchases = total_purchases + $2,
			total_profit = total_profit + $3,
			purchase_count = purchase_count + 1,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query, customerID, sale.Total, sale.Profit)
	if err != nil {
		return fmt.Errorf("failed to record purchase: %w", MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}

	return nil
}

// ApplyReturn reverses an approved return from the customer's lifetime totals.
// The purchase count stays: the sale happened, the goods came back.
func (r *customerRepository) ApplyReturn(ctx context.Context, tx pgx.Tx, customerID int64, ret *domain.Return) error {
	query := `
		UPDATE customers SET
			total_purchases = total_purchases - $2,
			total_profit = total_profit - $3,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query, customerID, ret.RefundTotal, ret.RefundProfit)
	if err != nil {
		return fmt.Errorf("failed to apply return to customer: %w", MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}

	return nil
}

// List retrieves customers with pagination
func (r *customerRepository) List(ctx context.Context, page, pageSize int) ([]*domain.Customer, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", MapError(err))
	}

	query := `SELECT ` + customerColumns + `
		FROM customers
		ORDER BY name ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query customers: %w", MapError(err))
	}

	customers, err := ScanMany(rows, func(rows pgx.Rows) (*domain.Customer, error) {
		return scanCustomer(rows)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan customers: %w", err)
	}

	return customers, totalCount, nil
}
