// cmd/seeder/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/pkg/config"
	"github.com/ammerola/shopledger-be/internal/pkg/logger"
)

type seedItem struct {
	code     string
	name     string
	category domain.ItemCategory
	cost     string
	price    string
	qty      int
	reorder  int
}

var catalog = []seedItem{
	{"BEV-001", "Mineral Water 1.5L", domain.CategoryBeverages, "0.45", "0.90", 240, 48},
	{"BEV-002", "Orange Juice 1L", domain.CategoryBeverages, "1.60", "2.75", 96, 24},
	{"BEV-003", "Ground Coffee 250g", domain.CategoryBeverages, "3.20", "5.50", 60, 12},
	{"GRO-001", "Basmati Rice 5kg", domain.CategoryGrocery, "6.80", "9.99", 80, 16},
	{"GRO-002", "Sunflower Oil 1L", domain.CategoryGrocery, "2.10", "3.45", 120, 24},
	{"GRO-003", "Wheat Flour 2kg", domain.CategoryGrocery, "1.30", "2.20", 150, 30},
	{"GRO-004", "Granulated Sugar 1kg", domain.CategoryGrocery, "0.85", "1.50", 180, 36},
	{"HRD-001", "Claw Hammer 450g", domain.CategoryHardware, "4.50", "8.95", 25, 5},
	{"HRD-002", "Screwdriver Set 6pc", domain.CategoryHardware, "5.75", "11.50", 18, 4},
	{"HSE-001", "Dish Soap 750ml", domain.CategoryHousehold, "1.15", "2.25", 90, 18},
	{"HSE-002", "Laundry Detergent 3kg", domain.CategoryHousehold, "4.90", "7.95", 45, 10},
	{"STA-001", "Ballpoint Pens 10pk", domain.CategoryStationery, "1.20", "2.50", 75, 15},
	{"STA-002", "A4 Notebook 96pg", domain.CategoryStationery, "0.95", "1.99", 110, 20},
	{"TOI-001", "Toothpaste 100ml", domain.CategoryToiletries, "1.05", "1.95", 130, 26},
	{"TOI-002", "Bar Soap 3pk", domain.CategoryToiletries, "1.40", "2.60", 85, 17},
	{"ELE-001", "AA Batteries 4pk", domain.CategoryElectronics, "1.80", "3.50", 70, 14},
	{"ELE-002", "LED Bulb 9W", domain.CategoryElectronics, "1.60", "3.25", 55, 12},
	{"CLO-001", "Cotton T-Shirt M", domain.CategoryClothing, "3.50", "7.99", 40, 8},
}

var customerNames = []struct {
	name  string
	phone string
}{
	{"Amina Hassan", "555-0101"},
	{"Jorge Medina", "555-0102"},
	{"Li Wen", "555-0103"},
	{"Fatima Noor", "555-0104"},
	{"Peter Okafor", "555-0105"},
	{"Rosa Delgado", "555-0106"},
}

func main() {
	var (
		saleCount = flag.Int("sales", 50, "number of historical sales to generate")
		daysBack  = flag.Int("days", 30, "spread sales over this many past days")
		seed      = flag.Int64("seed", 42, "random seed for reproducible data")
	)
	flag.Parse()

	slogger := logger.SetupLogger("info", "text")

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.GetDatabaseURL())
	if err != nil {
		slogger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slogger.Error("database unreachable", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))

	itemIDs, err := seedInventory(ctx, pool, slogger)
	if err != nil {
		slogger.Error("failed to seed inventory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	customerIDs, err := seedCustomers(ctx, pool, slogger)
	if err != nil {
		slogger.Error("failed to seed customers", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := seedSales(ctx, pool, slogger, rng, itemIDs, customerIDs, *saleCount, *daysBack); err != nil {
		slogger.Error("failed to seed sales", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger.Info("seeding complete",
		slog.Int("items", len(itemIDs)),
		slog.Int("customers", len(customerIDs)),
		slog.Int("sales", *saleCount))
}

func seedInventory(ctx context.Context, pool *pgxpool.Pool, slogger *slog.Logger) ([]int64, error) {
	ids := make([]int64, 0, len(catalog))

	for _, it := range catalog {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO inventory_items (item_code, item_name, category, cost_price, selling_price, quantity, reorder_level)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (item_code) WHERE deleted_at IS NULL
			DO UPDATE SET quantity = EXCLUDED.quantity
			RETURNING id`,
			it.code, it.name, string(it.category), it.cost, it.price, it.qty, it.reorder,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert item %s: %w", it.code, err)
		}
		ids = append(ids, id)
	}

	slogger.Info("inventory seeded", slog.Int("count", len(ids)))
	return ids, nil
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool, slogger *slog.Logger) ([]int64, error) {
	ids := make([]int64, 0, len(customerNames))

	for _, c := range customerNames {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO customers (name, phone)
			VALUES ($1, $2)
			RETURNING id`,
			c.name, c.phone,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert customer %s: %w", c.name, err)
		}
		ids = append(ids, id)
	}

	slogger.Info("customers seeded", slog.Int("count", len(ids)))
	return ids, nil
}

func seedSales(
	ctx context.Context,
	pool *pgxpool.Pool,
	slogger *slog.Logger,
	rng *rand.Rand,
	itemIDs, customerIDs []int64,
	saleCount, daysBack int,
) error {
	for i := 0; i < saleCount; i++ {
		soldAt := time.Now().
			AddDate(0, 0, -rng.Intn(daysBack)).
			Add(-time.Duration(rng.Intn(10)) * time.Hour)

		// Roughly a third of sales are walk-ins.
		customerID := domain.WalkInCustomerID
		if rng.Intn(3) > 0 {
			customerID = customerIDs[rng.Intn(len(customerIDs))]
		}

		if err := generateSale(ctx, pool, rng, itemIDs, customerID, soldAt); err != nil {
			return fmt.Errorf("sale %d: %w", i, err)
		}
	}

	slogger.Info("sales seeded", slog.Int("count", saleCount))
	return nil
}

func generateSale(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand, itemIDs []int64, customerID int64, soldAt time.Time) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		lineCount := 1 + rng.Intn(3)
		picked := map[int64]bool{}
		sale := &domain.Sale{CustomerID: customerID, SoldAt: soldAt}

		for len(sale.Items) < lineCount {
			itemID := itemIDs[rng.Intn(len(itemIDs))]
			if picked[itemID] {
				continue
			}
			picked[itemID] = true

			var (
				code, name  string
				cost, price decimal.Decimal
				onHand      int
			)
			err := tx.QueryRow(ctx, `
				SELECT item_code, item_name, cost_price, selling_price, quantity
				FROM inventory_items WHERE id = $1 FOR UPDATE`, itemID,
			).Scan(&code, &name, &cost, &price, &onHand)
			if err != nil {
				return err
			}

			qty := 1 + rng.Intn(3)
			if onHand < qty {
				continue
			}

			// Occasionally haggle the price down a little.
			actual := price
			if rng.Intn(4) == 0 {
				actual = price.Mul(decimal.NewFromFloat(0.95)).Round(2)
			}

			line := domain.SaleLineItem{
				ItemID:          itemID,
				ItemCode:        code,
				ItemName:        name,
				Quantity:        qty,
				CostPrice:       cost,
				SellingPrice:    price,
				ActualUnitPrice: actual,
			}
			sale.Items = append(sale.Items, line)

			if _, err := tx.Exec(ctx,
				`UPDATE inventory_items SET quantity = quantity - $2 WHERE id = $1`,
				itemID, qty); err != nil {
				return err
			}
		}

		sale.DeriveTotals()

		itemsJSON, err := json.Marshal(sale.Items)
		if err != nil {
			return err
		}

		var saleID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO sales (invoice_no, customer_id, items, total, total_cost, discount, profit, sold_at)
			VALUES ('PENDING', $1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			customerID, itemsJSON, sale.Total, sale.TotalCost, sale.Discount, sale.Profit, soldAt,
		).Scan(&saleID)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE sales SET invoice_no = $2 WHERE id = $1`,
			saleID, domain.FormatInvoiceNo(saleID)); err != nil {
			return err
		}

		if customerID != domain.WalkInCustomerID {
			if _, err := tx.Exec(ctx, `
				UPDATE customers SET
					total_purchases = total_purchases + $2,
					total_profit = total_profit + $3,
					purchase_count = purchase_count + 1
				WHERE id = $1`,
				customerID, sale.Total, sale.Profit); err != nil {
				return err
			}
		}

		return nil
	})
}
