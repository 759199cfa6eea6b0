// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/shopledger-be/internal/adapters/db"
	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// SetupTestDB creates a PostgreSQL container for integration tests
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_shopledger",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_shopledger",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		StatementTimeout:   time.Second * 30,
		EnableQueryLogging: testing.Verbose(),
	}

	// Wait for the container to accept connections
	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")

	ctx := context.Background()
	migrationConfig := &db.MigrationConfig{
		DatabaseURL: fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port,
			dbConfig.Database, dbConfig.SSLMode),
		SourcePath: "../../migrations",
		TableName:  "schema_migrations",
		SchemaName: "public",
	}

	err = db.RunMigrationsWithRetry(ctx, migrationConfig, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates a mock Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_shopledger",
			SSLMode:            "disable",
			MaxConnections:     10,
			MinConnections:     2,
			StatementTimeout:   30 * time.Second,
			EnableQueryLogging: true,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			TTL:      time.Hour,
			PoolSize: 10,
		},
		Reports: config.ReportConfig{
			DailySalesCron:   "0 1 * * *",
			LowStockCron:     "0 7 * * *",
			CleanupCron:      "30 2 * * *",
			RetentionDays:    90,
			ExportTimeout:    time.Minute,
			LowStockPageSize: 200,
			SMTPFrom:         "noreply@shopledger.local",
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			SecureHeaders:     false,
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// CreateTestItem creates a test inventory item
func CreateTestItem(overrides ...func(*domain.InventoryItem)) *domain.InventoryItem {
	item := &domain.InventoryItem{
		ID:           1,
		ItemCode:     "BEV-001",
		ItemName:     "Mineral Water 500ml",
		Category:     domain.CategoryBeverages,
		Description:  "Bottled mineral water",
		CostPrice:    decimal.NewFromFloat(0.30),
		SellingPrice: decimal.NewFromFloat(0.75),
		Quantity:     100,
		ReorderLevel: 20,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	for _, override := range overrides {
		override(item)
	}

	return item
}

// CreateTestItems creates multiple test inventory items with distinct codes
func CreateTestItems(count int) []*domain.InventoryItem {
	categories := []domain.ItemCategory{
		domain.CategoryBeverages,
		domain.CategoryGrocery,
		domain.CategoryHousehold,
		domain.CategoryStationery,
		domain.CategoryToiletries,
	}

	items := make([]*domain.InventoryItem, count)
	for i := 0; i < count; i++ {
		idx := i
		items[i] = CreateTestItem(func(item *domain.InventoryItem) {
			item.ID = int64(idx + 1)
			item.ItemCode = fmt.Sprintf("TST-%03d", idx+1)
			item.ItemName = fmt.Sprintf("Test Item %d", idx+1)
			item.Category = categories[idx%len(categories)]
			item.CostPrice = decimal.NewFromFloat(float64(1 + idx))
			item.SellingPrice = decimal.NewFromFloat(float64(2 + idx))
		})
	}

	return items
}

// CreateTestSale creates a persisted-looking sale with derived totals
func CreateTestSale(overrides ...func(*domain.Sale)) *domain.Sale {
	sale := &domain.Sale{
		ID:         1,
		InvoiceNo:  domain.FormatInvoiceNo(1),
		CustomerID: domain.WalkInCustomerID,
		Items: []domain.SaleLineItem{
			{
				ItemID:          1,
				ItemCode:        "BEV-001",
				ItemName:        "Mineral Water 500ml",
				Quantity:        3,
				CostPrice:       decimal.NewFromFloat(0.30),
				SellingPrice:    decimal.NewFromFloat(0.75),
				ActualUnitPrice: decimal.NewFromFloat(0.75),
			},
			{
				ItemID:          2,
				ItemCode:        "GRO-001",
				ItemName:        "Rice 5kg",
				Quantity:        1,
				CostPrice:       decimal.NewFromFloat(4.20),
				SellingPrice:    decimal.NewFromFloat(6.50),
				ActualUnitPrice: decimal.NewFromFloat(6.00),
			},
		},
		SoldAt:    time.Now(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	sale.DeriveTotals()

	for _, override := range overrides {
		override(sale)
	}

	return sale
}

// CreateTestCustomer creates a test customer
func CreateTestCustomer(overrides ...func(*domain.Customer)) *domain.Customer {
	customer := &domain.Customer{
		ID:        1,
		Name:      "Maria Santos",
		Phone:     "+63-912-555-0101",
		Email:     "maria@example.com",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	for _, override := range overrides {
		override(customer)
	}

	return customer
}

// CreateTestReturn creates a pending return against the default test sale
func CreateTestReturn(overrides ...func(*domain.Return)) *domain.Return {
	ret := &domain.Return{
		ID:         1,
		SaleID:     1,
		InvoiceNo:  domain.FormatInvoiceNo(1),
		CustomerID: domain.WalkInCustomerID,
		Status:     domain.ReturnPending,
		Items: []domain.ReturnedItem{
			{
				ItemID:       1,
				ItemCode:     "BEV-001",
				ItemName:     "Mineral Water 500ml",
				Quantity:     2,
				CostPrice:    decimal.NewFromFloat(0.30),
				SellingPrice: decimal.NewFromFloat(0.75),
				RefundPrice:  decimal.NewFromFloat(0.75),
			},
		},
		Reason:      "damaged packaging",
		RequestedAt: time.Now(),
	}
	ret.DeriveTotals()

	for _, override := range overrides {
		override(ret)
	}

	return ret
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	tables := []string{
		"returned_items",
		"returns",
		"sales",
		"customers",
		"inventory_items",
	}

	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table))
		require.NoError(t, err, "Failed to truncate table: %s", table)
	}
}

// SeedInventory inserts items directly and returns their assigned row ids
// keyed by item code.
func SeedInventory(t *testing.T, pool *pgxpool.Pool, items []*domain.InventoryItem) map[string]int64 {
	t.Helper()

	ctx := context.Background()
	ids := make(map[string]int64, len(items))

	for _, item := range items {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO inventory_items
				(item_code, item_name, category, description,
				 cost_price, selling_price, quantity, reorder_level)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			item.ItemCode, item.ItemName, item.Category, item.Description,
			item.CostPrice, item.SellingPrice, item.Quantity, item.ReorderLevel,
		).Scan(&id)
		require.NoError(t, err, "Failed to seed inventory item %s", item.ItemCode)
		ids[item.ItemCode] = id
	}

	return ids
}

// SeedCustomer inserts a customer row and returns its id.
func SeedCustomer(t *testing.T, pool *pgxpool.Pool, customer *domain.Customer) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO customers (name, phone, email, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		customer.Name, customer.Phone, customer.Email, customer.Address,
	).Scan(&id)
	require.NoError(t, err, "Failed to seed customer")

	return id
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}
