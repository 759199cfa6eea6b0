//go:build integration
// +build integration

package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ammerola/shopledger-be/internal/adapters/db"
	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
	"github.com/ammerola/shopledger-be/internal/core/services"
	"github.com/ammerola/shopledger-be/test/helpers"
)

func BenchmarkInventoryOperations(b *testing.B) {
	// Setup
	testDB := helpers.SetupTestDB(&testing.T{})
	defer testDB.Database.Close()

	repo := db.NewInventoryRepository(testDB.Database, helpers.TestLogger())
	service := services.NewInventoryService(repo, helpers.TestLogger())
	ctx := context.Background()

	b.Run("Create", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			item := &domain.InventoryItem{
				ItemCode:     fmt.Sprintf("BENCH-%d", i),
				ItemName:     fmt.Sprintf("Benchmark Item %d", i),
				Category:     domain.CategoryGrocery,
				CostPrice:    decimal.NewFromFloat(1.50),
				SellingPrice: decimal.NewFromFloat(2.75),
				Quantity:     100,
			}
			_ = service.SaveItem(ctx, item)
		}
	})

	// Pre-create items for read benchmarks
	var itemIDs []int64
	for i := 0; i < 100; i++ {
		item := helpers.CreateTestItem(func(it *domain.InventoryItem) {
			it.ID = 0
			it.ItemCode = fmt.Sprintf("READ-%03d", i)
		})
		_ = service.SaveItem(ctx, item)
		itemIDs = append(itemIDs, item.ID)
	}

	b.Run("Read", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			id := itemIDs[i%len(itemIDs)]
			_, _ = service.GetByID(ctx, id)
		}
	})

	b.Run("List", func(b *testing.B) {
		params := ports.InventoryListParams{
			Page:     1,
			PageSize: 50,
		}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = service.List(ctx, params)
		}
	})

	b.Run("Search", func(b *testing.B) {
		params := ports.InventoryListParams{
			Search:   "water",
			Page:     1,
			PageSize: 50,
		}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = service.List(ctx, params)
		}
	})
}

func BenchmarkSaleTotals(b *testing.B) {
	sale := helpers.CreateTestSale()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sale.DeriveTotals()
	}
}

func BenchmarkFormatInvoiceNo(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = domain.FormatInvoiceNo(int64(i + 1))
	}
}

// Memory allocation benchmarks
func BenchmarkMemoryAllocation(b *testing.B) {
	b.Run("InventoryItem", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = &domain.InventoryItem{
				ItemCode:     "BEV-001",
				ItemName:     "Mineral Water 500ml",
				Category:     domain.CategoryBeverages,
				CostPrice:    decimal.NewFromFloat(0.30),
				SellingPrice: decimal.NewFromFloat(0.75),
				Quantity:     100,
			}
		}
	})

	b.Run("ListResult", func(b *testing.B) {
		items := helpers.CreateTestItems(100)

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = &ports.InventoryListResult{
				Items:      items,
				Page:       1,
				PageSize:   50,
				TotalCount: 100,
				TotalPages: 2,
			}
		}
	})
}
