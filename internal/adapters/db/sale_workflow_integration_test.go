//go:build integration
// +build integration

package db_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/shopledger-be/internal/adapters/db"
	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
	"github.com/ammerola/shopledger-be/internal/core/services"
	"github.com/ammerola/shopledger-be/test/helpers"
)

// SaleWorkflowSuite drives the sale and return services against a real
// database, covering the invoice numbering, stock movement and ledger
// arithmetic that unit tests only mock.
type SaleWorkflowSuite struct {
	suite.Suite
	testDB    *helpers.TestDB
	sales     ports.SaleService
	returns   ports.ReturnService
	inventory ports.InventoryRepository
	customers ports.CustomerRepository
	saleRepo  ports.SaleRepository
	ctx       context.Context
}

func (s *SaleWorkflowSuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	logger := helpers.TestLogger()

	s.inventory = db.NewInventoryRepository(s.testDB.Database, logger)
	s.customers = db.NewCustomerRepository(s.testDB.Database, logger)
	s.saleRepo = db.NewSaleRepository(s.testDB.Database, logger)
	returnRepo := db.NewReturnRepository(s.testDB.Database, logger)

	s.sales = services.NewSaleService(
		s.saleRepo, s.inventory, s.customers, s.testDB.Database, nil, logger)
	s.returns = services.NewReturnService(
		returnRepo, s.saleRepo, s.customers, s.testDB.Database, nil, logger)
	s.ctx = context.Background()
}

func (s *SaleWorkflowSuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *SaleWorkflowSuite) seedWater(qty int) int64 {
	ids := helpers.SeedInventory(s.T(), s.testDB.PgxPool, []*domain.InventoryItem{
		helpers.CreateTestItem(func(i *domain.InventoryItem) {
			i.ID = 0
			i.Quantity = qty
		}),
	})
	return ids["BEV-001"]
}

func (s *SaleWorkflowSuite) TestWalkInSale() {
	itemID := s.seedWater(10)

	sale, err := s.sales.CreateSale(s.ctx, &domain.Sale{
		CustomerID: domain.WalkInCustomerID,
		Items: []domain.SaleLineItem{
			{ItemID: itemID, Quantity: 4, ActualUnitPrice: decimal.NewFromFloat(0.70)},
		},
	})
	s.Require().NoError(err)

	s.Equal(domain.FormatInvoiceNo(sale.ID), sale.InvoiceNo)
	s.True(sale.Total.Equal(decimal.NewFromFloat(2.80)))
	s.True(sale.Profit.Equal(decimal.NewFromFloat(1.60)))

	// Stock was decremented
	item, err := s.inventory.FindByID(s.ctx, itemID)
	s.Require().NoError(err)
	s.Equal(6, item.Quantity)

	// The persisted row carries the stamped invoice number
	found, err := s.sales.GetByInvoiceNo(s.ctx, sale.InvoiceNo)
	s.Require().NoError(err)
	s.Equal(sale.ID, found.ID)
	s.Len(found.Items, 1)
	s.True(found.Items[0].CostPrice.Equal(decimal.NewFromFloat(0.30)),
		"line must carry the denormalized cost price")
}

func (s *SaleWorkflowSuite) TestSale_InsufficientStockRollsBack() {
	itemID := s.seedWater(2)

	_, err := s.sales.CreateSale(s.ctx, &domain.Sale{
		CustomerID: domain.WalkInCustomerID,
		Items: []domain.SaleLineItem{
			{ItemID: itemID, Quantity: 5, ActualUnitPrice: decimal.NewFromFloat(0.75)},
		},
	})
	s.ErrorIs(err, domain.ErrInsufficientStock)

	item, err := s.inventory.FindByID(s.ctx, itemID)
	s.Require().NoError(err)
	s.Equal(2, item.Quantity)

	var saleCount int64
	s.Require().NoError(s.testDB.PgxPool.QueryRow(s.ctx,
		`SELECT COUNT(*) FROM sales`).Scan(&saleCount))
	s.Zero(saleCount, "no sale row may survive the rollback")
}

func (s *SaleWorkflowSuite) TestRegisteredCustomerSaleAndReturn() {
	itemID := s.seedWater(20)
	customerID := helpers.SeedCustomer(s.T(), s.testDB.PgxPool, helpers.CreateTestCustomer())

	sale, err := s.sales.CreateSale(s.ctx, &domain.Sale{
		CustomerID: customerID,
		Items: []domain.SaleLineItem{
			{ItemID: itemID, Quantity: 10, ActualUnitPrice: decimal.NewFromFloat(0.75)},
		},
	})
	s.Require().NoError(err)

	customer, err := s.customers.FindByID(s.ctx, customerID)
	s.Require().NoError(err)
	s.True(customer.TotalPurchases.Equal(sale.Total))
	s.True(customer.TotalProfit.Equal(sale.Profit))
	s.Equal(1, customer.PurchaseCount)

	// Return 4 of the 10 and approve
	ret, err := s.returns.RequestReturn(s.ctx, ports.ReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Reason:    "damaged packaging",
		Items:     []ports.ReturnLineItem{{ItemID: itemID, Quantity: 4}},
	})
	s.Require().NoError(err)
	s.Equal(domain.ReturnPending, ret.Status)

	approved, err := s.returns.Approve(s.ctx, ret.ID, "maria")
	s.Require().NoError(err)
	s.Equal(domain.ReturnApproved, approved.Status)
	s.Equal("maria", approved.ApprovedBy)
	s.Require().NotNil(approved.ApprovedAt)

	// Sale figures shrank by the refund and the sale is marked returned
	adjusted, err := s.saleRepo.FindByID(s.ctx, sale.ID)
	s.Require().NoError(err)
	s.Equal(domain.SaleReturned, adjusted.Status)
	s.True(adjusted.Total.Equal(sale.Total.Sub(ret.RefundTotal)),
		"sale total = %s, want %s less refund %s", adjusted.Total, sale.Total, ret.RefundTotal)
	s.True(adjusted.Profit.Equal(sale.Profit.Sub(ret.RefundProfit)))

	// Holding-area rows were marked accepted
	var condition string
	s.Require().NoError(s.testDB.PgxPool.QueryRow(s.ctx,
		`SELECT condition FROM returned_items WHERE return_id = $1`, ret.ID).Scan(&condition))
	s.Equal(string(domain.ConditionApproved), condition)

	// Customer totals shrank too, but the purchase count stays
	customer, err = s.customers.FindByID(s.ctx, customerID)
	s.Require().NoError(err)
	s.True(customer.TotalPurchases.Equal(sale.Total.Sub(ret.RefundTotal)))
	s.Equal(1, customer.PurchaseCount)
}

func (s *SaleWorkflowSuite) TestReturn_DuplicateBlocked() {
	itemID := s.seedWater(10)

	sale, err := s.sales.CreateSale(s.ctx, &domain.Sale{
		CustomerID: domain.WalkInCustomerID,
		Items: []domain.SaleLineItem{
			{ItemID: itemID, Quantity: 3, ActualUnitPrice: decimal.NewFromFloat(0.75)},
		},
	})
	s.Require().NoError(err)

	_, err = s.returns.RequestReturn(s.ctx, ports.ReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Items:     []ports.ReturnLineItem{{ItemID: itemID, Quantity: 1}},
	})
	s.Require().NoError(err)

	// A second request for the same invoice is refused even after the
	// first was rejected
	_, err = s.returns.RequestReturn(s.ctx, ports.ReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Items:     []ports.ReturnLineItem{{ItemID: itemID, Quantity: 2}},
	})
	s.ErrorIs(err, domain.ErrDuplicateReturn)
}

func (s *SaleWorkflowSuite) TestReturn_RejectDiscardsItems() {
	itemID := s.seedWater(10)

	sale, err := s.sales.CreateSale(s.ctx, &domain.Sale{
		CustomerID: domain.WalkInCustomerID,
		Items: []domain.SaleLineItem{
			{ItemID: itemID, Quantity: 3, ActualUnitPrice: decimal.NewFromFloat(0.75)},
		},
	})
	s.Require().NoError(err)

	ret, err := s.returns.RequestReturn(s.ctx, ports.ReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Items:     []ports.ReturnLineItem{{ItemID: itemID, Quantity: 2}},
	})
	s.Require().NoError(err)

	rejected, err := s.returns.Reject(s.ctx, ret.ID, "admin", "items show wear")
	s.Require().NoError(err)
	s.Equal(domain.ReturnRejected, rejected.Status)
	s.Equal("admin", rejected.RejectedBy)
	s.Equal("items show wear", rejected.RejectionReason)
	s.Require().NotNil(rejected.RejectedAt)
	s.Nil(rejected.Items)

	var itemCount int64
	s.Require().NoError(s.testDB.PgxPool.QueryRow(s.ctx,
		`SELECT COUNT(*) FROM returned_items WHERE return_id = $1`, ret.ID).Scan(&itemCount))
	s.Zero(itemCount)

	// Sale figures are untouched by a rejection
	unchanged, err := s.saleRepo.FindByID(s.ctx, sale.ID)
	s.Require().NoError(err)
	s.True(unchanged.Total.Equal(sale.Total))
}

func (s *SaleWorkflowSuite) TestReturn_ApproveIsIdempotent() {
	itemID := s.seedWater(10)

	sale, err := s.sales.CreateSale(s.ctx, &domain.Sale{
		CustomerID: domain.WalkInCustomerID,
		Items: []domain.SaleLineItem{
			{ItemID: itemID, Quantity: 3, ActualUnitPrice: decimal.NewFromFloat(0.75)},
		},
	})
	s.Require().NoError(err)

	ret, err := s.returns.RequestReturn(s.ctx, ports.ReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Items:     []ports.ReturnLineItem{{ItemID: itemID, Quantity: 2}},
	})
	s.Require().NoError(err)

	first, err := s.returns.Approve(s.ctx, ret.ID, "maria")
	s.Require().NoError(err)

	second, err := s.returns.Approve(s.ctx, ret.ID, "maria")
	s.Require().NoError(err)
	s.Equal(domain.ReturnApproved, second.Status)

	// The refund was applied exactly once
	adjusted, err := s.saleRepo.FindByID(s.ctx, sale.ID)
	s.Require().NoError(err)
	s.True(adjusted.Total.Equal(sale.Total.Sub(first.RefundTotal)))
}

func (s *SaleWorkflowSuite) TestConcurrentSalesNeverOversell() {
	// Many clients race for the same low-stock item. The row locks must
	// serialize them so total deductions never exceed what was on hand.
	const (
		initial    = 10
		perSale    = 3
		goroutines = 8
	)
	itemID := s.seedWater(initial)

	var wg sync.WaitGroup
	errs := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = s.sales.CreateSale(s.ctx, &domain.Sale{
				CustomerID: domain.WalkInCustomerID,
				Items: []domain.SaleLineItem{
					{ItemID: itemID, Quantity: perSale, ActualUnitPrice: decimal.NewFromFloat(0.75)},
				},
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		s.True(errors.Is(err, domain.ErrInsufficientStock),
			"losing sale must fail with insufficient stock, got %v", err)
	}
	s.LessOrEqual(successes, initial/perSale)

	item, err := s.inventory.FindByID(s.ctx, itemID)
	s.Require().NoError(err)
	s.Equal(initial-successes*perSale, item.Quantity)
	s.GreaterOrEqual(item.Quantity, 0)
}

func (s *SaleWorkflowSuite) TestReturn_AgreedAmountAdjustsLedger() {
	// A sale of 3 units at 1.50 each costing 1.00 each, then a full-quantity
	// return settled at 1.50 total. The agreed figure replaces the derived
	// refund and the sale ledger still balances: total minus cost equals
	// profit after the reversal.
	ids := helpers.SeedInventory(s.T(), s.testDB.PgxPool, []*domain.InventoryItem{
		helpers.CreateTestItem(func(i *domain.InventoryItem) {
			i.ID = 0
			i.Quantity = 10
			i.CostPrice = decimal.NewFromFloat(1.00)
			i.SellingPrice = decimal.NewFromFloat(1.50)
		}),
	})
	itemID := ids["BEV-001"]

	sale, err := s.sales.CreateSale(s.ctx, &domain.Sale{
		CustomerID: domain.WalkInCustomerID,
		Items: []domain.SaleLineItem{
			{ItemID: itemID, Quantity: 3, ActualUnitPrice: decimal.NewFromFloat(1.50)},
		},
	})
	s.Require().NoError(err)
	s.True(sale.Total.Equal(decimal.NewFromFloat(4.50)))
	s.True(sale.TotalCost.Equal(decimal.NewFromFloat(3.00)))
	s.True(sale.Profit.Equal(decimal.NewFromFloat(1.50)))

	agreed := decimal.NewFromFloat(1.50)
	ret, err := s.returns.RequestReturn(s.ctx, ports.ReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Reason:    "goodwill settlement",
		Amount:    &agreed,
		Items:     []ports.ReturnLineItem{{ItemID: itemID, Quantity: 3}},
	})
	s.Require().NoError(err)
	s.True(ret.RefundTotal.Equal(agreed))
	s.True(ret.RefundCost.Equal(decimal.NewFromFloat(3.00)))
	s.True(ret.RefundProfit.Equal(decimal.NewFromFloat(-1.50)),
		"profit adjustment = %s", ret.RefundProfit)

	_, err = s.returns.Approve(s.ctx, ret.ID, "maria")
	s.Require().NoError(err)

	adjusted, err := s.saleRepo.FindByID(s.ctx, sale.ID)
	s.Require().NoError(err)
	s.True(adjusted.Total.Equal(decimal.NewFromFloat(3.00)), "total = %s", adjusted.Total)
	s.True(adjusted.TotalCost.Equal(decimal.Zero), "cost = %s", adjusted.TotalCost)
	s.True(adjusted.Profit.Equal(decimal.NewFromFloat(3.00)), "profit = %s", adjusted.Profit)
	s.True(adjusted.Profit.Equal(adjusted.Total.Sub(adjusted.TotalCost)),
		"ledger identity must hold after the reversal")
}

func (s *SaleWorkflowSuite) TestInvoiceNumbersAreSequential() {
	itemID := s.seedWater(10)

	var invoices []string
	for i := 0; i < 3; i++ {
		sale, err := s.sales.CreateSale(s.ctx, &domain.Sale{
			CustomerID: domain.WalkInCustomerID,
			Items: []domain.SaleLineItem{
				{ItemID: itemID, Quantity: 1, ActualUnitPrice: decimal.NewFromFloat(0.75)},
			},
		})
		s.Require().NoError(err)
		invoices = append(invoices, sale.InvoiceNo)
	}

	s.Equal([]string{"TRN-00001", "TRN-00002", "TRN-00003"}, invoices)
}

func TestSaleWorkflowSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(SaleWorkflowSuite))
}
