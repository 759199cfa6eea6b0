// internal/core/services/return_service_test.go
package services_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
	"github.com/ammerola/shopledger-be/internal/core/services"
	"github.com/ammerola/shopledger-be/test/helpers"
	"github.com/ammerola/shopledger-be/test/mocks"
)

type returnServiceMocks struct {
	returns   *mocks.MockReturnRepository
	sales     *mocks.MockSaleRepository
	customers *mocks.MockCustomerRepository
	db        *mocks.MockDatabase
	cache     *mocks.MockCacheRepository
}

func newReturnService(t *testing.T) (*services.ReturnService, *returnServiceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := &returnServiceMocks{
		returns:   mocks.NewMockReturnRepository(ctrl),
		sales:     mocks.NewMockSaleRepository(ctrl),
		customers: mocks.NewMockCustomerRepository(ctrl),
		db:        mocks.NewMockDatabase(ctrl),
		cache:     mocks.NewMockCacheRepository(ctrl),
	}

	service := services.NewReturnService(
		m.returns, m.sales, m.customers, m.db, m.cache, helpers.TestLogger())

	return service, m
}

func (m *returnServiceMocks) expectTransaction() {
	m.db.EXPECT().
		Transaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(pgx.Tx) error) error {
			return fn(nil)
		})
}

func TestReturnService_RequestReturn(t *testing.T) {
	service, m := newReturnService(t)

	sale := helpers.CreateTestSale()
	req := ports.ReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Reason:    "damaged packaging",
		Items: []ports.ReturnLineItem{
			{ItemID: sale.Items[0].ItemID, Quantity: 2},
		},
	}

	m.sales.EXPECT().FindByInvoiceNo(gomock.Any(), sale.InvoiceNo).Return(sale, nil)
	m.returns.EXPECT().ExistsForSale(gomock.Any(), sale.ID).Return(false, nil)
	m.expectTransaction()
	m.returns.EXPECT().
		Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, tx pgx.Tx, ret *domain.Return) error {
			ret.ID = 11
			return nil
		})

	ret, err := service.RequestReturn(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.ReturnPending, ret.Status)
	assert.Equal(t, sale.ID, ret.SaleID)
	assert.Equal(t, "RET-00011", ret.Reference())
	require.Len(t, ret.Items, 1)

	// Refunded at the price actually charged on the invoice line
	line := sale.Items[0]
	assert.True(t, ret.Items[0].RefundPrice.Equal(line.ActualUnitPrice))
	expectedRefund := line.ActualUnitPrice.Mul(decimal.NewFromInt(2))
	assert.True(t, ret.RefundTotal.Equal(expectedRefund), "refund = %s", ret.RefundTotal)
}

func TestReturnService_RequestReturn_AgreedAmount(t *testing.T) {
	// The counter may settle on a lower refund than the invoice line implies.
	// The agreed figure replaces the derived total and the profit adjustment
	// absorbs the difference against the derived cost.
	service, m := newReturnService(t)

	sale := helpers.CreateTestSale()
	line := sale.Items[0]
	agreed := line.ActualUnitPrice.Div(decimal.NewFromInt(2)).Round(2)

	req := ports.ReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Reason:    "partial refund agreed",
		Amount:    &agreed,
		Items:     []ports.ReturnLineItem{{ItemID: line.ItemID, Quantity: 1}},
	}

	m.sales.EXPECT().FindByInvoiceNo(gomock.Any(), sale.InvoiceNo).Return(sale, nil)
	m.returns.EXPECT().ExistsForSale(gomock.Any(), sale.ID).Return(false, nil)
	m.expectTransaction()
	m.returns.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	ret, err := service.RequestReturn(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, ret.RefundTotal.Equal(agreed), "refund total = %s", ret.RefundTotal)
	expectedCost := line.CostPrice
	assert.True(t, ret.RefundCost.Equal(expectedCost))
	assert.True(t, ret.RefundProfit.Equal(agreed.Sub(expectedCost)),
		"refund profit = %s", ret.RefundProfit)
}

func TestReturnService_RequestReturn_AmountValidation(t *testing.T) {
	sale := helpers.CreateTestSale()
	line := sale.Items[0]

	tooMuch := line.ActualUnitPrice.Add(decimal.NewFromInt(1))
	zero := decimal.Zero

	tests := []struct {
		name     string
		amount   *decimal.Decimal
		errorMsg string
	}{
		{name: "zero_amount", amount: &zero, errorMsg: "must be positive"},
		{name: "exceeds_derived_total", amount: &tooMuch, errorMsg: "cannot exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newReturnService(t)

			req := ports.ReturnRequest{
				InvoiceNo: sale.InvoiceNo,
				Amount:    tt.amount,
				Items:     []ports.ReturnLineItem{{ItemID: line.ItemID, Quantity: 1}},
			}

			m.sales.EXPECT().FindByInvoiceNo(gomock.Any(), sale.InvoiceNo).Return(sale, nil)
			m.returns.EXPECT().ExistsForSale(gomock.Any(), sale.ID).Return(false, nil)

			ret, err := service.RequestReturn(context.Background(), req)
			require.Error(t, err)
			assert.Nil(t, ret)
			assert.True(t, domain.IsValidation(err))
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestReturnService_RequestReturn_DuplicatePreCheck(t *testing.T) {
	service, m := newReturnService(t)

	sale := helpers.CreateTestSale()
	req := ports.ReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Items:     []ports.ReturnLineItem{{ItemID: sale.Items[0].ItemID, Quantity: 1}},
	}

	m.sales.EXPECT().FindByInvoiceNo(gomock.Any(), sale.InvoiceNo).Return(sale, nil)
	m.returns.EXPECT().ExistsForSale(gomock.Any(), sale.ID).Return(true, nil)

	ret, err := service.RequestReturn(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, ret)
	assert.ErrorIs(t, err, domain.ErrDuplicateReturn)
}

func TestReturnService_RequestReturn_DuplicateRace(t *testing.T) {
	// Two requests pass the existence check concurrently; the loser hits
	// the unique index and must surface the same duplicate error.
	service, m := newReturnService(t)

	sale := helpers.CreateTestSale()
	req := ports.ReturnRequest{
		InvoiceNo: sale.InvoiceNo,
		Items:     []ports.ReturnLineItem{{ItemID: sale.Items[0].ItemID, Quantity: 1}},
	}

	m.sales.EXPECT().FindByInvoiceNo(gomock.Any(), sale.InvoiceNo).Return(sale, nil)
	m.returns.EXPECT().ExistsForSale(gomock.Any(), sale.ID).Return(false, nil)
	m.expectTransaction()
	m.returns.EXPECT().
		Create(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.ErrConstraintViolation)

	ret, err := service.RequestReturn(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, ret)
	assert.ErrorIs(t, err, domain.ErrDuplicateReturn)
}

func TestReturnService_RequestReturn_Validation(t *testing.T) {
	sale := helpers.CreateTestSale()

	tests := []struct {
		name       string
		req        ports.ReturnRequest
		setupMocks func(*returnServiceMocks)
		errorMsg   string
	}{
		{
			name:       "missing_invoice_no",
			req:        ports.ReturnRequest{Items: []ports.ReturnLineItem{{ItemID: 1, Quantity: 1}}},
			setupMocks: func(m *returnServiceMocks) {},
			errorMsg:   "invoice_no",
		},
		{
			name:       "no_items",
			req:        ports.ReturnRequest{InvoiceNo: sale.InvoiceNo},
			setupMocks: func(m *returnServiceMocks) {},
			errorMsg:   "at least one item",
		},
		{
			name: "item_not_on_invoice",
			req: ports.ReturnRequest{
				InvoiceNo: sale.InvoiceNo,
				Items:     []ports.ReturnLineItem{{ItemID: 999, Quantity: 1}},
			},
			setupMocks: func(m *returnServiceMocks) {
				m.sales.EXPECT().FindByInvoiceNo(gomock.Any(), sale.InvoiceNo).Return(sale, nil)
				m.returns.EXPECT().ExistsForSale(gomock.Any(), sale.ID).Return(false, nil)
			},
			errorMsg: "was not part of invoice",
		},
		{
			name: "quantity_exceeds_sold",
			req: ports.ReturnRequest{
				InvoiceNo: sale.InvoiceNo,
				Items: []ports.ReturnLineItem{
					{ItemID: sale.Items[0].ItemID, Quantity: sale.Items[0].Quantity + 1},
				},
			},
			setupMocks: func(m *returnServiceMocks) {
				m.sales.EXPECT().FindByInvoiceNo(gomock.Any(), sale.InvoiceNo).Return(sale, nil)
				m.returns.EXPECT().ExistsForSale(gomock.Any(), sale.ID).Return(false, nil)
			},
			errorMsg: "were sold",
		},
		{
			name: "non_positive_quantity",
			req: ports.ReturnRequest{
				InvoiceNo: sale.InvoiceNo,
				Items:     []ports.ReturnLineItem{{ItemID: sale.Items[0].ItemID, Quantity: 0}},
			},
			setupMocks: func(m *returnServiceMocks) {
				m.sales.EXPECT().FindByInvoiceNo(gomock.Any(), sale.InvoiceNo).Return(sale, nil)
				m.returns.EXPECT().ExistsForSale(gomock.Any(), sale.ID).Return(false, nil)
			},
			errorMsg: "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newReturnService(t)
			tt.setupMocks(m)

			ret, err := service.RequestReturn(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, ret)
			assert.True(t, domain.IsValidation(err))
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestReturnService_Approve(t *testing.T) {
	service, m := newReturnService(t)

	pending := helpers.CreateTestReturn(func(r *domain.Return) {
		r.CustomerID = 42
	})

	m.expectTransaction()
	m.returns.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), pending.ID).
		Return(pending, nil)
	m.sales.EXPECT().
		ApplyReturn(gomock.Any(), gomock.Any(), pending.SaleID, pending).
		Return(nil)
	m.customers.EXPECT().
		ApplyReturn(gomock.Any(), gomock.Any(), int64(42), pending).
		Return(nil)
	m.returns.EXPECT().
		SetItemsCondition(gomock.Any(), gomock.Any(), pending.ID, domain.ConditionApproved).
		Return(nil)
	m.returns.EXPECT().
		Resolve(gomock.Any(), gomock.Any(), pending.ID, gomock.Any()).
		DoAndReturn(func(ctx context.Context, tx pgx.Tx, id int64, res domain.ReturnResolution) error {
			assert.Equal(t, domain.ReturnApproved, res.Status)
			assert.Equal(t, "maria", res.Actor)
			return nil
		})
	m.cache.EXPECT().DeletePattern(gomock.Any(), services.DashboardCachePattern).Return(nil)

	ret, err := service.Approve(context.Background(), pending.ID, "maria")
	require.NoError(t, err)

	assert.Equal(t, domain.ReturnApproved, ret.Status)
	assert.Equal(t, "maria", ret.ApprovedBy)
	require.NotNil(t, ret.ApprovedAt)
	for _, item := range ret.Items {
		assert.Equal(t, domain.ConditionApproved, item.Condition)
	}
}

func TestReturnService_Approve_WalkInSkipsCustomer(t *testing.T) {
	service, m := newReturnService(t)

	pending := helpers.CreateTestReturn(func(r *domain.Return) {
		r.CustomerID = domain.WalkInCustomerID
	})

	m.expectTransaction()
	m.returns.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), pending.ID).
		Return(pending, nil)
	m.sales.EXPECT().
		ApplyReturn(gomock.Any(), gomock.Any(), pending.SaleID, pending).
		Return(nil)
	// No customers.ApplyReturn expectation: walk-in has no ledger row
	m.returns.EXPECT().
		SetItemsCondition(gomock.Any(), gomock.Any(), pending.ID, domain.ConditionApproved).
		Return(nil)
	m.returns.EXPECT().
		Resolve(gomock.Any(), gomock.Any(), pending.ID, gomock.Any()).
		Return(nil)
	m.cache.EXPECT().DeletePattern(gomock.Any(), gomock.Any()).Return(nil)

	_, err := service.Approve(context.Background(), pending.ID, "maria")
	require.NoError(t, err)
}

func TestReturnService_Approve_AlreadyApprovedIsIdempotent(t *testing.T) {
	service, m := newReturnService(t)

	approved := helpers.CreateTestReturn(func(r *domain.Return) {
		r.Status = domain.ReturnApproved
	})

	m.expectTransaction()
	m.returns.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), approved.ID).
		Return(approved, nil)
	// No ApplyReturn or Resolve: the figures must not be reversed twice
	m.cache.EXPECT().DeletePattern(gomock.Any(), gomock.Any()).Return(nil)

	ret, err := service.Approve(context.Background(), approved.ID, "maria")
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnApproved, ret.Status)
}

func TestReturnService_Approve_RejectedFails(t *testing.T) {
	service, m := newReturnService(t)

	rejected := helpers.CreateTestReturn(func(r *domain.Return) {
		r.Status = domain.ReturnRejected
	})

	m.expectTransaction()
	m.returns.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), rejected.ID).
		Return(rejected, nil)

	ret, err := service.Approve(context.Background(), rejected.ID, "maria")
	require.Error(t, err)
	assert.Nil(t, ret)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "already been rejected")
}

func TestReturnService_Approve_NotFound(t *testing.T) {
	service, m := newReturnService(t)

	m.expectTransaction()
	m.returns.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), int64(404)).
		Return(nil, domain.ErrReturnNotFound)

	ret, err := service.Approve(context.Background(), 404, "maria")
	require.Error(t, err)
	assert.Nil(t, ret)
	assert.ErrorIs(t, err, domain.ErrReturnNotFound)
}

func TestReturnService_Reject(t *testing.T) {
	service, m := newReturnService(t)

	pending := helpers.CreateTestReturn()

	m.expectTransaction()
	m.returns.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any(), pending.ID).
		Return(pending, nil)
	m.returns.EXPECT().
		DeleteItems(gomock.Any(), gomock.Any(), pending.ID).
		Return(nil)
	m.returns.EXPECT().
		Resolve(gomock.Any(), gomock.Any(), pending.ID, gomock.Any()).
		DoAndReturn(func(ctx context.Context, tx pgx.Tx, id int64, res domain.ReturnResolution) error {
			assert.Equal(t, domain.ReturnRejected, res.Status)
			assert.Equal(t, "admin", res.Actor)
			assert.Equal(t, "items show wear", res.RejectionReason)
			return nil
		})

	ret, err := service.Reject(context.Background(), pending.ID, "admin", "items show wear")
	require.NoError(t, err)

	assert.Equal(t, domain.ReturnRejected, ret.Status)
	assert.Nil(t, ret.Items)
	assert.Equal(t, "admin", ret.RejectedBy)
	assert.Equal(t, "items show wear", ret.RejectionReason)
	require.NotNil(t, ret.RejectedAt)
}

func TestReturnService_Reject_NonPendingFails(t *testing.T) {
	tests := []struct {
		name   string
		status domain.ReturnStatus
	}{
		{name: "already_approved", status: domain.ReturnApproved},
		{name: "already_rejected", status: domain.ReturnRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newReturnService(t)

			resolved := helpers.CreateTestReturn(func(r *domain.Return) {
				r.Status = tt.status
			})

			m.expectTransaction()
			m.returns.EXPECT().
				FindByIDForUpdate(gomock.Any(), gomock.Any(), resolved.ID).
				Return(resolved, nil)

			ret, err := service.Reject(context.Background(), resolved.ID, "admin", "too late")
			require.Error(t, err)
			assert.Nil(t, ret)
			assert.True(t, domain.IsValidation(err))
			assert.Contains(t, err.Error(), "cannot reject")
		})
	}
}

func TestReturnService_List(t *testing.T) {
	t.Run("valid_status_filter", func(t *testing.T) {
		service, m := newReturnService(t)

		expected := []*domain.Return{helpers.CreateTestReturn()}
		m.returns.EXPECT().
			List(gomock.Any(), domain.ReturnPending, 1, 20).
			Return(expected, int64(1), nil)

		returns, total, err := service.List(context.Background(), domain.ReturnPending, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, expected, returns)
		assert.Equal(t, int64(1), total)
	})

	t.Run("invalid_status", func(t *testing.T) {
		service, _ := newReturnService(t)

		returns, _, err := service.List(context.Background(), domain.ReturnStatus("refunded"), 1, 20)
		require.Error(t, err)
		assert.Nil(t, returns)
		assert.True(t, domain.IsValidation(err))
	})
}
