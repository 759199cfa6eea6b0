// internal/handlers/sales_handler_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
	"github.com/ammerola/shopledger-be/internal/handlers"
	"github.com/ammerola/shopledger-be/test/helpers"
	"github.com/ammerola/shopledger-be/test/mocks"
)

func newSaleHandler(t *testing.T) (*handlers.SaleHandler, *mocks.MockSaleService) {
	t.Helper()

	ctrl := gomock.NewController(t)
	service := mocks.NewMockSaleService(ctrl)
	return handlers.NewSaleHandler(service, helpers.TestLogger()), service
}

func TestSaleHandler_CreateSale(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockSaleService)
		expectedStatus int
	}{
		{
			name: "creates_sale",
			body: `{"customer_id": 0, "items": [{"item_id": 1, "quantity": 2, "price": "0.75"}]}`,
			setupMocks: func(s *mocks.MockSaleService) {
				s.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
						assert.Equal(t, domain.WalkInCustomerID, sale.CustomerID)
						require.Len(t, sale.Items, 1)
						assert.Equal(t, int64(1), sale.Items[0].ItemID)
						assert.Equal(t, "0.75", sale.Items[0].ActualUnitPrice.String())
						return helpers.CreateTestSale(), nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing_price_uses_list_price",
			body: `{"customer_id": 0, "items": [{"item_id": 1, "quantity": 2}]}`,
			setupMocks: func(s *mocks.MockSaleService) {
				s.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
						require.Len(t, sale.Items, 1)
						assert.True(t, sale.Items[0].UseListPrice)
						assert.True(t, sale.Items[0].ActualUnitPrice.IsZero())
						return helpers.CreateTestSale(), nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "seller_and_payment_method",
			body: `{"customer_id": 0, "seller_id": 7, "seller_name": "Maria", "payment_method": "card",
				"items": [{"item_id": 1, "quantity": 1, "price": "0.75"}]}`,
			setupMocks: func(s *mocks.MockSaleService) {
				s.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
						assert.Equal(t, int64(7), sale.SellerID)
						assert.Equal(t, "Maria", sale.SellerName)
						assert.Equal(t, "card", sale.PaymentMethod)
						return helpers.CreateTestSale(), nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid_json",
			body:           `{not json`,
			setupMocks:     func(s *mocks.MockSaleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "no_items",
			body:           `{"customer_id": 0, "items": []}`,
			setupMocks:     func(s *mocks.MockSaleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative_customer_id",
			body:           `{"customer_id": -1, "items": [{"item_id": 1, "quantity": 1, "price": "1.00"}]}`,
			setupMocks:     func(s *mocks.MockSaleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "zero_quantity",
			body:           `{"customer_id": 0, "items": [{"item_id": 1, "quantity": 0, "price": "1.00"}]}`,
			setupMocks:     func(s *mocks.MockSaleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "insufficient_stock_conflict",
			body: `{"customer_id": 0, "items": [{"item_id": 1, "quantity": 500, "price": "0.75"}]}`,
			setupMocks: func(s *mocks.MockSaleService) {
				s.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					Return(nil, domain.ErrInsufficientStock)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "unknown_item_not_found",
			body: `{"customer_id": 0, "items": [{"item_id": 999, "quantity": 1, "price": "0.75"}]}`,
			setupMocks: func(s *mocks.MockSaleService) {
				s.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					Return(nil, domain.ErrItemNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "unknown_customer_not_found",
			body: `{"customer_id": 99, "items": [{"item_id": 1, "quantity": 1, "price": "0.75"}]}`,
			setupMocks: func(s *mocks.MockSaleService) {
				s.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					Return(nil, domain.ErrCustomerNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := newSaleHandler(t)
			tt.setupMocks(service)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sales",
				bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateSale(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestSaleHandler_GetSale(t *testing.T) {
	tests := []struct {
		name           string
		invoiceNo      string
		setupMocks     func(*mocks.MockSaleService)
		expectedStatus int
	}{
		{
			name:      "returns_sale",
			invoiceNo: "TRN-00001",
			setupMocks: func(s *mocks.MockSaleService) {
				s.EXPECT().
					GetByInvoiceNo(gomock.Any(), "TRN-00001").
					Return(helpers.CreateTestSale(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:      "not_found",
			invoiceNo: "TRN-99999",
			setupMocks: func(s *mocks.MockSaleService) {
				s.EXPECT().
					GetByInvoiceNo(gomock.Any(), "TRN-99999").
					Return(nil, domain.ErrSaleNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := newSaleHandler(t)
			tt.setupMocks(service)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/"+tt.invoiceNo, nil)
			req.SetPathValue("invoiceNo", tt.invoiceNo)
			w := httptest.NewRecorder()

			handler.GetSale(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var sale domain.Sale
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sale))
				assert.Equal(t, "TRN-00001", sale.InvoiceNo)
			}
		})
	}
}

func TestSaleHandler_ListSales(t *testing.T) {
	t.Run("applies_filters", func(t *testing.T) {
		handler, service := newSaleHandler(t)

		service.EXPECT().
			List(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, params ports.SaleListParams) (*ports.SaleListResult, error) {
				assert.Equal(t, 2, params.Page)
				assert.Equal(t, 100, params.PageSize, "limit above cap must clamp to 100")
				require.NotNil(t, params.CustomerID)
				assert.Equal(t, int64(42), *params.CustomerID)
				require.NotNil(t, params.From)
				assert.Equal(t, "asc", params.SortOrder)
				return &ports.SaleListResult{Page: 2, PageSize: 100}, nil
			})

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/sales?page=2&limit=250&customer_id=42&from=2024-01-01T00:00:00Z&order=asc", nil)
		w := httptest.NewRecorder()

		handler.ListSales(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects_bad_timestamp", func(t *testing.T) {
		handler, _ := newSaleHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/sales?from=yesterday", nil)
		w := httptest.NewRecorder()

		handler.ListSales(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects_bad_customer_id", func(t *testing.T) {
		handler, _ := newSaleHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/sales?customer_id=abc", nil)
		w := httptest.NewRecorder()

		handler.ListSales(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
