// internal/handlers/inventory_handler_test.go
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

func newInventoryHandler(t *testing.T) (*handlers.InventoryHandler, *mocks.MockInventoryService) {
	t.Helper()

	ctrl := gomock.NewController(t)
	service := mocks.NewMockInventoryService(ctrl)
	return handlers.NewInventoryHandler(service, helpers.TestLogger()), service
}

func TestInventoryHandler_GetItem(t *testing.T) {
	tests := []struct {
		name           string
		itemID         string
		setupMocks     func(*mocks.MockInventoryService)
		expectedStatus int
	}{
		{
			name:   "returns_item",
			itemID: "1",
			setupMocks: func(s *mocks.MockInventoryService) {
				s.EXPECT().GetByID(gomock.Any(), int64(1)).Return(helpers.CreateTestItem(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "not_found",
			itemID: "404",
			setupMocks: func(s *mocks.MockInventoryService) {
				s.EXPECT().GetByID(gomock.Any(), int64(404)).Return(nil, domain.ErrItemNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad_id",
			itemID:         "abc",
			setupMocks:     func(s *mocks.MockInventoryService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := newInventoryHandler(t)
			tt.setupMocks(service)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/"+tt.itemID, nil)
			req.SetPathValue("id", tt.itemID)
			w := httptest.NewRecorder()

			handler.GetItem(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestInventoryHandler_CreateItem(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockInventoryService)
		expectedStatus int
	}{
		{
			name: "creates_item",
			body: `{"item_code": "HRD-001", "item_name": "Claw Hammer", "category": "hardware", "cost_price": "4.50", "selling_price": "8.00", "quantity": 15}`,
			setupMocks: func(s *mocks.MockInventoryService) {
				s.EXPECT().
					SaveItem(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, item *domain.InventoryItem) error {
						assert.Equal(t, "HRD-001", item.ItemCode)
						assert.Equal(t, domain.CategoryHardware, item.Category)
						item.ID = 9
						return nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing_item_code",
			body:           `{"item_name": "Claw Hammer", "cost_price": "4.50", "selling_price": "8.00"}`,
			setupMocks:     func(s *mocks.MockInventoryService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative_quantity",
			body:           `{"item_code": "HRD-001", "item_name": "Claw Hammer", "quantity": -5}`,
			setupMocks:     func(s *mocks.MockInventoryService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_json",
			body:           `{oops`,
			setupMocks:     func(s *mocks.MockInventoryService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate_code_conflict",
			body: `{"item_code": "BEV-001", "item_name": "Mineral Water 500ml", "cost_price": "0.30", "selling_price": "0.75", "quantity": 10}`,
			setupMocks: func(s *mocks.MockInventoryService) {
				s.EXPECT().
					SaveItem(gomock.Any(), gomock.Any()).
					Return(domain.ErrConstraintViolation)
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := newInventoryHandler(t)
			tt.setupMocks(service)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory",
				bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateItem(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestInventoryHandler_UpdateItem(t *testing.T) {
	handler, service := newInventoryHandler(t)

	service.EXPECT().
		UpdateItem(gomock.Any(), int64(5), gomock.Any()).
		DoAndReturn(func(ctx context.Context, id int64, item *domain.InventoryItem) error {
			assert.Equal(t, "BEV-001", item.ItemCode)
			assert.Equal(t, 80, item.Quantity)
			return nil
		})

	body := `{"item_code": "BEV-001", "item_name": "Mineral Water 500ml", "cost_price": "0.30", "selling_price": "0.75", "quantity": 80}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/inventory/5",
		bytes.NewBufferString(body))
	req.SetPathValue("id", "5")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.UpdateItem(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInventoryHandler_DeleteItem(t *testing.T) {
	handler, service := newInventoryHandler(t)

	service.EXPECT().DeleteItem(gomock.Any(), int64(3)).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/inventory/3", nil)
	req.SetPathValue("id", "3")
	w := httptest.NewRecorder()

	handler.DeleteItem(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInventoryHandler_ListItems(t *testing.T) {
	handler, service := newInventoryHandler(t)

	service.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, params ports.InventoryListParams) (*ports.InventoryListResult, error) {
			assert.Equal(t, "water", params.Search)
			assert.Equal(t, "beverages", params.Category)
			assert.True(t, params.LowStock)
			assert.Equal(t, 100, params.PageSize, "limit above cap must clamp to 100")
			return &ports.InventoryListResult{
				Items:    []*domain.InventoryItem{helpers.CreateTestItem()},
				Page:     1,
				PageSize: 100,
			}, nil
		})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/inventory?search=water&category=beverages&low_stock=true&limit=500", nil)
	w := httptest.NewRecorder()

	handler.ListItems(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInventoryHandler_ListLowStock(t *testing.T) {
	handler, service := newInventoryHandler(t)

	low := helpers.CreateTestItem(func(i *domain.InventoryItem) {
		i.Quantity = 2
	})
	service.EXPECT().ListLowStock(gomock.Any()).Return([]*domain.InventoryItem{low}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/low-stock", nil)
	w := httptest.NewRecorder()

	handler.ListLowStock(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Items []*domain.InventoryItem `json:"items"`
		Count int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Items, 1)
}
