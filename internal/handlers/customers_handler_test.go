// internal/handlers/customers_handler_test.go
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
	"github.com/ammerola/shopledger-be/internal/handlers"
	"github.com/ammerola/shopledger-be/test/helpers"
	"github.com/ammerola/shopledger-be/test/mocks"
)

func newCustomerHandler(t *testing.T) (*handlers.CustomerHandler, *mocks.MockCustomerRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCustomerRepository(ctrl)
	return handlers.NewCustomerHandler(repo, helpers.TestLogger()), repo
}

func TestCustomerHandler_CreateCustomer(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockCustomerRepository)
		expectedStatus int
	}{
		{
			name: "creates_customer",
			body: `{"name": "Maria Santos", "phone": "+63-912-555-0101"}`,
			setupMocks: func(repo *mocks.MockCustomerRepository) {
				repo.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, c *domain.Customer) error {
						c.ID = 1
						return nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing_name",
			body:           `{"phone": "+63-912-555-0101"}`,
			setupMocks:     func(repo *mocks.MockCustomerRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_json",
			body:           `{nope`,
			setupMocks:     func(repo *mocks.MockCustomerRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, repo := newCustomerHandler(t)
			tt.setupMocks(repo)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/customers",
				bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateCustomer(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestCustomerHandler_GetCustomer(t *testing.T) {
	t.Run("returns_customer", func(t *testing.T) {
		handler, repo := newCustomerHandler(t)

		repo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(helpers.CreateTestCustomer(), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/1", nil)
		req.SetPathValue("id", "1")
		w := httptest.NewRecorder()

		handler.GetCustomer(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var customer domain.Customer
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &customer))
		assert.Equal(t, "Maria Santos", customer.Name)
	})

	t.Run("not_found", func(t *testing.T) {
		handler, repo := newCustomerHandler(t)

		repo.EXPECT().FindByID(gomock.Any(), int64(404)).Return(nil, domain.ErrCustomerNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/404", nil)
		req.SetPathValue("id", "404")
		w := httptest.NewRecorder()

		handler.GetCustomer(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCustomerHandler_ListCustomers(t *testing.T) {
	handler, repo := newCustomerHandler(t)

	repo.EXPECT().
		List(gomock.Any(), 2, 25).
		Return([]*domain.Customer{helpers.CreateTestCustomer()}, int64(26), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers?page=2&limit=25", nil)
	w := httptest.NewRecorder()

	handler.ListCustomers(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "customers")
	assert.Contains(t, body, "total")
}
