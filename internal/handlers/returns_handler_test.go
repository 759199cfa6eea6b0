// internal/handlers/returns_handler_test.go
package handlers_test

import (
	"bytes"
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

func newReturnHandler(t *testing.T) (*handlers.ReturnHandler, *mocks.MockReturnService) {
	t.Helper()

	ctrl := gomock.NewController(t)
	service := mocks.NewMockReturnService(ctrl)
	return handlers.NewReturnHandler(service, helpers.TestLogger()), service
}

func TestReturnHandler_CreateReturn(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockReturnService)
		expectedStatus int
	}{
		{
			name: "creates_return",
			body: `{"invoice_no": "TRN-00001", "reason": "damaged packaging", "items": [{"item_id": 1, "quantity": 2}]}`,
			setupMocks: func(s *mocks.MockReturnService) {
				s.EXPECT().
					RequestReturn(gomock.Any(), gomock.Any()).
					Return(helpers.CreateTestReturn(), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid_json",
			body:           `{broken`,
			setupMocks:     func(s *mocks.MockReturnService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing_invoice_no",
			body:           `{"items": [{"item_id": 1, "quantity": 1}]}`,
			setupMocks:     func(s *mocks.MockReturnService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "no_items",
			body:           `{"invoice_no": "TRN-00001", "items": []}`,
			setupMocks:     func(s *mocks.MockReturnService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate_return_conflict",
			body: `{"invoice_no": "TRN-00001", "items": [{"item_id": 1, "quantity": 1}]}`,
			setupMocks: func(s *mocks.MockReturnService) {
				s.EXPECT().
					RequestReturn(gomock.Any(), gomock.Any()).
					Return(nil, domain.ErrDuplicateReturn)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "unknown_invoice_not_found",
			body: `{"invoice_no": "TRN-99999", "items": [{"item_id": 1, "quantity": 1}]}`,
			setupMocks: func(s *mocks.MockReturnService) {
				s.EXPECT().
					RequestReturn(gomock.Any(), gomock.Any()).
					Return(nil, domain.ErrSaleNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "item_not_on_invoice",
			body: `{"invoice_no": "TRN-00001", "items": [{"item_id": 999, "quantity": 1}]}`,
			setupMocks: func(s *mocks.MockReturnService) {
				s.EXPECT().
					RequestReturn(gomock.Any(), gomock.Any()).
					Return(nil, domain.NewValidationError("items.item_id",
						"item 999 was not part of invoice TRN-00001"))
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := newReturnHandler(t)
			tt.setupMocks(service)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/returns",
				bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateReturn(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestReturnHandler_ResolveReturn(t *testing.T) {
	tests := []struct {
		name           string
		returnID       string
		body           string
		setupMocks     func(*mocks.MockReturnService)
		expectedStatus int
	}{
		{
			name:     "approves_return",
			returnID: "1",
			body:     `{"action": "approve", "approved_by": "maria"}`,
			setupMocks: func(s *mocks.MockReturnService) {
				approved := helpers.CreateTestReturn(func(r *domain.Return) {
					r.Status = domain.ReturnApproved
					r.ApprovedBy = "maria"
				})
				s.EXPECT().Approve(gomock.Any(), int64(1), "maria").Return(approved, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:     "rejects_return",
			returnID: "1",
			body:     `{"action": "reject", "rejected_by": "admin", "rejection_reason": "items show wear"}`,
			setupMocks: func(s *mocks.MockReturnService) {
				rejected := helpers.CreateTestReturn(func(r *domain.Return) {
					r.Status = domain.ReturnRejected
					r.RejectedBy = "admin"
					r.RejectionReason = "items show wear"
					r.Items = nil
				})
				s.EXPECT().Reject(gomock.Any(), int64(1), "admin", "items show wear").Return(rejected, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown_action",
			returnID:       "1",
			body:           `{"action": "refund"}`,
			setupMocks:     func(s *mocks.MockReturnService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad_id",
			returnID:       "abc",
			body:           `{"action": "approve"}`,
			setupMocks:     func(s *mocks.MockReturnService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:     "not_found",
			returnID: "404",
			body:     `{"action": "approve"}`,
			setupMocks: func(s *mocks.MockReturnService) {
				s.EXPECT().Approve(gomock.Any(), int64(404), gomock.Any()).Return(nil, domain.ErrReturnNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:     "approve_after_reject",
			returnID: "2",
			body:     `{"action": "approve"}`,
			setupMocks: func(s *mocks.MockReturnService) {
				s.EXPECT().
					Approve(gomock.Any(), int64(2), gomock.Any()).
					Return(nil, domain.NewValidationError("status", "return has already been rejected"))
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := newReturnHandler(t)
			tt.setupMocks(service)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/returns/"+tt.returnID,
				bytes.NewBufferString(tt.body))
			req.SetPathValue("id", tt.returnID)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.ResolveReturn(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestReturnHandler_GetReturn(t *testing.T) {
	handler, service := newReturnHandler(t)

	service.EXPECT().GetByID(gomock.Any(), int64(1)).Return(helpers.CreateTestReturn(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/returns/1", nil)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()

	handler.GetReturn(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var ret domain.Return
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ret))
	assert.Equal(t, domain.ReturnPending, ret.Status)
}

func TestReturnHandler_ListReturns(t *testing.T) {
	t.Run("filters_by_status", func(t *testing.T) {
		handler, service := newReturnHandler(t)

		service.EXPECT().
			List(gomock.Any(), domain.ReturnPending, 1, 50).
			Return([]*domain.Return{helpers.CreateTestReturn()}, int64(1), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/returns?status=pending", nil)
		w := httptest.NewRecorder()

		handler.ListReturns(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Contains(t, body, "returns")
		assert.Contains(t, body, "total")
	})

	t.Run("invalid_status", func(t *testing.T) {
		handler, service := newReturnHandler(t)

		service.EXPECT().
			List(gomock.Any(), domain.ReturnStatus("refunded"), 1, 50).
			Return(nil, int64(0), domain.NewValidationError("status", "must be pending, approved or rejected"))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/returns?status=refunded", nil)
		w := httptest.NewRecorder()

		handler.ListReturns(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
