// internal/handlers/export_handler_test.go
package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/shopledger-be/internal/handlers"
	"github.com/ammerola/shopledger-be/test/helpers"
	"github.com/ammerola/shopledger-be/test/mocks"
)

func TestExportHandler_ExportSales(t *testing.T) {
	t.Run("streams_workbook", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		service := mocks.NewMockExportService(ctrl)
		handler := handlers.NewExportHandler(service, helpers.TestLogger())

		payload := []byte("PK\x03\x04workbook-bytes")
		service.EXPECT().
			SalesReport(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(payload, "sales_report_20240101_20240201.xlsx", nil)

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/export/sales?from=2024-01-01&to=2024-02-01", nil)
		w := httptest.NewRecorder()

		handler.ExportSales(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"),
			`filename="sales_report_20240101_20240201.xlsx"`)
		assert.Equal(t, payload, w.Body.Bytes())
	})

	t.Run("invalid_window_parameter", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		service := mocks.NewMockExportService(ctrl)
		handler := handlers.NewExportHandler(service, helpers.TestLogger())

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/export/sales?from=not-a-date", nil)
		w := httptest.NewRecorder()

		handler.ExportSales(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
