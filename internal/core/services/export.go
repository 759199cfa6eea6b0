// internal/core/services/export.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/shopledger-be/internal/core/domain"
	"github.com/ammerola/shopledger-be/internal/core/ports"
)

// ExportService renders sales over a window as an xlsx workbook.
type ExportService struct {
	analytics ports.AnalyticsRepository
	logger    *slog.Logger
}

// Statically assert that *ExportService implements the ExportService interface.
var _ ports.ExportService = (*ExportService)(nil)

// NewExportService creates a new export service
func NewExportService(analytics ports.AnalyticsRepository, logger *slog.Logger) *ExportService {
	return &ExportService{
		analytics: analytics,
		logger:    logger.With(slog.String("service", "export")),
	}
}

// SalesReport builds the workbook and returns its bytes plus a filename.
func (s *ExportService) SalesReport(ctx context.Context, from, to time.Time) ([]byte, string, error) {
	if !to.After(from) {
		return nil, "", domain.NewValidationError("to", "must be after from")
	}

	sales, err := s.analytics.SalesForExport(ctx, from, to)
	if err != nil {
		return nil, "", err
	}

	data, err := s.generateWorkbook(sales)
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("sales_report_%s_%s.xlsx",
		from.Format("20060102"), to.Format("20060102"))

	s.logger.InfoContext(ctx, "sales report generated",
		slog.Int("sale_count", len(sales)),
		slog.String("filename", filename))

	return data, filename, nil
}

func (s *ExportService) generateWorkbook(sales []*domain.Sale) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Sales")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headers := []string{
		"Invoice No", "Sold At", "Customer ID", "Line Count",
		"Total", "Total Cost", "Discount", "Profit",
	}
	headerRow := sheet.AddRow()
	for _, header := range headers {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
	}

	for _, sale := range sales {
		row := sheet.AddRow()
		for _, value := range []string{
			sale.InvoiceNo,
			sale.SoldAt.Format(time.RFC3339),
			strconv.FormatInt(sale.CustomerID, 10),
			strconv.Itoa(len(sale.Items)),
			sale.Total.StringFixed(2),
			sale.TotalCost.StringFixed(2),
			sale.Discount.StringFixed(2),
			sale.Profit.StringFixed(2),
		} {
			row.AddCell().Value = value
		}
	}

	itemSheet, err := file.AddSheet("Line Items")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	itemHeaders := []string{
		"Invoice No", "Item Code", "Item Name", "Quantity",
		"Unit Price", "Line Total", "Line Cost", "Line Discount",
	}
	itemHeaderRow := itemSheet.AddRow()
	for _, header := range itemHeaders {
		cell := itemHeaderRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
	}

	for _, sale := range sales {
		for i := range sale.Items {
			line := &sale.Items[i]
			row := itemSheet.AddRow()
			for _, value := range []string{
				sale.InvoiceNo,
				line.ItemCode,
				line.ItemName,
				strconv.Itoa(line.Quantity),
				line.ActualUnitPrice.StringFixed(2),
				line.LineTotal.StringFixed(2),
				line.LineCost.StringFixed(2),
				line.LineDiscount.StringFixed(2),
			} {
				row.AddCell().Value = value
			}
		}
	}

	// SetColWidth columns are 1-based.
	for i := range headers {
		sheet.SetColWidth(i+1, i+1, 15)
	}
	for i := range itemHeaders {
		itemSheet.SetColWidth(i+1, i+1, 15)
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buffer.Bytes(), nil
}
