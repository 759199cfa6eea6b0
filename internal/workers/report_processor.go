// internal/workers/report_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/shopledger-be/internal/adapters/storage"
	"github.com/ammerola/shopledger-be/internal/core/ports"
	"github.com/ammerola/shopledger-be/internal/pkg/config"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportProcessor archives daily sales spreadsheets to object storage
type ReportProcessor struct {
	export  ports.ExportService
	storage storage.StorageClient
	config  *config.Config
	logger  *slog.Logger
}

// NewReportProcessor creates a new report processor
func NewReportProcessor(export ports.ExportService, st storage.StorageClient, cfg *config.Config, logger *slog.Logger) *ReportProcessor {
	return &ReportProcessor{
		export:  export,
		storage: st,
		config:  cfg,
		logger:  logger.With(slog.String("processor", "report")),
	}
}

// ProcessDailySalesReport generates the spreadsheet for one day of sales
// and uploads it to the archive bucket.
func (p *ReportProcessor) ProcessDailySalesReport(ctx context.Context, t *asynq.Task) error {
	var payload DailySalesReportPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	day, err := p.resolveDay(payload.Date)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Reports.ExportTimeout)
	defer cancel()

	from := day
	to := day.AddDate(0, 0, 1)

	p.logger.InfoContext(ctx, "generating daily sales report",
		slog.String("date", day.Format("2006-01-02")))

	data, _, err := p.export.SalesReport(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to generate report for %s: %w", day.Format("2006-01-02"), err)
	}

	key := storage.ReportKey(day)
	location, err := p.storage.Upload(ctx, key, bytes.NewReader(data), xlsxContentType)
	if err != nil {
		return fmt.Errorf("failed to upload report %s: %w", key, err)
	}

	p.logger.InfoContext(ctx, "daily sales report archived",
		slog.String("key", key),
		slog.String("location", location),
		slog.Int("bytes", len(data)))

	return nil
}

// resolveDay parses the payload date, defaulting to yesterday in UTC.
func (p *ReportProcessor) resolveDay(date string) (time.Time, error) {
	if date == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1), nil
	}

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid report date %q: %w", date, err)
	}
	return day, nil
}
