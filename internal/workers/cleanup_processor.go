// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/shopledger-be/internal/adapters/db"
	"github.com/ammerola/shopledger-be/internal/adapters/storage"
	"github.com/ammerola/shopledger-be/internal/pkg/config"
)

// CleanupProcessor enforces the data retention policy
type CleanupProcessor struct {
	db      *db.Database
	storage storage.StorageClient
	config  *config.Config
	logger  *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(database *db.Database, st storage.StorageClient, cfg *config.Config, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		db:      database,
		storage: st,
		config:  cfg,
		logger:  logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupOldData purges rejected returns past the retention window and
// drops archived reports that aged out of the bucket. Approved returns
// are kept, they are part of the financial record.
func (p *CleanupProcessor) CleanupOldData(ctx context.Context, t *asynq.Task) error {
	retention := time.Duration(p.config.Reports.RetentionDays) * 24 * time.Hour
	cutoff := time.Now().Add(-retention)

	query := `DELETE FROM returns WHERE status = 'rejected' AND rejected_at < $1`

	result, err := p.db.Exec(ctx, query, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge rejected returns: %w", err)
	}

	p.logger.InfoContext(ctx, "rejected returns purged",
		slog.Int64("rows_deleted", result.RowsAffected()),
		slog.Time("cutoff", cutoff))

	if p.storage != nil {
		if err := p.cleanupArchivedReports(ctx, cutoff); err != nil {
			return err
		}
	}

	return nil
}

func (p *CleanupProcessor) cleanupArchivedReports(ctx context.Context, cutoff time.Time) error {
	keys, err := p.storage.List(ctx, "reports/sales/")
	if err != nil {
		return fmt.Errorf("failed to list archived reports: %w", err)
	}

	var deleted int
	for _, key := range keys {
		day, ok := reportDate(key)
		if !ok || !day.Before(cutoff) {
			continue
		}
		if err := p.storage.Delete(ctx, key); err != nil {
			p.logger.WarnContext(ctx, "failed to delete archived report",
				slog.String("key", key),
				slog.String("error", err.Error()))
			continue
		}
		deleted++
	}

	p.logger.InfoContext(ctx, "archived reports cleaned up",
		slog.Int("reports_deleted", deleted))
	return nil
}

// reportDate extracts the day from an archive key like
// reports/sales/2026-08-30.xlsx.
func reportDate(key string) (time.Time, bool) {
	name := key
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimSuffix(name, ".xlsx")

	day, err := time.Parse("2006-01-02", name)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}
