// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeDailySalesReport = "report:daily_sales"
	TypeLowStockScan     = "inventory:low_stock_scan"
	TypeWarmDashboard    = "analytics:warm_dashboard"
	TypeCleanupOldData   = "cleanup:old_data"
)

// DailySalesReportPayload selects the day to report on.
type DailySalesReportPayload struct {
	Date string `json:"date"` // 2006-01-02; empty means yesterday
}

// NewDailySalesReportTask builds the archive task for one day of sales.
func NewDailySalesReportTask(day time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(DailySalesReportPayload{Date: day.Format("2006-01-02")})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeDailySalesReport, payload), nil
}

// NewLowStockScanTask builds the reorder-level scan task.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TypeLowStockScan, nil)
}

// NewWarmDashboardTask builds the dashboard cache warm-up task.
func NewWarmDashboardTask() *asynq.Task {
	return asynq.NewTask(TypeWarmDashboard, nil)
}

// NewCleanupOldDataTask builds the retention cleanup task.
func NewCleanupOldDataTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupOldData, nil)
}
