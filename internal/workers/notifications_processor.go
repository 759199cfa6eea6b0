// internal/workers/notifications_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/ammerola/shopledger-be/internal/core/ports"
	"github.com/ammerola/shopledger-be/internal/pkg/config"
)

// NotificationProcessor alerts the shop owner about items at or below
// their reorder level
type NotificationProcessor struct {
	inventory ports.InventoryService
	config    *config.Config
	logger    *slog.Logger
}

// NewNotificationProcessor creates a new notification processor
func NewNotificationProcessor(inventory ports.InventoryService, cfg *config.Config, logger *slog.Logger) *NotificationProcessor {
	return &NotificationProcessor{
		inventory: inventory,
		config:    cfg,
		logger:    logger.With(slog.String("processor", "notification")),
	}
}

// LowStockScan lists items needing reorder and sends a summary email.
func (p *NotificationProcessor) LowStockScan(ctx context.Context, t *asynq.Task) error {
	items, err := p.inventory.ListLowStock(ctx)
	if err != nil {
		return fmt.Errorf("failed to list low stock items: %w", err)
	}

	if len(items) == 0 {
		p.logger.InfoContext(ctx, "no items below reorder level")
		return nil
	}

	var sb strings.Builder
	sb.WriteString("Items at or below reorder level:\n\n")
	for _, item := range items {
		fmt.Fprintf(&sb, "%s  %s: %d on hand (reorder at %d)\n",
			item.ItemCode, item.ItemName, item.Quantity, item.ReorderLevel)
	}

	subject := fmt.Sprintf("Low stock alert: %d items need reordering", len(items))

	p.logger.InfoContext(ctx, "low stock scan complete",
		slog.Int("item_count", len(items)))

	return p.sendEmail(ctx, subject, sb.String())
}

func (p *NotificationProcessor) sendEmail(ctx context.Context, subject, body string) error {
	to := p.config.Reports.AlertRecipient

	// Without a recipient or SMTP server the alert stays in the logs.
	if to == "" || p.config.Reports.SMTPAddr == "" || p.config.IsDevelopment() {
		p.logger.InfoContext(ctx, "email would be sent",
			slog.String("to", to),
			slog.String("subject", subject),
			slog.String("body", body))
		return nil
	}

	from := p.config.Reports.SMTPFrom
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		from, to, subject, body,
	))

	host := p.config.Reports.SMTPAddr
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}

	auth := smtp.PlainAuth("", "", "", host)
	if err := smtp.SendMail(p.config.Reports.SMTPAddr, auth, from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	p.logger.InfoContext(ctx, "email sent successfully",
		slog.String("to", to),
		slog.String("subject", subject))
	return nil
}
