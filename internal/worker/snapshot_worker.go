package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"raseed/internal/amqp"
	"raseed/internal/export"
	"raseed/internal/services"
	"raseed/internal/store"
)

// SnapshotWorker keeps monthly snapshots in step with ingested receipts.
// Each receipt.ingested event triggers a full recompute of the affected
// month; a periodic sweep covers months touched while the worker was down.
type SnapshotWorker struct {
	snapshots *services.SnapshotService
	users     store.UserLister
	exporter  export.ReportExporter
}

func NewSnapshotWorker(snapshots *services.SnapshotService, users store.UserLister, exporter export.ReportExporter) *SnapshotWorker {
	return &SnapshotWorker{
		snapshots: snapshots,
		users:     users,
		exporter:  exporter,
	}
}

// HandleIngestedMessage recomputes the snapshot for the month the receipt
// landed in. Export failures are logged, not returned: the snapshot is
// already durable, and a requeue would not fix the sheet.
func (w *SnapshotWorker) HandleIngestedMessage(ctx context.Context, msg *amqp.ReceiptIngestedMessage) error {
	slog.InfoContext(ctx, "Processing receipt ingested message",
		"receipt_id", msg.ReceiptID,
		"uid", msg.UID,
		"year", msg.Year,
		"month", msg.Month)

	report, err := w.snapshots.RecomputeMonth(ctx, msg.UID, msg.Year, msg.Month)
	if err != nil {
		return fmt.Errorf("recompute month %04d-%02d: %w", msg.Year, msg.Month, err)
	}

	if w.exporter == nil {
		return nil
	}
	if err := w.exporter.ExportMonthlyReport(ctx, report); err != nil {
		slog.ErrorContext(ctx, "Failed to export monthly report",
			"uid", msg.UID,
			"month", report.Month,
			"error", err)
	}

	return nil
}

// RefreshCurrentMonth recomputes the current calendar month for every
// known user. This is the backup path for events lost while the worker
// was offline.
func (w *SnapshotWorker) RefreshCurrentMonth(ctx context.Context) error {
	uids, err := w.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())

	for _, uid := range uids {
		if _, err := w.snapshots.RecomputeMonth(ctx, uid, year, month); err != nil {
			slog.ErrorContext(ctx, "Failed to refresh current month snapshot",
				"uid", uid,
				"year", year,
				"month", month,
				"error", err)
		}
	}

	return nil
}

// RunPeriodicRefresh refreshes every user's current month on a fixed
// interval until the context ends.
func (w *SnapshotWorker) RunPeriodicRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic snapshot refresh", "reason", ctx.Err())
			return
		case <-ticker.C:
			if err := w.RefreshCurrentMonth(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic snapshot refresh failed", "error", err)
			}
		}
	}
}
