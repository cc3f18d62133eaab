package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"raseed/internal/analytics"
	"raseed/internal/store"
)

// SnapshotService recomputes persisted monthly category totals from the
// receipts of a month. Snapshots feed the trend comparison without
// rescanning receipt history.
type SnapshotService struct {
	receipts  store.ReceiptSource
	snapshots store.SnapshotWriter
}

func NewSnapshotService(receipts store.ReceiptSource, snapshots store.SnapshotWriter) *SnapshotService {
	return &SnapshotService{
		receipts:  receipts,
		snapshots: snapshots,
	}
}

// RecomputeMonth rebuilds the category snapshot for one user month from
// scratch and returns the underlying report. Recomputing an unchanged
// month is a no-op in effect, so the operation is safe to repeat on
// every ingestion event.
func (s *SnapshotService) RecomputeMonth(ctx context.Context, uid string, year, month int) (analytics.MonthlyReport, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	receipts, err := s.receipts.FetchReceipts(ctx, uid, start, end)
	if err != nil {
		return analytics.MonthlyReport{}, fmt.Errorf("fetch receipts for %04d-%02d: %w", year, month, err)
	}

	report := analytics.AggregateMonthly(uid, year, month, receipts)
	if err := s.snapshots.SaveMonthlySnapshot(ctx, uid, year, month, report.CategoryBreakdown); err != nil {
		return analytics.MonthlyReport{}, fmt.Errorf("save snapshot for %04d-%02d: %w", year, month, err)
	}

	slog.InfoContext(ctx, "Monthly snapshot recomputed",
		"uid", uid,
		"month", report.Month,
		"receipts", report.ReceiptCount,
		"categories", len(report.CategoryBreakdown))

	return report, nil
}
