package services

import (
	"context"
	"testing"
	"time"

	"raseed/internal/core"
	"raseed/internal/store/memory"
)

func snapshotReceipt(id string, day int, category string, amount float64) core.Receipt {
	r := core.Receipt{
		ReceiptID: id,
		UID:       "user_001",
		Timestamp: time.Date(2025, 7, day, 12, 0, 0, 0, time.UTC),
		Merchant:  "SuperMart",
		Items: []core.Item{
			{Name: "Item", Category: category, Amount: amount, Quantity: 1, Rate: amount},
		},
	}
	r.CategorySummary = r.DeriveCategorySummary()
	return r
}

func TestRecomputeMonth(t *testing.T) {
	st := memory.Seed(
		snapshotReceipt("r1", 5, "food", 100),
		snapshotReceipt("r2", 20, "food", 50),
		snapshotReceipt("r3", 21, "transport", 30),
		// August receipt stays out of the July snapshot.
		func() core.Receipt {
			r := snapshotReceipt("r4", 1, "food", 999)
			r.Timestamp = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
			return r
		}(),
	)

	svc := NewSnapshotService(st, st)
	ctx := context.Background()

	report, err := svc.RecomputeMonth(ctx, "user_001", 2025, 7)
	if err != nil {
		t.Fatalf("RecomputeMonth: %v", err)
	}
	if report.Month != "2025-07" || report.ReceiptCount != 3 || report.TotalSpend != 180 {
		t.Fatalf("report = %+v", report)
	}

	totals, err := st.FetchMonthlySnapshot(ctx, "user_001", 2025, 7)
	if err != nil {
		t.Fatalf("FetchMonthlySnapshot: %v", err)
	}
	if totals["food"] != 150 || totals["transport"] != 30 {
		t.Fatalf("snapshot = %+v", totals)
	}
	if len(totals) != 2 {
		t.Fatalf("snapshot has %d categories, want 2", len(totals))
	}
}

func TestRecomputeMonthEmpty(t *testing.T) {
	st := memory.New()
	svc := NewSnapshotService(st, st)
	ctx := context.Background()

	report, err := svc.RecomputeMonth(ctx, "user_001", 2025, 7)
	if err != nil {
		t.Fatalf("RecomputeMonth on empty month: %v", err)
	}
	if report.ReceiptCount != 0 || report.TotalSpend != 0 {
		t.Fatalf("report = %+v", report)
	}

	totals, err := st.FetchMonthlySnapshot(ctx, "user_001", 2025, 7)
	if err != nil {
		t.Fatalf("FetchMonthlySnapshot: %v", err)
	}
	if len(totals) != 0 {
		t.Fatalf("snapshot = %+v, want empty", totals)
	}
}
