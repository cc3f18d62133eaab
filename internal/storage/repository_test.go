package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"raseed/internal/core"
	"raseed/internal/store"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "raseed.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testReceipt(id string, ts time.Time) core.Receipt {
	r := core.Receipt{
		ReceiptID: id,
		UID:       "user_001",
		Timestamp: ts,
		Merchant:  "SuperMart",
		Items: []core.Item{
			{Name: "Milk", Category: "dairy", Amount: 60, Quantity: 1, Rate: 60},
			{Name: "Bread", Category: "bakery", Amount: 40, Quantity: 2, Rate: 20},
		},
	}
	r.CategorySummary = r.DeriveCategorySummary()
	return r
}

func TestSaveAndFetchReceipts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	july := time.Date(2025, 7, 10, 9, 30, 0, 0, time.UTC)
	august := time.Date(2025, 8, 2, 18, 0, 0, 0, time.UTC)

	if err := repo.SaveReceipt(ctx, testReceipt("r1", july)); err != nil {
		t.Fatalf("save r1: %v", err)
	}
	if err := repo.SaveReceipt(ctx, testReceipt("r2", august)); err != nil {
		t.Fatalf("save r2: %v", err)
	}

	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	got, err := repo.FetchReceipts(ctx, "user_001", start, end)
	if err != nil {
		t.Fatalf("FetchReceipts: %v", err)
	}
	if len(got) != 1 || got[0].ReceiptID != "r1" {
		t.Fatalf("got %d receipts, want only r1: %+v", len(got), got)
	}

	r := got[0]
	if !r.Timestamp.Equal(july) {
		t.Errorf("timestamp = %v, want %v", r.Timestamp, july)
	}
	if len(r.Items) != 2 || r.Items[0].Name != "Milk" || r.Items[1].Name != "Bread" {
		t.Errorf("items = %+v", r.Items)
	}
	if r.CategorySummary["dairy"] != 60 || r.CategorySummary["bakery"] != 40 {
		t.Errorf("category summary = %+v", r.CategorySummary)
	}

	history, err := repo.FetchReceiptHistory(ctx, "user_001")
	if err != nil {
		t.Fatalf("FetchReceiptHistory: %v", err)
	}
	if len(history) != 2 || history[0].ReceiptID != "r1" || history[1].ReceiptID != "r2" {
		t.Fatalf("history = %+v", history)
	}
}

func TestSaveReceiptDuplicate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	receipt := testReceipt("r1", time.Date(2025, 7, 10, 9, 30, 0, 0, time.UTC))
	if err := repo.SaveReceipt(ctx, receipt); err != nil {
		t.Fatalf("first save: %v", err)
	}
	err := repo.SaveReceipt(ctx, receipt)
	if !errors.Is(err, store.ErrDuplicateReceipt) {
		t.Fatalf("second save error = %v, want ErrDuplicateReceipt", err)
	}
}

func TestSaveReceiptRejectsInvalid(t *testing.T) {
	repo := newTestRepository(t)

	bad := testReceipt("", time.Date(2025, 7, 10, 9, 30, 0, 0, time.UTC))
	err := repo.SaveReceipt(context.Background(), bad)
	if !errors.Is(err, core.ErrEmptyReceiptID) {
		t.Fatalf("error = %v, want ErrEmptyReceiptID", err)
	}
}

func TestFetchReceiptsUnknownUser(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.FetchReceiptHistory(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("FetchReceiptHistory: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d receipts, want none", len(got))
	}
}

func TestMonthlySnapshotRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	missing, err := repo.FetchMonthlySnapshot(ctx, "user_001", 2025, 7)
	if err != nil {
		t.Fatalf("fetch missing snapshot: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("missing snapshot = %+v, want empty map", missing)
	}

	totals := map[string]float64{"dairy": 120.5, "bakery": 80}
	if err := repo.SaveMonthlySnapshot(ctx, "user_001", 2025, 7, totals); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	got, err := repo.FetchMonthlySnapshot(ctx, "user_001", 2025, 7)
	if err != nil {
		t.Fatalf("fetch snapshot: %v", err)
	}
	if got["dairy"] != 120.5 || got["bakery"] != 80 {
		t.Fatalf("snapshot = %+v", got)
	}

	// A resave replaces the month wholesale.
	if err := repo.SaveMonthlySnapshot(ctx, "user_001", 2025, 7, map[string]float64{"dairy": 200}); err != nil {
		t.Fatalf("resave snapshot: %v", err)
	}
	got, err = repo.FetchMonthlySnapshot(ctx, "user_001", 2025, 7)
	if err != nil {
		t.Fatalf("fetch after resave: %v", err)
	}
	if len(got) != 1 || got["dairy"] != 200 {
		t.Fatalf("snapshot after resave = %+v", got)
	}
}
