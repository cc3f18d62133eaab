package analytics

import (
	"reflect"
	"testing"

	"raseed/internal/core"
)

func TestDetectRecurring(t *testing.T) {
	receipts := []core.Receipt{
		receiptAt(t, "r1", "2025-06-03T09:00:00Z", "Big Bazaar",
			item("Milk", "groceries", 60),
			item("Shampoo", "personal care", 120)),
		receiptAt(t, "r2", "2025-07-05T09:30:00Z", "Big Bazaar",
			item("Milk", "groceries", 65)),
	}

	report := DetectRecurring(testUID, receipts)

	if len(report.RecurringItems) != 1 {
		t.Fatalf("expected 1 recurring item, got %+v", report.RecurringItems)
	}
	milk := report.RecurringItems[0]
	if milk.Name != "milk" || milk.Category != "groceries" {
		t.Errorf("identity = %q/%q, want normalized milk/groceries", milk.Name, milk.Category)
	}
	if !reflect.DeepEqual(milk.MonthsAppeared, []string{"2025-06", "2025-07"}) {
		t.Errorf("months_appeared = %v", milk.MonthsAppeared)
	}
	if milk.TotalAmount != 125.0 {
		t.Errorf("total_amount = %v, want 125", milk.TotalAmount)
	}
	if milk.AverageAmount != 62.5 {
		t.Errorf("average_amount = %v, want 62.5", milk.AverageAmount)
	}
}

func TestDetectRecurringSingleMonthExcluded(t *testing.T) {
	// Two purchases in the same month are one distinct month, not two.
	receipts := []core.Receipt{
		receiptAt(t, "r1", "2025-06-03T09:00:00Z", "A", item("Milk", "groceries", 60)),
		receiptAt(t, "r2", "2025-06-21T09:00:00Z", "A", item("Milk", "groceries", 62)),
	}
	report := DetectRecurring(testUID, receipts)
	if len(report.RecurringItems) != 0 {
		t.Fatalf("single-month item must not recur: %+v", report.RecurringItems)
	}
}

func TestDetectRecurringNormalizesIdentity(t *testing.T) {
	receipts := []core.Receipt{
		receiptAt(t, "r1", "2025-06-03T09:00:00Z", "A", item("  MILK ", "Groceries", 60)),
		receiptAt(t, "r2", "2025-07-03T09:00:00Z", "A", item("milk", "groceries ", 65)),
	}
	report := DetectRecurring(testUID, receipts)
	if len(report.RecurringItems) != 1 {
		t.Fatalf("case/whitespace variants must share identity: %+v", report.RecurringItems)
	}
	got := report.RecurringItems[0]
	if got.MonthsAppeared[0] != "2025-06" || got.MonthsAppeared[1] != "2025-07" {
		t.Errorf("months_appeared = %v", got.MonthsAppeared)
	}
	// Occurrences, not months, drive the average: 125 / 2 purchases.
	if got.AverageAmount != 62.5 {
		t.Errorf("average_amount = %v", got.AverageAmount)
	}
}

func TestDetectRecurringEmptyHistory(t *testing.T) {
	report := DetectRecurring(testUID, nil)
	if report.UID != testUID {
		t.Errorf("uid = %q", report.UID)
	}
	if len(report.RecurringItems) != 0 {
		t.Errorf("expected no items, got %+v", report.RecurringItems)
	}
	if report.DetectedAt.IsZero() {
		t.Error("detected_at not set")
	}
}
