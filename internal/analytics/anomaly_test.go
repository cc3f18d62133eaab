package analytics

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"raseed/internal/core"
)

// anomalyHistory is nine routine 10.00 receipts plus one 100.00 outlier.
// mean = 19, sample stddev = sqrt(810), so the 2-sigma threshold sits
// around 75.92 and only the outlier crosses it.
func anomalyHistory(t *testing.T) []core.Receipt {
	t.Helper()
	receipts := make([]core.Receipt, 0, 10)
	for i := 0; i < 9; i++ {
		receipts = append(receipts, receiptAt(t,
			fmt.Sprintf("r%d", i+1),
			fmt.Sprintf("2025-07-%02dT09:00:00Z", i+1),
			"Corner Cafe",
			item("Coffee", "food", 10)))
	}
	receipts = append(receipts, receiptAt(t, "r-big", "2025-07-15T21:30:00Z", "Amazon",
		item("Printer", "electronics", 80),
		item("Coffee", "Food", 20)))
	return receipts
}

func TestDetectAnomalies(t *testing.T) {
	receipts := anomalyHistory(t)
	report := DetectAnomalies(testUID, receipts)

	if report.InsufficientData {
		t.Fatal("unexpected insufficient-data sentinel")
	}
	if len(report.Anomalies) != 1 {
		t.Fatalf("expected exactly one anomaly, got %+v", report.Anomalies)
	}

	a := report.Anomalies[0]
	if a.ReceiptID != "r-big" {
		t.Errorf("receipt_id = %q", a.ReceiptID)
	}
	if a.Merchant != "Amazon" {
		t.Errorf("merchant = %q", a.Merchant)
	}
	if a.TotalSpend != 100.0 {
		t.Errorf("total_spend = %v, want 100", a.TotalSpend)
	}

	wantThreshold := 19 + 2*math.Sqrt(810)
	wantReason := fmt.Sprintf("High total spend (>%.2f)", wantThreshold)
	if a.AnomalyReason != wantReason {
		t.Errorf("anomaly_reason = %q, want %q", a.AnomalyReason, wantReason)
	}

	// Pooled food average is (9*10 + 20)/10 = 11; "Coffee" at 20 exceeds
	// 1.5x that, while "Printer" is its category's only sample and cannot
	// exceed 1.5x its own amount.
	if len(a.CategoryAnomalies) != 1 {
		t.Fatalf("category_anomalies = %+v", a.CategoryAnomalies)
	}
	flagged := a.CategoryAnomalies[0]
	if flagged.Name != "Coffee" || flagged.Amount != 20 {
		t.Errorf("flagged item = %+v", flagged)
	}
	if flagged.AvgCategoryAmount != 11.0 {
		t.Errorf("avg_category_amount = %v, want 11", flagged.AvgCategoryAmount)
	}
	if !strings.HasPrefix(a.AnomalyReason, "High total spend") {
		t.Errorf("anomaly_reason = %q", a.AnomalyReason)
	}
}

func TestDetectAnomaliesInsufficientData(t *testing.T) {
	report := DetectAnomalies(testUID, nil)
	if !report.InsufficientData {
		t.Error("empty history must signal insufficient data")
	}

	one := []core.Receipt{
		receiptAt(t, "r1", "2025-07-01T09:00:00Z", "A", item("X", "food", 10)),
	}
	report = DetectAnomalies(testUID, one)
	if !report.InsufficientData {
		t.Error("single receipt must signal insufficient data")
	}
	if len(report.Anomalies) != 0 {
		t.Errorf("sentinel report must carry no anomalies: %+v", report.Anomalies)
	}
}

func TestDetectAnomaliesNoOutliers(t *testing.T) {
	receipts := []core.Receipt{
		receiptAt(t, "r1", "2025-07-01T09:00:00Z", "A", item("X", "food", 10)),
		receiptAt(t, "r2", "2025-07-02T09:00:00Z", "A", item("X", "food", 12)),
		receiptAt(t, "r3", "2025-07-03T09:00:00Z", "A", item("X", "food", 11)),
	}
	report := DetectAnomalies(testUID, receipts)
	if report.InsufficientData {
		t.Fatal("unexpected sentinel")
	}
	if len(report.Anomalies) != 0 {
		t.Errorf("uniform spending must not flag: %+v", report.Anomalies)
	}
}

func TestDetectAnomaliesIdempotent(t *testing.T) {
	receipts := anomalyHistory(t)
	first := DetectAnomalies(testUID, receipts)
	second := DetectAnomalies(testUID, receipts)

	first.DetectedAt = second.DetectedAt
	if !reflect.DeepEqual(first, second) {
		t.Errorf("recomputation diverged:\n%+v\n%+v", first, second)
	}
}
