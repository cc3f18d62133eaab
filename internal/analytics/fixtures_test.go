package analytics

import (
	"testing"
	"time"

	"raseed/internal/core"
)

const testUID = "user_001"

// receiptAt builds a receipt at the given RFC3339 timestamp with its
// category summary derived from the items, matching what ingestion stores.
func receiptAt(t *testing.T, id, ts, merchant string, items ...core.Item) core.Receipt {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t.Fatalf("bad fixture timestamp %q: %v", ts, err)
	}
	r := core.Receipt{
		ReceiptID: id,
		UID:       testUID,
		Timestamp: parsed,
		Merchant:  merchant,
		Items:     items,
	}
	r.CategorySummary = r.DeriveCategorySummary()
	return r
}

func item(name, category string, amount float64) core.Item {
	return core.Item{Name: name, Category: category, Amount: amount}
}
