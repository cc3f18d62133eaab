package analytics

import (
	"fmt"
	"time"

	"raseed/internal/core"
)

type (
	// ItemAnomaly is a single line flagged inside an anomalous receipt:
	// its amount exceeds 1.5x the pooled average for its category.
	ItemAnomaly struct {
		Name              string  `json:"name"`
		Category          string  `json:"category"`
		Amount            float64 `json:"amount"`
		AvgCategoryAmount float64 `json:"avg_category_amount"`
	}

	// ReceiptAnomaly is a receipt whose total spend exceeds the 2-sigma
	// threshold over the user's history.
	ReceiptAnomaly struct {
		ReceiptID         string        `json:"receipt_id"`
		Timestamp         time.Time     `json:"timestamp"`
		Merchant          string        `json:"merchant"`
		TotalSpend        float64       `json:"total_spend"`
		AnomalyReason     string        `json:"anomaly_reason"`
		CategoryAnomalies []ItemAnomaly `json:"category_anomalies"`
	}

	// AnomalyReport is the spending_anomalies section of a composed
	// report. InsufficientData is the sentinel for fewer than two
	// receipts, where a sample standard deviation is undefined.
	AnomalyReport struct {
		UID              string           `json:"uid"`
		DetectedAt       time.Time        `json:"detected_at"`
		InsufficientData bool             `json:"insufficient_data,omitempty"`
		Anomalies        []ReceiptAnomaly `json:"anomalies,omitempty"`
	}
)

const (
	// minReceiptsForStats guards the Bessel-corrected deviation below.
	minReceiptsForStats = 2
	totalSpendSigmas    = 2.0
	itemAnomalyFactor   = 1.5
)

// DetectAnomalies recomputes the whole-history statistical model from
// scratch on every call: population mean and sample standard deviation of
// per-receipt totals, plus pooled per-category item averages. Totals are
// re-derived from items, independent of the declared category summaries.
func DetectAnomalies(uid string, receipts []core.Receipt) AnomalyReport {
	report := AnomalyReport{
		UID:        uid,
		DetectedAt: time.Now(),
	}

	if len(receipts) < minReceiptsForStats {
		report.InsufficientData = true
		return report
	}

	totals := make([]float64, len(receipts))
	categoryAmounts := make(map[string][]float64)
	for i, r := range receipts {
		totals[i] = r.TotalSpend()
		for _, item := range r.Items {
			cat := core.NormalizeLabel(item.Category)
			categoryAmounts[cat] = append(categoryAmounts[cat], item.Amount)
		}
	}

	meanTotal := mean(totals)
	stdTotal := sampleStdDev(totals)
	threshold := meanTotal + totalSpendSigmas*stdTotal

	categoryAvg := make(map[string]float64, len(categoryAmounts))
	for cat, amounts := range categoryAmounts {
		categoryAvg[cat] = mean(amounts)
	}

	anomalies := make([]ReceiptAnomaly, 0)
	for i, r := range receipts {
		if totals[i] <= threshold {
			continue
		}

		flagged := make([]ItemAnomaly, 0)
		for _, item := range r.Items {
			avg := categoryAvg[core.NormalizeLabel(item.Category)]
			// A zero category average cannot flag anything.
			if avg > 0 && item.Amount > itemAnomalyFactor*avg {
				flagged = append(flagged, ItemAnomaly{
					Name:              item.Name,
					Category:          item.Category,
					Amount:            item.Amount,
					AvgCategoryAmount: core.Round2(avg),
				})
			}
		}

		anomalies = append(anomalies, ReceiptAnomaly{
			ReceiptID:         r.ReceiptID,
			Timestamp:         r.Timestamp,
			Merchant:          r.Merchant,
			TotalSpend:        core.Round2(totals[i]),
			AnomalyReason:     fmt.Sprintf("High total spend (>%.2f)", threshold),
			CategoryAnomalies: flagged,
		})
	}

	report.Anomalies = anomalies
	return report
}
