// Package analytics implements the spending analytics engine: monthly
// aggregation, month-over-month trends, recurring-expense detection,
// statistical anomaly detection, and time-of-day breakdowns.
//
// Every function here is a pure, synchronous computation over the receipts
// it is given. Nothing reads a store, holds a lock, or mutates its input,
// so callers are free to run the components concurrently over a shared
// receipt history.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"raseed/internal/core"
)

// MonthlyReport is the aggregator output for one user-month. It is the
// dashboard_metrics section of a composed insight report, and its
// CategoryBreakdown is what gets persisted as the monthly snapshot.
type MonthlyReport struct {
	UID               string             `json:"uid"`
	Month             string             `json:"month"`
	TotalSpend        float64            `json:"total_spend"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	TopCategories     []string           `json:"top_categories"`
	DailySeries       map[string]float64 `json:"daily_series"`
	ReceiptCount      int                `json:"receipt_count"`
	AveragePerReceipt float64            `json:"average_per_receipt"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

const topCategoryLimit = 5

// AggregateMonthly computes monthly totals, category breakdowns, and the
// per-day series for receipts already filtered to [month start, next month
// start) for uid. Filtering is the store adapter's job, not this function's.
//
// The aggregator trusts each receipt's declared category summary; ingestion
// validation guarantees it agrees with the items.
func AggregateMonthly(uid string, year, month int, receipts []core.Receipt) MonthlyReport {
	var (
		totalSpend float64
		breakdown  = make(map[string]float64)
		daily      = make(map[string]float64)
		seen       = make(map[string]bool)
		order      []string
	)

	for _, r := range receipts {
		dayTotal := r.SummaryTotal()
		totalSpend += dayTotal
		daily[r.DateID()] += dayTotal

		// Track first-encounter order so top-category ties resolve the
		// same way on every run. Within a receipt the summary is a map,
		// so categories register in sorted order.
		cats := make([]string, 0, len(r.CategorySummary))
		for cat := range r.CategorySummary {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			if !seen[cat] {
				seen[cat] = true
				order = append(order, cat)
			}
			breakdown[cat] += r.CategorySummary[cat]
		}
	}

	top := make([]string, len(order))
	copy(top, order)
	sort.SliceStable(top, func(i, j int) bool {
		return breakdown[top[i]] > breakdown[top[j]]
	})
	if len(top) > topCategoryLimit {
		top = top[:topCategoryLimit]
	}

	average := 0.0
	if len(receipts) > 0 {
		average = totalSpend / float64(len(receipts))
	}

	return MonthlyReport{
		UID:               uid,
		Month:             FormatMonth(year, month),
		TotalSpend:        core.Round2(totalSpend),
		CategoryBreakdown: breakdown,
		TopCategories:     top,
		DailySeries:       daily,
		ReceiptCount:      len(receipts),
		AveragePerReceipt: core.Round2(average),
		GeneratedAt:       time.Now(),
	}
}

// FormatMonth renders a (year, month) pair as YYYY-MM.
func FormatMonth(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
