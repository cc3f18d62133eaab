package analytics

import (
	"time"

	"raseed/internal/core"
)

type (
	// CategoryTrend is the month-over-month movement of one category.
	CategoryTrend struct {
		Previous      float64 `json:"previous"`
		Current       float64 `json:"current"`
		Change        float64 `json:"change"`
		PercentChange float64 `json:"percent_change"`
	}

	// TrendReport compares category spend between a month and the one
	// before it. It is the trend_insights section of a composed report.
	TrendReport struct {
		UID          string                   `json:"uid"`
		Month        string                   `json:"month"`
		TrendSummary map[string]CategoryTrend `json:"trend_summary"`
		GeneratedAt  time.Time                `json:"generated_at"`
	}
)

// PreviousPeriod returns the calendar month before (year, month),
// rolling January back to December of the prior year.
func PreviousPeriod(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// CompareMonths builds directional deltas between two pre-aggregated
// monthly snapshots. The category universe is the union of both periods;
// a category present in only one still yields an entry.
//
// A missing snapshot arrives here as an empty map, so every category in
// the other period reports a +100% change. Callers that need to tell "no
// prior data" from "zero spend" must do so before calling.
func CompareMonths(uid string, year, month int, current, previous map[string]float64) TrendReport {
	trends := make(map[string]CategoryTrend, len(current)+len(previous))

	for cat := range previous {
		if _, ok := trends[cat]; !ok {
			trends[cat] = categoryTrend(current[cat], previous[cat])
		}
	}
	for cat := range current {
		if _, ok := trends[cat]; !ok {
			trends[cat] = categoryTrend(current[cat], previous[cat])
		}
	}

	return TrendReport{
		UID:          uid,
		Month:        FormatMonth(year, month),
		TrendSummary: trends,
		GeneratedAt:  time.Now(),
	}
}

func categoryTrend(curr, prev float64) CategoryTrend {
	change := curr - prev

	// Percent change is undefined when the previous period is zero; a
	// brand-new category reports as +100%, a doubly-absent one as 0%.
	var percent float64
	switch {
	case prev != 0:
		percent = change / prev * 100
	case curr != 0:
		percent = 100.0
	}

	return CategoryTrend{
		Previous:      core.Round2(prev),
		Current:       core.Round2(curr),
		Change:        core.Round2(change),
		PercentChange: core.Round2(percent),
	}
}
