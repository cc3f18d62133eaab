package analytics

import "testing"

func TestPreviousPeriod(t *testing.T) {
	cases := []struct {
		year, month         int
		wantYear, wantMonth int
	}{
		{2025, 7, 2025, 6},
		{2025, 1, 2024, 12},
		{2024, 12, 2024, 11},
	}
	for _, tc := range cases {
		y, m := PreviousPeriod(tc.year, tc.month)
		if y != tc.wantYear || m != tc.wantMonth {
			t.Errorf("PreviousPeriod(%d, %d) = (%d, %d), want (%d, %d)",
				tc.year, tc.month, y, m, tc.wantYear, tc.wantMonth)
		}
	}
}

func TestCompareMonths(t *testing.T) {
	current := map[string]float64{"food": 150, "transport": 60}
	previous := map[string]float64{"food": 100, "rent": 800}

	report := CompareMonths(testUID, 2025, 7, current, previous)

	if report.Month != "2025-07" {
		t.Errorf("month = %q", report.Month)
	}
	if len(report.TrendSummary) != 3 {
		t.Fatalf("expected union of 3 categories, got %v", report.TrendSummary)
	}

	food := report.TrendSummary["food"]
	if food.Previous != 100 || food.Current != 150 || food.Change != 50 || food.PercentChange != 50 {
		t.Errorf("food trend = %+v", food)
	}

	// Present only in the current period: +100% by policy.
	transport := report.TrendSummary["transport"]
	if transport.Previous != 0 || transport.Current != 60 || transport.PercentChange != 100.0 {
		t.Errorf("transport trend = %+v", transport)
	}

	// Present only in the previous period: fully dropped.
	rent := report.TrendSummary["rent"]
	if rent.Current != 0 || rent.Change != -800 || rent.PercentChange != -100 {
		t.Errorf("rent trend = %+v", rent)
	}
}

func TestCompareMonthsZeroPolicies(t *testing.T) {
	report := CompareMonths(testUID, 2025, 3,
		map[string]float64{"food": 0, "new": 25},
		map[string]float64{"food": 0})

	if got := report.TrendSummary["food"].PercentChange; got != 0.0 {
		t.Errorf("zero-to-zero percent_change = %v, want 0", got)
	}
	if got := report.TrendSummary["new"].PercentChange; got != 100.0 {
		t.Errorf("new category percent_change = %v, want 100", got)
	}
}

func TestCompareMonthsMissingSnapshots(t *testing.T) {
	// A missing snapshot arrives as an empty map, never as an error.
	report := CompareMonths(testUID, 2025, 1, map[string]float64{"food": 80}, map[string]float64{})
	if got := report.TrendSummary["food"].PercentChange; got != 100.0 {
		t.Errorf("percent_change without prior data = %v, want 100", got)
	}

	empty := CompareMonths(testUID, 2025, 1, map[string]float64{}, map[string]float64{})
	if len(empty.TrendSummary) != 0 {
		t.Errorf("expected empty trend summary, got %v", empty.TrendSummary)
	}
}

func TestCompareMonthsRounding(t *testing.T) {
	report := CompareMonths(testUID, 2025, 5,
		map[string]float64{"food": 100},
		map[string]float64{"food": 30})
	// 70/30*100 = 233.333... rounds to 233.33 for presentation.
	if got := report.TrendSummary["food"].PercentChange; got != 233.33 {
		t.Errorf("percent_change = %v, want 233.33", got)
	}
}
