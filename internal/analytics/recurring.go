package analytics

import (
	"sort"
	"time"

	"raseed/internal/core"
)

type (
	// RecurringItem is an item identity observed in two or more distinct
	// calendar months. Name and category are normalized lowercase.
	RecurringItem struct {
		Name           string   `json:"name"`
		Category       string   `json:"category"`
		MonthsAppeared []string `json:"months_appeared"`
		TotalAmount    float64  `json:"total_amount"`
		AverageAmount  float64  `json:"average_amount"`
	}

	// RecurrenceReport is the recurring_expenses section of a composed
	// report, covering the user's full receipt history.
	RecurrenceReport struct {
		UID            string          `json:"uid"`
		DetectedAt     time.Time       `json:"detected_at"`
		RecurringItems []RecurringItem `json:"recurring_items"`
	}
)

// recurringMonthThreshold is the number of distinct months an item identity
// must appear in before it counts as recurring.
const recurringMonthThreshold = 2

type itemIdentity struct {
	name     string
	category string
}

type recurrenceGroup struct {
	months      map[string]struct{}
	totalAmount float64
	occurrences int
}

// DetectRecurring groups items across the full receipt history by their
// normalized (name, category) identity and reports every group seen in at
// least two distinct months. Output order follows first encounter in the
// input, which callers must not rely on.
func DetectRecurring(uid string, receipts []core.Receipt) RecurrenceReport {
	tracker := make(map[itemIdentity]*recurrenceGroup)
	var order []itemIdentity

	for _, r := range receipts {
		monthID := r.MonthID()
		for _, item := range r.Items {
			key := itemIdentity{
				name:     core.NormalizeLabel(item.Name),
				category: core.NormalizeLabel(item.Category),
			}
			group, ok := tracker[key]
			if !ok {
				group = &recurrenceGroup{months: make(map[string]struct{})}
				tracker[key] = group
				order = append(order, key)
			}
			group.months[monthID] = struct{}{}
			group.totalAmount += item.Amount
			group.occurrences++
		}
	}

	items := make([]RecurringItem, 0)
	for _, key := range order {
		group := tracker[key]
		if len(group.months) < recurringMonthThreshold {
			continue
		}

		months := make([]string, 0, len(group.months))
		for m := range group.months {
			months = append(months, m)
		}
		sort.Strings(months)

		items = append(items, RecurringItem{
			Name:           key.name,
			Category:       key.category,
			MonthsAppeared: months,
			TotalAmount:    core.Round2(group.totalAmount),
			// occurrences is at least 1 for any group that exists.
			AverageAmount: core.Round2(group.totalAmount / float64(group.occurrences)),
		})
	}

	return RecurrenceReport{
		UID:            uid,
		DetectedAt:     time.Now(),
		RecurringItems: items,
	}
}
