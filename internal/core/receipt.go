package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

type (
	// Item is one purchased line on a receipt. Name and Category form the
	// item's identity for recurrence and anomaly grouping, compared after
	// NormalizeLabel.
	Item struct {
		Name     string  `json:"name"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Quantity float64 `json:"quantity,omitempty"`
		Rate     float64 `json:"rate,omitempty"`
	}

	// Receipt is one purchase transaction. CategorySummary holds the
	// per-category sums declared by the upstream parser; ingestion verifies
	// it against Items so downstream consumers may trust either view.
	Receipt struct {
		ReceiptID       string             `json:"receipt_id"`
		UID             string             `json:"uid"`
		Timestamp       time.Time          `json:"timestamp"`
		Merchant        string             `json:"merchant"`
		CategorySummary map[string]float64 `json:"category_summary"`
		Items           []Item             `json:"items"`
	}
)

var (
	ErrEmptyReceiptID     = errors.New("empty receipt id")
	ErrEmptyUID           = errors.New("empty uid")
	ErrMissingTimestamp   = errors.New("missing timestamp")
	ErrEmptyItemName      = errors.New("empty item name")
	ErrEmptyItemCategory  = errors.New("empty item category")
	ErrNegativeAmount     = errors.New("negative amount")
	ErrSummaryMismatch    = errors.New("category summary does not match items")
)

// summaryTolerance is the largest per-category gap between the declared
// summary and the item-derived sums that ingestion still accepts. One cent
// absorbs upstream rounding without hiding real data-entry bugs.
const summaryTolerance = 0.01

// NormalizeLabel canonicalizes a free-text name or category for identity
// comparison. The recurring and anomaly detectors must use the same
// normalization, so it lives here rather than in either of them.
func NormalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Round2 rounds a monetary value to 2 decimal places. Internal accumulation
// keeps full precision; rounding happens only when a value leaves the engine.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyItemName
	}
	if strings.TrimSpace(i.Category) == "" {
		return ErrEmptyItemCategory
	}
	if i.Amount < 0 || i.Quantity < 0 || i.Rate < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Validate applies the fail-fast ingestion contract: identity fields present,
// timestamp set, no negative amounts, and the declared category summary (if
// any) in agreement with the items. Analytic components assume input has
// passed this check and do not re-validate.
func (r Receipt) Validate() error {
	if strings.TrimSpace(r.ReceiptID) == "" {
		return ErrEmptyReceiptID
	}
	if strings.TrimSpace(r.UID) == "" {
		return ErrEmptyUID
	}
	if r.Timestamp.IsZero() {
		return ErrMissingTimestamp
	}
	for _, item := range r.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %q: %w", item.Name, err)
		}
	}
	for cat, amt := range r.CategorySummary {
		if strings.TrimSpace(cat) == "" {
			return ErrEmptyItemCategory
		}
		if amt < 0 {
			return ErrNegativeAmount
		}
	}
	if len(r.CategorySummary) > 0 {
		if err := r.checkSummary(); err != nil {
			return err
		}
	}
	return nil
}

func (r Receipt) checkSummary() error {
	derived := r.DeriveCategorySummary()
	if len(derived) != len(r.CategorySummary) {
		return fmt.Errorf("%w: %d declared categories, %d derived",
			ErrSummaryMismatch, len(r.CategorySummary), len(derived))
	}
	for cat, want := range derived {
		got, ok := r.CategorySummary[cat]
		if !ok {
			return fmt.Errorf("%w: missing category %q", ErrSummaryMismatch, cat)
		}
		if math.Abs(got-want) > summaryTolerance {
			return fmt.Errorf("%w: category %q declared %.2f, items sum to %.2f",
				ErrSummaryMismatch, cat, got, want)
		}
	}
	return nil
}

// DeriveCategorySummary recomputes the per-category sums from the items,
// keyed by the item categories as written (not normalized), matching how
// upstream parsers populate category_summary.
func (r Receipt) DeriveCategorySummary() map[string]float64 {
	summary := make(map[string]float64, len(r.Items))
	for _, item := range r.Items {
		summary[item.Category] += item.Amount
	}
	return summary
}

// TotalSpend is the sum of the receipt's item amounts. The anomaly and
// time-slot analyzers use this, never the declared category summary.
func (r Receipt) TotalSpend() float64 {
	var total float64
	for _, item := range r.Items {
		total += item.Amount
	}
	return total
}

// SummaryTotal is the sum of the declared category summary values. The
// monthly aggregator uses this view of the receipt's total.
func (r Receipt) SummaryTotal() float64 {
	var total float64
	for _, amt := range r.CategorySummary {
		total += amt
	}
	return total
}

// MonthID formats the receipt's calendar month as YYYY-MM.
func (r Receipt) MonthID() string {
	return fmt.Sprintf("%04d-%02d", r.Timestamp.Year(), int(r.Timestamp.Month()))
}

// DateID formats the receipt's calendar date as YYYY-MM-DD.
func (r Receipt) DateID() string {
	return r.Timestamp.Format("2006-01-02")
}
