// Package insights merges the five analytic reports into the single
// structure the conversational front end consumes.
package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"raseed/internal/analytics"
	"raseed/internal/core"
	"raseed/internal/store"
)

// ErrInvalidMonth is returned for a month outside 1..12.
var ErrInvalidMonth = errors.New("month out of range")

// Report is the composed five-part insight payload. The section keys are
// the stable names downstream consumers match on.
type Report struct {
	UID               string                     `json:"uid"`
	Month             string                     `json:"month"`
	DashboardMetrics  analytics.MonthlyReport    `json:"dashboard_metrics"`
	TrendInsights     analytics.TrendReport      `json:"trend_insights"`
	RecurringExpenses analytics.RecurrenceReport `json:"recurring_expenses"`
	SpendingAnomalies analytics.AnomalyReport    `json:"spending_anomalies"`
	TimeSlotBreakdown analytics.TimeSlotReport   `json:"time_slot_breakdown"`
	GeneratedAt       time.Time                  `json:"generated_at"`
}

// Composer wires the analytic engine to a receipt store adapter. The
// engine itself holds no state; everything flows in per call.
type Composer struct {
	receipts  store.ReceiptSource
	snapshots store.SnapshotSource
}

func NewComposer(receipts store.ReceiptSource, snapshots store.SnapshotSource) *Composer {
	return &Composer{receipts: receipts, snapshots: snapshots}
}

// Compose fetches the month's receipts, the full history, and the two
// monthly snapshots, then runs the five analytic components as independent
// units of work. The components are pure functions over immutable input,
// so the fan-out needs no synchronization beyond the errgroup itself.
func (c *Composer) Compose(ctx context.Context, uid string, year, month int) (*Report, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}

	start := monthStart(year, month)
	end := start.AddDate(0, 1, 0)
	prevYear, prevMonth := analytics.PreviousPeriod(year, month)

	var (
		monthReceipts []core.Receipt
		history       []core.Receipt
		current       map[string]float64
		previous      map[string]float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		monthReceipts, err = c.receipts.FetchReceipts(gctx, uid, start, end)
		return err
	})
	g.Go(func() (err error) {
		history, err = c.receipts.FetchReceiptHistory(gctx, uid)
		return err
	})
	g.Go(func() (err error) {
		current, err = c.snapshots.FetchMonthlySnapshot(gctx, uid, year, month)
		return err
	})
	g.Go(func() (err error) {
		previous, err = c.snapshots.FetchMonthlySnapshot(gctx, uid, prevYear, prevMonth)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch analytic inputs: %w", err)
	}

	report := &Report{
		UID:   uid,
		Month: analytics.FormatMonth(year, month),
	}

	// Each goroutine writes a distinct report field and reads only its
	// own copy of the inputs, so the group carries no errors to check.
	var compute errgroup.Group
	compute.Go(func() error {
		report.DashboardMetrics = analytics.AggregateMonthly(uid, year, month, monthReceipts)
		return nil
	})
	compute.Go(func() error {
		report.TrendInsights = analytics.CompareMonths(uid, year, month, current, previous)
		return nil
	})
	compute.Go(func() error {
		report.RecurringExpenses = analytics.DetectRecurring(uid, history)
		return nil
	})
	compute.Go(func() error {
		report.SpendingAnomalies = analytics.DetectAnomalies(uid, history)
		return nil
	})
	compute.Go(func() error {
		report.TimeSlotBreakdown = analytics.AnalyzeTimeSlots(uid, history)
		return nil
	})
	_ = compute.Wait()

	report.GeneratedAt = time.Now()
	return report, nil
}

// Monthly runs only the aggregator for one user-month.
func (c *Composer) Monthly(ctx context.Context, uid string, year, month int) (analytics.MonthlyReport, error) {
	if month < 1 || month > 12 {
		return analytics.MonthlyReport{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	start := monthStart(year, month)
	receipts, err := c.receipts.FetchReceipts(ctx, uid, start, start.AddDate(0, 1, 0))
	if err != nil {
		return analytics.MonthlyReport{}, fmt.Errorf("fetch receipts: %w", err)
	}
	return analytics.AggregateMonthly(uid, year, month, receipts), nil
}

// Trends runs only the trend comparison against the stored snapshots.
func (c *Composer) Trends(ctx context.Context, uid string, year, month int) (analytics.TrendReport, error) {
	if month < 1 || month > 12 {
		return analytics.TrendReport{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	current, err := c.snapshots.FetchMonthlySnapshot(ctx, uid, year, month)
	if err != nil {
		return analytics.TrendReport{}, fmt.Errorf("fetch current snapshot: %w", err)
	}
	prevYear, prevMonth := analytics.PreviousPeriod(year, month)
	previous, err := c.snapshots.FetchMonthlySnapshot(ctx, uid, prevYear, prevMonth)
	if err != nil {
		return analytics.TrendReport{}, fmt.Errorf("fetch previous snapshot: %w", err)
	}
	return analytics.CompareMonths(uid, year, month, current, previous), nil
}

// Recurring runs only the recurring-expense detector over full history.
func (c *Composer) Recurring(ctx context.Context, uid string) (analytics.RecurrenceReport, error) {
	history, err := c.receipts.FetchReceiptHistory(ctx, uid)
	if err != nil {
		return analytics.RecurrenceReport{}, fmt.Errorf("fetch history: %w", err)
	}
	return analytics.DetectRecurring(uid, history), nil
}

// Anomalies runs only the anomaly detector over full history.
func (c *Composer) Anomalies(ctx context.Context, uid string) (analytics.AnomalyReport, error) {
	history, err := c.receipts.FetchReceiptHistory(ctx, uid)
	if err != nil {
		return analytics.AnomalyReport{}, fmt.Errorf("fetch history: %w", err)
	}
	return analytics.DetectAnomalies(uid, history), nil
}

// TimeSlots runs only the time-slot analyzer over full history.
func (c *Composer) TimeSlots(ctx context.Context, uid string) (analytics.TimeSlotReport, error) {
	history, err := c.receipts.FetchReceiptHistory(ctx, uid)
	if err != nil {
		return analytics.TimeSlotReport{}, fmt.Errorf("fetch history: %w", err)
	}
	return analytics.AnalyzeTimeSlots(uid, history), nil
}

func monthStart(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}
