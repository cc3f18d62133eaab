// Package export defines the outbound reporting port. Implementations
// push computed monthly reports to external destinations.
package export

import (
	"context"

	"raseed/internal/analytics"
)

// ReportExporter publishes a monthly spending report to an external sink.
type ReportExporter interface {
	ExportMonthlyReport(ctx context.Context, report analytics.MonthlyReport) error
}
