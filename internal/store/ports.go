package store

import (
	"context"
	"errors"
	"time"

	"raseed/internal/core"
)

// ErrDuplicateReceipt is returned when a receipt id is ingested twice.
var ErrDuplicateReceipt = errors.New("duplicate receipt id")

// Ports for the receipt store adapters. The analytic engine only ever
// reads through ReceiptSource and SnapshotSource; the write side exists
// for ingestion and snapshot precomputation.
type (
	// ReceiptSource supplies normalized receipt records for a user. The
	// adapter owns all persistence and range filtering; the engine never
	// issues queries itself.
	ReceiptSource interface {
		// FetchReceipts returns the user's receipts with timestamps in
		// [start, end), ordered by timestamp ascending.
		FetchReceipts(ctx context.Context, uid string, start, end time.Time) ([]core.Receipt, error)

		// FetchReceiptHistory returns the user's full receipt history,
		// ordered by timestamp ascending.
		FetchReceiptHistory(ctx context.Context, uid string) ([]core.Receipt, error)
	}

	// SnapshotSource reads previously computed monthly category totals.
	// A month with no snapshot yields an empty (never nil-checked) map,
	// not an error.
	SnapshotSource interface {
		FetchMonthlySnapshot(ctx context.Context, uid string, year, month int) (map[string]float64, error)
	}

	ReceiptWriter interface {
		SaveReceipt(ctx context.Context, r core.Receipt) error
	}

	SnapshotWriter interface {
		SaveMonthlySnapshot(ctx context.Context, uid string, year, month int, totals map[string]float64) error
	}

	// UserLister enumerates users with at least one stored receipt. Used
	// by the periodic snapshot sweep.
	UserLister interface {
		ListUsers(ctx context.Context) ([]string, error)
	}
)
