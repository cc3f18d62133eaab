package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"raseed/internal/core"
	"raseed/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the durable receipt store adapter. It owns all
// persistence and range filtering; the analytic engine only sees the
// store ports it implements.
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ store.ReceiptSource  = (*SQLiteRepository)(nil)
	_ store.ReceiptWriter  = (*SQLiteRepository)(nil)
	_ store.SnapshotSource = (*SQLiteRepository)(nil)
	_ store.SnapshotWriter = (*SQLiteRepository)(nil)
	_ store.UserLister     = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveReceipt implements store.ReceiptWriter. The receipt and its items
// and category summary land in one transaction.
func (r *SQLiteRepository) SaveReceipt(ctx context.Context, receipt core.Receipt) error {
	if err := receipt.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM receipts WHERE receipt_id = ?`, receipt.ReceiptID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check receipt id: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", store.ErrDuplicateReceipt, receipt.ReceiptID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO receipts (receipt_id, uid, ts, merchant) VALUES (?, ?, ?, ?)`,
		receipt.ReceiptID, receipt.UID, formatTime(receipt.Timestamp), receipt.Merchant)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}

	for i, item := range receipt.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO receipt_items (receipt_id, position, name, category, amount, quantity, rate)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			receipt.ReceiptID, i, item.Name, item.Category, item.Amount, item.Quantity, item.Rate)
		if err != nil {
			return fmt.Errorf("insert item %d: %w", i, err)
		}
	}

	for cat, amt := range receipt.CategorySummary {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO receipt_categories (receipt_id, category, amount) VALUES (?, ?, ?)`,
			receipt.ReceiptID, cat, amt)
		if err != nil {
			return fmt.Errorf("insert category summary %q: %w", cat, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit receipt: %w", err)
	}

	slog.InfoContext(ctx, "Receipt saved to SQLite",
		"receipt_id", receipt.ReceiptID,
		"uid", receipt.UID,
		"merchant", receipt.Merchant,
		"items", len(receipt.Items))

	return nil
}

// FetchReceipts implements store.ReceiptSource with a [start, end)
// timestamp range.
func (r *SQLiteRepository) FetchReceipts(ctx context.Context, uid string, start, end time.Time) ([]core.Receipt, error) {
	return r.queryReceipts(ctx,
		`SELECT receipt_id, uid, ts, merchant FROM receipts
		 WHERE uid = ? AND ts >= ? AND ts < ? ORDER BY ts`,
		uid, formatTime(start), formatTime(end))
}

// FetchReceiptHistory implements store.ReceiptSource.
func (r *SQLiteRepository) FetchReceiptHistory(ctx context.Context, uid string) ([]core.Receipt, error) {
	return r.queryReceipts(ctx,
		`SELECT receipt_id, uid, ts, merchant FROM receipts WHERE uid = ? ORDER BY ts`,
		uid)
}

func (r *SQLiteRepository) queryReceipts(ctx context.Context, query string, args ...any) ([]core.Receipt, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	receipts := make([]core.Receipt, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			receipt core.Receipt
			ts      string
		)
		if err := rows.Scan(&receipt.ReceiptID, &receipt.UID, &ts, &receipt.Merchant); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipt.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		receipt.CategorySummary = make(map[string]float64)
		index[receipt.ReceiptID] = len(receipts)
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	if len(receipts) == 0 {
		return receipts, nil
	}

	if err := r.loadItems(ctx, receipts, index); err != nil {
		return nil, err
	}
	if err := r.loadCategorySummaries(ctx, receipts, index); err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *SQLiteRepository) loadItems(ctx context.Context, receipts []core.Receipt, index map[string]int) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT i.receipt_id, i.name, i.category, i.amount, i.quantity, i.rate
		 FROM receipt_items i
		 JOIN receipts p ON p.receipt_id = i.receipt_id
		 WHERE p.uid = ?
		 ORDER BY i.receipt_id, i.position`,
		receipts[0].UID)
	if err != nil {
		return fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			receiptID string
			item      core.Item
		)
		if err := rows.Scan(&receiptID, &item.Name, &item.Category, &item.Amount, &item.Quantity, &item.Rate); err != nil {
			return fmt.Errorf("scan item: %w", err)
		}
		if i, ok := index[receiptID]; ok {
			receipts[i].Items = append(receipts[i].Items, item)
		}
	}
	return rows.Err()
}

func (r *SQLiteRepository) loadCategorySummaries(ctx context.Context, receipts []core.Receipt, index map[string]int) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.receipt_id, c.category, c.amount
		 FROM receipt_categories c
		 JOIN receipts p ON p.receipt_id = c.receipt_id
		 WHERE p.uid = ?`,
		receipts[0].UID)
	if err != nil {
		return fmt.Errorf("query category summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			receiptID string
			category  string
			amount    float64
		)
		if err := rows.Scan(&receiptID, &category, &amount); err != nil {
			return fmt.Errorf("scan category summary: %w", err)
		}
		if i, ok := index[receiptID]; ok {
			receipts[i].CategorySummary[category] = amount
		}
	}
	return rows.Err()
}

// FetchMonthlySnapshot implements store.SnapshotSource. A month with no
// snapshot yields an empty map, never an error.
func (r *SQLiteRepository) FetchMonthlySnapshot(ctx context.Context, uid string, year, month int) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, amount FROM monthly_snapshots WHERE uid = ? AND year = ? AND month = ?`,
		uid, year, month)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var (
			category string
			amount   float64
		)
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		totals[category] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot: %w", err)
	}
	return totals, nil
}

// SaveMonthlySnapshot implements store.SnapshotWriter, replacing the
// month's previous snapshot in one transaction.
func (r *SQLiteRepository) SaveMonthlySnapshot(ctx context.Context, uid string, year, month int, totals map[string]float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM monthly_snapshots WHERE uid = ? AND year = ? AND month = ?`,
		uid, year, month)
	if err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	computedAt := formatTime(time.Now())
	for cat, amt := range totals {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO monthly_snapshots (uid, year, month, category, amount, computed_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uid, year, month, cat, amt, computedAt)
		if err != nil {
			return fmt.Errorf("insert snapshot row %q: %w", cat, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Monthly snapshot saved",
		"uid", uid,
		"year", year,
		"month", month,
		"categories", len(totals))

	return nil
}

// ListUsers implements store.UserLister.
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT uid FROM receipts ORDER BY uid`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scan uid: %w", err)
		}
		uids = append(uids, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return uids, nil
}

// formatTime normalizes to RFC3339 UTC so stored timestamps compare
// lexicographically in range scans.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
