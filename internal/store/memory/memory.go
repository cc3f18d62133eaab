// Package memory is the in-memory receipt store adapter. It backs the
// default server configuration and doubles as the test fixture store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"time"

	"raseed/internal/core"
	"raseed/internal/store"
)

type Store struct {
	mu        sync.Mutex
	receipts  map[string][]core.Receipt    // uid -> receipts
	snapshots map[string]map[string]float64 // uid|YYYY-MM -> category totals
	seen      map[string]struct{}           // receipt ids
}

func New() *Store {
	return &Store{
		receipts:  make(map[string][]core.Receipt),
		snapshots: make(map[string]map[string]float64),
		seen:      make(map[string]struct{}),
	}
}

// Seed loads receipts without the duplicate check, for tests and fixtures.
func Seed(receipts ...core.Receipt) *Store {
	s := New()
	for _, r := range receipts {
		s.receipts[r.UID] = append(s.receipts[r.UID], r)
		s.seen[r.ReceiptID] = struct{}{}
	}
	return s
}

// SaveReceipt implements store.ReceiptWriter.
func (s *Store) SaveReceipt(_ context.Context, r core.Receipt) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[r.ReceiptID]; ok {
		return fmt.Errorf("%w: %s", store.ErrDuplicateReceipt, r.ReceiptID)
	}
	s.seen[r.ReceiptID] = struct{}{}
	s.receipts[r.UID] = append(s.receipts[r.UID], r)
	return nil
}

// FetchReceipts implements store.ReceiptSource.
func (s *Store) FetchReceipts(_ context.Context, uid string, start, end time.Time) ([]core.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Receipt, 0)
	for _, r := range s.receipts[uid] {
		if r.Timestamp.Before(start) || !r.Timestamp.Before(end) {
			continue
		}
		out = append(out, r)
	}
	sortByTimestamp(out)
	return out, nil
}

// FetchReceiptHistory implements store.ReceiptSource.
func (s *Store) FetchReceiptHistory(_ context.Context, uid string) ([]core.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Receipt, len(s.receipts[uid]))
	copy(out, s.receipts[uid])
	sortByTimestamp(out)
	return out, nil
}

// FetchMonthlySnapshot implements store.SnapshotSource. A month without a
// snapshot yields an empty map.
func (s *Store) FetchMonthlySnapshot(_ context.Context, uid string, year, month int) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := make(map[string]float64)
	for cat, amt := range s.snapshots[snapshotKey(uid, year, month)] {
		totals[cat] = amt
	}
	return totals, nil
}

// SaveMonthlySnapshot implements store.SnapshotWriter, replacing any
// previous snapshot for the month.
func (s *Store) SaveMonthlySnapshot(_ context.Context, uid string, year, month int, totals map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make(map[string]float64, len(totals))
	for cat, amt := range totals {
		stored[cat] = amt
	}
	s.snapshots[snapshotKey(uid, year, month)] = stored
	return nil
}

// ListUsers implements store.UserLister.
func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uids := make([]string, 0, len(s.receipts))
	for uid := range s.receipts {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids, nil
}

func snapshotKey(uid string, year, month int) string {
	return fmt.Sprintf("%s|%04d-%02d", uid, year, month)
}

func sortByTimestamp(receipts []core.Receipt) {
	sort.SliceStable(receipts, func(i, j int) bool {
		return receipts[i].Timestamp.Before(receipts[j].Timestamp)
	})
}
