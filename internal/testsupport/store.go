package testsupport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"releasewatch/internal/catalog"
	"releasewatch/internal/config"
	"releasewatch/internal/ledger"
)

// MustOpenLedger opens the configured ledger for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) ledger.Ledger {
	t.Helper()

	store, err := ledger.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MemoryLedger is an in-process ledger with injectable failures.
type MemoryLedger struct {
	mu        sync.Mutex
	entries   []ledger.Entry
	HasErr    map[catalog.ItemID]error
	RecordErr map[catalog.ItemID]error
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		HasErr:    map[catalog.ItemID]error{},
		RecordErr: map[catalog.ItemID]error{},
	}
}

func (m *MemoryLedger) Has(_ context.Context, id catalog.ItemID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.HasErr[id]; err != nil {
		return false, err
	}
	for _, e := range m.entries {
		if e.ItemID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryLedger) Record(_ context.Context, id catalog.ItemID, on time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.RecordErr[id]; err != nil {
		return false, err
	}
	m.entries = append(m.entries, ledger.Entry{
		RowID:       int64(len(m.entries) + 1),
		ItemID:      id,
		AnnouncedOn: ledger.FormatDate(on),
	})
	return true, nil
}

func (m *MemoryLedger) List(_ context.Context, limit int) ([]ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ledger.Entry, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0; i-- {
		out = append(out, m.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryLedger) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.entries)), nil
}

func (m *MemoryLedger) Close() error { return nil }

// IDs returns recorded identifiers in insertion order.
func (m *MemoryLedger) IDs() []catalog.ItemID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]catalog.ItemID, 0, len(m.entries))
	for _, e := range m.entries {
		ids = append(ids, e.ItemID)
	}
	return ids
}

// ErrInjected is a generic failure for fakes.
var ErrInjected = errors.New("injected failure")

var _ ledger.Ledger = (*MemoryLedger)(nil)
