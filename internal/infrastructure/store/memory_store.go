package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/pos-backoffice/internal/domain/ledger"
)

// MemoryStockStore keeps stock records and the movement ledger in memory.
// Commits are version-checked under one lock, so concurrent writers on the
// same key serialize instead of losing updates.
type MemoryStockStore struct {
	mu        sync.RWMutex
	records   map[ledger.Key]ledger.StockRecord
	movements []ledger.Movement
	publisher Publisher
}

// NewMemoryStockStore creates an in-memory store. publisher may be nil.
func NewMemoryStockStore(publisher Publisher) *MemoryStockStore {
	return &MemoryStockStore{
		records:   make(map[ledger.Key]ledger.StockRecord),
		publisher: publisher,
	}
}

func (ms *MemoryStockStore) Get(ctx context.Context, key ledger.Key) (*ledger.StockRecord, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	rec, ok := ms.records[key]
	if !ok {
		return nil, nil
	}
	snapshot := rec
	return &snapshot, nil
}

func (ms *MemoryStockStore) List(ctx context.Context, productID, warehouseID string) ([]*ledger.StockRecord, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var result []*ledger.StockRecord
	for key, rec := range ms.records {
		if key.ProductID != productID {
			continue
		}
		if warehouseID != "" && key.WarehouseID != warehouseID {
			continue
		}
		snapshot := rec
		result = append(result, &snapshot)
	}
	return result, nil
}

func (ms *MemoryStockStore) All(ctx context.Context) ([]*ledger.StockRecord, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	result := make([]*ledger.StockRecord, 0, len(ms.records))
	for _, rec := range ms.records {
		snapshot := rec
		result = append(result, &snapshot)
	}
	return result, nil
}

// Commit applies all record updates and movement appends atomically. Every
// record must carry exactly the next version for its key; otherwise nothing
// is applied and the commit fails with ErrConcurrencyConflict.
func (ms *MemoryStockStore) Commit(ctx context.Context, records []*ledger.StockRecord, movements []*ledger.Movement) error {
	ms.mu.Lock()

	for _, rec := range records {
		current, exists := ms.records[rec.Key]
		if rec.Version == 1 {
			if exists {
				ms.mu.Unlock()
				return fmt.Errorf("%w: record already exists at %s", ledger.ErrConcurrencyConflict, rec.Key)
			}
			continue
		}
		if !exists || current.Version != rec.Version-1 {
			ms.mu.Unlock()
			return fmt.Errorf("%w: stale version %d at %s", ledger.ErrConcurrencyConflict, rec.Version, rec.Key)
		}
	}

	for _, rec := range records {
		ms.records[rec.Key] = *rec
	}
	for _, m := range movements {
		ms.movements = append(ms.movements, *m)
	}
	ms.mu.Unlock()

	return publishEvents(ctx, ms.publisher, records, movements)
}

func (ms *MemoryStockStore) Movements(ctx context.Context, key ledger.Key) ([]ledger.Movement, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var result []ledger.Movement
	for _, m := range ms.movements {
		if m.Key == key {
			result = append(result, m)
		}
	}
	return result, nil
}

func (ms *MemoryStockStore) AllMovements(ctx context.Context) ([]ledger.Movement, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	result := make([]ledger.Movement, len(ms.movements))
	copy(result, ms.movements)
	return result, nil
}
