package mocks

import (
	"context"
	"sync"

	"github.com/example/pos-backoffice/internal/domain/ledger"
)

// MockStockStore is a mock implementation of ledger.Store for testing
type MockStockStore struct {
	mu        sync.RWMutex
	records   map[ledger.Key]ledger.StockRecord
	movements []ledger.Movement

	// For tracking calls in tests
	CommitCalls    []CommitCall
	CommitErr      error
	CommitCallback func(ctx context.Context, records []*ledger.StockRecord, movements []*ledger.Movement) error
	GetErr         error
}

// CommitCall records parameters passed to Commit
type CommitCall struct {
	Records   []*ledger.StockRecord
	Movements []*ledger.Movement
}

// NewMockStockStore creates a new MockStockStore
func NewMockStockStore() *MockStockStore {
	return &MockStockStore{
		records:     make(map[ledger.Key]ledger.StockRecord),
		CommitCalls: make([]CommitCall, 0),
	}
}

// Get returns the record for key, or nil if absent
func (m *MockStockStore) Get(ctx context.Context, key ledger.Key) (*ledger.StockRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	snapshot := rec
	return &snapshot, nil
}

// List returns records for a product, optionally filtered by warehouse
func (m *MockStockStore) List(ctx context.Context, productID, warehouseID string) ([]*ledger.StockRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*ledger.StockRecord
	for key, rec := range m.records {
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

// All returns every record
func (m *MockStockStore) All(ctx context.Context) ([]*ledger.StockRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*ledger.StockRecord, 0, len(m.records))
	for _, rec := range m.records {
		snapshot := rec
		result = append(result, &snapshot)
	}
	return result, nil
}

// Commit applies records and movements in memory
func (m *MockStockStore) Commit(ctx context.Context, records []*ledger.StockRecord, movements []*ledger.Movement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Record the call
	m.CommitCalls = append(m.CommitCalls, CommitCall{Records: records, Movements: movements})

	// Use callback if provided
	if m.CommitCallback != nil {
		return m.CommitCallback(ctx, records, movements)
	}

	// Return error if set
	if m.CommitErr != nil {
		return m.CommitErr
	}

	for _, rec := range records {
		m.records[rec.Key] = *rec
	}
	for _, mv := range movements {
		m.movements = append(m.movements, *mv)
	}
	return nil
}

// Movements returns ledger entries for one key
func (m *MockStockStore) Movements(ctx context.Context, key ledger.Key) ([]ledger.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Movement
	for _, mv := range m.movements {
		if mv.Key == key {
			result = append(result, mv)
		}
	}
	return result, nil
}

// AllMovements returns every ledger entry
func (m *MockStockStore) AllMovements(ctx context.Context) ([]ledger.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.Movement, len(m.movements))
	copy(result, m.movements)
	return result, nil
}

// SetRecord seeds a record directly for testing
func (m *MockStockStore) SetRecord(rec ledger.StockRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Key] = rec
}

// Reset clears all state and recorded calls
func (m *MockStockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[ledger.Key]ledger.StockRecord)
	m.movements = nil
	m.CommitCalls = make([]CommitCall, 0)
	m.CommitErr = nil
	m.CommitCallback = nil
	m.GetErr = nil
}
