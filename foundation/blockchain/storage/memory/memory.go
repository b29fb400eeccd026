// Package memory implements the ability to record transaction history in
// memory using a slice.
package memory

import (
	"sync"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
	"github.com/datben/gulf-stream/foundation/blockchain/storage"
)

// Memory represents the implementation for recording transaction history
// in memory using a slice. This implements the storage.Storage interface.
type Memory struct {
	mu      sync.RWMutex
	records []database.TransactionState
	bySig   map[signature.Signature]int
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{
		bySig: make(map[signature.Signature]int),
	}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Upsert records the transaction state.
func (m *Memory) Upsert(ts database.TransactionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i, exists := m.bySig[ts.Tx.Signature]; exists {
		m.records[i] = ts
		return nil
	}

	m.bySig[ts.Tx.Signature] = len(m.records)
	m.records = append(m.records, ts)

	return nil
}

// Get returns the record for the signature.
func (m *Memory) Get(sig signature.Signature) (database.TransactionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, exists := m.bySig[sig]
	if !exists {
		return database.TransactionState{}, storage.ErrNotFound
	}

	return m.records[i], nil
}

// List returns a copy of every record in the order they were first seen.
func (m *Memory) List() ([]database.TransactionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]database.TransactionState(nil), m.records...), nil
}

// Reset will clear out the history.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = nil
	m.bySig = make(map[signature.Signature]int)

	return nil
}
