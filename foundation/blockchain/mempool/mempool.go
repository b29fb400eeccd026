// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"errors"
	"sort"
	"sync"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/mempool/selector"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
)

// ErrExists is returned when a transaction with the same signature is
// already in the pool.
var ErrExists = errors.New("transaction already in mempool")

type entry struct {
	seq uint64
	tx  database.Transaction
}

// Mempool represents a cache of pending transactions keyed by signature.
// The arrival order is kept so equal candidates are picked first come
// first served.
type Mempool struct {
	pool     map[signature.Signature]entry
	seq      uint64
	mu       sync.RWMutex
	selectFn selector.Func
}

// New constructs a new mempool using the default sort strategy.
func New() (*Mempool, error) {
	return NewWithStrategy(selector.StrategyGas)
}

// NewWithStrategy constructs a new mempool with specified sort strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[signature.Signature]entry),
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds a transaction to the mempool and returns the new size.
func (mp *Mempool) Upsert(tx database.Transaction) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[tx.Signature]; exists {
		return len(mp.pool), ErrExists
	}

	mp.seq++
	mp.pool[tx.Signature] = entry{seq: mp.seq, tx: tx}

	return len(mp.pool), nil
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(sig signature.Signature) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, sig)
}

// DeleteMany removes a set of transactions from the mempool.
func (mp *Mempool) DeleteMany(sigs []signature.Signature) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, sig := range sigs {
		delete(mp.pool, sig)
	}
}

// Copy returns a copy of the pool in arrival order.
func (mp *Mempool) Copy() []database.Transaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return mp.ordered(func(database.Transaction) bool { return true })
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[signature.Signature]entry)
}

// PickBest uses the configured sort strategy to return the transactions
// targeting the specified block height in the order the block builder
// should consider them. Pass -1 for howMany to get all of them.
func (mp *Mempool) PickBest(blockHeight uint64, howMany int) []database.Transaction {
	var candidates []database.Transaction
	mp.mu.RLock()
	{
		candidates = mp.ordered(func(tx database.Transaction) bool {
			return tx.BlockHeight == blockHeight
		})
	}
	mp.mu.RUnlock()

	return mp.selectFn(candidates, howMany)
}

// PruneStale removes the transactions whose target height can no longer be
// built on top of the latest block and returns them in arrival order.
func (mp *Mempool) PruneStale(latestIndex uint64) []database.Transaction {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	stale := mp.ordered(func(tx database.Transaction) bool {
		return tx.BlockHeight <= latestIndex
	})

	for _, tx := range stale {
		delete(mp.pool, tx.Signature)
	}

	return stale
}

// ordered returns the matching transactions in arrival order. The caller
// must hold a lock.
func (mp *Mempool) ordered(match func(database.Transaction) bool) []database.Transaction {
	entries := make([]entry, 0, len(mp.pool))
	for _, e := range mp.pool {
		if match(e.tx) {
			entries = append(entries, e)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	txs := make([]database.Transaction, len(entries))
	for i, e := range entries {
		txs[i] = e.tx
	}

	return txs
}
