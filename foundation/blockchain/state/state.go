// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/datben/gulf-stream/foundation/blockchain/chain"
	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/genesis"
	"github.com/datben/gulf-stream/foundation/blockchain/mempool"
	"github.com/datben/gulf-stream/foundation/blockchain/mempool/selector"
	"github.com/datben/gulf-stream/foundation/blockchain/peer"
	"github.com/datben/gulf-stream/foundation/blockchain/storage"
	"github.com/datben/gulf-stream/foundation/blockchain/storage/memory"
	"golang.org/x/sync/semaphore"
)

// ErrLockContention is returned when the blockchain lock can't be acquired
// before the caller's context is done.
var ErrLockContention = errors.New("blockchain lock contention")

// DefaultPeerTimeout bounds every request made to a peer when no transport
// is configured.
const DefaultPeerTimeout = 5 * time.Second

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and transaction sharing.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
	SignalShareTx(tx database.Transaction)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Host           string
	Genesis        genesis.Genesis
	Storage        storage.Storage
	SelectStrategy string
	KnownPeers     *peer.PeerSet
	Transport      Transport
	EvHandler      EventHandler
}

// State manages the blockchain. The chain, the mempool and the known peers
// are guarded independently and no operation holds more than one of them.
type State struct {
	host      string
	evHandler EventHandler
	genesis   genesis.Genesis

	chain     *chain.Blockchain
	chainLock *semaphore.Weighted

	knownPeers *peer.PeerSet
	mempool    *mempool.Mempool
	storage    storage.Storage
	transport  Transport

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Construct a mempool with the specified sort strategy.
	strategy := cfg.SelectStrategy
	if strategy == "" {
		strategy = selector.StrategyGas
	}
	mempool, err := mempool.NewWithStrategy(strategy)
	if err != nil {
		return nil, err
	}

	strg := cfg.Storage
	if strg == nil {
		strg = memory.New()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = NewHTTPTransport(DefaultPeerTimeout)
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		host:      cfg.Host,
		evHandler: ev,
		genesis:   cfg.Genesis,

		chain:     chain.New(uint(cfg.Genesis.Difficulty)),
		chainLock: semaphore.NewWeighted(1),

		knownPeers: knownPeers,
		mempool:    mempool,
		storage:    strg,
		transport:  transport,

		Worker: noopWorker{},
	}

	// The Worker is set to a no-op here. The call to worker.Run will assign
	// itself and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the history is properly closed.
	defer func() {
		s.storage.Close()
	}()

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	return nil
}

// lockChain acquires exclusive access to the blockchain. The wait ends with
// ErrLockContention when the context is done first.
func (s *State) lockChain(ctx context.Context) error {
	if err := s.chainLock.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %w", ErrLockContention, err)
	}
	return nil
}

func (s *State) unlockChain() {
	s.chainLock.Release(1)
}

// recordHistory upserts the records in the history. Failures are logged
// and never fail the ledger operation.
func (s *State) recordHistory(records ...database.TransactionState) {
	for _, ts := range records {
		if err := s.storage.Upsert(ts); err != nil {
			s.evHandler("state: recordHistory: WARNING: tx[%s]: %s", ts.Tx.Signature, err)
		}
	}
}

// =============================================================================

type noopWorker struct{}

func (noopWorker) Shutdown() {}
func (noopWorker) SignalStartMining() {}
func (noopWorker) SignalCancelMining() {}
func (noopWorker) SignalShareTx(database.Transaction) {}
