package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/peer"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
)

// ErrNegativeBalance is returned when the balance of an account at the
// latest block is negative. It can only happen on a malformed chain.
var ErrNegativeBalance = errors.New("negative balance")

// Status is a snapshot of the node's view of the ledger.
type Status struct {
	LatestIndex uint64               `json:"latest_index"`
	LatestHash  database.Blockhash   `json:"latest_hash"`
	Tips        []database.Blockhash `json:"tips"`
	TreeSize    int                  `json:"tree_size"`
	Mempool     int                  `json:"mempool"`
	KnownPeers  []peer.Peer          `json:"known_peers"`
}

// =============================================================================

// QueryBalance returns the balance of the account at the latest block.
func (s *State) QueryBalance(ctx context.Context, pk signature.PublicKey) (uint64, error) {
	if err := s.lockChain(ctx); err != nil {
		return 0, err
	}
	delta := s.chain.Balance(pk)
	s.unlockChain()

	balance, ok := delta.Uint64()
	if !ok {
		return 0, fmt.Errorf("account[%s]: %s: %w", pk, delta, ErrNegativeBalance)
	}

	return balance, nil
}

// QueryLatestBlock returns the latest block.
func (s *State) QueryLatestBlock(ctx context.Context) (database.Block, error) {
	if err := s.lockChain(ctx); err != nil {
		return database.Block{}, err
	}
	defer s.unlockChain()

	return s.chain.LatestBlock(), nil
}

// QueryBlock returns the block matching the hash and index.
func (s *State) QueryBlock(ctx context.Context, hash database.Blockhash, index uint64) (database.Block, error) {
	if err := s.lockChain(ctx); err != nil {
		return database.Block{}, err
	}
	defer s.unlockChain()

	return s.chain.Find(hash, index)
}

// QueryBlocksFrom returns the blocks of the latest branch starting at the
// specified index.
func (s *State) QueryBlocksFrom(ctx context.Context, from uint64) ([]database.Block, error) {
	if err := s.lockChain(ctx); err != nil {
		return nil, err
	}
	path := s.chain.Tree().Path(s.chain.Latest())
	s.unlockChain()

	if from >= uint64(len(path)) {
		return nil, nil
	}

	return path[from:], nil
}

// QueryBlocksByAccount returns the blocks of the latest branch that carry
// a transaction touching the account. If the account is zero, all blocks
// are returned.
func (s *State) QueryBlocksByAccount(ctx context.Context, pk signature.PublicKey) ([]database.Block, error) {
	path, err := s.QueryBlocksFrom(ctx, 0)
	if err != nil {
		return nil, err
	}

	var out []database.Block
	for _, block := range path {
		if pk.IsZero() || block.Touches(pk) {
			out = append(out, block)
		}
	}

	return out, nil
}

// QueryHistory returns the recorded transaction history.
func (s *State) QueryHistory() ([]database.TransactionState, error) {
	return s.storage.List()
}

// QueryTransaction returns the recorded state of the transaction.
func (s *State) QueryTransaction(sig signature.Signature) (database.TransactionState, error) {
	return s.storage.Get(sig)
}

// QueryMempool returns a copy of the mempool in arrival order.
func (s *State) QueryMempool() []database.Transaction {
	return s.mempool.Copy()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryNodeStatus returns what this node advertises to its peers.
func (s *State) QueryNodeStatus(ctx context.Context) (peer.PeerStatus, error) {
	latest, err := s.QueryLatestBlock(ctx)
	if err != nil {
		return peer.PeerStatus{}, err
	}

	ps := peer.PeerStatus{
		LatestBlockHash:  latest.Blockhash,
		LatestBlockIndex: latest.Index,
		KnownPeers:       s.RetrieveKnownPeers(),
	}

	return ps, nil
}

// QueryStatus returns a snapshot of the ledger.
func (s *State) QueryStatus(ctx context.Context) (Status, error) {
	if err := s.lockChain(ctx); err != nil {
		return Status{}, err
	}

	tr := s.chain.Tree()
	latest := s.chain.LatestBlock()

	tips := s.chain.Tips()
	hashes := make([]database.Blockhash, len(tips))
	for i, l := range tips {
		hashes[i] = tr.Block(l).Blockhash
	}
	size := tr.Len()

	s.unlockChain()

	st := Status{
		LatestIndex: latest.Index,
		LatestHash:  latest.Blockhash,
		Tips:        hashes,
		TreeSize:    size,
		Mempool:     s.mempool.Count(),
		KnownPeers:  s.RetrieveKnownPeers(),
	}

	return st, nil
}
