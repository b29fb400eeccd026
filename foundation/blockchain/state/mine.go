package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/datben/gulf-stream/foundation/blockchain/chain"
	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
)

// Set of error variables for a block building round with nothing to build.
var (
	ErrNoTransactions           = errors.New("no transactions in mempool")
	ErrNoAdmissibleTransactions = errors.New("no admissible transactions")
)

// =============================================================================

// MineNewBlock attempts to build a new block on top of the latest block.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	if err := s.lockChain(ctx); err != nil {
		return database.Block{}, err
	}
	latest := s.chain.LatestBlock()
	s.unlockChain()

	return s.BuildBlock(ctx, latest.Index, latest.Blockhash)
}

// BuildBlock assembles the mempool transactions targeting the next height
// into a block on top of the specified block. Candidates are considered in
// the mempool strategy order and each one is admitted only if no account it
// debits goes negative given the transactions admitted before it. Rejected
// candidates stay Pending in the mempool. The proof of work runs without
// holding the blockchain lock.
func (s *State) BuildBlock(ctx context.Context, prevIndex uint64, prevHash database.Blockhash) (database.Block, error) {
	s.evHandler("state: BuildBlock: MINING: check mempool count")

	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	candidates := s.mempool.PickBest(prevIndex+1, -1)
	if len(candidates) == 0 {
		return database.Block{}, fmt.Errorf("blockheight[%d]: %w", prevIndex+1, ErrNoTransactions)
	}

	s.evHandler("state: BuildBlock: MINING: snapshot balances: candidates[%d]", len(candidates))

	balances, err := s.snapshotBalances(ctx, prevIndex, prevHash, candidates)
	if err != nil {
		return database.Block{}, err
	}

	admitted := s.admit(candidates, balances)
	if len(admitted) == 0 {
		return database.Block{}, ErrNoAdmissibleTransactions
	}

	s.evHandler("state: BuildBlock: MINING: perform POW: admitted[%d]", len(admitted))

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, database.POWArgs{
		Index:        prevIndex + 1,
		PrevHash:     prevHash,
		Transactions: admitted,
		Difficulty:   s.chain.Difficulty(),
		EvHandler:    s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: BuildBlock: MINING: update local state")

	if err := s.acceptBlock(ctx, block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ProcessProposedBlock takes a block received from a peer, validates it
// and if that passes, adds it to the block tree.
func (s *State) ProcessProposedBlock(ctx context.Context, block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: %s", block)
	defer s.evHandler("state: ProcessProposedBlock: completed: blk[%d]", block.Index)

	// If a mining operation is running it needs to stop, it may be building
	// on a block that is no longer the latest.
	s.Worker.SignalCancelMining()

	if err := s.acceptBlock(ctx, block); err != nil {
		return err
	}

	s.Worker.SignalStartMining()

	return nil
}

// =============================================================================

// snapshotBalances reads, under the blockchain lock, the balances at the
// parent block of every account the candidates touch.
func (s *State) snapshotBalances(ctx context.Context, prevIndex uint64, prevHash database.Blockhash, candidates []database.Transaction) (map[signature.PublicKey]database.BalanceDelta, error) {
	var keys []signature.PublicKey
	for _, tx := range candidates {
		keys = append(keys, tx.InvolvedPublicKeys()...)
	}

	if err := s.lockChain(ctx); err != nil {
		return nil, err
	}
	defer s.unlockChain()

	tr := s.chain.Tree()
	parent, err := tr.TryFindBlock(tr.Genesis(), prevHash, prevIndex)
	if err != nil {
		return nil, fmt.Errorf("blk[%d]: prev[%s]: %w: %w", prevIndex+1, prevHash, chain.ErrDidNotFindPreviousBlock, err)
	}

	return tr.Balances(parent, keys), nil
}

// admit greedily selects the candidates in order. A candidate is admitted
// when every account it touches either gains or stays solvent after the
// candidate is applied to the running balances. Admitted candidates update
// the running balances, rejected ones are skipped.
func (s *State) admit(candidates []database.Transaction, balances map[signature.PublicKey]database.BalanceDelta) []database.TransactionState {
	limit := int(s.genesis.TransPerBlock)

	var admitted []database.TransactionState
	for _, tx := range candidates {
		if limit > 0 && len(admitted) == limit {
			break
		}

		next := make(map[signature.PublicKey]database.BalanceDelta)
		solvent := true
		for pk, delta := range tx.BalanceDeltas() {
			bal := balances[pk].Add(delta)
			if !delta.IsPositiveOrNil() && !bal.IsPositiveOrNil() {
				solvent = false
				break
			}
			next[pk] = bal
		}

		if !solvent {
			s.evHandler("state: admit: MINING: skip: tx[%s]: payer cannot cover %s", tx.Signature, tx.Message)
			continue
		}

		for pk, bal := range next {
			balances[pk] = bal
		}

		ts, _ := database.NewPending(tx).Succeed()
		admitted = append(admitted, ts)
	}

	return admitted
}

// acceptBlock inserts the block in the tree, removes its transactions from
// the mempool and records them as successful.
func (s *State) acceptBlock(ctx context.Context, block database.Block) error {
	if err := s.lockChain(ctx); err != nil {
		return err
	}
	_, err := s.chain.TryInsert(block)
	s.unlockChain()

	if err != nil {
		s.evHandler("state: acceptBlock: rejected: %s: %s", block, err)
		return err
	}

	s.evHandler("state: acceptBlock: inserted: %s", block)

	sigs := make([]signature.Signature, len(block.Transactions))
	records := make([]database.TransactionState, len(block.Transactions))
	for i, ts := range block.Transactions {
		sigs[i] = ts.Tx.Signature
		records[i] = database.TransactionState{State: database.Success, Tx: ts.Tx}
	}

	s.mempool.DeleteMany(sigs)
	s.recordHistory(records...)

	return nil
}
