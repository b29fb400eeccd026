package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
)

// Set of error variables for transaction ingress.
var (
	ErrTxInvalid = errors.New("transaction invalid")
	ErrTxStale   = errors.New("transaction targets a block height already built")
)

// SubmitTransaction accepts a transaction from a wallet for inclusion. The
// transaction is validated against the payer balance at the latest block.
func (s *State) SubmitTransaction(ctx context.Context, tx database.Transaction) error {
	if err := s.admitTransaction(ctx, tx); err != nil {
		return err
	}

	s.Worker.SignalShareTx(tx)
	s.Worker.SignalStartMining()

	return nil
}

// UpsertNodeTransaction accepts a transaction shared by a peer node for
// inclusion. It is not shared again.
func (s *State) UpsertNodeTransaction(ctx context.Context, tx database.Transaction) error {
	if err := s.admitTransaction(ctx, tx); err != nil {
		return err
	}

	s.Worker.SignalStartMining()

	return nil
}

// PruneMempool removes the transactions targeting a height that can no
// longer be built on the latest block and records them as failed.
func (s *State) PruneMempool(ctx context.Context) (int, error) {
	if err := s.lockChain(ctx); err != nil {
		return 0, err
	}
	latest := s.chain.LatestBlock().Index
	s.unlockChain()

	stale := s.mempool.PruneStale(latest)
	for _, tx := range stale {
		s.evHandler("state: PruneMempool: tx[%s]: blockheight[%d] <= latest[%d]", tx.Signature, tx.BlockHeight, latest)

		ts, _ := database.NewPending(tx).Fail()
		s.recordHistory(ts)
	}

	return len(stale), nil
}

// =============================================================================

// admitTransaction validates the transaction and places it in the mempool
// as Pending.
func (s *State) admitTransaction(ctx context.Context, tx database.Transaction) error {
	s.evHandler("state: admitTransaction: started: tx[%s]", tx)

	if err := s.validateTransaction(ctx, tx); err != nil {
		s.evHandler("state: admitTransaction: rejected: tx[%s]: %s", tx.Signature, err)
		return err
	}

	n, err := s.mempool.Upsert(tx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTxInvalid, err)
	}
	s.recordHistory(database.NewPending(tx))

	s.evHandler("state: admitTransaction: completed: tx[%s]: mempool[%d]", tx.Signature, n)

	return nil
}

// validateTransaction takes the signed transaction and validates it has
// a proper signature, a proper message and a solvent payer.
func (s *State) validateTransaction(ctx context.Context, tx database.Transaction) error {
	if err := s.lockChain(ctx); err != nil {
		return err
	}
	latest := s.chain.LatestBlock().Index
	delta := s.chain.Balance(tx.Payer)
	s.unlockChain()

	if tx.BlockHeight <= latest {
		return fmt.Errorf("%w: %w: blockheight[%d] latest[%d]", ErrTxInvalid, ErrTxStale, tx.BlockHeight, latest)
	}

	// A negative position can't pay for anything.
	balance, ok := delta.Uint64()
	if !ok {
		balance = 0
	}

	if err := tx.IsValid(balance); err != nil {
		return fmt.Errorf("%w: %w", ErrTxInvalid, err)
	}

	return nil
}
