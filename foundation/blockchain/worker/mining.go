package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/datben/gulf-stream/foundation/blockchain/state"
)

// miningOperations handles mining. A round runs when signaled and on every
// block interval tick.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.mineTicker.C:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation prunes the stale transactions, builds a block from the
// mempool on top of the latest block and proposes it to the known peers.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	if n, err := w.state.PruneMempool(context.Background()); err != nil {
		w.evHandler("worker: runMiningOperation: MINING: prune: ERROR: %s", err)
	} else if n > 0 {
		w.evHandler("worker: runMiningOperation: MINING: pruned stale transactions: Txs[%d]", n)
	}

	// Make sure there are transactions in the mempool.
	length := w.state.QueryMempoolLength()
	if length == 0 {
		w.evHandler("worker: runMiningOperation: MINING: no transactions to mine: Txs[%d]", length)
		return
	}

	// Drain the cancel mining channel before starting.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained cancel channel")
	default:
	}

	// Create a context so mining can be cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(2)

	// This G exists to cancel the mining operation.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
		case <-ctx.Done():
		}
	}()

	// This G is performing the mining.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		t := time.Now()
		block, err := w.state.MineNewBlock(ctx)
		duration := time.Since(t)

		w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

		if err != nil {
			switch {
			case errors.Is(err, state.ErrNoTransactions):
				w.evHandler("worker: runMiningOperation: MINING: WARNING: no transactions for the next block")
			case errors.Is(err, state.ErrNoAdmissibleTransactions):
				w.evHandler("worker: runMiningOperation: MINING: WARNING: no admissible transactions")
			case ctx.Err() != nil:
				w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
			default:
				w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
			}
			return
		}

		// WOW, we mined a block. Propose the new block to the network.
		// Log the peers that didn't take it, but that's it.
		for _, pr := range w.state.NetSendBlockToPeers(context.Background(), block) {
			w.evHandler("worker: runMiningOperation: MINING: proposeBlockToPeers: WARNING: peer[%s] failed", pr)
		}

		// The mempool may hold transactions for the height after this block.
		w.SignalStartMining()
	}()

	// Wait for both G's to terminate.
	wg.Wait()
}
