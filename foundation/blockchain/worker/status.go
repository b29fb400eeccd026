package worker

import (
	"context"
	"time"
)

// statusInterval represents the interval of logging the view this node has
// of the ledger.
const statusInterval = 30 * time.Second

// statusOperations handles the periodic status log.
func (w *Worker) statusOperations() {
	w.evHandler("worker: statusOperations: G started")
	defer w.evHandler("worker: statusOperations: G completed")

	for {
		select {
		case <-w.statusTicker.C:
			if !w.isShutdown() {
				w.runStatusOperation()
			}
		case <-w.shut:
			w.evHandler("worker: statusOperations: received shut signal")
			return
		}
	}
}

// runStatusOperation logs a snapshot of the ledger.
func (w *Worker) runStatusOperation() {
	ctx, cancel := context.WithTimeout(context.Background(), statusInterval)
	defer cancel()

	st, err := w.state.QueryStatus(ctx)
	if err != nil {
		w.evHandler("worker: runStatusOperation: ERROR: %s", err)
		return
	}

	w.evHandler("worker: runStatusOperation: latest[%d]: hash[%s]: tips[%d]: blocks[%d]: mempool[%d]: peers[%d]",
		st.LatestIndex, st.LatestHash, len(st.Tips), st.TreeSize, st.Mempool, len(st.KnownPeers))
}
