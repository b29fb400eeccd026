package worker

import (
	"context"

	"github.com/datben/gulf-stream/foundation/blockchain/peer"
)

// Sync updates the peer list, mempool and blocks.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	ctx := context.Background()

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(ctx, pr)
		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// If this peer has blocks we don't have, we need to add them.
		w.syncBlocks(ctx, pr, peerStatus)

		// Retrieve the mempool from the peer.
		if _, err := w.state.NetRequestPeerMempool(ctx, pr); err != nil {
			w.evHandler("worker: sync: retrievePeerMempool: %s: ERROR: %s", pr.Host, err)
		}
	}
}

// syncBlocks pulls the blocks of a peer that is ahead of this node.
func (w *Worker) syncBlocks(ctx context.Context, pr peer.Peer, peerStatus peer.PeerStatus) {
	latest, err := w.state.QueryLatestBlock(ctx)
	if err != nil {
		w.evHandler("worker: sync: latestBlock: ERROR: %s", err)
		return
	}

	if peerStatus.LatestBlockIndex <= latest.Index {
		return
	}

	w.evHandler("worker: sync: retrievePeerBlocks: %s: latestBlockIndex[%d]", pr.Host, peerStatus.LatestBlockIndex)

	n, err := w.state.NetRequestPeerBlocks(ctx, pr)
	if err != nil {
		w.evHandler("worker: sync: retrievePeerBlocks: %s: ERROR %s", pr.Host, err)
	}
	w.evHandler("worker: sync: retrievePeerBlocks: %s: inserted[%d]", pr.Host, n)
}
