package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/datben/gulf-stream/foundation/blockchain/chain"
	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/peer"
	"github.com/datben/gulf-stream/foundation/blockchain/tree"
	"golang.org/x/sync/errgroup"
)

// maxBroadcast bounds the number of peers contacted at the same time.
const maxBroadcast = 8

// Transport represents the behavior required to talk to peer nodes.
type Transport interface {
	SendBlock(ctx context.Context, pr peer.Peer, block database.Block) error
	SendTransaction(ctx context.Context, pr peer.Peer, tx database.Transaction) error
	RequestStatus(ctx context.Context, pr peer.Peer) (peer.PeerStatus, error)
	RequestBlocks(ctx context.Context, pr peer.Peer, from uint64) ([]database.Block, error)
	RequestMempool(ctx context.Context, pr peer.Peer) ([]database.Transaction, error)
	AnnouncePeer(ctx context.Context, pr peer.Peer, self peer.Peer) error
}

// =============================================================================

// NetSendBlockToPeers takes the new mined block and sends it to all known
// peers. Every peer is attempted and the ones that failed are returned
// sorted by host.
func (s *State) NetSendBlockToPeers(ctx context.Context, block database.Block) []peer.Peer {
	s.evHandler("state: NetSendBlockToPeers: started: blk[%d]", block.Index)
	defer s.evHandler("state: NetSendBlockToPeers: completed: blk[%d]", block.Index)

	return s.broadcast(ctx, func(ctx context.Context, pr peer.Peer) error {
		return s.transport.SendBlock(ctx, pr, block)
	})
}

// NetSendTxToPeers shares a new transaction with the known peers. The peers
// that failed are returned sorted by host.
func (s *State) NetSendTxToPeers(ctx context.Context, tx database.Transaction) []peer.Peer {
	s.evHandler("state: NetSendTxToPeers: started: tx[%s]", tx.Signature)
	defer s.evHandler("state: NetSendTxToPeers: completed: tx[%s]", tx.Signature)

	return s.broadcast(ctx, func(ctx context.Context, pr peer.Peer) error {
		return s.transport.SendTransaction(ctx, pr, tx)
	})
}

// NetRequestPeerStatus asks the peer for its latest block and peer list.
func (s *State) NetRequestPeerStatus(ctx context.Context, pr peer.Peer) (peer.PeerStatus, error) {
	s.evHandler("state: NetRequestPeerStatus: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerStatus: completed: %s", pr)

	ps, err := s.transport.RequestStatus(ctx, pr)
	if err != nil {
		return peer.PeerStatus{}, err
	}

	s.evHandler("state: NetRequestPeerStatus: peer-node[%s]: latest-blk[%d]: peer-list[%s]", pr, ps.LatestBlockIndex, ps.KnownPeers)

	return ps, nil
}

// NetRequestPeerMempool asks the peer for the transactions in their mempool
// and admits the ones that pass validation.
func (s *State) NetRequestPeerMempool(ctx context.Context, pr peer.Peer) (int, error) {
	s.evHandler("state: NetRequestPeerMempool: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerMempool: completed: %s", pr)

	txs, err := s.transport.RequestMempool(ctx, pr)
	if err != nil {
		return 0, err
	}

	var added int
	for _, tx := range txs {
		if err := s.admitTransaction(ctx, tx); err != nil {
			continue
		}
		added++
	}

	s.evHandler("state: NetRequestPeerMempool: received[%d]: added[%d]", len(txs), added)

	return added, nil
}

// NetRequestPeerBlocks queries the peer for the blocks this node does not
// have and inserts them. When the peer is on a branch this node doesn't
// know, the peer's whole branch is requested.
func (s *State) NetRequestPeerBlocks(ctx context.Context, pr peer.Peer) (int, error) {
	s.evHandler("state: NetRequestPeerBlocks: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerBlocks: completed: %s", pr)

	latest, err := s.QueryLatestBlock(ctx)
	if err != nil {
		return 0, err
	}

	n, err := s.requestBlocksFrom(ctx, pr, latest.Index+1)
	if errors.Is(err, chain.ErrDidNotFindPreviousBlock) {
		s.evHandler("state: NetRequestPeerBlocks: peer on unknown branch, requesting full branch: %s", pr)
		return s.requestBlocksFrom(ctx, pr, 1)
	}

	return n, err
}

// NetAnnounceToPeer tells the peer this node exists.
func (s *State) NetAnnounceToPeer(ctx context.Context, pr peer.Peer) error {
	s.evHandler("state: NetAnnounceToPeer: %s", pr)

	return s.transport.AnnouncePeer(ctx, pr, peer.New(s.host))
}

// =============================================================================

func (s *State) requestBlocksFrom(ctx context.Context, pr peer.Peer, from uint64) (int, error) {
	blocks, err := s.transport.RequestBlocks(ctx, pr, from)
	if err != nil {
		return 0, err
	}

	s.evHandler("state: NetRequestPeerBlocks: from[%d]: found blocks[%d]", from, len(blocks))

	var inserted int
	for _, block := range blocks {
		switch err := s.acceptBlock(ctx, block); {
		case errors.Is(err, tree.ErrBlockExists):
			continue
		case err != nil:
			return inserted, err
		}
		inserted++
	}

	return inserted, nil
}

// broadcast runs the send function against every known peer with bounded
// concurrency and collects the peers that failed.
func (s *State) broadcast(ctx context.Context, send func(ctx context.Context, pr peer.Peer) error) []peer.Peer {
	var (
		mu     sync.Mutex
		failed []peer.Peer
	)

	var g errgroup.Group
	g.SetLimit(maxBroadcast)

	for _, pr := range s.RetrieveKnownPeers() {
		g.Go(func() error {
			if err := send(ctx, pr); err != nil {
				s.evHandler("state: broadcast: WARNING: peer[%s]: %s", pr, err)

				mu.Lock()
				failed = append(failed, pr)
				mu.Unlock()
			}
			return nil
		})
	}

	g.Wait()

	sort.Slice(failed, func(i, j int) bool {
		return failed[i].Host < failed[j].Host
	})

	return failed
}

// =============================================================================

const baseURL = "http://%s/v1/node"

// HTTPTransport talks to peers over their node API.
type HTTPTransport struct {
	client http.Client
}

// NewHTTPTransport constructs a transport where every request is bounded
// by the timeout.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		client: http.Client{Timeout: timeout},
	}
}

// SendBlock proposes the block to the peer.
func (ht *HTTPTransport) SendBlock(ctx context.Context, pr peer.Peer, block database.Block) error {
	url := fmt.Sprintf("%s/block/propose", fmt.Sprintf(baseURL, pr.Host))

	var status struct {
		Status string `json:"status"`
	}

	return ht.send(ctx, http.MethodPost, url, block, &status)
}

// SendTransaction shares the transaction with the peer.
func (ht *HTTPTransport) SendTransaction(ctx context.Context, pr peer.Peer, tx database.Transaction) error {
	url := fmt.Sprintf("%s/tx/submit", fmt.Sprintf(baseURL, pr.Host))

	return ht.send(ctx, http.MethodPost, url, tx, nil)
}

// RequestStatus asks the peer for its status.
func (ht *HTTPTransport) RequestStatus(ctx context.Context, pr peer.Peer) (peer.PeerStatus, error) {
	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.PeerStatus
	if err := ht.send(ctx, http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	return ps, nil
}

// RequestBlocks asks the peer for its latest branch starting at the index.
func (ht *HTTPTransport) RequestBlocks(ctx context.Context, pr peer.Peer, from uint64) ([]database.Block, error) {
	url := fmt.Sprintf("%s/block/list/%d/latest", fmt.Sprintf(baseURL, pr.Host), from)

	var blocks []database.Block
	if err := ht.send(ctx, http.MethodGet, url, nil, &blocks); err != nil {
		return nil, err
	}

	return blocks, nil
}

// RequestMempool asks the peer for the transactions in its mempool.
func (ht *HTTPTransport) RequestMempool(ctx context.Context, pr peer.Peer) ([]database.Transaction, error) {
	url := fmt.Sprintf("%s/tx/list", fmt.Sprintf(baseURL, pr.Host))

	var txs []database.Transaction
	if err := ht.send(ctx, http.MethodGet, url, nil, &txs); err != nil {
		return nil, err
	}

	return txs, nil
}

// AnnouncePeer tells the peer about this node.
func (ht *HTTPTransport) AnnouncePeer(ctx context.Context, pr peer.Peer, self peer.Peer) error {
	url := fmt.Sprintf("%s/peers", fmt.Sprintf(baseURL, pr.Host))

	return ht.send(ctx, http.MethodPost, url, self, nil)
}

// send is a helper function to send an HTTP request to a node.
func (ht *HTTPTransport) send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ht.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("status[%d]: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
