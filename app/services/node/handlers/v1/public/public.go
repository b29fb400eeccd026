// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/datben/gulf-stream/business/web/errs"
	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
	"github.com/datben/gulf-stream/foundation/blockchain/state"
	"github.com/datben/gulf-stream/foundation/blockchain/storage"
	"github.com/datben/gulf-stream/foundation/events"
	"github.com/datben/gulf-stream/foundation/nameservice"
	"github.com/datben/gulf-stream/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the blockchain.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// Starting a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Block waiting for events from the blockchain or ticker.
	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitWalletTransaction adds a new wallet transaction to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.Transaction
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("add user tran", "traceid", v.TraceID, "payer", h.NS.Lookup(tx.Payer), "blockheight", tx.BlockHeight, "gas", tx.Gas, "msg", tx.Message)
	if err := h.State.SubmitTransaction(ctx, tx); err != nil {
		return stateError(err)
	}

	resp := struct {
		Status    string              `json:"status"`
		Signature signature.Signature `json:"signature"`
	}{
		Status:    "transaction added to mempool",
		Signature: tx.Signature,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Balance returns the balance of the account at the latest block.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pk, err := signature.ToPublicKey(web.Param(r, "account"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	latest, err := h.State.QueryLatestBlock(ctx)
	if err != nil {
		return stateError(err)
	}

	bal, err := h.State.QueryBalance(ctx, pk)
	if err != nil {
		return stateError(err)
	}

	resp := balance{
		Account: pk,
		Name:    h.NS.Lookup(pk),
		Balance: bal,
		Latest:  latest.Blockhash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// History returns the recorded transaction history.
func (h Handlers) History(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	records, err := h.State.QueryHistory()
	if err != nil {
		return err
	}

	trans := make([]tx, len(records))
	for i, ts := range records {
		trans[i] = toTxState(h.NS, ts)
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Transaction returns the recorded state of a single transaction.
func (h Handlers) Transaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sig, err := signature.ToSignature(web.Param(r, "signature"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	ts, err := h.State.QueryTransaction(sig)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, toTxState(h.NS, ts), http.StatusOK)
}

// LatestBlock returns the latest block.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest, err := h.State.QueryLatestBlock(ctx)
	if err != nil {
		return stateError(err)
	}

	return web.Respond(ctx, w, toBlock(h.NS, latest), http.StatusOK)
}

// BlocksByAccount returns the blocks of the latest branch touching the
// account, all of them when no account is provided.
func (h Handlers) BlocksByAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var pk signature.PublicKey
	if account := web.Param(r, "account"); account != "" {
		var err error
		if pk, err = signature.ToPublicKey(account); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	dbBlocks, err := h.State.QueryBlocksByAccount(ctx, pk)
	if err != nil {
		return stateError(err)
	}

	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for i, blk := range dbBlocks {
		blocks[i] = toBlock(h.NS, blk)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	mempool := h.State.QueryMempool()

	trans := make([]tx, len(mempool))
	for i, tran := range mempool {
		trans[i] = toTx(h.NS, tran)
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Status returns a snapshot of the ledger.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	st, err := h.State.QueryStatus(ctx)
	if err != nil {
		return stateError(err)
	}

	return web.Respond(ctx, w, st, http.StatusOK)
}

// =============================================================================

// stateError maps the ledger errors a client can act on to a status.
func stateError(err error) error {
	switch {
	case errors.Is(err, state.ErrTxInvalid):
		return errs.NewTrusted(err, http.StatusBadRequest)
	case errors.Is(err, state.ErrLockContention):
		return errs.NewTrusted(err, http.StatusServiceUnavailable)
	}
	return err
}
