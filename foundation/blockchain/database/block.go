package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/datben/gulf-stream/foundation/blockchain/signature"
)

// ErrNonceExhausted is returned when every nonce was tried without solving
// the proof of work.
var ErrNonceExhausted = errors.New("nonce space exhausted")

// genesisPrevious is the previous hash recorded in the genesis block.
var genesisPrevious = Blockhash("genesis")

// =============================================================================

// Block represents a group of transactions sealed on top of a previous
// block. A block is never edited once constructed.
type Block struct {
	Index             uint64             `json:"index"`
	Blockhash         Blockhash          `json:"blockhash"`
	PreviousBlockhash Blockhash          `json:"previous_blockhash"`
	Transactions      []TransactionState `json:"transactions"`
	Nonce             uint64             `json:"nonce"`
}

// Genesis constructs the root block every chain starts from.
func Genesis() Block {
	return NewBlock(0, genesisPrevious, nil, 0)
}

// NewBlock constructs a block and computes its hash.
func NewBlock(index uint64, prev Blockhash, txs []TransactionState, nonce uint64) Block {
	b := Block{
		Index:             index,
		PreviousBlockhash: prev,
		Transactions:      txs,
		Nonce:             nonce,
	}
	b.Blockhash = b.ComputeHash()

	return b
}

// RawTransactions returns the concatenated encoding of the transactions.
func (b Block) RawTransactions() []byte {
	txs := make([]Transaction, len(b.Transactions))
	for i, ts := range b.Transactions {
		txs[i] = ts.Tx
	}
	return EncodeTransactions(txs)
}

// ComputeHash recomputes the hash from the block content.
func (b Block) ComputeHash() Blockhash {
	return HashFromRawData(b.Index, b.PreviousBlockhash, b.RawTransactions(), b.Nonce)
}

// HashIsIntact reports whether the recorded hash matches the content.
func (b Block) HashIsIntact() bool {
	return b.Blockhash.Equal(b.ComputeHash())
}

// BalanceDeltas returns the net effect of the block per account.
func (b Block) BalanceDeltas() map[signature.PublicKey]BalanceDelta {
	txs := make([]Transaction, len(b.Transactions))
	for i, ts := range b.Transactions {
		txs[i] = ts.Tx
	}
	return BalanceDeltas(txs)
}

// Touches reports whether any transaction of the block involves the account.
func (b Block) Touches(pk signature.PublicKey) bool {
	for _, ts := range b.Transactions {
		for _, involved := range ts.Tx.InvolvedPublicKeys() {
			if involved == pk {
				return true
			}
		}
	}
	return false
}

// String implements the fmt.Stringer interface.
func (b Block) String() string {
	return fmt.Sprintf("blk[%d]: hash[%s]: prev[%s]: txs[%d]", b.Index, b.Blockhash, b.PreviousBlockhash, len(b.Transactions))
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Index        uint64
	PrevHash     Blockhash
	Transactions []TransactionState
	Difficulty   uint
	EvHandler    func(v string, args ...any)
}

// ctxCheckInterval is how many nonces are tried between context checks.
const ctxCheckInterval = 1 << 16

// POW constructs a new Block and searches nonces from zero upward until the
// hash satisfies the difficulty. The search stops early if the context is
// cancelled.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("database: POW: MINING: started: blk[%d]: txs[%d]", args.Index, len(args.Transactions))
	defer ev("database: POW: MINING: completed")

	b := Block{
		Index:             args.Index,
		PreviousBlockhash: args.PrevHash,
		Transactions:      args.Transactions,
	}
	raw := b.RawTransactions()

	var nonce uint64
	for {
		if nonce%ctxCheckInterval == 0 && ctx.Err() != nil {
			ev("database: POW: MINING: CANCELLED: attempts[%d]", nonce)
			return Block{}, ctx.Err()
		}

		hash := HashFromRawData(b.Index, b.PreviousBlockhash, raw, nonce)
		if hash.IsValid(args.Difficulty) {
			b.Nonce = nonce
			b.Blockhash = hash
			ev("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.PreviousBlockhash, hash, nonce+1)
			return b, nil
		}

		nonce++
		if nonce == 0 {
			return Block{}, ErrNonceExhausted
		}
	}
}
