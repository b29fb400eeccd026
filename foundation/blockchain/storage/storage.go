// Package storage defines the history of transactions known by the node.
// The history is a best effort record kept next to the block tree and is
// never a precondition for ledger correctness.
package storage

import (
	"errors"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
)

// ErrNotFound is returned when no record exists for a signature.
var ErrNotFound = errors.New("transaction not found")

// Storage interface represents the behavior required to be implemented by
// any package providing support for recording transaction history. A
// record is keyed by the transaction signature. Upserting a known
// signature replaces its state and keeps its position in the history.
type Storage interface {
	Upsert(ts database.TransactionState) error
	Get(sig signature.Signature) (database.TransactionState, error)
	List() ([]database.TransactionState, error)
	Reset() error
	Close() error
}
