// Package disk implements the ability to record transaction history on
// disk using a leveldb database.
package disk

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
	"github.com/datben/gulf-stream/foundation/blockchain/storage"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Key prefixes. A history key is the prefix followed by the big endian
// sequence number so iteration returns records in the order they were
// first seen. A signature key maps a signature to its sequence number.
const (
	prefixHistory   = 'H'
	prefixSignature = 'S'
)

// Disk represents the implementation for recording transaction history in
// a leveldb database. This implements the storage.Storage interface.
type Disk struct {
	mu  sync.Mutex
	db  *leveldb.DB
	seq uint64
}

// New opens or creates the database at the specified path.
func New(dbPath string) (*Disk, error) {
	o := opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: false,
	}

	db, err := leveldb.OpenFile(dbPath, &o)
	if err != nil {
		return nil, err
	}

	d := Disk{db: db}

	// Continue the sequence after the last recorded transaction.
	iter := db.NewIterator(util.BytesPrefix([]byte{prefixHistory}), nil)
	if iter.Last() {
		d.seq = binary.BigEndian.Uint64(iter.Key()[1:])
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		db.Close()
		return nil, err
	}

	return &d, nil
}

// Close cleanly releases the database.
func (d *Disk) Close() error {
	return d.db.Close()
}

// Upsert records the transaction state. The history record and the
// signature index are written in one batch.
func (d *Disk) Upsert(ts database.TransactionState) error {
	value, err := json.Marshal(ts)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	sigKey := signatureKey(ts.Tx.Signature)

	seqValue, err := d.db.Get(sigKey, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		d.seq++
		seqValue = binary.BigEndian.AppendUint64(nil, d.seq)

	case err != nil:
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put(sigKey, seqValue)
	batch.Put(historyKey(seqValue), value)

	return d.db.Write(batch, nil)
}

// Get returns the record for the signature.
func (d *Disk) Get(sig signature.Signature) (database.TransactionState, error) {
	seqValue, err := d.db.Get(signatureKey(sig), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return database.TransactionState{}, storage.ErrNotFound
		}
		return database.TransactionState{}, err
	}

	value, err := d.db.Get(historyKey(seqValue), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return database.TransactionState{}, storage.ErrNotFound
		}
		return database.TransactionState{}, err
	}

	var ts database.TransactionState
	if err := json.Unmarshal(value, &ts); err != nil {
		return database.TransactionState{}, err
	}

	return ts, nil
}

// List returns every record in the order they were first seen.
func (d *Disk) List() ([]database.TransactionState, error) {
	iter := d.db.NewIterator(util.BytesPrefix([]byte{prefixHistory}), nil)
	defer iter.Release()

	var records []database.TransactionState
	for iter.Next() {
		var ts database.TransactionState
		if err := json.Unmarshal(iter.Value(), &ts); err != nil {
			return nil, err
		}
		records = append(records, ts)
	}

	if err := iter.Error(); err != nil {
		return nil, err
	}

	return records, nil
}

// Reset will clear out the history on disk.
func (d *Disk) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	batch := new(leveldb.Batch)

	iter := d.db.NewIterator(nil, nil)
	for iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		batch.Delete(key)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	if err := d.db.Write(batch, nil); err != nil {
		return err
	}
	d.seq = 0

	return nil
}

// =============================================================================

func signatureKey(sig signature.Signature) []byte {
	return append([]byte{prefixSignature}, sig[:]...)
}

func historyKey(seqValue []byte) []byte {
	return append([]byte{prefixHistory}, seqValue...)
}
