package storage_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
	"github.com/datben/gulf-stream/foundation/blockchain/storage"
	"github.com/datben/gulf-stream/foundation/blockchain/storage/disk"
	"github.com/datben/gulf-stream/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestStorage(t *testing.T) {
	type table struct {
		name string
		open func(t *testing.T) storage.Storage
	}

	tt := []table{
		{
			name: "memory",
			open: func(t *testing.T) storage.Storage {
				return memory.New()
			},
		},
		{
			name: "disk",
			open: func(t *testing.T) storage.Storage {
				d, err := disk.New(filepath.Join(t.TempDir(), "history"))
				if err != nil {
					t.Fatalf("Should be able to open the database: %s", err)
				}
				return d
			},
		},
	}

	first := pending(t, 1, 10)
	second := pending(t, 1, 20)

	t.Log("Given the need to record transaction history.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen using %s storage.", testID, tst.name)
				{
					strg := tst.open(t)
					defer strg.Close()

					if _, err := strg.Get(first.Tx.Signature); !errors.Is(err, storage.ErrNotFound) {
						t.Fatalf("\t%s\tTest %d:\tShould not find an unknown signature: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould not find an unknown signature.", success, testID)

					for _, ts := range []database.TransactionState{first, second} {
						if err := strg.Upsert(ts); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to record a transaction: %v", failed, testID, err)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to record transactions.", success, testID)

					done, err := first.Succeed()
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to move to success: %v", failed, testID, err)
					}
					if err := strg.Upsert(done); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to update a transaction: %v", failed, testID, err)
					}

					got, err := strg.Get(first.Tx.Signature)
					if err != nil || got != done {
						t.Logf("\t\tTest %d:\tgot: %+v", testID, got)
						t.Logf("\t\tTest %d:\texp: %+v", testID, done)
						t.Fatalf("\t%s\tTest %d:\tShould get back the updated record: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the updated record.", success, testID)

					list, err := strg.List()
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to list the history: %v", failed, testID, err)
					}
					if len(list) != 2 || list[0] != done || list[1] != second {
						t.Fatalf("\t%s\tTest %d:\tShould list records in the order first seen.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould list records in the order first seen.", success, testID)

					if err := strg.Reset(); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to reset: %v", failed, testID, err)
					}
					if list, _ := strg.List(); len(list) != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould have an empty history after reset.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould have an empty history after reset.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestDiskReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")

	d, err := disk.New(path)
	if err != nil {
		t.Fatalf("Should be able to open the database: %s", err)
	}

	first := pending(t, 1, 10)
	if err := d.Upsert(first); err != nil {
		t.Fatalf("Should be able to record a transaction: %s", err)
	}
	d.Close()

	d, err = disk.New(path)
	if err != nil {
		t.Fatalf("Should be able to reopen the database: %s", err)
	}
	defer d.Close()

	second := pending(t, 2, 10)
	if err := d.Upsert(second); err != nil {
		t.Fatalf("Should be able to record a transaction: %s", err)
	}

	list, err := d.List()
	if err != nil || len(list) != 2 || list[0] != first || list[1] != second {
		t.Fatalf("Should continue the history after reopening: %v", err)
	}
}

// =============================================================================

func pending(t *testing.T, blockHeight uint64, amount uint64) database.TransactionState {
	pk, err := signature.NewKeyFromSeed(bytes.Repeat([]byte{9}, signature.SeedSize))
	if err != nil {
		t.Fatalf("Should be able to create a key: %s", err)
	}

	tx, err := database.Sign(pk, blockHeight, 1, database.Mint(amount))
	if err != nil {
		t.Fatalf("Should be able to sign transaction: %s", err)
	}

	return database.NewPending(tx)
}
