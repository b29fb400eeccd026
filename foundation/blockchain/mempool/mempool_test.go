package mempool_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/mempool"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func sign(t *testing.T, blockHeight uint64, gas uint64, amount uint64) database.Transaction {
	pk, err := signature.NewKeyFromSeed(bytes.Repeat([]byte{7}, signature.SeedSize))
	if err != nil {
		t.Fatalf("Should be able to create a key: %s", err)
	}

	tx, err := database.Sign(pk, blockHeight, gas, database.Mint(amount))
	if err != nil {
		t.Fatalf("Should be able to sign transaction: %s", err)
	}

	return tx
}

func TestCRUD(t *testing.T) {
	type table struct {
		name string
		txs  []database.Transaction
		best []uint64
	}

	tt := []table{
		{
			name: "basic",
			txs: []database.Transaction{
				sign(t, 1, 10, 2),
				sign(t, 1, 50, 3),
				sign(t, 1, 100, 4),
				sign(t, 1, 10, 1),
				sign(t, 2, 500, 9),
			},
			best: []uint64{4, 3, 2, 1},
		},
	}

	t.Log("Given the need to validate mempool api.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of transaction.", testID)
			{
				f := func(t *testing.T) {
					mp, err := mempool.New()
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to construct mempool: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to construct mempool.", success, testID)

					for _, tx := range tst.txs {
						if _, err := mp.Upsert(tx); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to add transaction: %v", failed, testID, err)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to add transactions.", success, testID)

					if _, err := mp.Upsert(tst.txs[0]); !errors.Is(err, mempool.ErrExists) {
						t.Fatalf("\t%s\tTest %d:\tShould reject a duplicate signature: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould reject a duplicate signature.", success, testID)

					if mp.Count() != len(tst.txs) {
						t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, mp.Count())
						t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, len(tst.txs))
						t.Fatalf("\t%s\tTest %d:\tShould get the right number of transactions.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the right number of transactions.", success, testID)

					copied := mp.Copy()
					for i, tx := range copied {
						if tx != tst.txs[i] {
							t.Fatalf("\t%s\tTest %d:\tShould copy in arrival order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould copy in arrival order.", success, testID)

					best := mp.PickBest(1, -1)
					if len(best) != len(tst.best) {
						t.Fatalf("\t%s\tTest %d:\tShould only pick transactions for height 1, got %d.", failed, testID, len(best))
					}
					for i, tx := range best {
						if tx.Message.Amount != tst.best[i] {
							t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, tx.Message.Amount)
							t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, tst.best[i])
							t.Fatalf("\t%s\tTest %d:\tShould get the best transaction at position %d.", failed, testID, i)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould get the best transactions in order.", success, testID)

					stale := mp.PruneStale(1)
					if len(stale) != len(tst.best) || mp.Count() != 1 {
						t.Fatalf("\t%s\tTest %d:\tShould prune transactions for built heights, pruned %d, left %d.", failed, testID, len(stale), mp.Count())
					}
					t.Logf("\t%s\tTest %d:\tShould prune transactions for built heights.", success, testID)

					mp.Delete(tst.txs[len(tst.txs)-1].Signature)
					if mp.Count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to delete a transaction.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to delete a transaction.", success, testID)

					for _, tx := range tst.txs {
						mp.Upsert(tx)
					}
					mp.Truncate()
					if mp.Count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to truncate the pool.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to truncate the pool.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
