package chain_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/datben/gulf-stream/foundation/blockchain/chain"
	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
	"github.com/datben/gulf-stream/foundation/blockchain/tree"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_EndToEnd(t *testing.T) {
	alice := newKey(t, 1)
	bob := newKey(t, 2)

	bc := chain.New(1)

	t.Log("Given the need to apply mints and transfers.")
	{
		b1 := mine(t, bc, bc.LatestBlock(),
			sign(t, alice, 1, database.Mint(12)),
			sign(t, bob, 1, database.Mint(57)),
		)
		if _, err := bc.TryInsert(b1); err != nil {
			t.Fatalf("\t%s\tShould be able to insert the mint block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to insert the mint block.", success)

		b2 := mine(t, bc, b1, sign(t, alice, 2, database.Transfer(bob.Public(), 5)))
		if _, err := bc.TryInsert(b2); err != nil {
			t.Fatalf("\t%s\tShould be able to insert the transfer block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to insert the transfer block.", success)

		if got := bc.Balance(alice.Public()); got != database.Pos(7) {
			t.Logf("\t\tgot: %s", got)
			t.Logf("\t\texp: %s", database.Pos(7))
			t.Fatalf("\t%s\tShould have the sender balance reduced.", failed)
		}
		t.Logf("\t%s\tShould have the sender balance reduced.", success)

		if got := bc.Balance(bob.Public()); got != database.Pos(62) {
			t.Logf("\t\tgot: %s", got)
			t.Logf("\t\texp: %s", database.Pos(62))
			t.Fatalf("\t%s\tShould have the recipient balance increased.", failed)
		}
		t.Logf("\t%s\tShould have the recipient balance increased.", success)

		if got := bc.LatestBlock(); !got.Blockhash.Equal(b2.Blockhash) {
			t.Fatalf("\t%s\tShould have the transfer block as latest.", failed)
		}
		t.Logf("\t%s\tShould have the transfer block as latest.", success)
	}
}

func Test_Rejects(t *testing.T) {
	bc := chain.New(0)
	gen := bc.LatestBlock()

	b1 := database.NewBlock(1, gen.Blockhash, nil, 0)
	if _, err := bc.TryInsert(b1); err != nil {
		t.Fatalf("Should be able to insert block 1: %v", err)
	}

	broken := database.NewBlock(2, b1.Blockhash, nil, 0)
	broken.Nonce = 99

	type table struct {
		name  string
		block database.Block
		err   error
	}

	tt := []table{
		{"duplicate", b1, tree.ErrBlockExists},
		{"orphan", database.NewBlock(5, database.Blockhash("unknown"), nil, 0), chain.ErrDidNotFindPreviousBlock},
		{"tampered", broken, chain.ErrBlockIsNotValid},
	}

	t.Log("Given the need to reject blocks.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen inserting %s.", testID, tst.name)
			{
				_, err := bc.TryInsert(tst.block)
				if !errors.Is(err, tst.err) {
					t.Logf("\t\tTest %d:\tgot: %v", testID, err)
					t.Logf("\t\tTest %d:\texp: %v", testID, tst.err)
					t.Fatalf("\t%s\tTest %d:\tShould get the expected error.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get the expected error.", success, testID)
			}
		}

		if bc.Tree().Len() != 2 {
			t.Fatalf("\t%s\tShould leave the tree untouched, got %d blocks.", failed, bc.Tree().Len())
		}
		t.Logf("\t%s\tShould leave the tree untouched.", success)
	}

	t.Log("Given the need to reject blocks failing the difficulty.")
	{
		hard := chain.New(32)
		var b database.Block
		for nonce := uint64(0); ; nonce++ {
			b = database.NewBlock(1, gen.Blockhash, nil, nonce)
			if !b.Blockhash.IsValid(32) {
				break
			}
		}

		if _, err := hard.TryInsert(b); !errors.Is(err, chain.ErrBlockIsNotValid) {
			t.Fatalf("\t%s\tShould reject an unsolved hash: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an unsolved hash.", success)
	}
}

func Test_Tips(t *testing.T) {
	bc := chain.New(0)
	gen := bc.LatestBlock()

	t.Log("Given the need to track recently extended fork tips.")
	{
		var forks []database.Block
		for i := range chain.MaxTips + 1 {
			b := database.NewBlock(1, gen.Blockhash, nil, uint64(i))
			if _, err := bc.TryInsert(b); err != nil {
				t.Fatalf("\t%s\tShould be able to insert fork %d: %v", failed, i, err)
			}
			forks = append(forks, b)
		}
		t.Logf("\t%s\tShould be able to insert %d forks of genesis.", success, chain.MaxTips+1)

		tips := bc.Tips()
		if len(tips) != chain.MaxTips {
			t.Fatalf("\t%s\tShould cap the tips at %d, got %d.", failed, chain.MaxTips, len(tips))
		}
		t.Logf("\t%s\tShould cap the tips at %d.", success, chain.MaxTips)

		if got := bc.Tree().Block(tips[0]); !got.Blockhash.Equal(forks[len(forks)-1].Blockhash) {
			t.Fatalf("\t%s\tShould have the most recent fork first.", failed)
		}
		t.Logf("\t%s\tShould have the most recent fork first.", success)

		for _, tip := range tips {
			if bc.Tree().Block(tip).Blockhash.Equal(forks[0].Blockhash) {
				t.Fatalf("\t%s\tShould have evicted the oldest fork.", failed)
			}
		}
		t.Logf("\t%s\tShould have evicted the oldest fork.", success)

		if got := bc.LatestBlock(); !got.Blockhash.Equal(forks[0].Blockhash) {
			t.Fatalf("\t%s\tShould keep the first block at the highest index as latest.", failed)
		}
		t.Logf("\t%s\tShould keep the first block at the highest index as latest.", success)

		b2 := database.NewBlock(2, forks[0].Blockhash, nil, 0)
		l, err := bc.TryInsert(b2)
		if err != nil {
			t.Fatalf("\t%s\tShould extend an evicted fork: %v", failed, err)
		}
		t.Logf("\t%s\tShould extend an evicted fork.", success)

		if bc.Tips()[0] != l || bc.Latest() != l {
			t.Fatalf("\t%s\tShould promote the extended fork and make it latest.", failed)
		}
		t.Logf("\t%s\tShould promote the extended fork and make it latest.", success)

		if len(bc.Tips()) != chain.MaxTips {
			t.Fatalf("\t%s\tShould still cap the tips at %d, got %d.", failed, chain.MaxTips, len(bc.Tips()))
		}

		if _, err := bc.Find(b2.Blockhash, 2); err != nil {
			t.Fatalf("\t%s\tShould find the block from genesis: %v", failed, err)
		}
		t.Logf("\t%s\tShould find the block from genesis.", success)
	}
}

// =============================================================================

func newKey(t *testing.T, b byte) signature.PrivateKey {
	pk, err := signature.NewKeyFromSeed(bytes.Repeat([]byte{b}, signature.SeedSize))
	if err != nil {
		t.Fatalf("Should be able to create a key: %v", err)
	}
	return pk
}

func sign(t *testing.T, pk signature.PrivateKey, blockHeight uint64, msg database.Message) database.TransactionState {
	tx, err := database.Sign(pk, blockHeight, 0, msg)
	if err != nil {
		t.Fatalf("Should be able to sign transaction: %v", err)
	}
	return database.NewPending(tx)
}

func mine(t *testing.T, bc *chain.Blockchain, prev database.Block, txs ...database.TransactionState) database.Block {
	b, err := database.POW(context.Background(), database.POWArgs{
		Index:        prev.Index + 1,
		PrevHash:     prev.Blockhash,
		Transactions: txs,
		Difficulty:   bc.Difficulty(),
	})
	if err != nil {
		t.Fatalf("Should be able to mine block %d: %v", prev.Index+1, err)
	}
	return b
}
