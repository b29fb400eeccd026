package database_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_BalanceDelta(t *testing.T) {
	type table struct {
		name string
		a    database.BalanceDelta
		b    database.BalanceDelta
		sum  database.BalanceDelta
	}

	tt := []table{
		{"pos+pos", database.Pos(3), database.Pos(4), database.Pos(7)},
		{"neg+neg", database.Neg(3), database.Neg(4), database.Neg(7)},
		{"pos wins", database.Pos(10), database.Neg(4), database.Pos(6)},
		{"neg wins", database.Pos(4), database.Neg(10), database.Neg(6)},
		{"cancel", database.Pos(5), database.Neg(5), database.Neg(0)},
		{"identity pos", database.Pos(0), database.Pos(9), database.Pos(9)},
		{"identity neg", database.Pos(0), database.Neg(9), database.Neg(9)},
		{"saturate", database.Pos(math.MaxUint64), database.Pos(1), database.Pos(math.MaxUint64)},
	}

	t.Log("Given the need to add balance deltas.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen adding %s and %s.", testID, tst.a, tst.b)
				{
					ab := tst.a.Add(tst.b)
					ba := tst.b.Add(tst.a)

					if ab != ba {
						t.Logf("\t\tTest %d:\tgot: %s", testID, ab)
						t.Logf("\t\tTest %d:\texp: %s", testID, ba)
						t.Fatalf("\t%s\tTest %d:\tShould be commutative.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be commutative.", success, testID)

					if !ab.Equal(tst.sum) {
						t.Logf("\t\tTest %d:\tgot: %s", testID, ab)
						t.Logf("\t\tTest %d:\texp: %s", testID, tst.sum)
						t.Fatalf("\t%s\tTest %d:\tShould get the expected sum.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected sum.", success, testID)

					if got := tst.a.Add(database.Pos(0)); got != tst.a {
						t.Fatalf("\t%s\tTest %d:\tShould have Pos(0) as identity, got %s.", failed, testID, got)
					}
					t.Logf("\t%s\tTest %d:\tShould have Pos(0) as identity.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Solvency(t *testing.T) {
	t.Log("Given the need to check the solvency predicate.")
	{
		if !database.Neg(0).IsPositiveOrNil() || !database.Pos(0).IsPositiveOrNil() {
			t.Fatalf("\t%s\tShould treat zero as solvent.", failed)
		}
		t.Logf("\t%s\tShould treat zero as solvent.", success)

		if database.Neg(1).IsPositiveOrNil() {
			t.Fatalf("\t%s\tShould treat Neg(1) as insolvent.", failed)
		}
		t.Logf("\t%s\tShould treat Neg(1) as insolvent.", success)

		if _, ok := database.Neg(1).Uint64(); ok {
			t.Fatalf("\t%s\tShould not convert a negative delta to a balance.", failed)
		}
		if v, ok := database.Neg(0).Uint64(); !ok || v != 0 {
			t.Fatalf("\t%s\tShould convert Neg(0) to a zero balance.", failed)
		}
		t.Logf("\t%s\tShould convert deltas to balances.", success)
	}
}

func Test_Transactions(t *testing.T) {
	alice := newKey(t, 1)
	bob := newKey(t, 2)

	type table struct {
		name    string
		tx      database.Transaction
		balance uint64
		err     error
	}

	tt := []table{
		{"mint", sign(t, alice, 1, 2, database.Mint(100)), 2, nil},
		{"mint no gas", sign(t, alice, 1, 2, database.Mint(100)), 1, database.ErrInsufficientBalance},
		{"transfer", sign(t, alice, 1, 2, database.Transfer(bob.Public(), 8)), 10, nil},
		{"transfer short", sign(t, alice, 1, 2, database.Transfer(bob.Public(), 9)), 10, database.ErrInsufficientBalance},
		{"transfer overflow", sign(t, alice, 1, 2, database.Transfer(bob.Public(), math.MaxUint64)), math.MaxUint64, database.ErrInsufficientBalance},
		{"transfer to self", sign(t, alice, 1, 0, database.Transfer(alice.Public(), 1)), 10, database.ErrInvalidMessage},
		{"bad signature", tamper(sign(t, alice, 1, 0, database.Mint(5))), 10, database.ErrInvalidSignature},
	}

	t.Log("Given the need to validate transactions.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling %s.", testID, tst.name)
				{
					err := tst.tx.IsValid(tst.balance)
					if !errors.Is(err, tst.err) || (tst.err == nil && err != nil) {
						t.Logf("\t\tTest %d:\tgot: %v", testID, err)
						t.Logf("\t\tTest %d:\texp: %v", testID, tst.err)
						t.Fatalf("\t%s\tTest %d:\tShould get the expected validation result.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected validation result.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_InvolvedKeys(t *testing.T) {
	alice := newKey(t, 1)
	bob := newKey(t, 2)
	carol := newKey(t, 3)

	txs := []database.Transaction{
		sign(t, alice, 1, 0, database.Mint(12)),
		sign(t, alice, 1, 0, database.Transfer(bob.Public(), 5)),
	}

	t.Log("Given the need to compute balance effects.")
	{
		for i, tx := range txs {
			involved := make(map[signature.PublicKey]bool)
			for _, pk := range tx.InvolvedPublicKeys() {
				involved[pk] = true
			}

			for _, pk := range []signature.PublicKey{alice.Public(), bob.Public(), carol.Public()} {
				delta := tx.BalanceDeltaFor(pk)
				if !involved[pk] && !delta.Equal(database.Pos(0)) {
					t.Fatalf("\t%s\tTest %d:\tShould have a zero delta for %s, got %s.", failed, i, pk, delta)
				}
			}
		}
		t.Logf("\t%s\tShould only have non zero deltas for involved accounts.", success)

		deltas := database.BalanceDeltas(txs)
		if exp := database.Pos(7); deltas[alice.Public()] != exp {
			t.Fatalf("\t%s\tShould fold the payer deltas in order: got %s, exp %s.", failed, deltas[alice.Public()], exp)
		}
		if exp := database.Pos(5); deltas[bob.Public()] != exp {
			t.Fatalf("\t%s\tShould credit the recipient: got %s, exp %s.", failed, deltas[bob.Public()], exp)
		}
		if _, exists := deltas[carol.Public()]; exists {
			t.Fatalf("\t%s\tShould not track uninvolved accounts.", failed)
		}
		t.Logf("\t%s\tShould fold deltas per account.", success)
	}
}

func Test_Codec(t *testing.T) {
	alice := newKey(t, 1)
	bob := newKey(t, 2)

	txs := []database.Transaction{
		sign(t, alice, 3, 7, database.Mint(12)),
		sign(t, alice, 4, 0, database.Transfer(bob.Public(), math.MaxUint64)),
	}

	t.Log("Given the need to encode transactions.")
	{
		for i, tx := range txs {
			got, rest, err := database.DecodeTransaction(tx.Encode())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to decode the transaction: %v", failed, i, err)
			}
			if got != tx || len(rest) != 0 {
				t.Logf("\t\tTest %d:\tgot: %s", i, got)
				t.Logf("\t\tTest %d:\texp: %s", i, tx)
				t.Fatalf("\t%s\tTest %d:\tShould get back the same %s transaction.", failed, i, tx.Message.Kind)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the same %s transaction.", success, i, tx.Message.Kind)

			if !got.SignatureIsValid() {
				t.Fatalf("\t%s\tTest %d:\tShould keep a valid signature.", failed, i)
			}

			data, err := json.Marshal(tx)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to marshal to JSON: %v", failed, i, err)
			}
			var fromJSON database.Transaction
			if err := json.Unmarshal(data, &fromJSON); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal from JSON: %v", failed, i, err)
			}
			if fromJSON != tx {
				t.Fatalf("\t%s\tTest %d:\tShould get back the same transaction from JSON.", failed, i)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the same transaction from JSON.", success, i)
		}

		all, err := database.DecodeTransactions(database.EncodeTransactions(txs))
		if err != nil || len(all) != len(txs) {
			t.Fatalf("\t%s\tShould decode a list of transactions: %v", failed, err)
		}
		t.Logf("\t%s\tShould decode a list of transactions.", success)

		raw := txs[1].Encode()
		if _, _, err := database.DecodeTransaction(raw[:len(raw)-1]); !errors.Is(err, database.ErrDecode) {
			t.Fatalf("\t%s\tShould reject a truncated transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a truncated transaction.", success)

		bh := database.Genesis().Blockhash
		back, err := database.ToBlockhash(bh.String())
		if err != nil || !back.Equal(bh) {
			t.Fatalf("\t%s\tShould get back the same blockhash: %v", failed, err)
		}
		t.Logf("\t%s\tShould get back the same blockhash.", success)
	}
}

func Test_Blockhash(t *testing.T) {
	t.Log("Given the need to check the proof of work predicate.")
	{
		hash := database.Blockhash{1, 2, 0, 4}

		if !hash.IsValid(0) {
			t.Fatalf("\t%s\tShould accept any hash at difficulty 0.", failed)
		}
		if hash.IsValid(2) {
			t.Fatalf("\t%s\tShould reject a hash without a zero in the first 2 bytes.", failed)
		}
		if !hash.IsValid(3) {
			t.Fatalf("\t%s\tShould accept a hash with a zero in the first 3 bytes.", failed)
		}
		if !hash.IsValid(100) {
			t.Fatalf("\t%s\tShould ignore bytes past the end of the hash.", failed)
		}
		t.Logf("\t%s\tShould apply the difficulty predicate.", success)

		a := database.HashFromRawData(1, database.Blockhash("prev"), []byte("txs"), 9)
		b := database.HashFromRawData(1, database.Blockhash("prev"), []byte("txs"), 9)
		if !a.Equal(b) || len(a) != 32 {
			t.Fatalf("\t%s\tShould hash deterministically.", failed)
		}
		if a.Equal(database.HashFromRawData(1, database.Blockhash("prev"), []byte("txs"), 10)) {
			t.Fatalf("\t%s\tShould include the nonce in the hash.", failed)
		}
		t.Logf("\t%s\tShould hash deterministically.", success)
	}
}

func Test_POW(t *testing.T) {
	alice := newKey(t, 1)
	txs := []database.TransactionState{database.NewPending(sign(t, alice, 1, 0, database.Mint(12)))}
	genesis := database.Genesis()

	t.Log("Given the need to mine blocks.")
	{
		b, err := database.POW(context.Background(), database.POWArgs{
			Index:        1,
			PrevHash:     genesis.Blockhash,
			Transactions: txs,
			Difficulty:   0,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine at difficulty 0: %v", failed, err)
		}
		if b.Nonce != 0 {
			t.Fatalf("\t%s\tShould solve difficulty 0 with nonce 0, got %d.", failed, b.Nonce)
		}
		t.Logf("\t%s\tShould solve difficulty 0 with nonce 0.", success)

		b, err = database.POW(context.Background(), database.POWArgs{
			Index:        1,
			PrevHash:     genesis.Blockhash,
			Transactions: txs,
			Difficulty:   1,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine at difficulty 1: %v", failed, err)
		}
		if !b.HashIsIntact() || !b.Blockhash.IsValid(1) || b.Blockhash[0] != 0 {
			t.Fatalf("\t%s\tShould produce an intact block solving difficulty 1.", failed)
		}
		t.Logf("\t%s\tShould produce an intact block solving difficulty 1.", success)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := database.POW(ctx, database.POWArgs{Index: 1, PrevHash: genesis.Blockhash, Difficulty: 32}); !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould stop mining when cancelled: %v", failed, err)
		}
		t.Logf("\t%s\tShould stop mining when cancelled.", success)
	}
}

func Test_Genesis(t *testing.T) {
	g := database.Genesis()

	if g.Index != 0 || g.Nonce != 0 || len(g.Transactions) != 0 {
		t.Fatalf("Should construct an empty genesis block: %s", g)
	}
	if !bytes.Equal(g.PreviousBlockhash, []byte("genesis")) {
		t.Fatalf("Should link genesis to the genesis marker, got %s", g.PreviousBlockhash)
	}
	if !g.HashIsIntact() {
		t.Fatalf("Should have an intact genesis hash.")
	}
}

func Test_TxState(t *testing.T) {
	alice := newKey(t, 1)
	pending := database.NewPending(sign(t, alice, 1, 0, database.Mint(1)))

	t.Log("Given the need to move transactions through their lifecycle.")
	{
		done, err := pending.Succeed()
		if err != nil || done.State != database.Success {
			t.Fatalf("\t%s\tShould move Pending to Success: %v", failed, err)
		}
		t.Logf("\t%s\tShould move Pending to Success.", success)

		failedTx, err := pending.Fail()
		if err != nil || failedTx.State != database.Fail {
			t.Fatalf("\t%s\tShould move Pending to Fail: %v", failed, err)
		}
		t.Logf("\t%s\tShould move Pending to Fail.", success)

		if _, err := done.Fail(); !errors.Is(err, database.ErrIllegalTransition) {
			t.Fatalf("\t%s\tShould reject Success to Fail: %v", failed, err)
		}
		if _, err := failedTx.Succeed(); !errors.Is(err, database.ErrIllegalTransition) {
			t.Fatalf("\t%s\tShould reject Fail to Success: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject transitions out of a final state.", success)
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

func sign(t *testing.T, pk signature.PrivateKey, blockHeight uint64, gas uint64, msg database.Message) database.Transaction {
	tx, err := database.Sign(pk, blockHeight, gas, msg)
	if err != nil {
		t.Fatalf("Should be able to sign transaction: %v", err)
	}
	return tx
}

func tamper(tx database.Transaction) database.Transaction {
	tx.Signature[0] ^= 0xff
	return tx
}
