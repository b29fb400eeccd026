package public

import (
	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
	"github.com/datben/gulf-stream/foundation/nameservice"
)

type balance struct {
	Account signature.PublicKey `json:"account"`
	Name    string              `json:"name"`
	Balance uint64              `json:"balance"`
	Latest  database.Blockhash  `json:"latest_block"`
}

type tx struct {
	BlockHeight uint64              `json:"blockheight"`
	Gas         uint64              `json:"gas"`
	Payer       signature.PublicKey `json:"payer"`
	PayerName   string              `json:"payer_name"`
	Message     database.Message    `json:"message"`
	ToName      string              `json:"to_name,omitempty"`
	Signature   signature.Signature `json:"signature"`
	State       string              `json:"state,omitempty"`
}

type block struct {
	Index             uint64             `json:"index"`
	Blockhash         database.Blockhash `json:"blockhash"`
	PreviousBlockhash database.Blockhash `json:"previous_blockhash"`
	Nonce             uint64             `json:"nonce"`
	Transactions      []tx               `json:"transactions"`
}

func toTx(ns *nameservice.NameService, t database.Transaction) tx {
	v := tx{
		BlockHeight: t.BlockHeight,
		Gas:         t.Gas,
		Payer:       t.Payer,
		PayerName:   ns.Lookup(t.Payer),
		Message:     t.Message,
		Signature:   t.Signature,
	}

	if t.Message.Kind == database.KindTransfer {
		v.ToName = ns.Lookup(t.Message.To)
	}

	return v
}

func toTxState(ns *nameservice.NameService, ts database.TransactionState) tx {
	v := toTx(ns, ts.Tx)
	v.State = ts.State.String()
	return v
}

func toBlock(ns *nameservice.NameService, b database.Block) block {
	trans := make([]tx, len(b.Transactions))
	for i, ts := range b.Transactions {
		trans[i] = toTxState(ns, ts)
	}

	return block{
		Index:             b.Index,
		Blockhash:         b.Blockhash,
		PreviousBlockhash: b.PreviousBlockhash,
		Nonce:             b.Nonce,
		Transactions:      trans,
	}
}
