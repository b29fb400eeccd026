package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/datben/gulf-stream/foundation/blockchain/signature"
)

// Set of error variables for transaction validation.
var (
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInvalidMessage      = errors.New("invalid message")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// =============================================================================

// MessageKind identifies the variant carried by a Message.
type MessageKind uint8

// Set of message variants. The values are the wire tags.
const (
	KindMint     MessageKind = 0
	KindTransfer MessageKind = 1
)

// String implements the fmt.Stringer interface.
func (k MessageKind) String() string {
	switch k {
	case KindMint:
		return "mint"
	case KindTransfer:
		return "transfer"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Message is the instruction carried by a transaction. A mint creates
// Amount for the payer, a transfer moves Amount from the payer to To. The
// To field is only meaningful for transfers.
type Message struct {
	Kind   MessageKind
	To     signature.PublicKey
	Amount uint64
}

// Mint constructs a message creating amount for the payer.
func Mint(amount uint64) Message {
	return Message{Kind: KindMint, Amount: amount}
}

// Transfer constructs a message moving amount from the payer to the account.
func Transfer(to signature.PublicKey, amount uint64) Message {
	return Message{Kind: KindTransfer, To: to, Amount: amount}
}

// String implements the fmt.Stringer interface.
func (m Message) String() string {
	if m.Kind == KindTransfer {
		return fmt.Sprintf("transfer[%d to %s]", m.Amount, m.To)
	}
	return fmt.Sprintf("%s[%d]", m.Kind, m.Amount)
}

type messageJSON struct {
	Type   string               `json:"type"`
	To     *signature.PublicKey `json:"to,omitempty"`
	Amount uint64               `json:"amount"`
}

// MarshalJSON implements the json.Marshaler interface.
func (m Message) MarshalJSON() ([]byte, error) {
	mj := messageJSON{
		Type:   m.Kind.String(),
		Amount: m.Amount,
	}
	if m.Kind == KindTransfer {
		to := m.To
		mj.To = &to
	}
	return json.Marshal(mj)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (m *Message) UnmarshalJSON(data []byte) error {
	var mj messageJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return err
	}

	switch mj.Type {
	case "mint":
		*m = Mint(mj.Amount)
	case "transfer":
		if mj.To == nil {
			return fmt.Errorf("%w: transfer without recipient", ErrDecode)
		}
		*m = Transfer(*mj.To, mj.Amount)
	default:
		return fmt.Errorf("%w: unknown message type %q", ErrDecode, mj.Type)
	}

	return nil
}

// =============================================================================

// Transaction is a signed instruction targeted at a block height. Gas is a
// flat priority value checked for sufficiency but never debited.
type Transaction struct {
	BlockHeight uint64              `json:"blockheight"`
	Gas         uint64              `json:"gas"`
	Message     Message             `json:"message"`
	Payer       signature.PublicKey `json:"payer"`
	Signature   signature.Signature `json:"signature"`
}

// Sign constructs a transaction signed by the private key. The payer is the
// public half of the key.
func Sign(pk signature.PrivateKey, blockHeight uint64, gas uint64, msg Message) (Transaction, error) {
	tx := Transaction{
		BlockHeight: blockHeight,
		Gas:         gas,
		Message:     msg,
		Payer:       pk.Public(),
	}

	sig, err := signature.Sign(pk, tx.SigningPayload())
	if err != nil {
		return Transaction{}, fmt.Errorf("sign: %w", err)
	}
	tx.Signature = sig

	return tx, nil
}

// SigningPayload returns the bytes covered by the signature: the encoded
// block height, gas and message.
func (tx Transaction) SigningPayload() []byte {
	buf := make([]byte, 0, 16+messageSize(tx.Message))
	buf = appendUint64(buf, tx.BlockHeight)
	buf = appendUint64(buf, tx.Gas)
	return appendMessage(buf, tx.Message)
}

// SignatureIsValid reports whether the payer signed this transaction.
func (tx Transaction) SignatureIsValid() bool {
	return signature.Verify(tx.Payer, tx.SigningPayload(), tx.Signature)
}

// MessageIsValid checks the structure of the message. A transfer to the
// payer itself is rejected.
func (tx Transaction) MessageIsValid() bool {
	switch tx.Message.Kind {
	case KindMint:
		return true
	case KindTransfer:
		return tx.Message.To != tx.Payer
	}
	return false
}

// SolventForPayer reports whether the payer balance covers the transaction.
// A mint needs the gas, a transfer needs the amount plus the gas.
func (tx Transaction) SolventForPayer(balance uint64) bool {
	switch tx.Message.Kind {
	case KindMint:
		return balance >= tx.Gas
	case KindTransfer:
		if tx.Message.Amount > math.MaxUint64-tx.Gas {
			return false
		}
		return balance >= tx.Message.Amount+tx.Gas
	}
	return false
}

// IsValid runs the structural checks against the current payer balance.
func (tx Transaction) IsValid(balance uint64) error {
	if !tx.MessageIsValid() {
		return ErrInvalidMessage
	}

	if !tx.SignatureIsValid() {
		return ErrInvalidSignature
	}

	if !tx.SolventForPayer(balance) {
		return fmt.Errorf("%w: balance %d, gas %d, msg %s", ErrInsufficientBalance, balance, tx.Gas, tx.Message)
	}

	return nil
}

// InvolvedPublicKeys returns the accounts whose balance the transaction
// touches.
func (tx Transaction) InvolvedPublicKeys() []signature.PublicKey {
	if tx.Message.Kind == KindTransfer {
		return []signature.PublicKey{tx.Payer, tx.Message.To}
	}
	return []signature.PublicKey{tx.Payer}
}

// BalanceDeltaFor returns the effect of the transaction on the account.
func (tx Transaction) BalanceDeltaFor(pk signature.PublicKey) BalanceDelta {
	switch tx.Message.Kind {
	case KindMint:
		if pk == tx.Payer {
			return Pos(tx.Message.Amount)
		}

	case KindTransfer:
		switch pk {
		case tx.Payer:
			return Neg(tx.Message.Amount)
		case tx.Message.To:
			return Pos(tx.Message.Amount)
		}
	}

	return Pos(0)
}

// BalanceDeltas returns the effect on every involved account.
func (tx Transaction) BalanceDeltas() map[signature.PublicKey]BalanceDelta {
	return BalanceDeltas([]Transaction{tx})
}

// String implements the fmt.Stringer interface.
func (tx Transaction) String() string {
	return fmt.Sprintf("%s:%d:%s:%d", tx.Payer, tx.BlockHeight, tx.Message, tx.Gas)
}

// BalanceDeltas folds the transactions, in order, into the net effect per
// account.
func BalanceDeltas(txs []Transaction) map[signature.PublicKey]BalanceDelta {
	deltas := make(map[signature.PublicKey]BalanceDelta)
	for _, tx := range txs {
		for _, pk := range tx.InvolvedPublicKeys() {
			deltas[pk] = deltas[pk].Add(tx.BalanceDeltaFor(pk))
		}
	}
	return deltas
}

// =============================================================================

// TxState is the lifecycle stage of a transaction.
type TxState uint8

// Set of lifecycle stages.
const (
	Pending TxState = iota
	Success
	Fail
)

// String implements the fmt.Stringer interface.
func (s TxState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Success:
		return "success"
	case Fail:
		return "fail"
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// MarshalText implements the encoding.TextMarshaler interface.
func (s TxState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (s *TxState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pending":
		*s = Pending
	case "success":
		*s = Success
	case "fail":
		*s = Fail
	default:
		return fmt.Errorf("%w: unknown state %q", ErrDecode, text)
	}
	return nil
}

// ErrIllegalTransition is returned when a transaction state change does not
// start from Pending.
var ErrIllegalTransition = errors.New("illegal state transition")

// TransactionState tags a transaction with its lifecycle stage.
type TransactionState struct {
	State TxState     `json:"state"`
	Tx    Transaction `json:"tx"`
}

// NewPending wraps a transaction entering the mempool.
func NewPending(tx Transaction) TransactionState {
	return TransactionState{State: Pending, Tx: tx}
}

// Succeed returns the record moved to Success.
func (ts TransactionState) Succeed() (TransactionState, error) {
	return ts.transition(Success)
}

// Fail returns the record moved to Fail.
func (ts TransactionState) Fail() (TransactionState, error) {
	return ts.transition(Fail)
}

func (ts TransactionState) transition(to TxState) (TransactionState, error) {
	if ts.State != Pending {
		return ts, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, ts.State, to)
	}
	ts.State = to
	return ts, nil
}
