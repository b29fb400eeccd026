package database

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/datben/gulf-stream/foundation/blockchain/signature"
)

// ErrDecode is returned when bytes can't be decoded into a value.
var ErrDecode = errors.New("decode")

// Integers are encoded little endian with a fixed eight byte width. Keys
// and signatures are written raw.
const (
	uint64Size      = 8
	mintSize        = 1 + uint64Size
	transferSize    = 1 + signature.PublicKeySize + uint64Size
	transactionHead = 2*uint64Size + signature.PublicKeySize
)

func appendUint64(buf []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(buf, v)
}

func messageSize(m Message) int {
	if m.Kind == KindTransfer {
		return transferSize
	}
	return mintSize
}

func appendMessage(buf []byte, m Message) []byte {
	buf = append(buf, byte(m.Kind))
	if m.Kind == KindTransfer {
		buf = append(buf, m.To[:]...)
	}
	return appendUint64(buf, m.Amount)
}

// Encode returns the canonical byte encoding of the message.
func (m Message) Encode() []byte {
	return appendMessage(make([]byte, 0, messageSize(m)), m)
}

// DecodeMessage reads a message from the front of buf and returns the
// remaining bytes.
func DecodeMessage(buf []byte) (Message, []byte, error) {
	if len(buf) < 1 {
		return Message{}, nil, fmt.Errorf("%w: message: empty buffer", ErrDecode)
	}

	switch MessageKind(buf[0]) {
	case KindMint:
		if len(buf) < mintSize {
			return Message{}, nil, fmt.Errorf("%w: mint: got %d bytes, exp %d", ErrDecode, len(buf), mintSize)
		}
		return Mint(binary.LittleEndian.Uint64(buf[1:])), buf[mintSize:], nil

	case KindTransfer:
		if len(buf) < transferSize {
			return Message{}, nil, fmt.Errorf("%w: transfer: got %d bytes, exp %d", ErrDecode, len(buf), transferSize)
		}
		var to signature.PublicKey
		copy(to[:], buf[1:])
		amount := binary.LittleEndian.Uint64(buf[1+signature.PublicKeySize:])
		return Transfer(to, amount), buf[transferSize:], nil
	}

	return Message{}, nil, fmt.Errorf("%w: unknown message tag %d", ErrDecode, buf[0])
}

// Encode returns the canonical byte encoding of the transaction: block
// height, gas, payer, message and signature.
func (tx Transaction) Encode() []byte {
	return tx.appendTo(make([]byte, 0, tx.encodedSize()))
}

func (tx Transaction) encodedSize() int {
	return transactionHead + messageSize(tx.Message) + signature.SignatureSize
}

func (tx Transaction) appendTo(buf []byte) []byte {
	buf = appendUint64(buf, tx.BlockHeight)
	buf = appendUint64(buf, tx.Gas)
	buf = append(buf, tx.Payer[:]...)
	buf = appendMessage(buf, tx.Message)
	return append(buf, tx.Signature[:]...)
}

// DecodeTransaction reads a transaction from the front of buf and returns
// the remaining bytes.
func DecodeTransaction(buf []byte) (Transaction, []byte, error) {
	if len(buf) < transactionHead {
		return Transaction{}, nil, fmt.Errorf("%w: transaction: got %d bytes, exp at least %d", ErrDecode, len(buf), transactionHead)
	}

	var tx Transaction
	tx.BlockHeight = binary.LittleEndian.Uint64(buf)
	tx.Gas = binary.LittleEndian.Uint64(buf[uint64Size:])
	copy(tx.Payer[:], buf[2*uint64Size:])

	msg, rest, err := DecodeMessage(buf[transactionHead:])
	if err != nil {
		return Transaction{}, nil, err
	}
	tx.Message = msg

	if len(rest) < signature.SignatureSize {
		return Transaction{}, nil, fmt.Errorf("%w: signature: got %d bytes, exp %d", ErrDecode, len(rest), signature.SignatureSize)
	}
	copy(tx.Signature[:], rest)

	return tx, rest[signature.SignatureSize:], nil
}

// EncodeTransactions concatenates the encoding of every transaction.
func EncodeTransactions(txs []Transaction) []byte {
	var size int
	for _, tx := range txs {
		size += tx.encodedSize()
	}

	buf := make([]byte, 0, size)
	for _, tx := range txs {
		buf = tx.appendTo(buf)
	}
	return buf
}

// DecodeTransactions decodes a concatenation of transactions.
func DecodeTransactions(buf []byte) ([]Transaction, error) {
	var txs []Transaction
	for len(buf) > 0 {
		tx, rest, err := DecodeTransaction(buf)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
		buf = rest
	}
	return txs, nil
}
