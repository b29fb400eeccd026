package database

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Blockhash is the SHA-256 digest identifying a block.
type Blockhash []byte

// HashFromRawData hashes the nonce and index, both big endian, followed by
// the previous hash and the encoded transactions.
func HashFromRawData(index uint64, prev Blockhash, rawTxs []byte, nonce uint64) Blockhash {
	h := sha256.New()

	var num [8]byte
	binary.BigEndian.PutUint64(num[:], nonce)
	h.Write(num[:])
	binary.BigEndian.PutUint64(num[:], index)
	h.Write(num[:])
	h.Write(prev)
	h.Write(rawTxs)

	return h.Sum(nil)
}

// IsValid checks the proof of work predicate: at least one of the first
// difficulty bytes is zero. Bytes past the end of the hash are not
// considered and a difficulty of zero always holds.
func (bh Blockhash) IsValid(difficulty uint) bool {
	if difficulty == 0 {
		return true
	}

	n := min(int(difficulty), len(bh))
	return bytes.IndexByte(bh[:n], 0) >= 0
}

// Equal reports whether both hashes hold the same bytes.
func (bh Blockhash) Equal(other Blockhash) bool {
	return bytes.Equal(bh, other)
}

// String implements the fmt.Stringer interface.
func (bh Blockhash) String() string {
	return hexutil.Encode(bh)
}

// MarshalText implements the encoding.TextMarshaler interface.
func (bh Blockhash) MarshalText() ([]byte, error) {
	return []byte(bh.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (bh *Blockhash) UnmarshalText(text []byte) error {
	b, err := hexutil.Decode(string(text))
	if err != nil {
		return err
	}
	*bh = b
	return nil
}

// ToBlockhash decodes a 0x prefixed hex string.
func ToBlockhash(s string) (Blockhash, error) {
	var bh Blockhash
	if err := bh.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}
	return bh, nil
}
