// Package signature provides helper functions for handling the blockchain
// signature needs. Accounts are ed25519 keys and transactions are signed
// with the prehashed (Ed25519ph) variant over a SHA-512 digest.
package signature

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Fixed widths of the values handled by this package.
const (
	PublicKeySize = ed25519.PublicKeySize
	SignatureSize = ed25519.SignatureSize
	SeedSize      = ed25519.SeedSize
)

// ErrInvalidLength is returned when raw bytes don't have the width of the
// value being decoded.
var ErrInvalidLength = errors.New("invalid length")

// prehashed selects the Ed25519ph signing scheme.
var prehashed = ed25519.Options{Hash: crypto.SHA512}

// =============================================================================

// PublicKey represents the 32 byte verifying key of an account. Two keys are
// equal when their bytes are equal so the value can be used as a map key.
type PublicKey [PublicKeySize]byte

// PublicKeyFromBytes converts raw bytes into a public key.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeySize {
		return pk, fmt.Errorf("public key: %w: got %d, exp %d", ErrInvalidLength, len(b), PublicKeySize)
	}
	copy(pk[:], b)
	return pk, nil
}

// ToPublicKey converts a 0x prefixed hex string into a public key.
func ToPublicKey(s string) (PublicKey, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("public key: %w", err)
	}
	return PublicKeyFromBytes(b)
}

// Bytes returns a copy of the raw key bytes.
func (pk PublicKey) Bytes() []byte {
	b := make([]byte, PublicKeySize)
	copy(b, pk[:])
	return b
}

// IsZero reports whether the key was never set.
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

// String implements the fmt.Stringer interface.
func (pk PublicKey) String() string {
	return hexutil.Encode(pk[:])
}

// MarshalText implements the encoding.TextMarshaler interface.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	v, err := ToPublicKey(string(text))
	if err != nil {
		return err
	}
	*pk = v
	return nil
}

// =============================================================================

// Signature represents a 64 byte ed25519 signature.
type Signature [SignatureSize]byte

// SignatureFromBytes converts raw bytes into a signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	var sig Signature
	if len(b) != SignatureSize {
		return sig, fmt.Errorf("signature: %w: got %d, exp %d", ErrInvalidLength, len(b), SignatureSize)
	}
	copy(sig[:], b)
	return sig, nil
}

// ToSignature converts a 0x prefixed hex string into a signature.
func ToSignature(s string) (Signature, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return Signature{}, fmt.Errorf("signature: %w", err)
	}
	return SignatureFromBytes(b)
}

// Bytes returns a copy of the raw signature bytes.
func (sig Signature) Bytes() []byte {
	b := make([]byte, SignatureSize)
	copy(b, sig[:])
	return b
}

// String implements the fmt.Stringer interface.
func (sig Signature) String() string {
	return hexutil.Encode(sig[:])
}

// MarshalText implements the encoding.TextMarshaler interface.
func (sig Signature) MarshalText() ([]byte, error) {
	return []byte(sig.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (sig *Signature) UnmarshalText(text []byte) error {
	v, err := ToSignature(string(text))
	if err != nil {
		return err
	}
	*sig = v
	return nil
}

// =============================================================================

// PrivateKey is the signing half of an account.
type PrivateKey struct {
	key ed25519.PrivateKey
}

// GenerateKey creates a new random private key.
func GenerateKey() (PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return PrivateKey{}, err
	}
	return PrivateKey{key: key}, nil
}

// NewKeyFromSeed derives the private key for the specified 32 byte seed.
func NewKeyFromSeed(seed []byte) (PrivateKey, error) {
	if len(seed) != SeedSize {
		return PrivateKey{}, fmt.Errorf("seed: %w: got %d, exp %d", ErrInvalidLength, len(seed), SeedSize)
	}
	return PrivateKey{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// HexToKey derives the private key from a 0x prefixed hex seed.
func HexToKey(s string) (PrivateKey, error) {
	seed, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return PrivateKey{}, fmt.Errorf("seed: %w", err)
	}
	return NewKeyFromSeed(seed)
}

// LoadKey reads a hex encoded seed from the specified file.
func LoadKey(path string) (PrivateKey, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return PrivateKey{}, err
	}
	return HexToKey(string(content))
}

// SaveKey writes the hex encoded seed of the key to the specified file.
func SaveKey(path string, pk PrivateKey) error {
	return os.WriteFile(path, []byte(pk.SeedHex()), 0600)
}

// Public returns the account public key.
func (pk PrivateKey) Public() PublicKey {
	var pub PublicKey
	copy(pub[:], pk.key.Public().(ed25519.PublicKey))
	return pub
}

// SeedHex returns the 0x prefixed hex encoding of the seed.
func (pk PrivateKey) SeedHex() string {
	return hexutil.Encode(pk.key.Seed())
}

// =============================================================================

// Sign produces the Ed25519ph signature of the payload.
func Sign(pk PrivateKey, payload []byte) (Signature, error) {
	if len(pk.key) != ed25519.PrivateKeySize {
		return Signature{}, errors.New("private key not initialized")
	}

	digest := sha512.Sum512(payload)
	sig, err := pk.key.Sign(nil, digest[:], &prehashed)
	if err != nil {
		return Signature{}, err
	}

	return SignatureFromBytes(sig)
}

// Verify reports whether sig is the Ed25519ph signature of payload by the
// owner of the public key.
func Verify(pub PublicKey, payload []byte, sig Signature) bool {
	digest := sha512.Sum512(payload)
	return ed25519.VerifyWithOptions(pub[:], digest[:], sig[:], &prehashed) == nil
}
