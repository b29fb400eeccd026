package signature_test

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/datben/gulf-stream/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	seedHex  = "0x9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"
	otherHex = "0x4ccd089b28ff96da9db6c346ec114e0f5b8a319f35aba624da8cf6ed4fb8a6fb"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	payload := []byte("gulf-stream")

	t.Log("Given the need to sign and verify payloads.")
	{
		pk, err := signature.HexToKey(seedHex)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load a private key: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to load a private key.", success)

		sig, err := signature.Sign(pk, payload)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign data: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign data.", success)

		if !signature.Verify(pk.Public(), payload, sig) {
			t.Fatalf("\t%s\tShould be able to verify the signature.", failed)
		}
		t.Logf("\t%s\tShould be able to verify the signature.", success)

		if signature.Verify(pk.Public(), []byte("tampered"), sig) {
			t.Fatalf("\t%s\tShould reject a signature over different data.", failed)
		}
		t.Logf("\t%s\tShould reject a signature over different data.", success)

		other, err := signature.HexToKey(otherHex)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load a second private key: %s", failed, err)
		}

		if signature.Verify(other.Public(), payload, sig) {
			t.Fatalf("\t%s\tShould reject a signature checked against another key.", failed)
		}
		t.Logf("\t%s\tShould reject a signature checked against another key.", success)
	}
}

func Test_RoundTrip(t *testing.T) {
	pk, err := signature.HexToKey(seedHex)
	if err != nil {
		t.Fatalf("Should be able to load a private key: %s", err)
	}

	sig, err := signature.Sign(pk, []byte("round trip"))
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	t.Log("Given the need to encode and decode keys and signatures.")
	{
		pub, err := signature.PublicKeyFromBytes(pk.Public().Bytes())
		if err != nil || pub != pk.Public() {
			t.Fatalf("\t%s\tShould get back the same public key from bytes: %v", failed, err)
		}
		t.Logf("\t%s\tShould get back the same public key from bytes.", success)

		pub, err = signature.ToPublicKey(pk.Public().String())
		if err != nil || pub != pk.Public() {
			t.Fatalf("\t%s\tShould get back the same public key from hex: %v", failed, err)
		}
		t.Logf("\t%s\tShould get back the same public key from hex.", success)

		s, err := signature.SignatureFromBytes(sig.Bytes())
		if err != nil || s != sig {
			t.Fatalf("\t%s\tShould get back the same signature from bytes: %v", failed, err)
		}
		t.Logf("\t%s\tShould get back the same signature from bytes.", success)

		data, err := json.Marshal(struct {
			Pub signature.PublicKey `json:"pub"`
			Sig signature.Signature `json:"sig"`
		}{pk.Public(), sig})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to marshal to JSON: %s", failed, err)
		}

		var got struct {
			Pub signature.PublicKey `json:"pub"`
			Sig signature.Signature `json:"sig"`
		}
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("\t%s\tShould be able to unmarshal from JSON: %s", failed, err)
		}
		if got.Pub != pk.Public() || got.Sig != sig {
			t.Fatalf("\t%s\tShould get back the same values from JSON.", failed)
		}
		t.Logf("\t%s\tShould get back the same values from JSON.", success)

		if _, err := signature.PublicKeyFromBytes([]byte{1, 2, 3}); !errors.Is(err, signature.ErrInvalidLength) {
			t.Fatalf("\t%s\tShould reject a short public key: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a short public key.", success)
	}
}

func Test_KeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kennedy.ed25519")

	pk, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}

	if err := signature.SaveKey(path, pk); err != nil {
		t.Fatalf("Should be able to save the key: %s", err)
	}

	loaded, err := signature.LoadKey(path)
	if err != nil {
		t.Fatalf("Should be able to load the key: %s", err)
	}

	if loaded.Public() != pk.Public() {
		t.Logf("got: %s", loaded.Public())
		t.Logf("exp: %s", pk.Public())
		t.Fatalf("Should get back the same account.")
	}
}
