package handshake

import (
	"math/big"
	"testing"
)

func TestSharedSecretAgreement(t *testing.T) {
	serverPriv, err := GeneratePrivate()
	if err != nil {
		t.Fatalf("GeneratePrivate: %v", err)
	}
	clientPriv, err := GeneratePrivate()
	if err != nil {
		t.Fatalf("GeneratePrivate: %v", err)
	}

	serverPub := PublicKey(serverPriv)
	clientPub := PublicKey(clientPriv)

	serverShared := SharedSecret(clientPub, serverPriv)
	clientShared := SharedSecret(serverPub, clientPriv)

	if serverShared.Cmp(clientShared) != 0 {
		t.Fatalf("shared secrets disagree: server=%s client=%s", serverShared, clientShared)
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	shared := big.NewInt(0x1234567890abcdef)

	k1 := DeriveKey(shared)
	k2 := DeriveKey(shared)

	if string(k1) != string(k2) {
		t.Fatalf("DeriveKey not deterministic")
	}
	if len(k1) != 64 {
		t.Fatalf("DeriveKey length = %d, want 64", len(k1))
	}
}

func TestHandshakeOfferRoundTrip(t *testing.T) {
	p, g := Group()
	priv, err := GeneratePrivate()
	if err != nil {
		t.Fatalf("GeneratePrivate: %v", err)
	}
	pub := PublicKey(priv)

	offer := BuildOffer(p, g, pub)

	gotP, gotG, gotPub, err := ParseOffer(offer)
	if err != nil {
		t.Fatalf("ParseOffer: %v", err)
	}

	if gotP.Cmp(p) != 0 {
		t.Fatalf("P round-trip mismatch")
	}
	if gotG.Cmp(g) != 0 {
		t.Fatalf("G round-trip mismatch")
	}
	if gotPub.Cmp(pub) != 0 {
		t.Fatalf("pub round-trip mismatch")
	}
}
