package crypto

import "testing"

// TestTransportCipherFixedVector gates the chosen §6.3 variant against
// a recorded test vector so a future change to the indexing scheme
// cannot silently break byte compatibility.
func TestTransportCipherFixedVector(t *testing.T) {
	key := make([]byte, TransportCipherKeySize)
	for i := range key {
		key[i] = byte(i)
	}
	salt := make([]byte, TransportCipherSaltSize)
	for i := range salt {
		salt[i] = byte(0x40 + i)
	}

	tc, err := NewTransportCipher(key, salt, "127.0.0.1")
	if err != nil {
		t.Fatalf("NewTransportCipher: %v", err)
	}

	const uid, state = uint32(10_000_001), uint32(0)
	wantC0, wantC1 := uint32(0x3FD8D5C1), uint32(0x3F99D580)

	c0, c1 := tc.Encrypt(uid, state)
	if c0 != wantC0 || c1 != wantC1 {
		t.Fatalf("Encrypt(%d, %d) = (%#08x, %#08x), want (%#08x, %#08x)", uid, state, c0, c1, wantC0, wantC1)
	}

	gotUID, gotState := tc.Decrypt(c0, c1)
	if gotUID != uid || gotState != state {
		t.Fatalf("Decrypt round-trip = (%d, %d), want (%d, %d)", gotUID, gotState, uid, state)
	}
}

func TestTransportCipherInvalidConfig(t *testing.T) {
	key := make([]byte, TransportCipherKeySize)
	salt := make([]byte, TransportCipherSaltSize)

	if _, err := NewTransportCipher(key[:10], salt, "127.0.0.1"); err == nil {
		t.Fatal("expected error for short key")
	}
	if _, err := NewTransportCipher(key, salt, "not-an-ip"); err == nil {
		t.Fatal("expected error for malformed server ip")
	}
}
