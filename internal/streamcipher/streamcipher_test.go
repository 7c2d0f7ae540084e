package streamcipher

import (
	"bytes"
	"testing"
)

var testKey = []byte("0123456789abcdef")

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x00},
		[]byte("hello, world"),
		bytes.Repeat([]byte{0xAB}, 257),
	}

	for _, plain := range cases {
		enc, err := New(testKey)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		dec, err := New(testKey)
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		buf := append([]byte(nil), plain...)
		enc.Encrypt(buf)
		dec.Decrypt(buf)

		if !bytes.Equal(buf, plain) {
			t.Fatalf("round-trip mismatch: got %x want %x", buf, plain)
		}
	}
}

func TestPartialAdvancesExactByteCount(t *testing.T) {
	full, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	split, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	plain := bytes.Repeat([]byte{0x42}, 20)

	fullBuf := append([]byte(nil), plain...)
	full.Encrypt(fullBuf)

	splitBuf := append([]byte(nil), plain...)
	split.Encrypt(splitBuf[:7])
	split.Encrypt(splitBuf[7:13])
	split.Encrypt(splitBuf[13:])

	if !bytes.Equal(fullBuf, splitBuf) {
		t.Fatalf("partial encryption diverged: got %x want %x", splitBuf, fullBuf)
	}
}

func TestIndependentDirections(t *testing.T) {
	out, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	in, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outBefore := out.iv
	counterBefore := out.counter

	msg := []byte("client to server")
	in.Decrypt(msg)

	if out.iv != outBefore || out.counter != counterBefore {
		t.Fatalf("decrypting on the inbound instance mutated the outbound one")
	}
}
