package protocol

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	frame, err := BuildFrame(1004, []byte("hello"))
	if err != nil {
		t.Fatalf("BuildFrame: %v", err)
	}

	var r FrameReader
	r.Feed(frame)

	pkt, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if pkt == nil {
		t.Fatal("expected a frame, got nil")
	}
	if pkt.Opcode != 1004 {
		t.Fatalf("Opcode = %d, want 1004", pkt.Opcode)
	}
	if !bytes.Equal(pkt.Payload, []byte("hello")) {
		t.Fatalf("Payload = %q, want %q", pkt.Payload, "hello")
	}
}

func TestFrameReaderPartialFeed(t *testing.T) {
	frame, err := BuildFrame(1010, []byte("partial-payload"))
	if err != nil {
		t.Fatalf("BuildFrame: %v", err)
	}

	var r FrameReader
	r.Feed(frame[:2])
	if pkt, err := r.Next(); err != nil || pkt != nil {
		t.Fatalf("expected no frame yet, got pkt=%v err=%v", pkt, err)
	}

	r.Feed(frame[2:])
	pkt, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if pkt == nil || pkt.Opcode != 1010 {
		t.Fatalf("expected opcode 1010, got %v", pkt)
	}
}

func TestFrameReaderTwoFramesBackToBack(t *testing.T) {
	f1, _ := BuildFrame(1, []byte("a"))
	f2, _ := BuildFrame(2, []byte("bb"))

	var r FrameReader
	r.Feed(append(append([]byte{}, f1...), f2...))

	p1, err := r.Next()
	if err != nil || p1 == nil || p1.Opcode != 1 {
		t.Fatalf("first frame wrong: %v %v", p1, err)
	}
	p2, err := r.Next()
	if err != nil || p2 == nil || p2.Opcode != 2 {
		t.Fatalf("second frame wrong: %v %v", p2, err)
	}
}

func TestFrameReaderRejectsBadSeal(t *testing.T) {
	frame, _ := BuildFrame(1, []byte("x"))
	frame[len(frame)-2] = 0x02 // corrupt seal

	var r FrameReader
	r.Feed(frame)
	if _, err := r.Next(); err == nil {
		t.Fatal("expected seal mismatch error")
	}
}

func TestFrameReaderRejectsShortLength(t *testing.T) {
	var r FrameReader
	r.Feed([]byte{0x03, 0x00, 0x00, 0x00})
	if _, err := r.Next(); err == nil {
		t.Fatal("expected error for length below minimum")
	}
}

// A length of 4 or 5 clears the old length >= 4 gate but leaves no
// room for the seal trailer, which previously panicked on a negative
// slice length instead of returning a protocol error.
func TestFrameReaderRejectsLengthTooSmallForSeal(t *testing.T) {
	for _, length := range []uint16{4, 5} {
		var r FrameReader
		r.Feed([]byte{byte(length), byte(length >> 8), 0x01, 0x00, 0x00})
		if _, err := r.Next(); err == nil {
			t.Fatalf("length=%d: expected a protocol error, got nil", length)
		}
	}
}
