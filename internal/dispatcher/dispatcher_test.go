package dispatcher

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/la2go/mmocore/internal/protocol"
	"github.com/la2go/mmocore/internal/session"
	"github.com/la2go/mmocore/internal/world"
)

func newTestSession(t *testing.T, id uint64) *session.Session {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })
	return session.New(id, server, 16)
}

func TestPerSessionOrdering(t *testing.T) {
	d := New(world.New(nil), 1000, 100)

	var mu sync.Mutex
	var order []int

	const opOrdered = uint16(9001)
	d.Register(opOrdered, func(sess *session.Session, pkt protocol.Packet, w *world.World) error {
		time.Sleep(time.Millisecond)
		mu.Lock()
		order = append(order, int(pkt.Payload[0]))
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	sess := newTestSession(t, 1)
	for i := 0; i < 5; i++ {
		if err := d.Enqueue(sess, protocol.Packet{Opcode: opOrdered, Payload: []byte{byte(i)}}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n == 5 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for handlers to run")
		case <-time.After(time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want strictly increasing from 0", order)
		}
	}
}

func TestUnknownOpcodeDropped(t *testing.T) {
	d := New(world.New(nil), 1000, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	sess := newTestSession(t, 1)
	if err := d.Enqueue(sess, protocol.Packet{Opcode: 0xFFFF}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	// No handler registered for 0xFFFF: this should not panic or
	// block; give the worker a moment to process it.
	time.Sleep(10 * time.Millisecond)
}
