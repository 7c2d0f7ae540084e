// Package dispatcher implements the opcode-routed packet dispatcher
// of §4.4: a single shared inbound queue fanning out to per-session
// workers so that per-session order is preserved while handlers for
// different sessions run concurrently.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/la2go/mmocore/internal/protoerr"
	"github.com/la2go/mmocore/internal/protocol"
	"github.com/la2go/mmocore/internal/session"
	"github.com/la2go/mmocore/internal/world"
)

// handlerSoftBudget is logged, not enforced, per §5.
const handlerSoftBudget = 50 * time.Millisecond

// sessionWorkerQueueSize bounds each session's local FIFO; the shared
// inbound queue in front of it is the one unbounded point.
const sessionWorkerQueueSize = 64

// ClientMessage is the queued record placed on the inbound queue by
// each session's read loop.
type ClientMessage struct {
	Session *session.Session
	Packet  protocol.Packet
}

// Handler is invoked with (session_ref, packet_view) and the World it
// may query or mutate. It never blocks on IO other than the
// session's own outbound mailbox and the World's internal
// synchronization.
type Handler func(sess *session.Session, pkt protocol.Packet, w *world.World) error

// Dispatcher owns the single inbound queue and the opcode-to-handler
// table.
type Dispatcher struct {
	world    *world.World
	handlers map[uint16]Handler

	enqueue chan<- ClientMessage
	consume <-chan ClientMessage
	depth   func() int

	highWater, lowWater int

	workersMu sync.Mutex
	workers   map[uint64]chan ClientMessage
}

// New constructs a Dispatcher bound to w, with backpressure marks.
func New(w *world.World, highWater, lowWater int) *Dispatcher {
	in, out, depth := newUnboundedQueue[ClientMessage]()
	return &Dispatcher{
		world:     w,
		handlers:  make(map[uint16]Handler),
		enqueue:   in,
		consume:   out,
		depth:     depth,
		highWater: highWater,
		lowWater:  lowWater,
		workers:   make(map[uint64]chan ClientMessage),
	}
}

// Register installs the handler for opcode. Handlers are registered
// once at startup; registering the same opcode twice overwrites the
// prior handler.
func (d *Dispatcher) Register(opcode uint16, h Handler) {
	d.handlers[opcode] = h
}

// Enqueue implements session.EnqueueFunc: it is the read task's sole
// producer-side call into the dispatcher.
func (d *Dispatcher) Enqueue(sess *session.Session, pkt protocol.Packet) error {
	d.enqueue <- ClientMessage{Session: sess, Packet: pkt}
	return nil
}

// Depth reports the current inbound queue length, for the accept
// loop's backpressure check.
func (d *Dispatcher) Depth() int {
	return d.depth()
}

// AboveHighWater reports whether the accept loop should refuse new
// connections.
func (d *Dispatcher) AboveHighWater() bool {
	return d.Depth() >= d.highWater
}

// BelowLowWater reports whether the accept loop may resume accepting.
func (d *Dispatcher) BelowLowWater() bool {
	return d.Depth() <= d.lowWater
}

// Run is the single consumer task: it drains the inbound queue and
// fans each message out to its session's worker, which invokes
// handlers in strict per-session order.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-d.consume:
			if !ok {
				return nil
			}
			d.dispatch(msg)
		}
	}
}

// RemoveSession closes and forgets a session's worker channel once
// the session itself has closed. Safe to call even if no worker was
// ever created.
func (d *Dispatcher) RemoveSession(id uint64) {
	d.workersMu.Lock()
	defer d.workersMu.Unlock()
	if ch, ok := d.workers[id]; ok {
		close(ch)
		delete(d.workers, id)
	}
}

// dispatch routes msg to its session's worker, creating the worker on
// first use. The lookup, any creation, and the send all happen under
// workersMu so a concurrent RemoveSession can never close the channel
// between the lookup and the send landing on it. A message for a
// session that has already closed (and so already had RemoveSession
// called) is dropped instead of spinning up a new, never-reaped
// worker goroutine for a session nobody will remove again.
func (d *Dispatcher) dispatch(msg ClientMessage) {
	d.workersMu.Lock()
	defer d.workersMu.Unlock()

	ch, ok := d.workers[msg.Session.ID]
	if !ok {
		if msg.Session.State() == session.StateClosed {
			slog.Info("dropping message for closed session", "session", msg.Session.ID, "opcode", msg.Packet.Opcode)
			return
		}
		ch = make(chan ClientMessage, sessionWorkerQueueSize)
		d.workers[msg.Session.ID] = ch
		go d.runWorker(ch)
	}
	ch <- msg
}

func (d *Dispatcher) runWorker(ch chan ClientMessage) {
	for msg := range ch {
		d.invoke(msg)
	}
}

func (d *Dispatcher) invoke(msg ClientMessage) {
	h, ok := d.handlers[msg.Packet.Opcode]
	if !ok {
		slog.Info("dropping unknown opcode", "session", msg.Session.ID, "opcode", msg.Packet.Opcode)
		return
	}

	start := time.Now()
	err := h(msg.Session, msg.Packet, d.world)
	if elapsed := time.Since(start); elapsed > handlerSoftBudget {
		slog.Warn("handler exceeded soft budget", "session", msg.Session.ID, "opcode", msg.Packet.Opcode, "elapsed", elapsed)
	}

	if err == nil {
		return
	}
	if protoerr.Fatal(err) || errors.Is(err, protoerr.ErrCapacity) {
		slog.Error("fatal handler error, closing session", "session", msg.Session.ID, "opcode", msg.Packet.Opcode, "err", err)
		msg.Session.Close()
		return
	}
	slog.Warn("handler error", "session", msg.Session.ID, "opcode", msg.Packet.Opcode, "err", err)
}
