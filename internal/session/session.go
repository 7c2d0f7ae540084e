// Package session implements the per-connection Session Framer:
// the handshake state machine, the framed stream codec, and the
// read/write tasks described in §4.3 and §5.
package session

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/la2go/mmocore/internal/model"
	"github.com/la2go/mmocore/internal/protocol"
	"github.com/la2go/mmocore/internal/streamcipher"
)

// Session is one per accepted TCP connection. The Framer exclusively
// owns the cipher state and the socket; PlayerIdentity is shared with
// the World and the Dispatcher but mutated only by handlers.
type Session struct {
	ID         uint64
	Conn       net.Conn
	RemoteAddr string
	ConnectAt  time.Time

	state atomic.Int32

	inCipher  *streamcipher.StreamCipher
	outCipher *streamcipher.StreamCipher

	playerMu sync.RWMutex
	player   *model.PlayerIdentity

	mailbox chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

// New constructs a Session in StateConnecting with a bounded outbound
// mailbox. Callers must start Run to drive the handshake and the
// read/write tasks.
func New(id uint64, conn net.Conn, mailboxSize int) *Session {
	s := &Session{
		ID:         id,
		Conn:       conn,
		RemoteAddr: conn.RemoteAddr().String(),
		ConnectAt:  time.Now(),
		mailbox:    make(chan []byte, mailboxSize),
		done:       make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))
	return s
}

// State returns the session's current state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Player returns the attached PlayerIdentity, or nil if the session
// has not authenticated yet.
func (s *Session) Player() *model.PlayerIdentity {
	s.playerMu.RLock()
	defer s.playerMu.RUnlock()
	return s.player
}

// AttachPlayer installs the PlayerIdentity after the first
// authenticated message.
func (s *Session) AttachPlayer(p *model.PlayerIdentity) {
	s.playerMu.Lock()
	defer s.playerMu.Unlock()
	s.player = p
}

// Send builds a frame for opcode/payload and queues it on the
// session's outbound mailbox. The write task owns the outbound cipher
// and the socket; handlers never touch either directly.
//
// ErrCapacity (mailbox full) is returned without blocking, matching
// the "overflow disconnects the session" capacity rule; the caller is
// expected to close the session on that error.
func (s *Session) Send(opcode uint16, payload []byte) error {
	frame, err := protocol.BuildFrame(opcode, payload)
	if err != nil {
		return err
	}

	select {
	case s.mailbox <- frame:
		return nil
	default:
		return errMailboxFull
	}
}

// Done is closed once the session's resources are released.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close releases the session's resources exactly once: it marks the
// state Closed, closes the socket, and signals Done.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.setState(StateClosed)
		_ = s.Conn.Close()
		close(s.done)
	})
}
