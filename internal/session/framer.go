package session

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/la2go/mmocore/internal/config"
	"github.com/la2go/mmocore/internal/constants"
	"github.com/la2go/mmocore/internal/crypto"
	"github.com/la2go/mmocore/internal/handshake"
	"github.com/la2go/mmocore/internal/protocol"
	"github.com/la2go/mmocore/internal/protoerr"
	"github.com/la2go/mmocore/internal/streamcipher"
)

// dummyAckPayload is the fixed word the server echoes back to the
// client once the bootstrap dummy packet has been validated.
const dummyAckPayload uint32 = 0x0000ACC0

// EnqueueFunc hands a deframed packet to the Dispatcher's inbound
// queue. It is the read task's sole connection to the rest of the
// system; the Framer never imports the dispatcher package.
type EnqueueFunc func(sess *Session, pkt protocol.Packet) error

// Run drives the session end to end: the handshake, then the read
// and write tasks, until ctx is cancelled or a fatal error occurs.
// Run always leaves the session Closed before returning.
func (s *Session) Run(ctx context.Context, cfg config.Config, enqueue EnqueueFunc) error {
	defer s.Close()

	if err := s.runHandshake(ctx, cfg); err != nil {
		slog.Warn("session handshake failed", "session", s.ID, "remote", s.RemoteAddr, "err", err)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readLoop(gctx, cfg, enqueue) })
	g.Go(func() error { return s.writeLoop(gctx, cfg) })

	err := g.Wait()
	if err != nil {
		slog.Info("session closed", "session", s.ID, "remote", s.RemoteAddr, "err", err)
	}
	return err
}

func (s *Session) runHandshake(ctx context.Context, cfg config.Config) error {
	deadline := time.Now().Add(cfg.HandshakeTimeout)
	if err := s.Conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %v", protoerr.ErrIO, err)
	}

	s.setState(StateConnecting)

	p, g := handshake.Group()
	priv, err := handshake.GeneratePrivate()
	if err != nil {
		return fmt.Errorf("%w: generating dh private exponent: %v", protoerr.ErrCipher, err)
	}
	pub := handshake.PublicKey(priv)
	pubHexLen := len(fmt.Sprintf("%X", pub))

	offer := handshake.BuildOffer(p, g, pub)
	if _, err := s.Conn.Write(offer); err != nil {
		return fmt.Errorf("%w: writing handshake offer: %v", protoerr.ErrIO, err)
	}

	s.setState(StateAwaitingDummy)
	if err := s.readDummy(); err != nil {
		return err
	}

	s.setState(StateHandshakeDH)
	clientPub, err := s.readHandshakeResponse(pubHexLen)
	if err != nil {
		return err
	}

	shared := handshake.SharedSecret(clientPub, priv)
	key := handshake.DeriveKey(shared)

	inCipher, err := streamcipher.New(key)
	if err != nil {
		return fmt.Errorf("%w: installing inbound cipher: %v", protoerr.ErrCipher, err)
	}
	outCipher, err := streamcipher.New(key)
	if err != nil {
		return fmt.Errorf("%w: installing outbound cipher: %v", protoerr.ErrCipher, err)
	}
	s.inCipher = inCipher
	s.outCipher = outCipher

	if err := s.Conn.SetDeadline(time.Time{}); err != nil {
		return fmt.Errorf("%w: %v", protoerr.ErrIO, err)
	}

	s.setState(StateEstablished)
	return nil
}

// readDummy reads and validates the fixed-size AwaitingDummy bootstrap
// packet, then writes back an encrypted acknowledgement built the
// same way, both keyed with the static bootstrap key used before the
// DH-derived stream cipher exists.
func (s *Session) readDummy() error {
	buf := make([]byte, constants.DummyPacketSize)
	if _, err := io.ReadFull(s.Conn, buf); err != nil {
		return fmt.Errorf("%w: reading dummy packet: %v", protoerr.ErrIO, err)
	}

	marker, _, err := crypto.ParseDummyPacket(crypto.DefaultDummyBlowfishKey, buf)
	if err != nil {
		return fmt.Errorf("%w: %v", protoerr.ErrProtocol, err)
	}

	ack, err := crypto.BuildDummyPacket(crypto.DefaultDummyBlowfishKey, marker, dummyAckPayload, int32(marker))
	if err != nil {
		return fmt.Errorf("%w: building dummy ack: %v", protoerr.ErrCipher, err)
	}
	if _, err := s.Conn.Write(ack); err != nil {
		return fmt.Errorf("%w: writing dummy ack: %v", protoerr.ErrIO, err)
	}
	return nil
}

func (s *Session) readHandshakeResponse(expectedPubHexLen int) (*big.Int, error) {
	header := make([]byte, constants.HandshakeHeaderSize+4)
	if _, err := io.ReadFull(s.Conn, header); err != nil {
		return nil, fmt.Errorf("%w: reading handshake response header: %v", protoerr.ErrIO, err)
	}
	bodyLen := binary.LittleEndian.Uint32(header[constants.HandshakeHeaderSize:])

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(s.Conn, body); err != nil {
		return nil, fmt.Errorf("%w: reading handshake response body: %v", protoerr.ErrIO, err)
	}

	full := append(header, body...)
	pub, err := handshake.ParseResponse(full)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing handshake response: %v", protoerr.ErrProtocol, err)
	}
	if got := len(fmt.Sprintf("%X", pub)); got > expectedPubHexLen {
		return nil, fmt.Errorf("%w: client pub_hex longer than offered length", protoerr.ErrProtocol)
	}
	return pub, nil
}

func (s *Session) readLoop(ctx context.Context, cfg config.Config, enqueue EnqueueFunc) error {
	var reader protocol.FrameReader
	buf := make([]byte, 4096)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := s.Conn.SetReadDeadline(time.Now().Add(cfg.IdleTimeout)); err != nil {
			return fmt.Errorf("%w: %v", protoerr.ErrIO, err)
		}

		n, err := s.Conn.Read(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return fmt.Errorf("%w: idle read timeout", protoerr.ErrTimeout)
			}
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("%w: %v", protoerr.ErrIO, err)
		}

		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		s.inCipher.Decrypt(chunk)
		reader.Feed(chunk)

		for {
			pkt, err := reader.Next()
			if err != nil {
				return err
			}
			if pkt == nil {
				break
			}
			if err := enqueue(s, *pkt); err != nil {
				slog.Warn("dropping inbound packet", "session", s.ID, "opcode", pkt.Opcode, "err", err)
			}
		}
	}
}

func (s *Session) writeLoop(ctx context.Context, cfg config.Config) error {
	for {
		select {
		case <-ctx.Done():
			s.drainMailbox(cfg)
			return ctx.Err()
		case frame, ok := <-s.mailbox:
			if !ok {
				return nil
			}
			s.outCipher.Encrypt(frame)
			if err := s.Conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return fmt.Errorf("%w: %v", protoerr.ErrIO, err)
			}
			if _, err := s.Conn.Write(frame); err != nil {
				return fmt.Errorf("%w: %v", protoerr.ErrIO, err)
			}
		}
	}
}

// drainMailbox best-effort flushes queued frames during shutdown,
// bounded by a grace period.
func (s *Session) drainMailbox(cfg config.Config) {
	deadline := time.Now().Add(5 * time.Second)
	for {
		select {
		case frame, ok := <-s.mailbox:
			if !ok {
				return
			}
			if time.Now().After(deadline) {
				return
			}
			s.outCipher.Encrypt(frame)
			_ = s.Conn.SetWriteDeadline(deadline)
			_, _ = s.Conn.Write(frame)
		default:
			return
		}
	}
}
