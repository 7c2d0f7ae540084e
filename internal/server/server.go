// Package server wires the Session Framer, Dispatcher, and World
// into the accept loop described in §5: one read/write task pair per
// accepted connection, a single dispatcher consumer, and a dedicated
// tick task, all under one cancellation token.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/la2go/mmocore/internal/config"
	"github.com/la2go/mmocore/internal/dispatcher"
	"github.com/la2go/mmocore/internal/session"
	"github.com/la2go/mmocore/internal/world"
)

// Server owns the listener, the session registry, the Dispatcher, and
// the World. Construct with New and run with Run.
type Server struct {
	cfg        config.Config
	registry   *session.Registry
	dispatcher *dispatcher.Dispatcher
	world      *world.World

	listener net.Listener
}

// New constructs a Server bound to cfg, d, and w. The caller registers
// opcode handlers on d before calling Run.
func New(cfg config.Config, d *dispatcher.Dispatcher, w *world.World) *Server {
	return &Server{
		cfg:        cfg,
		registry:   session.NewRegistry(),
		dispatcher: d,
		world:      w,
	}
}

// Run listens on cfg.BindAddress:cfg.Port and serves until ctx is
// cancelled. It drives the dispatcher's consumer, the world's tick
// loop, and the accept loop as one cancellation-linked group.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.dispatcher.Run(gctx) })
	g.Go(func() error { return s.world.RunTickLoop(gctx, s.cfg.TickHz) })
	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		slog.Info("game server listening", "address", ln.Addr())
		return s.acceptLoop(gctx, ln)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	refusing := false
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			slog.Error("accept failed", "err", err)
			continue
		}

		if refusing && s.dispatcher.BelowLowWater() {
			refusing = false
		}
		if !refusing && s.dispatcher.AboveHighWater() {
			refusing = true
		}
		if refusing || s.registry.Count() >= s.cfg.MaxClients {
			slog.Warn("refusing connection: at capacity",
				"remote", conn.RemoteAddr(), "sessions", s.registry.Count(), "max_clients", s.cfg.MaxClients)
			_ = conn.Close()
			continue
		}

		if tcpConn, ok := conn.(*net.TCPConn); ok {
			if err := tcpConn.SetKeepAlive(true); err != nil {
				slog.Warn("set keepalive failed", "remote", conn.RemoteAddr(), "err", err)
			}
			if err := tcpConn.SetKeepAlivePeriod(30 * time.Second); err != nil {
				slog.Warn("set keepalive period failed", "remote", conn.RemoteAddr(), "err", err)
			}
		}

		sess := session.New(s.registry.NextID(), conn, s.cfg.OutboundMailbox)
		s.registry.Register(sess)

		go s.runSession(ctx, sess)
	}
}

func (s *Server) runSession(ctx context.Context, sess *session.Session) {
	defer func() {
		s.dispatcher.RemoveSession(sess.ID)
		s.registry.Unregister(sess.ID)
	}()

	if err := sess.Run(ctx, s.cfg, s.dispatcher.Enqueue); err != nil {
		slog.Debug("session ended", "session", sess.ID, "remote", sess.RemoteAddr, "err", err)
	}
}

// Registry exposes the session table, e.g. for admin tooling or tests.
func (s *Server) Registry() *session.Registry {
	return s.registry
}
