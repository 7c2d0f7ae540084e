package handlers

import (
	"encoding/binary"
	"errors"
	"net"
	"testing"

	"github.com/la2go/mmocore/internal/crypto"
	"github.com/la2go/mmocore/internal/protoerr"
	"github.com/la2go/mmocore/internal/protocol"
	"github.com/la2go/mmocore/internal/session"
	"github.com/la2go/mmocore/internal/store"
	"github.com/la2go/mmocore/internal/world"
)

func testTransport(t *testing.T) *crypto.TransportCipher {
	t.Helper()
	key := make([]byte, crypto.TransportCipherKeySize)
	salt := make([]byte, crypto.TransportCipherSaltSize)
	for i := range key {
		key[i] = byte(i)
	}
	for i := range salt {
		salt[i] = byte(0x80 + i)
	}
	tc, err := crypto.NewTransportCipher(key, salt, "127.0.0.1")
	if err != nil {
		t.Fatalf("NewTransportCipher: %v", err)
	}
	return tc
}

func testSession(t *testing.T, id uint64) *session.Session {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })
	return session.New(id, server, 16)
}

func loginAuthPayload(tc *crypto.TransportCipher, uid, state uint32) []byte {
	c0, c1 := tc.Encrypt(uid, state)
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], c0)
	binary.LittleEndian.PutUint32(buf[4:8], c1)
	return buf
}

func flatMap(id uint16, w, h int) *world.Map {
	loader := world.NewDemoMapLoader(id, w, h)
	maps, _ := loader.All()
	return maps[0]
}

func TestLoginAuthAccept(t *testing.T) {
	tc := testTransport(t)
	h := New(tc, store.NewInMemory())
	w := world.New([]*world.Map{flatMap(loginAuthMapID, 50, 50)})
	sess := testSession(t, 1)

	pkt := protocol.Packet{Opcode: 1052, Payload: loginAuthPayload(tc, 10_000_001, 0)}
	if err := h.LoginAuth(sess, pkt, w); err != nil {
		t.Fatalf("LoginAuth: %v", err)
	}

	player := sess.Player()
	if player == nil {
		t.Fatal("expected a player to be attached after LoginAuth")
	}
	if player.ID != 10_000_001 {
		t.Fatalf("player.ID = %d, want 10000001", player.ID)
	}
	if player.MapID != loginAuthMapID {
		t.Fatalf("player.MapID = %d, want %d", player.MapID, loginAuthMapID)
	}
}

func TestLoginAuthRejectUIDOutOfRange(t *testing.T) {
	tc := testTransport(t)
	h := New(tc, store.NewInMemory())
	w := world.New([]*world.Map{flatMap(loginAuthMapID, 50, 50)})
	sess := testSession(t, 1)

	pkt := protocol.Packet{Opcode: 1052, Payload: loginAuthPayload(tc, 500_000, 0)}
	err := h.LoginAuth(sess, pkt, w)
	if !errors.Is(err, protoerr.ErrValidation) {
		t.Fatalf("LoginAuth(uid=500000) error = %v, want ErrValidation", err)
	}
	if sess.Player() != nil {
		t.Fatal("session should not have an attached player after a rejected LoginAuth")
	}
}

func TestLoginAuthRejectStateTooHigh(t *testing.T) {
	tc := testTransport(t)
	h := New(tc, store.NewInMemory())
	w := world.New([]*world.Map{flatMap(loginAuthMapID, 50, 50)})
	sess := testSession(t, 1)

	pkt := protocol.Packet{Opcode: 1052, Payload: loginAuthPayload(tc, 10_000_001, 11)}
	err := h.LoginAuth(sess, pkt, w)
	if !errors.Is(err, protoerr.ErrValidation) {
		t.Fatalf("LoginAuth(state=11) error = %v, want ErrValidation", err)
	}
}

func TestActionJumpMovesPlayer(t *testing.T) {
	tc := testTransport(t)
	h := New(tc, store.NewInMemory())
	w := world.New([]*world.Map{flatMap(loginAuthMapID, 400, 400)})
	sess := testSession(t, 1)

	loginPkt := protocol.Packet{Opcode: 1052, Payload: loginAuthPayload(tc, 10_000_001, 0)}
	if err := h.LoginAuth(sess, loginPkt, w); err != nil {
		t.Fatalf("LoginAuth: %v", err)
	}

	action := protocol.Action{
		Type:      protocol.ActionJump,
		DwParamLo: 300,
		DwParamHi: 302,
	}
	actionPkt := protocol.Packet{Opcode: 1010, Payload: action.Marshal()}
	if err := h.Action(sess, actionPkt, w); err != nil {
		t.Fatalf("Action(Jump): %v", err)
	}

	player := sess.Player()
	if player.Position.X != 300 || player.Position.Y != 302 {
		t.Fatalf("player.Position = %+v, want (300, 302)", player.Position)
	}
}

func TestActionWithoutPlayerIsNotFound(t *testing.T) {
	tc := testTransport(t)
	h := New(tc, store.NewInMemory())
	w := world.New(nil)
	sess := testSession(t, 1)

	action := protocol.Action{Type: protocol.ActionSetLocation}
	pkt := protocol.Packet{Opcode: 1010, Payload: action.Marshal()}

	err := h.Action(sess, pkt, w)
	if !errors.Is(err, protoerr.ErrNotFound) {
		t.Fatalf("Action on session without player: err = %v, want ErrNotFound", err)
	}
}
