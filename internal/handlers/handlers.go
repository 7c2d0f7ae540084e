// Package handlers implements the core's opcode handlers: LoginAuth,
// LoginGame, Talk, and Action (§4.4).
package handlers

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/la2go/mmocore/internal/constants"
	"github.com/la2go/mmocore/internal/crypto"
	"github.com/la2go/mmocore/internal/model"
	"github.com/la2go/mmocore/internal/protoerr"
	"github.com/la2go/mmocore/internal/protocol"
	"github.com/la2go/mmocore/internal/session"
	"github.com/la2go/mmocore/internal/store"
	"github.com/la2go/mmocore/internal/world"
)

// loginAuthMapID is the map new players spawn onto after a
// successful LoginAuth, per §4.4.
const loginAuthMapID uint16 = 1002

const (
	minUID   = 1_000_000
	maxUID   = 10_000_001
	maxState = 10
)

// Handlers bundles the dependencies the core's opcode handlers need.
// A startup function constructs one instance and registers its
// methods on the Dispatcher's opcode table; there is no service
// locator.
type Handlers struct {
	Transport *crypto.TransportCipher
	Store     store.PlayerStore
}

// New constructs Handlers backed by the configured §6.3 transport
// cipher and a PlayerStore (§6.4) for identity persistence.
func New(transport *crypto.TransportCipher, playerStore store.PlayerStore) *Handlers {
	return &Handlers{Transport: transport, Store: playerStore}
}

// LoginAuth handles opcode 1052.
func (h *Handlers) LoginAuth(sess *session.Session, pkt protocol.Packet, w *world.World) error {
	if len(pkt.Payload) < 8 {
		return fmt.Errorf("%w: LoginAuth payload too short: %d bytes", protoerr.ErrValidation, len(pkt.Payload))
	}

	c0 := binary.LittleEndian.Uint32(pkt.Payload[0:4])
	c1 := binary.LittleEndian.Uint32(pkt.Payload[4:8])
	uid, state := h.Transport.Decrypt(c0, c1)

	if uid <= minUID || uid > maxUID {
		return fmt.Errorf("%w: LoginAuth uid %d out of range (%d, %d]", protoerr.ErrValidation, uid, minUID, maxUID)
	}
	if state > maxState {
		return fmt.Errorf("%w: LoginAuth state %d exceeds max %d", protoerr.ErrValidation, state, maxState)
	}

	player := h.loadOrCreatePlayer(uid)
	sess.AttachPlayer(player)

	if err := w.Spawn(player, loginAuthMapID); err != nil {
		return err
	}

	if h.Store != nil {
		h.Store.Upsert(player)
	}

	talk := protocol.Talk{
		Strings: []string{"SYSTEM", "ALLUSERS", "", "ANSWER_OK", "", "0"},
	}
	if err := sess.Send(constants.OpTalk, talk.Marshal()); err != nil {
		return err
	}

	hero := protocol.HeroInfo{
		ID:    player.ID,
		Name:  player.Name,
		Level: player.Level,
		MapID: player.MapID,
		X:     player.Position.X,
		Y:     player.Position.Y,
		HP:    player.Stats.HP,
		MaxHP: player.Stats.MaxHP,
	}
	return sess.Send(constants.OpHeroInfo, hero.Marshal())
}

// loadOrCreatePlayer consults the PlayerStore for a previously
// persisted identity before falling back to a fresh one; the World's
// spawn position and map are always recomputed, per §4.5 Spawn.
func (h *Handlers) loadOrCreatePlayer(uid uint32) *model.PlayerIdentity {
	if h.Store != nil {
		if p, ok := h.Store.Load(uid); ok {
			return p
		}
	}
	return &model.PlayerIdentity{
		ID:   uid,
		Name: fmt.Sprintf("player%d", uid),
	}
}

// LoginGame handles opcode 1086 by emitting the opcode-1052 preamble.
func (h *Handlers) LoginGame(sess *session.Session, pkt protocol.Packet, w *world.World) error {
	preamble := make([]byte, 8)
	return sess.Send(constants.OpLoginAuth, preamble)
}

// Talk handles opcode 1004.
func (h *Handlers) Talk(sess *session.Session, pkt protocol.Packet, w *world.World) error {
	talk, err := protocol.UnmarshalTalk(pkt.Payload)
	if err != nil {
		return err
	}

	slog.Info("talk message",
		"session", sess.ID,
		"from", talk.Strings[0],
		"to", talk.Strings[1],
		"message", talk.Strings[3],
	)
	return nil
}

// Action handles opcode 1010.
func (h *Handlers) Action(sess *session.Session, pkt protocol.Packet, w *world.World) error {
	action, err := protocol.UnmarshalAction(pkt.Payload)
	if err != nil {
		return err
	}

	player := sess.Player()
	if player == nil {
		return fmt.Errorf("%w: action on session without an attached player", protoerr.ErrNotFound)
	}

	switch action.Type {
	case protocol.ActionSetLocation:
		return h.handleSetLocation(sess, player)
	case protocol.ActionJump:
		return h.handleJump(sess, player, action, w)
	default:
		slog.Info("dropping unhandled action", "session", sess.ID, "action_type", action.Type)
		return nil
	}
}

func (h *Handlers) handleSetLocation(sess *session.Session, player *model.PlayerIdentity) error {
	echo := protocol.Action{
		UID:       player.ID,
		Type:      protocol.ActionSetLocation,
		Param1:    int32(player.MapID),
		DwParamLo: uint16(player.Position.X),
		DwParamHi: uint16(player.Position.Y),
	}
	return sess.Send(constants.OpAction, echo.Marshal())
}

func (h *Handlers) handleJump(sess *session.Session, player *model.PlayerIdentity, action protocol.Action, w *world.World) error {
	x := int16(action.DwParamLo)
	y := int16(action.DwParamHi)

	pos, err := w.MovePlayer(player.ID, x, y)
	if err != nil {
		slog.Info("jump rejected", "session", sess.ID, "player", player.ID, "err", err)
		return nil
	}

	echo := protocol.Action{
		UID:       player.ID,
		Type:      protocol.ActionJump,
		DwParamLo: uint16(pos.X),
		DwParamHi: uint16(pos.Y),
	}
	return sess.Send(constants.OpAction, echo.Marshal())
}
