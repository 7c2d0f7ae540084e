// Package world holds the authoritative per-map entity state: the
// map registry, the spatial-hash index, and the fixed-rate tick loop.
package world

import (
	"fmt"
	"sync"

	"github.com/la2go/mmocore/internal/model"
	"github.com/la2go/mmocore/internal/protoerr"
)

// World is the process-wide authoritative aggregate. The map registry
// is immutable after Load; entities and each map's spatial index are
// mutated only under that map's lease.
type World struct {
	maps     map[uint16]*Map
	mapOrder []*Map // insertion order, for the tick loop

	mu          sync.RWMutex
	playerMapID map[uint32]uint16
}

// New constructs a World from a pre-loaded set of maps, keyed by id.
// The map registry is never mutated after construction.
func New(maps []*Map) *World {
	reg := make(map[uint16]*Map, len(maps))
	order := make([]*Map, len(maps))
	copy(order, maps)
	for _, m := range maps {
		reg[m.ID] = m
	}
	return &World{
		maps:        reg,
		mapOrder:    order,
		playerMapID: make(map[uint32]uint16),
	}
}

func (w *World) mapByID(id uint16) (*Map, error) {
	m, ok := w.maps[id]
	if !ok {
		return nil, errMapUnknown(id)
	}
	return m, nil
}

// Spawn resolves mapID, picks a valid spawn cell via the map's spawn
// policy, and attaches player to the map's entity collection and
// spatial index. On success it sets player.MapID and player.Position.
func (w *World) Spawn(player *model.PlayerIdentity, mapID uint16) error {
	m, err := w.mapByID(mapID)
	if err != nil {
		return err
	}

	x, y, ok := m.spawnCell()
	if !ok {
		return fmt.Errorf("%w: map %d has no open spawn cell", protoerr.ErrNotFound, mapID)
	}

	pos := model.Position{X: int16(x), Y: int16(y)}
	player.MapID = mapID
	player.Position = pos

	obj := &MapObject{
		ID:         player.ID,
		ObjectType: ObjectPlayer,
		Position:   pos,
		MapRef:     mapID,
		Active:     true,
		Player:     player,
	}

	m.mu.Lock()
	m.attach(obj)
	m.mu.Unlock()

	w.mu.Lock()
	w.playerMapID[player.ID] = mapID
	w.mu.Unlock()

	return nil
}

// MovePlayer fails if the player is not in the world, or the
// destination is not walkable. On success it updates the player's
// position and the spatial index atomically with respect to
// concurrent range queries.
func (w *World) MovePlayer(playerID uint32, newX, newY int16) (model.Position, error) {
	w.mu.RLock()
	mapID, ok := w.playerMapID[playerID]
	w.mu.RUnlock()
	if !ok {
		return model.Position{}, fmt.Errorf("%w: player %d not in world", protoerr.ErrNotFound, playerID)
	}

	m, err := w.mapByID(mapID)
	if err != nil {
		return model.Position{}, err
	}

	if !m.Walkable(int(newX), int(newY)) {
		return model.Position{}, fmt.Errorf("%w: (%d, %d) on map %d is not walkable", protoerr.ErrValidation, newX, newY, mapID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.entities[playerID]
	if !ok {
		return model.Position{}, fmt.Errorf("%w: player %d not attached to map %d", protoerr.ErrNotFound, playerID, mapID)
	}

	oldPos := obj.Position
	newPos := oldPos.WithCoordinates(newX, newY)
	obj.Position = newPos
	m.spatial.Move(obj, oldPos)

	if obj.Player != nil {
		obj.Player.Position = newPos
	}

	return newPos, nil
}

// EntitiesInRange performs a Chebyshev-radius query over the
// player's map, returning a snapshot of matching MapObjects.
func (w *World) EntitiesInRange(playerID uint32, radius int32) ([]*MapObject, error) {
	w.mu.RLock()
	mapID, ok := w.playerMapID[playerID]
	w.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: player %d not in world", protoerr.ErrNotFound, playerID)
	}

	m, err := w.mapByID(mapID)
	if err != nil {
		return nil, err
	}

	// Holding the map's read lease for the whole query keeps it from
	// interleaving with MovePlayer, which holds the exclusive lease.
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.entities[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: player %d not attached to map %d", protoerr.ErrNotFound, playerID, mapID)
	}

	return m.spatial.QueryRadius(obj.Position, radius, nil), nil
}

// Maps returns the immutable map registry in insertion order, for the
// tick loop to iterate.
func (w *World) Maps() []*Map {
	out := make([]*Map, len(w.mapOrder))
	copy(out, w.mapOrder)
	return out
}
