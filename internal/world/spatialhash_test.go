package world

import (
	"testing"

	"github.com/la2go/mmocore/internal/model"
)

func TestSpatialHashInsertRemoveIdempotent(t *testing.T) {
	h := NewSpatialHash()
	pos := model.Position{X: 100, Y: 200}
	obj := &MapObject{ID: 1, ObjectType: ObjectMonster, Position: pos}

	before := h.CountInRadius(pos, 50, nil)

	h.Add(obj)
	h.Remove(obj.ID, pos)

	after := h.CountInRadius(pos, 50, nil)
	if before != after {
		t.Fatalf("insert+remove changed count: before=%d after=%d", before, after)
	}
}

func TestSpatialHashChebyshevRange(t *testing.T) {
	h := NewSpatialHash()
	center := model.Position{X: 0, Y: 0}

	inRange := &MapObject{ID: 1, ObjectType: ObjectMonster, Position: model.Position{X: 5, Y: 5}}
	outOfRange := &MapObject{ID: 2, ObjectType: ObjectMonster, Position: model.Position{X: 50, Y: 0}}
	edge := &MapObject{ID: 3, ObjectType: ObjectMonster, Position: model.Position{X: 10, Y: -10}}

	h.Add(inRange)
	h.Add(outOfRange)
	h.Add(edge)

	got := h.QueryRadius(center, 10, nil)

	gotIDs := map[uint32]bool{}
	for _, o := range got {
		gotIDs[o.ID] = true
	}

	if !gotIDs[inRange.ID] {
		t.Fatalf("expected in-range object to be returned")
	}
	if !gotIDs[edge.ID] {
		t.Fatalf("expected object exactly at the radius boundary to be returned")
	}
	if gotIDs[outOfRange.ID] {
		t.Fatalf("expected out-of-range object to be excluded")
	}
}

func TestSpatialHashTypeFilter(t *testing.T) {
	h := NewSpatialHash()
	center := model.Position{X: 0, Y: 0}

	player := &MapObject{ID: 1, ObjectType: ObjectPlayer, Position: model.Position{X: 1, Y: 1}}
	monster := &MapObject{ID: 2, ObjectType: ObjectMonster, Position: model.Position{X: 1, Y: 1}}
	h.Add(player)
	h.Add(monster)

	playerType := ObjectPlayer
	got := h.QueryRadius(center, 5, &playerType)

	if len(got) != 1 || got[0].ID != player.ID {
		t.Fatalf("type filter did not restrict to players: %+v", got)
	}
}

func TestSpatialHashMove(t *testing.T) {
	h := NewSpatialHash()
	obj := &MapObject{ID: 1, ObjectType: ObjectMonster, Position: model.Position{X: 0, Y: 0}}
	h.Add(obj)

	oldPos := obj.Position
	obj.Position = model.Position{X: 1000, Y: 1000}
	h.Move(obj, oldPos)

	if h.CountInRadius(model.Position{X: 0, Y: 0}, 5, nil) != 0 {
		t.Fatalf("object still found near its old position after move")
	}
	if h.CountInRadius(model.Position{X: 1000, Y: 1000}, 5, nil) != 1 {
		t.Fatalf("object not found near its new position after move")
	}
}
