package world

import "github.com/la2go/mmocore/internal/model"

// ObjectType is the discriminant selecting type-specific behavior at
// dispatch sites. There is no base method table; shared attributes
// live directly on MapObject.
type ObjectType int

const (
	ObjectPlayer ObjectType = iota
	ObjectMonster
	ObjectSobNpc
	ObjectStaticRole
	ObjectItem
	ObjectNpc
	ObjectPokerTable
)

// MapObject is the tagged-variant base shared by every positioned
// entity.
type MapObject struct {
	ID         uint32
	ObjectType ObjectType
	Position   model.Position
	MapRef     uint16
	Active     bool

	// Player is populated when ObjectType == ObjectPlayer; it is the
	// same identity the owning Session holds.
	Player *model.PlayerIdentity
}
