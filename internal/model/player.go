package model

import "time"

// PlayerIdentity is owned jointly by the World (as a map entity) and
// the Session (as the logged-in identity). Mutation is single-writer:
// only the Dispatcher thread executing the owning session's current
// handler may mutate it.
type PlayerIdentity struct {
	ID   uint32
	Name string // unicode, at most 15 runes

	Level      int32
	Experience int64

	MapID    uint16
	Position Position

	Resources Resources
	Stats     Stats

	CreatedAt  time.Time
	LastSeenAt time.Time
}

// Resources mirrors the currency/consumable totals tracked per
// player.
type Resources struct {
	Adena int64
	SP    int64
}

// Stats mirrors the scalar combat attributes mirrored by HeroInfo.
type Stats struct {
	HP, MaxHP int32
	MP, MaxMP int32
	CP, MaxCP int32
}
