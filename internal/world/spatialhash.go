package world

import (
	"sync"

	"github.com/la2go/mmocore/internal/model"
)

// SpatialHashCellEdge is the uniform grid bucket size, in map tiles.
const SpatialHashCellEdge = 32

type bucketKey struct {
	bx, by int32
}

func bucketFor(pos model.Position) bucketKey {
	return bucketKey{
		bx: int32(pos.X) / SpatialHashCellEdge,
		by: int32(pos.Y) / SpatialHashCellEdge,
	}
}

// SpatialHash is a uniform grid mapping bucket to the set of
// MapObject references currently positioned inside it. Buckets are
// sync.Map-guarded independently, mirroring the per-region visible-set
// concurrency of the map's entity index: readers never block writers
// in other buckets.
type SpatialHash struct {
	mu      sync.RWMutex
	buckets map[bucketKey]*sync.Map // bucketKey -> (uint32 id -> *MapObject)
}

// NewSpatialHash constructs an empty grid.
func NewSpatialHash() *SpatialHash {
	return &SpatialHash{buckets: make(map[bucketKey]*sync.Map)}
}

func (h *SpatialHash) bucket(key bucketKey, create bool) *sync.Map {
	h.mu.RLock()
	b, ok := h.buckets[key]
	h.mu.RUnlock()
	if ok || !create {
		return b
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok = h.buckets[key]; ok {
		return b
	}
	b = &sync.Map{}
	h.buckets[key] = b
	return b
}

// Add inserts obj into the bucket for its current position.
func (h *SpatialHash) Add(obj *MapObject) {
	h.bucket(bucketFor(obj.Position), true).Store(obj.ID, obj)
}

// Remove deletes the entity with id from the bucket at pos.
func (h *SpatialHash) Remove(id uint32, pos model.Position) {
	b := h.bucket(bucketFor(pos), false)
	if b == nil {
		return
	}
	b.Delete(id)
}

// Move relocates an entity from oldPos's bucket to newPos's bucket.
// If the bucket is unchanged, this is a no-op beyond the caller's own
// position update.
func (h *SpatialHash) Move(obj *MapObject, oldPos model.Position) {
	oldKey := bucketFor(oldPos)
	newKey := bucketFor(obj.Position)
	if oldKey == newKey {
		return
	}
	h.Remove(obj.ID, oldPos)
	h.Add(obj)
}

// QueryRadius returns every object within Chebyshev distance r of
// center, optionally restricted to a single ObjectType.
func (h *SpatialHash) QueryRadius(center model.Position, r int32, typeFilter *ObjectType) []*MapObject {
	var out []*MapObject

	span := (r / SpatialHashCellEdge) + 1
	cb := bucketFor(center)

	h.mu.RLock()
	keys := make([]bucketKey, 0, (2*span+1)*(2*span+1))
	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			keys = append(keys, bucketKey{bx: cb.bx + dx, by: cb.by + dy})
		}
	}
	buckets := make([]*sync.Map, 0, len(keys))
	for _, k := range keys {
		if b, ok := h.buckets[k]; ok {
			buckets = append(buckets, b)
		}
	}
	h.mu.RUnlock()

	for _, b := range buckets {
		b.Range(func(_, v any) bool {
			obj := v.(*MapObject)
			if typeFilter != nil && obj.ObjectType != *typeFilter {
				return true
			}
			if center.ChebyshevDistance(obj.Position) <= r {
				out = append(out, obj)
			}
			return true
		})
	}

	return out
}

// FindNearest returns the closest object to center (by Chebyshev
// distance) within r, or nil if none match.
func (h *SpatialHash) FindNearest(center model.Position, r int32, typeFilter *ObjectType) *MapObject {
	matches := h.QueryRadius(center, r, typeFilter)

	var best *MapObject
	var bestDist int32
	for _, m := range matches {
		d := center.ChebyshevDistance(m.Position)
		if best == nil || d < bestDist {
			best, bestDist = m, d
		}
	}
	return best
}

// CountInRadius is QueryRadius's cardinality without materializing
// the slice.
func (h *SpatialHash) CountInRadius(center model.Position, r int32, typeFilter *ObjectType) int {
	return len(h.QueryRadius(center, r, typeFilter))
}
