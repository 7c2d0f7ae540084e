package world

import (
	"fmt"
	"sync"

	"github.com/la2go/mmocore/internal/model"
	"github.com/la2go/mmocore/internal/protoerr"
)

// TickCallback is registered by external collaborators (monster AI,
// item decay) to advance time-dependent entity state during a tick.
// The core guarantees monotonic dt accumulation and single-writer
// access while a callback runs; it does not interpret what the
// callback does.
type TickCallback func(m *Map, dt float64)

// Map is immutable after load except for its entity set and spatial
// index.
type Map struct {
	ID     uint16
	Width  int
	Height int
	cells  []Cell // row-major, width*height

	mu       sync.RWMutex
	entities map[uint32]*MapObject
	spatial  *SpatialHash

	tickCallbacks []TickCallback
}

// NewMap constructs a Map from pre-populated, immutable cells.
func NewMap(id uint16, width, height int, cells []Cell) *Map {
	return &Map{
		ID:       id,
		Width:    width,
		Height:   height,
		cells:    cells,
		entities: make(map[uint32]*MapObject),
		spatial:  NewSpatialHash(),
	}
}

// RegisterTickCallback adds a callback invoked on every tick of this
// map's update loop.
func (m *Map) RegisterTickCallback(cb TickCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickCallbacks = append(m.tickCallbacks, cb)
}

// CellAt returns the immutable cell at (x, y), or false if out of
// bounds.
func (m *Map) CellAt(x, y int) (Cell, bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return Cell{}, false
	}
	return m.cells[y*m.Width+x], true
}

// Walkable reports whether (x, y) is within bounds and its cell
// permits entry.
func (m *Map) Walkable(x, y int) bool {
	c, ok := m.CellAt(x, y)
	return ok && c.Walkable()
}

// spawnCell performs a bounded search for the first walkable cell
// (Open set, neither Blocked nor BlockedObj set) starting from the
// map's canonical origin (0, 0), scanning row-major.
func (m *Map) spawnCell() (x, y int, found bool) {
	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			if m.Walkable(col, row) {
				return col, row, true
			}
		}
	}
	return 0, 0, false
}

// attach inserts obj into this map's entity table and spatial index.
// Callers must hold m.mu.
func (m *Map) attach(obj *MapObject) {
	m.entities[obj.ID] = obj
	m.spatial.Add(obj)
}

// detach removes obj from this map's entity table and spatial index.
// Callers must hold m.mu.
func (m *Map) detach(id uint32, pos model.Position) {
	delete(m.entities, id)
	m.spatial.Remove(id, pos)
}

// Update advances every registered tick callback by dt, holding the
// map's exclusive lease for the duration.
func (m *Map) Update(dt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cb := range m.tickCallbacks {
		cb(m, dt)
	}
}

func (m *Map) entity(id uint32) (*MapObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.entities[id]
	return obj, ok
}

// errMapUnknown is returned by World operations referencing a map id
// absent from the registry.
func errMapUnknown(id uint16) error {
	return fmt.Errorf("%w: map %d", protoerr.ErrNotFound, id)
}
