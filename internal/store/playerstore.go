// Package store defines the PlayerStore consumed interface of §6.4
// and a minimal in-memory implementation for the composition root and
// tests. The core never names a concrete backend; persistent storage
// is an external collaborator (§1).
package store

import (
	"strings"
	"sync"

	"github.com/la2go/mmocore/internal/model"
)

// PlayerStore is the persistence collaborator the core consumes. The
// core never implements a concrete backend against it; it only calls
// these four operations.
type PlayerStore interface {
	Load(id uint32) (*model.PlayerIdentity, bool)
	Upsert(p *model.PlayerIdentity) bool
	Exists(id uint32) bool
	IsNameAvailable(name string) bool
}

// InMemory is a PlayerStore backed by a guarded map. It is not a
// production persistence layer: it exists so the composition root can
// run LoginAuth end to end without a database, and so tests can
// exercise the Load/Upsert contract without standing one up.
type InMemory struct {
	mu      sync.RWMutex
	players map[uint32]*model.PlayerIdentity
	names   map[string]struct{}
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		players: make(map[uint32]*model.PlayerIdentity),
		names:   make(map[string]struct{}),
	}
}

// Load returns a copy of the stored identity for id, if present.
func (s *InMemory) Load(id uint32) (*model.PlayerIdentity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// Upsert stores a copy of p keyed by p.ID, returning true.
func (s *InMemory) Upsert(p *model.PlayerIdentity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.players[p.ID] = &cp
	s.names[strings.ToLower(p.Name)] = struct{}{}
	return true
}

// Exists reports whether id has a stored identity.
func (s *InMemory) Exists(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.players[id]
	return ok
}

// IsNameAvailable reports whether name (case-insensitive) is unclaimed.
func (s *InMemory) IsNameAvailable(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, taken := s.names[strings.ToLower(name)]
	return !taken
}
