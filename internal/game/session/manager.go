package session

import (
	"fmt"
	"strings"
	"sync"
)

// Manager tracks all active game sessions keyed by player UID.
// All methods are safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	players map[string]*GameSession
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{players: make(map[string]*GameSession)}
}

// Add registers g under its UID.
//
// Precondition: g must be non-nil with a non-empty UID.
// Postcondition: returns ErrPlayerRegistered if the UID is already tracked.
func (m *Manager) Add(g *GameSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.players[g.UID()]; exists {
		return fmt.Errorf("%w: %q", ErrPlayerRegistered, g.UID())
	}
	m.players[g.UID()] = g
	return nil
}

// Remove drops the session for uid, abandoning any active encounter.
//
// Postcondition: returns ErrPlayerNotFound if uid is not tracked.
func (m *Manager) Remove(uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, exists := m.players[uid]
	if !exists {
		return fmt.Errorf("%w: %q", ErrPlayerNotFound, uid)
	}
	if g.InCombat() {
		_ = g.EndEncounter()
	}
	delete(m.players, uid)
	return nil
}

// Get returns the session for uid.
//
// Postcondition: returns ErrPlayerNotFound if uid is not tracked.
func (m *Manager) Get(uid string) (*GameSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.players[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPlayerNotFound, uid)
	}
	return g, nil
}

// PlayersAt returns the character names of all players at location, compared case-insensitively.
func (m *Manager) PlayersAt(location string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for _, g := range m.players {
		if strings.EqualFold(g.Player().Location, location) {
			names = append(names, g.Player().Name)
		}
	}
	return names
}

// Count returns the number of tracked sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}
