package combat

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/npc"
)

// Engine manages all active combat sessions, keyed by session ID.
// All methods are safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *zap.Logger
}

// NewEngine creates an empty combat Engine.
//
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{sessions: make(map[string]*Session), logger: logger}
}

// Start begins a new session for player against enemies.
//
// Precondition: enemies must be fresh instances not referenced by any other session.
// Postcondition: Returns the registered Session or the NewSession error.
func (e *Engine) Start(player *character.Character, enemies []*npc.Instance, deps Deps) (*Session, error) {
	if deps.Logger == nil {
		deps.Logger = e.logger
	}
	s, err := NewSession(uuid.NewString(), player, enemies, deps)
	if err != nil {
		return nil, fmt.Errorf("starting combat: %w", err)
	}
	e.mu.Lock()
	e.sessions[s.ID()] = s
	e.mu.Unlock()

	names := make([]string, 0, len(s.roster))
	for _, en := range s.roster {
		names = append(names, en.Name)
	}
	e.logger.Info("combat started",
		zap.String("session", s.ID()),
		zap.String("player", player.Name),
		zap.Strings("enemies", names),
	)
	return s, nil
}

// Get returns the session with the given id.
//
// Postcondition: Returns (s, true) if found, or (nil, false) otherwise.
func (e *Engine) Get(id string) (*Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[id]
	return s, ok
}

// End removes the session, whether finished or abandoned.
//
// Postcondition: Returns an error if no session with id exists.
func (e *Engine) End(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	if !ok {
		return fmt.Errorf("combat session %q not found", id)
	}
	delete(e.sessions, id)
	e.logger.Info("combat ended", zap.String("session", id), zap.String("state", s.State().String()))
	return nil
}

// Active returns the number of registered sessions.
func (e *Engine) Active() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}
