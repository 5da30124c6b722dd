package npc

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/dice"
)

// Spawn policy constants.
const (
	// MaxSingleSpawnLevel caps the level of any spawned template.
	MaxSingleSpawnLevel = 10
	// MinGroupSize and MaxGroupSize bound a multi-enemy group.
	MinGroupSize = 2
	MaxGroupSize = 3
)

// ErrNoTemplates is returned when no template is eligible for spawning.
var ErrNoTemplates = errors.New("npc: no eligible enemy templates")

// Spawner produces encounter rosters from a fixed template catalog.
// All methods are safe for concurrent use; templates are never mutated.
type Spawner struct {
	templates []*Template
	src       dice.Source
	logger    *zap.Logger
	counter   atomic.Uint64
}

// NewSpawner creates a Spawner over templates drawing randomness from src.
//
// Precondition: templates must be non-empty; src and logger must be non-nil.
func NewSpawner(templates []*Template, src dice.Source, logger *zap.Logger) (*Spawner, error) {
	if len(templates) == 0 {
		return nil, ErrNoTemplates
	}
	return &Spawner{templates: templates, src: src, logger: logger}, nil
}

// Templates returns the spawner's template catalog.
func (s *Spawner) Templates() []*Template {
	return append([]*Template(nil), s.templates...)
}

// SpawnEncounter produces the enemy roster for a player of playerLevel.
//
// With probability 0.5, and only when playerLevel >= 2, a group of
// 2..min(3, playerLevel) enemies is drawn from level-1 templates (falling back
// to templates at or below the level cap). Otherwise exactly one enemy is drawn
// from templates with level <= min(playerLevel, 10), falling back to level-1
// templates.
//
// Precondition: playerLevel >= 1.
// Postcondition: every returned enemy is a fresh deep copy with CurrentHP == MaxHP,
// and no enemy's level exceeds min(playerLevel, 10) unless only level-1 templates
// were available as the fallback.
func (s *Spawner) SpawnEncounter(playerLevel int) ([]*Instance, error) {
	if playerLevel < 1 {
		playerLevel = 1
	}
	levelCap := min(playerLevel, MaxSingleSpawnLevel)

	if playerLevel >= 2 && s.src.Intn(2) == 0 {
		pool := s.filter(func(t *Template) bool { return t.Level == 1 })
		if len(pool) == 0 {
			pool = s.filter(func(t *Template) bool { return t.Level <= levelCap })
		}
		if len(pool) > 0 {
			upper := min(MaxGroupSize, playerLevel)
			count := MinGroupSize + s.src.Intn(upper-MinGroupSize+1)
			out := make([]*Instance, 0, count)
			for i := 0; i < count; i++ {
				out = append(out, s.spawn(pool[s.src.Intn(len(pool))]))
			}
			s.logger.Debug("spawned enemy group",
				zap.Int("player_level", playerLevel),
				zap.Int("count", count),
			)
			return out, nil
		}
	}

	pool := s.filter(func(t *Template) bool { return t.Level <= levelCap })
	if len(pool) == 0 {
		pool = s.filter(func(t *Template) bool { return t.Level == 1 })
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("spawning for level %d: %w", playerLevel, ErrNoTemplates)
	}
	inst := s.spawn(pool[s.src.Intn(len(pool))])
	s.logger.Debug("spawned single enemy",
		zap.Int("player_level", playerLevel),
		zap.String("enemy", inst.Name),
		zap.Int("max_hp", inst.MaxHP),
	)
	return []*Instance{inst}, nil
}

func (s *Spawner) spawn(tmpl *Template) *Instance {
	n := s.counter.Add(1)
	id := fmt.Sprintf("%s-%d", slug(tmpl.Name), n)
	return NewInstance(id, tmpl, s.src)
}

func (s *Spawner) filter(keep func(*Template) bool) []*Template {
	var out []*Template
	for _, t := range s.templates {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
