package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/adventure/internal/game/session"
)

// ErrProgressNotFound is returned when a character has no saved story.
var ErrProgressNotFound = errors.New("adventure progress not found")

// AdventureRepository persists the story progress of a character.
type AdventureRepository struct {
	db DBTX
}

// NewAdventureRepository creates an AdventureRepository over a pool or transaction.
func NewAdventureRepository(db DBTX) *AdventureRepository {
	return &AdventureRepository{db: db}
}

// SaveProgress upserts the story progress for characterID.
//
// Precondition: characterID must reference an existing character.
func (r *AdventureRepository) SaveProgress(ctx context.Context, characterID int64, p session.Progress) error {
	history := p.History
	if history == nil {
		history = []session.Message{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO adventures (character_id, turn, last_combat_turn, memory, history)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (character_id) DO UPDATE SET
			turn = EXCLUDED.turn,
			last_combat_turn = EXCLUDED.last_combat_turn,
			memory = EXCLUDED.memory,
			history = EXCLUDED.history,
			updated_at = NOW()`,
		characterID, p.Turn, p.LastCombatTurn, p.Memory, history,
	)
	if err != nil {
		return fmt.Errorf("saving adventure progress: %w", err)
	}
	return nil
}

// LoadProgress returns the saved story progress for characterID.
//
// Postcondition: Returns ErrProgressNotFound when nothing was saved.
func (r *AdventureRepository) LoadProgress(ctx context.Context, characterID int64) (session.Progress, error) {
	var p session.Progress
	err := r.db.QueryRow(ctx, `
		SELECT turn, last_combat_turn, memory, history
		FROM adventures WHERE character_id = $1`,
		characterID,
	).Scan(&p.Turn, &p.LastCombatTurn, &p.Memory, &p.History)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Progress{}, ErrProgressNotFound
		}
		return session.Progress{}, fmt.Errorf("loading adventure progress: %w", err)
	}
	return p, nil
}
