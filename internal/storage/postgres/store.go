package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/session"
)

// Store keeps a character and its story progress consistent with each other.
type Store struct {
	db         *pgxpool.Pool
	Characters *CharacterRepository
	Adventures *AdventureRepository
}

// NewStore creates a Store backed by db.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		db:         db,
		Characters: NewCharacterRepository(db),
		Adventures: NewAdventureRepository(db),
	}
}

// Save writes the character row and its progress in one transaction.
//
// Precondition: c.ID must reference an existing character.
// Postcondition: either both writes are committed or neither is.
func (s *Store) Save(ctx context.Context, c *character.Character, p session.Progress) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := NewCharacterRepository(tx).Save(ctx, c); err != nil {
			return err
		}
		return NewAdventureRepository(tx).SaveProgress(ctx, c.ID, p)
	})
}

// Resume loads the character called name and its saved story, if any.
//
// Postcondition: progress is nil when the character has never been saved
// with a story; err wraps ErrCharacterNotFound for an unknown name.
func (s *Store) Resume(ctx context.Context, name string) (*character.Character, *session.Progress, error) {
	c, err := s.Characters.GetByName(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("resuming %q: %w", name, err)
	}
	p, err := s.Adventures.LoadProgress(ctx, c.ID)
	if errors.Is(err, ErrProgressNotFound) {
		return c, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return c, &p, nil
}
