package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/adventure/internal/game/character"
)

// ErrCharacterNotFound is returned when a character lookup yields no results.
var ErrCharacterNotFound = errors.New("character not found")

// ErrCharacterNameTaken is returned when creating a character whose name is already in use.
var ErrCharacterNameTaken = errors.New("character name already taken")

// CharacterRepository provides character persistence operations.
type CharacterRepository struct {
	db DBTX
}

// NewCharacterRepository creates a CharacterRepository over a pool or transaction.
//
// Precondition: db must be an open pool or a live transaction.
func NewCharacterRepository(db DBTX) *CharacterRepository {
	return &CharacterRepository{db: db}
}

const characterColumns = `id, name, race, class, description, birthplace,
	alignment_righteousness, alignment_morality, level, xp, gold,
	current_hp, max_hp, mana_current, mana_max,
	stat_str, stat_con, stat_dex, stat_int, stat_wis, stat_cha,
	equipped_weapon, inventory, skills, charges, location, quest,
	created_at, updated_at`

// Create inserts a new character and returns it with ID and timestamps set.
//
// Precondition: c must pass c.Validate().
// Postcondition: Returns the created character with ID set, or ErrCharacterNameTaken on duplicate.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) (*character.Character, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validating character: %w", err)
	}
	manaCur, manaMax := manaColumns(c)
	row := r.db.QueryRow(ctx, `
		INSERT INTO characters
			(name, race, class, description, birthplace,
			 alignment_righteousness, alignment_morality, level, xp, gold,
			 current_hp, max_hp, mana_current, mana_max,
			 stat_str, stat_con, stat_dex, stat_int, stat_wis, stat_cha,
			 equipped_weapon, inventory, skills, charges, location, quest)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
		RETURNING `+characterColumns,
		c.Name, c.Race, c.Class, c.Description, c.Birthplace,
		c.EthicalAlignment, c.MoralAlignment, c.Level, c.Experience, c.Gold,
		c.CurrentHP, c.MaxHP, manaCur, manaMax,
		c.Stats.STR, c.Stats.CON, c.Stats.DEX, c.Stats.INT, c.Stats.WIS, c.Stats.CHA,
		c.EquippedWeapon, nonNil(c.Inventory), nonNil(c.Skills), charges(c), c.Location, c.Quest,
	)
	out, err := scanCharacter(row)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrCharacterNameTaken
		}
		return nil, fmt.Errorf("inserting character: %w", err)
	}
	return out, nil
}

// GetByID retrieves a character by its primary key.
//
// Precondition: id must be > 0.
// Postcondition: Returns the Character or ErrCharacterNotFound.
func (r *CharacterRepository) GetByID(ctx context.Context, id int64) (*character.Character, error) {
	row := r.db.QueryRow(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = $1`, id)
	c, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return c, nil
}

// GetByName retrieves a character by its unique name.
//
// Postcondition: Returns the Character or ErrCharacterNotFound.
func (r *CharacterRepository) GetByName(ctx context.Context, name string) (*character.Character, error) {
	row := r.db.QueryRow(ctx, `SELECT `+characterColumns+` FROM characters WHERE name = $1`, name)
	c, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character by name: %w", err)
	}
	return c, nil
}

// Save overwrites every persisted field of an existing character. Combat
// targeting is transient and never written.
//
// Precondition: c.ID must be > 0 and c must pass c.Validate().
// Postcondition: Returns nil on success, ErrCharacterNotFound if no row updated.
func (r *CharacterRepository) Save(ctx context.Context, c *character.Character) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validating character: %w", err)
	}
	manaCur, manaMax := manaColumns(c)
	tag, err := r.db.Exec(ctx, `
		UPDATE characters SET
			name = $2, race = $3, class = $4, description = $5, birthplace = $6,
			alignment_righteousness = $7, alignment_morality = $8,
			level = $9, xp = $10, gold = $11, current_hp = $12, max_hp = $13,
			mana_current = $14, mana_max = $15,
			stat_str = $16, stat_con = $17, stat_dex = $18,
			stat_int = $19, stat_wis = $20, stat_cha = $21,
			equipped_weapon = $22, inventory = $23, skills = $24, charges = $25,
			location = $26, quest = $27, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.Name, c.Race, c.Class, c.Description, c.Birthplace,
		c.EthicalAlignment, c.MoralAlignment,
		c.Level, c.Experience, c.Gold, c.CurrentHP, c.MaxHP,
		manaCur, manaMax,
		c.Stats.STR, c.Stats.CON, c.Stats.DEX, c.Stats.INT, c.Stats.WIS, c.Stats.CHA,
		c.EquippedWeapon, nonNil(c.Inventory), nonNil(c.Skills), charges(c),
		c.Location, c.Quest,
	)
	if err != nil {
		return fmt.Errorf("saving character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

func scanCharacter(row pgx.Row) (*character.Character, error) {
	var (
		c                character.Character
		manaCur, manaMax *int
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Race, &c.Class, &c.Description, &c.Birthplace,
		&c.EthicalAlignment, &c.MoralAlignment, &c.Level, &c.Experience, &c.Gold,
		&c.CurrentHP, &c.MaxHP, &manaCur, &manaMax,
		&c.Stats.STR, &c.Stats.CON, &c.Stats.DEX, &c.Stats.INT, &c.Stats.WIS, &c.Stats.CHA,
		&c.EquippedWeapon, &c.Inventory, &c.Skills, &c.Charges, &c.Location, &c.Quest,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if manaCur != nil && manaMax != nil {
		c.Mana = &character.ManaPool{Current: *manaCur, Max: *manaMax}
	}
	if len(c.Charges) == 0 {
		c.Charges = nil
	}
	return &c, nil
}

func manaColumns(c *character.Character) (cur, maxMana *int) {
	if c.Mana == nil {
		return nil, nil
	}
	return &c.Mana.Current, &c.Mana.Max
}

// charges maps a nil charge table to an empty JSON object.
func charges(c *character.Character) map[string]int {
	if c.Charges == nil {
		return map[string]int{}
	}
	return c.Charges
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// SQLSTATE 23505 is unique_violation.
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
