package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/session"
	"github.com/cory-johannsen/adventure/internal/storage/postgres"
	"github.com/cory-johannsen/adventure/internal/testutil"
)

func makeTestCharacter(name string) *character.Character {
	return &character.Character{
		Name:             name,
		Race:             "Elf",
		Class:            "Mage",
		Description:      "A curious scholar.",
		Birthplace:       "Silverwood",
		EthicalAlignment: "lawful",
		MoralAlignment:   "good",
		Level:            3,
		Experience:       120,
		Gold:             42,
		CurrentHP:        18,
		MaxHP:            30,
		Mana:             &character.ManaPool{Current: 7, Max: 20},
		Stats:            character.AbilityScores{STR: 8, CON: 10, DEX: 12, INT: 15, WIS: 5, CHA: 5},
		EquippedWeapon:   "Wand of Sparks",
		Inventory:        []string{"Wand of Sparks", "Healing Potion", "Healing Potion"},
		Skills:           []string{"Firebolt", "Bless"},
		Charges:          map[string]int{"Wand of Sparks": 1},
		Location:         "Old Library",
		Quest:            "Recover the lost tome",
	}
}

func TestCharacterRepository_CreateThenGetIsIdentical(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	in := makeTestCharacter(testutil.Name("Zara"))
	in.Target = 2
	created, err := repo.Create(ctx, in)
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(0))
	assert.False(t, created.CreatedAt.IsZero())
	assert.Zero(t, created.Target, "combat targeting is never persisted")

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)

	want := makeTestCharacter(in.Name)
	want.ID, want.CreatedAt, want.UpdatedAt = created.ID, created.CreatedAt, created.UpdatedAt
	assert.Equal(t, want, fetched)
}

func TestCharacterRepository_NoManaNoCharges(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	in := makeTestCharacter(testutil.Name("Brute"))
	in.Mana = nil
	in.Charges = nil
	created, err := repo.Create(ctx, in)
	require.NoError(t, err)

	fetched, err := repo.GetByName(ctx, in.Name)
	require.NoError(t, err)
	assert.Nil(t, fetched.Mana)
	assert.Nil(t, fetched.Charges)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestCharacterRepository_DuplicateNameError(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	c := makeTestCharacter(testutil.Name("Twin"))
	_, err := repo.Create(ctx, c)
	require.NoError(t, err)
	_, err = repo.Create(ctx, c)
	assert.ErrorIs(t, err, postgres.ErrCharacterNameTaken)
}

func TestCharacterRepository_CreateRejectsInvalid(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	c := makeTestCharacter(testutil.Name("Broken"))
	c.CurrentHP = c.MaxHP + 1
	_, err := repo.Create(context.Background(), c)
	assert.Error(t, err)
}

func TestCharacterRepository_NotFound(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 99999999)
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
	_, err = repo.GetByName(ctx, "nobody")
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)

	c := makeTestCharacter("ghost")
	c.ID = 99999999
	assert.ErrorIs(t, repo.Save(ctx, c), postgres.ErrCharacterNotFound)
}

func TestCharacterRepository_Save(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestCharacter(testutil.Name("Zara")))
	require.NoError(t, err)

	created.GainExperience(500)
	created.ApplyDamage(5)
	created.AddItem("Fang")
	created.SetRemainingUses("Wand of Sparks", 0)
	created.Location = "Dark Forest"
	require.NoError(t, repo.Save(ctx, created))

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Level, fetched.Level)
	assert.Equal(t, created.Experience, fetched.Experience)
	assert.Equal(t, created.CurrentHP, fetched.CurrentHP)
	assert.Equal(t, created.MaxHP, fetched.MaxHP)
	assert.Equal(t, created.Inventory, fetched.Inventory)
	assert.Equal(t, created.Charges, fetched.Charges)
	assert.Equal(t, "Dark Forest", fetched.Location)
	assert.True(t, fetched.UpdatedAt.After(created.UpdatedAt) || fetched.UpdatedAt.Equal(created.UpdatedAt))
}

// TestCharacterRepository_Property_SaveRoundTrip verifies that any valid
// character state survives Save followed by GetByID.
func TestCharacterRepository_Property_SaveRoundTrip(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		created, err := repo.Create(ctx, makeTestCharacter(testutil.Name("Prop")))
		require.NoError(rt, err)

		maxHP := rapid.IntRange(1, 500).Draw(rt, "max_hp")
		created.MaxHP = maxHP
		created.CurrentHP = rapid.IntRange(0, maxHP).Draw(rt, "hp")
		created.Gold = rapid.IntRange(0, 10000).Draw(rt, "gold")
		created.Inventory = rapid.SliceOfN(rapid.StringMatching(`[A-Z][a-z]{2,8}`), 0, 6).Draw(rt, "inventory")
		n := rapid.IntRange(0, 3).Draw(rt, "charges")
		created.Charges = nil
		for i := range n {
			created.SetRemainingUses(fmt.Sprintf("Wand %d", i), rapid.IntRange(0, 5).Draw(rt, "uses"))
		}
		require.NoError(rt, repo.Save(ctx, created))

		fetched, err := repo.GetByID(ctx, created.ID)
		require.NoError(rt, err)
		assert.Equal(rt, created.MaxHP, fetched.MaxHP)
		assert.Equal(rt, created.CurrentHP, fetched.CurrentHP)
		assert.Equal(rt, created.Gold, fetched.Gold)
		assert.ElementsMatch(rt, created.Inventory, fetched.Inventory)
		assert.Equal(rt, created.Charges, fetched.Charges)
	})
}

func TestAdventureRepository_Progress(t *testing.T) {
	pool := testutil.NewPool(t)
	chars := postgres.NewCharacterRepository(pool)
	adventures := postgres.NewAdventureRepository(pool)
	ctx := context.Background()

	c, err := chars.Create(ctx, makeTestCharacter(testutil.Name("Saga")))
	require.NoError(t, err)

	_, err = adventures.LoadProgress(ctx, c.ID)
	assert.ErrorIs(t, err, postgres.ErrProgressNotFound)

	p := session.Progress{
		Turn:           12,
		LastCombatTurn: 9,
		Memory:         "Aria defeated a goblin.",
		History:        []session.Message{{Role: "user", Content: "I rest"}, {Role: "assistant", Content: "You sleep."}},
	}
	require.NoError(t, adventures.SaveProgress(ctx, c.ID, p))
	got, err := adventures.LoadProgress(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	p.Turn = 13
	p.History = nil
	require.NoError(t, adventures.SaveProgress(ctx, c.ID, p))
	got, err = adventures.LoadProgress(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 13, got.Turn)
	assert.Empty(t, got.History)
}

func TestStore_SaveAndResume(t *testing.T) {
	store := postgres.NewStore(testutil.NewPool(t))
	ctx := context.Background()

	c, err := store.Characters.Create(ctx, makeTestCharacter(testutil.Name("Wanderer")))
	require.NoError(t, err)

	got, progress, err := store.Resume(ctx, c.Name)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Nil(t, progress, "no story saved yet")

	c.Location = "Misty Pass"
	p := session.Progress{Turn: 4, LastCombatTurn: 2, Memory: "Crossed the river."}
	require.NoError(t, store.Save(ctx, c, p))

	got, progress, err = store.Resume(ctx, c.Name)
	require.NoError(t, err)
	assert.Equal(t, "Misty Pass", got.Location)
	require.NotNil(t, progress)
	assert.Equal(t, 4, progress.Turn)
	assert.Equal(t, "Crossed the river.", progress.Memory)
}

func TestStore_SaveRollsBackOnMissingCharacter(t *testing.T) {
	store := postgres.NewStore(testutil.NewPool(t))
	ctx := context.Background()

	ghost := makeTestCharacter(testutil.Name("Ghost"))
	ghost.ID = 99999998
	err := store.Save(ctx, ghost, session.Progress{Turn: 1})
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)

	_, err = store.Adventures.LoadProgress(ctx, ghost.ID)
	assert.ErrorIs(t, err, postgres.ErrProgressNotFound)

	_, _, err = store.Resume(ctx, ghost.Name)
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
}
