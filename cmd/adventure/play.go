package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/config"
	"github.com/cory-johannsen/adventure/internal/content"
	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/combat"
	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/game/npc"
	"github.com/cory-johannsen/adventure/internal/game/session"
	"github.com/cory-johannsen/adventure/internal/intent"
	"github.com/cory-johannsen/adventure/internal/lifecycle"
	"github.com/cory-johannsen/adventure/internal/narration"
	"github.com/cory-johannsen/adventure/internal/play"
	"github.com/cory-johannsen/adventure/internal/scripting"
	"github.com/cory-johannsen/adventure/internal/storage/postgres"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start or resume an adventure in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runPlay,
}

func init() {
	f := playCmd.Flags()
	f.String("name", "", "resume the saved character with this name (requires --persist)")
	f.String("sheet", "", "YAML or JSON character sheet for a new character")
	f.String("description", "", "describe a new character instead of being prompted")
	f.Bool("persist", false, "save the character and story to PostgreSQL")
	f.Bool("migrate", false, "apply pending migrations before playing (with --persist)")
	f.String("migrations", "migrations", "directory holding the numbered SQL migrations")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	name, _ := cmd.Flags().GetString("name")
	sheetPath, _ := cmd.Flags().GetString("sheet")
	description, _ := cmd.Flags().GetString("description")
	persist, _ := cmd.Flags().GetBool("persist")
	migrateFirst, _ := cmd.Flags().GetBool("migrate")
	migrations, _ := cmd.Flags().GetString("migrations")

	cat, err := content.Load(cfg.Content)
	if err != nil {
		return err
	}
	for _, p := range cat.Problems() {
		logger.Warn("content problem", zap.String("detail", p))
	}

	src := dice.NewCryptoSource()
	if cfg.Game.DiceSeed != 0 {
		src = dice.NewSeededSource(cfg.Game.DiceSeed)
	}
	roller := dice.NewLoggedRoller(src, logger)

	spawner, err := npc.NewSpawner(cat.Enemies, roller, logger)
	if err != nil {
		return err
	}
	policy, closePolicy, err := enemyPolicy(cfg.Content, cat, roller, logger)
	if err != nil {
		return err
	}
	defer closePolicy()

	var (
		teller   play.Storyteller  = play.Offline{}
		narrator narration.Narrator = narration.Plain{}
		intents  play.IntentModel
	)
	if cfg.Narrator.Enabled() {
		completer := narration.NewAnthropicCompleter(cfg.Narrator.APIKey, cfg.Narrator.MaxTokens)
		claude, err := narration.NewClaude(completer, narration.Config{
			Models:     cfg.Narrator.Models,
			Retries:    cfg.Narrator.Retries,
			RetryDelay: cfg.Narrator.RetryDelay,
		}, logger)
		if err != nil {
			return err
		}
		teller, narrator, intents = claude, claude, claude
	} else {
		logger.Info("narrator disabled; using offline storytelling")
	}

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	var (
		saver    play.Saver
		store    *postgres.Store
		player   *character.Character
		progress *session.Progress
	)
	if persist {
		if migrateFirst {
			res, err := postgres.Migrate(cfg.Database, migrations, "up", 0)
			if err != nil {
				return err
			}
			logger.Info("schema ready", zap.Uint("version", res.Version), zap.Bool("no_change", res.NoChange))
		}
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pool.Store()
		saver = store
		if name != "" {
			player, progress, err = store.Resume(ctx, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Welcome back, %s.\n", player.Name)
		}
	} else if name != "" {
		return errors.New("--name requires --persist")
	}

	if player == nil {
		if description == "" && sheetPath == "" {
			fmt.Fprintln(out, "Describe your character in your own words:")
			description, err = readLine(in)
			if err != nil {
				return err
			}
		}
		if player, err = newCharacter(sheetPath, description, cat); err != nil {
			return err
		}
		if store != nil {
			if player, err = store.Characters.Create(ctx, player); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "You are %s, a %s %s.\n", player.Name, player.Race, player.Class)
	}

	for _, p := range cat.CheckCharacter(player) {
		logger.Warn("character problem", zap.String("detail", p))
	}

	uid := uuid.NewString()
	if player.ID != 0 {
		uid = strconv.FormatInt(player.ID, 10)
	}
	game := session.NewGameSession(uid, player, gameRules(cfg.Game), cat.Items, roller, logger)
	if progress != nil {
		game.Restore(*progress)
	}
	sessions := session.NewManager()
	if err := sessions.Add(game); err != nil {
		return err
	}
	defer func() {
		if err := sessions.Remove(uid); err != nil {
			logger.Warn("removing session", zap.Error(err))
		}
	}()

	runner := &play.Runner{
		Game:    game,
		Spawner: spawner,
		Engine:  combat.NewEngine(logger),
		Deps: combat.Deps{
			Skills: cat.Skills,
			Items:  cat.Items,
			Dice:   roller,
			Policy: policy,
			Logger: logger,
		},
		Classifier: intent.NewClassifier(intent.DefaultRegistry(), cat.Skills, cat.Items),
		Teller:     teller,
		Intents:    intents,
		Narrator:   narrator,
		Saver:      saver,
		Logger:     logger,
	}
	console := play.NewConsole(in)
	var outcome play.Outcome
	group := lifecycle.New(logger)
	group.Add("adventure", lifecycle.TaskFunc(func(ctx context.Context) error {
		defer console.Close()
		var err error
		outcome, err = runner.Run(ctx, console.Reader(), out)
		return err
	}))
	group.Add("console", console)
	err = group.Run(ctx)
	logger.Info("adventure ended",
		zap.String("player", player.Name),
		zap.String("outcome", outcome.String()),
		zap.Int("turns", game.Turn()),
	)
	return err
}

// enemyPolicy prefers scripted behaviors when a scripts directory is configured.
func enemyPolicy(cfg config.ContentConfig, cat *content.Catalog, roller *dice.Roller, logger *zap.Logger) (combat.Policy, func(), error) {
	uniform := combat.UniformPolicy{Src: roller}
	if cfg.ScriptsDir == "" {
		return uniform, func() {}, nil
	}
	mgr := scripting.NewManager(roller, logger)
	n, err := mgr.LoadContent(cfg.ScriptsDir, cat.EnemyNames(), cfg.ScriptInstructionLimit)
	if err != nil {
		mgr.Close()
		return nil, nil, fmt.Errorf("loading behavior scripts: %w", err)
	}
	logger.Info("enemy behaviors loaded", zap.Int("templates", n))
	return combat.ScriptedPolicy{Chooser: mgr, Fallback: uniform, Logger: logger}, mgr.Close, nil
}

// newCharacter builds the hero from a sheet file, or the placeholder hero
// when no sheet is given.
func newCharacter(sheetPath, description string, cat *content.Catalog) (*character.Character, error) {
	if sheetPath == "" {
		return character.Placeholder(description, cat.Skills.Names()), nil
	}
	ch, err := loadCharacter(sheetPath, cat)
	if err != nil {
		return nil, err
	}
	if description != "" {
		ch.Description = description
	}
	return ch, nil
}

func gameRules(g config.GameConfig) session.Rules {
	return session.Rules{
		EncounterChance:   g.EncounterChance,
		EncounterCooldown: g.EncounterCooldown,
		SafeLocations:     g.SafeLocations,
		ManaRegen:         g.ManaRegen,
		ManaRegenInterval: g.ManaRegenInterval,
		WandRechargeTurns: g.WandRechargeTurns,
		MemoryInterval:    g.MemoryInterval,
		HistoryWindow:     g.HistoryWindow,
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
