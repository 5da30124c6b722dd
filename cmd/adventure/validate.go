package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/content"
	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

var validateCmd = &cobra.Command{
	Use:   "validate [sheet...]",
	Short: "Load every catalog and behavior script and report problems",
	Long: `validate loads the configured content and behavior scripts and cross-checks
them. Character sheet files given as arguments are built and checked against the
catalogs too.`,
	RunE: func(cmd *cobra.Command, sheets []string) error {
		cfg, logger, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		cat, err := content.Load(cfg.Content)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "skills   %d\nitems    %d\nenemies  %d\n",
			len(cat.Skills.All()), len(cat.Items.All()), len(cat.Enemies))

		if cfg.Content.ScriptsDir != "" {
			mgr := scripting.NewManager(dice.NewLoggedRoller(dice.NewCryptoSource(), logger), logger)
			defer mgr.Close()
			n, err := mgr.LoadContent(cfg.Content.ScriptsDir, cat.EnemyNames(), cfg.Content.ScriptInstructionLimit)
			if err != nil {
				return fmt.Errorf("loading behavior scripts: %w", err)
			}
			fmt.Fprintf(out, "scripts  %d template behavior(s)\n", n)
		}

		problems := cat.Problems()
		for _, path := range sheets {
			ch, err := loadCharacter(path, cat)
			if err != nil {
				problems = append(problems, err.Error())
				continue
			}
			fmt.Fprintf(out, "sheet    %s (%s %s)\n", ch.Name, ch.Race, ch.Class)
			problems = append(problems, cat.CheckCharacter(ch)...)
		}
		for _, p := range problems {
			logger.Warn("content problem", zap.String("detail", p))
			fmt.Fprintf(out, "problem: %s\n", p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("%d content problem(s)", len(problems))
		}
		fmt.Fprintln(out, "content ok")
		return nil
	},
}

func loadCharacter(path string, cat *content.Catalog) (*character.Character, error) {
	sheet, err := character.LoadSheet(path)
	if err != nil {
		return nil, err
	}
	ch, err := character.FromSheet(sheet, cat.Skills.Names())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ch, nil
}
