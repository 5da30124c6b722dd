package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/adventure/internal/content"
	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/game/npc"
)

var spawnCmd = &cobra.Command{
	Use:   "spawn",
	Short: "Preview the encounters rolled for a character level",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		level, _ := cmd.Flags().GetInt("level")
		count, _ := cmd.Flags().GetInt("count")
		seed, _ := cmd.Flags().GetInt64("seed")

		cat, err := content.Load(cfg.Content)
		if err != nil {
			return err
		}
		src := dice.NewCryptoSource()
		if seed != 0 {
			src = dice.NewSeededSource(seed)
		}
		spawner, err := npc.NewSpawner(cat.Enemies, src, logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i := range count {
			enemies, err := spawner.SpawnEncounter(level)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "encounter %d:", i+1)
			for _, e := range enemies {
				fmt.Fprintf(out, " %s (lv %d, %d HP, %d XP)", e.Name, e.Level, e.MaxHP, e.XPReward())
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	spawnCmd.Flags().Int("level", 1, "character level to spawn for")
	spawnCmd.Flags().Int("count", 5, "number of encounters to roll")
	spawnCmd.Flags().Int64("seed", 0, "dice seed; 0 rolls fresh randomness")
}
