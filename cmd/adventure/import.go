package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/adventure/internal/importer"
	"github.com/cory-johannsen/adventure/internal/importer/legacy"
)

var importCmd = &cobra.Command{
	Use:   "import <source-dir>",
	Short: "Convert legacy JSON catalogs into content YAML",
	Long: `import reads skill.json, item.json and enemies.json from source-dir,
normalises their type tags, validates them and writes one YAML catalog per
section under the output content root.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		output, _ := cmd.Flags().GetString("output")
		res, err := importer.New(legacy.NewSource(), logger).Run(args[0], output)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, f := range res.Files {
			fmt.Fprintf(out, "wrote %s\n", f)
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		fmt.Fprintf(out, "imported %d skill(s), %d item(s), %d enemy template(s)\n", res.Skills, res.Items, res.Enemies)
		return nil
	},
}

func init() {
	importCmd.Flags().String("output", "content", "content root to write catalogs under")
}
