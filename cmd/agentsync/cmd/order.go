package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/barysiuk/agentsync/internal/core"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Show the upload order of local definitions",
	Long: `Print the dependency-sorted order in which upload would process the
local definitions, without contacting the service. Each line shows the
definition name followed by the batch definitions it depends on.

A dependency cycle is reported as an error, exactly as upload would.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := flagDir
		formatName := flagFormat
		if dir == "" || formatName == "" {
			mgr, err := core.NewConfigManager("")
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			cfg, err := mgr.Load()
			if err != nil {
				return err
			}
			cfg.ApplyEnv()
			applyFlags(&cfg)
			dir, formatName = cfg.AgentsDir, cfg.Format
		}

		defs, err := core.LoadDefinitions(dir, formatName)
		if err != nil {
			return err
		}
		sorted, err := core.DependencySort(defs)
		if err != nil {
			return err
		}

		deps := core.ExtractDependencies(defs)
		for i, def := range sorted {
			line := fmt.Sprintf("%d. %s", i+1, def.Name)
			if ds := deps[def.Name]; len(ds) > 0 {
				line += dimStyle.Render(fmt.Sprintf("  (depends on %v)", ds))
			}
			fmt.Fprintln(os.Stdout, line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(orderCmd)
}
