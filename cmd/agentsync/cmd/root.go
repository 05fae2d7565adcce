package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "agentsync",
	Short: "Sync agent definitions with a remote agent service",
	Long: `Agentsync keeps file-based agent definitions and a remote agent service
in step. Definitions live in version control as JSON, YAML or Markdown
files; agentsync uploads them in dependency order, creating or updating
each agent by name, and downloads remote agents back into portable files.

Connected-agent references between definitions are resolved automatically:
uploads rewrite names to remote ids, downloads rewrite ids back to names.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger(verbose)
	},
}

var (
	flagDir      string
	flagFormat   string
	flagPrefix   string
	flagSuffix   string
	flagEndpoint string
	flagModel    string
	verbose      bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("agentsync %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "d", "", "Agents directory (default from config, \"agents\")")
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "", "Definition file format: json, yaml or md (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagPrefix, "prefix", "", "Prefix applied to agent names on the service")
	rootCmd.PersistentFlags().StringVar(&flagSuffix, "suffix", "", "Suffix applied to agent names on the service")
	rootCmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "Agent service endpoint URL")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "Default model for definitions without one")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
