package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <agent>...",
	Short: "Delete agents from the service",
	Long: `Delete the named agents from the service. Names are portable
definition names; the configured prefix and suffix are applied before
the lookup. Deletion is remote-only and never touches local files.

The --yes flag is required; there is no interactive confirmation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("refusing to delete without --yes")
		}
		d, err := newDeps()
		if err != nil {
			return err
		}
		dl := d.downloader()
		for _, name := range args {
			agent, err := dl.AgentByName(cmd.Context(), d.config.Prefix+name+d.config.Suffix)
			if err != nil {
				return err
			}
			if err := d.client.DeleteAgent(cmd.Context(), agent.ID); err != nil {
				return fmt.Errorf("deleting agent %q: %w", name, err)
			}
			fmt.Fprintf(os.Stdout, "%s %s %s\n",
				warnStyle.Render("deleted"), agent.Name, dimStyle.Render(agent.ID))
		}
		return nil
	},
}

func init() {
	deleteCmd.Flags().Bool("yes", false, "Confirm deletion")
	rootCmd.AddCommand(deleteCmd)
}
