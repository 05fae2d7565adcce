package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/barysiuk/agentsync/internal/core"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [agent]",
	Short: "Create or update agents on the service",
	Long: `Upload agent definitions to the service, dependencies first.

Without arguments every definition in the agents directory is uploaded.
With an agent name only that definition and its transitive dependencies
are uploaded. Agents are matched by name on the service: an existing
agent with the same effective name is updated in place, otherwise a new
one is created.

Connected-agent references are resolved to service ids during upload.
References that cannot be resolved are dropped from that agent's tools
with a warning; the rest of the agent still deploys.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		defs, err := core.LoadDefinitions(d.config.AgentsDir, d.config.Format)
		if err != nil {
			return err
		}
		if len(defs) == 0 {
			fmt.Fprintf(os.Stdout, "No agent definitions found in %s\n", d.config.AgentsDir)
			return nil
		}

		up := d.uploader()
		var results []core.RemoteAgent
		if len(args) == 1 {
			results, err = up.UploadOne(cmd.Context(), defs, args[0])
		} else {
			results, err = up.UploadAll(cmd.Context(), defs)
		}
		for _, agent := range results {
			fmt.Fprintf(os.Stdout, "%s %s %s\n",
				successStyle.Render("synced"), agent.Name, dimStyle.Render(agent.ID))
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s\n", headerStyle.Render(fmt.Sprintf("%d agent(s) synced", len(results))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
