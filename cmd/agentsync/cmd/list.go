package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/barysiuk/agentsync/internal/core"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents on the service",
	Long: `List the agents currently registered on the service, with their ids
and models. With --all the configured prefix and suffix filter is
skipped and every agent is shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")

		agents, err := d.client.ListAgents(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, headerStyle.Render("NAME")+"\t"+headerStyle.Render("ID")+"\t"+headerStyle.Render("MODEL"))
		n := 0
		for _, agent := range agents {
			if !all && !core.MatchesDeployment(agent.Name, d.config.Prefix, d.config.Suffix) {
				continue
			}
			model, _ := agent.Fields["model"].(string)
			fmt.Fprintf(w, "%s\t%s\t%s\n", agent.Name, dimStyle.Render(agent.ID), model)
			n++
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(os.Stdout, "No agents found")
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("all", false, "Ignore the prefix/suffix filter")
	rootCmd.AddCommand(listCmd)
}
