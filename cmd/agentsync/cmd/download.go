package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download [agent]",
	Short: "Save remote agents as definition files",
	Long: `Download agents from the service into the agents directory.

Without arguments every agent matching the configured prefix and suffix
is downloaded. With an agent name only that agent is fetched. Downloaded
files are portable: service-assigned fields are stripped, the prefix and
suffix are trimmed from names, and connected-agent ids are replaced with
name references.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		dl := d.downloader()
		if len(args) == 1 {
			if err := dl.Download(cmd.Context(), args[0], d.config.AgentsDir, d.config.Format); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s %s\n", successStyle.Render("downloaded"), args[0])
			return nil
		}
		n, err := dl.DownloadAll(cmd.Context(), d.config.AgentsDir, d.config.Format)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s\n", headerStyle.Render(fmt.Sprintf("%d agent(s) downloaded to %s", n, d.config.AgentsDir)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}
