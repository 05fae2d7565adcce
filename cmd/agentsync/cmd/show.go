package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/barysiuk/agentsync/internal/core"
)

var showCmd = &cobra.Command{
	Use:   "show <agent>",
	Short: "Show a local agent definition",
	Long: `Print a local agent definition: its metadata, tools and instructions.
Instructions are rendered as Markdown unless --plain is given or the
output is not a terminal-friendly environment.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		defs, err := core.LoadDefinitions(cfg.AgentsDir, cfg.Format)
		if err != nil {
			return err
		}
		var def core.Definition
		found := false
		for _, d := range defs {
			if d.Name == args[0] {
				def, found = d, true
				break
			}
		}
		if !found {
			return fmt.Errorf("agent %q not found in %s", args[0], cfg.AgentsDir)
		}

		fmt.Fprintln(os.Stdout, headerStyle.Render(def.Name))
		if model, _ := def.Fields["model"].(string); model != "" {
			fmt.Fprintf(os.Stdout, "model: %s\n", model)
		}
		if desc, _ := def.Fields["description"].(string); desc != "" {
			fmt.Fprintf(os.Stdout, "description: %s\n", desc)
		}
		printTools(def)

		instructions, _ := def.Fields["instructions"].(string)
		if instructions == "" {
			return nil
		}
		fmt.Fprintln(os.Stdout)

		plain, _ := cmd.Flags().GetBool("plain")
		if plain || os.Getenv("NO_COLOR") != "" {
			fmt.Fprintln(os.Stdout, instructions)
			return nil
		}
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			fmt.Fprintln(os.Stdout, instructions)
			return nil
		}
		rendered, err := r.Render(instructions)
		if err != nil {
			fmt.Fprintln(os.Stdout, instructions)
			return nil
		}
		fmt.Fprint(os.Stdout, rendered)
		return nil
	},
}

// printTools summarizes a definition's tool entries, one per line.
func printTools(def core.Definition) {
	tools := def.Tools()
	if len(tools) == 0 {
		return
	}
	counts := make(map[string]int)
	var refs []string
	for _, tool := range tools {
		t, _ := tool["type"].(string)
		if t == "" {
			t = "unknown"
		}
		counts[t]++
		if t == core.ToolTypeConnectedAgent {
			if ca, ok := tool[core.ToolTypeConnectedAgent].(map[string]any); ok {
				if ref, _ := ca[core.FieldNameFromID].(string); ref != "" {
					refs = append(refs, ref)
				}
			}
		}
	}
	var types []string
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		line := fmt.Sprintf("tools: %s x%d", t, counts[t])
		fmt.Fprintln(os.Stdout, line)
	}
	if len(refs) > 0 {
		fmt.Fprintf(os.Stdout, "connected agents: %v\n", refs)
	}
}

func init() {
	showCmd.Flags().Bool("plain", false, "Print instructions without Markdown rendering")
	rootCmd.AddCommand(showCmd)
}
