package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/barysiuk/agentsync/internal/core"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the agentsync config file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
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

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, dimStyle.Render("# "+mgr.Path()))
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set one config value and save the file. Recognized keys:

  endpoint, agentsDir, format, prefix, suffix, defaultModel,
  retry.attempts, retry.baseDelay (a duration, e.g. 500ms)`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := core.NewConfigManager("")
		if err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}
		cfg, err := mgr.Load()
		if err != nil {
			return err
		}
		if err := setConfigKey(&cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := mgr.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s %s = %s\n", successStyle.Render("set"), args[0], args[1])
		return nil
	},
}

func setConfigKey(cfg *core.Config, key, value string) error {
	switch key {
	case "endpoint":
		cfg.Endpoint = value
	case "agentsDir":
		cfg.AgentsDir = value
	case "format":
		cfg.Format = value
	case "prefix":
		cfg.Prefix = value
	case "suffix":
		cfg.Suffix = value
	case "defaultModel":
		cfg.DefaultModel = value
	case "retry.attempts":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("retry.attempts must be a positive integer")
		}
		cfg.Retry.Attempts = n
	case "retry.baseDelay":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("retry.baseDelay must be a positive duration, e.g. 500ms")
		}
		cfg.Retry.BaseDelayMS = int(d / time.Millisecond)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
