package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/barysiuk/agentsync/internal/core"
	"github.com/barysiuk/agentsync/internal/foundry"
)

// deps holds shared dependencies for CLI commands: the effective config
// after file, environment and flag layering, plus the service client.
type deps struct {
	config core.Config
	client *foundry.Client
	logger *slog.Logger
}

// newDeps creates shared dependencies. Called lazily by commands that
// talk to the service.
func newDeps() (*deps, error) {
	mgr, err := core.NewConfigManager("")
	if err != nil {
		return nil, fmt.Errorf("initializing config: %w", err)
	}
	cfg, err := mgr.Load()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	applyFlags(&cfg)

	logger := slog.Default()
	client, err := foundry.New(foundry.Options{
		Endpoint: cfg.Endpoint,
		Token:    os.Getenv(core.EnvToken),
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	return &deps{config: cfg, client: client, logger: logger}, nil
}

// applyFlags overlays non-empty command-line flags onto the config.
func applyFlags(cfg *core.Config) {
	if flagDir != "" {
		cfg.AgentsDir = flagDir
	}
	if flagFormat != "" {
		cfg.Format = flagFormat
	}
	if flagPrefix != "" {
		cfg.Prefix = flagPrefix
	}
	if flagSuffix != "" {
		cfg.Suffix = flagSuffix
	}
	if flagEndpoint != "" {
		cfg.Endpoint = flagEndpoint
	}
	if flagModel != "" {
		cfg.DefaultModel = flagModel
	}
}

func (d *deps) uploader() *core.Uploader {
	return &core.Uploader{
		Client:       d.client,
		Prefix:       d.config.Prefix,
		Suffix:       d.config.Suffix,
		DefaultModel: d.config.DefaultModel,
		Retry:        d.config.RetryPolicy(),
		Logger:       d.logger,
	}
}

func (d *deps) downloader() *core.Downloader {
	return &core.Downloader{
		Client: d.client,
		Prefix: d.config.Prefix,
		Suffix: d.config.Suffix,
		Logger: d.logger,
	}
}
