package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Environment variables recognized by agentsync. Environment values
// override the config file; command-line flags override both.
const (
	EnvEndpoint       = "AGENTSYNC_ENDPOINT"
	EnvToken          = "AGENTSYNC_TOKEN"
	EnvDefaultModel   = "AGENTSYNC_MODEL"
	EnvRetryAttempts  = "AGENTSYNC_RETRY_ATTEMPTS"
	EnvRetryBaseDelay = "AGENTSYNC_RETRY_BASE_DELAY"
)

// RetrySettings is the persisted form of a retry policy.
type RetrySettings struct {
	Attempts    int `json:"attempts"`
	BaseDelayMS int `json:"baseDelayMs"`
}

// Config holds the persisted agentsync settings.
type Config struct {
	Endpoint     string        `json:"endpoint,omitempty"`
	AgentsDir    string        `json:"agentsDir"`
	Format       string        `json:"format"`
	Prefix       string        `json:"prefix,omitempty"`
	Suffix       string        `json:"suffix,omitempty"`
	DefaultModel string        `json:"defaultModel,omitempty"`
	Retry        RetrySettings `json:"retry"`
}

// RetryPolicy converts the persisted settings to a runtime policy,
// falling back to the defaults for unset values.
func (c Config) RetryPolicy() RetryPolicy {
	p := DefaultRetryPolicy()
	if c.Retry.Attempts > 0 {
		p.MaxAttempts = c.Retry.Attempts
	}
	if c.Retry.BaseDelayMS > 0 {
		p.BaseDelay = time.Duration(c.Retry.BaseDelayMS) * time.Millisecond
	}
	return p
}

// ApplyEnv overlays recognized environment variables onto the config.
// Unparseable numeric values are ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvDefaultModel); v != "" {
		c.DefaultModel = v
	}
	if v := os.Getenv(EnvRetryAttempts); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retry.Attempts = n
		}
	}
	if v := os.Getenv(EnvRetryBaseDelay); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Retry.BaseDelayMS = int(d / time.Millisecond)
		}
	}
}

func defaultConfig() Config {
	return Config{
		AgentsDir: "agents",
		Format:    "json",
	}
}

// ConfigManager loads and saves the agentsync config file. Saves are
// atomic: the file is written to a temp path and renamed into place.
type ConfigManager struct {
	path string
	mu   sync.RWMutex
}

// NewConfigManager returns a manager for the config at path. An empty
// path selects the default location, ~/.agentsync/config.json.
func NewConfigManager(path string) (*ConfigManager, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, ".agentsync", "config.json")
	}
	return &ConfigManager{path: path}, nil
}

// Path returns the config file location.
func (m *ConfigManager) Path() string {
	return m.path
}

// Load reads the config file. A missing file yields the defaults.
func (m *ConfigManager) Load() (Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	cfg := defaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", m.path, err)
	}
	return cfg, nil
}

// Save writes the config atomically, creating the directory if needed.
func (m *ConfigManager) Save(cfg Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	data = append(data, '\n')

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}
