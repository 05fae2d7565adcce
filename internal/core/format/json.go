package format

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

func init() {
	Register(jsonFormat{})
}

// jsonFormat stores definitions as JSON documents. Loading is tolerant:
// comments and trailing commas are standardized away before parsing, so
// hand-maintained files may annotate themselves.
type jsonFormat struct{}

func (jsonFormat) Format() string       { return "json" }
func (jsonFormat) Extensions() []string { return []string{".json"} }

func (jsonFormat) Load(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	std, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(std, &fields); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return fields, nil
}

func (jsonFormat) Save(fields map[string]any, path string) error {
	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
