package format

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func init() {
	Register(yamlFormat{})
}

type yamlFormat struct{}

func (yamlFormat) Format() string       { return "yaml" }
func (yamlFormat) Extensions() []string { return []string{".yaml", ".yml"} }

func (yamlFormat) Load(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if fields == nil {
		fields = make(map[string]any)
	}
	return fields, nil
}

func (yamlFormat) Save(fields map[string]any, path string) error {
	data, err := marshalOrderedYAML(fields)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
