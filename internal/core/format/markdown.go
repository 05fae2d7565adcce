package format

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

func init() {
	Register(markdownFormat{})
}

// markdownFormat stores definitions as Markdown with YAML frontmatter.
// The frontmatter carries every field except the instructions, which
// become the document body. This keeps long system prompts readable and
// diffable.
type markdownFormat struct{}

func (markdownFormat) Format() string       { return "md" }
func (markdownFormat) Extensions() []string { return []string{".md"} }

func (markdownFormat) Load(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	fm, body, err := splitFrontmatter(string(raw), path)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := yaml.Unmarshal([]byte(fm), &fields); err != nil {
		return nil, fmt.Errorf("parsing frontmatter in %s: %w", path, err)
	}
	if fields == nil {
		fields = make(map[string]any)
	}
	if body != "" {
		fields["instructions"] = strings.TrimRight(body, "\n")
	}
	return fields, nil
}

func (markdownFormat) Save(fields map[string]any, path string) error {
	fm := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != "instructions" {
			fm[k] = v
		}
	}
	body, _ := fields["instructions"].(string)

	yamlBytes, err := marshalOrderedYAML(fm)
	if err != nil {
		return fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(yamlBytes)
	buf.WriteString("---\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// splitFrontmatter separates a Markdown document into its YAML
// frontmatter and body. The document must open with a "---" delimiter.
func splitFrontmatter(content, source string) (fm, body string, err error) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "---") {
		return "", "", fmt.Errorf("no frontmatter in %s", source)
	}

	start := strings.Index(content, "---")
	rest := content[start+3:]
	if len(rest) > 0 && rest[0] == '\n' {
		rest = rest[1:]
	} else if len(rest) > 1 && rest[0] == '\r' && rest[1] == '\n' {
		rest = rest[2:]
	}

	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", "", fmt.Errorf("no closing frontmatter delimiter in %s", source)
	}

	fm = rest[:end]
	body = rest[end+4:]
	if len(body) > 0 && body[0] == '\n' {
		body = body[1:]
	} else if len(body) > 1 && body[0] == '\r' && body[1] == '\n' {
		body = body[2:]
	}
	return fm, body, nil
}

// marshalOrderedYAML serializes a document with a defined field order:
// name, description, model, tools, then everything else alphabetically.
func marshalOrderedYAML(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}

	priority := []string{"name", "description", "model", "tools"}
	prioritySet := make(map[string]bool)
	for _, k := range priority {
		prioritySet[k] = true
	}

	var rest []string
	for k := range m {
		if !prioritySet[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)

	var ordered []string
	for _, k := range priority {
		if _, ok := m[k]; ok {
			ordered = append(ordered, k)
		}
	}
	ordered = append(ordered, rest...)

	doc := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}
	for _, key := range ordered {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: key,
		}
		valNode, err := encodeValue(m[key])
		if err != nil {
			return nil, fmt.Errorf("encoding field %q: %w", key, err)
		}
		doc.Content = append(doc.Content, keyNode, valNode)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeValue converts a value to a yaml.Node via a marshal roundtrip so
// the ordered encoder can embed it.
func encodeValue(v any) (*yaml.Node, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		return node.Content[0], nil
	}
	return &node, nil
}
