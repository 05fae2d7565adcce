// Package format defines the file formats agent definitions are stored
// in. Transformers work on plain parsed documents (map[string]any) so the
// package stays free of engine types; formats register themselves in an
// init function.
package format

import (
	"fmt"
	"sort"
)

// Transformer reads and writes agent definition files in one format.
type Transformer interface {
	// Format is the name used to select this transformer, e.g. "json".
	Format() string
	// Extensions lists the file extensions this format claims, with the
	// canonical one first. Each includes the leading dot.
	Extensions() []string
	// Load parses the file at path into a document.
	Load(path string) (map[string]any, error)
	// Save writes the document to path, creating or truncating it.
	Save(fields map[string]any, path string) error
}

var (
	byFormat    = map[string]Transformer{}
	byExtension = map[string]Transformer{}
)

// Register adds a transformer to the registry. It panics on a duplicate
// format name or extension, which indicates a programming error.
func Register(t Transformer) {
	name := t.Format()
	if _, dup := byFormat[name]; dup {
		panic("format: duplicate registration of " + name)
	}
	byFormat[name] = t
	for _, ext := range t.Extensions() {
		if _, dup := byExtension[ext]; dup {
			panic("format: duplicate extension " + ext)
		}
		byExtension[ext] = t
	}
}

// ByFormat returns the transformer registered under name.
func ByFormat(name string) (Transformer, error) {
	t, ok := byFormat[name]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (available: %v)", name, Formats())
	}
	return t, nil
}

// ByExtension returns the transformer claiming the given file extension
// (including the leading dot).
func ByExtension(ext string) (Transformer, error) {
	t, ok := byExtension[ext]
	if !ok {
		return nil, fmt.Errorf("no format handles extension %q", ext)
	}
	return t, nil
}

// Extension returns a transformer's canonical file extension.
func Extension(t Transformer) string {
	return t.Extensions()[0]
}

// Formats lists the registered format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(byFormat))
	for name := range byFormat {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
