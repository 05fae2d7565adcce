package core

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/barysiuk/agentsync/internal/core/format"
)

// LoadDefinitions reads every definition file in dir with the named
// format's extensions, in sorted filename order. Files that fail to parse
// or lack a name are skipped with a warning; duplicate names across files
// are an error because the upsert engine keys on them.
func LoadDefinitions(dir, formatName string) ([]Definition, error) {
	tf, err := format.ByFormat(formatName)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading agents directory %q: %w", dir, err)
	}

	exts := make(map[string]bool)
	for _, e := range tf.Extensions() {
		exts[e] = true
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !exts[filepath.Ext(entry.Name())] {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	var defs []Definition
	byName := make(map[string]string)
	for _, path := range paths {
		fields, err := tf.Load(path)
		if err != nil {
			slog.Warn("skipping unparseable definition file", "path", path, "error", err)
			continue
		}
		def, err := NewDefinition(fields)
		if err != nil {
			slog.Warn("skipping definition file", "path", path, "error", err)
			continue
		}
		if prev, dup := byName[def.Name]; dup {
			return nil, fmt.Errorf("duplicate agent name %q in %s and %s", def.Name, prev, path)
		}
		byName[def.Name] = path
		defs = append(defs, def)
	}
	return defs, nil
}

// SaveDefinition writes a definition into dir using the named format.
func SaveDefinition(def Definition, dir, formatName string) (string, error) {
	tf, err := format.ByFormat(formatName)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, def.Name+format.Extension(tf))
	if err := tf.Save(def.Fields, path); err != nil {
		return "", fmt.Errorf("saving agent %q: %w", def.Name, err)
	}
	return path, nil
}
