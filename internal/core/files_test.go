package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `{"name": "beta", "model": "test-model"}`)
	writeFile(t, dir, "a.json", `{"name": "alpha"}`)
	writeFile(t, dir, "notes.txt", "not a definition")

	defs, err := LoadDefinitions(dir, "json")
	if err != nil {
		t.Fatalf("LoadDefinitions: %v", err)
	}
	if got := names(defs); !equalStrings(got, []string{"alpha", "beta"}) {
		t.Errorf("names = %v, want [alpha beta] (sorted by filename)", got)
	}
}

func TestLoadDefinitionsSkipsBroken(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.json", `{"name": "good"}`)
	writeFile(t, dir, "broken.json", `{invalid`)
	writeFile(t, dir, "nameless.json", `{"model": "test-model"}`)

	defs, err := LoadDefinitions(dir, "json")
	if err != nil {
		t.Fatalf("LoadDefinitions: %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "good" {
		t.Errorf("defs = %v", names(defs))
	}
}

func TestLoadDefinitionsDuplicateName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.json", `{"name": "helper"}`)
	writeFile(t, dir, "two.json", `{"name": "helper"}`)

	_, err := LoadDefinitions(dir, "json")
	if err == nil {
		t.Fatal("duplicate names accepted")
	}
	if !strings.Contains(err.Error(), `duplicate agent name "helper"`) {
		t.Errorf("error = %v", err)
	}
}

func TestLoadDefinitionsMissingDir(t *testing.T) {
	_, err := LoadDefinitions(filepath.Join(t.TempDir(), "absent"), "json")
	if err == nil {
		t.Error("missing directory accepted")
	}
}

func TestLoadDefinitionsUnknownFormat(t *testing.T) {
	_, err := LoadDefinitions(t.TempDir(), "toml")
	if err == nil {
		t.Error("unknown format accepted")
	}
}

func TestSaveDefinitionRoundtrip(t *testing.T) {
	dir := t.TempDir()
	def := defWithTools("router", "helper")

	path, err := SaveDefinition(def, dir, "json")
	if err != nil {
		t.Fatalf("SaveDefinition: %v", err)
	}
	if filepath.Base(path) != "router.json" {
		t.Errorf("path = %s", path)
	}

	defs, err := LoadDefinitions(dir, "json")
	if err != nil {
		t.Fatalf("LoadDefinitions: %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "router" {
		t.Fatalf("defs = %v", names(defs))
	}
	deps := ExtractDependencies(append(defs, defWithTools("helper")))
	if len(deps["router"]) != 1 || deps["router"][0] != "helper" {
		t.Errorf("dependency lost in roundtrip: %v", deps)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
