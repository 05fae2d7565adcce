package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTrimName(t *testing.T) {
	tests := []struct {
		name, prefix, suffix, want string
	}{
		{"dev-helper-v2", "dev-", "-v2", "helper"},
		{"helper", "", "", "helper"},
		{"helper", "dev-", "", "helper"},
		{"dev-helper", "dev-", "", "helper"},
		{"helper-v2", "", "-v2", "helper"},
	}
	for _, tt := range tests {
		if got := TrimName(tt.name, tt.prefix, tt.suffix); got != tt.want {
			t.Errorf("TrimName(%q, %q, %q) = %q, want %q", tt.name, tt.prefix, tt.suffix, got, tt.want)
		}
	}
}

func TestMatchesDeployment(t *testing.T) {
	tests := []struct {
		name, prefix, suffix string
		want                 bool
	}{
		{"dev-helper-v2", "dev-", "-v2", true},
		{"helper", "", "", true},
		{"dev-helper", "dev-", "", true},
		{"helper", "dev-", "", false},
		{"dev-helper", "dev-", "-v2", false},
		{"other-agent", "dev-", "", false},
	}
	for _, tt := range tests {
		if got := MatchesDeployment(tt.name, tt.prefix, tt.suffix); got != tt.want {
			t.Errorf("MatchesDeployment(%q, %q, %q) = %v, want %v", tt.name, tt.prefix, tt.suffix, got, tt.want)
		}
	}
}

func TestGeneralize(t *testing.T) {
	client := &fakeClient{agents: []RemoteAgent{
		{ID: "agent-1", Name: "dev-helper"},
	}}
	dl := &Downloader{Client: client, Prefix: "dev-"}

	raw := map[string]any{
		"id":         "agent-2",
		"object":     "agent",
		"created_at": 12345,
		"name":       "dev-router",
		"model":      "test-model",
		"tools": []any{
			map[string]any{
				"type": ToolTypeConnectedAgent,
				ToolTypeConnectedAgent: map[string]any{
					"id":   "agent-1",
					"name": "helper",
				},
			},
		},
	}

	out, ok := dl.Generalize(context.Background(), raw).(map[string]any)
	if !ok {
		t.Fatal("Generalize did not return a map")
	}

	for _, stripped := range []string{"id", "object", "created_at"} {
		if _, present := out[stripped]; present {
			t.Errorf("service field %q survived generalization", stripped)
		}
	}
	if out["name"] != "router" {
		t.Errorf("name = %v, want router (prefix trimmed)", out["name"])
	}

	tools := out["tools"].([]any)
	ca := tools[0].(map[string]any)[ToolTypeConnectedAgent].(map[string]any)
	if _, present := ca["id"]; present {
		t.Error("connected agent id survived generalization")
	}
	if ca[FieldNameFromID] != "helper" {
		t.Errorf("name_from_id = %v, want helper", ca[FieldNameFromID])
	}
	if ca["name"] != "helper" {
		t.Errorf("alias = %v, want helper", ca["name"])
	}
}

func TestGeneralizeUnknownAgent(t *testing.T) {
	dl := &Downloader{Client: &fakeClient{}}

	raw := map[string]any{
		"name": "router",
		"tools": []any{
			map[string]any{
				"type": ToolTypeConnectedAgent,
				ToolTypeConnectedAgent: map[string]any{
					"id":   "agent-gone",
					"name": "mystery",
				},
			},
		},
	}

	out := dl.Generalize(context.Background(), raw).(map[string]any)
	ca := out["tools"].([]any)[0].(map[string]any)[ToolTypeConnectedAgent].(map[string]any)
	if ca[FieldNameFromID] != UnknownAgentName {
		t.Errorf("name_from_id = %v, want %q", ca[FieldNameFromID], UnknownAgentName)
	}
}

func TestAgentNameMemoized(t *testing.T) {
	client := &fakeClient{agents: []RemoteAgent{{ID: "agent-1", Name: "helper"}}}
	dl := &Downloader{Client: client}

	for i := 0; i < 3; i++ {
		name, ok := dl.AgentName(context.Background(), "agent-1")
		if !ok || name != "helper" {
			t.Fatalf("AgentName = %q, %v", name, ok)
		}
	}
	if got := client.countCalls("get"); got != 1 {
		t.Errorf("get calls = %d, want 1 (memoized)", got)
	}

	if _, ok := dl.AgentName(context.Background(), "agent-gone"); ok {
		t.Error("AgentName resolved a missing id")
	}
}

func TestDownloadAllFiltersAndWrites(t *testing.T) {
	client := &fakeClient{agents: []RemoteAgent{
		{ID: "agent-1", Name: "dev-helper", Fields: map[string]any{
			"id": "agent-1", "name": "dev-helper", "model": "test-model",
		}},
		{ID: "agent-2", Name: "other-agent", Fields: map[string]any{
			"id": "agent-2", "name": "other-agent",
		}},
	}}
	dl := &Downloader{Client: client, Prefix: "dev-"}

	dir := t.TempDir()
	n, err := dl.DownloadAll(context.Background(), dir, "json")
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if n != 1 {
		t.Errorf("wrote %d files, want 1", n)
	}

	data, err := os.ReadFile(filepath.Join(dir, "helper.json"))
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if !strings.Contains(string(data), `"name": "helper"`) {
		t.Errorf("downloaded file content:\n%s", data)
	}
	if strings.Contains(string(data), "agent-1") {
		t.Error("service id leaked into the downloaded file")
	}
}

func TestDownloadSingle(t *testing.T) {
	client := &fakeClient{agents: []RemoteAgent{
		{ID: "agent-1", Name: "helper", Fields: map[string]any{
			"id": "agent-1", "name": "helper", "model": "test-model",
		}},
	}}
	dl := &Downloader{Client: client}

	dir := t.TempDir()
	if err := dl.Download(context.Background(), "helper", dir, "json"); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "helper.json")); err != nil {
		t.Errorf("expected file missing: %v", err)
	}

	err := dl.Download(context.Background(), "absent", dir, "json")
	if err == nil {
		t.Error("Download(absent) = nil, want error")
	}
}
