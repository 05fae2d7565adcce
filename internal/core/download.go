package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/barysiuk/agentsync/internal/core/format"
)

// Downloader fetches agents from the remote service and writes them back
// as portable definition files. Service-assigned fields are stripped and
// connected-agent ids are replaced with names so the files round-trip
// through version control and across projects.
type Downloader struct {
	Client Client
	Prefix string
	Suffix string
	Logger *slog.Logger

	names map[string]string // id → name, memoized across one invocation
}

func (d *Downloader) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// AgentName resolves a remote agent id to its name, memoizing the answer.
// The second result is false when the id does not exist remotely.
func (d *Downloader) AgentName(ctx context.Context, id string) (string, bool) {
	if name, ok := d.names[id]; ok {
		return name, true
	}
	agent, err := d.Client.GetAgent(ctx, id)
	if err != nil {
		d.logger().Warn("could not resolve agent id", "id", id, "error", err)
		return "", false
	}
	if d.names == nil {
		d.names = make(map[string]string)
	}
	d.names[id] = agent.Name
	return agent.Name, true
}

// AgentByName finds a remote agent with exactly the given name.
func (d *Downloader) AgentByName(ctx context.Context, name string) (RemoteAgent, error) {
	agents, err := d.Client.ListAgents(ctx)
	if err != nil {
		return RemoteAgent{}, fmt.Errorf("listing agents: %w", err)
	}
	for _, a := range agents {
		if a.Name == name {
			return a, nil
		}
	}
	return RemoteAgent{}, fmt.Errorf("agent %q: %w", name, ErrNotFound)
}

// TrimName strips a deployment prefix and suffix from a remote agent
// name, recovering the portable definition name.
func TrimName(name, prefix, suffix string) string {
	name = strings.TrimPrefix(name, prefix)
	return strings.TrimSuffix(name, suffix)
}

// MatchesDeployment reports whether a remote agent name carries the
// deployment prefix and suffix.
func MatchesDeployment(name, prefix, suffix string) bool {
	return strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix)
}

// DownloadAll writes every remote agent matching the downloader's prefix
// and suffix into dir using the named file format. It returns the number
// of files written.
func (d *Downloader) DownloadAll(ctx context.Context, dir, formatName string) (int, error) {
	agents, err := d.Client.ListAgents(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing agents: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating directory %q: %w", dir, err)
	}

	n := 0
	for _, agent := range agents {
		if !MatchesDeployment(agent.Name, d.Prefix, d.Suffix) {
			continue
		}
		if err := d.write(ctx, agent, dir, formatName); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Download writes the single named agent into dir. The name is the
// portable definition name; the prefix and suffix are applied before the
// remote lookup.
func (d *Downloader) Download(ctx context.Context, name, dir, formatName string) error {
	agent, err := d.AgentByName(ctx, d.Prefix+name+d.Suffix)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %q: %w", dir, err)
	}
	return d.write(ctx, agent, dir, formatName)
}

func (d *Downloader) write(ctx context.Context, agent RemoteAgent, dir, formatName string) error {
	tf, err := format.ByFormat(formatName)
	if err != nil {
		return err
	}
	fields, _ := d.Generalize(ctx, agent.Fields).(map[string]any)
	base := TrimName(agent.Name, d.Prefix, d.Suffix)
	if fields == nil {
		fields = map[string]any{}
	}
	fields["name"] = base

	path := filepath.Join(dir, base+format.Extension(tf))
	if err := tf.Save(fields, path); err != nil {
		return fmt.Errorf("saving agent %q: %w", base, err)
	}
	d.logger().Info("downloaded agent", "name", agent.Name, "path", path)
	return nil
}

// strippedFields are service-assigned and never belong in a definition
// file.
var strippedFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"object":     true,
}

// Generalize converts a raw remote agent payload into its portable form:
// service-assigned fields are removed, the deployment prefix and suffix
// are trimmed from names, and connected-agent tool entries trade their id
// for a name_from_id reference. Ids that no longer resolve become the
// "Unknown Agent" marker rather than failing the download.
func (d *Downloader) Generalize(ctx context.Context, v any) any {
	return d.generalizeValue(ctx, v)
}

func (d *Downloader) generalizeValue(ctx context.Context, v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if strippedFields[k] {
				continue
			}
			if k == "name" {
				if name, ok := inner.(string); ok {
					out[k] = TrimName(name, d.Prefix, d.Suffix)
					continue
				}
			}
			if k == ToolTypeConnectedAgent {
				if ca, ok := inner.(map[string]any); ok {
					out[k] = d.generalizeConnectedAgent(ctx, ca)
					continue
				}
			}
			out[k] = d.generalizeValue(ctx, inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = d.generalizeValue(ctx, inner)
		}
		return out
	default:
		return v
	}
}

// generalizeConnectedAgent swaps an id-bearing connected-agent payload
// for a name-based one.
func (d *Downloader) generalizeConnectedAgent(ctx context.Context, ca map[string]any) map[string]any {
	out := make(map[string]any, len(ca))
	for k, v := range ca {
		if k == "id" {
			continue
		}
		out[k] = copyValue(v)
	}
	ref := UnknownAgentName
	if id, _ := ca["id"].(string); id != "" {
		if name, ok := d.AgentName(ctx, id); ok {
			ref = TrimName(name, d.Prefix, d.Suffix)
		}
	}
	out[FieldNameFromID] = ref
	return out
}
