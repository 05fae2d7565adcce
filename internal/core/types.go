// Package core provides the business logic for agentsync: dependency
// resolution, ordered create-or-update against the remote agent service,
// and the download/generalization path. It has zero CLI dependencies and
// is independently testable.
package core

import (
	"context"
	"errors"
)

// ToolTypeConnectedAgent marks a tool entry that references another agent.
const ToolTypeConnectedAgent = "connected_agent"

// FieldNameFromID carries the human-readable target name of a connected
// agent reference in portable definitions. It is resolved to a remote id
// on upload and never sent to the service.
const FieldNameFromID = "name_from_id"

// UnknownAgentName is written when a connected agent id cannot be resolved
// back to a name during download.
const UnknownAgentName = "Unknown Agent"

// ErrNotFound is returned by Client implementations when no agent matches
// the requested id.
var ErrNotFound = errors.New("agent not found")

// RemoteAgent is an agent as known to the remote service.
type RemoteAgent struct {
	ID     string
	Name   string
	Fields map[string]any // raw service object; consumed by the download path
}

// Client is the capability interface to the remote agent service. The
// engine consumes exactly these five operations; any backend or test
// double substitutes by implementing them.
type Client interface {
	ListAgents(ctx context.Context) ([]RemoteAgent, error)
	CreateAgent(ctx context.Context, fields map[string]any) (RemoteAgent, error)
	UpdateAgent(ctx context.Context, id string, fields map[string]any) (RemoteAgent, error)
	GetAgent(ctx context.Context, id string) (RemoteAgent, error)
	DeleteAgent(ctx context.Context, id string) error
}

// Definition is a parsed agent definition loaded from a file. Fields holds
// the full document; core logic interprets only the fields it needs (name,
// model, tools) and passes everything else through untouched.
type Definition struct {
	Name   string
	Fields map[string]any
}

// NewDefinition wraps a parsed document. The name field is required.
func NewDefinition(fields map[string]any) (Definition, error) {
	name, _ := fields["name"].(string)
	if name == "" {
		return Definition{}, &ValidationError{Reason: `missing required field "name"`}
	}
	return Definition{Name: name, Fields: fields}, nil
}

// Tools returns the definition's tool entries. Entries that are not
// mappings are skipped.
func (d Definition) Tools() []map[string]any {
	raw, ok := d.Fields["tools"].([]any)
	if !ok {
		return nil
	}
	tools := make([]map[string]any, 0, len(raw))
	for _, t := range raw {
		if m, ok := t.(map[string]any); ok {
			tools = append(tools, m)
		}
	}
	return tools
}

// connectedAgent returns the connected_agent payload of a tool entry, or
// nil when the entry is not a connected agent reference.
func connectedAgent(tool map[string]any) map[string]any {
	if t, _ := tool["type"].(string); t != ToolTypeConnectedAgent {
		return nil
	}
	ca, _ := tool["connected_agent"].(map[string]any)
	return ca
}

// referenceName extracts the human name a connected-agent entry points at:
// the explicit name_from_id when present, else the alias itself.
func referenceName(ca map[string]any) string {
	if ref, _ := ca[FieldNameFromID].(string); ref != "" && ref != UnknownAgentName {
		return ref
	}
	alias, _ := ca["name"].(string)
	return alias
}

// copyValue deep-copies a parsed document value so payload mutation during
// upload never leaks back into caller-owned definitions.
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
