package core

import (
	"context"
	"fmt"
	"strings"
)

// fakeClient is an in-memory Client for engine tests. It records every
// call and can inject transient failures.
type fakeClient struct {
	agents   []RemoteAgent
	calls    []string // "list", "create <name>", "update <name>", ...
	nextID   int
	failures map[string]int // op prefix -> remaining failures
}

type fakeTransientError struct{ msg string }

func (e *fakeTransientError) Error() string   { return e.msg }
func (e *fakeTransientError) Transient() bool { return true }

func (f *fakeClient) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeClient) countCalls(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// failNext makes the next n calls whose description starts with prefix
// fail transiently.
func (f *fakeClient) failNext(prefix string, n int) {
	if f.failures == nil {
		f.failures = make(map[string]int)
	}
	f.failures[prefix] = n
}

func (f *fakeClient) maybeFail(call string) error {
	for prefix, n := range f.failures {
		if n > 0 && strings.HasPrefix(call, prefix) {
			f.failures[prefix] = n - 1
			return &fakeTransientError{msg: "injected failure for " + call}
		}
	}
	return nil
}

func (f *fakeClient) ListAgents(ctx context.Context) ([]RemoteAgent, error) {
	f.record("list")
	if err := f.maybeFail("list"); err != nil {
		return nil, err
	}
	out := make([]RemoteAgent, len(f.agents))
	copy(out, f.agents)
	return out, nil
}

func (f *fakeClient) CreateAgent(ctx context.Context, fields map[string]any) (RemoteAgent, error) {
	name, _ := fields["name"].(string)
	call := "create " + name
	f.record(call)
	if err := f.maybeFail(call); err != nil {
		return RemoteAgent{}, err
	}
	f.nextID++
	agent := RemoteAgent{
		ID:     fmt.Sprintf("agent-%d", f.nextID),
		Name:   name,
		Fields: fields,
	}
	f.agents = append(f.agents, agent)
	return agent, nil
}

func (f *fakeClient) UpdateAgent(ctx context.Context, id string, fields map[string]any) (RemoteAgent, error) {
	name, _ := fields["name"].(string)
	call := "update " + name
	f.record(call)
	if err := f.maybeFail(call); err != nil {
		return RemoteAgent{}, err
	}
	for i, a := range f.agents {
		if a.ID == id {
			f.agents[i] = RemoteAgent{ID: id, Name: name, Fields: fields}
			return f.agents[i], nil
		}
	}
	return RemoteAgent{}, ErrNotFound
}

func (f *fakeClient) GetAgent(ctx context.Context, id string) (RemoteAgent, error) {
	f.record("get " + id)
	if err := f.maybeFail("get"); err != nil {
		return RemoteAgent{}, err
	}
	for _, a := range f.agents {
		if a.ID == id {
			return a, nil
		}
	}
	return RemoteAgent{}, ErrNotFound
}

func (f *fakeClient) DeleteAgent(ctx context.Context, id string) error {
	f.record("delete " + id)
	if err := f.maybeFail("delete"); err != nil {
		return err
	}
	for i, a := range f.agents {
		if a.ID == id {
			f.agents = append(f.agents[:i], f.agents[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// defWithTools builds a definition referencing other agents through
// connected_agent tools with explicit name_from_id fields.
func defWithTools(name string, deps ...string) Definition {
	fields := map[string]any{"name": name, "model": "test-model"}
	if len(deps) > 0 {
		tools := make([]any, 0, len(deps))
		for _, dep := range deps {
			tools = append(tools, map[string]any{
				"type": ToolTypeConnectedAgent,
				ToolTypeConnectedAgent: map[string]any{
					"name":          NormalizeAlias(dep),
					FieldNameFromID: dep,
				},
			})
		}
		fields["tools"] = tools
	}
	return Definition{Name: name, Fields: fields}
}
