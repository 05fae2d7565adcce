package core

import (
	"context"
	"fmt"
)

// Catalog is a snapshot of the remote agent listing (remote name → agent),
// owned by a single batch invocation and discarded at its end. It is
// populated by one bulk list call on first use and refreshed at most once
// per unresolved lookup to pick up agents created earlier in the same
// batch. The catalog is a read-only view of the remote; it is never
// written back.
type Catalog struct {
	client Client
	byName map[string]RemoteAgent
	loaded bool
	gen    int // bumped on every snapshot change; consumers key caches on it
}

// NewCatalog creates an empty catalog backed by client. No remote call is
// made until the first lookup or refresh.
func NewCatalog(client Client) *Catalog {
	return &Catalog{client: client}
}

// Refresh replaces the snapshot with a fresh remote listing.
func (c *Catalog) Refresh(ctx context.Context) error {
	agents, err := c.client.ListAgents(ctx)
	if err != nil {
		return fmt.Errorf("listing agents: %w", err)
	}
	c.byName = make(map[string]RemoteAgent, len(agents))
	for _, a := range agents {
		c.byName[a.Name] = a
	}
	c.loaded = true
	c.gen++
	return nil
}

// Lookup returns the agent with the given remote name, populating the
// snapshot on first use. Misses are served from memory without another
// remote call.
func (c *Catalog) Lookup(ctx context.Context, name string) (RemoteAgent, bool, error) {
	if !c.loaded {
		if err := c.Refresh(ctx); err != nil {
			return RemoteAgent{}, false, err
		}
	}
	a, ok := c.byName[name]
	return a, ok, nil
}

// LookupOrRefresh looks up name, refreshing the snapshot exactly once on
// a miss before giving up. This bounds redundant list calls to one per
// unresolved reference.
func (c *Catalog) LookupOrRefresh(ctx context.Context, name string) (RemoteAgent, bool, error) {
	a, ok, err := c.Lookup(ctx, name)
	if err != nil || ok {
		return a, ok, err
	}
	if err := c.Refresh(ctx); err != nil {
		return RemoteAgent{}, false, err
	}
	a, ok = c.byName[name]
	return a, ok, nil
}

// Add records an agent created or updated during the current batch so
// later definitions resolve it without another remote call.
func (c *Catalog) Add(a RemoteAgent) {
	if c.byName == nil {
		c.byName = make(map[string]RemoteAgent)
	}
	c.byName[a.Name] = a
	c.gen++
}

// Snapshot returns a copy of the current remote name → id mapping.
func (c *Catalog) Snapshot() map[string]string {
	out := make(map[string]string, len(c.byName))
	for name, a := range c.byName {
		out[name] = a.ID
	}
	return out
}

// Invalidate drops the snapshot; the next lookup lists again.
func (c *Catalog) Invalidate() {
	c.byName = nil
	c.loaded = false
	c.gen++
}

// Len returns the number of agents in the snapshot.
func (c *Catalog) Len() int {
	return len(c.byName)
}
