package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
)

// PlaceholderModel is sent when no model is configured anywhere. The
// service rejects an unknown model with a clearer error than we could
// produce locally, so a missing model is a warning rather than a failure.
const PlaceholderModel = "default"

// Uploader is the upsert engine: it walks definitions in dependency order
// and creates or updates each agent on the remote service. Processing is
// strictly sequential: later definitions may reference ids that only
// exist once earlier ones complete.
type Uploader struct {
	Client       Client
	Prefix       string // prepended to every definition name remotely
	Suffix       string // appended to every definition name remotely
	DefaultModel string // used when a definition has no model field
	Retry        RetryPolicy
	Logger       *slog.Logger

	// Alias fallback index over the catalog, rebuilt when the snapshot
	// generation moves.
	aliasIndex map[string][]string
	aliasGen   int
}

func (u *Uploader) logger() *slog.Logger {
	if u.Logger != nil {
		return u.Logger
	}
	return slog.Default()
}

// EffectiveName returns a definition name with the uploader's prefix and
// suffix applied, which is the name the agent carries on the remote service.
func (u *Uploader) EffectiveName(name string) string {
	return u.Prefix + name + u.Suffix
}

// UploadAll creates or updates every definition, dependencies first. The
// first failure aborts the batch; upserts completed before it stay in
// place, and the returned slice holds their handles.
func (u *Uploader) UploadAll(ctx context.Context, defs []Definition) ([]RemoteAgent, error) {
	sorted, err := DependencySort(defs)
	if err != nil {
		return nil, err
	}

	order := make([]string, len(sorted))
	for i, d := range sorted {
		order[i] = d.Name
	}
	u.logger().Info("processing agents in dependency order", "order", order)

	cat := NewCatalog(u.Client)
	if err := cat.Refresh(ctx); err != nil {
		return nil, err
	}
	u.logger().Info("found existing agents", "count", cat.Len())

	results := make([]RemoteAgent, 0, len(sorted))
	for _, def := range sorted {
		agent, err := u.Upload(ctx, def, cat)
		if err != nil {
			return results, fmt.Errorf("processing agent %q: %w", def.Name, err)
		}
		results = append(results, agent)
	}
	return results, nil
}

// UploadOne uploads the named definition plus its transitive local
// dependencies, in dependency order.
func (u *Uploader) UploadOne(ctx context.Context, defs []Definition, name string) ([]RemoteAgent, error) {
	closure, err := dependencyClosure(defs, name)
	if err != nil {
		return nil, err
	}
	return u.UploadAll(ctx, closure)
}

// Upload creates or updates a single agent. Connected-agent references
// are resolved to remote ids through cat; unresolved references are
// logged and dropped so the rest of the agent still deploys. The decision
// between create and update is an exact match on the effective name.
func (u *Uploader) Upload(ctx context.Context, def Definition, cat *Catalog) (RemoteAgent, error) {
	if cat == nil {
		cat = NewCatalog(u.Client)
	}

	effective := u.EffectiveName(def.Name)
	if err := ValidateAgentName(effective); err != nil {
		return RemoteAgent{}, err
	}

	fields, _ := copyValue(def.Fields).(map[string]any)
	fields["name"] = effective
	fields["model"] = u.resolveModel(def)

	if err := u.resolveConnectedAgents(ctx, fields, cat); err != nil {
		return RemoteAgent{}, err
	}

	existing, exists, err := cat.Lookup(ctx, effective)
	if err != nil {
		return RemoteAgent{}, err
	}

	var result RemoteAgent
	if exists {
		u.logger().Info("updating existing agent", "name", effective, "id", existing.ID)
		err = u.Retry.Do(ctx, u.logger(), "update "+effective, func() error {
			var callErr error
			result, callErr = u.Client.UpdateAgent(ctx, existing.ID, fields)
			return callErr
		})
	} else {
		u.logger().Info("creating new agent", "name", effective)
		err = u.Retry.Do(ctx, u.logger(), "create "+effective, func() error {
			var callErr error
			result, callErr = u.Client.CreateAgent(ctx, fields)
			return callErr
		})
	}
	if err != nil {
		return RemoteAgent{}, err
	}

	cat.Add(result)
	return result, nil
}

// resolveModel picks the model for an outgoing payload: the definition's
// own model field, then the uploader default, then the environment
// default, then the placeholder.
func (u *Uploader) resolveModel(def Definition) string {
	if m, _ := def.Fields["model"].(string); m != "" {
		return m
	}
	if u.DefaultModel != "" {
		return u.DefaultModel
	}
	if m := os.Getenv(EnvDefaultModel); m != "" {
		return m
	}
	u.logger().Warn("no model configured, using placeholder",
		"agent", def.Name, "model", PlaceholderModel)
	return PlaceholderModel
}

// resolveConnectedAgents rewrites connected-agent tool entries in the
// outgoing payload: each reference is resolved to a remote id through the
// catalog (prefix/suffix applied) and the portable name_from_id field is
// removed. An unresolved reference drops that tool entry with a warning
// instead of failing the agent, so partial graphs still deploy.
func (u *Uploader) resolveConnectedAgents(ctx context.Context, fields map[string]any, cat *Catalog) error {
	raw, ok := fields["tools"].([]any)
	if !ok {
		return nil
	}

	kept := make([]any, 0, len(raw))
	for _, entry := range raw {
		tool, ok := entry.(map[string]any)
		if !ok {
			kept = append(kept, entry)
			continue
		}
		ca := connectedAgent(tool)
		if ca == nil {
			kept = append(kept, entry)
			continue
		}

		ref := referenceName(ca)
		if ref == "" {
			u.logger().Warn("connected agent tool has no resolvable reference, dropping entry")
			continue
		}

		target := u.EffectiveName(ref)
		agent, found, err := cat.LookupOrRefresh(ctx, target)
		if err != nil {
			return err
		}
		if !found {
			// The reference may be an alias rather than a base name;
			// fall back to matching it against normalized remote names.
			agent, found = u.matchAlias(cat, ref)
		}
		if !found {
			u.logger().Warn("could not resolve connected agent, dropping tool entry",
				"reference", target)
			continue
		}

		ca["id"] = agent.ID
		if alias, _ := ca["name"].(string); alias != "" {
			ca["name"] = NormalizeAlias(alias)
		} else {
			ca["name"] = NormalizeAlias(ref)
		}
		delete(ca, FieldNameFromID)
		u.logger().Debug("resolved connected agent", "reference", target, "id", agent.ID)
		kept = append(kept, tool)
	}
	fields["tools"] = kept
	return nil
}

// matchAlias finds a catalog agent whose base name normalizes to the same
// alias. The normalized-name index is built once per catalog generation,
// so a batch full of unresolved references stays linear. Ambiguous
// aliases resolve to the first name in sorted order, deterministically.
func (u *Uploader) matchAlias(cat *Catalog, ref string) (RemoteAgent, bool) {
	if u.aliasIndex == nil || u.aliasGen != cat.gen {
		u.aliasIndex = make(map[string][]string, len(cat.byName))
		for name := range cat.byName {
			key := NormalizeAlias(TrimName(name, u.Prefix, u.Suffix))
			u.aliasIndex[key] = append(u.aliasIndex[key], name)
		}
		for _, names := range u.aliasIndex {
			sort.Strings(names)
		}
		u.aliasGen = cat.gen
	}
	names := u.aliasIndex[NormalizeAlias(ref)]
	if len(names) == 0 {
		return RemoteAgent{}, false
	}
	return cat.byName[names[0]], true
}

// dependencyClosure selects the named definition and everything it
// transitively depends on within the batch, preserving input order.
func dependencyClosure(defs []Definition, name string) ([]Definition, error) {
	index := make(map[string]int, len(defs))
	for i, d := range defs {
		index[d.Name] = i
	}
	root, ok := index[name]
	if !ok {
		return nil, fmt.Errorf("agent %q not found in local definitions", name)
	}

	deps := ExtractDependencies(defs)
	include := map[int]bool{root: true}
	queue := []int{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range deps[defs[cur].Name] {
			if j, ok := index[dep]; ok && !include[j] {
				include[j] = true
				queue = append(queue, j)
			}
		}
	}

	out := make([]Definition, 0, len(include))
	for i, d := range defs {
		if include[i] {
			out = append(out, d)
		}
	}
	return out, nil
}
