package core

// ExtractDependencies scans each definition's tools for connected-agent
// references and returns the adjacency list of the batch dependency graph:
// deps[u] lists the names u depends on, in tool order, deduplicated.
//
// A reference resolves to a batch definition either through its explicit
// name_from_id field or, failing that, by matching the tool alias against
// the normalized names of the batch (aliases are lossy, so this is best
// effort). References that point outside the batch are excluded here; the
// upsert engine resolves those against the remote catalog later.
func ExtractDependencies(defs []Definition) map[string][]string {
	inBatch := make(map[string]bool, len(defs))
	byAlias := make(map[string]string, len(defs))
	for _, d := range defs {
		inBatch[d.Name] = true
		byAlias[NormalizeAlias(d.Name)] = d.Name
	}

	deps := make(map[string][]string, len(defs))
	for _, d := range defs {
		var seen map[string]bool
		for _, tool := range d.Tools() {
			ca := connectedAgent(tool)
			if ca == nil {
				continue
			}
			target := resolveBatchReference(ca, inBatch, byAlias)
			if target == "" || seen[target] {
				continue
			}
			if seen == nil {
				seen = make(map[string]bool)
			}
			seen[target] = true
			deps[d.Name] = append(deps[d.Name], target)
		}
	}
	return deps
}

// resolveBatchReference maps a connected_agent payload to a batch
// definition name, or "" when the reference points outside the batch.
func resolveBatchReference(ca map[string]any, inBatch map[string]bool, byAlias map[string]string) string {
	if ref, _ := ca[FieldNameFromID].(string); ref != "" && ref != UnknownAgentName {
		if inBatch[ref] {
			return ref
		}
		return ""
	}
	if alias, _ := ca["name"].(string); alias != "" {
		if name, ok := byAlias[NormalizeAlias(alias)]; ok {
			return name
		}
	}
	return ""
}

// Visit states for the iterative depth-first sort.
const (
	stateUnvisited = iota
	stateInProgress
	stateDone
)

// sortFrame is one level of the explicit DFS stack: a node and the index
// of the next dependency edge to follow.
type sortFrame struct {
	node int
	next int
}

// DependencySort orders definitions so that every dependency precedes its
// dependents. Traversal follows input order, so definitions with no
// ordering constraint between them keep a deterministic, input-derived
// relative order and repeated runs produce identical batches.
//
// The traversal is an explicit-stack depth-first search with three visit
// states, so graph size is bounded by heap rather than goroutine stack
// depth. Encountering an in-progress node signals a cycle, which aborts
// the sort with a *CycleError naming the cycle path.
//
// A dependency name missing from the batch is not an error here: the
// target may already exist remotely, and the upsert engine owns that
// resolution and its failure mode.
func DependencySort(defs []Definition) ([]Definition, error) {
	deps := ExtractDependencies(defs)
	index := make(map[string]int, len(defs))
	for i, d := range defs {
		index[d.Name] = i
	}

	state := make([]int, len(defs))
	sorted := make([]Definition, 0, len(defs))

	for i := range defs {
		if state[i] != stateUnvisited {
			continue
		}
		stack := []sortFrame{{node: i}}
		state[i] = stateInProgress

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := deps[defs[top.node].Name]

			if top.next < len(edges) {
				dep := edges[top.next]
				top.next++
				j, ok := index[dep]
				if !ok {
					continue // not in batch; resolved against the remote later
				}
				switch state[j] {
				case stateDone:
					// Already emitted.
				case stateInProgress:
					return nil, cycleError(defs, stack, j, dep)
				default:
					state[j] = stateInProgress
					stack = append(stack, sortFrame{node: j})
				}
				continue
			}

			state[top.node] = stateDone
			sorted = append(sorted, defs[top.node])
			stack = stack[:len(stack)-1]
		}
	}
	return sorted, nil
}

// cycleError reconstructs the cycle path from the traversal stack,
// starting at the frame for the revisited node.
func cycleError(defs []Definition, stack []sortFrame, node int, closing string) *CycleError {
	start := 0
	for k, f := range stack {
		if f.node == node {
			start = k
			break
		}
	}
	members := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		members = append(members, defs[f.node].Name)
	}
	members = append(members, closing)
	return &CycleError{Members: members}
}
