// Package resolver computes transitive closures over the import graph.
//
// Ancestors of a namespace are the parties impacted by a change in it;
// descendants are what it depends on, checked at release time. Closures are
// cached per namespace and invalidated when an edge mutation touches the
// affected subgraph, so add_import stays cheap on a growing graph.
package resolver

import (
	"context"
	"sync"

	"ontoreg/internal/importgraph/models"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
)

// maxTraversalNodes bounds a single closure computation. The guard in the
// import service makes cycles impossible, so hitting the cap (or finding the
// start node inside its own closure) means stored data violated the acyclic
// invariant; the resolver fails closed instead of looping.
const maxTraversalNodes = 100_000

// EdgeSource supplies a consistent snapshot of the import graph.
type EdgeSource interface {
	All(ctx context.Context) ([]*models.ImportEdge, error)
}

// Resolver computes and caches ancestor/descendant closures.
type Resolver struct {
	edges EdgeSource

	mu          sync.RWMutex
	ancestors   map[id.NamespaceID]map[id.NamespaceID]struct{}
	descendants map[id.NamespaceID]map[id.NamespaceID]struct{}
}

// New constructs a resolver over the given edge source.
func New(edges EdgeSource) *Resolver {
	return &Resolver{
		edges:       edges,
		ancestors:   make(map[id.NamespaceID]map[id.NamespaceID]struct{}),
		descendants: make(map[id.NamespaceID]map[id.NamespaceID]struct{}),
	}
}

// Ancestors returns every namespace that transitively imports ns.
func (r *Resolver) Ancestors(ctx context.Context, nsID id.NamespaceID) (map[id.NamespaceID]struct{}, error) {
	return r.closure(ctx, nsID, r.ancestors, reverseAdjacency)
}

// Descendants returns every namespace ns transitively imports.
func (r *Resolver) Descendants(ctx context.Context, nsID id.NamespaceID) (map[id.NamespaceID]struct{}, error) {
	return r.closure(ctx, nsID, r.descendants, forwardAdjacency)
}

// CanReach reports whether "to" is in the descendant closure of "from".
// AddImport uses this to reject edges that would create a cycle: an edge
// source -> target is illegal when target already reaches source.
func (r *Resolver) CanReach(ctx context.Context, from, to id.NamespaceID) (bool, error) {
	closure, err := r.Descendants(ctx, from)
	if err != nil {
		return false, err
	}
	_, ok := closure[to]
	return ok, nil
}

// Invalidate drops cached closures affected by an edge mutation touching the
// given namespaces: the namespaces themselves plus every cached closure that
// contains one of them.
func (r *Resolver) Invalidate(touched ...id.NamespaceID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cache := range []map[id.NamespaceID]map[id.NamespaceID]struct{}{r.ancestors, r.descendants} {
		for key, closure := range cache {
			if contains(touched, key) {
				delete(cache, key)
				continue
			}
			for _, t := range touched {
				if _, ok := closure[t]; ok {
					delete(cache, key)
					break
				}
			}
		}
	}
}

type adjacencyFn func(edges []*models.ImportEdge) map[id.NamespaceID][]id.NamespaceID

func forwardAdjacency(edges []*models.ImportEdge) map[id.NamespaceID][]id.NamespaceID {
	adj := make(map[id.NamespaceID][]id.NamespaceID, len(edges))
	for _, e := range edges {
		adj[e.SourceNamespaceID] = append(adj[e.SourceNamespaceID], e.TargetNamespaceID)
	}
	return adj
}

func reverseAdjacency(edges []*models.ImportEdge) map[id.NamespaceID][]id.NamespaceID {
	adj := make(map[id.NamespaceID][]id.NamespaceID, len(edges))
	for _, e := range edges {
		adj[e.TargetNamespaceID] = append(adj[e.TargetNamespaceID], e.SourceNamespaceID)
	}
	return adj
}

func (r *Resolver) closure(ctx context.Context, start id.NamespaceID, cache map[id.NamespaceID]map[id.NamespaceID]struct{}, adjacency adjacencyFn) (map[id.NamespaceID]struct{}, error) {
	r.mu.RLock()
	cached, ok := cache[start]
	r.mu.RUnlock()
	if ok {
		return copySet(cached), nil
	}

	edges, err := r.edges.All(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot import graph")
	}

	result, err := traverse(start, adjacency(edges))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	cache[start] = result
	r.mu.Unlock()
	return copySet(result), nil
}

// traverse is a bounded BFS from start. The visited set makes revisits
// impossible, so the only way start can appear in its own closure is a
// directed cycle in stored data; that and the node cap fail closed with
// GraphIntegrityError.
func traverse(start id.NamespaceID, adj map[id.NamespaceID][]id.NamespaceID) (map[id.NamespaceID]struct{}, error) {
	visited := map[id.NamespaceID]struct{}{start: {}}
	result := make(map[id.NamespaceID]struct{})
	queue := []id.NamespaceID{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range adj[current] {
			if next == start {
				return nil, dErrors.New(dErrors.CodeGraphIntegrity, "import graph contains a directed cycle").
					With("namespace_id", start.String())
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			result[next] = struct{}{}
			if len(visited) > maxTraversalNodes {
				return nil, dErrors.New(dErrors.CodeGraphIntegrity, "import graph traversal exceeded node cap").
					With("namespace_id", start.String())
			}
			queue = append(queue, next)
		}
	}
	return result, nil
}

func copySet(in map[id.NamespaceID]struct{}) map[id.NamespaceID]struct{} {
	out := make(map[id.NamespaceID]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func contains(ids []id.NamespaceID, target id.NamespaceID) bool {
	for _, nsID := range ids {
		if nsID == target {
			return true
		}
	}
	return false
}
