package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontoreg/internal/importgraph/models"
	"ontoreg/internal/importgraph/store"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
)

// graph builds edges between named namespaces for traversal tests.
type graph struct {
	t     *testing.T
	store *store.InMemory
	nodes map[string]id.NamespaceID
}

func newGraph(t *testing.T) *graph {
	return &graph{t: t, store: store.NewInMemory(), nodes: make(map[string]id.NamespaceID)}
}

func (g *graph) node(name string) id.NamespaceID {
	if nsID, ok := g.nodes[name]; ok {
		return nsID
	}
	nsID := id.NewNamespaceID()
	g.nodes[name] = nsID
	return nsID
}

func (g *graph) edge(source, target string) {
	g.t.Helper()
	e, err := models.NewImportEdge(id.NewImportEdgeID(), g.node(source), g.node(target), id.NewVersionID(), time.Now())
	require.NoError(g.t, err)
	require.NoError(g.t, g.store.Create(context.Background(), e))
}

func (g *graph) names(set map[id.NamespaceID]struct{}) []string {
	var out []string
	for name, nsID := range g.nodes {
		if _, ok := set[nsID]; ok {
			out = append(out, name)
		}
	}
	return out
}

func TestDescendants(t *testing.T) {
	// a -> b -> d, a -> c -> d (diamond)
	g := newGraph(t)
	g.edge("a", "b")
	g.edge("a", "c")
	g.edge("b", "d")
	g.edge("c", "d")

	r := New(g.store)
	closure, err := r.Descendants(context.Background(), g.node("a"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c", "d"}, g.names(closure))

	closure, err = r.Descendants(context.Background(), g.node("d"))
	require.NoError(t, err)
	assert.Empty(t, closure)
}

func TestAncestors(t *testing.T) {
	g := newGraph(t)
	g.edge("a", "b")
	g.edge("b", "c")
	g.edge("x", "c")

	r := New(g.store)
	closure, err := r.Ancestors(context.Background(), g.node("c"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "x"}, g.names(closure))
}

func TestCanReach(t *testing.T) {
	g := newGraph(t)
	g.edge("a", "b")
	g.edge("b", "c")

	r := New(g.store)
	ok, err := r.CanReach(context.Background(), g.node("a"), g.node("c"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.CanReach(context.Background(), g.node("c"), g.node("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCycleFailsClosed(t *testing.T) {
	// The store does not enforce acyclicity; a cycle here simulates corrupt
	// stored data slipping past the service guard.
	g := newGraph(t)
	g.edge("a", "b")
	g.edge("b", "c")
	g.edge("c", "a")

	r := New(g.store)
	_, err := r.Descendants(context.Background(), g.node("a"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeGraphIntegrity))
}

func TestClosureIsCached(t *testing.T) {
	g := newGraph(t)
	g.edge("a", "b")

	r := New(g.store)
	_, err := r.Descendants(context.Background(), g.node("a"))
	require.NoError(t, err)

	// A new edge is invisible until invalidation.
	g.edge("b", "c")
	closure, err := r.Descendants(context.Background(), g.node("a"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b"}, g.names(closure))

	r.Invalidate(g.node("b"), g.node("c"))
	closure, err = r.Descendants(context.Background(), g.node("a"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, g.names(closure))
}

func TestInvalidateUnrelatedKeepsCache(t *testing.T) {
	g := newGraph(t)
	g.edge("a", "b")
	g.edge("x", "y")

	r := New(g.store)
	_, err := r.Descendants(context.Background(), g.node("a"))
	require.NoError(t, err)

	// Mutating the x/y component must not drop the a closure. Prove the
	// cache survived by adding an edge without invalidating a's subgraph.
	r.Invalidate(g.node("x"), g.node("y"))
	g.edge("b", "c")
	closure, err := r.Descendants(context.Background(), g.node("a"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b"}, g.names(closure))
}

func TestCallersCannotMutateCache(t *testing.T) {
	g := newGraph(t)
	g.edge("a", "b")

	r := New(g.store)
	closure, err := r.Descendants(context.Background(), g.node("a"))
	require.NoError(t, err)
	delete(closure, g.node("b"))

	again, err := r.Descendants(context.Background(), g.node("a"))
	require.NoError(t, err)
	assert.Len(t, again, 1)
}

// TestClosuresAreDisjoint asserts the topological-order property on a DAG:
// no namespace may sit in both its own ancestor and descendant closures,
// and neither closure may contain the namespace itself.
func TestClosuresAreDisjoint(t *testing.T) {
	// a -> b -> d, a -> c -> d, c -> e (diamond with a tail)
	g := newGraph(t)
	g.edge("a", "b")
	g.edge("a", "c")
	g.edge("b", "d")
	g.edge("c", "d")
	g.edge("c", "e")
	r := New(g.store)
	ctx := context.Background()

	for name, nsID := range g.nodes {
		up, err := r.Ancestors(ctx, nsID)
		require.NoError(t, err)
		down, err := r.Descendants(ctx, nsID)
		require.NoError(t, err)

		assert.NotContains(t, up, nsID, "node %q inside its own ancestors", name)
		assert.NotContains(t, down, nsID, "node %q inside its own descendants", name)
		for member := range up {
			_, both := down[member]
			assert.False(t, both, "node %q has %q in both closures", name, g.names(map[id.NamespaceID]struct{}{member: {}}))
		}
	}
}
