package change

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	igstore "ontoreg/internal/importgraph/store"
	nsmodels "ontoreg/internal/namespace/models"
	nsservice "ontoreg/internal/namespace/service"
	nsstore "ontoreg/internal/namespace/store"
	versvc "ontoreg/internal/version/service"
	verstore "ontoreg/internal/version/store"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
	"ontoreg/pkg/platform/locks"
)

// memoryCache records every interaction so tests can assert when the
// detector consults and fills the cache.
type memoryCache struct {
	entries map[string]*ChangeSet
	gets    int
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*ChangeSet{}}
}

func (c *memoryCache) Get(_ context.Context, oldID, newID id.VersionID) (*ChangeSet, bool) {
	c.gets++
	cs, ok := c.entries[oldID.String()+"/"+newID.String()]
	return cs, ok
}

func (c *memoryCache) Set(_ context.Context, cs *ChangeSet) {
	c.sets++
	c.entries[cs.OldVersionID.String()+"/"+cs.NewVersionID.String()] = cs
}

type diffEnv struct {
	t          *testing.T
	ctx        context.Context
	detector   *Detector
	cache      *memoryCache
	versions   *versvc.Service
	namespaces *nsservice.Service
	nsID       id.NamespaceID
}

func newDiffEnv(t *testing.T) *diffEnv {
	t.Helper()
	logger := slog.Default()
	nsStore := nsstore.NewInMemory()
	verStore := verstore.NewInMemory()
	edgeStore := igstore.NewInMemory()
	nsSvc := nsservice.New(nsStore, verStore, edgeStore, nil, logger)
	verSvc := versvc.New(verStore, nsStore, edgeStore, nsSvc, locks.New(), logger)

	ctx := context.Background()
	ns, err := nsSvc.Register(ctx, nsservice.RegisterRequest{Name: "odras", Type: nsmodels.TypeCore, Prefix: "odras"})
	require.NoError(t, err)

	cache := newMemoryCache()
	return &diffEnv{
		t:          t,
		ctx:        ctx,
		detector:   NewDetector(verStore, cache, logger),
		cache:      cache,
		versions:   verSvc,
		namespaces: nsSvc,
		nsID:       ns.ID,
	}
}

func (e *diffEnv) draft(label string, classes ...versvc.ClassRequest) id.VersionID {
	e.t.Helper()
	v, err := e.versions.CreateVersion(e.ctx, e.nsID, label)
	require.NoError(e.t, err)
	for _, req := range classes {
		_, err := e.versions.AddClass(e.ctx, v.ID, req)
		require.NoError(e.t, err)
	}
	return v.ID
}

func (e *diffEnv) released(label string, classes ...versvc.ClassRequest) id.VersionID {
	e.t.Helper()
	vID := e.draft(label, classes...)
	_, err := e.versions.Release(e.ctx, vID)
	require.NoError(e.t, err)
	return vID
}

func names(changes []ClassChange) []string {
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.LocalName)
	}
	return out
}

func TestDiff(t *testing.T) {
	t.Run("partitions changes into disjoint lists", func(t *testing.T) {
		e := newDiffEnv(t)
		oldID := e.released("v1.0.0",
			versvc.ClassRequest{LocalName: "Requirement"},
			versvc.ClassRequest{LocalName: "Stakeholder", Comment: "a party"},
			versvc.ClassRequest{LocalName: "Obsolete"},
		)
		newID := e.released("v2.0.0",
			versvc.ClassRequest{LocalName: "Requirement"},
			versvc.ClassRequest{LocalName: "Stakeholder", Comment: "an interested party"},
			versvc.ClassRequest{LocalName: "Component"},
		)

		cs, err := e.detector.Diff(e.ctx, oldID, newID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Component"}, names(cs.Added))
		assert.Equal(t, []string{"Obsolete"}, names(cs.Removed))
		assert.Equal(t, []string{"Stakeholder"}, names(cs.Modified))
	})

	t.Run("matching fragments across versions are unchanged", func(t *testing.T) {
		e := newDiffEnv(t)
		oldID := e.released("v1.0.0", versvc.ClassRequest{LocalName: "Requirement", Label: "Requirement"})
		newID := e.released("v2.0.0", versvc.ClassRequest{LocalName: "Requirement", Label: "Requirement"})

		// The minted IRIs differ in the version segment only, which the
		// comparison neutralizes.
		cs, err := e.detector.Diff(e.ctx, oldID, newID)
		require.NoError(t, err)
		assert.Empty(t, cs.Added)
		assert.Empty(t, cs.Removed)
		assert.Empty(t, cs.Modified)
	})

	t.Run("swapping the operands swaps added and removed", func(t *testing.T) {
		e := newDiffEnv(t)
		oldID := e.released("v1.0.0", versvc.ClassRequest{LocalName: "Requirement"})
		newID := e.released("v2.0.0", versvc.ClassRequest{LocalName: "Component"})

		forward, err := e.detector.Diff(e.ctx, oldID, newID)
		require.NoError(t, err)
		backward, err := e.detector.Diff(e.ctx, newID, oldID)
		require.NoError(t, err)

		assert.Equal(t, names(forward.Added), names(backward.Removed))
		assert.Equal(t, names(forward.Removed), names(backward.Added))
		assert.Equal(t, names(forward.Modified), names(backward.Modified))
	})

	t.Run("rejects versions from different namespaces", func(t *testing.T) {
		e := newDiffEnv(t)
		oldID := e.released("v1.0.0")

		other, err := e.namespaces.Register(e.ctx, nsservice.RegisterRequest{Name: "mission", Type: nsmodels.TypeDomain, Prefix: "msn"})
		require.NoError(t, err)
		foreign, err := e.versions.CreateVersion(e.ctx, other.ID, "v1.0.0")
		require.NoError(t, err)

		_, err = e.detector.Diff(e.ctx, oldID, foreign.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCrossNamespaceDiff))
	})

	t.Run("unknown versions fail with not found", func(t *testing.T) {
		e := newDiffEnv(t)
		oldID := e.released("v1.0.0")
		_, err := e.detector.Diff(e.ctx, oldID, id.NewVersionID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("caches only when both versions are immutable", func(t *testing.T) {
		e := newDiffEnv(t)
		released := e.released("v1.0.0", versvc.ClassRequest{LocalName: "Requirement"})
		draft := e.draft("v2.0.0", versvc.ClassRequest{LocalName: "Requirement"})

		_, err := e.detector.Diff(e.ctx, released, draft)
		require.NoError(t, err)
		assert.Zero(t, e.cache.sets, "draft diffs must not be cached")

		_, err = e.versions.Release(e.ctx, draft)
		require.NoError(t, err)

		_, err = e.detector.Diff(e.ctx, released, draft)
		require.NoError(t, err)
		assert.Equal(t, 1, e.cache.sets)

		_, err = e.detector.Diff(e.ctx, released, draft)
		require.NoError(t, err)
		assert.Equal(t, 1, e.cache.sets, "second immutable diff is served from cache")
	})
}
