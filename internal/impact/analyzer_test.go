package impact

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontoreg/internal/change"
	igmodels "ontoreg/internal/importgraph/models"
	"ontoreg/internal/importgraph/resolver"
	igstore "ontoreg/internal/importgraph/store"
	nsmodels "ontoreg/internal/namespace/models"
	nsservice "ontoreg/internal/namespace/service"
	nsstore "ontoreg/internal/namespace/store"
	versvc "ontoreg/internal/version/service"
	verstore "ontoreg/internal/version/store"
	id "ontoreg/pkg/domain"
	"ontoreg/pkg/platform/locks"
	"ontoreg/pkg/requestcontext"
)

// impactEnv wires the analyzer over the same in-memory stores the services
// use, so reference IRIs come out of the real minting path.
type impactEnv struct {
	t        *testing.T
	ctx      context.Context
	analyzer *Analyzer
	detector *change.Detector
	versions *versvc.Service
	nsSvc    *nsservice.Service
	edges    *igstore.InMemory
	logs     *bytes.Buffer
}

func newImpactEnv(t *testing.T) *impactEnv {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	nsStore := nsstore.NewInMemory()
	verStore := verstore.NewInMemory()
	edgeStore := igstore.NewInMemory()
	res := resolver.New(edgeStore)
	nsSvc := nsservice.New(nsStore, verStore, edgeStore, res, logger)
	verSvc := versvc.New(verStore, nsStore, edgeStore, nsSvc, locks.New(), logger)

	return &impactEnv{
		t:        t,
		ctx:      context.Background(),
		analyzer: New(res, nsStore, edgeStore, verStore, logger),
		detector: change.NewDetector(verStore, nil, logger),
		versions: verSvc,
		nsSvc:    nsSvc,
		edges:    edgeStore,
		logs:     &buf,
	}
}

func (e *impactEnv) namespace(name string, nsType nsmodels.Type) *nsmodels.Namespace {
	e.t.Helper()
	ns, err := e.nsSvc.Register(e.ctx, nsservice.RegisterRequest{Name: name, Type: nsType, Prefix: name})
	require.NoError(e.t, err)
	return ns
}

func (e *impactEnv) released(nsID id.NamespaceID, label string, classes ...versvc.ClassRequest) id.VersionID {
	e.t.Helper()
	v, err := e.versions.CreateVersion(e.ctx, nsID, label)
	require.NoError(e.t, err)
	for _, req := range classes {
		_, err := e.versions.AddClass(e.ctx, v.ID, req)
		require.NoError(e.t, err)
	}
	_, err = e.versions.Release(e.ctx, v.ID)
	require.NoError(e.t, err)
	return v.ID
}

func (e *impactEnv) importEdge(source, target id.NamespaceID, targetVersion id.VersionID) *igmodels.ImportEdge {
	e.t.Helper()
	edge, err := igmodels.NewImportEdge(id.NewImportEdgeID(), source, target, targetVersion, requestcontext.Now(e.ctx))
	require.NoError(e.t, err)
	require.NoError(e.t, e.edges.Create(e.ctx, edge))
	return edge
}

func entryFor(t *testing.T, report *Report, name string) Entry {
	t.Helper()
	for _, entry := range report.Entries {
		if entry.Namespace.Name == name {
			return entry
		}
	}
	t.Fatalf("no entry for namespace %q", name)
	return Entry{}
}

func TestAnalyzeImpact(t *testing.T) {
	e := newImpactEnv(t)

	core := e.namespace("odras", nsmodels.TypeCore)
	coreV1 := e.released(core.ID, "v1.0.0",
		versvc.ClassRequest{LocalName: "Requirement"},
		versvc.ClassRequest{LocalName: "Stakeholder", Comment: "a party"},
		versvc.ClassRequest{LocalName: "Obsolete"},
	)
	coreV2 := e.released(core.ID, "v2.0.0",
		versvc.ClassRequest{LocalName: "Requirement"},
		versvc.ClassRequest{LocalName: "Stakeholder", Comment: "an interested party"},
		versvc.ClassRequest{LocalName: "Component"},
	)

	coreRef := func(local string) string {
		return "https://w3id.org/defense/odras/core/odras/v1.0.0#" + local
	}

	// mission imports core directly and references a removed class.
	mission := e.namespace("mission", nsmodels.TypeDomain)
	e.released(mission.ID, "v1.0.0",
		versvc.ClassRequest{LocalName: "MissionTask", References: []string{coreRef("Obsolete")}},
	)
	e.importEdge(mission.ID, core.ID, coreV1)

	// ops sits above mission and references only an untouched core class.
	ops := e.namespace("ops", nsmodels.TypeProgram)
	e.released(ops.ID, "v1.0.0",
		versvc.ClassRequest{LocalName: "Sortie", References: []string{coreRef("Requirement")}},
	)

	// idle also sits above mission with no references into core at all.
	idle := e.namespace("idle", nsmodels.TypeProject)
	e.released(idle.ID, "v1.0.0", versvc.ClassRequest{LocalName: "Placeholder"})

	missionV, err := e.versions.ListVersions(e.ctx, mission.ID)
	require.NoError(t, err)
	e.importEdge(ops.ID, mission.ID, missionV[0].ID)
	e.importEdge(idle.ID, mission.ID, missionV[0].ID)

	cs, err := e.detector.Diff(e.ctx, coreV1, coreV2)
	require.NoError(t, err)

	report, err := e.analyzer.AnalyzeImpact(e.ctx, cs)
	require.NoError(t, err)
	require.Len(t, report.Entries, 3)

	t.Run("removed class reference is breaking", func(t *testing.T) {
		entry := entryFor(t, report, "mission")
		assert.Equal(t, SeverityBreaking, entry.Severity)
		assert.Equal(t, []string{"Obsolete"}, entry.AffectedClasses)
	})

	t.Run("untouched class reference is informational", func(t *testing.T) {
		entry := entryFor(t, report, "ops")
		assert.Equal(t, SeverityInformational, entry.Severity)
		assert.Empty(t, entry.AffectedClasses)
	})

	t.Run("no reference at all is unaffected", func(t *testing.T) {
		entry := entryFor(t, report, "idle")
		assert.Equal(t, SeverityUnaffected, entry.Severity)
	})

	t.Run("entries are ordered by namespace name", func(t *testing.T) {
		assert.Equal(t, "idle", report.Entries[0].Namespace.Name)
		assert.Equal(t, "mission", report.Entries[1].Namespace.Name)
		assert.Equal(t, "ops", report.Entries[2].Namespace.Name)
	})
}

func TestAnalyzeImpactAddedOnly(t *testing.T) {
	e := newImpactEnv(t)

	core := e.namespace("odras", nsmodels.TypeCore)
	coreV1 := e.released(core.ID, "v1.0.0", versvc.ClassRequest{LocalName: "Requirement"})
	coreV2 := e.released(core.ID, "v2.0.0",
		versvc.ClassRequest{LocalName: "Requirement"},
		versvc.ClassRequest{LocalName: "Component"},
	)

	// direct imports core without referencing any class; indirect imports
	// direct only.
	direct := e.namespace("direct", nsmodels.TypeDomain)
	e.released(direct.ID, "v1.0.0", versvc.ClassRequest{LocalName: "Bridge"})
	e.importEdge(direct.ID, core.ID, coreV1)

	indirect := e.namespace("indirect", nsmodels.TypeProject)
	e.released(indirect.ID, "v1.0.0", versvc.ClassRequest{LocalName: "Leaf"})
	directV, err := e.versions.ListVersions(e.ctx, direct.ID)
	require.NoError(t, err)
	e.importEdge(indirect.ID, direct.ID, directV[0].ID)

	cs, err := e.detector.Diff(e.ctx, coreV1, coreV2)
	require.NoError(t, err)
	require.Len(t, cs.Added, 1)
	require.Empty(t, cs.Removed)
	require.Empty(t, cs.Modified)

	report, err := e.analyzer.AnalyzeImpact(e.ctx, cs)
	require.NoError(t, err)

	assert.Equal(t, SeverityInformational, entryFor(t, report, "direct").Severity)
	assert.Equal(t, SeverityUnaffected, entryFor(t, report, "indirect").Severity)
}

func TestReportDeprecation(t *testing.T) {
	e := newImpactEnv(t)

	core := e.namespace("odras", nsmodels.TypeCore)
	coreV1 := e.released(core.ID, "v1.0.0")

	mission := e.namespace("mission", nsmodels.TypeDomain)
	e.importEdge(mission.ID, core.ID, coreV1)

	e.logs.Reset()
	e.analyzer.ReportDeprecation(e.ctx, core.ID, coreV1)
	assert.Contains(t, e.logs.String(), "deprecated version still imported")
	assert.Contains(t, e.logs.String(), mission.ID.String())

	e.logs.Reset()
	e.analyzer.ReportDeprecation(e.ctx, core.ID, id.NewVersionID())
	assert.Empty(t, e.logs.String())
}
