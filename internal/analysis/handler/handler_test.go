package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontoreg/internal/change"
	"ontoreg/internal/impact"
	"ontoreg/internal/importgraph/resolver"
	igstore "ontoreg/internal/importgraph/store"
	nsmodels "ontoreg/internal/namespace/models"
	nsservice "ontoreg/internal/namespace/service"
	nsstore "ontoreg/internal/namespace/store"
	"ontoreg/internal/transport/http/shared"
	versvc "ontoreg/internal/version/service"
	verstore "ontoreg/internal/version/store"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
	"ontoreg/pkg/platform/locks"
	"ontoreg/pkg/testutil"
)

type analysisTest struct {
	router chi.Router
	oldID  id.VersionID
	newID  id.VersionID
}

// newAnalysisTest seeds one namespace with two released versions where the
// second removes a class, then mounts the analysis routes over the real
// detector and analyzer.
func newAnalysisTest(t *testing.T) *analysisTest {
	t.Helper()
	logger := slog.Default()
	ctx := context.Background()

	nsStore := nsstore.NewInMemory()
	verStore := verstore.NewInMemory()
	edgeStore := igstore.NewInMemory()
	res := resolver.New(edgeStore)
	nsSvc := nsservice.New(nsStore, verStore, edgeStore, res, logger)
	verSvc := versvc.New(verStore, nsStore, edgeStore, nsSvc, locks.New(), logger)

	ns, err := nsSvc.Register(ctx, nsservice.RegisterRequest{Name: "odras", Type: nsmodels.TypeCore, Prefix: "odras"})
	require.NoError(t, err)

	release := func(label string, classes ...string) id.VersionID {
		v, err := verSvc.CreateVersion(ctx, ns.ID, label)
		require.NoError(t, err)
		for _, name := range classes {
			_, err := verSvc.AddClass(ctx, v.ID, versvc.ClassRequest{LocalName: name})
			require.NoError(t, err)
		}
		_, err = verSvc.Release(ctx, v.ID)
		require.NoError(t, err)
		return v.ID
	}
	oldID := release("v1.0.0", "Requirement", "Obsolete")
	newID := release("v2.0.0", "Requirement", "Component")

	detector := change.NewDetector(verStore, nil, logger)
	analyzer := impact.New(res, nsStore, edgeStore, verStore, logger)

	r := chi.NewRouter()
	New(detector, analyzer, logger, nil).Register(r)
	return &analysisTest{router: r, oldID: oldID, newID: newID}
}

func TestHandleDiff(t *testing.T) {
	at := newAnalysisTest(t)

	t.Run("returns the change set", func(t *testing.T) {
		rr := testutil.DoRequest(at.router, testutil.NewRequest(t, http.MethodGet,
			"/diff?old="+at.oldID.String()+"&new="+at.newID.String()))
		testutil.AssertStatusOK(t, rr)

		cs := testutil.UnmarshalResponse[change.ChangeSet](t, rr)
		require.Len(t, cs.Added, 1)
		require.Len(t, cs.Removed, 1)
		assert.Equal(t, "Component", cs.Added[0].LocalName)
		assert.Equal(t, "Obsolete", cs.Removed[0].LocalName)
	})

	t.Run("missing query parameters are a bad request", func(t *testing.T) {
		rr := testutil.DoRequest(at.router, testutil.NewRequest(t, http.MethodGet, "/diff?old="+at.oldID.String()))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown versions are not found", func(t *testing.T) {
		rr := testutil.DoRequest(at.router, testutil.NewRequest(t, http.MethodGet,
			"/diff?old="+at.oldID.String()+"&new="+id.NewVersionID().String()))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		body := testutil.UnmarshalResponse[shared.ErrorBody](t, rr)
		assert.Equal(t, string(dErrors.CodeNotFound), body.Error)
	})
}

func TestHandleImpact(t *testing.T) {
	at := newAnalysisTest(t)

	rr := testutil.DoRequest(at.router, testutil.NewRequest(t, http.MethodGet,
		"/impact?old="+at.oldID.String()+"&new="+at.newID.String()))
	testutil.AssertStatusOK(t, rr)

	report := testutil.UnmarshalResponse[impact.Report](t, rr)
	assert.Equal(t, at.oldID, report.OldVersionID)
	assert.Equal(t, at.newID, report.NewVersionID)
	assert.Empty(t, report.Entries, "no importers means no impact entries")
}
