package handler

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	igstore "ontoreg/internal/importgraph/store"
	"ontoreg/internal/namespace/service"
	nsstore "ontoreg/internal/namespace/store"
	"ontoreg/internal/transport/http/shared"
	verstore "ontoreg/internal/version/store"
	dErrors "ontoreg/pkg/domain-errors"
	"ontoreg/pkg/testutil"
)

const testAdminToken = "test-admin-token"

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	logger := slog.Default()
	svc := service.New(nsstore.NewInMemory(), verstore.NewInMemory(), igstore.NewInMemory(), nil, logger)
	h := New(svc, logger, nil, testAdminToken)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func registerNamespace(t *testing.T, r chi.Router, name, nsType, prefix string) map[string]any {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/namespaces", map[string]any{
		"name":   name,
		"type":   nsType,
		"prefix": prefix,
		"owners": []string{"jdoe"},
	})
	rr := testutil.DoRequest(r, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return *testutil.UnmarshalResponse[map[string]any](t, rr)
}

func TestHandleRegister(t *testing.T) {
	r := newTestRouter(t)

	t.Run("creates a namespace", func(t *testing.T) {
		body := registerNamespace(t, r, "odras", "core", "odras")
		assert.Equal(t, "odras", body["name"])
		assert.Equal(t, "core", body["type"])
		assert.Equal(t, "draft", body["status"])
		assert.NotEmpty(t, body["id"])
	})

	t.Run("duplicate identity conflicts", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/namespaces", map[string]any{
			"name": "ODRAS", "type": "core", "prefix": "other",
		})
		rr := testutil.DoRequest(r, req)
		assert.Equal(t, http.StatusConflict, rr.Code)
		body := testutil.UnmarshalResponse[shared.ErrorBody](t, rr)
		assert.Equal(t, string(dErrors.CodeDuplicateIdentity), body.Error)
	})

	t.Run("invalid type is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/namespaces", map[string]any{
			"name": "bad", "type": "galaxy", "prefix": "bad",
		})
		rr := testutil.DoRequest(r, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/namespaces", "{not json")
		rr := testutil.DoRequest(r, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("non-JSON content type is rejected", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/namespaces", "name=x")
		req.Header.Set("Content-Type", "text/plain")
		rr := testutil.DoRequest(r, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	})
}

func TestHandleLookupAndGet(t *testing.T) {
	r := newTestRouter(t)
	created := registerNamespace(t, r, "mission", "domain", "msn")
	nsID := created["id"].(string)

	t.Run("get by id", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/namespaces/"+nsID))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "name", "mission")
	})

	t.Run("get with a malformed id", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/namespaces/not-a-uuid"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("lookup by prefix", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/namespaces/lookup?prefix=MSN"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "name", "mission")
	})

	t.Run("lookup by name and type", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/namespaces/lookup?name=mission&type=domain"))
		testutil.AssertStatusOK(t, rr)
	})

	t.Run("lookup without parameters", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/namespaces/lookup"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("lookup miss is not found", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/namespaces/lookup?prefix=nope"))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("list includes the namespace", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/namespaces"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONHasKey(t, rr, "namespaces")
	})
}

func TestHandleUpdateMetadata(t *testing.T) {
	r := newTestRouter(t)
	created := registerNamespace(t, r, "mission", "domain", "msn")
	nsID := created["id"].(string)

	req := testutil.NewJSONRequest(t, http.MethodPatch, "/namespaces/"+nsID, map[string]any{
		"owners":      []string{"asmith"},
		"description": "mission planning vocabulary",
	})
	rr := testutil.DoRequest(r, req)
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "description", "mission planning vocabulary")
	// Identity fields survive a metadata update.
	testutil.AssertJSONContains(t, rr, "name", "mission")
	testutil.AssertJSONContains(t, rr, "prefix", "msn")
}

func TestHandleDelete(t *testing.T) {
	r := newTestRouter(t)
	created := registerNamespace(t, r, "mission", "domain", "msn")
	nsID := created["id"].(string)

	t.Run("requires the admin token", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodDelete, "/namespaces/"+nsID))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects a wrong token", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodDelete, "/namespaces/"+nsID)
		req.Header.Set("X-Admin-Token", "wrong")
		rr := testutil.DoRequest(r, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("deletes with the admin token", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodDelete, "/namespaces/"+nsID)
		req.Header.Set("X-Admin-Token", testAdminToken)
		rr := testutil.DoRequest(r, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/namespaces/"+nsID))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
