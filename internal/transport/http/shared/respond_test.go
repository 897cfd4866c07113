package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ontoreg/pkg/domain-errors"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteJSON(rec, http.StatusNoContent, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	t.Run("carries code, message and fields", func(t *testing.T) {
		err := dErrors.New(dErrors.CodeCycleDetected, "import would create a directed cycle").
			With("source_namespace_id", "a").
			With("target_namespace_id", "b")

		rec := httptest.NewRecorder()
		WriteError(rec, err)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, string(dErrors.CodeCycleDetected), body.Error)
		assert.Equal(t, "import would create a directed cycle", body.Message)
		assert.Equal(t, map[string]string{"source_namespace_id": "a", "target_namespace_id": "b"}, body.Fields)
	})

	t.Run("unknown errors default to internal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("status mapping", func(t *testing.T) {
		cases := []struct {
			code   dErrors.Code
			status int
		}{
			{dErrors.CodeNotFound, http.StatusNotFound},
			{dErrors.CodeDuplicateIdentity, http.StatusConflict},
			{dErrors.CodeDuplicateVersion, http.StatusConflict},
			{dErrors.CodeDuplicateClassName, http.StatusConflict},
			{dErrors.CodeDuplicateImport, http.StatusConflict},
			{dErrors.CodeHasDependents, http.StatusConflict},
			{dErrors.CodeConflict, http.StatusConflict},
			{dErrors.CodeVersionLocked, http.StatusUnprocessableEntity},
			{dErrors.CodeInvalidTransition, http.StatusUnprocessableEntity},
			{dErrors.CodeUnreleasedDependency, http.StatusUnprocessableEntity},
			{dErrors.CodeSelfImport, http.StatusUnprocessableEntity},
			{dErrors.CodeCycleDetected, http.StatusUnprocessableEntity},
			{dErrors.CodeCrossNamespaceDiff, http.StatusUnprocessableEntity},
			{dErrors.CodeBadRequest, http.StatusBadRequest},
			{dErrors.CodeInvalidInput, http.StatusBadRequest},
			{dErrors.CodeGraphIntegrity, http.StatusInternalServerError},
			{dErrors.CodeInternal, http.StatusInternalServerError},
		}
		for _, tc := range cases {
			t.Run(string(tc.code), func(t *testing.T) {
				rec := httptest.NewRecorder()
				WriteError(rec, dErrors.New(tc.code, "x"))
				assert.Equal(t, tc.status, rec.Code)
			})
		}
	})

	t.Run("wrapped errors keep their code", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", dErrors.New(dErrors.CodeNotFound, "namespace missing"))
		rec := httptest.NewRecorder()
		WriteError(rec, err)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
