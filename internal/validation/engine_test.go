package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	igmodels "ontoreg/internal/importgraph/models"
	vermodels "ontoreg/internal/version/models"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
)

func version(t *testing.T, nsID id.NamespaceID, label string) *vermodels.Version {
	t.Helper()
	v, err := vermodels.NewVersion(id.NewVersionID(), nsID, label, "https://example.org/"+label, time.Now())
	require.NoError(t, err)
	return v
}

func releasedVersion(t *testing.T, nsID id.NamespaceID, label string) *vermodels.Version {
	t.Helper()
	v := version(t, nsID, label)
	require.NoError(t, v.CanRelease())
	v.ApplyRelease(time.Now())
	return v
}

func edgeTo(t *testing.T, source, target id.NamespaceID, targetVersion id.VersionID) *igmodels.ImportEdge {
	t.Helper()
	e, err := igmodels.NewImportEdge(id.NewImportEdgeID(), source, target, targetVersion, time.Now())
	require.NoError(t, err)
	return e
}

func TestValidateRelease(t *testing.T) {
	nsID := id.NewNamespaceID()

	t.Run("passes with no imports", func(t *testing.T) {
		assert.NoError(t, ValidateRelease(version(t, nsID, "v1.0.0"), nil, nil))
	})

	t.Run("rejects non-draft versions first", func(t *testing.T) {
		err := ValidateRelease(releasedVersion(t, nsID, "v1.0.0"), nil, nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("rejects a missing pinned target", func(t *testing.T) {
		target := id.NewNamespaceID()
		edge := edgeTo(t, nsID, target, id.NewVersionID())

		err := ValidateRelease(version(t, nsID, "v1.0.0"), []*igmodels.ImportEdge{edge}, map[id.VersionID]*vermodels.Version{})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnreleasedDependency))
	})

	t.Run("rejects a draft pinned target", func(t *testing.T) {
		target := id.NewNamespaceID()
		targetV := version(t, target, "v1.0.0")
		edge := edgeTo(t, nsID, target, targetV.ID)

		err := ValidateRelease(version(t, nsID, "v1.0.0"), []*igmodels.ImportEdge{edge},
			map[id.VersionID]*vermodels.Version{targetV.ID: targetV})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnreleasedDependency))
	})

	t.Run("passes when every target is released", func(t *testing.T) {
		target := id.NewNamespaceID()
		targetV := releasedVersion(t, target, "v1.0.0")
		edge := edgeTo(t, nsID, target, targetV.ID)

		assert.NoError(t, ValidateRelease(version(t, nsID, "v1.0.0"), []*igmodels.ImportEdge{edge},
			map[id.VersionID]*vermodels.Version{targetV.ID: targetV}))
	})

	t.Run("a deprecated target still counts as released", func(t *testing.T) {
		target := id.NewNamespaceID()
		targetV := releasedVersion(t, target, "v1.0.0")
		require.NoError(t, targetV.CanDeprecate())
		targetV.ApplyDeprecate(time.Now())
		edge := edgeTo(t, nsID, target, targetV.ID)

		assert.NoError(t, ValidateRelease(version(t, nsID, "v1.0.0"), []*igmodels.ImportEdge{edge},
			map[id.VersionID]*vermodels.Version{targetV.ID: targetV}))
	})
}

func TestValidateDeprecate(t *testing.T) {
	nsID := id.NewNamespaceID()

	err := ValidateDeprecate(version(t, nsID, "v1.0.0"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	assert.NoError(t, ValidateDeprecate(releasedVersion(t, nsID, "v1.0.0")))
}

func TestValidateClassMutation(t *testing.T) {
	nsID := id.NewNamespaceID()

	assert.NoError(t, ValidateClassMutation(version(t, nsID, "v1.0.0")))

	err := ValidateClassMutation(releasedVersion(t, nsID, "v1.0.0"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeVersionLocked))
}

func TestValidateImport(t *testing.T) {
	source := id.NewNamespaceID()
	target := id.NewNamespaceID()

	t.Run("rejects self import before anything else", func(t *testing.T) {
		err := ValidateImport(source, source, nil, true)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeSelfImport))
	})

	t.Run("rejects a duplicate pair before the cycle check", func(t *testing.T) {
		existing := edgeTo(t, source, target, id.NewVersionID())

		err := ValidateImport(source, target, []*igmodels.ImportEdge{existing}, true)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDuplicateImport))
	})

	t.Run("rejects an edge that closes a cycle", func(t *testing.T) {
		err := ValidateImport(source, target, nil, true)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCycleDetected))
	})

	t.Run("ignores edges to other namespaces", func(t *testing.T) {
		other := edgeTo(t, source, id.NewNamespaceID(), id.NewVersionID())

		assert.NoError(t, ValidateImport(source, target, []*igmodels.ImportEdge{other}, false))
	})
}

func TestValidateStatusTransition(t *testing.T) {
	nsID := id.NewNamespaceID()

	t.Run("draft releases, released deprecates", func(t *testing.T) {
		assert.NoError(t, ValidateStatusTransition(version(t, nsID, "v1.0.0"), vermodels.StatusReleased))
		assert.NoError(t, ValidateStatusTransition(releasedVersion(t, nsID, "v1.0.0"), vermodels.StatusDeprecated))
	})

	t.Run("rejects skipped and backward steps", func(t *testing.T) {
		err := ValidateStatusTransition(version(t, nsID, "v1.0.0"), vermodels.StatusDeprecated)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		err = ValidateStatusTransition(releasedVersion(t, nsID, "v1.0.0"), vermodels.StatusDraft)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("rejects an unknown status value", func(t *testing.T) {
		err := ValidateStatusTransition(version(t, nsID, "v1.0.0"), vermodels.Status("archived"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
