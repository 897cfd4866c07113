package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches the direct code", func(t *testing.T) {
		err := New(CodeNotFound, "missing")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches a wrapped code", func(t *testing.T) {
		inner := New(CodeCycleDetected, "would close a loop")
		outer := Wrap(inner, CodeConflict, "import rejected")
		assert.True(t, HasCode(outer, CodeConflict))
		assert.True(t, HasCode(outer, CodeCycleDetected))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("context: %w", New(CodeVersionLocked, "released"))
		assert.True(t, HasCode(err, CodeVersionLocked))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWith(t *testing.T) {
	err := New(CodeUnreleasedDependency, "target still draft").
		With("namespace_id", "abc").
		With("version", "v1.0.0")

	fields := FieldsOf(err)
	require.NotNil(t, fields)
	assert.Equal(t, "abc", fields["namespace_id"])
	assert.Equal(t, "v1.0.0", fields["version"])
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeSelfImport, CodeOf(New(CodeSelfImport, "no")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "store failure")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
