package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
)

func TestNewNamespace(t *testing.T) {
	now := time.Now()

	t.Run("constructs a draft namespace", func(t *testing.T) {
		ns, err := NewNamespace(id.NewNamespaceID(), "odras", TypeCore, "core/odras", "odras",
			[]string{"b@example.mil", "a@example.mil", "a@example.mil"}, "base ontology", now)
		require.NoError(t, err)
		assert.Equal(t, StatusDraft, ns.Status)
		assert.Equal(t, []string{"a@example.mil", "b@example.mil"}, ns.Owners)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewNamespace(id.NewNamespaceID(), "  ", TypeCore, "core/x", "x", nil, "", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects oversized name", func(t *testing.T) {
		_, err := NewNamespace(id.NewNamespaceID(), strings.Repeat("n", 129), TypeCore, "core/x", "x", nil, "", now)
		require.Error(t, err)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewNamespace(id.NewNamespaceID(), "odras", Type("widget"), "widget/odras", "odras", nil, "", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := NewNamespace(id.NewNamespaceID(), "odras", TypeCore, "core/odras", " ", nil, "", now)
		require.Error(t, err)
	})
}

func TestApplyMetadata(t *testing.T) {
	now := time.Now()
	ns, err := NewNamespace(id.NewNamespaceID(), "odras", TypeCore, "core/odras", "odras", nil, "original", now)
	require.NoError(t, err)

	t.Run("nil owners and description are no-ops", func(t *testing.T) {
		ns.ApplyMetadata(nil, nil, now.Add(time.Minute))
		assert.Equal(t, "original", ns.Description)
		assert.Empty(t, ns.Owners)
	})

	t.Run("identity fields are never touched", func(t *testing.T) {
		desc := "updated"
		ns.ApplyMetadata([]string{"owner@example.mil"}, &desc, now.Add(2*time.Minute))
		assert.Equal(t, "updated", ns.Description)
		assert.Equal(t, []string{"owner@example.mil"}, ns.Owners)
		assert.Equal(t, "odras", ns.Name)
		assert.Equal(t, TypeCore, ns.Type)
		assert.Equal(t, "core/odras", ns.Path)
		assert.Equal(t, "odras", ns.Prefix)
	})
}

func TestTypeValid(t *testing.T) {
	for _, nsType := range []Type{TypeCore, TypeDomain, TypeProgram, TypeProject, TypeIndustry, TypeVocab, TypeShapes, TypeAlign} {
		assert.True(t, nsType.Valid(), string(nsType))
	}
	assert.False(t, Type("").Valid())
	assert.False(t, Type("misc").Valid())
}
