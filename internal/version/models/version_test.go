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

func newDraft(t *testing.T) *Version {
	t.Helper()
	v, err := NewVersion(id.NewVersionID(), id.NewNamespaceID(), "v1.0.0",
		"https://w3id.org/defense/odras/core/odras/v1.0.0", time.Now())
	require.NoError(t, err)
	return v
}

func TestNewVersion(t *testing.T) {
	t.Run("starts as draft", func(t *testing.T) {
		v := newDraft(t)
		assert.Equal(t, StatusDraft, v.Status)
		assert.True(t, v.IsDraft())
		assert.False(t, v.Immutable())
		assert.Nil(t, v.ReleasedAt)
	})

	t.Run("rejects empty label", func(t *testing.T) {
		_, err := NewVersion(id.NewVersionID(), id.NewNamespaceID(), "  ", "iri", time.Now())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects oversized label", func(t *testing.T) {
		_, err := NewVersion(id.NewVersionID(), id.NewNamespaceID(), strings.Repeat("v", 65), "iri", time.Now())
		require.Error(t, err)
	})
}

func TestLifecycle(t *testing.T) {
	t.Run("release stamps ReleasedAt exactly once", func(t *testing.T) {
		v := newDraft(t)
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		require.NoError(t, v.CanRelease())
		v.ApplyRelease(now)

		assert.True(t, v.IsReleased())
		assert.True(t, v.Immutable())
		require.NotNil(t, v.ReleasedAt)
		assert.Equal(t, now, *v.ReleasedAt)
	})

	t.Run("released version cannot be released again", func(t *testing.T) {
		v := newDraft(t)
		v.ApplyRelease(time.Now())

		err := v.CanRelease()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("draft cannot jump to deprecated", func(t *testing.T) {
		v := newDraft(t)
		err := v.CanDeprecate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("deprecate is terminal", func(t *testing.T) {
		v := newDraft(t)
		release := time.Now()
		v.ApplyRelease(release)
		require.NoError(t, v.CanDeprecate())
		v.ApplyDeprecate(time.Now())

		assert.Equal(t, StatusDeprecated, v.Status)
		assert.True(t, v.Immutable())
		// ReleasedAt survives deprecation.
		require.NotNil(t, v.ReleasedAt)
		assert.Equal(t, release, *v.ReleasedAt)

		assert.Error(t, v.CanRelease())
		assert.Error(t, v.CanDeprecate())
	})
}

func TestStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusDraft, StatusReleased, true},
		{StatusReleased, StatusDeprecated, true},
		{StatusDraft, StatusDeprecated, false},
		{StatusReleased, StatusDraft, false},
		{StatusDeprecated, StatusReleased, false},
		{StatusDeprecated, StatusDraft, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
