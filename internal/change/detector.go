// Package change diffs the class sets of two versions of a namespace.
//
// The detector is a pure function over stored data. Because released class
// sets are immutable, a diff between two non-draft versions is stable
// forever and is cached by the version-ID pair.
package change

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"ontoreg/internal/version/models"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
	"ontoreg/pkg/platform/sentinel"
)

// VersionSource supplies versions and their class sets.
type VersionSource interface {
	FindByID(ctx context.Context, versionID id.VersionID) (*models.Version, error)
	ListClasses(ctx context.Context, versionID id.VersionID) ([]*models.ClassDefinition, error)
}

// Cache stores immutable diff results. Implemented by the redis cache; a nil
// Cache disables caching.
type Cache interface {
	Get(ctx context.Context, oldID, newID id.VersionID) (*ChangeSet, bool)
	Set(ctx context.Context, cs *ChangeSet)
}

// Detector computes change sets.
type Detector struct {
	versions VersionSource
	cache    Cache
	logger   *slog.Logger
}

// NewDetector constructs a change detector. cache may be nil.
func NewDetector(versions VersionSource, cache Cache, logger *slog.Logger) *Detector {
	return &Detector{versions: versions, cache: cache, logger: logger}
}

// Diff compares the class sets of two versions of the same namespace,
// keyed by local name. Fails with CrossNamespaceDiff when the versions
// belong to different namespaces.
func (d *Detector) Diff(ctx context.Context, oldID, newID id.VersionID) (*ChangeSet, error) {
	oldVersion, err := d.findVersion(ctx, oldID)
	if err != nil {
		return nil, err
	}
	newVersion, err := d.findVersion(ctx, newID)
	if err != nil {
		return nil, err
	}
	if oldVersion.NamespaceID != newVersion.NamespaceID {
		return nil, dErrors.New(dErrors.CodeCrossNamespaceDiff, "versions belong to different namespaces").
			With("old_version_id", oldID.String()).
			With("new_version_id", newID.String()).
			With("old_namespace_id", oldVersion.NamespaceID.String()).
			With("new_namespace_id", newVersion.NamespaceID.String())
	}

	cacheable := oldVersion.Immutable() && newVersion.Immutable()
	if cacheable && d.cache != nil {
		if cached, ok := d.cache.Get(ctx, oldID, newID); ok {
			return cached, nil
		}
	}

	oldClasses, err := d.versions.ListClasses(ctx, oldID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load old class set")
	}
	newClasses, err := d.versions.ListClasses(ctx, newID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load new class set")
	}

	cs := compute(oldVersion.NamespaceID, oldID, newID, oldClasses, newClasses)
	if cacheable && d.cache != nil {
		d.cache.Set(ctx, cs)
	}
	return cs, nil
}

func (d *Detector) findVersion(ctx context.Context, versionID id.VersionID) (*models.Version, error) {
	v, err := d.versions.FindByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "version %s not found", versionID).
				With("version_id", versionID.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "version lookup failure")
	}
	return v, nil
}

// compute builds the three disjoint lists. Diff(a, b) and Diff(b, a) yield
// added/removed swapped and identical modified sets.
func compute(nsID id.NamespaceID, oldID, newID id.VersionID, oldClasses, newClasses []*models.ClassDefinition) *ChangeSet {
	oldByName := make(map[string]*models.ClassDefinition, len(oldClasses))
	for _, c := range oldClasses {
		oldByName[c.LocalName] = c
	}
	newByName := make(map[string]*models.ClassDefinition, len(newClasses))
	for _, c := range newClasses {
		newByName[c.LocalName] = c
	}

	cs := &ChangeSet{
		NamespaceID:  nsID,
		OldVersionID: oldID,
		NewVersionID: newID,
	}
	for name, newClass := range newByName {
		oldClass, existed := oldByName[name]
		if !existed {
			cs.Added = append(cs.Added, toChange(newClass))
			continue
		}
		if !oldClass.SameDefinition(newClass) {
			cs.Modified = append(cs.Modified, toChange(newClass))
		}
	}
	for name, oldClass := range oldByName {
		if _, kept := newByName[name]; !kept {
			cs.Removed = append(cs.Removed, toChange(oldClass))
		}
	}

	sortChanges(cs.Added)
	sortChanges(cs.Removed)
	sortChanges(cs.Modified)
	return cs
}

func toChange(c *models.ClassDefinition) ClassChange {
	return ClassChange{LocalName: c.LocalName, Label: c.Label, IRI: c.IRI}
}

func sortChanges(changes []ClassChange) {
	sort.Slice(changes, func(i, j int) bool { return changes[i].LocalName < changes[j].LocalName })
}
