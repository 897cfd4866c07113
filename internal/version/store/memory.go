// Package store provides version and class-definition persistence.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"ontoreg/internal/version/models"
	id "ontoreg/pkg/domain"
	"ontoreg/pkg/platform/sentinel"
)

// InMemory keeps versions and their class definitions in maps guarded by a
// RWMutex. Label uniqueness per namespace and local-name uniqueness per
// version match the postgres store's unique indexes.
type InMemory struct {
	mu        sync.RWMutex
	versions  map[id.VersionID]*models.Version
	byLabel   map[string]id.VersionID
	classes   map[id.ClassID]*models.ClassDefinition
	byClass   map[string]id.ClassID               // versionID|localName -> class
	byVersion map[id.VersionID]map[id.ClassID]struct{}
}

// NewInMemory creates an empty in-memory version store.
func NewInMemory() *InMemory {
	return &InMemory{
		versions:  make(map[id.VersionID]*models.Version),
		byLabel:   make(map[string]id.VersionID),
		classes:   make(map[id.ClassID]*models.ClassDefinition),
		byClass:   make(map[string]id.ClassID),
		byVersion: make(map[id.VersionID]map[id.ClassID]struct{}),
	}
}

func labelKey(nsID id.NamespaceID, label string) string {
	return nsID.String() + "|" + strings.ToLower(label)
}

func classKey(versionID id.VersionID, localName string) string {
	return versionID.String() + "|" + localName
}

// Create inserts a version unless its label is taken within the namespace.
func (s *InMemory) Create(_ context.Context, v *models.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := labelKey(v.NamespaceID, v.Label)
	if _, taken := s.byLabel[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	clone := *v
	s.versions[v.ID] = &clone
	s.byLabel[key] = v.ID
	s.byVersion[v.ID] = make(map[id.ClassID]struct{})
	return nil
}

// FindByID retrieves a version copy by ID.
func (s *InMemory) FindByID(_ context.Context, versionID id.VersionID) (*models.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[versionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

// FindByLabel retrieves a version by its label within a namespace.
func (s *InMemory) FindByLabel(ctx context.Context, nsID id.NamespaceID, label string) (*models.Version, error) {
	s.mu.RLock()
	versionID, ok := s.byLabel[labelKey(nsID, label)]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.FindByID(ctx, versionID)
}

// ListByNamespace returns a namespace's versions ordered by creation time.
func (s *InMemory) ListByNamespace(_ context.Context, nsID id.NamespaceID) ([]*models.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Version
	for _, v := range s.versions {
		if v.NamespaceID == nsID {
			clone := *v
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// CountByNamespace returns the number of versions a namespace owns.
func (s *InMemory) CountByNamespace(_ context.Context, nsID id.NamespaceID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, v := range s.versions {
		if v.NamespaceID == nsID {
			count++
		}
	}
	return count, nil
}

// Execute runs validate-then-mutate atomically under the store lock.
func (s *InMemory) Execute(_ context.Context, versionID id.VersionID, validate func(*models.Version) error, mutate func(*models.Version)) (*models.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(v); err != nil {
		return nil, err
	}
	mutate(v)
	clone := *v
	return &clone, nil
}

// DeleteByNamespace removes all versions of a namespace and their classes.
func (s *InMemory) DeleteByNamespace(_ context.Context, nsID id.NamespaceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for versionID, v := range s.versions {
		if v.NamespaceID != nsID {
			continue
		}
		for classID := range s.byVersion[versionID] {
			if c, ok := s.classes[classID]; ok {
				delete(s.byClass, classKey(versionID, c.LocalName))
				delete(s.classes, classID)
			}
		}
		delete(s.byVersion, versionID)
		delete(s.byLabel, labelKey(nsID, v.Label))
		delete(s.versions, versionID)
	}
	return nil
}

// AddClass inserts a class definition unless its local name is taken within
// the version. Lifecycle checks (draft-only) belong to the service; the
// store only guards uniqueness.
func (s *InMemory) AddClass(_ context.Context, c *models.ClassDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.versions[c.VersionID]; !ok {
		return sentinel.ErrNotFound
	}
	key := classKey(c.VersionID, c.LocalName)
	if _, taken := s.byClass[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	clone := *c
	s.classes[c.ID] = &clone
	s.byClass[key] = c.ID
	s.byVersion[c.VersionID][c.ID] = struct{}{}
	return nil
}

// UpdateClass replaces the stored copy of a class definition.
func (s *InMemory) UpdateClass(_ context.Context, c *models.ClassDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *c
	s.classes[c.ID] = &clone
	return nil
}

// RemoveClass deletes a class definition.
func (s *InMemory) RemoveClass(_ context.Context, classID id.ClassID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.classes[classID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byClass, classKey(c.VersionID, c.LocalName))
	delete(s.byVersion[c.VersionID], classID)
	delete(s.classes, classID)
	return nil
}

// FindClass retrieves a class definition by ID.
func (s *InMemory) FindClass(_ context.Context, classID id.ClassID) (*models.ClassDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classes[classID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

// ListClasses returns a version's class definitions ordered by local name.
func (s *InMemory) ListClasses(_ context.Context, versionID id.VersionID) ([]*models.ClassDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.versions[versionID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]*models.ClassDefinition, 0, len(s.byVersion[versionID]))
	for classID := range s.byVersion[versionID] {
		clone := *s.classes[classID]
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocalName < out[j].LocalName })
	return out, nil
}

// ListClassesByNamespace returns every class defined by any version of the
// namespace. The impact analyzer scans this set for references to changed
// classes.
func (s *InMemory) ListClassesByNamespace(_ context.Context, nsID id.NamespaceID) ([]*models.ClassDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ClassDefinition
	for versionID, v := range s.versions {
		if v.NamespaceID != nsID {
			continue
		}
		for classID := range s.byVersion[versionID] {
			clone := *s.classes[classID]
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VersionID != out[j].VersionID {
			return out[i].VersionID.String() < out[j].VersionID.String()
		}
		return out[i].LocalName < out[j].LocalName
	})
	return out, nil
}
