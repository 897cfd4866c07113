// Package store provides namespace persistence: an in-memory implementation
// for tests and development, and a PostgreSQL implementation for production.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"ontoreg/internal/namespace/models"
	id "ontoreg/pkg/domain"
	"ontoreg/pkg/platform/sentinel"
)

// InMemory keeps namespaces in maps guarded by a RWMutex. Uniqueness keys
// (name+type, prefix) are tracked case-insensitively, matching the postgres
// store's citext-style indexes.
type InMemory struct {
	mu         sync.RWMutex
	namespaces map[id.NamespaceID]*models.Namespace
	byIdentity map[string]id.NamespaceID
	byPrefix   map[string]id.NamespaceID
}

// NewInMemory creates an empty in-memory namespace store.
func NewInMemory() *InMemory {
	return &InMemory{
		namespaces: make(map[id.NamespaceID]*models.Namespace),
		byIdentity: make(map[string]id.NamespaceID),
		byPrefix:   make(map[string]id.NamespaceID),
	}
}

func identityKey(name string, nsType models.Type) string {
	return strings.ToLower(name) + "|" + strings.ToLower(string(nsType))
}

func prefixKey(prefix string) string {
	return strings.ToLower(prefix)
}

// CreateIfIdentityAvailable inserts the namespace unless (name, type) or
// prefix is taken. Returns sentinel.ErrAlreadyUsed on either collision.
func (s *InMemory) CreateIfIdentityAvailable(_ context.Context, ns *models.Namespace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity := identityKey(ns.Name, ns.Type)
	prefix := prefixKey(ns.Prefix)
	if _, taken := s.byIdentity[identity]; taken {
		return sentinel.ErrAlreadyUsed
	}
	if _, taken := s.byPrefix[prefix]; taken {
		return sentinel.ErrAlreadyUsed
	}

	clone := *ns
	s.namespaces[ns.ID] = &clone
	s.byIdentity[identity] = ns.ID
	s.byPrefix[prefix] = ns.ID
	return nil
}

// FindByID retrieves a namespace copy by ID.
func (s *InMemory) FindByID(_ context.Context, nsID id.NamespaceID) (*models.Namespace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns, ok := s.namespaces[nsID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *ns
	return &clone, nil
}

// FindByNameType retrieves a namespace by (name, type), case-insensitively.
func (s *InMemory) FindByNameType(ctx context.Context, name string, nsType models.Type) (*models.Namespace, error) {
	s.mu.RLock()
	nsID, ok := s.byIdentity[identityKey(name, nsType)]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.FindByID(ctx, nsID)
}

// FindByPrefix retrieves a namespace by prefix, case-insensitively.
func (s *InMemory) FindByPrefix(ctx context.Context, prefix string) (*models.Namespace, error) {
	s.mu.RLock()
	nsID, ok := s.byPrefix[prefixKey(prefix)]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.FindByID(ctx, nsID)
}

// List returns all namespaces ordered by (type, name).
func (s *InMemory) List(_ context.Context) ([]*models.Namespace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Namespace, 0, len(s.namespaces))
	for _, ns := range s.namespaces {
		clone := *ns
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Execute runs validate-then-mutate atomically under the store lock.
func (s *InMemory) Execute(_ context.Context, nsID id.NamespaceID, validate func(*models.Namespace) error, mutate func(*models.Namespace)) (*models.Namespace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[nsID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(ns); err != nil {
		return nil, err
	}
	mutate(ns)
	clone := *ns
	return &clone, nil
}

// Delete removes the namespace and its uniqueness keys.
func (s *InMemory) Delete(_ context.Context, nsID id.NamespaceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[nsID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byIdentity, identityKey(ns.Name, ns.Type))
	delete(s.byPrefix, prefixKey(ns.Prefix))
	delete(s.namespaces, nsID)
	return nil
}
