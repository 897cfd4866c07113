// Package store provides import edge persistence.
package store

import (
	"context"
	"sort"
	"sync"

	"ontoreg/internal/importgraph/models"
	id "ontoreg/pkg/domain"
	"ontoreg/pkg/platform/sentinel"
)

// InMemory keeps import edges in maps guarded by a RWMutex. The (source,
// target) pair uniqueness matches the postgres store's unique constraint.
type InMemory struct {
	mu     sync.RWMutex
	edges  map[id.ImportEdgeID]*models.ImportEdge
	byPair map[string]id.ImportEdgeID
}

// NewInMemory creates an empty in-memory edge store.
func NewInMemory() *InMemory {
	return &InMemory{
		edges:  make(map[id.ImportEdgeID]*models.ImportEdge),
		byPair: make(map[string]id.ImportEdgeID),
	}
}

func pairKey(source, target id.NamespaceID) string {
	return source.String() + "|" + target.String()
}

// Create inserts an edge unless the (source, target) pair already exists.
func (s *InMemory) Create(_ context.Context, e *models.ImportEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(e.SourceNamespaceID, e.TargetNamespaceID)
	if _, taken := s.byPair[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	clone := *e
	s.edges[e.ID] = &clone
	s.byPair[key] = e.ID
	return nil
}

// FindByID retrieves an edge copy by ID.
func (s *InMemory) FindByID(_ context.Context, edgeID id.ImportEdgeID) (*models.ImportEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.edges[edgeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *e
	return &clone, nil
}

// Update replaces the stored copy of an edge (used for repointing).
func (s *InMemory) Update(_ context.Context, e *models.ImportEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edges[e.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *e
	s.edges[e.ID] = &clone
	return nil
}

// Delete removes an edge.
func (s *InMemory) Delete(_ context.Context, edgeID id.ImportEdgeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.edges[edgeID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byPair, pairKey(e.SourceNamespaceID, e.TargetNamespaceID))
	delete(s.edges, edgeID)
	return nil
}

// EdgesFrom returns edges whose source is the given namespace.
func (s *InMemory) EdgesFrom(_ context.Context, nsID id.NamespaceID) ([]*models.ImportEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ImportEdge
	for _, e := range s.edges {
		if e.SourceNamespaceID == nsID {
			clone := *e
			out = append(out, &clone)
		}
	}
	sortEdges(out)
	return out, nil
}

// EdgesTo returns edges whose target is the given namespace.
func (s *InMemory) EdgesTo(_ context.Context, nsID id.NamespaceID) ([]*models.ImportEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ImportEdge
	for _, e := range s.edges {
		if e.TargetNamespaceID == nsID {
			clone := *e
			out = append(out, &clone)
		}
	}
	sortEdges(out)
	return out, nil
}

// All returns a snapshot of every edge. The resolver traverses this
// snapshot so reads never block behind mutations.
func (s *InMemory) All(_ context.Context) ([]*models.ImportEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ImportEdge, 0, len(s.edges))
	for _, e := range s.edges {
		clone := *e
		out = append(out, &clone)
	}
	sortEdges(out)
	return out, nil
}

// CountIncident returns the number of edges touching the namespace at
// either endpoint.
func (s *InMemory) CountIncident(_ context.Context, nsID id.NamespaceID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, e := range s.edges {
		if e.SourceNamespaceID == nsID || e.TargetNamespaceID == nsID {
			count++
		}
	}
	return count, nil
}

// DeleteIncident removes every edge touching the namespace at either
// endpoint (cascade from a namespace delete). It returns the far endpoints
// of the removed edges so callers can drop cached reachability closures.
func (s *InMemory) DeleteIncident(_ context.Context, nsID id.NamespaceID) ([]id.NamespaceID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var touched []id.NamespaceID
	for edgeID, e := range s.edges {
		if e.SourceNamespaceID == nsID || e.TargetNamespaceID == nsID {
			delete(s.byPair, pairKey(e.SourceNamespaceID, e.TargetNamespaceID))
			delete(s.edges, edgeID)
			if e.SourceNamespaceID != nsID {
				touched = append(touched, e.SourceNamespaceID)
			}
			if e.TargetNamespaceID != nsID {
				touched = append(touched, e.TargetNamespaceID)
			}
		}
	}
	return touched, nil
}

func sortEdges(edges []*models.ImportEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].SourceNamespaceID != edges[j].SourceNamespaceID {
			return edges[i].SourceNamespaceID.String() < edges[j].SourceNamespaceID.String()
		}
		return edges[i].TargetNamespaceID.String() < edges[j].TargetNamespaceID.String()
	})
}
