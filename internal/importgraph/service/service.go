// Package service owns import edge mutations and neighbor queries.
//
// Edge inserts serialize on a graph-wide key because the cycle check is a
// global reachability question; repoint and remove cannot create cycles and
// lock only the namespaces they touch. Reads go through the resolver's
// snapshot and never block behind mutations.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ontoreg/internal/audit"
	"ontoreg/internal/importgraph/metrics"
	"ontoreg/internal/importgraph/models"
	"ontoreg/internal/importgraph/resolver"
	nsmodels "ontoreg/internal/namespace/models"
	"ontoreg/internal/validation"
	vermodels "ontoreg/internal/version/models"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
	"ontoreg/pkg/platform/locks"
	"ontoreg/pkg/platform/sentinel"
	"ontoreg/pkg/requestcontext"
)

// Store persists import edges.
type Store interface {
	Create(ctx context.Context, e *models.ImportEdge) error
	FindByID(ctx context.Context, edgeID id.ImportEdgeID) (*models.ImportEdge, error)
	Update(ctx context.Context, e *models.ImportEdge) error
	Delete(ctx context.Context, edgeID id.ImportEdgeID) error
	EdgesFrom(ctx context.Context, nsID id.NamespaceID) ([]*models.ImportEdge, error)
	EdgesTo(ctx context.Context, nsID id.NamespaceID) ([]*models.ImportEdge, error)
}

// NamespaceDirectory resolves namespace existence and metadata.
type NamespaceDirectory interface {
	FindByID(ctx context.Context, nsID id.NamespaceID) (*nsmodels.Namespace, error)
}

// VersionDirectory resolves version existence and ownership.
type VersionDirectory interface {
	FindByID(ctx context.Context, versionID id.VersionID) (*vermodels.Version, error)
}

// graphMutationKey is the lock key shared by every mutation whose validity
// depends on global reachability rather than a fixed set of endpoints.
const graphMutationKey = "import-graph"

// Service coordinates edge mutations with the cycle guard.
type Service struct {
	edges      Store
	namespaces NamespaceDirectory
	versions   VersionDirectory
	resolver   *resolver.Resolver
	locks      *locks.Keyed
	logger     *slog.Logger
	metrics    *metrics.Metrics
	auditor    *audit.Publisher
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithMetrics attaches prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit attaches the audit publisher.
func WithAudit(a *audit.Publisher) Option {
	return func(s *Service) { s.auditor = a }
}

// New constructs the import graph service.
func New(edges Store, namespaces NamespaceDirectory, versions VersionDirectory, res *resolver.Resolver, keyed *locks.Keyed, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		edges:      edges,
		namespaces: namespaces,
		versions:   versions,
		resolver:   res,
		locks:      keyed,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddImport declares that source depends on target at the pinned version.
//
// Failure order: SelfImport, NotFound (namespace or version),
// DuplicateImport, CycleDetected.
func (s *Service) AddImport(ctx context.Context, source, target id.NamespaceID, targetVersion id.VersionID) (*models.ImportEdge, error) {
	if err := validation.ValidateImport(source, target, nil, false); err != nil {
		return nil, err
	}

	// Endpoint keys alone cannot uphold acyclicity: two inserts with
	// disjoint endpoint sets can each pass the reachability check and close
	// a cycle together through pre-existing edges. The graph key serializes
	// every check-and-commit section; endpoint keys still coordinate with
	// release, which locks namespaces rather than the whole graph.
	release := s.locks.Acquire(graphMutationKey, source.String(), target.String())
	defer release()

	if _, err := s.namespaces.FindByID(ctx, source); err != nil {
		return nil, namespaceLookupErr(err, source)
	}
	if _, err := s.namespaces.FindByID(ctx, target); err != nil {
		return nil, namespaceLookupErr(err, target)
	}
	if err := s.requireTargetVersion(ctx, target, targetVersion); err != nil {
		return nil, err
	}

	existing, err := s.edges.EdgesFrom(ctx, source)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list imports")
	}
	reaches, err := s.resolver.CanReach(ctx, target, source)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateImport(source, target, existing, reaches); err != nil {
		if s.metrics != nil && dErrors.HasCode(err, dErrors.CodeCycleDetected) {
			s.metrics.IncrementCycleRejections()
		}
		return nil, err
	}

	now := requestcontext.Now(ctx)
	edge, err := models.NewImportEdge(id.NewImportEdgeID(), source, target, targetVersion, now)
	if err != nil {
		return nil, err
	}
	if err := s.edges.Create(ctx, edge); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeDuplicateImport, "an import between these namespaces already exists; repoint it instead").
				With("source_namespace_id", source.String()).
				With("target_namespace_id", target.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create import edge")
	}

	s.resolver.Invalidate(source, target)
	if s.metrics != nil {
		s.metrics.IncrementImportsAdded()
	}
	s.emit(ctx, audit.ActionImportAdded, source, targetVersion, target.String())
	s.logger.InfoContext(ctx, "import added",
		"edge_id", edge.ID.String(),
		"source_namespace_id", source.String(),
		"target_namespace_id", target.String(),
		"target_version_id", targetVersion.String(),
	)
	return edge, nil
}

// RemoveImport deletes an edge.
func (s *Service) RemoveImport(ctx context.Context, edgeID id.ImportEdgeID) error {
	edge, err := s.edges.FindByID(ctx, edgeID)
	if err != nil {
		return edgeLookupErr(err, edgeID)
	}

	release := s.locks.Acquire(edge.SourceNamespaceID.String(), edge.TargetNamespaceID.String())
	defer release()

	if err := s.edges.Delete(ctx, edgeID); err != nil {
		return edgeLookupErr(err, edgeID)
	}

	s.resolver.Invalidate(edge.SourceNamespaceID, edge.TargetNamespaceID)
	if s.metrics != nil {
		s.metrics.IncrementImportsRemoved()
	}
	s.emit(ctx, audit.ActionImportRemoved, edge.SourceNamespaceID, edge.TargetVersionID, edge.TargetNamespaceID.String())
	return nil
}

// UpdateTargetVersion repoints an existing edge to a different version of
// the same target namespace, re-running existence checks. The namespace
// topology is unchanged, so no new cycle can appear.
func (s *Service) UpdateTargetVersion(ctx context.Context, edgeID id.ImportEdgeID, newTargetVersion id.VersionID) (*models.ImportEdge, error) {
	edge, err := s.edges.FindByID(ctx, edgeID)
	if err != nil {
		return nil, edgeLookupErr(err, edgeID)
	}

	release := s.locks.Acquire(edge.SourceNamespaceID.String(), edge.TargetNamespaceID.String())
	defer release()

	// Re-read under the lock in case the edge was repointed concurrently.
	edge, err = s.edges.FindByID(ctx, edgeID)
	if err != nil {
		return nil, edgeLookupErr(err, edgeID)
	}
	if err := s.requireTargetVersion(ctx, edge.TargetNamespaceID, newTargetVersion); err != nil {
		return nil, err
	}

	if err := edge.Repoint(newTargetVersion, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.edges.Update(ctx, edge); err != nil {
		return nil, edgeLookupErr(err, edgeID)
	}

	s.emit(ctx, audit.ActionImportRepointed, edge.SourceNamespaceID, newTargetVersion, edge.TargetNamespaceID.String())
	return edge, nil
}

// EdgesFrom returns the direct imports of a namespace.
func (s *Service) EdgesFrom(ctx context.Context, nsID id.NamespaceID) ([]*models.ImportEdge, error) {
	if _, err := s.namespaces.FindByID(ctx, nsID); err != nil {
		return nil, namespaceLookupErr(err, nsID)
	}
	edges, err := s.edges.EdgesFrom(ctx, nsID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list imports")
	}
	return edges, nil
}

// EdgesTo returns the direct importers of a namespace.
func (s *Service) EdgesTo(ctx context.Context, nsID id.NamespaceID) ([]*models.ImportEdge, error) {
	if _, err := s.namespaces.FindByID(ctx, nsID); err != nil {
		return nil, namespaceLookupErr(err, nsID)
	}
	edges, err := s.edges.EdgesTo(ctx, nsID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list importers")
	}
	return edges, nil
}

// Ancestors returns every namespace that transitively imports nsID.
func (s *Service) Ancestors(ctx context.Context, nsID id.NamespaceID) ([]*nsmodels.Namespace, error) {
	return s.resolveClosure(ctx, nsID, s.resolver.Ancestors)
}

// Descendants returns every namespace nsID transitively imports.
func (s *Service) Descendants(ctx context.Context, nsID id.NamespaceID) ([]*nsmodels.Namespace, error) {
	return s.resolveClosure(ctx, nsID, s.resolver.Descendants)
}

func (s *Service) resolveClosure(ctx context.Context, nsID id.NamespaceID, closure func(context.Context, id.NamespaceID) (map[id.NamespaceID]struct{}, error)) ([]*nsmodels.Namespace, error) {
	if _, err := s.namespaces.FindByID(ctx, nsID); err != nil {
		return nil, namespaceLookupErr(err, nsID)
	}

	start := time.Now()
	set, err := closure(ctx, nsID)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveResolve(start)
	}

	out := make([]*nsmodels.Namespace, 0, len(set))
	for member := range set {
		ns, err := s.namespaces.FindByID(ctx, member)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				// Edge deleted concurrently with the traversal; skip.
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve closure member")
		}
		out = append(out, ns)
	}
	return out, nil
}

func (s *Service) requireTargetVersion(ctx context.Context, target id.NamespaceID, versionID id.VersionID) error {
	version, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "target version %s not found", versionID).
				With("version_id", versionID.String())
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve target version")
	}
	if version.NamespaceID != target {
		return dErrors.New(dErrors.CodeNotFound, "version does not belong to the target namespace").
			With("version_id", versionID.String()).
			With("target_namespace_id", target.String())
	}
	return nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, nsID id.NamespaceID, versionID id.VersionID, detail string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Emit(ctx, audit.Event{
		Actor:       requestcontext.Actor(ctx),
		Action:      action,
		NamespaceID: nsID.String(),
		VersionID:   versionID.String(),
		Detail:      detail,
	})
}

func namespaceLookupErr(err error, nsID id.NamespaceID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "namespace %s not found", nsID).
			With("namespace_id", nsID.String())
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "namespace lookup failure")
}

func edgeLookupErr(err error, edgeID id.ImportEdgeID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "import edge %s not found", edgeID).
			With("edge_id", edgeID.String())
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "import edge store failure")
}
