// Package service orchestrates the namespace registry: registration,
// lookups, metadata edits, and (cascade) deletion.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ontoreg/internal/audit"
	"ontoreg/internal/iri"
	"ontoreg/internal/namespace/metrics"
	"ontoreg/internal/namespace/models"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
	"ontoreg/pkg/platform/sentinel"
	"ontoreg/pkg/requestcontext"
)

// Store persists namespaces. Implementations enforce the two uniqueness
// constraints atomically: (name, type) and prefix.
type Store interface {
	CreateIfIdentityAvailable(ctx context.Context, ns *models.Namespace) error
	FindByID(ctx context.Context, nsID id.NamespaceID) (*models.Namespace, error)
	FindByNameType(ctx context.Context, name string, nsType models.Type) (*models.Namespace, error)
	FindByPrefix(ctx context.Context, prefix string) (*models.Namespace, error)
	List(ctx context.Context) ([]*models.Namespace, error)
	Execute(ctx context.Context, nsID id.NamespaceID, validate func(*models.Namespace) error, mutate func(*models.Namespace)) (*models.Namespace, error)
	Delete(ctx context.Context, nsID id.NamespaceID) error
}

// VersionCascade is the slice of the version store the registry needs for
// dependent checks and cascade deletes.
type VersionCascade interface {
	CountByNamespace(ctx context.Context, nsID id.NamespaceID) (int, error)
	DeleteByNamespace(ctx context.Context, nsID id.NamespaceID) error
}

// EdgeCascade is the slice of the import graph the registry needs for
// dependent checks and cascade deletes. DeleteIncident reports the far
// endpoints of the removed edges.
type EdgeCascade interface {
	CountIncident(ctx context.Context, nsID id.NamespaceID) (int, error)
	DeleteIncident(ctx context.Context, nsID id.NamespaceID) ([]id.NamespaceID, error)
}

// GraphInvalidator drops cached reachability closures after a cascade
// rewrites the import graph. Without it the resolver would keep serving
// the pre-delete topology to cycle checks and impact analysis.
type GraphInvalidator interface {
	Invalidate(touched ...id.NamespaceID)
}

// Service owns namespace identity and the registry-level invariants.
type Service struct {
	namespaces Store
	versions   VersionCascade
	edges      EdgeCascade
	graph      GraphInvalidator
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

// New constructs the namespace service. graph may be nil when no resolver
// caches closures over the edge store.
func New(namespaces Store, versions VersionCascade, edges EdgeCascade, graph GraphInvalidator, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		namespaces: namespaces,
		versions:   versions,
		edges:      edges,
		graph:      graph,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRequest carries the identity and metadata for a new namespace.
type RegisterRequest struct {
	Name        string
	Type        models.Type
	Prefix      string
	Owners      []string
	Description string
}

// Register creates a namespace. Fails with DuplicateIdentity when (name,
// type) or prefix already exists.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Namespace, error) {
	path, err := iri.NamespacePath(string(req.Type), req.Name)
	if err != nil {
		return nil, err
	}
	ns, err := models.NewNamespace(id.NewNamespaceID(), req.Name, req.Type, path, req.Prefix, req.Owners, req.Description, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.namespaces.CreateIfIdentityAvailable(ctx, ns); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeDuplicateIdentity, "namespace (name, type) and prefix must be unique").
				With("name", ns.Name).
				With("type", string(ns.Type)).
				With("prefix", ns.Prefix)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register namespace")
	}

	if s.metrics != nil {
		s.metrics.IncrementRegistered()
	}
	s.emit(ctx, audit.ActionNamespaceRegistered, ns.ID, id.VersionID{}, ns.Prefix)
	s.logger.InfoContext(ctx, "namespace registered",
		"namespace_id", ns.ID.String(),
		"name", ns.Name,
		"type", string(ns.Type),
		"prefix", ns.Prefix,
	)
	return ns, nil
}

// Get retrieves a namespace by ID.
func (s *Service) Get(ctx context.Context, nsID id.NamespaceID) (*models.Namespace, error) {
	ns, err := s.namespaces.FindByID(ctx, nsID)
	if err != nil {
		return nil, wrapLookupErr(err, nsID)
	}
	return ns, nil
}

// Find retrieves a namespace by its (name, type) identity.
func (s *Service) Find(ctx context.Context, name string, nsType models.Type) (*models.Namespace, error) {
	ns, err := s.namespaces.FindByNameType(ctx, name, nsType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "namespace %s/%s not found", nsType, name).
				With("name", name).
				With("type", string(nsType))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find namespace")
	}
	return ns, nil
}

// FindByPrefix retrieves a namespace by its globally unique prefix.
func (s *Service) FindByPrefix(ctx context.Context, prefix string) (*models.Namespace, error) {
	ns, err := s.namespaces.FindByPrefix(ctx, prefix)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no namespace with prefix %q", prefix).
				With("prefix", prefix)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find namespace by prefix")
	}
	return ns, nil
}

// List returns all registered namespaces.
func (s *Service) List(ctx context.Context) ([]*models.Namespace, error) {
	namespaces, err := s.namespaces.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list namespaces")
	}
	return namespaces, nil
}

// UpdateMetadata partially updates owners and/or description. Identity
// fields are immutable post-registration; there is no code path that touches
// them.
func (s *Service) UpdateMetadata(ctx context.Context, nsID id.NamespaceID, owners []string, description *string) (*models.Namespace, error) {
	now := requestcontext.Now(ctx)
	ns, err := s.namespaces.Execute(ctx, nsID,
		func(*models.Namespace) error { return nil },
		func(n *models.Namespace) {
			n.ApplyMetadata(owners, description, now)
		},
	)
	if err != nil {
		return nil, wrapLookupErr(err, nsID)
	}
	return ns, nil
}

// MirrorStatus records the informational status derived from the
// namespace's versions. Called by the version store on transitions.
func (s *Service) MirrorStatus(ctx context.Context, nsID id.NamespaceID, status models.Status) error {
	now := requestcontext.Now(ctx)
	_, err := s.namespaces.Execute(ctx, nsID,
		func(*models.Namespace) error { return nil },
		func(n *models.Namespace) {
			n.ApplyStatus(status, now)
		},
	)
	if err != nil {
		return wrapLookupErr(err, nsID)
	}
	return nil
}

// Delete removes a namespace. Without cascade it fails with HasDependents
// while any version or import edge references the namespace; with cascade it
// removes all owned versions (and their classes) and every incident edge.
func (s *Service) Delete(ctx context.Context, nsID id.NamespaceID, cascade bool) error {
	if _, err := s.namespaces.FindByID(ctx, nsID); err != nil {
		return wrapLookupErr(err, nsID)
	}

	versionCount, err := s.versions.CountByNamespace(ctx, nsID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count namespace versions")
	}
	edgeCount, err := s.edges.CountIncident(ctx, nsID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count incident imports")
	}

	if !cascade && (versionCount > 0 || edgeCount > 0) {
		return dErrors.New(dErrors.CodeHasDependents, "namespace still has versions or import edges; delete with cascade to remove them").
			With("namespace_id", nsID.String())
	}

	// Edges first so no edge ever dangles toward a half-deleted namespace.
	touched, err := s.edges.DeleteIncident(ctx, nsID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to cascade import edges")
	}
	if err := s.versions.DeleteByNamespace(ctx, nsID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to cascade versions")
	}
	if err := s.namespaces.Delete(ctx, nsID); err != nil {
		return wrapLookupErr(err, nsID)
	}
	if s.graph != nil {
		s.graph.Invalidate(append(touched, nsID)...)
	}

	s.emit(ctx, audit.ActionNamespaceDeleted, nsID, id.VersionID{}, "")
	s.logger.InfoContext(ctx, "namespace deleted",
		"namespace_id", nsID.String(),
		"cascade", cascade,
		"versions_removed", versionCount,
		"edges_removed", edgeCount,
	)
	return nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, nsID id.NamespaceID, versionID id.VersionID, detail string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		Timestamp:   time.Time{}, // stamped by the publisher
		Actor:       requestcontext.Actor(ctx),
		Action:      action,
		NamespaceID: nsID.String(),
		Detail:      detail,
	}
	if !versionID.IsNil() {
		event.VersionID = versionID.String()
	}
	s.auditor.Emit(ctx, event)
}

func wrapLookupErr(err error, nsID id.NamespaceID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "namespace %s not found", nsID).
			With("namespace_id", nsID.String())
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "namespace store failure")
}
