// Package service orchestrates version lifecycle and class definitions.
//
// Release and deprecate serialize on the owning namespace (and, for release,
// on its import targets) so lifecycle checks observe a consistent subgraph.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ontoreg/internal/audit"
	igmodels "ontoreg/internal/importgraph/models"
	"ontoreg/internal/iri"
	nsmodels "ontoreg/internal/namespace/models"
	"ontoreg/internal/validation"
	"ontoreg/internal/version/metrics"
	"ontoreg/internal/version/models"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
	"ontoreg/pkg/platform/locks"
	"ontoreg/pkg/platform/sentinel"
	"ontoreg/pkg/requestcontext"
)

// Store persists versions and their class definitions.
type Store interface {
	Create(ctx context.Context, v *models.Version) error
	FindByID(ctx context.Context, versionID id.VersionID) (*models.Version, error)
	FindByLabel(ctx context.Context, nsID id.NamespaceID, label string) (*models.Version, error)
	ListByNamespace(ctx context.Context, nsID id.NamespaceID) ([]*models.Version, error)
	Execute(ctx context.Context, versionID id.VersionID, validate func(*models.Version) error, mutate func(*models.Version)) (*models.Version, error)
	AddClass(ctx context.Context, c *models.ClassDefinition) error
	UpdateClass(ctx context.Context, c *models.ClassDefinition) error
	RemoveClass(ctx context.Context, classID id.ClassID) error
	FindClass(ctx context.Context, classID id.ClassID) (*models.ClassDefinition, error)
	ListClasses(ctx context.Context, versionID id.VersionID) ([]*models.ClassDefinition, error)
}

// NamespaceDirectory resolves namespace identity for IRI minting.
type NamespaceDirectory interface {
	FindByID(ctx context.Context, nsID id.NamespaceID) (*nsmodels.Namespace, error)
}

// StatusMirror receives the informational namespace status after a version
// transition. Implemented by the namespace service.
type StatusMirror interface {
	MirrorStatus(ctx context.Context, nsID id.NamespaceID, status nsmodels.Status) error
}

// EdgeDirectory supplies the owning namespace's import edges for release
// validation.
type EdgeDirectory interface {
	EdgesFrom(ctx context.Context, nsID id.NamespaceID) ([]*igmodels.ImportEdge, error)
}

// ImpactAdvisor is notified after a deprecation so dependents can be told.
// Advisory only: failures are logged, never surfaced to the caller.
type ImpactAdvisor interface {
	ReportDeprecation(ctx context.Context, nsID id.NamespaceID, versionID id.VersionID)
}

// Service owns the version lifecycle state machine.
type Service struct {
	versions   Store
	namespaces NamespaceDirectory
	edges      EdgeDirectory
	mirror     StatusMirror
	locks      *locks.Keyed
	logger     *slog.Logger
	metrics    *metrics.Metrics
	auditor    *audit.Publisher
	advisor    ImpactAdvisor
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

// WithImpactAdvisor attaches the deprecation impact reporter.
func WithImpactAdvisor(adv ImpactAdvisor) Option {
	return func(s *Service) { s.advisor = adv }
}

// New constructs the version service.
func New(versions Store, namespaces NamespaceDirectory, edges EdgeDirectory, mirror StatusMirror, keyed *locks.Keyed, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		versions:   versions,
		namespaces: namespaces,
		edges:      edges,
		mirror:     mirror,
		locks:      keyed,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateVersion creates a draft version of a namespace. Fails with
// DuplicateVersion when the label already exists for that namespace.
func (s *Service) CreateVersion(ctx context.Context, nsID id.NamespaceID, label string) (*models.Version, error) {
	ns, err := s.namespaces.FindByID(ctx, nsID)
	if err != nil {
		return nil, namespaceLookupErr(err, nsID)
	}

	versionIRI, err := iri.VersionIRI(string(ns.Type), ns.Name, label)
	if err != nil {
		return nil, err
	}
	version, err := models.NewVersion(id.NewVersionID(), nsID, label, versionIRI, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.versions.Create(ctx, version); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Newf(dErrors.CodeDuplicateVersion, "version %s already exists for namespace %s", version.Label, ns.Name).
				With("namespace_id", nsID.String()).
				With("version", version.Label)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create version")
	}

	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	s.emit(ctx, audit.ActionVersionCreated, nsID, version.ID, version.Label)
	s.logger.InfoContext(ctx, "version created",
		"version_id", version.ID.String(),
		"namespace_id", nsID.String(),
		"version", version.Label,
	)
	return version, nil
}

// GetVersion retrieves a version by ID.
func (s *Service) GetVersion(ctx context.Context, versionID id.VersionID) (*models.Version, error) {
	version, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		return nil, versionLookupErr(err, versionID)
	}
	return version, nil
}

// ListVersions returns a namespace's versions in creation order.
func (s *Service) ListVersions(ctx context.Context, nsID id.NamespaceID) ([]*models.Version, error) {
	if _, err := s.namespaces.FindByID(ctx, nsID); err != nil {
		return nil, namespaceLookupErr(err, nsID)
	}
	versions, err := s.versions.ListByNamespace(ctx, nsID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list versions")
	}
	return versions, nil
}

// ClassRequest carries the definition of a new or updated class.
type ClassRequest struct {
	LocalName  string
	Label      string
	Comment    string
	References []string
}

// AddClass defines a class on a draft version. Fails with VersionLocked when
// the version is released or deprecated, DuplicateClassName on local-name
// collision.
func (s *Service) AddClass(ctx context.Context, versionID id.VersionID, req ClassRequest) (*models.ClassDefinition, error) {
	version, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		return nil, versionLookupErr(err, versionID)
	}
	if err := validation.ValidateClassMutation(version); err != nil {
		return nil, err
	}
	ns, err := s.namespaces.FindByID(ctx, version.NamespaceID)
	if err != nil {
		return nil, namespaceLookupErr(err, version.NamespaceID)
	}

	classIRI, err := iri.ClassIRI(string(ns.Type), ns.Name, version.Label, req.LocalName)
	if err != nil {
		return nil, err
	}
	class, err := models.NewClassDefinition(id.NewClassID(), versionID, req.LocalName, req.Label, classIRI, req.Comment, req.References, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.versions.AddClass(ctx, class); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Newf(dErrors.CodeDuplicateClassName, "class %s already defined in version %s", class.LocalName, version.Label).
				With("version_id", versionID.String()).
				With("local_name", class.LocalName)
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, versionLookupErr(err, versionID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add class")
	}
	return class, nil
}

// UpdateClass edits the mutable fields of a class on a draft version.
func (s *Service) UpdateClass(ctx context.Context, classID id.ClassID, label, comment *string, references []string) (*models.ClassDefinition, error) {
	class, err := s.versions.FindClass(ctx, classID)
	if err != nil {
		return nil, classLookupErr(err, classID)
	}
	version, err := s.versions.FindByID(ctx, class.VersionID)
	if err != nil {
		return nil, versionLookupErr(err, class.VersionID)
	}
	if err := validation.ValidateClassMutation(version); err != nil {
		return nil, err
	}

	class.ApplyUpdate(label, comment, references, requestcontext.Now(ctx))
	if err := s.versions.UpdateClass(ctx, class); err != nil {
		return nil, classLookupErr(err, classID)
	}
	return class, nil
}

// RemoveClass deletes a class from a draft version.
func (s *Service) RemoveClass(ctx context.Context, classID id.ClassID) error {
	class, err := s.versions.FindClass(ctx, classID)
	if err != nil {
		return classLookupErr(err, classID)
	}
	version, err := s.versions.FindByID(ctx, class.VersionID)
	if err != nil {
		return versionLookupErr(err, class.VersionID)
	}
	if err := validation.ValidateClassMutation(version); err != nil {
		return err
	}
	if err := s.versions.RemoveClass(ctx, classID); err != nil {
		return classLookupErr(err, classID)
	}
	return nil
}

// ListClasses returns a version's class definitions.
func (s *Service) ListClasses(ctx context.Context, versionID id.VersionID) ([]*models.ClassDefinition, error) {
	classes, err := s.versions.ListClasses(ctx, versionID)
	if err != nil {
		return nil, versionLookupErr(err, versionID)
	}
	return classes, nil
}

// Release transitions a draft version to released after the validation
// engine confirms every import target of the owning namespace is non-draft.
// Sets ReleasedAt exactly once and mirrors the namespace status.
func (s *Service) Release(ctx context.Context, versionID id.VersionID) (*models.Version, error) {
	start := time.Now()
	version, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		return nil, versionLookupErr(err, versionID)
	}
	if err := validation.ValidateStatusTransition(version, models.StatusReleased); err != nil {
		return nil, err
	}

	// Lock the owning namespace and every import target so target statuses
	// cannot shift mid-validation.
	edges, err := s.edges.EdgesFrom(ctx, version.NamespaceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load import edges")
	}
	keys := []string{version.NamespaceID.String()}
	for _, edge := range edges {
		keys = append(keys, edge.TargetNamespaceID.String())
	}
	release := s.locks.Acquire(keys...)
	defer release()

	// Re-read edges under the lock; the set may have changed.
	edges, err = s.edges.EdgesFrom(ctx, version.NamespaceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load import edges")
	}
	targets := make(map[id.VersionID]*models.Version, len(edges))
	for _, edge := range edges {
		target, err := s.versions.FindByID(ctx, edge.TargetVersionID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue // surfaces as UnreleasedDependency in validation
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve import target version")
		}
		targets[target.ID] = target
	}

	now := requestcontext.Now(ctx)
	released, err := s.versions.Execute(ctx, versionID,
		func(v *models.Version) error {
			return validation.ValidateRelease(v, edges, targets)
		},
		func(v *models.Version) {
			v.ApplyRelease(now)
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, versionLookupErr(err, versionID)
		}
		return nil, err
	}

	s.mirrorNamespaceStatus(ctx, released.NamespaceID)
	if s.metrics != nil {
		s.metrics.IncrementReleased()
		s.metrics.ObserveRelease(start)
	}
	s.emit(ctx, audit.ActionVersionReleased, released.NamespaceID, released.ID, released.Label)
	s.logger.InfoContext(ctx, "version released",
		"version_id", released.ID.String(),
		"namespace_id", released.NamespaceID.String(),
		"version", released.Label,
	)
	return released, nil
}

// Deprecate transitions a released version to deprecated and notifies the
// impact advisor. The advisory report never blocks the transition.
func (s *Service) Deprecate(ctx context.Context, versionID id.VersionID) (*models.Version, error) {
	version, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		return nil, versionLookupErr(err, versionID)
	}
	if err := validation.ValidateStatusTransition(version, models.StatusDeprecated); err != nil {
		return nil, err
	}

	release := s.locks.Acquire(version.NamespaceID.String())
	defer release()

	now := requestcontext.Now(ctx)
	deprecated, err := s.versions.Execute(ctx, versionID,
		func(v *models.Version) error {
			return validation.ValidateDeprecate(v)
		},
		func(v *models.Version) {
			v.ApplyDeprecate(now)
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, versionLookupErr(err, versionID)
		}
		return nil, err
	}

	s.mirrorNamespaceStatus(ctx, deprecated.NamespaceID)
	if s.metrics != nil {
		s.metrics.IncrementDeprecated()
	}
	s.emit(ctx, audit.ActionVersionDeprecated, deprecated.NamespaceID, deprecated.ID, deprecated.Label)

	if s.advisor != nil {
		s.advisor.ReportDeprecation(ctx, deprecated.NamespaceID, deprecated.ID)
	}
	return deprecated, nil
}

// mirrorNamespaceStatus recomputes the informational namespace status from
// the collective version states: any released version wins, else any
// deprecated, else draft.
func (s *Service) mirrorNamespaceStatus(ctx context.Context, nsID id.NamespaceID) {
	versions, err := s.versions.ListByNamespace(ctx, nsID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to recompute namespace status",
			"namespace_id", nsID.String(),
			"error", err.Error(),
		)
		return
	}

	status := nsmodels.StatusDraft
	hasDeprecated := false
	for _, v := range versions {
		switch v.Status {
		case models.StatusReleased:
			status = nsmodels.StatusReleased
		case models.StatusDeprecated:
			hasDeprecated = true
		}
	}
	if status != nsmodels.StatusReleased && hasDeprecated {
		status = nsmodels.StatusDeprecated
	}

	if err := s.mirror.MirrorStatus(ctx, nsID, status); err != nil {
		s.logger.WarnContext(ctx, "failed to mirror namespace status",
			"namespace_id", nsID.String(),
			"status", string(status),
			"error", err.Error(),
		)
	}
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

func versionLookupErr(err error, versionID id.VersionID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "version %s not found", versionID).
			With("version_id", versionID.String())
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "version store failure")
}

func classLookupErr(err error, classID id.ClassID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "class %s not found", classID).
			With("class_id", classID.String())
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "class store failure")
}
