// Package impact reports which dependent namespaces a change set affects.
//
// Analysis is advisory and read-only: it walks the ancestor closure of the
// changed namespace and, per ancestor, checks the explicit class-reference
// index for usage of removed or modified classes. It never blocks a
// mutation; only release() enforces a hard rule, and only for unreleased
// dependencies.
package impact

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ontoreg/internal/change"
	igmodels "ontoreg/internal/importgraph/models"
	"ontoreg/internal/impact/metrics"
	"ontoreg/internal/iri"
	nsmodels "ontoreg/internal/namespace/models"
	vermodels "ontoreg/internal/version/models"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
	"ontoreg/pkg/platform/sentinel"
)

// maxConcurrentInspections bounds the errgroup fan-out over ancestors.
const maxConcurrentInspections = 8

// Severity classifies how a change set lands on one dependent.
type Severity string

const (
	// SeverityBreaking: the dependent references a removed or modified class.
	SeverityBreaking Severity = "breaking"
	// SeverityInformational: the dependent uses the namespace but only
	// additions (or untouched classes) are involved.
	SeverityInformational Severity = "informational"
	// SeverityUnaffected: an import edge exists but no reference into the
	// changed namespace was found.
	SeverityUnaffected Severity = "unaffected"
)

// Entry is the verdict for one ancestor namespace.
type Entry struct {
	Namespace       *nsmodels.Namespace `json:"namespace"`
	Severity        Severity            `json:"severity"`
	AffectedClasses []string            `json:"affected_classes,omitempty"`
}

// Report is the full impact analysis result.
type Report struct {
	NamespaceID  id.NamespaceID `json:"namespace_id"`
	OldVersionID id.VersionID   `json:"old_version_id"`
	NewVersionID id.VersionID   `json:"new_version_id"`
	Entries      []Entry        `json:"entries"`
}

// Closure supplies the ancestor set of the changed namespace.
type Closure interface {
	Ancestors(ctx context.Context, nsID id.NamespaceID) (map[id.NamespaceID]struct{}, error)
}

// NamespaceDirectory resolves namespace metadata.
type NamespaceDirectory interface {
	FindByID(ctx context.Context, nsID id.NamespaceID) (*nsmodels.Namespace, error)
}

// EdgeDirectory supplies edges for direct-importer inspection.
type EdgeDirectory interface {
	EdgesFrom(ctx context.Context, nsID id.NamespaceID) ([]*igmodels.ImportEdge, error)
	EdgesTo(ctx context.Context, nsID id.NamespaceID) ([]*igmodels.ImportEdge, error)
}

// ClassIndex supplies the class definitions (and their reference lists) of a
// dependent namespace.
type ClassIndex interface {
	ListClassesByNamespace(ctx context.Context, nsID id.NamespaceID) ([]*vermodels.ClassDefinition, error)
}

// Analyzer walks the dependency closure and produces impact reports.
type Analyzer struct {
	closure    Closure
	namespaces NamespaceDirectory
	edges      EdgeDirectory
	classes    ClassIndex
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures optional analyzer dependencies.
type Option func(*Analyzer)

// WithMetrics attaches prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// New constructs the impact analyzer.
func New(closure Closure, namespaces NamespaceDirectory, edges EdgeDirectory, classes ClassIndex, logger *slog.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		closure:    closure,
		namespaces: namespaces,
		edges:      edges,
		classes:    classes,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeImpact reports, per ancestor of the changed namespace, whether the
// change set breaks it. Ancestors are inspected concurrently with shared
// cancellation.
func (a *Analyzer) AnalyzeImpact(ctx context.Context, cs *change.ChangeSet) (*Report, error) {
	start := time.Now()

	changed, err := a.namespaces.FindByID(ctx, cs.NamespaceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "namespace %s not found", cs.NamespaceID).
				With("namespace_id", cs.NamespaceID.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "namespace lookup failure")
	}

	ancestors, err := a.closure.Ancestors(ctx, cs.NamespaceID)
	if err != nil {
		return nil, err
	}

	affected := cs.AffectedLocalNames()
	// References into any version of the changed namespace share this
	// prefix; the version segment between prefix and fragment varies.
	refPrefix := iri.Base + "/" + changed.Path + "/"

	report := &Report{
		NamespaceID:  cs.NamespaceID,
		OldVersionID: cs.OldVersionID,
		NewVersionID: cs.NewVersionID,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentInspections)

	for ancestorID := range ancestors {
		g.Go(func() error {
			entry, err := a.inspect(gctx, ancestorID, cs, affected, refPrefix)
			if err != nil {
				return err
			}
			if entry == nil {
				return nil
			}
			mu.Lock()
			report.Entries = append(report.Entries, *entry)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(report.Entries, func(i, j int) bool {
		return report.Entries[i].Namespace.Name < report.Entries[j].Namespace.Name
	})
	if a.metrics != nil {
		a.metrics.ObserveAnalyze(start)
	}
	return report, nil
}

// inspect produces the verdict for one ancestor. Severity rules:
//   - breaking: any class of the ancestor references a removed or modified
//     class of the changed namespace
//   - informational: the ancestor references the changed namespace (only
//     untouched classes), or the change set only adds classes
//   - unaffected: no reference into the changed namespace at all
func (a *Analyzer) inspect(ctx context.Context, ancestorID id.NamespaceID, cs *change.ChangeSet, affected map[string]struct{}, refPrefix string) (*Entry, error) {
	ancestor, err := a.namespaces.FindByID(ctx, ancestorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Deleted concurrently with the traversal; skip.
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "ancestor lookup failure")
	}

	classes, err := a.classes.ListClassesByNamespace(ctx, ancestorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dependent classes")
	}

	usesNamespace := false
	var broken []string
	seen := make(map[string]struct{})
	for _, class := range classes {
		for _, ref := range class.References {
			localName, ok := referencedLocalName(ref, refPrefix)
			if !ok {
				continue
			}
			usesNamespace = true
			if _, hit := affected[localName]; hit {
				if _, dup := seen[localName]; !dup {
					seen[localName] = struct{}{}
					broken = append(broken, localName)
				}
			}
		}
	}
	sort.Strings(broken)

	entry := &Entry{Namespace: ancestor}
	switch {
	case len(broken) > 0:
		entry.Severity = SeverityBreaking
		entry.AffectedClasses = broken
	case usesNamespace || len(cs.Added) > 0 && a.importsDirectly(ctx, ancestorID, cs.NamespaceID):
		entry.Severity = SeverityInformational
	default:
		entry.Severity = SeverityUnaffected
	}
	return entry, nil
}

// importsDirectly reports whether the ancestor has a direct edge to the
// changed namespace. Indirect ancestors with no references of their own are
// unaffected even when classes were added.
func (a *Analyzer) importsDirectly(ctx context.Context, source, target id.NamespaceID) bool {
	edges, err := a.edges.EdgesFrom(ctx, source)
	if err != nil {
		return false
	}
	for _, e := range edges {
		if e.TargetNamespaceID == target {
			return true
		}
	}
	return false
}

// referencedLocalName extracts the class local name from a reference IRI
// into the changed namespace, tolerating any version segment.
func referencedLocalName(ref, refPrefix string) (string, bool) {
	if !strings.HasPrefix(ref, refPrefix) {
		return "", false
	}
	i := strings.LastIndex(ref, "#")
	if i < 0 || i == len(ref)-1 {
		return "", false
	}
	return ref[i+1:], true
}

// ReportDeprecation logs which namespaces still import the deprecated
// version. Informational only; it never blocks the transition.
func (a *Analyzer) ReportDeprecation(ctx context.Context, nsID id.NamespaceID, versionID id.VersionID) {
	edges, err := a.edges.EdgesTo(ctx, nsID)
	if err != nil {
		a.logger.WarnContext(ctx, "deprecation impact scan failed",
			"namespace_id", nsID.String(),
			"error", err.Error(),
		)
		return
	}

	var pinned []string
	for _, e := range edges {
		if e.TargetVersionID == versionID {
			pinned = append(pinned, e.SourceNamespaceID.String())
		}
	}
	if len(pinned) == 0 {
		return
	}
	sort.Strings(pinned)
	a.logger.InfoContext(ctx, "deprecated version still imported",
		"namespace_id", nsID.String(),
		"version_id", versionID.String(),
		"importers", strings.Join(pinned, ","),
	)
}
