// Package validation applies lifecycle and consistency rules before the
// version store commits a transition. Pure domain logic: no I/O, no side
// effects; callers hand in everything a rule needs.
package validation

import (
	igmodels "ontoreg/internal/importgraph/models"
	vermodels "ontoreg/internal/version/models"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
)

// ValidateRelease gates the draft -> released transition.
//
// Rule order (fail-fast):
//  1. Status must currently be draft (InvalidTransition)
//  2. Every import edge of the owning namespace must pin a target version
//     that exists and is not draft; a released artifact may not depend on
//     an unreleased one (UnreleasedDependency)
func ValidateRelease(v *vermodels.Version, namespaceEdges []*igmodels.ImportEdge, targets map[id.VersionID]*vermodels.Version) error {
	if err := v.CanRelease(); err != nil {
		return err
	}

	for _, edge := range namespaceEdges {
		target, ok := targets[edge.TargetVersionID]
		if !ok {
			return dErrors.Newf(dErrors.CodeUnreleasedDependency, "import pins version %s which no longer exists", edge.TargetVersionID).
				With("edge_id", edge.ID.String()).
				With("target_namespace_id", edge.TargetNamespaceID.String()).
				With("target_version_id", edge.TargetVersionID.String())
		}
		if target.IsDraft() {
			return dErrors.Newf(dErrors.CodeUnreleasedDependency, "import target %s@%s is still draft", edge.TargetNamespaceID, target.Label).
				With("edge_id", edge.ID.String()).
				With("target_namespace_id", edge.TargetNamespaceID.String()).
				With("target_version_id", edge.TargetVersionID.String()).
				With("target_version", target.Label)
		}
	}
	return nil
}

// ValidateDeprecate gates the released -> deprecated transition.
func ValidateDeprecate(v *vermodels.Version) error {
	return v.CanDeprecate()
}

// ValidateClassMutation gates add/update/remove of class definitions: the
// owning version must still be draft.
func ValidateClassMutation(v *vermodels.Version) error {
	if v.Immutable() {
		return dErrors.Newf(dErrors.CodeVersionLocked, "version %s is %s; released class sets are immutable, create a new version instead", v.Label, v.Status).
			With("version_id", v.ID.String()).
			With("status", string(v.Status))
	}
	return nil
}

// ValidateImport gates adding an edge from source to target. existingEdges
// are the source namespace's current outgoing edges; targetReachesSource
// reports whether target already transitively imports source.
//
// Rule order (fail-fast): SelfImport, DuplicateImport, CycleDetected.
func ValidateImport(source, target id.NamespaceID, existingEdges []*igmodels.ImportEdge, targetReachesSource bool) error {
	if source == target {
		return dErrors.New(dErrors.CodeSelfImport, "a namespace cannot import itself").
			With("namespace_id", source.String())
	}
	for _, e := range existingEdges {
		if e.TargetNamespaceID == target {
			return dErrors.New(dErrors.CodeDuplicateImport, "an import between these namespaces already exists; repoint it instead").
				With("edge_id", e.ID.String()).
				With("source_namespace_id", source.String()).
				With("target_namespace_id", target.String())
		}
	}
	if targetReachesSource {
		return dErrors.New(dErrors.CodeCycleDetected, "import would create a directed cycle").
			With("source_namespace_id", source.String()).
			With("target_namespace_id", target.String())
	}
	return nil
}

// ValidateStatusTransition gates a lifecycle step against the one-way state
// machine without applying it. Services use it as a fast pre-check before
// taking locks; the transition is re-validated inside the store's Execute.
func ValidateStatusTransition(v *vermodels.Version, next vermodels.Status) error {
	if !next.Valid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown version status %q", next).
			With("version_id", v.ID.String())
	}
	if !v.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "version %s is %s and cannot move to %s", v.Label, v.Status, next).
			With("version_id", v.ID.String()).
			With("status", string(v.Status)).
			With("next_status", string(next))
	}
	return nil
}
