package models

import (
	"time"

	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
)

// ImportEdge is a declared dependency of one namespace on a specific version
// of another.
//
// Invariants:
//   - SourceNamespaceID != TargetNamespaceID (no self-imports)
//   - At most one edge per (source, target) pair; depending on a second
//     version of the same target requires repointing the existing edge
//   - TargetVersionID always belongs to TargetNamespaceID
//   - The edge set over namespaces (ignoring version pinning) is acyclic
//
// Edges reference their endpoints by relation only; deleting either
// namespace (or the pinned version) cascades to the edge.
type ImportEdge struct {
	ID                id.ImportEdgeID `json:"id"`
	SourceNamespaceID id.NamespaceID  `json:"source_namespace_id"`
	TargetNamespaceID id.NamespaceID  `json:"target_namespace_id"`
	TargetVersionID   id.VersionID    `json:"target_version_id"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewImportEdge validates endpoints and constructs an edge.
func NewImportEdge(edgeID id.ImportEdgeID, source, target id.NamespaceID, targetVersion id.VersionID, now time.Time) (*ImportEdge, error) {
	if source.IsNil() || target.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "import edge requires source and target namespaces")
	}
	if source == target {
		return nil, dErrors.New(dErrors.CodeSelfImport, "a namespace cannot import itself").
			With("namespace_id", source.String())
	}
	if targetVersion.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "import edge requires a pinned target version")
	}
	return &ImportEdge{
		ID:                edgeID,
		SourceNamespaceID: source,
		TargetNamespaceID: target,
		TargetVersionID:   targetVersion,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Repoint pins the edge to a different version of the same target namespace.
func (e *ImportEdge) Repoint(targetVersion id.VersionID, now time.Time) error {
	if targetVersion.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "import edge requires a pinned target version")
	}
	e.TargetVersionID = targetVersion
	e.UpdatedAt = now
	return nil
}
