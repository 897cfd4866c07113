package models

import (
	"sort"
	"strings"
	"time"

	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
)

// Namespace is the aggregate root for a registered ontology module.
//
// Invariants:
//   - (Name, Type) is unique across the registry
//   - Prefix is globally unique across the registry
//   - Name, Type, Path, and Prefix are immutable after registration
//   - Status is informational only: it mirrors the collective state of the
//     namespace's versions and is recomputed whenever a version transitions
//
// A namespace is never physically deleted while any version or import edge
// references it; cascade delete removes all owned versions, their classes,
// and every incident import edge in one operation.
type Namespace struct {
	ID          id.NamespaceID `json:"id"`
	Name        string         `json:"name"`
	Type        Type           `json:"type"`
	Path        string         `json:"path"`
	Prefix      string         `json:"prefix"`
	Status      Status         `json:"status"`
	Owners      []string       `json:"owners"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewNamespace validates identity fields and constructs a draft namespace.
// Path is the minted IRI path segment for (type, name).
func NewNamespace(nsID id.NamespaceID, name string, nsType Type, path, prefix string, owners []string, description string, now time.Time) (*Namespace, error) {
	name = strings.TrimSpace(name)
	prefix = strings.TrimSpace(prefix)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "namespace name is required")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "namespace name must be 128 characters or less")
	}
	if !nsType.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown namespace type %q", nsType)
	}
	if prefix == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "namespace prefix is required")
	}
	if path == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "namespace path is required")
	}
	return &Namespace{
		ID:          nsID,
		Name:        name,
		Type:        nsType,
		Path:        path,
		Prefix:      prefix,
		Status:      StatusDraft,
		Owners:      normalizeOwners(owners),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyMetadata performs a partial update of the mutable fields. Identity
// fields (Name, Type, Path, Prefix) are never touched.
func (n *Namespace) ApplyMetadata(owners []string, description *string, now time.Time) {
	if owners != nil {
		n.Owners = normalizeOwners(owners)
	}
	if description != nil {
		n.Description = *description
	}
	n.UpdatedAt = now
}

// ApplyStatus records the informational status mirrored from the namespace's
// versions.
func (n *Namespace) ApplyStatus(status Status, now time.Time) {
	n.Status = status
	n.UpdatedAt = now
}

func normalizeOwners(owners []string) []string {
	seen := make(map[string]struct{}, len(owners))
	out := make([]string, 0, len(owners))
	for _, o := range owners {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}
