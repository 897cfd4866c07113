package change

import (
	id "ontoreg/pkg/domain"
)

// ClassChange describes one class's part in a diff.
type ClassChange struct {
	LocalName string `json:"local_name"`
	Label     string `json:"label"`
	IRI       string `json:"iri"`
}

// ChangeSet is the structured diff between two versions of one namespace.
// The three lists are disjoint by construction: a local name appears in
// exactly one of them, or in none when the definition is unchanged.
type ChangeSet struct {
	NamespaceID  id.NamespaceID `json:"namespace_id"`
	OldVersionID id.VersionID   `json:"old_version_id"`
	NewVersionID id.VersionID   `json:"new_version_id"`
	Added        []ClassChange  `json:"added"`
	Removed      []ClassChange  `json:"removed"`
	Modified     []ClassChange  `json:"modified"`
}

// Empty reports whether the diff found no differences.
func (cs *ChangeSet) Empty() bool {
	return len(cs.Added) == 0 && len(cs.Removed) == 0 && len(cs.Modified) == 0
}

// AffectedLocalNames returns the names a dependent breaks on: everything
// removed or modified.
func (cs *ChangeSet) AffectedLocalNames() map[string]struct{} {
	out := make(map[string]struct{}, len(cs.Removed)+len(cs.Modified))
	for _, c := range cs.Removed {
		out[c.LocalName] = struct{}{}
	}
	for _, c := range cs.Modified {
		out[c.LocalName] = struct{}{}
	}
	return out
}
