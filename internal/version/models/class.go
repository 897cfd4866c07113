package models

import (
	"sort"
	"strings"
	"time"

	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
)

// ClassDefinition is one class defined by a version.
//
// Invariants:
//   - LocalName is unique within the owning version
//   - IRI is derived: f(namespace.path, version.label, local_name)
//   - Mutable only while the owning version is draft
//
// References is the explicit usage index: the IRIs of imported classes this
// class refers to. The Impact Analyzer resolves "is this dependent affected"
// through this index instead of re-deriving usage by text search.
type ClassDefinition struct {
	ID         id.ClassID   `json:"id"`
	VersionID  id.VersionID `json:"version_id"`
	LocalName  string       `json:"local_name"`
	Label      string       `json:"label"`
	IRI        string       `json:"iri"`
	Comment    string       `json:"comment,omitempty"`
	References []string     `json:"references,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// NewClassDefinition validates and constructs a class definition.
// classIRI is the minted IRI for (namespace path, version label, localName).
func NewClassDefinition(classID id.ClassID, versionID id.VersionID, localName, label, classIRI, comment string, references []string, now time.Time) (*ClassDefinition, error) {
	localName = strings.TrimSpace(localName)
	if localName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "class local name is required")
	}
	if strings.ContainsAny(localName, " /#?") {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "class local name %q must not contain spaces, '/', '#', or '?'", localName)
	}
	if label == "" {
		label = localName
	}
	return &ClassDefinition{
		ID:         classID,
		VersionID:  versionID,
		LocalName:  localName,
		Label:      label,
		IRI:        classIRI,
		Comment:    comment,
		References: normalizeReferences(references),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ApplyUpdate mutates the editable fields of a draft class. The local name
// and derived IRI stay fixed; renaming is remove + add.
func (c *ClassDefinition) ApplyUpdate(label, comment *string, references []string, now time.Time) {
	if label != nil && *label != "" {
		c.Label = *label
	}
	if comment != nil {
		c.Comment = *comment
	}
	if references != nil {
		c.References = normalizeReferences(references)
	}
	c.UpdatedAt = now
}

// SameDefinition reports whether two classes with the same local name carry
// the same label, comment, and derived IRI. The Change Detector marks a class
// modified when this is false.
func (c *ClassDefinition) SameDefinition(other *ClassDefinition) bool {
	return c.Label == other.Label && c.Comment == other.Comment && sameSuffix(c.IRI, other.IRI)
}

// sameSuffix compares the fragment part of two class IRIs. The version
// segment necessarily differs between versions, so definition equality
// considers only the class-local fragment.
func sameSuffix(a, b string) bool {
	return fragment(a) == fragment(b)
}

func fragment(iri string) string {
	if i := strings.LastIndex(iri, "#"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}

func normalizeReferences(refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
