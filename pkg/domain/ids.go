// Package domain defines typed identifiers shared across the engine.
//
// Each entity gets its own UUID-backed type so the compiler rejects passing a
// VersionID where a NamespaceID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "ontoreg/pkg/domain-errors"
)

type (
	// NamespaceID identifies a registered ontology namespace.
	NamespaceID uuid.UUID

	// VersionID identifies one version of a namespace.
	VersionID uuid.UUID

	// ClassID identifies a class definition within a version.
	ClassID uuid.UUID

	// ImportEdgeID identifies a declared import dependency.
	ImportEdgeID uuid.UUID
)

// NewNamespaceID mints a fresh namespace identifier.
func NewNamespaceID() NamespaceID { return NamespaceID(uuid.New()) }

// NewVersionID mints a fresh version identifier.
func NewVersionID() VersionID { return VersionID(uuid.New()) }

// NewClassID mints a fresh class identifier.
func NewClassID() ClassID { return ClassID(uuid.New()) }

// NewImportEdgeID mints a fresh import edge identifier.
func NewImportEdgeID() ImportEdgeID { return ImportEdgeID(uuid.New()) }

func (id NamespaceID) String() string  { return uuid.UUID(id).String() }
func (id VersionID) String() string    { return uuid.UUID(id).String() }
func (id ClassID) String() string      { return uuid.UUID(id).String() }
func (id ImportEdgeID) String() string { return uuid.UUID(id).String() }

func (id NamespaceID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id VersionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ClassID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ImportEdgeID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// The defined types do not inherit uuid.UUID's method set, so text
// marshaling is declared explicitly to keep IDs as canonical strings in
// JSON payloads.

func (id NamespaceID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id VersionID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id ClassID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id ImportEdgeID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *NamespaceID) UnmarshalText(b []byte) error {
	parsed, err := ParseNamespaceID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *VersionID) UnmarshalText(b []byte) error {
	parsed, err := ParseVersionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ClassID) UnmarshalText(b []byte) error {
	parsed, err := ParseClassID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ImportEdgeID) UnmarshalText(b []byte) error {
	parsed, err := ParseImportEdgeID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. Applied at trust boundaries (HTTP, persistence).
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id is required", kind)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id is not a valid UUID", kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id must not be the nil UUID", kind)
	}
	return parsed, nil
}

// ParseNamespaceID validates and converts a raw string into a NamespaceID.
func ParseNamespaceID(raw string) (NamespaceID, error) {
	parsed, err := parseUUID(raw, "namespace")
	if err != nil {
		return NamespaceID{}, err
	}
	return NamespaceID(parsed), nil
}

// ParseVersionID validates and converts a raw string into a VersionID.
func ParseVersionID(raw string) (VersionID, error) {
	parsed, err := parseUUID(raw, "version")
	if err != nil {
		return VersionID{}, err
	}
	return VersionID(parsed), nil
}

// ParseClassID validates and converts a raw string into a ClassID.
func ParseClassID(raw string) (ClassID, error) {
	parsed, err := parseUUID(raw, "class")
	if err != nil {
		return ClassID{}, err
	}
	return ClassID(parsed), nil
}

// ParseImportEdgeID validates and converts a raw string into an ImportEdgeID.
func ParseImportEdgeID(raw string) (ImportEdgeID, error) {
	parsed, err := parseUUID(raw, "import edge")
	if err != nil {
		return ImportEdgeID{}, err
	}
	return ImportEdgeID(parsed), nil
}
