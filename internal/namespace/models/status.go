package models

// Type classifies a namespace. The set is closed; registration rejects
// anything else.
type Type string

const (
	TypeCore     Type = "core"
	TypeDomain   Type = "domain"
	TypeProgram  Type = "program"
	TypeProject  Type = "project"
	TypeIndustry Type = "industry"
	TypeVocab    Type = "vocab"
	TypeShapes   Type = "shapes"
	TypeAlign    Type = "align"
)

// Valid reports whether t is one of the closed namespace types.
func (t Type) Valid() bool {
	switch t {
	case TypeCore, TypeDomain, TypeProgram, TypeProject, TypeIndustry, TypeVocab, TypeShapes, TypeAlign:
		return true
	}
	return false
}

// Status is the informational lifecycle state mirrored from a namespace's
// versions. The authoritative state machine lives on Version; this value
// exists so registry listings can show lifecycle at a glance.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusReleased   Status = "released"
	StatusDeprecated Status = "deprecated"
)

// Valid reports whether s is one of the closed status values.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReleased, StatusDeprecated:
		return true
	}
	return false
}
