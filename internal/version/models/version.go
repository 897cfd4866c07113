package models

import (
	"strings"
	"time"

	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
)

// Version is an immutable-once-released snapshot of a namespace's class
// definitions.
//
// Invariants:
//   - Label is unique within the owning namespace
//   - Status transitions: draft --release--> released --deprecate--> deprecated;
//     no other edges exist, and a version can never return to draft
//   - ReleasedAt is set exactly once, on release
//   - Class definitions are mutable only while Status is draft; once released
//     the class set is frozen (the Change Detector relies on this)
type Version struct {
	ID          id.VersionID   `json:"id"`
	NamespaceID id.NamespaceID `json:"namespace_id"`
	Label       string         `json:"version"`
	IRI         string         `json:"version_iri"`
	Status      Status         `json:"status"`
	ReleasedAt  *time.Time     `json:"released_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewVersion validates the label and constructs a draft version.
// versionIRI is the minted IRI for (namespace path, label).
func NewVersion(versionID id.VersionID, namespaceID id.NamespaceID, label, versionIRI string, now time.Time) (*Version, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "version label is required")
	}
	if len(label) > 64 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "version label must be 64 characters or less")
	}
	return &Version{
		ID:          versionID,
		NamespaceID: namespaceID,
		Label:       label,
		IRI:         versionIRI,
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsDraft reports whether the class set is still mutable.
func (v *Version) IsDraft() bool {
	return v.Status == StatusDraft
}

// IsReleased reports whether the version has been released (and not yet
// deprecated).
func (v *Version) IsReleased() bool {
	return v.Status == StatusReleased
}

// Immutable reports whether the class set is frozen (released or deprecated).
func (v *Version) Immutable() bool {
	return v.Status != StatusDraft
}

// CanRelease checks the draft -> released transition.
// Use with ApplyRelease in Execute callbacks.
func (v *Version) CanRelease() error {
	if !v.Status.CanTransitionTo(StatusReleased) {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "version %s is %s, only draft versions can be released", v.Label, v.Status).
			With("version_id", v.ID.String()).
			With("status", string(v.Status))
	}
	return nil
}

// ApplyRelease transitions the version to released and stamps ReleasedAt.
// Call CanRelease first.
func (v *Version) ApplyRelease(now time.Time) {
	v.Status = StatusReleased
	v.ReleasedAt = &now
	v.UpdatedAt = now
}

// CanDeprecate checks the released -> deprecated transition. Draft versions
// cannot be deprecated directly.
func (v *Version) CanDeprecate() error {
	if !v.Status.CanTransitionTo(StatusDeprecated) {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "version %s is %s, only released versions can be deprecated", v.Label, v.Status).
			With("version_id", v.ID.String()).
			With("status", string(v.Status))
	}
	return nil
}

// ApplyDeprecate transitions the version to deprecated.
// Call CanDeprecate first.
func (v *Version) ApplyDeprecate(now time.Time) {
	v.Status = StatusDeprecated
	v.UpdatedAt = now
}
