package models

// Status is the lifecycle state of a version. The set is closed so
// InvalidTransition is a checkable set of cases rather than string juggling.
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

// CanTransitionTo encodes the one-way state machine:
// draft -> released -> deprecated. Release is an irreversible forward step;
// nothing ever returns to draft, and draft cannot jump to deprecated.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusReleased
	case StatusReleased:
		return next == StatusDeprecated
	default:
		return false
	}
}
