package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about stored records, not validation
// failures:
// - ErrNotFound: entity does not exist in store
// - ErrAlreadyUsed: a unique key (name, prefix, label) is already taken
// - ErrInvalidState: entity in wrong lifecycle state for the operation
// - ErrConflict: concurrent modification detected
//
// For rule violations (cycles, locked versions), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
)
