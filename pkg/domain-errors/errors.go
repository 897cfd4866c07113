// Package domainerrors provides coded domain errors for the ontology engine.
//
// Every rejected operation carries a Code identifying the violated rule and a
// set of detail fields naming the offending identifiers, so the workbench can
// surface "which namespace/version is still draft" without parsing messages.
//
// Convention: stores return sentinel errors (pkg/platform/sentinel) for
// infrastructure facts; services translate those into coded errors here.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the domain rule an operation violated.
type Code string

const (
	// Lookup and identity.
	CodeNotFound          Code = "not_found"
	CodeDuplicateIdentity Code = "duplicate_identity"
	CodeHasDependents     Code = "has_dependents"

	// Version lifecycle.
	CodeDuplicateVersion   Code = "duplicate_version"
	CodeDuplicateClassName Code = "duplicate_class_name"
	CodeVersionLocked      Code = "version_locked"
	CodeInvalidTransition  Code = "invalid_transition"

	// Import graph.
	CodeUnreleasedDependency Code = "unreleased_dependency"
	CodeSelfImport           Code = "self_import"
	CodeCycleDetected        Code = "cycle_detected"
	CodeDuplicateImport      Code = "duplicate_import"

	// Analysis.
	CodeCrossNamespaceDiff Code = "cross_namespace_diff"
	// CodeGraphIntegrity indicates the acyclic invariant was violated in
	// stored data. Fatal to the request; not retryable without operator
	// intervention.
	CodeGraphIntegrity Code = "graph_integrity"

	// Transport-level codes.
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"
)

// Error is a domain error with a machine-readable code and optional detail
// fields identifying the entities involved.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/errors.As chains.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// With attaches a detail field (e.g. "namespace_id", "version") to the error
// and returns it for chaining.
func (e *Error) With(key, value string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[key] = value
	return e
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// Is is a readability alias for HasCode used at transport boundaries.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error is not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// FieldsOf returns the detail fields of the outermost domain error, or nil.
func FieldsOf(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}
