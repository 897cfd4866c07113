// Package shared centralizes JSON response writing so every handler maps
// domain error codes to HTTP statuses the same way.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "ontoreg/pkg/domain-errors"
)

// ErrorBody is the JSON envelope returned for every failed request.
type ErrorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes v with the given status. Encoding failures are swallowed;
// by then the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError translates a domain error into an HTTP response carrying the
// code and detail fields.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := ErrorBody{Error: string(code), Fields: dErrors.FieldsOf(err)}

	var de *dErrors.Error
	if e, ok := err.(*dErrors.Error); ok {
		de = e
	}
	if de != nil {
		body.Message = de.Message
	}

	WriteJSON(w, statusFor(code), body)
}

// statusFor maps domain codes onto HTTP statuses. Rule violations that a
// caller can repair are 422; identity collisions are 409; integrity faults
// in stored data are 500.
func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeDuplicateIdentity,
		dErrors.CodeDuplicateVersion,
		dErrors.CodeDuplicateClassName,
		dErrors.CodeDuplicateImport,
		dErrors.CodeHasDependents,
		dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeVersionLocked,
		dErrors.CodeInvalidTransition,
		dErrors.CodeUnreleasedDependency,
		dErrors.CodeSelfImport,
		dErrors.CodeCycleDetected,
		dErrors.CodeCrossNamespaceDiff:
		return http.StatusUnprocessableEntity
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeGraphIntegrity, dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
