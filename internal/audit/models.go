package audit

import "time"

// Action names a registry mutation worth an audit record.
type Action string

const (
	ActionNamespaceRegistered Action = "namespace.registered"
	ActionNamespaceDeleted    Action = "namespace.deleted"
	ActionVersionCreated      Action = "version.created"
	ActionVersionReleased     Action = "version.released"
	ActionVersionDeprecated   Action = "version.deprecated"
	ActionImportAdded         Action = "import.added"
	ActionImportRemoved       Action = "import.removed"
	ActionImportRepointed     Action = "import.repointed"
)

// Event is emitted from domain logic after a successful mutation. Keep it
// transport-agnostic so sinks (kafka, slog) can fan out.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	Actor       string    `json:"actor,omitempty"`
	Action      Action    `json:"action"`
	NamespaceID string    `json:"namespace_id,omitempty"`
	VersionID   string    `json:"version_id,omitempty"`
	Detail      string    `json:"detail,omitempty"`
}
