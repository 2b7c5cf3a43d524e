package auditlog

import "time"

// EventKind identifies the type of audit event.
type EventKind string

// String returns the string representation of the EventKind.
func (k EventKind) String() string {
	return string(k)
}

// Session events.
const (
	EventLogin          EventKind = "login"
	EventLogout         EventKind = "logout"
	EventSessionExpired EventKind = "session_expired"
)

// Generation events.
const (
	EventSummariesGenerated EventKind = "summaries_generated"
	EventCodeGenerated      EventKind = "code_generated"
	EventTestSaved          EventKind = "test_saved"
)

// Operational events.
const (
	EventPRCreated EventKind = "pr_created"
	EventPRFailed  EventKind = "pr_failed"
	EventError     EventKind = "error"
)

// AllKinds lists every event kind in declaration order.
func AllKinds() []EventKind {
	return []EventKind{
		EventLogin, EventLogout, EventSessionExpired,
		EventSummariesGenerated, EventCodeGenerated, EventTestSaved,
		EventPRCreated, EventPRFailed, EventError,
	}
}

// Event is a single audit log entry.
type Event struct {
	ID        int64
	Kind      EventKind
	Timestamp time.Time
	Login     string // GitHub login of the signed-in user
	Repo      string // owner/name
	Path      string // file or summary the event concerns
	Message   string
	Detail    string // JSON-encoded extra data
	Level     string // info, warn, error
}
