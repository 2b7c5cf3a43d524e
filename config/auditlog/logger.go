package auditlog

import "time"

// QueryFilter specifies criteria for querying audit events.
type QueryFilter struct {
	Login  string
	Repo   string
	Kinds  []EventKind
	Limit  int
	Before time.Time
	After  time.Time
}

// Logger is the interface for emitting and querying audit events.
type Logger interface {
	Emit(event Event)
	Query(filter QueryFilter) ([]Event, error)
	Close() error
}

// EventOption is a functional option for configuring optional Event fields.
type EventOption func(*Event)

// WithRepo sets the Repo field on the event.
func WithRepo(repo string) EventOption {
	return func(e *Event) { e.Repo = repo }
}

// WithPath sets the Path field on the event.
func WithPath(path string) EventOption {
	return func(e *Event) { e.Path = path }
}

// WithDetail sets the Detail field on the event (JSON-encoded extra data).
func WithDetail(detail string) EventOption {
	return func(e *Event) { e.Detail = detail }
}

// WithLevel sets the Level field on the event (info, warn, error).
func WithLevel(level string) EventOption {
	return func(e *Event) { e.Level = level }
}

// NewEvent builds an event for login with the given options applied.
func NewEvent(kind EventKind, login, message string, opts ...EventOption) Event {
	e := Event{Kind: kind, Login: login, Message: message}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// nopLogger is a no-op Logger used when the history database cannot be opened.
type nopLogger struct{}

// NopLogger returns a Logger that discards all events.
func NopLogger() Logger {
	return &nopLogger{}
}

func (n *nopLogger) Emit(_ Event) {}

func (n *nopLogger) Query(_ QueryFilter) ([]Event, error) {
	return nil, nil
}

func (n *nopLogger) Close() error {
	return nil
}
