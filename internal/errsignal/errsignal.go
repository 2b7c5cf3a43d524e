// Package errsignal holds the single transient error shown in the banner.
//
// A Signal stores at most one message. Every Set replaces the slot, issues a
// fresh identity and schedules an automatic clear. A clear timer only empties
// the slot if the identity it was scheduled for is still current, so a late
// timer never wipes a newer message.
package errsignal

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kastheco/testsmith/internal/apperr"
	"github.com/kastheco/testsmith/log"
)

// DefaultDismissAfter is how long a message stays visible.
const DefaultDismissAfter = 5 * time.Second

// Sink is the capability handed to components that report failures.
type Sink interface {
	Set(message string) string
	Report(err error)
	Clear()
}

// Signal is safe for concurrent use.
type Signal struct {
	mu           sync.Mutex
	message      string
	id           string
	timer        *time.Timer
	dismissAfter time.Duration
	changes      chan struct{}
}

// New returns an empty Signal. A non-positive dismissAfter selects
// DefaultDismissAfter.
func New(dismissAfter time.Duration) *Signal {
	if dismissAfter <= 0 {
		dismissAfter = DefaultDismissAfter
	}
	return &Signal{
		dismissAfter: dismissAfter,
		changes:      make(chan struct{}, 1),
	}
}

// Set replaces the current message and returns its identity. An empty message
// clears the slot and returns "".
func (s *Signal) Set(message string) string {
	if message == "" {
		s.Clear()
		return ""
	}

	s.mu.Lock()
	s.stopTimerLocked()
	id := uuid.NewString()
	s.message = message
	s.id = id
	s.timer = time.AfterFunc(s.dismissAfter, func() { s.expire(id) })
	s.mu.Unlock()

	s.notify()
	return id
}

// Report sets the user-facing message for err. Nil errors are ignored.
func (s *Signal) Report(err error) {
	if err == nil {
		return
	}
	log.ErrorLog.Printf("%v", err)
	s.Set(apperr.Message(err))
}

// Clear empties the slot and cancels the pending timer.
func (s *Signal) Clear() {
	s.mu.Lock()
	changed := s.message != ""
	s.stopTimerLocked()
	s.message = ""
	s.id = ""
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Current returns the active message and its identity. Both are empty when
// the slot is clear.
func (s *Signal) Current() (message, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message, s.id
}

// Changes receives a value whenever the slot changes. Notifications are
// coalesced: a reader that falls behind sees one pending value, not a backlog.
func (s *Signal) Changes() <-chan struct{} {
	return s.changes
}

func (s *Signal) expire(id string) {
	s.mu.Lock()
	if s.id != id {
		s.mu.Unlock()
		return
	}
	s.message = ""
	s.id = ""
	s.timer = nil
	s.mu.Unlock()

	s.notify()
}

func (s *Signal) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Signal) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
