// Package audit records sensitive admin actions to an ordered list of
// sinks. The logger is constructed once and injected into services; entries
// are append-only and never mutated after construction.
package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Verb is the fixed vocabulary of audited operations. Entries are never
// built from free-form action strings.
type Verb string

const (
	VerbCreate Verb = "create"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
	VerbView   Verb = "view"
	VerbLogin  Verb = "login"
	VerbLogout Verb = "logout"
)

const (
	ResourceCommunity = "community"
	ResourceUser      = "user"
	ResourceAuth      = "auth"
)

// Actor identifies who performed an audited action and where from.
type Actor struct {
	UserID    string
	Email     string
	IPAddress string
	UserAgent string
}

// Entry is a single append-only audit record. Timestamp is assigned when
// the entry is constructed, not when a sink delivers it.
type Entry struct {
	Timestamp   time.Time         `json:"timestamp"`
	Action      string            `json:"action"`
	Resource    string            `json:"resource"`
	ResourceID  string            `json:"resource_id,omitempty"`
	AdminUserID string            `json:"admin_user_id"`
	AdminEmail  string            `json:"admin_email"`
	Success     bool              `json:"success"`
	Reason      string            `json:"reason,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
	IPAddress   string            `json:"ip_address,omitempty"`
	UserAgent   string            `json:"user_agent,omitempty"`
}

// Sink consumes audit entries. A sink returning an error (or panicking)
// never prevents delivery to the remaining sinks.
type Sink func(Entry) error

// Logger delivers each recorded entry to every registered sink in order.
type Logger struct {
	mu       sync.Mutex
	sinks    []Sink
	fallback zerolog.Logger
}

// New creates an audit logger. Sink failures are reported to fallback.
func New(fallback zerolog.Logger) *Logger {
	return &Logger{fallback: fallback.With().Str("component", "audit").Logger()}
}

// AddSink registers a consumer of audit entries. Entries recorded before
// registration are not replayed.
func (l *Logger) AddSink(sink Sink) {
	if sink == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, sink)
}

// Record delivers entry to every sink. Failures are swallowed here: audit
// delivery must never fail the business operation that triggered it.
func (l *Logger) Record(entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	sinks := make([]Sink, len(l.sinks))
	copy(sinks, l.sinks)
	l.mu.Unlock()

	for i, sink := range sinks {
		if err := l.deliver(sink, entry); err != nil {
			l.fallback.Error().
				Err(err).
				Int("sink", i).
				Str("action", entry.Action).
				Str("resource_id", entry.ResourceID).
				Msg("audit sink failed")
		}
	}
}

func (l *Logger) deliver(sink Sink, entry Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	// Each sink gets its own copy of the mutable details map so no sink can
	// alter what later sinks observe.
	return sink(cloneEntry(entry))
}

func cloneEntry(entry Entry) Entry {
	if entry.Details == nil {
		return entry
	}
	details := make(map[string]string, len(entry.Details))
	for k, v := range entry.Details {
		details[k] = v
	}
	entry.Details = details
	return entry
}

// CommunityEntry builds a well-formed entry for a community action.
func CommunityEntry(verb Verb, resourceID string, actor Actor, success bool, reason string, details map[string]string) Entry {
	return newEntry(ResourceCommunity, verb, resourceID, actor, success, reason, details)
}

// UserEntry builds a well-formed entry for a user action.
func UserEntry(verb Verb, resourceID string, actor Actor, success bool, reason string, details map[string]string) Entry {
	return newEntry(ResourceUser, verb, resourceID, actor, success, reason, details)
}

// AuthEntry builds a well-formed entry for a login or logout. Failed logins
// carry no actor identity; the attempted email belongs in details.
func AuthEntry(verb Verb, actor Actor, success bool, reason string, details map[string]string) Entry {
	return newEntry(ResourceAuth, verb, "", actor, success, reason, details)
}

func newEntry(resource string, verb Verb, resourceID string, actor Actor, success bool, reason string, details map[string]string) Entry {
	return cloneEntry(Entry{
		Timestamp:   time.Now().UTC(),
		Action:      resource + "." + string(verb),
		Resource:    resource,
		ResourceID:  resourceID,
		AdminUserID: actor.UserID,
		AdminEmail:  actor.Email,
		Success:     success,
		Reason:      reason,
		Details:     details,
		IPAddress:   actor.IPAddress,
		UserAgent:   actor.UserAgent,
	})
}

// ZerologSink writes entries as structured log events; the usual console or
// file pipe sink registered at startup.
func ZerologSink(logger zerolog.Logger) Sink {
	return func(entry Entry) error {
		logger.Info().Interface("audit", entry).Msg("audit")
		return nil
	}
}
