// Package audit records every script run in a JSON-lines log.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is one script run
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	User      string        `json:"user"`
	Script    string        `json:"script"`
	Base      string        `json:"base"`
	Host      string        `json:"host,omitempty"` // FRR host, empty for local
	Execute   bool          `json:"execute"`        // true if -x was used
	Saved     bool          `json:"saved,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Filter selects events in Query
type Filter struct {
	User        string
	Script      string
	StartTime   time.Time
	EndTime     time.Time
	ExecuteOnly bool
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// Match reports whether event satisfies every criterion set in f.
// Limit and Offset are not criteria.
func (f Filter) Match(event *Event) bool {
	switch {
	case f.User != "" && event.User != f.User:
		return false
	case f.Script != "" && event.Script != f.Script:
		return false
	case !f.StartTime.IsZero() && event.Timestamp.Before(f.StartTime):
		return false
	case !f.EndTime.IsZero() && event.Timestamp.After(f.EndTime):
		return false
	case f.ExecuteOnly && !event.Execute:
		return false
	case f.SuccessOnly && !event.Success:
		return false
	case f.FailureOnly && event.Success:
		return false
	}
	return true
}

// NewEvent creates a new audit event
func NewEvent(user, script, base string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		User:      user,
		Script:    script,
		Base:      base,
	}
}

// WithHost sets the FRR host the run targeted
func (e *Event) WithHost(host string) *Event {
	e.Host = host
	return e
}

// WithExecute marks if execute mode was used
func (e *Event) WithExecute(execute bool) *Event {
	e.Execute = execute
	return e
}

// WithSaved marks that the proposed subtree was saved as effective
func (e *Event) WithSaved(saved bool) *Event {
	e.Saved = saved
	return e
}

// WithResult records the outcome; a nil err is a success
func (e *Event) WithResult(err error) *Event {
	e.Success = err == nil
	e.Error = ""
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the run duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// Mode returns "execute" or "preview"
func (e *Event) Mode() string {
	if e.Execute {
		return "execute"
	}
	return "preview"
}
