// Package audit records every hook invocation in per-stage JSON logs.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/maklarsystem/hookguard/internal/hook"
)

// Entry is one audit record. Entries are immutable once appended.
type Entry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	SessionID string          `json:"session_id"`
	Stage     hook.Stage      `json:"stage"`
	Payload   json.RawMessage `json:"payload"`
	Blocked   bool            `json:"blocked"`
	Reason    string          `json:"reason,omitempty"`
	Success   *bool           `json:"success,omitempty"`
	Source    string          `json:"source,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// NewEntry starts an entry for ev stamped at now.
func NewEntry(ev hook.Event, now time.Time) Entry {
	payload := ev.Raw()
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return Entry{
		ID:        uuid.NewString(),
		Timestamp: now,
		SessionID: ev.Session(),
		Stage:     ev.Stage(),
		Payload:   payload,
	}
}

// Block marks the entry as blocked with reason.
func (e Entry) Block(reason string) Entry {
	e.Blocked = true
	e.Reason = reason
	return e
}

// WithSuccess records a tool result's success flag.
func (e Entry) WithSuccess(ok bool) Entry {
	e.Success = &ok
	return e
}
