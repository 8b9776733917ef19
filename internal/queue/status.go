// Package queue implements the pending work queue: the item lifecycle state
// machine and its PostgreSQL-backed store.
//
// Valid status graph:
//
//	PENDING ──► PROCESSING ──► SUCCESS
//	    ▲            │    └──► SKIPPED
//	    │            └───────► FAILED
//	    └──(retry)───┘
//
// SUCCESS, FAILED and SKIPPED are terminal. The only way back to PENDING is
// the deliberate retry edge from PROCESSING, and the store caps it at
// max_retries.
package queue

import "github.com/cockroachdb/errors"

// Status values are stored as-is in queue_items.status; the store only
// ever writes values produced here.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
	StatusSkipped    Status = "SKIPPED"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusSuccess, StatusFailed, StatusSkipped, StatusPending},
	// SUCCESS, FAILED, SKIPPED are terminal — no outgoing transitions
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusProcessing, StatusSuccess, StatusFailed, StatusSkipped:
		return st, nil
	}
	return "", errors.Newf("unknown queue status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by
// the state machine.
func IsTransitionAllowed(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for states that are immutable once written
// (only the cleanup pass may delete such items, never mutate them).
func IsTerminal(s Status) bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusSkipped
}
