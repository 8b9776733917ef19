package queue_test

import (
	"testing"

	"github.com/Jdubz/job-finder-worker-sub014/internal/queue"
)

// ── ParseStatus ────────────────────────────────────────────────────────────

func TestParseStatus_ValidValues(t *testing.T) {
	valid := []string{"PENDING", "PROCESSING", "SUCCESS", "FAILED", "SKIPPED"}
	for _, s := range valid {
		got, err := queue.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_InvalidValue(t *testing.T) {
	_, err := queue.ParseStatus("UNKNOWN")
	if err == nil {
		t.Error("ParseStatus(\"UNKNOWN\") expected error, got nil")
	}
}

func TestParseStatus_EmptyString(t *testing.T) {
	_, err := queue.ParseStatus("")
	if err == nil {
		t.Error("ParseStatus(\"\") expected error, got nil")
	}
}

// ParseStatus must be case-sensitive — lowercase variants must not be valid.
func TestParseStatus_CaseSensitive(t *testing.T) {
	lowercase := []string{"pending", "processing", "success", "failed", "skipped"}
	for _, s := range lowercase {
		_, err := queue.ParseStatus(s)
		if err == nil {
			t.Errorf("ParseStatus(%q) should reject lowercase value, got nil error", s)
		}
	}
}

// ── IsTransitionAllowed — valid (forward) transitions ─────────────────────

func TestIsTransitionAllowed_ValidForward(t *testing.T) {
	cases := []struct {
		from queue.Status
		to   queue.Status
	}{
		{queue.StatusPending, queue.StatusProcessing},
		{queue.StatusProcessing, queue.StatusSuccess},
		{queue.StatusProcessing, queue.StatusFailed},
		{queue.StatusProcessing, queue.StatusSkipped},
	}
	for _, c := range cases {
		if !queue.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be true", c.from, c.to)
		}
	}
}

// The retry edge is the single path back to PENDING.
func TestIsTransitionAllowed_RetryEdge(t *testing.T) {
	if !queue.IsTransitionAllowed(queue.StatusProcessing, queue.StatusPending) {
		t.Error("IsTransitionAllowed(PROCESSING → PENDING) should be true (retry)")
	}
	for _, from := range []queue.Status{
		queue.StatusSuccess, queue.StatusFailed, queue.StatusSkipped,
	} {
		if queue.IsTransitionAllowed(from, queue.StatusPending) {
			t.Errorf("IsTransitionAllowed(%s → PENDING) should be false: terminal items are never re-queued", from)
		}
	}
}

// ── IsTransitionAllowed — terminal states have no outgoing transitions ─────

func TestIsTransitionAllowed_FromTerminal(t *testing.T) {
	terminals := []queue.Status{queue.StatusSuccess, queue.StatusFailed, queue.StatusSkipped}
	targets := []queue.Status{
		queue.StatusPending,
		queue.StatusProcessing,
		queue.StatusSuccess,
		queue.StatusFailed,
		queue.StatusSkipped,
	}
	for _, from := range terminals {
		for _, to := range targets {
			if queue.IsTransitionAllowed(from, to) {
				t.Errorf("IsTransitionAllowed(%s → %s) should be false (terminal state)", from, to)
			}
		}
	}
}

// PENDING may only move to PROCESSING — never straight to a terminal state.
func TestIsTransitionAllowed_NoSkipFromPending(t *testing.T) {
	for _, to := range []queue.Status{
		queue.StatusSuccess, queue.StatusFailed, queue.StatusSkipped,
	} {
		if queue.IsTransitionAllowed(queue.StatusPending, to) {
			t.Errorf("IsTransitionAllowed(PENDING → %s) should be false (skip-level)", to)
		}
	}
}

// ── IsTransitionAllowed — self-transitions are forbidden ──────────────────

func TestIsTransitionAllowed_Self(t *testing.T) {
	all := []queue.Status{
		queue.StatusPending, queue.StatusProcessing,
		queue.StatusSuccess, queue.StatusFailed, queue.StatusSkipped,
	}
	for _, s := range all {
		if queue.IsTransitionAllowed(s, s) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be false (self)", s, s)
		}
	}
}

// ── IsTerminal ─────────────────────────────────────────────────────────────

func TestIsTerminal(t *testing.T) {
	for _, s := range []queue.Status{queue.StatusSuccess, queue.StatusFailed, queue.StatusSkipped} {
		if !queue.IsTerminal(s) {
			t.Errorf("IsTerminal(%s) should be true", s)
		}
	}
	for _, s := range []queue.Status{queue.StatusPending, queue.StatusProcessing} {
		if queue.IsTerminal(s) {
			t.Errorf("IsTerminal(%s) should be false", s)
		}
	}
}
