package domain

import "sync"

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is a single role-tagged utterance in the dialogue. Immutable once created.
type Turn struct {
	Role Role
	Text string
}

// History is the process-wide conversation record. It is shared by every
// request handled by one running instance: there is no per-session partition,
// and mutations are visible to all subsequent requests. It lives for the
// lifetime of the process, is never persisted and never pruned.
//
// Individual operations are mutex-guarded so concurrent requests cannot
// corrupt the backing slice, but no lock is held across external calls, so
// concurrent pipelines still interleave their appends and removals. Callers
// that need request-level isolation must serialize at a higher layer.
type History struct {
	mu    sync.Mutex
	turns []Turn
}

// NewHistory creates an empty conversation history.
func NewHistory() *History {
	return &History{}
}

// Append adds a turn to the end of the history.
func (h *History) Append(t Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, t)
}

// RemoveLast removes and discards the most recently appended turn.
// Removing from an empty history is a no-op.
func (h *History) RemoveLast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.turns) == 0 {
		return
	}
	h.turns = h.turns[:len(h.turns)-1]
}

// Snapshot returns a copy of the current ordered turn sequence. The copy does
// not reflect later mutations.
func (h *History) Snapshot() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the current number of turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}
