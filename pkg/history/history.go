// Package history keeps the undo/redo stack of an editor session. Entries are
// full buffer values; bursts of edits closer together than the coalescing
// window share one entry.
package history

import "time"

const (
	DefaultMaxEntries     = 50
	DefaultCoalesceWindow = 500 * time.Millisecond
)

// History is a bounded undo/redo stack. It is owned by a single editor
// session and is not safe for concurrent use.
type History struct {
	entries    []string
	index      int
	maxEntries int
	window     time.Duration
	now        func() time.Time

	// lastWrite is the time of the last Push that may absorb the next one.
	// It is zero after Reset, Undo and Redo.
	lastWrite time.Time

	// echo is the value just restored by Undo or Redo. The first Push that
	// repeats it is the editor reporting the restore back and is dropped.
	echo    string
	hasEcho bool
}

// Option configures a History.
type Option func(*History)

// WithMaxEntries caps the number of stored entries. Values below 1 keep the
// default.
func WithMaxEntries(n int) Option {
	return func(h *History) {
		if n >= 1 {
			h.maxEntries = n
		}
	}
}

// WithCoalesceWindow sets the coalescing window. Zero disables coalescing.
func WithCoalesceWindow(d time.Duration) Option {
	return func(h *History) {
		if d >= 0 {
			h.window = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *History) {
		h.now = now
	}
}

// New returns an empty History.
func New(opts ...Option) *History {
	h := &History{
		index:      -1,
		maxEntries: DefaultMaxEntries,
		window:     DefaultCoalesceWindow,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Reset discards every entry and starts over from value.
func (h *History) Reset(value string) {
	h.entries = append(h.entries[:0], value)
	h.index = 0
	h.lastWrite = time.Time{}
	h.hasEcho = false
}

// Push records value as the newest entry. Anything that was undone is
// discarded. A push within the coalescing window of the previous one
// replaces it instead of adding a new entry.
func (h *History) Push(value string) {
	if h.hasEcho {
		h.hasEcho = false
		if value == h.echo {
			return
		}
	}
	if h.index >= 0 && h.entries[h.index] == value {
		return
	}

	now := h.now()
	h.entries = h.entries[:h.index+1]

	if h.index > 0 && h.window > 0 && !h.lastWrite.IsZero() && now.Sub(h.lastWrite) < h.window {
		h.entries[h.index] = value
		h.lastWrite = now
		return
	}

	h.entries = append(h.entries, value)
	if over := len(h.entries) - h.maxEntries; over > 0 {
		h.entries = append(h.entries[:0], h.entries[over:]...)
	}
	h.index = len(h.entries) - 1
	h.lastWrite = now
}

// Undo steps back one entry and returns it.
func (h *History) Undo() (string, bool) {
	if !h.CanUndo() {
		return "", false
	}
	h.index--
	return h.restore(), true
}

// Redo steps forward one entry and returns it.
func (h *History) Redo() (string, bool) {
	if !h.CanRedo() {
		return "", false
	}
	h.index++
	return h.restore(), true
}

func (h *History) restore() string {
	v := h.entries[h.index]
	h.lastWrite = time.Time{}
	h.echo = v
	h.hasEcho = true
	return v
}

// Current returns the entry the history points at.
func (h *History) Current() (string, bool) {
	if h.index < 0 {
		return "", false
	}
	return h.entries[h.index], true
}

func (h *History) CanUndo() bool { return h.index > 0 }

func (h *History) CanRedo() bool { return h.index >= 0 && h.index < len(h.entries)-1 }

// Len returns the number of stored entries, including redoable ones.
func (h *History) Len() int { return len(h.entries) }

// Entries returns a copy of the stored entries, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}
