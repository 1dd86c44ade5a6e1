// Package editor models a plain-text editing session: a buffer, a cursor or
// selection, paste normalization and undo/redo.
package editor

import (
	"unicode/utf8"

	"github.com/rodrigooliver/interflow-sub001/pkg/history"
	"github.com/rodrigooliver/interflow-sub001/pkg/models"
	"github.com/rodrigooliver/interflow-sub001/pkg/paste"
)

// Session is not safe for concurrent use.
type Session struct {
	buf    []rune
	cursor int

	// selection is [selStart, selEnd); empty when the two are equal.
	selStart, selEnd int

	normalizer *paste.Normalizer
	history    *history.History
}

// New returns a session over initial with the cursor at the end. Nil
// arguments fall back to a default normalizer and history.
func New(initial string, normalizer *paste.Normalizer, h *history.History) *Session {
	if normalizer == nil {
		normalizer = paste.New()
	}
	if h == nil {
		h = history.New()
	}
	h.Reset(initial)

	s := &Session{normalizer: normalizer, history: h}
	s.load(initial)
	return s
}

func (s *Session) Value() string { return string(s.buf) }

// Cursor returns the cursor offset in runes.
func (s *Session) Cursor() int { return s.cursor }

// Selection returns the selected range in runes and whether it is non-empty.
func (s *Session) Selection() (start, end int, ok bool) {
	return s.selStart, s.selEnd, s.selStart != s.selEnd
}

// SetCursor moves the cursor and clears any selection. Offsets outside the
// buffer are clamped.
func (s *Session) SetCursor(offset int) {
	s.cursor = s.clamp(offset)
	s.selStart, s.selEnd = s.cursor, s.cursor
}

// Select selects the runes between start and end in either order. The cursor
// ends up at end.
func (s *Session) Select(start, end int) {
	start, end = s.clamp(start), s.clamp(end)
	s.cursor = end
	if start > end {
		start, end = end, start
	}
	s.selStart, s.selEnd = start, end
}

// Paste normalizes payload and inserts the result, replacing the selection if
// there is one. It returns the inserted fragment. An empty fragment leaves
// the buffer untouched.
func (s *Session) Paste(payload models.ClipboardPayload) string {
	fragment := s.normalizer.Normalize(payload)
	if fragment == "" {
		return ""
	}
	s.insert(fragment)
	return fragment
}

// Type inserts text verbatim.
func (s *Session) Type(text string) {
	if text == "" {
		return
	}
	s.insert(text)
}

// Undo restores the previous buffer value.
func (s *Session) Undo() bool {
	v, ok := s.history.Undo()
	if ok {
		s.load(v)
	}
	return ok
}

// Redo restores the next buffer value.
func (s *Session) Redo() bool {
	v, ok := s.history.Redo()
	if ok {
		s.load(v)
	}
	return ok
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }

func (s *Session) CanRedo() bool { return s.history.CanRedo() }

func (s *Session) insert(text string) {
	start, end := s.cursor, s.cursor
	if s.selStart != s.selEnd {
		start, end = s.selStart, s.selEnd
	}

	ins := []rune(text)
	next := make([]rune, 0, len(s.buf)-(end-start)+len(ins))
	next = append(next, s.buf[:start]...)
	next = append(next, ins...)
	next = append(next, s.buf[end:]...)

	s.buf = next
	s.SetCursor(start + utf8.RuneCountInString(text))
	s.history.Push(string(s.buf))
}

func (s *Session) load(v string) {
	s.buf = []rune(v)
	s.SetCursor(len(s.buf))
}

func (s *Session) clamp(offset int) int {
	switch {
	case offset < 0:
		return 0
	case offset > len(s.buf):
		return len(s.buf)
	}
	return offset
}
