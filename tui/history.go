// Package tui provides a Bubble Tea terminal UI over the operator console.
package tui

import "strings"

// History keeps submitted commands, most recent last, and navigates them
// filtered by the text typed before navigation started.
type History struct {
	entries []string
	max     int
	cursor  int    // -1 = not navigating, 0..len-1 = position in entries
	prefix  string // filter captured by the first Prev
}

// NewHistory creates a history buffer with the given maximum size.
func NewHistory(max int) *History {
	return &History{
		entries: make([]string, 0, max),
		max:     max,
		cursor:  -1,
	}
}

// Push adds a command to history. An earlier identical entry moves to the
// end instead of being kept twice.
func (h *History) Push(cmd string) {
	for i, e := range h.entries {
		if e == cmd {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			break
		}
	}
	h.entries = append(h.entries, cmd)
	if len(h.entries) > h.max {
		h.entries = h.entries[1:]
	}
}

// Prev returns the previous (older) entry starting with the text that was
// typed when navigation began. It stays on the oldest match.
func (h *History) Prev(typed string) (string, bool) {
	if h.cursor == -1 {
		h.prefix = typed
		h.cursor = len(h.entries)
	}
	for i := h.cursor - 1; i >= 0; i-- {
		if strings.HasPrefix(h.entries[i], h.prefix) {
			h.cursor = i
			return h.entries[i], true
		}
	}
	if h.cursor < len(h.entries) {
		return h.entries[h.cursor], true
	}
	h.cursor = -1
	return "", false
}

// Next returns the next (newer) matching entry. Past the newest it ends
// navigation and returns ("", false); Prefix then holds the text to restore.
func (h *History) Next() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	for i := h.cursor + 1; i < len(h.entries); i++ {
		if strings.HasPrefix(h.entries[i], h.prefix) {
			h.cursor = i
			return h.entries[i], true
		}
	}
	h.cursor = -1
	return "", false
}

// Navigating reports whether Prev has started a walk through history.
func (h *History) Navigating() bool { return h.cursor != -1 }

// Prefix returns the text typed before navigation started.
func (h *History) Prefix() string { return h.prefix }

// ResetCursor ends navigation.
func (h *History) ResetCursor() {
	h.cursor = -1
	h.prefix = ""
}
