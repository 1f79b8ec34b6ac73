// Package tui provides a Bubble Tea terminal UI for the zonecore engine.
package tui

import "strconv"

// History keeps recent commands for Up/Down recall. Bare menu numbers are
// not kept: "2" means something different in every menu.
type History struct {
	entries []string
	limit   int
	cursor  int // len(entries) when not navigating
}

// NewHistory creates a history holding at most limit commands.
func NewHistory(limit int) *History {
	return &History{
		entries: make([]string, 0, limit),
		limit:   limit,
	}
}

// Push records a command. A repeated command moves to the newest slot.
func (h *History) Push(cmd string) {
	defer h.ResetCursor()
	if _, err := strconv.Atoi(cmd); err == nil {
		return
	}
	for i, e := range h.entries {
		if e == cmd {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			break
		}
	}
	h.entries = append(h.entries, cmd)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = h.entries[over:]
	}
}

// Prev steps to an older command, stopping at the oldest.
// Returns ("", false) if history is empty.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next steps to a newer command. Returns ("", false) once past the newest,
// which means the input line should be cleared.
func (h *History) Next() (string, bool) {
	if h.cursor >= len(h.entries) {
		return "", false
	}
	h.cursor++
	if h.cursor == len(h.entries) {
		return "", false
	}
	return h.entries[h.cursor], true
}

// ResetCursor ends navigation.
func (h *History) ResetCursor() {
	h.cursor = len(h.entries)
}
