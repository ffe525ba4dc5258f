package domain

// DefaultHistoryCapacity is the number of entries kept per group
const DefaultHistoryCapacity = 10

// History is a bounded, append-only sequence of entries, oldest first.
// Once full, every append evicts the oldest entry.
type History struct {
	capacity int
	entries  []HistoryEntry
}

// NewHistory creates an empty history holding at most capacity entries
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		capacity: capacity,
		entries:  make([]HistoryEntry, 0, capacity),
	}
}

// Append adds an entry, evicting the oldest one when the history is full
func (h *History) Append(entry HistoryEntry) {
	if len(h.entries) >= h.capacity {
		n := copy(h.entries, h.entries[len(h.entries)-h.capacity+1:])
		h.entries = h.entries[:n]
	}
	h.entries = append(h.entries, entry)
}

// Snapshot returns a copy of the entries, oldest first
func (h *History) Snapshot() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of stored entries
func (h *History) Len() int {
	return len(h.entries)
}

// Capacity returns the maximum number of entries
func (h *History) Capacity() int {
	return h.capacity
}
