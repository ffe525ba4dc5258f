package repo

import "github.com/devricklin/smart-listener/internal/biz/domain"

// HistoryRepo is the per-group conversation history store.
// Implementations must keep each group's sequence intact under concurrent
// appends to different groups.
type HistoryRepo interface {
	// Append adds an entry to the group's history, creating it on first use
	Append(groupID string, entry domain.HistoryEntry)

	// Snapshot returns a copy of the group's entries, oldest first
	Snapshot(groupID string) []domain.HistoryEntry

	// Groups lists the tracked group IDs
	Groups() []string
}
