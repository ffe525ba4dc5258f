package data

import (
	"container/list"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/devricklin/smart-listener/internal/biz/domain"
	"github.com/devricklin/smart-listener/internal/biz/repo"
)

// historyRepo keeps per-group histories in process memory.
// Groups are ordered by last activity so that the least recently active
// one can be dropped when maxGroups is set.
type historyRepo struct {
	mu        sync.Mutex
	capacity  int
	maxGroups int // 0 = unbounded
	groups    map[string]*list.Element
	recency   *list.List // front = most recently active
}

type groupHistory struct {
	groupID string
	history *domain.History
}

// NewHistoryRepo creates an in-memory history repository.
// capacity bounds each group's history; maxGroups bounds the number of
// tracked groups (0 keeps every group for the life of the process).
func NewHistoryRepo(capacity, maxGroups int) repo.HistoryRepo {
	if capacity <= 0 {
		capacity = domain.DefaultHistoryCapacity
	}
	if maxGroups < 0 {
		maxGroups = 0
	}
	return &historyRepo{
		capacity:  capacity,
		maxGroups: maxGroups,
		groups:    make(map[string]*list.Element),
		recency:   list.New(),
	}
}

// Append adds an entry to the group's history
func (r *historyRepo) Append(groupID string, entry domain.HistoryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.groups[groupID]
	if ok {
		r.recency.MoveToFront(elem)
	} else {
		elem = r.recency.PushFront(&groupHistory{groupID: groupID, history: domain.NewHistory(r.capacity)})
		r.groups[groupID] = elem
		r.evictLocked()
	}
	elem.Value.(*groupHistory).history.Append(entry)
}

// Snapshot returns a copy of the group's history, oldest first
func (r *historyRepo) Snapshot(groupID string) []domain.HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.groups[groupID]
	if !ok {
		return nil
	}
	return elem.Value.(*groupHistory).history.Snapshot()
}

// Groups lists tracked groups, most recently active first
func (r *historyRepo) Groups() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.groups))
	for e := r.recency.Front(); e != nil; e = e.Next() {
		ids = append(ids, e.Value.(*groupHistory).groupID)
	}
	return ids
}

func (r *historyRepo) evictLocked() {
	if r.maxGroups == 0 {
		return
	}
	for r.recency.Len() > r.maxGroups {
		oldest := r.recency.Back()
		gh := oldest.Value.(*groupHistory)
		r.recency.Remove(oldest)
		delete(r.groups, gh.groupID)
		log.Debug().Str("group", gh.groupID).Int("max_groups", r.maxGroups).Msg("evicted idle group history")
	}
}
