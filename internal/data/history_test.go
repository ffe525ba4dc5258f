package data

import (
	"fmt"
	"sync"
	"testing"

	"github.com/devricklin/smart-listener/internal/biz/domain"
)

func TestHistoryRepo_AppendAndSnapshot(t *testing.T) {
	r := NewHistoryRepo(2, 0)

	if got := r.Snapshot("100"); len(got) != 0 {
		t.Fatalf("Expected empty snapshot for unknown group, got %v", got)
	}

	r.Append("100", domain.HistoryEntry{Speaker: "Alice", Text: "one"})
	r.Append("100", domain.HistoryEntry{Speaker: "Bob", Text: "two"})
	r.Append("100", domain.HistoryEntry{Speaker: "Alice", Text: "three"})

	got := r.Snapshot("100")
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if got[0].Text != "two" || got[1].Text != "three" {
		t.Errorf("Expected [two three], got %v", got)
	}
}

func TestHistoryRepo_SnapshotDoesNotCreateGroup(t *testing.T) {
	r := NewHistoryRepo(2, 0)
	r.Snapshot("ghost")
	if groups := r.Groups(); len(groups) != 0 {
		t.Errorf("Expected no tracked groups, got %v", groups)
	}
}

func TestHistoryRepo_GroupsIsolated(t *testing.T) {
	r := NewHistoryRepo(5, 0)
	r.Append("a", domain.HistoryEntry{Speaker: "x", Text: "for a"})
	r.Append("b", domain.HistoryEntry{Speaker: "y", Text: "for b"})

	if got := r.Snapshot("a"); len(got) != 1 || got[0].Text != "for a" {
		t.Errorf("Expected group a to hold only its entry, got %v", got)
	}
	if got := r.Snapshot("b"); len(got) != 1 || got[0].Text != "for b" {
		t.Errorf("Expected group b to hold only its entry, got %v", got)
	}
}

func TestHistoryRepo_EvictsLeastRecentlyActiveGroup(t *testing.T) {
	r := NewHistoryRepo(5, 2)
	r.Append("a", domain.HistoryEntry{Text: "1"})
	r.Append("b", domain.HistoryEntry{Text: "2"})
	r.Append("a", domain.HistoryEntry{Text: "3"}) // a is now most recent
	r.Append("c", domain.HistoryEntry{Text: "4"}) // evicts b

	groups := r.Groups()
	if len(groups) != 2 || groups[0] != "c" || groups[1] != "a" {
		t.Errorf("Expected [c a], got %v", groups)
	}
	if got := r.Snapshot("b"); got != nil {
		t.Errorf("Expected b to be evicted, got %v", got)
	}
	if got := r.Snapshot("a"); len(got) != 2 {
		t.Errorf("Expected a to keep its 2 entries, got %v", got)
	}
}

func TestHistoryRepo_ConcurrentGroups(t *testing.T) {
	r := NewHistoryRepo(50, 0)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			groupID := fmt.Sprintf("g%d", g)
			for i := 0; i < 50; i++ {
				r.Append(groupID, domain.HistoryEntry{Speaker: groupID, Text: fmt.Sprintf("%d", i)})
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < 8; g++ {
		groupID := fmt.Sprintf("g%d", g)
		got := r.Snapshot(groupID)
		if len(got) != 50 {
			t.Fatalf("%s: expected 50 entries, got %d", groupID, len(got))
		}
		for i, e := range got {
			if e.Speaker != groupID || e.Text != fmt.Sprintf("%d", i) {
				t.Fatalf("%s: entry %d corrupted: %+v", groupID, i, e)
			}
		}
	}
}
