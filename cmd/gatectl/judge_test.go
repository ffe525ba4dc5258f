package main

import (
	"strings"
	"testing"

	"github.com/devricklin/smart-listener/internal/data"
)

func TestParseHistory(t *testing.T) {
	input := `
# warm-up
Alice: anyone tried the new build?
Bob:   @_user_1 works for me
just a line

`
	entries, err := parseHistory(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d: %v", len(entries), entries)
	}
	if entries[0].Speaker != "Alice" || entries[0].Text != "anyone tried the new build?" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[1].Speaker != "Bob" || entries[1].Text != "works for me" {
		t.Errorf("Expected mention placeholder stripped, got %+v", entries[1])
	}
	if entries[2].Speaker != "User" || entries[2].Text != "just a line" {
		t.Errorf("Expected default speaker, got %+v", entries[2])
	}
}

func TestSeedHistory_RespectsCapacity(t *testing.T) {
	entries, _ := parseHistory(strings.NewReader("a: 1\nb: 2\nc: 3\n"))
	historyRepo := data.NewHistoryRepo(2, 0)
	seedHistory(historyRepo, entries)

	got := historyRepo.Snapshot(judgeGroupID)
	if len(got) != 2 || got[0].Text != "2" || got[1].Text != "3" {
		t.Errorf("Expected the last 2 entries, got %v", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("Expected unchanged, got %q", got)
	}
	if got := truncate("line one\nline two", 12); got != "line one ..." {
		t.Errorf("Expected truncated single line, got %q", got)
	}
}
