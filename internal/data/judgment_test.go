package data

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/devricklin/smart-listener/internal/biz/domain"
	"github.com/devricklin/smart-listener/internal/biz/repo"
)

func newTestJudgmentRepo(t *testing.T) repo.JudgmentRepo {
	t.Helper()
	r, err := NewJudgmentRepo(filepath.Join(t.TempDir(), "nested", "judgments.db"))
	if err != nil {
		t.Fatalf("Failed to create judgment repo: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestJudgmentRepo_SaveAndList(t *testing.T) {
	r := newTestJudgmentRepo(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	want := &domain.Judgment{
		ID:        "j1",
		GroupID:   "100",
		MessageID: "m1",
		Sender:    "Alice",
		Text:      "are you there?",
		Outcome:   domain.OutcomeSuppress,
		Verdict:   domain.VerdictIndeterminate,
		Raw:       "maybe",
		Cause:     "classifier_malformed_response",
		Latency:   120 * time.Millisecond,
		CreatedAt: base,
	}
	if err := r.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := r.List(ctx, repo.JudgmentFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 judgment, got %d", len(got))
	}
	j := got[0]
	if j.ID != "j1" || j.GroupID != "100" || j.MessageID != "m1" || j.Sender != "Alice" {
		t.Errorf("Unexpected identity fields: %+v", j)
	}
	if j.Outcome != domain.OutcomeSuppress || j.Verdict != domain.VerdictIndeterminate {
		t.Errorf("Expected suppress/indeterminate, got %s/%s", j.Outcome, j.Verdict)
	}
	if j.Cause != "classifier_malformed_response" || j.Raw != "maybe" {
		t.Errorf("Expected cause and raw preserved, got %q / %q", j.Cause, j.Raw)
	}
	if j.Latency != 120*time.Millisecond {
		t.Errorf("Expected latency 120ms, got %s", j.Latency)
	}
	if !j.CreatedAt.Equal(base) {
		t.Errorf("Expected created_at %s, got %s", base, j.CreatedAt)
	}
}

func TestJudgmentRepo_ListFiltersAndOrders(t *testing.T) {
	r := newTestJudgmentRepo(t)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 6; i++ {
		group := "100"
		if i%2 == 1 {
			group = "200"
		}
		err := r.Save(ctx, &domain.Judgment{
			ID:        fmt.Sprintf("j%d", i),
			GroupID:   group,
			Text:      fmt.Sprintf("msg %d", i),
			Outcome:   domain.OutcomeForward,
			Verdict:   domain.VerdictRelevant,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	got, err := r.List(ctx, repo.JudgmentFilter{GroupID: "200", Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 judgments, got %d", len(got))
	}
	if got[0].ID != "j5" || got[1].ID != "j3" {
		t.Errorf("Expected newest first [j5 j3], got [%s %s]", got[0].ID, got[1].ID)
	}
	for _, j := range got {
		if j.GroupID != "200" {
			t.Errorf("Expected only group 200, got %s", j.GroupID)
		}
	}

	all, err := r.List(ctx, repo.JudgmentFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 6 {
		t.Errorf("Expected 6 judgments, got %d", len(all))
	}
}
