package domain

import (
	"encoding/json"
	"testing"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		response string
		want     Verdict
	}{
		{"yes", VerdictRelevant},
		{"Yes, because the message asks the bot directly.", VerdictRelevant},
		{"  YES\n", VerdictRelevant},
		{"\"yes\"", VerdictRelevant},
		{"**Yes**", VerdictRelevant},
		{"no", VerdictNotRelevant},
		{"No.", VerdictNotRelevant},
		{"NO", VerdictNotRelevant},
		{"", VerdictIndeterminate},
		{"   ", VerdictIndeterminate},
		{"maybe", VerdictIndeterminate},
		{"yesterday was fun", VerdictIndeterminate},
		{"nothing to add", VerdictIndeterminate},
		{"I think yes", VerdictIndeterminate},
	}

	for _, tt := range tests {
		t.Run(tt.response, func(t *testing.T) {
			if got := ParseVerdict(tt.response); got != tt.want {
				t.Errorf("ParseVerdict(%q) = %s, want %s", tt.response, got, tt.want)
			}
		})
	}
}

func TestVerdict_ShouldForward(t *testing.T) {
	if !VerdictRelevant.ShouldForward() {
		t.Error("Expected relevant verdict to forward")
	}
	if VerdictNotRelevant.ShouldForward() {
		t.Error("Expected not-relevant verdict not to forward")
	}
	if VerdictIndeterminate.ShouldForward() {
		t.Error("Expected indeterminate verdict never to forward")
	}
}

func TestVerdict_JSON(t *testing.T) {
	data, err := json.Marshal(VerdictNotRelevant)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(data) != `"not_relevant"` {
		t.Errorf("Expected \"not_relevant\", got %s", data)
	}

	var v Verdict
	if err := json.Unmarshal([]byte(`"relevant"`), &v); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v != VerdictRelevant {
		t.Errorf("Expected relevant, got %s", v)
	}

	if err := json.Unmarshal([]byte(`"bogus"`), &v); err == nil {
		t.Error("Expected error for unknown verdict")
	}
}
