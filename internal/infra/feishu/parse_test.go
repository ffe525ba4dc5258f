package feishu

import "testing"

func TestParseTextContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		mentions map[string]string
		want     string
	}{
		{"plain", `{"text":"hello"}`, nil, "hello"},
		{"mention resolved", `{"text":"@_user_1 ping"}`, map[string]string{"@_user_1": "Alice"}, "@Alice ping"},
		{"unknown placeholder kept", `{"text":"@_user_2 ping"}`, map[string]string{"@_user_1": "Alice"}, "@_user_2 ping"},
		{"two digit placeholder", `{"text":"@_user_10 hi"}`, map[string]string{"@_user_1": "Alice", "@_user_10": "Bob"}, "@Bob hi"},
		{"prefix sharing placeholders", `{"text":"@_user_1 and @_user_10"}`, map[string]string{"@_user_1": "Alice", "@_user_10": "Bob"}, "@Alice and @Bob"},
		{"name is not rescanned", `{"text":"@_user_1 hi"}`, map[string]string{"@_user_1": "@_user_2", "@_user_2": "Bob"}, "@@_user_2 hi"},
		{"invalid json", `not json`, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Map iteration order must not leak into the result
			for i := 0; i < 20; i++ {
				if got := ParseTextContent(tt.content, tt.mentions); got != tt.want {
					t.Fatalf("Expected %q, got %q", tt.want, got)
				}
			}
		})
	}
}

func TestParsePostContent(t *testing.T) {
	content := `{
		"title": "Weekly sync",
		"content": [
			[{"tag":"text","text":"ask "},{"tag":"at","user_id":"@_user_1"},{"tag":"text","text":" about it"}],
			[{"tag":"img","image_key":"img_1"}],
			[{"tag":"a","text":"the doc","href":"https://example.com"}]
		]
	}`

	got := ParsePostContent(content, map[string]string{"@_user_1": "Bob"})
	want := "Weekly sync\nask @Bob about it\nthe doc"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestParsePostContent_UnknownMention(t *testing.T) {
	content := `{"content":[[{"tag":"at","user_id":"ou_123"}]]}`
	if got := ParsePostContent(content, nil); got != "@ou_123" {
		t.Errorf("Expected @ou_123, got %q", got)
	}
}
