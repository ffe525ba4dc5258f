package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler func(req map[string]interface{}) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected /chat/completions, got %s", r.URL.Path)
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChat(t *testing.T) {
	var got map[string]interface{}
	srv := newTestServer(t, func(req map[string]interface{}) (int, string) {
		got = req
		return http.StatusOK, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"yes"},"finish_reason":"stop"}]}`
	})

	c := NewClient("test-key", srv.URL, "tiny-model")
	resp, err := c.Chat(context.Background(), "system", "user", ChatOptions{MaxTokens: 8, Temperature: 0.1})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp != "yes" {
		t.Errorf("Expected yes, got %q", resp)
	}

	if got["model"] != "tiny-model" {
		t.Errorf("Expected model tiny-model, got %v", got["model"])
	}
	if got["max_tokens"] != float64(8) {
		t.Errorf("Expected max_tokens 8, got %v", got["max_tokens"])
	}
	messages, _ := got["messages"].([]interface{})
	if len(messages) != 2 {
		t.Fatalf("Expected system and user messages, got %d", len(messages))
	}
}

func TestChat_NoSystemPrompt(t *testing.T) {
	var count int
	srv := newTestServer(t, func(req map[string]interface{}) (int, string) {
		messages, _ := req["messages"].([]interface{})
		count = len(messages)
		return http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"no"}}]}`
	})

	c := NewClient("k", srv.URL, "")
	if _, err := c.Chat(context.Background(), "", "user", ChatOptions{}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected only the user message, got %d messages", count)
	}
	if c.Model() != DefaultModel {
		t.Errorf("Expected default model, got %s", c.Model())
	}
}

func TestChat_NoChoices(t *testing.T) {
	srv := newTestServer(t, func(req map[string]interface{}) (int, string) {
		return http.StatusOK, `{"choices":[]}`
	})

	c := NewClient("k", srv.URL, "m")
	if _, err := c.Chat(context.Background(), "s", "u", ChatOptions{}); err == nil {
		t.Error("Expected error for empty choices")
	}
}

func TestChat_APIError(t *testing.T) {
	srv := newTestServer(t, func(req map[string]interface{}) (int, string) {
		return http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`
	})

	c := NewClient("k", srv.URL, "m")
	if _, err := c.Chat(context.Background(), "s", "u", ChatOptions{}); err == nil {
		t.Error("Expected error for 401 response")
	}
}

func TestChat_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL, "m")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := c.Chat(ctx, "s", "u", ChatOptions{}); err == nil {
		t.Error("Expected error when the context deadline passes")
	}
}
