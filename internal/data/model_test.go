package data

import (
	"context"
	"errors"
	"testing"

	"github.com/devricklin/smart-listener/internal/biz/domain"
	"github.com/devricklin/smart-listener/internal/biz/repo"
	"github.com/devricklin/smart-listener/internal/conf"
	"github.com/devricklin/smart-listener/internal/infra/openai"
)

type mockChatClient struct {
	response string
	system   string
	user     string
	opts     openai.ChatOptions
}

func (m *mockChatClient) Chat(ctx context.Context, systemPrompt, userMessage string, opts openai.ChatOptions) (string, error) {
	m.system = systemPrompt
	m.user = userMessage
	m.opts = opts
	return m.response, nil
}

func TestModelRepo_Complete(t *testing.T) {
	client := &mockChatClient{response: "yes"}
	r := NewModelRepo(map[string]ChatClient{"slm": client})

	resp, err := r.Complete(context.Background(), "slm",
		domain.JudgmentPrompt{System: "sys", User: "user"},
		repo.GenerationLimits{MaxTokens: 8, Temperature: 0.1})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp != "yes" {
		t.Errorf("Expected yes, got %q", resp)
	}
	if client.system != "sys" || client.user != "user" {
		t.Errorf("Expected prompt parts passed through, got %q / %q", client.system, client.user)
	}
	if client.opts.MaxTokens != 8 {
		t.Errorf("Expected max tokens 8, got %d", client.opts.MaxTokens)
	}
}

func TestModelRepo_UnknownProvider(t *testing.T) {
	r := NewModelRepo(map[string]ChatClient{"slm": nil})

	_, err := r.Complete(context.Background(), "slm", domain.JudgmentPrompt{}, repo.GenerationLimits{})
	if !errors.Is(err, domain.ErrProviderNotFound) {
		t.Errorf("Expected ErrProviderNotFound, got %v", err)
	}
}

func TestModelRepo_HasProvider(t *testing.T) {
	r := NewModelRepo(map[string]ChatClient{"slm": &mockChatClient{}, "nokey": nil})

	if !r.HasProvider("slm") {
		t.Error("Expected slm to be available")
	}
	if r.HasProvider("nokey") || r.HasProvider("missing") {
		t.Error("Expected nil and unknown providers to be unavailable")
	}
}

func TestNewChatClients(t *testing.T) {
	t.Setenv("TEST_SLM_KEY", "sk-test")
	clients := NewChatClients([]conf.ProviderConfig{
		{ID: "slm", APIKeyEnv: "TEST_SLM_KEY", Model: "tiny"},
		{ID: "nokey", APIKeyEnv: "TEST_MISSING_KEY"},
	})
	if _, ok := clients["slm"]; !ok {
		t.Error("Expected slm client")
	}
	if _, ok := clients["nokey"]; ok {
		t.Error("Expected provider without key to be skipped")
	}
}
