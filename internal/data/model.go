package data

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/devricklin/smart-listener/internal/biz/domain"
	"github.com/devricklin/smart-listener/internal/biz/repo"
	"github.com/devricklin/smart-listener/internal/conf"
	"github.com/devricklin/smart-listener/internal/infra/openai"
)

// ChatClient is the chat interface a classifier provider offers
type ChatClient interface {
	Chat(ctx context.Context, systemPrompt, userMessage string, opts openai.ChatOptions) (string, error)
}

// modelRepo routes completions to providers by ID
type modelRepo struct {
	providers map[string]ChatClient
}

// NewModelRepo creates a model repository over the given providers
func NewModelRepo(providers map[string]ChatClient) repo.ModelRepo {
	copied := make(map[string]ChatClient, len(providers))
	for id, client := range providers {
		if client != nil {
			copied[id] = client
		}
	}
	return &modelRepo{providers: copied}
}

// Complete runs the prompt on the named provider
func (r *modelRepo) Complete(ctx context.Context, providerID string, prompt domain.JudgmentPrompt, limits repo.GenerationLimits) (string, error) {
	client, ok := r.providers[providerID]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrProviderNotFound, providerID)
	}
	return client.Chat(ctx, prompt.System, prompt.User, openai.ChatOptions{
		MaxTokens:   limits.MaxTokens,
		Temperature: limits.Temperature,
	})
}

// HasProvider checks if a client is configured for the provider
func (r *modelRepo) HasProvider(providerID string) bool {
	_, ok := r.providers[providerID]
	return ok
}

// NewChatClients creates an OpenAI-compatible client per configured provider.
// Providers without an API key are skipped.
func NewChatClients(providers []conf.ProviderConfig) map[string]ChatClient {
	clients := make(map[string]ChatClient, len(providers))
	for _, p := range providers {
		apiKey := p.APIKey()
		if apiKey == "" {
			log.Warn().Str("provider", p.ID).Str("env", p.APIKeyEnv).Msg("provider has no API key, skipping")
			continue
		}
		clients[p.ID] = openai.NewClient(apiKey, p.BaseURL, p.Model)
		log.Info().Str("provider", p.ID).Str("model", p.Model).Msg("provider configured")
	}
	return clients
}
