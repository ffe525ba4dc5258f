package openai

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is the Moonshot endpoint, the provider the listener was first run against
const DefaultBaseURL = "https://api.moonshot.cn/v1"

// DefaultModel is used when a provider does not name one
const DefaultModel = "moonshot-v1-8k"

// Client is a chat client for any OpenAI-compatible endpoint
type Client struct {
	client *goopenai.Client
	model  string
}

// ChatOptions bounds a chat completion
type ChatOptions struct {
	MaxTokens   int
	Temperature float32
}

// NewClient creates a new OpenAI-compatible client
func NewClient(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	config := goopenai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: goopenai.NewClientWithConfig(config),
		model:  model,
	}
}

// Model returns the model name used for completions
func (c *Client) Model() string {
	return c.model
}

// Chat sends a system prompt and a user message and returns the response text.
// The caller's context bounds the call.
func (c *Client) Chat(ctx context.Context, systemPrompt, userMessage string, opts ChatOptions) (string, error) {
	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: userMessage})

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return resp.Choices[0].Message.Content, nil
}
