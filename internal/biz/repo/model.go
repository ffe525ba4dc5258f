package repo

import (
	"context"

	"github.com/devricklin/smart-listener/internal/biz/domain"
)

// GenerationLimits bounds a classifier completion
type GenerationLimits struct {
	MaxTokens   int
	Temperature float32
}

// ModelRepo is the model-invocation interface
type ModelRepo interface {
	// Complete runs the prompt on the given provider and returns the completion text
	Complete(ctx context.Context, providerID string, prompt domain.JudgmentPrompt, limits GenerationLimits) (string, error)

	// HasProvider checks if providerID can serve completions
	HasProvider(providerID string) bool
}
