package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devricklin/smart-listener/internal/biz/domain"
	"github.com/devricklin/smart-listener/internal/biz/repo"
)

// ClassifierConfig contains classifier call settings
type ClassifierConfig struct {
	Timeout     time.Duration // Bound on a single model call
	MaxTokens   int           // Short output: only yes/no is needed
	Temperature float32
}

// DefaultClassifierConfig returns default classifier configuration
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		Timeout:     10 * time.Second,
		MaxTokens:   8,
		Temperature: 0.1,
	}
}

// Classification is the result of one classifier call
type Classification struct {
	Verdict domain.Verdict
	Raw     string
	Err     error // Non-nil iff Verdict is indeterminate
	Latency time.Duration
}

// ClassifierUsecase judges message relevance with a lightweight model
type ClassifierUsecase struct {
	modelRepo repo.ModelRepo
	config    ClassifierConfig
}

// NewClassifierUsecase creates a new classifier usecase
func NewClassifierUsecase(modelRepo repo.ModelRepo, config ClassifierConfig) *ClassifierUsecase {
	defaults := DefaultClassifierConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaults.MaxTokens
	}
	return &ClassifierUsecase{
		modelRepo: modelRepo,
		config:    config,
	}
}

// Available checks if the provider can be called at all
func (uc *ClassifierUsecase) Available(providerID string) bool {
	return providerID != "" && uc.modelRepo.HasProvider(providerID)
}

// Classify invokes the provider with the prompt and parses a yes/no verdict.
// Timeouts, transport errors and malformed responses all come back as
// VerdictIndeterminate with Err set; Classify itself never fails.
func (uc *ClassifierUsecase) Classify(ctx context.Context, providerID string, prompt domain.JudgmentPrompt) Classification {
	callCtx, cancel := context.WithTimeout(ctx, uc.config.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := uc.modelRepo.Complete(callCtx, providerID, prompt, repo.GenerationLimits{
		MaxTokens:   uc.config.MaxTokens,
		Temperature: uc.config.Temperature,
	})
	result := Classification{
		Verdict: domain.VerdictIndeterminate,
		Raw:     raw,
		Latency: time.Since(start),
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || (ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded)) {
			result.Err = fmt.Errorf("%w after %s: %w", domain.ErrClassifierTimeout, uc.config.Timeout, err)
		} else {
			result.Err = fmt.Errorf("%w: %w", domain.ErrClassifierTransport, err)
		}
		return result
	}

	result.Verdict = domain.ParseVerdict(raw)
	if result.Verdict == domain.VerdictIndeterminate {
		result.Err = fmt.Errorf("%w: %q", domain.ErrClassifierMalformed, truncate(raw, 80))
	}
	return result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
