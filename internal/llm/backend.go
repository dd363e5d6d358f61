package llm

import (
	"context"
	"fmt"

	"github.com/hurricanerix/infiltrate/internal/config"
)

// Backend is a Completer that can verify its own configuration.
type Backend interface {
	Completer
	// Check verifies the backend is reachable and serves model.
	Check(ctx context.Context, model string) error
}

// New creates the Backend selected by cfg.LLMProvider.
func New(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout), nil
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMBaseURL)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidProvider, cfg.LLMProvider)
	}
}
