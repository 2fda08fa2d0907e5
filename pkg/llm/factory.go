package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dbquery-io/dbquery-engine/pkg/config"
)

// NewClient creates the generation client selected by configuration.
// Returns nil without error when no API key is configured; callers
// treat a nil client as generation disabled.
func NewClient(cfg *config.AIConfig, logger *zap.Logger) (Client, error) {
	if !cfg.IsConfigured() {
		return nil, nil
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens, logger), nil
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens, logger), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
