package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/rupeeriser/budget-buddy/internal/config"
)

// Prompt is a single-turn request to a language model.
type Prompt struct {
	// System is the fixed instruction.
	System string
	// User carries the per-call input.
	User string
	// JSON asks the model to reply with a JSON object only.
	JSON bool
}

// Generator is an external language model: text in, text out.
// Implementations must not retry internally.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// ErrUnavailable is returned by a Generator that has no usable backend.
var ErrUnavailable = errors.New("language model not configured")

// unavailableGenerator fails every call so callers take their fallback path.
type unavailableGenerator struct {
	reason string
}

func (g unavailableGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrUnavailable, g.reason)
}

// Unavailable returns a Generator that always fails with ErrUnavailable.
func Unavailable(reason string) Generator {
	return unavailableGenerator{reason: reason}
}

// NewGenerator builds the Generator selected by cfg. A provider without an
// API key yields an Unavailable generator rather than an error.
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	apiKey := cfg.APIKey()
	if cfg.AIProvider == config.ProviderNone {
		return Unavailable("ai provider disabled"), nil
	}
	if apiKey == "" {
		return Unavailable("no api key for " + cfg.AIProvider), nil
	}

	switch cfg.AIProvider {
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, apiKey, cfg.AIModel)
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(apiKey, cfg.AIModel), nil
	case config.ProviderAnthropic:
		return NewAnthropicGenerator(apiKey, cfg.AIModel), nil
	default:
		return nil, fmt.Errorf("NewGenerator: unknown provider %q", cfg.AIProvider)
	}
}
