package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"ghostwriter/app/internal/config"
)

// CompletionRequest describes a single prompt sent to the model.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int64
}

// Completer abstracts a chat-completion provider so the writer can run
// against OpenAI or Anthropic interchangeably.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Model() string
}

const defaultMaxTokens = 4096

// NewCompleter selects and constructs the provider named in the configuration.
func NewCompleter(cfg *config.Config, logger *logrus.Logger) (Completer, error) {
	if cfg == nil {
		return nil, eris.New("config is required")
	}

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAICompleter(OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.LLMEndpoint,
			Model:   cfg.LLMModel,
			Logger:  logger,
		})
	case config.ProviderAnthropic:
		return NewAnthropicCompleter(AnthropicOptions{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.LLMModel,
			Logger: logger,
		})
	default:
		return nil, eris.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}
