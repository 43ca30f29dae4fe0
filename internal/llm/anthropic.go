package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// AnthropicOptions controls how the Anthropic-backed completer is initialised.
type AnthropicOptions struct {
	APIKey string
	Model  string
	Logger *logrus.Logger
}

type messageClient interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type anthropicCompleter struct {
	messages messageClient
	logger   *logrus.Logger
	model    string
}

var _ Completer = (*anthropicCompleter)(nil)

// NewAnthropicCompleter constructs a Completer backed by the Anthropic messages API.
func NewAnthropicCompleter(opts AnthropicOptions) (Completer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, eris.New("anthropic api key is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("anthropic model is required")
	}

	apiClient := anthropic.NewClient(option.WithAPIKey(opts.APIKey))

	return &anthropicCompleter{
		messages: &apiClient.Messages,
		logger:   opts.Logger,
		model:    model,
	}, nil
}

func (c *anthropicCompleter) Model() string {
	return c.model
}

func (c *anthropicCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", eris.New("prompt is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	if system := strings.TrimSpace(req.System); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	message, err := c.messages.New(ctx, params)
	if err != nil {
		c.logError(logrus.Fields{"model": c.model}, err, "requesting message completion")
		return "", eris.Wrap(err, "requesting message completion")
	}

	var builder strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}

	content := strings.TrimSpace(builder.String())
	if content == "" {
		err := eris.New("llm message content is empty")
		c.logError(logrus.Fields{"model": c.model}, err, "processing message completion")
		return "", err
	}

	return content, nil
}

func (c *anthropicCompleter) logError(fields logrus.Fields, err error, message string) {
	if c.logger == nil || err == nil {
		return
	}

	entry := c.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
