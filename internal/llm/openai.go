package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// OpenAIOptions controls how the OpenAI-backed completer is initialised.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

type chatCompletionClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

type openAICompleter struct {
	chat   chatCompletionClient
	logger *logrus.Logger
	model  string
}

var _ Completer = (*openAICompleter)(nil)

// NewOpenAICompleter constructs a Completer backed by the OpenAI chat API.
func NewOpenAICompleter(opts OpenAIOptions) (Completer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, eris.New("openai api key is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("openai model is required")
	}

	requestOptions := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
	}

	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(baseURL))
	}

	if opts.HTTPClient != nil {
		requestOptions = append(requestOptions, option.WithHTTPClient(opts.HTTPClient))
	}

	apiClient := openai.NewClient(requestOptions...)

	return &openAICompleter{
		chat:   &apiClient.Chat.Completions,
		logger: opts.Logger,
		model:  model,
	}, nil
}

func (c *openAICompleter) Model() string {
	return c.model
}

func (c *openAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", eris.New("prompt is required")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: messages,
	}

	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(req.MaxTokens)
	}

	completion, err := c.chat.New(ctx, params)
	if err != nil {
		c.logError(logrus.Fields{"model": c.model}, err, "requesting chat completion")
		return "", eris.Wrap(err, "requesting chat completion")
	}

	if len(completion.Choices) == 0 {
		err := eris.New("llm completion returned no choices")
		c.logError(logrus.Fields{"model": c.model}, err, "processing chat completion")
		return "", err
	}

	choice := completion.Choices[0]
	if reason := strings.TrimSpace(choice.FinishReason); strings.EqualFold(reason, "content_filter") {
		err := eris.New("llm blocked the request via content filter")
		c.logError(logrus.Fields{"model": c.model}, err, "completion blocked")
		return "", err
	}

	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		err := eris.Errorf("llm refused to generate content: %s", refusal)
		c.logError(logrus.Fields{"model": c.model}, err, "completion refused")
		return "", err
	}

	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		err := eris.New("llm completion content is empty")
		c.logError(logrus.Fields{"model": c.model}, err, "processing chat completion")
		return "", err
	}

	return content, nil
}

func (c *openAICompleter) logError(fields logrus.Fields, err error, message string) {
	if c.logger == nil || err == nil {
		return
	}

	entry := c.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
