package llm

import (
	"context"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

type fakeMessageService struct {
	response   *anthropic.Message
	err        error
	lastParams anthropic.MessageNewParams
}

func (f *fakeMessageService) New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func TestNewAnthropicCompleterRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewAnthropicCompleter(AnthropicOptions{Model: "claude-3-5-sonnet-20241022"}); err == nil {
		t.Fatalf("expected error when api key is missing")
	}
}

func TestAnthropicCompleteJoinsTextBlocks(t *testing.T) {
	t.Parallel()

	messages := &fakeMessageService{
		response: &anthropic.Message{
			Content: []anthropic.ContentBlockUnion{
				{Type: "text", Text: "first "},
				{Type: "tool_use"},
				{Type: "text", Text: "second"},
			},
		},
	}
	completer := &anthropicCompleter{messages: messages, logger: discardLogger(), model: "claude-stub"}

	content, err := completer.Complete(context.Background(), CompletionRequest{
		System:      "system prompt",
		Prompt:      "user prompt",
		Temperature: 0.4,
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	if content != "first second" {
		t.Fatalf("expected joined text blocks, got %q", content)
	}

	if messages.lastParams.MaxTokens != defaultMaxTokens {
		t.Fatalf("expected default max tokens %d, got %d", defaultMaxTokens, messages.lastParams.MaxTokens)
	}

	if len(messages.lastParams.System) != 1 || messages.lastParams.System[0].Text != "system prompt" {
		t.Fatalf("expected system prompt to be forwarded, got %#v", messages.lastParams.System)
	}
}

func TestAnthropicCompleteFailsOnEmptyContent(t *testing.T) {
	t.Parallel()

	messages := &fakeMessageService{response: &anthropic.Message{}}
	completer := &anthropicCompleter{messages: messages, logger: discardLogger(), model: "claude-stub"}

	if _, err := completer.Complete(context.Background(), CompletionRequest{Prompt: "prompt"}); err == nil {
		t.Fatalf("expected error when message has no text content")
	}
}

func TestAnthropicCompletePropagatesAPIError(t *testing.T) {
	t.Parallel()

	messages := &fakeMessageService{err: eris.New("api failure")}
	completer := &anthropicCompleter{messages: messages, logger: discardLogger(), model: "claude-stub"}

	if _, err := completer.Complete(context.Background(), CompletionRequest{Prompt: "prompt"}); err == nil {
		t.Fatalf("expected error when message service fails")
	}
}
