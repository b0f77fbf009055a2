package proposal

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
)

// Completer sends one system+user prompt and returns the text reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter talks to any OpenAI-compatible chat completions API.
func NewOpenAICompleter(apiKey, model, baseURL string) *OpenAICompleter {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAICompleter{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type AnthropicCompleter struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func NewAnthropicCompleter(apiKey, model, baseURL string) *AnthropicCompleter {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &AnthropicCompleter{
		client:    anthropic.NewClient(apiKey, opts...),
		model:     model,
		maxTokens: 4096,
	}
}

func (c *AnthropicCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(c.model),
		System: system,
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(user)},
			},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", err
	}
	for _, part := range resp.Content {
		if part.Text != nil {
			return *part.Text, nil
		}
	}
	return "", fmt.Errorf("no response content")
}

// NewCompleter picks a provider by name. Local models are reached through
// the openai provider with a custom base URL.
func NewCompleter(provider, apiKey, model, baseURL string) (Completer, error) {
	switch strings.ToLower(provider) {
	case "", "openai":
		return NewOpenAICompleter(apiKey, model, baseURL), nil
	case "anthropic", "claude":
		return NewAnthropicCompleter(apiKey, model, baseURL), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
