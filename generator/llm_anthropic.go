package generator

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicLLM implements LLMClient using the Anthropic Messages API.
type AnthropicLLM struct {
	Model     string
	MaxTokens int
	client    anthropic.Client
}

func NewAnthropicLLMFromConfig(cfg *LLMSettings) (*AnthropicLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic api key missing; provide llm.api_key or llm.api_key_env")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		// Messages API 要求显式 max_tokens；1500-2000 词的终稿需要足够余量。
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicLLM{
		Model:     cfg.Model,
		MaxTokens: maxTokens,
		client:    anthropic.NewClient(opts...),
	}, nil
}

func (a *AnthropicLLM) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: int64(a.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Content) == 0 {
		return "", errors.New("anthropic: empty content")
	}
	var sb strings.Builder
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return sb.String(), nil
}
