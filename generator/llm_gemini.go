package generator

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiLLM implements LLMClient using the Google GenAI SDK.
type GeminiLLM struct {
	Model     string
	MaxTokens int
	client    *genai.Client
}

func NewGeminiLLMFromConfig(ctx context.Context, cfg *LLMSettings) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key missing; provide llm.api_key or llm.api_key_env")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiLLM{Model: cfg.Model, MaxTokens: cfg.MaxTokens, client: client}, nil
}

func (g *GeminiLLM) Complete(ctx context.Context, prompt string) (string, error) {
	var config *genai.GenerateContentConfig
	if g.MaxTokens > 0 {
		config = &genai.GenerateContentConfig{MaxOutputTokens: int32(g.MaxTokens)}
	}
	result, err := g.client.Models.GenerateContent(ctx, g.Model, genai.Text(prompt), config)
	if err != nil {
		return "", err
	}
	if result == nil || len(result.Candidates) == 0 {
		return "", errors.New("gemini: empty candidates")
	}
	return result.Text(), nil
}
