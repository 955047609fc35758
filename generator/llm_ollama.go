package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaURL is where a local Ollama server listens.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaLLM implements LLMClient against Ollama's generate endpoint.
type OllamaLLM struct {
	Model     string
	MaxTokens int
	client    *api.Client
}

// NewOllamaLLMFromConfig builds a client for cfg.BaseURL (DefaultOllamaURL when
// empty). httpClient may be nil.
func NewOllamaLLMFromConfig(cfg *LLMSettings, httpClient *http.Client) (*OllamaLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultOllamaURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ollama base_url %q", base)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaLLM{
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		client:    api.NewClient(u, httpClient),
	}, nil
}

func (o *OllamaLLM) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  o.Model,
		Prompt: prompt,
		Stream: &stream,
	}
	if o.MaxTokens > 0 {
		req.Options = map[string]any{"num_predict": o.MaxTokens}
	}

	var sb strings.Builder
	done := false
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		done = done || resp.Done
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if !done {
		return "", errors.New("ollama: response ended before done")
	}
	return sb.String(), nil
}
