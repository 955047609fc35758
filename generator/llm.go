package generator

import "context"

// LLMClient 抽象文本补全服务，便于替换/Mock。
// Complete sends one fully rendered prompt and returns the generated text.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
}
