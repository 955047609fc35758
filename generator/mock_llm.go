package generator

import (
	"context"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
// It echoes the prompt inside a markdown draft. Echoing the theme prompt
// yields its example lines, so the theme list is populated offline too.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt string) (string, error) {
	var sb strings.Builder
	sb.WriteString("### Offline draft\n\n")
	sb.WriteString("Generated without a model from the prompt below:\n\n")
	sb.WriteString(prompt)
	sb.WriteString("\n")
	return sb.String(), nil
}
