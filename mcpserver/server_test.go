package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gita_story_weaver/frontend"
	"gita_story_weaver/generator"
	"gita_story_weaver/session"
)

type themesFunc func() ([]string, error)

func (f themesFunc) Generate(context.Context) ([]string, error) { return f() }

type storyFunc func(string) (string, error)

func (f storyFunc) Run(_ context.Context, theme string) (string, error) { return f(theme) }

func newServer(t *testing.T, themes themesFunc, stories storyFunc) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := frontend.NewService(themes, stories, nil, session.NewMemoryStore(0), logger)
	require.NoError(t, err)
	return NewServer(svc, "test", nil, logger)
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestListThemes(t *testing.T) {
	s := newServer(t,
		func() ([]string, error) { return []string{"Duty (Karma Yoga) - Act without attachment"}, nil },
		func(string) (string, error) { return "", nil },
	)

	res, err := s.handleListThemes(context.Background(), callTool("list_themes", nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var themes []generator.Theme
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &themes))
	require.Len(t, themes, 1)
	assert.Equal(t, "Duty", themes[0].Name)
	assert.Equal(t, "Karma Yoga", themes[0].Term)
}

func TestListThemes_Failure(t *testing.T) {
	s := newServer(t,
		func() ([]string, error) { return nil, errors.New("401 unauthorized") },
		func(string) (string, error) { return "", nil },
	)

	res, err := s.handleListThemes(context.Background(), callTool("list_themes", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, frontend.MsgThemesFailed, resultText(t, res))
}

func TestGenerateStory(t *testing.T) {
	var got string
	s := newServer(t,
		func() ([]string, error) { return nil, nil },
		func(theme string) (string, error) { got = theme; return "The river was high that spring.", nil },
	)

	res, err := s.handleGenerateStory(context.Background(), callTool("generate_story", map[string]any{"theme": "Courage (Virya) - Standing firm"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "Courage (Virya) - Standing firm", got)
	assert.Equal(t, "# 📖 Your Story\n\n## Courage (Virya) - Standing firm\n\nThe river was high that spring.", resultText(t, res))
}

func TestGenerateStory_Errors(t *testing.T) {
	calls := 0
	s := newServer(t,
		func() ([]string, error) { return nil, nil },
		func(string) (string, error) { calls++; return "", errors.New("stage core_story: generation failed: EOF") },
	)
	ctx := context.Background()

	res, err := s.handleGenerateStory(ctx, callTool("generate_story", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleGenerateStory(ctx, callTool("generate_story", map[string]any{"theme": "  "}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, frontend.MsgEmptyInput, resultText(t, res))
	assert.Zero(t, calls)

	res, err = s.handleGenerateStory(ctx, callTool("generate_story", map[string]any{"theme": "Duty"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, frontend.MsgStoryFailed, resultText(t, res))
	assert.Equal(t, 1, calls)
}

func TestTemplatesResource(t *testing.T) {
	s := newServer(t, func() ([]string, error) { return nil, nil }, func(string) (string, error) { return "", nil })

	contents, err := s.handleTemplates(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)

	var infos []templateInfo
	require.NoError(t, json.Unmarshal([]byte(text.Text), &infos))
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}
	assert.ElementsMatch(t, []string{
		generator.TemplateCoreStory,
		generator.TemplateCharacters,
		generator.TemplatePlot,
		generator.TemplateRefine,
		generator.TemplateThemes,
	}, ids)
}
