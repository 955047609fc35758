package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gita_story_weaver/config"
	"gita_story_weaver/generator"
	"gita_story_weaver/session"
)

func TestBuildLLM(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     config.LLMConfig
		want    any
		wantErr string
	}{
		{"ollama", config.LLMConfig{Provider: "ollama", Model: "llama3.2"}, &generator.OllamaLLM{}, ""},
		{"openai", config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini", APIKey: "k"}, &generator.OpenAILLM{}, ""},
		{"deepseek", config.LLMConfig{Provider: "deepseek", Model: "deepseek-chat", APIKey: "k", BaseURL: "https://api.deepseek.com/v1"}, &generator.OpenAILLM{}, ""},
		{"deepseek without base url", config.LLMConfig{Provider: "deepseek", Model: "deepseek-chat", APIKey: "k"}, nil, "base_url"},
		{"anthropic", config.LLMConfig{Provider: "anthropic", Model: "claude-sonnet-4-5", APIKey: "k"}, &generator.AnthropicLLM{}, ""},
		{"mock", config.LLMConfig{Provider: "mock"}, generator.MockLLM{}, ""},
		{"unknown", config.LLMConfig{Provider: "bard", Model: "x"}, nil, "not supported"},
		{"missing", config.LLMConfig{}, nil, "llm config missing"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			llm, err := buildLLM(ctx, tc.cfg)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.want, llm)
		})
	}
}

func TestBuildStore(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := buildStore(ctx, config.SessionConfig{Backend: "memory", TTL: time.Minute}, logger)
	require.NoError(t, err)
	assert.IsType(t, &session.MemoryStore{}, store)

	mr := miniredis.RunT(t)
	store, err = buildStore(ctx, config.SessionConfig{
		Backend: "redis",
		TTL:     time.Minute,
		Redis:   config.RedisConfig{Addr: mr.Addr(), Prefix: "t:"},
	}, logger)
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &session.RedisStore{}, store)

	sess := session.New(nil)
	require.NoError(t, store.Save(ctx, sess))
	assert.True(t, mr.Exists("t:"+sess.ID))

	_, err = buildStore(ctx, config.SessionConfig{Backend: "etcd"}, logger)
	assert.Error(t, err)
}

func TestNewApp_MockProvider(t *testing.T) {
	cfg := config.Default()
	cfg.LLM = config.LLMConfig{Provider: "mock"}

	var logs bytes.Buffer
	a, err := newApp(context.Background(), cfg, &logs)
	require.NoError(t, err)
	defer a.Close()

	themes, err := a.svc.Themes(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, themes)

	res := a.svc.Generate(context.Background(), "Duty")
	require.False(t, res.Failed)
	assert.Contains(t, res.Story.Markdown, "## Duty")

	families, err := a.registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["story_runs_total"])
	assert.True(t, names["story_stage_calls_total"])
	assert.Contains(t, logs.String(), "llm backend ready")
}

func TestNewApp_LogsStayOffStdout(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	cfg := config.Default()
	cfg.LLM = config.LLMConfig{Provider: "mock"}
	var logs bytes.Buffer
	a, err := newApp(context.Background(), cfg, &logs)
	require.NoError(t, err)
	defer a.Close()

	// the stdlib logger is routed through the app handler, so stdout stays
	// free for the MCP transport
	log.Print("stdlib line")
	a.svc.Generate(context.Background(), "Duty")

	os.Stdout = stdout
	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, string(out))
	assert.Contains(t, logs.String(), "stdlib line")
}

func TestNewApp_TemplateOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`templates:
  - id: themes
    placeholders: []
    body: "1. Custom (Term) - only one"
`), 0o644))

	cfg := config.Default()
	cfg.LLM = config.LLMConfig{Provider: "mock"}
	cfg.TemplatesPath = path

	a, err := newApp(context.Background(), cfg, io.Discard)
	require.NoError(t, err)
	defer a.Close()

	themes, err := a.svc.Themes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Custom (Term) - only one"}, themes)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: ollama\n  model: llama3.2\n"), 0o644))

	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{Use: "x"}
		cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
		resetFlags(t, cmd)
		return cmd
	}

	cmd := newCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path, "--provider", "mock", "--log-level", "debug"}))
	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, "debug", cfg.LogLevel)

	cmd = newCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path, "--provider", "bard"}))
	_, err = loadConfig(cmd)
	assert.ErrorContains(t, err, "not supported")
}

// resetFlags clears the persistent flags shared with rootCmd so one parse
// does not leak into the next.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	names := []string{"config", "log-level", "provider", "model", "base-url"}
	reset := func() {
		for _, name := range names {
			require.NoError(t, cmd.Flags().Set(name, ""))
		}
	}
	reset()
	t.Cleanup(reset)
}

func TestLoadConfig_ProviderSwitch(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("log_level: info\n"), 0o644))

	newCmd := func(args ...string) *cobra.Command {
		cmd := &cobra.Command{Use: "x"}
		cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
		resetFlags(t, cmd)
		require.NoError(t, cmd.Flags().Parse(append([]string{"--config", empty}, args...)))
		return cmd
	}

	cfg, err := loadConfig(newCmd())
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, config.DefaultOllamaModel, cfg.LLM.Model)
	assert.Empty(t, cfg.LLM.BaseURL)

	// switching provider must not keep the ollama model
	_, err = loadConfig(newCmd("--provider", "openai"))
	assert.ErrorContains(t, err, "llm.model is required")

	cfg, err = loadConfig(newCmd("--provider", "openai", "--model", "gpt-4o-mini"))
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Empty(t, cfg.LLM.BaseURL, "openai must use its own endpoint")

	llm, err := buildLLM(context.Background(), config.LLMConfig{Provider: cfg.LLM.Provider, Model: cfg.LLM.Model, APIKey: "k", BaseURL: cfg.LLM.BaseURL})
	require.NoError(t, err)
	assert.IsType(t, &generator.OpenAILLM{}, llm)
}
