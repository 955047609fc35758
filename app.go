package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"gita_story_weaver/config"
	"gita_story_weaver/frontend"
	"gita_story_weaver/generator"
	"gita_story_weaver/publisher"
	"gita_story_weaver/session"
)

// app holds everything the commands share.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *prometheus.Registry
	templates *generator.Templates
	pipeline  *generator.Pipeline
	themes    *generator.ThemeGenerator
	publisher *publisher.Publisher
	store     session.Store
	svc       *frontend.Service
}

func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app, error) {
	logger := cfg.NewLogger(logOut)
	slog.SetDefault(logger)

	templates := generator.DefaultTemplates()
	if cfg.TemplatesPath != "" {
		t, err := generator.LoadTemplatesFile(cfg.TemplatesPath)
		if err != nil {
			return nil, err
		}
		templates = t
		logger.Info("loaded prompt templates", "path", cfg.TemplatesPath)
	}

	llm, err := buildLLM(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	logger.Info("llm backend ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := generator.NewMetrics(reg)

	opts := []generator.Option{
		generator.WithLogger(logger),
		generator.WithHooks(metrics.Hooks()),
		generator.WithTemplates(templates),
		generator.WithParseOptions(generator.ParseOptions{LegacyPeriodSplit: cfg.LegacyThemeParsing}),
	}
	pipeline, err := generator.NewPipeline(llm, opts...)
	if err != nil {
		return nil, err
	}
	themes, err := generator.NewThemeGenerator(llm, opts...)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg.Session, logger)
	if err != nil {
		return nil, err
	}

	pub := publisher.New()
	svc, err := frontend.NewService(themes, pipeline, pub, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		registry:  reg,
		templates: templates,
		pipeline:  pipeline,
		themes:    themes,
		publisher: pub,
		store:     store,
		svc:       svc,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func buildLLM(ctx context.Context, cfg config.LLMConfig) (generator.LLMClient, error) {
	if cfg.Provider == "" {
		return nil, errors.New("llm config missing; please set llm.provider/model/api_key_env in config")
	}
	settings := &generator.LLMSettings{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		MaxTokens: cfg.MaxTokens,
	}
	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		return generator.NewOllamaLLMFromConfig(settings, nil)
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url（例如官方/网关地址）。
		if cfg.BaseURL == "" {
			return nil, errors.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "anthropic":
		return generator.NewAnthropicLLMFromConfig(settings)
	case "gemini":
		return generator.NewGeminiLLMFromConfig(ctx, settings)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}

func buildStore(ctx context.Context, cfg config.SessionConfig, logger *slog.Logger) (session.Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return session.NewMemoryStore(cfg.TTL), nil
	case "redis":
		store := session.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			session.WithTTL(cfg.TTL), session.WithPrefix(cfg.Redis.Prefix))
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("connect to redis %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("session store ready", "backend", "redis", "addr", cfg.Redis.Addr)
		return store, nil
	default:
		return nil, fmt.Errorf("session backend %q not supported", cfg.Backend)
	}
}
