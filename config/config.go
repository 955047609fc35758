// Package config loads the story weaver configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings. YAML is a superset of JSON, so a
// config.json with the same keys loads as well.
type Config struct {
	LLM           LLMConfig     `yaml:"llm"`
	Server        ServerConfig  `yaml:"server"`
	Session       SessionConfig `yaml:"session"`
	TemplatesPath string        `yaml:"templates_path"`
	// LegacyThemeParsing keeps only the text before the first '.' of each
	// theme line instead of stripping leading numbering.
	LegacyThemeParsing bool   `yaml:"legacy_theme_parsing"`
	LogLevel           string `yaml:"log_level"`
	LogFormat          string `yaml:"log_format"`
}

// LLMConfig 选择文本补全后端。
type LLMConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
}

// ServerConfig configures the HTTP front-end.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// RequestTimeout bounds one story request. Four sequential calls against a
	// local model routinely take minutes.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// SessionConfig selects where chat sessions live while they are active.
type SessionConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig is used when Session.Backend is "redis".
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// DefaultOllamaModel is used when the provider is ollama and no model is set.
const DefaultOllamaModel = "llama3.2"

// Default returns a config that talks to a local Ollama server. Model and
// BaseURL stay empty so a file or flag that switches provider never inherits
// Ollama values; Finalize fills in the Ollama model.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "ollama",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 10 * time.Minute,
		},
		Session: SessionConfig{
			Backend: "memory",
			TTL:     time.Hour,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "storyweaver:session:",
			},
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// DefaultSearchPaths returns the config file search order.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml", "config.json", filepath.Join("config", "config.yaml")}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "storyweaver", "config.yaml"))
	}
	return paths
}

// FindConfig locates a config file. An explicit path must exist; otherwise the
// first existing default path wins. An empty result with nil error means no
// file was found and defaults apply.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}
	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// Load reads path over the defaults and finalizes the result. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read decodes path over the defaults without finalizing, so callers can
// apply overrides first.
func Read(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Finalize resolves the API key from the environment, fills provider
// specific defaults and validates.
func (c *Config) Finalize() error {
	c.applyEnv()
	if c.LLM.Provider == "ollama" && c.LLM.Model == "" {
		c.LLM.Model = DefaultOllamaModel
	}
	return c.Validate()
}

func (c *Config) applyEnv() {
	if c.LLM.APIKey == "" && c.LLM.APIKeyEnv != "" {
		c.LLM.APIKey = os.Getenv(c.LLM.APIKeyEnv)
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case "ollama", "openai", "deepseek", "anthropic", "gemini", "mock":
	case "":
		errs = append(errs, errors.New("llm.provider is required"))
	default:
		errs = append(errs, fmt.Errorf("llm provider %s not supported", c.LLM.Provider))
	}
	if c.LLM.Provider != "mock" && c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if c.LLM.Provider == "deepseek" && c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)"))
	}
	switch strings.ToLower(c.Session.Backend) {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("session backend %q not supported (memory, redis)", c.Session.Backend))
	}
	if c.Server.RequestTimeout < 0 || c.Session.TTL < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q not supported (text, json)", c.LogFormat))
	}
	return errors.Join(errs...)
}
