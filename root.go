package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gita_story_weaver/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "storyweaver",
	Short: "Turn Bhagavad Gita themes into modern stories",
	Long: `storyweaver asks a language model for Bhagavad Gita themes and turns the
chosen theme into a story in four steps: core conflict, characters, plot and
a final refinement. It runs as a web chat, a terminal chat, a one-shot CLI or
an MCP tool server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: search config.yaml, config.json, config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("provider", "", "LLM provider: ollama, openai, deepseek, anthropic, gemini, mock")
	rootCmd.PersistentFlags().String("model", "", "Model name")
	rootCmd.PersistentFlags().String("base-url", "", "Provider base URL")
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit, _ := cmd.Flags().GetString("config")
	path, err := config.FindConfig(explicit)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Read(path)
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"log-level", &cfg.LogLevel},
		{"provider", &cfg.LLM.Provider},
		{"model", &cfg.LLM.Model},
		{"base-url", &cfg.LLM.BaseURL},
	}
	for _, o := range overrides {
		if v, _ := cmd.Flags().GetString(o.flag); v != "" {
			*o.dst = v
		}
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}
