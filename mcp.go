package main

import (
	"os"

	"github.com/spf13/cobra"

	"gita_story_weaver/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server over stdio",
	Long: `Exposes list_themes and generate_story as MCP tools, plus the prompt
templates as a resource, so AI assistants can request stories.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		// stdout carries JSON-RPC
		a, err := newApp(cmd.Context(), cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		a.logger.Info("starting MCP server (stdio)")
		return mcpserver.NewServer(a.svc, version, a.templates, a.logger).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
