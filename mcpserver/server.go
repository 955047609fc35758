// Package mcpserver exposes theme suggestions and story generation as MCP
// tools so assistants can drive the pipeline over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"gita_story_weaver/frontend"
	"gita_story_weaver/generator"
)

const templatesURI = "storyweaver://templates"

// Server wraps the frontend service as an MCP server.
type Server struct {
	svc       *frontend.Service
	templates *generator.Templates
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

type templateInfo struct {
	ID           string   `json:"id"`
	Placeholders []string `json:"placeholders"`
}

// NewServer registers the tools. templates may be nil, in which case the
// built-in set is published.
func NewServer(svc *frontend.Service, version string, templates *generator.Templates, logger *slog.Logger) *Server {
	if templates == nil {
		templates = generator.DefaultTemplates()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:       svc,
		templates: templates,
		logger:    logger,
		mcpServer: server.NewMCPServer("gita-story-weaver", version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio blocks serving on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_themes",
		mcp.WithDescription("Suggest Bhagavad Gita themes for a story. Each theme has a name, the Sanskrit term and a short description."),
	), s.handleListThemes)

	s.mcpServer.AddTool(mcp.NewTool("generate_story",
		mcp.WithDescription("Write a modern story illustrating a Bhagavad Gita theme. Runs four model calls in sequence and can take several minutes."),
		mcp.WithString("theme", mcp.Required(), mcp.Description("A theme line from list_themes or any free-text theme")),
	), s.handleGenerateStory)
}

func (s *Server) handleListThemes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.svc.Themes(ctx)
	if err != nil {
		s.logger.Error("mcp list_themes failed", "error", err)
		return mcp.NewToolResultError(frontend.MsgThemesFailed), nil
	}
	themes := make([]generator.Theme, len(raw))
	for i, t := range raw {
		themes[i] = generator.SplitTheme(t)
	}
	data, err := json.Marshal(themes)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleGenerateStory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	theme, err := request.RequireString("theme")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(theme) == "" {
		return mcp.NewToolResultError(frontend.MsgEmptyInput), nil
	}
	res := s.svc.Generate(ctx, theme)
	if res.Failed {
		return mcp.NewToolResultError(frontend.MsgStoryFailed), nil
	}
	return mcp.NewToolResultText(res.Story.Markdown), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(templatesURI, "Prompt templates",
		mcp.WithResourceDescription("Template identifiers and the placeholders each one requires"),
		mcp.WithMIMEType("application/json"),
	), s.handleTemplates)
}

func (s *Server) handleTemplates(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids := s.templates.IDs()
	infos := make([]templateInfo, 0, len(ids))
	for _, id := range ids {
		t, _ := s.templates.Get(id)
		infos = append(infos, templateInfo{ID: t.ID, Placeholders: t.Placeholders})
	}
	data, err := json.Marshal(infos)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      templatesURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
