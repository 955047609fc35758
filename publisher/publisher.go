// Package publisher turns a finished story into what the front-ends display:
// markdown with a theme heading, HTML and a short digest.
package publisher

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Title is the heading shown above every story.
const Title = "📖 Your Story"

const digestLimit = 160

// Story is a story ready for display.
type Story struct {
	Theme    string `json:"theme"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
	Digest   string `json:"digest"`
}

// Publisher renders stories. It is safe for concurrent use.
type Publisher struct {
	md goldmark.Markdown
}

// New creates a Publisher. Raw HTML in model output is escaped, not passed through.
func New() *Publisher {
	return &Publisher{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Typographer),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
	}
}

// Compose puts the theme-derived heading above the story text.
func Compose(theme, story string) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(Title)
	b.WriteString("\n\n## ")
	b.WriteString(strings.TrimSpace(theme))
	b.WriteString("\n\n")
	b.WriteString(story)
	return b.String()
}

// Publish builds every display form of story.
func (p *Publisher) Publish(theme, story string) (Story, error) {
	if strings.TrimSpace(theme) == "" {
		return Story{}, errors.New("theme is required")
	}
	md := Compose(theme, story)
	h, err := p.ToHTML(md)
	if err != nil {
		return Story{}, err
	}
	return Story{
		Theme:    theme,
		Markdown: md,
		HTML:     h,
		Digest:   Digest(story, digestLimit),
	}, nil
}

// ToHTML converts markdown to an HTML fragment.
func (p *Publisher) ToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// WriteFile saves s to path: a standalone HTML page for .html/.htm, markdown otherwise.
func (p *Publisher) WriteFile(path string, s Story) error {
	var data string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		data = fmt.Sprintf(pageTemplate, html.EscapeString(s.Theme), s.HTML)
	default:
		data = s.Markdown
		if !strings.HasSuffix(data, "\n") {
			data += "\n"
		}
	}
	return os.WriteFile(path, []byte(data), 0o644)
}

// Digest 取正文前若干字符作为摘要，按 rune 截断。
func Digest(text string, limit int) string {
	joined := strings.Join(strings.Fields(text), " ")
	runes := []rune(joined)
	if len(runes) <= limit {
		return joined
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`
