package generator

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// MaxThemes is how many suggestions the theme template asks for.
const MaxThemes = 5

const themeSeparator = " - "

// ParseOptions tunes ParseThemes.
type ParseOptions struct {
	// LegacyPeriodSplit keeps only the text before the first '.', which is how
	// numbering used to be stripped. It also cuts any description containing
	// a period, so it is off unless byte-for-byte compatibility is needed.
	LegacyPeriodSplit bool
}

var numberingRe = regexp.MustCompile(`^(?:\d+[.)]|[-•])\s+`)

// ParseThemes extracts theme lines from a raw model response.
// 格式不符的行直接丢弃；结果可能为空，但从不返回错误。
func ParseThemes(raw string) []string {
	return ParseThemesWithOptions(raw, ParseOptions{})
}

// ParseThemesWithOptions is ParseThemes with explicit options.
func ParseThemesWithOptions(raw string, opts ParseOptions) []string {
	themes := []string{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !isThemeLine(line) {
			continue
		}
		line = strings.ReplaceAll(line, "*", "")
		if opts.LegacyPeriodSplit {
			line = strings.Split(line, ".")[0]
		} else {
			line = numberingRe.ReplaceAllString(strings.TrimSpace(line), "")
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		themes = append(themes, line)
		if len(themes) == MaxThemes {
			break
		}
	}
	return themes
}

func isThemeLine(line string) bool {
	return line != "" &&
		strings.Contains(line, themeSeparator) &&
		strings.Contains(line, "(") &&
		strings.Contains(line, ")")
}

// Theme is a parsed suggestion line: "Name (Term) - Description".
type Theme struct {
	Text        string `json:"text"`
	Name        string `json:"name"`
	Term        string `json:"term"`
	Description string `json:"description"`
}

// SplitTheme breaks an accepted theme line into its parts. Parts that cannot
// be located are left empty; Text always holds the full line.
func SplitTheme(text string) Theme {
	t := Theme{Text: text}
	head, desc, ok := strings.Cut(text, themeSeparator)
	if ok {
		t.Description = strings.TrimSpace(desc)
	}
	open := strings.Index(head, "(")
	closing := strings.LastIndex(head, ")")
	if open >= 0 && closing > open {
		t.Name = strings.TrimSpace(head[:open])
		t.Term = strings.TrimSpace(head[open+1 : closing])
	} else {
		t.Name = strings.TrimSpace(head)
	}
	return t
}

// ThemeGenerator asks the backend for theme suggestions.
type ThemeGenerator struct {
	stage  *Stage
	logger *slog.Logger
	parse  ParseOptions
}

// NewThemeGenerator wires the theme template to llm.
func NewThemeGenerator(llm LLMClient, opts ...Option) (*ThemeGenerator, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	o := buildOptions(opts)
	tmpl, err := o.templates.mustGet(TemplateThemes)
	if err != nil {
		return nil, err
	}
	return &ThemeGenerator{
		stage: &Stage{
			Name:     TemplateThemes,
			Label:    "theme generation",
			template: tmpl,
			llm:      llm,
			logger:   o.logger,
			hooks:    o.hooks,
		},
		logger: o.logger,
		parse:  o.parse,
	}, nil
}

// Generate makes one completion call and returns the accepted theme lines in
// model order. An empty result is not an error.
func (g *ThemeGenerator) Generate(ctx context.Context) ([]string, error) {
	start := time.Now()
	raw, err := g.stage.Run(ctx, 1, 1, nil)
	if err != nil {
		return nil, err
	}
	themes := ParseThemesWithOptions(raw, g.parse)
	g.logger.Info("theme generation finished", "themes", len(themes), "seconds", time.Since(start).Seconds())
	if len(themes) == 0 {
		g.logger.Warn("no theme lines accepted", "response_chars", len(raw))
	}
	return themes, nil
}

// Suggest is Generate for callers that need at least one theme; it reports
// ErrEmptyThemeList instead of an empty slice.
func (g *ThemeGenerator) Suggest(ctx context.Context) ([]Theme, error) {
	lines, err := g.Generate(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyThemeList
	}
	out := make([]Theme, len(lines))
	for i, l := range lines {
		out[i] = SplitTheme(l)
	}
	return out, nil
}
